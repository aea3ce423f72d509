package pipeline

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// imgTagPattern matches <img> elements and captures the src value. The page
// is rendered from an in-memory string, so file references must become data
// URIs before the document reaches the browser.
var imgTagPattern = regexp.MustCompile(`(?is)<img[^>]*\ssrc="([^"]*)"[^>]*>`)

// InlineImages rewrites every <img src="..."> reference to a data: URI.
// Relative paths resolve against baseDir. References that are already data
// URIs pass through untouched. An unreadable file or an undetectable type
// keeps its original src and records a DiagImageSkipped; a missing image is
// tolerated, not fatal.
func InlineImages(doc, baseDir string) (string, []Diagnostic) {
	var diags []Diagnostic

	result := imgTagPattern.ReplaceAllStringFunc(doc, func(tag string) string {
		// Submatch indices pin the src value span inside the tag; other
		// attributes may repeat the same text (alt="pic.png").
		loc := imgTagPattern.FindStringSubmatchIndex(tag)
		src := tag[loc[2]:loc[3]]
		if src == "" || strings.HasPrefix(src, "data:") {
			return tag
		}

		path := src
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}

		data, err := os.ReadFile(path) // #nosec G304 -- path comes from the caller's template
		if err != nil {
			diags = append(diags, Diagnostic{
				Kind:   DiagImageSkipped,
				Name:   src,
				Detail: "cannot read image: " + err.Error(),
			})
			return tag
		}

		mt := mimetype.Detect(data)
		if mt.Is("application/octet-stream") {
			diags = append(diags, Diagnostic{
				Kind:   DiagImageSkipped,
				Name:   src,
				Detail: "cannot detect image type",
			})
			return tag
		}

		dataURI := "data:" + mt.String() + ";base64," + base64.StdEncoding.EncodeToString(data)
		return tag[:loc[2]] + dataURI + tag[loc[3]:]
	})

	return result, diags
}
