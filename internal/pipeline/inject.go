package pipeline

import "strings"

// AssetKind selects how a loaded asset is injected.
type AssetKind int

const (
	AssetStyle AssetKind = iota
	AssetScript
)

// LoadedAsset is an asset whose content has already been read by the file
// access collaborator. Name is the original path, used in diagnostics.
type LoadedAsset struct {
	Name    string
	Kind    AssetKind
	Content string
}

// InjectAssets inlines assets into the document: styles as <style> blocks
// before </head>, scripts as <script> blocks before </body>, each kind in
// input order. The page is loaded from an in-memory string, so relative
// references would never resolve; inlining is the only placement that works.
//
// Content is escaped against early tag termination only. When an insertion
// point is missing the blocks are appended at the document end and a
// DiagAssetPlacementFallback is recorded; rendering continues without
// guaranteed placement.
func InjectAssets(doc string, assets []LoadedAsset) (string, []Diagnostic) {
	var styles, scripts strings.Builder
	for _, a := range assets {
		switch a.Kind {
		case AssetStyle:
			styles.WriteString("<style>")
			styles.WriteString(escapeClosingTags(a.Content))
			styles.WriteString("</style>")
		case AssetScript:
			scripts.WriteString("<script>")
			scripts.WriteString(escapeClosingTags(a.Content))
			scripts.WriteString("</script>")
		}
	}

	var diags []Diagnostic
	if styles.Len() > 0 {
		inserted, ok := insertBefore(doc, "</head>", styles.String())
		if !ok {
			inserted = doc + styles.String()
			diags = append(diags, Diagnostic{
				Kind:   DiagAssetPlacementFallback,
				Name:   "</head>",
				Detail: "no head close marker; style blocks appended at document end",
			})
		}
		doc = inserted
	}
	if scripts.Len() > 0 {
		inserted, ok := insertBefore(doc, "</body>", scripts.String())
		if !ok {
			inserted = doc + scripts.String()
			diags = append(diags, Diagnostic{
				Kind:   DiagAssetPlacementFallback,
				Name:   "</body>",
				Detail: "no body close marker; script blocks appended at document end",
			})
		}
		doc = inserted
	}

	return doc, diags
}

// insertBefore inserts content before the first case-insensitive occurrence
// of marker in doc. Matching folds bytes in place rather than lowercasing
// the document, since ToLower can change byte lengths for some runes and
// shift the insertion offset.
func insertBefore(doc, marker, content string) (string, bool) {
	idx := indexASCIIFold(doc, marker)
	if idx < 0 {
		return doc, false
	}
	return doc[:idx] + content + doc[idx:], true
}

// indexASCIIFold returns the first index of marker in doc comparing ASCII
// letters case-insensitively. marker must be ASCII; multibyte sequences in
// doc can never match it byte-wise.
func indexASCIIFold(doc, marker string) int {
	if len(marker) == 0 {
		return 0
	}
	for i := 0; i+len(marker) <= len(doc); i++ {
		if equalASCIIFold(doc[i:i+len(marker)], marker) {
			return i
		}
	}
	return -1
}

func equalASCIIFold(a, b string) bool {
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// escapeClosingTags prevents asset content from terminating its enclosing
// <style> or <script> block prematurely.
func escapeClosingTags(content string) string {
	return strings.ReplaceAll(content, "</", `<\/`)
}
