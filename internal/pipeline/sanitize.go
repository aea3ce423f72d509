package pipeline

import "strings"

// sanitizeReplacer escapes the five markup-significant characters. The
// ampersand pair comes first: the replacer substitutes each input character
// once and never rescans its own output, so entities produced by the other
// pairs keep their ampersand intact.
var sanitizeReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// Sanitize escapes raw text so it cannot be interpreted as markup when
// inserted into a document. Any string is valid input. Text that already
// contains entities gets its ampersands re-escaped; callers must sanitize
// raw values exactly once.
func Sanitize(raw string) string {
	return sanitizeReplacer.Replace(raw)
}
