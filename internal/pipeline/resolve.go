package pipeline

import "strings"

// Span marks a half-open byte range [Start, End) of a document. ExpandTables
// reports the ranges it generated so the resolver can leave them alone.
type Span struct {
	Start int
	End   int
}

// ResolvePlaceholders substitutes %%name%% tokens with sanitized scalar
// values from rec. The document is scanned once, left to right; substituted
// values are written straight to the output and never rescanned, so a field
// value containing %% cannot trigger further substitution. Ranges listed in
// skip (ascending, non-overlapping) are copied verbatim without scanning:
// table cells carry user data, and data must never pull other record fields
// into the output.
//
// Tokens naming unknown fields stay verbatim and produce one
// DiagUnresolvedPlaceholder per distinct name. Table fields belong to
// ExpandTables; a table name used as a scalar token stays verbatim with a
// DiagTableFieldAsScalar.
func ResolvePlaceholders(doc string, rec Record, skip []Span) (string, []Diagnostic) {
	var b strings.Builder
	b.Grow(len(doc))

	r := &resolver{rec: rec, reported: make(map[string]bool)}
	prev := 0
	for _, s := range skip {
		r.resolve(&b, doc[prev:s.Start])
		b.WriteString(doc[s.Start:s.End])
		prev = s.End
	}
	r.resolve(&b, doc[prev:])

	return b.String(), r.diags
}

// resolver carries the diagnostic state shared by every scanned segment, so
// a name repeated across segments is still reported once.
type resolver struct {
	rec      Record
	reported map[string]bool
	diags    []Diagnostic
}

func (r *resolver) resolve(b *strings.Builder, doc string) {
	i := 0
	for i < len(doc) {
		rel := strings.Index(doc[i:], "%%")
		if rel < 0 {
			b.WriteString(doc[i:])
			return
		}
		open := i + rel
		b.WriteString(doc[i:open])

		name, end, ok := scanPlaceholder(doc, open)
		if !ok {
			// Not a token. Emit a single % so overlapping candidates
			// like %%%%name%% still resolve the inner token.
			b.WriteByte(doc[open])
			i = open + 1
			continue
		}

		switch {
		case r.rec.IsTable(name):
			b.WriteString(doc[open:end])
			if !r.reported[name] {
				r.reported[name] = true
				r.diags = append(r.diags, Diagnostic{
					Kind:   DiagTableFieldAsScalar,
					Name:   name,
					Detail: "table field used as scalar placeholder",
				})
			}
		default:
			if value, found := r.rec.Scalar(name); found {
				b.WriteString(Sanitize(value))
			} else {
				b.WriteString(doc[open:end])
				if !r.reported[name] {
					r.reported[name] = true
					r.diags = append(r.diags, Diagnostic{
						Kind:   DiagUnresolvedPlaceholder,
						Name:   name,
						Detail: "no field with this name in the record",
					})
				}
			}
		}
		i = end
	}
}

// scanPlaceholder checks whether doc[open:] starts a %%identifier%% token.
// Identifiers match [A-Za-z_][A-Za-z0-9_]*. Returns the identifier and the
// index just past the closing %%.
func scanPlaceholder(doc string, open int) (name string, end int, ok bool) {
	j := open + 2
	if j >= len(doc) || !isIdentStart(doc[j]) {
		return "", 0, false
	}
	k := j + 1
	for k < len(doc) && isIdentPart(doc[k]) {
		k++
	}
	if !strings.HasPrefix(doc[k:], "%%") {
		return "", 0, false
	}
	return doc[j:k], k + 2, true
}

func isIdentStart(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || ('0' <= c && c <= '9')
}
