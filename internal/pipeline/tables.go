package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

// Hard parse failures. Everything else the expander observes is a
// diagnostic; a marker it cannot parse unambiguously aborts the render.
var (
	ErrNestedMarker = errors.New("nested table marker")
	ErrMarkerSyntax = errors.New("malformed table marker")
)

// Marker vocabulary. The grammar is strict and documented; variants outside
// it are parse errors, not guesses.
const (
	tableMarkerOpen  = "<inject-table"
	tableMarkerClose = "</inject-table>"
	columnOpen       = "<inject-column"
	columnClose      = "</inject-column>"
)

type attribute struct {
	name  string
	value string
}

type column struct {
	prop  string
	label string
}

type tableMarker struct {
	items   string
	extras  []attribute // carried onto the generated <table> tag
	columns []column
}

// ExpandTables replaces every table-injection marker in doc with generated
// <table> markup. A marker names a table field (items attribute) and
// declares its columns in order:
//
//	<inject-table items="rows" class="report">
//	    <inject-column prop="index" label="#"/>
//	    <inject-column prop="name" label="Name"></inject-column>
//	</inject-table>
//
// Output rows follow the record's row order; cells follow declaration
// order. A marker whose table field is absent renders header-only with a
// DiagMissingTableField. Nested markers and grammar violations are hard
// errors. A document without markers passes through unchanged.
//
// The returned spans locate each generated table in the output document, in
// ascending order. The resolver skips them so cell data is substituted into
// the document without ever being scanned for placeholder tokens.
func ExpandTables(doc string, rec Record) (string, []Span, []Diagnostic, error) {
	var b strings.Builder
	b.Grow(len(doc))

	var spans []Span
	var diags []Diagnostic
	i := 0
	for {
		rel := strings.Index(doc[i:], tableMarkerOpen)
		if rel < 0 {
			b.WriteString(doc[i:])
			break
		}
		start := i + rel

		// A longer element name sharing the prefix is not a marker.
		after := start + len(tableMarkerOpen)
		if after < len(doc) && !isSpace(doc[after]) && doc[after] != '>' && doc[after] != '/' {
			b.WriteString(doc[i:after])
			i = after
			continue
		}

		b.WriteString(doc[i:start])
		marker, end, err := parseTableMarker(doc, start)
		if err != nil {
			return "", nil, nil, err
		}

		rendered, ds := renderTable(marker, rec)
		from := b.Len()
		b.WriteString(rendered)
		spans = append(spans, Span{Start: from, End: b.Len()})
		diags = append(diags, ds...)
		i = end
	}

	return b.String(), spans, diags, nil
}

// parseTableMarker parses one marker element starting at start and returns
// the index just past its closing tag.
func parseTableMarker(doc string, start int) (*tableMarker, int, error) {
	attrs, pos, selfClosing, err := parseAttributes(doc, start+len(tableMarkerOpen))
	if err != nil {
		return nil, 0, err
	}
	if selfClosing {
		return nil, 0, fmt.Errorf("%w: marker has no column declarations", ErrMarkerSyntax)
	}

	m := &tableMarker{}
	for _, a := range attrs {
		if a.name == "items" {
			if m.items != "" {
				return nil, 0, fmt.Errorf("%w: duplicate items attribute", ErrMarkerSyntax)
			}
			m.items = a.value
			continue
		}
		m.extras = append(m.extras, a)
	}
	if m.items == "" {
		return nil, 0, fmt.Errorf("%w: missing items attribute", ErrMarkerSyntax)
	}

	for {
		pos = skipSpace(doc, pos)
		switch {
		case pos >= len(doc):
			return nil, 0, fmt.Errorf("%w: unclosed marker for %q", ErrMarkerSyntax, m.items)
		case strings.HasPrefix(doc[pos:], tableMarkerClose):
			if len(m.columns) == 0 {
				return nil, 0, fmt.Errorf("%w: marker %q declares no columns", ErrMarkerSyntax, m.items)
			}
			return m, pos + len(tableMarkerClose), nil
		case strings.HasPrefix(doc[pos:], tableMarkerOpen):
			return nil, 0, fmt.Errorf("%w: inside marker %q", ErrNestedMarker, m.items)
		case strings.HasPrefix(doc[pos:], columnOpen):
			col, next, err := parseColumn(doc, pos)
			if err != nil {
				return nil, 0, err
			}
			m.columns = append(m.columns, col)
			pos = next
		default:
			return nil, 0, fmt.Errorf("%w: unexpected content inside marker %q", ErrMarkerSyntax, m.items)
		}
	}
}

// parseColumn parses one <inject-column prop="..." label="..."/> element,
// self-closing or with an empty body. Attribute order is free; both
// attributes are required and nothing else is accepted.
func parseColumn(doc string, start int) (column, int, error) {
	attrs, pos, selfClosing, err := parseAttributes(doc, start+len(columnOpen))
	if err != nil {
		return column{}, 0, err
	}

	var col column
	for _, a := range attrs {
		switch a.name {
		case "prop":
			col.prop = a.value
		case "label":
			col.label = a.value
		default:
			return column{}, 0, fmt.Errorf("%w: unexpected column attribute %q", ErrMarkerSyntax, a.name)
		}
	}
	if col.prop == "" || col.label == "" {
		return column{}, 0, fmt.Errorf("%w: column requires prop and label attributes", ErrMarkerSyntax)
	}

	if !selfClosing {
		pos = skipSpace(doc, pos)
		if !strings.HasPrefix(doc[pos:], columnClose) {
			return column{}, 0, fmt.Errorf("%w: column element must be empty", ErrMarkerSyntax)
		}
		pos += len(columnClose)
	}
	return col, pos, nil
}

// parseAttributes reads name="value" pairs starting just after an element
// name. Values must be double-quoted. Returns the index past the closing >
// (or />) and whether the tag was self-closing.
func parseAttributes(doc string, pos int) (attrs []attribute, end int, selfClosing bool, err error) {
	for {
		pos = skipSpace(doc, pos)
		if pos >= len(doc) {
			return nil, 0, false, fmt.Errorf("%w: unterminated tag", ErrMarkerSyntax)
		}
		if doc[pos] == '>' {
			return attrs, pos + 1, false, nil
		}
		if strings.HasPrefix(doc[pos:], "/>") {
			return attrs, pos + 2, true, nil
		}

		nameStart := pos
		for pos < len(doc) && isAttrNameChar(doc[pos]) {
			pos++
		}
		if pos == nameStart || pos >= len(doc) || doc[pos] != '=' {
			return nil, 0, false, fmt.Errorf("%w: expected attribute in name=%q form", ErrMarkerSyntax, "value")
		}
		name := doc[nameStart:pos]
		pos++ // '='
		if pos >= len(doc) || doc[pos] != '"' {
			return nil, 0, false, fmt.Errorf("%w: attribute %q value must be double-quoted", ErrMarkerSyntax, name)
		}
		pos++
		valueEnd := strings.IndexByte(doc[pos:], '"')
		if valueEnd < 0 {
			return nil, 0, false, fmt.Errorf("%w: unterminated value for attribute %q", ErrMarkerSyntax, name)
		}
		attrs = append(attrs, attribute{name: name, value: doc[pos : pos+valueEnd]})
		pos += valueEnd + 1
	}
}

// renderTable generates the replacement <table> markup for one marker.
// Extra marker attributes carry over verbatim so templates can keep their
// styling hooks; labels and cell values are sanitized.
func renderTable(m *tableMarker, rec Record) (string, []Diagnostic) {
	var diags []Diagnostic

	rows, ok := rec.Table(m.items)
	if !ok {
		diags = append(diags, Diagnostic{
			Kind:   DiagMissingTableField,
			Name:   m.items,
			Detail: "table field not present in record; rendered header only",
		})
	}

	var b strings.Builder
	b.WriteString("<table")
	for _, a := range m.extras {
		b.WriteByte(' ')
		b.WriteString(a.name)
		b.WriteString(`="`)
		b.WriteString(a.value)
		b.WriteByte('"')
	}
	b.WriteString("><thead><tr>")
	for _, c := range m.columns {
		b.WriteString("<th>")
		b.WriteString(Sanitize(c.label))
		b.WriteString("</th>")
	}
	b.WriteString("</tr></thead><tbody>")
	for _, row := range rows {
		b.WriteString("<tr>")
		for _, c := range m.columns {
			b.WriteString("<td>")
			if value, found := row.Field(c.prop); found {
				b.WriteString(Sanitize(value))
			}
			b.WriteString("</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</tbody></table>")

	return b.String(), diags
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func skipSpace(doc string, pos int) int {
	for pos < len(doc) && isSpace(doc[pos]) {
		pos++
	}
	return pos
}

func isAttrNameChar(c byte) bool {
	return c == '-' || c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}
