package tpl2pdf

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// AssetKind selects how an asset is injected into the document.
type AssetKind int

const (
	// AssetStyle injects the file as a <style> block before </head>.
	AssetStyle AssetKind = iota
	// AssetScript injects the file as a <script> block before </body>.
	AssetScript
)

// Asset references a stylesheet or script file to inject into the document.
// Its lifetime is scoped to one render call.
type Asset struct {
	Path string
	Kind AssetKind
}

// PrintOptions control Chrome's PDF printing. All dimensions are
// millimetres; nil pointer fields mean "engine default". Booleans default
// to false.
type PrintOptions struct {
	PrintBackground   bool
	PaperWidth        *float64 // > 0 when set
	PaperHeight       *float64 // > 0 when set
	MarginTop         *float64 // >= 0 when set
	MarginBottom      *float64 // >= 0 when set
	MarginLeft        *float64 // >= 0 when set
	MarginRight       *float64 // >= 0 when set
	PageRanges        string   // e.g. "1-3,5"; empty = all pages
	PreferCSSPageSize bool
	Landscape         bool
}

// Mm returns a pointer to a millimetre value, for the optional dimension
// fields of PrintOptions.
func Mm(v float64) *float64 {
	return &v
}

// Validate checks the option invariants. Returns nil if p is nil (nil means
// engine defaults). Runs before any engine interaction.
func (p *PrintOptions) Validate() error {
	if p == nil {
		return nil
	}

	dims := []struct {
		name  string
		value *float64
	}{
		{"paperWidth", p.PaperWidth},
		{"paperHeight", p.PaperHeight},
	}
	for _, d := range dims {
		if d.value != nil && *d.value <= 0 {
			return fmt.Errorf("%w: %s must be > 0, got %.2f", ErrInvalidOptions, d.name, *d.value)
		}
	}

	margins := []struct {
		name  string
		value *float64
	}{
		{"marginTop", p.MarginTop},
		{"marginBottom", p.MarginBottom},
		{"marginLeft", p.MarginLeft},
		{"marginRight", p.MarginRight},
	}
	for _, m := range margins {
		if m.value != nil && *m.value < 0 {
			return fmt.Errorf("%w: %s must be >= 0, got %.2f", ErrInvalidOptions, m.name, *m.value)
		}
	}

	if p.PageRanges != "" {
		if err := validatePageRanges(p.PageRanges); err != nil {
			return fmt.Errorf("%w: pageRanges %q: %v", ErrInvalidOptions, p.PageRanges, err)
		}
	}

	return nil
}

// validatePageRanges checks the comma-separated range grammar: each part is
// a positive integer "a" or a span "a-b" with a <= b.
func validatePageRanges(s string) error {
	for _, part := range strings.Split(s, ",") {
		lo, hi, found := strings.Cut(part, "-")
		a, err := parsePositiveInt(lo)
		if err != nil {
			return err
		}
		if !found {
			continue
		}
		b, err := parsePositiveInt(hi)
		if err != nil {
			return err
		}
		if a > b {
			return fmt.Errorf("descending range %d-%d", a, b)
		}
	}
	return nil
}

func parsePositiveInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("not a page number: %q", s)
	}
	if n < 1 {
		return 0, fmt.Errorf("page numbers start at 1, got %d", n)
	}
	return n, nil
}

// Input describes one render call.
type Input struct {
	// HTML is the template content. Mutually exclusive with TemplatePath;
	// exactly one of the two must be set.
	HTML string

	// TemplatePath names a template file to read.
	TemplatePath string

	// BaseDir is the base for relative image paths in the template. When
	// empty it defaults to the template file's directory, or the working
	// directory for inline HTML.
	BaseDir string

	// Record supplies the field values. Nil behaves like an empty record:
	// every placeholder stays unresolved and is diagnosed.
	Record *Record

	// Assets are injected into the document in order.
	Assets []Asset

	// Print configures the PDF output. Nil means engine defaults.
	Print *PrintOptions

	// HTMLOnly skips the engine and returns only the assembled HTML, for
	// debugging templates without a browser.
	HTMLOnly bool
}

// DiagnosticKind classifies a non-fatal observation.
type DiagnosticKind string

// Diagnostic kinds.
const (
	DiagUnresolvedPlaceholder  DiagnosticKind = "unresolved_placeholder"
	DiagTableFieldAsScalar     DiagnosticKind = "table_field_as_scalar"
	DiagMissingTableField      DiagnosticKind = "missing_table_field"
	DiagAssetPlacementFallback DiagnosticKind = "asset_placement_fallback"
	DiagImageSkipped           DiagnosticKind = "image_skipped"
)

// Diagnostic is a non-fatal observation returned alongside a successful
// result. Name identifies the placeholder, table, asset, or image involved.
type Diagnostic struct {
	Kind   DiagnosticKind
	Name   string
	Detail string
}

// Result is the outcome of one render call. PDF is empty in HTMLOnly mode.
// There is no partial result: a failed render returns an error and no
// Result.
type Result struct {
	PDF         []byte
	HTML        []byte
	Diagnostics []Diagnostic
}

// Option configures a Generator.
type Option func(*Generator)

// generatorConfig holds internal configuration for Generator.
type generatorConfig struct {
	timeout   time.Duration
	noSandbox bool
}

// defaultTimeout bounds page load and PDF generation when no timeout is
// specified.
const defaultTimeout = 30 * time.Second

// WithTimeout sets the per-render timeout.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("tpl2pdf: WithTimeout duration must be positive")
	}
	return func(g *Generator) {
		g.cfg.timeout = d
	}
}

// WithNoSandbox launches the browser without its sandbox. Required in most
// containerized environments.
func WithNoSandbox() Option {
	return func(g *Generator) {
		g.cfg.noSandbox = true
	}
}
