package pipeline

// Record is the read-only view of a template record the transformations
// consume. Scalar returns the rendered (not yet sanitized) text form of a
// scalar field: integers in decimal, floats in shortest form, booleans as
// "true"/"false", absent optionals as the empty string.
type Record interface {
	Scalar(name string) (value string, ok bool)
	IsTable(name string) bool
	Table(name string) (rows []Row, ok bool)
}

// Row is one row of a table field. Field follows the same rendering rules
// as Record.Scalar.
type Row interface {
	Field(name string) (value string, ok bool)
}

// DiagnosticKind classifies a non-fatal observation.
type DiagnosticKind string

// Diagnostic kinds reported by the transformations.
const (
	DiagUnresolvedPlaceholder  DiagnosticKind = "unresolved_placeholder"
	DiagTableFieldAsScalar     DiagnosticKind = "table_field_as_scalar"
	DiagMissingTableField      DiagnosticKind = "missing_table_field"
	DiagAssetPlacementFallback DiagnosticKind = "asset_placement_fallback"
	DiagImageSkipped           DiagnosticKind = "image_skipped"
)

// Diagnostic is a non-fatal observation collected during assembly and
// returned alongside a successful result. Name identifies the placeholder,
// table, asset, or image involved.
type Diagnostic struct {
	Kind   DiagnosticKind
	Name   string
	Detail string
}
