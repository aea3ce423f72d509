package pipeline

// Shared test doubles for the transformation tests. The real record type
// lives in the root package; the pipeline only sees these interfaces.

type fakeRow map[string]string

func (r fakeRow) Field(name string) (string, bool) {
	v, ok := r[name]
	return v, ok
}

type fakeRecord struct {
	scalars map[string]string
	tables  map[string][]Row
}

func (r *fakeRecord) Scalar(name string) (string, bool) {
	v, ok := r.scalars[name]
	return v, ok
}

func (r *fakeRecord) IsTable(name string) bool {
	_, ok := r.tables[name]
	return ok
}

func (r *fakeRecord) Table(name string) ([]Row, bool) {
	rows, ok := r.tables[name]
	return rows, ok
}

func emptyRecord() *fakeRecord {
	return &fakeRecord{scalars: map[string]string{}, tables: map[string][]Row{}}
}

func kinds(diags []Diagnostic) []DiagnosticKind {
	out := make([]DiagnosticKind, len(diags))
	for i, d := range diags {
		out[i] = d.Kind
	}
	return out
}
