package tpl2pdf

import (
	"fmt"
	"strconv"

	"github.com/alnah/go-tpl2pdf/internal/pipeline"
)

// ValueKind discriminates the scalar value variants.
type ValueKind int

const (
	ValueString ValueKind = iota
	ValueInt
	ValueFloat
	ValueBool
	ValueAbsent
)

// Value is one scalar field value: a string, integer, float, boolean, or an
// absent optional. The zero Value is the empty string.
type Value struct {
	kind ValueKind
	str  string
	num  int64
	flt  float64
	bit  bool
}

// String returns a string Value.
func String(s string) Value { return Value{kind: ValueString, str: s} }

// Int returns an integer Value.
func Int(i int64) Value { return Value{kind: ValueInt, num: i} }

// Float returns a float Value.
func Float(f float64) Value { return Value{kind: ValueFloat, flt: f} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: ValueBool, bit: b} }

// Absent returns the absent-optional Value. It renders as the empty string,
// never as a "null" or "none" literal.
func Absent() Value { return Value{kind: ValueAbsent} }

// Kind returns the value's variant.
func (v Value) Kind() ValueKind { return v.kind }

// Render returns the document text form of the value, before sanitization:
// integers in decimal, floats in shortest form, booleans as "true"/"false",
// absent as "".
func (v Value) Render() string {
	switch v.kind {
	case ValueInt:
		return strconv.FormatInt(v.num, 10)
	case ValueFloat:
		return strconv.FormatFloat(v.flt, 'f', -1, 64)
	case ValueBool:
		return strconv.FormatBool(v.bit)
	case ValueAbsent:
		return ""
	default:
		return v.str
	}
}

// Row is one table row: an ordered field-name to value mapping.
type Row struct {
	names  []string
	values map[string]Value
}

// NewRow creates an empty table row.
func NewRow() *Row {
	return &Row{values: make(map[string]Value)}
}

// Set adds or replaces a field. Setting an existing name keeps its original
// position, so names stay unique by construction.
func (r *Row) Set(name string, v Value) *Row {
	if _, exists := r.values[name]; !exists {
		r.names = append(r.names, name)
	}
	r.values[name] = v
	return r
}

// SetString is shorthand for Set(name, String(v)).
func (r *Row) SetString(name, v string) *Row { return r.Set(name, String(v)) }

// SetInt is shorthand for Set(name, Int(v)).
func (r *Row) SetInt(name string, v int64) *Row { return r.Set(name, Int(v)) }

// SetFloat is shorthand for Set(name, Float(v)).
func (r *Row) SetFloat(name string, v float64) *Row { return r.Set(name, Float(v)) }

// SetBool is shorthand for Set(name, Bool(v)).
func (r *Row) SetBool(name string, v bool) *Row { return r.Set(name, Bool(v)) }

// Field returns the rendered text of the named field. Implements the
// pipeline row contract; a missing field renders as an empty cell.
func (r *Row) Field(name string) (string, bool) {
	v, ok := r.values[name]
	if !ok {
		return "", false
	}
	return v.Render(), true
}

// FieldNames returns the field names in insertion order.
func (r *Row) FieldNames() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Record is the explicit, inspectable field mapping bound to one render
// call: ordered scalar fields plus named table fields. Build one with the
// setters, derive one from a struct with RecordFromStruct, or decode one
// from YAML in the CLI. Records are not safe for concurrent mutation, but
// a fully built Record may be shared by concurrent Generate calls.
type Record struct {
	fieldNames []string
	fields     map[string]Value
	tableNames []string
	tables     map[string][]*Row
}

// NewRecord creates an empty record.
func NewRecord() *Record {
	return &Record{
		fields: make(map[string]Value),
		tables: make(map[string][]*Row),
	}
}

// Set adds or replaces a scalar field.
func (r *Record) Set(name string, v Value) *Record {
	if _, exists := r.fields[name]; !exists {
		r.fieldNames = append(r.fieldNames, name)
	}
	r.fields[name] = v
	return r
}

// SetString is shorthand for Set(name, String(v)).
func (r *Record) SetString(name, v string) *Record { return r.Set(name, String(v)) }

// SetInt is shorthand for Set(name, Int(v)).
func (r *Record) SetInt(name string, v int64) *Record { return r.Set(name, Int(v)) }

// SetFloat is shorthand for Set(name, Float(v)).
func (r *Record) SetFloat(name string, v float64) *Record { return r.Set(name, Float(v)) }

// SetBool is shorthand for Set(name, Bool(v)).
func (r *Record) SetBool(name string, v bool) *Record { return r.Set(name, Bool(v)) }

// SetAbsent marks an optional field as absent. It resolves to the empty
// string in the document.
func (r *Record) SetAbsent(name string) *Record { return r.Set(name, Absent()) }

// AddTable adds rows to the named table field, creating it if needed.
// Declaring a table with zero rows is valid and distinct from not declaring
// it at all: the former renders an empty table, the latter a diagnostic.
func (r *Record) AddTable(name string, rows ...*Row) *Record {
	if _, exists := r.tables[name]; !exists {
		r.tableNames = append(r.tableNames, name)
		r.tables[name] = []*Row{}
	}
	r.tables[name] = append(r.tables[name], rows...)
	return r
}

// Validate checks that no name is used as both a scalar and a table field.
func (r *Record) Validate() error {
	for _, name := range r.tableNames {
		if _, clash := r.fields[name]; clash {
			return fmt.Errorf("%w: %q is both a scalar and a table field", ErrInvalidRecord, name)
		}
	}
	return nil
}

// FieldNames returns the scalar field names in insertion order.
func (r *Record) FieldNames() []string {
	out := make([]string, len(r.fieldNames))
	copy(out, r.fieldNames)
	return out
}

// TableNames returns the table field names in insertion order.
func (r *Record) TableNames() []string {
	out := make([]string, len(r.tableNames))
	copy(out, r.tableNames)
	return out
}

// Scalar returns the rendered text of the named scalar field. Part of the
// pipeline record contract.
func (r *Record) Scalar(name string) (string, bool) {
	v, ok := r.fields[name]
	if !ok {
		return "", false
	}
	return v.Render(), true
}

// IsTable reports whether name is a table field.
func (r *Record) IsTable(name string) bool {
	_, ok := r.tables[name]
	return ok
}

// Table returns the rows of the named table field.
func (r *Record) Table(name string) ([]pipeline.Row, bool) {
	rows, ok := r.tables[name]
	if !ok {
		return nil, false
	}
	out := make([]pipeline.Row, len(rows))
	for i, row := range rows {
		out[i] = row
	}
	return out, true
}

// Compile-time check that the record satisfies the pipeline contracts.
var (
	_ pipeline.Record = (*Record)(nil)
	_ pipeline.Row    = (*Row)(nil)
)
