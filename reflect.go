package tpl2pdf

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"
)

// RecordFromStruct builds a Record from a struct using reflection. v must be
// a struct or a non-nil pointer to one.
//
// Field mapping:
//   - `pdf:"name"` overrides the field name; `pdf:"-"` skips the field.
//   - Without a tag, the Go field name is converted to snake_case.
//   - string, bool, signed/unsigned integers and floats become scalars.
//   - A nil pointer scalar becomes an absent field.
//   - A slice of structs becomes a table; each element maps to a row by the
//     same rules. A nil pointer to a slice omits the table entirely.
//
// Any other field type returns ErrInvalidRecord.
func RecordFromStruct(v any) (*Record, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, fmt.Errorf("%w: nil pointer", ErrInvalidRecord)
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: expected a struct, got %s", ErrInvalidRecord, rv.Kind())
	}

	rec := NewRecord()
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		name, skip := fieldName(sf)
		if skip {
			continue
		}

		fv := rv.Field(i)

		// A nil *[]T omits the table; a nil scalar pointer is an absent
		// field. Distinguish before dereferencing.
		if fv.Kind() == reflect.Pointer {
			if fv.IsNil() {
				if fv.Type().Elem().Kind() == reflect.Slice {
					continue
				}
				rec.SetAbsent(name)
				continue
			}
			fv = fv.Elem()
		}

		if fv.Kind() == reflect.Slice && fv.Type().Elem().Kind() == reflect.Struct {
			rows := make([]*Row, fv.Len())
			for j := 0; j < fv.Len(); j++ {
				row, err := rowFromStruct(fv.Index(j))
				if err != nil {
					return nil, fmt.Errorf("table %q row %d: %w", name, j, err)
				}
				rows[j] = row
			}
			rec.AddTable(name, rows...)
			continue
		}

		val, err := scalarValue(fv)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		rec.Set(name, val)
	}

	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return rec, nil
}

// rowFromStruct maps one slice element to a table row.
func rowFromStruct(rv reflect.Value) (*Row, error) {
	row := NewRow()
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		name, skip := fieldName(sf)
		if skip {
			continue
		}

		fv := rv.Field(i)
		if fv.Kind() == reflect.Pointer {
			if fv.IsNil() {
				row.Set(name, Absent())
				continue
			}
			fv = fv.Elem()
		}

		val, err := scalarValue(fv)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		row.Set(name, val)
	}
	return row, nil
}

func scalarValue(fv reflect.Value) (Value, error) {
	switch fv.Kind() {
	case reflect.String:
		return String(fv.String()), nil
	case reflect.Bool:
		return Bool(fv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(fv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Int(int64(fv.Uint())), nil
	case reflect.Float32, reflect.Float64:
		return Float(fv.Float()), nil
	default:
		return Value{}, fmt.Errorf("%w: unsupported field type %s", ErrInvalidRecord, fv.Type())
	}
}

// fieldName resolves the record field name from the struct tag, falling back
// to a snake_case form of the Go name.
func fieldName(sf reflect.StructField) (name string, skip bool) {
	tag, ok := sf.Tag.Lookup("pdf")
	if !ok {
		return snakeCase(sf.Name), false
	}
	if tag == "-" {
		return "", true
	}
	name, _, _ = strings.Cut(tag, ",")
	if name == "" {
		name = snakeCase(sf.Name)
	}
	return name, false
}

// snakeCase converts a Go identifier to snake_case, keeping acronym runs
// intact: "InvoiceID" -> "invoice_id", "HTMLBody" -> "html_body".
func snakeCase(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (!unicode.IsUpper(runes[i-1]) ||
				(i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
