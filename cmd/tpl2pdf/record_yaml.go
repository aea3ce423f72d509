package main

import (
	"errors"
	"fmt"
	"os"

	tpl2pdf "github.com/alnah/go-tpl2pdf"
	"github.com/alnah/go-tpl2pdf/internal/yamlutil"
)

// Sentinel errors for data file loading.
var (
	ErrReadData        = errors.New("failed to read data file")
	ErrInvalidDataFile = errors.New("invalid data file")
)

// loadRecord reads a YAML data file into a Record, preserving field order.
// Top-level scalars become scalar fields; a sequence of mappings becomes a
// table field. Anything else (nested mappings, mixed sequences) is rejected.
func loadRecord(path string) (*tpl2pdf.Record, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided data file
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadData, err)
	}

	items, err := yamlutil.UnmarshalOrdered(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidDataFile, path, err)
	}

	rec := tpl2pdf.NewRecord()
	for _, item := range items {
		switch v := item.Value.(type) {
		case []any:
			rows, err := tableRows(v)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: table %q: %v", ErrInvalidDataFile, path, item.Key, err)
			}
			rec.AddTable(item.Key, rows...)
		case []yamlutil.MapItem:
			return nil, fmt.Errorf("%w: %s: field %q: nested mappings are not supported",
				ErrInvalidDataFile, path, item.Key)
		default:
			val, err := scalarValue(v)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: field %q: %v", ErrInvalidDataFile, path, item.Key, err)
			}
			rec.Set(item.Key, val)
		}
	}

	if err := rec.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidDataFile, path, err)
	}
	return rec, nil
}

// tableRows converts a YAML sequence of mappings into table rows.
func tableRows(seq []any) ([]*tpl2pdf.Row, error) {
	rows := make([]*tpl2pdf.Row, 0, len(seq))
	for i, elem := range seq {
		fields, ok := elem.([]yamlutil.MapItem)
		if !ok {
			return nil, fmt.Errorf("row %d is not a mapping", i)
		}
		row := tpl2pdf.NewRow()
		for _, f := range fields {
			val, err := scalarValue(f.Value)
			if err != nil {
				return nil, fmt.Errorf("row %d field %q: %v", i, f.Key, err)
			}
			row.Set(f.Key, val)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// scalarValue maps a decoded YAML scalar onto a record Value. YAML null
// marks an optional field as absent.
func scalarValue(v any) (tpl2pdf.Value, error) {
	switch t := v.(type) {
	case nil:
		return tpl2pdf.Absent(), nil
	case string:
		return tpl2pdf.String(t), nil
	case bool:
		return tpl2pdf.Bool(t), nil
	case int:
		return tpl2pdf.Int(int64(t)), nil
	case int64:
		return tpl2pdf.Int(t), nil
	case uint64:
		return tpl2pdf.Int(int64(t)), nil
	case float64:
		return tpl2pdf.Float(t), nil
	default:
		return tpl2pdf.Value{}, fmt.Errorf("unsupported value type %T", v)
	}
}
