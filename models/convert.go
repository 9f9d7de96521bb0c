package models

import (
	"encoding/json"
	"strconv"
)

// Row is the generic key/value projection the row store gateway hands back.
// It only exists at the boundary; everything past the repository layer works
// with the typed records in this package.
type Row = map[string]any

// AsFloat converts a row value to a float when possible. PostgREST numbers
// arrive as json.Number or float64 depending on the decoder, and ingestion
// scripts have written the odd numeric string.
func AsFloat(v any) *float64 {
	switch n := v.(type) {
	case nil:
		return nil
	case float64:
		return &n
	case float32:
		f := float64(n)
		return &f
	case int:
		f := float64(n)
		return &f
	case int64:
		f := float64(n)
		return &f
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return &f
		}
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return &f
		}
	}
	return nil
}

// AsInt converts a row value to an int when possible.
func AsInt(v any) *int {
	if f := AsFloat(v); f != nil {
		i := int(*f)
		return &i
	}
	return nil
}

// AsString converts a row value to a string, returning "" for nil.
func AsString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	case json.Number:
		return s.String()
	default:
		b, err := json.Marshal(s)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// NormalizePercent maps a rate stored either as a fraction (0-1) or a
// percentage (0-100) onto the percentage scale. Applied once, at the read
// boundary; every consumer sees percent.
func NormalizePercent(v *float64) *float64 {
	if v == nil {
		return nil
	}
	if *v >= 0.0 && *v <= 1.0 {
		p := *v * 100.0
		return &p
	}
	return v
}
