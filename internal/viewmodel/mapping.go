// Package viewmodel turns raw backend records (snake_case JSON objects) into the
// dashboard's camelCase view models.
//
// Each resource declares a Mapping: a table of fields, where each field names the
// source key, the destination key, a default used when the source is missing or
// null, and an optional conversion. Decode applies the table and unmarshals the
// result into the view model type, so rendering code never sees a missing field.
package viewmodel

import (
	"encoding/json"
	"fmt"
)

type Field struct {
	From    string
	To      string
	Default any
	// Convert runs on the non-null source value. Its result replaces the value;
	// returning nil selects Default.
	Convert func(v any) any
}

type Mapping []Field

// Apply maps raw into a new camelCase object. Keys not named in the mapping are dropped.
func (m Mapping) Apply(raw map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for _, f := range m {
		v, ok := raw[f.From]
		if ok && v != nil && f.Convert != nil {
			v = f.Convert(v)
		}
		if !ok || v == nil {
			v = f.Default
		}
		if v == nil {
			continue
		}
		out[f.To] = v
	}
	return out
}

// Decode applies m to raw and decodes the result into T.
func Decode[T any](m Mapping, raw map[string]any) (T, error) {
	var out T
	b, err := json.Marshal(m.Apply(raw))
	if err != nil {
		return out, fmt.Errorf("viewmodel: encode: %w", err)
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, fmt.Errorf("viewmodel: decode: %w", err)
	}
	return out, nil
}

// DecodeAll decodes every record, stopping at the first failure.
func DecodeAll[T any](m Mapping, raws []map[string]any) ([]T, error) {
	out := make([]T, 0, len(raws))
	for i, raw := range raws {
		v, err := Decode[T](m, raw)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}
