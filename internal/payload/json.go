package payload

import (
	"encoding/json"
	"fmt"
)

// ParseJSON parses an array of rows, or an object whose "instances" key holds one.
// A flat array of numbers is a single instance.
func ParseJSON(body []byte) (Table, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	if obj, ok := doc.(map[string]any); ok {
		instances, ok := obj["instances"]
		if !ok {
			return nil, fmt.Errorf("%w: object payload must have an \"instances\" key", ErrMalformed)
		}
		doc = instances
	}

	return FromValues(doc)
}

// FromValues converts decoded JSON values (as produced by encoding/json) into a table.
func FromValues(v any) (Table, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: instances must be an array", ErrMalformed)
	}

	if len(items) > 0 {
		if _, flat := items[0].(float64); flat {
			row, err := numbers(items, 0)
			if err != nil {
				return nil, err
			}
			return Table{row}, nil
		}
	}

	table := make(Table, len(items))
	for i, item := range items {
		values, ok := item.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: row %d is not an array", ErrMalformed, i)
		}

		row, err := numbers(values, i)
		if err != nil {
			return nil, err
		}
		table[i] = row
	}

	if err := rectangular(table); err != nil {
		return nil, err
	}

	return table, nil
}

func numbers(values []any, row int) ([]float64, error) {
	out := make([]float64, len(values))
	for j, v := range values {
		f, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("%w: row %d column %d is not a number", ErrMalformed, row, j)
		}
		out[j] = f
	}
	return out, nil
}
