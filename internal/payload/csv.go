package payload

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ParseCSV parses headerless CSV. Column order is the feature order.
func ParseCSV(body []byte) (Table, error) {
	r := csv.NewReader(bytes.NewReader(body))
	r.TrimLeadingSpace = true
	r.ReuseRecord = true

	var table Table
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}

		row := make([]float64, len(record))
		for i, field := range record {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d column %d: %q is not a number", ErrMalformed, len(table)+1, i+1, field)
			}
			row[i] = v
		}
		table = append(table, row)
	}

	if err := rectangular(table); err != nil {
		return nil, err
	}

	return table, nil
}
