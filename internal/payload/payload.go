// Package payload turns request bodies into numeric tables.
package payload

import (
	"bytes"
	"fmt"
	"mime"
	"slices"
	"strings"
	"sync"
)

// Media types accepted out of the box.
const (
	MediaTypeCSV  = "text/csv"
	MediaTypeText = "text/plain"
	MediaTypeJSON = "application/json"
)

// Table is a rectangular numeric matrix: one row per instance, one column per feature.
type Table [][]float64

// Columns returns the width of the table.
func (t Table) Columns() int {
	if len(t) == 0 {
		return 0
	}
	return len(t[0])
}

// ParseFunc parses a non-empty body into a rectangular table.
type ParseFunc func(body []byte) (Table, error)

// Parsers maps media types to parse functions.
type Parsers struct {
	byType map[string]ParseFunc
	mu     sync.RWMutex
}

// NewParsers creates an empty parser table.
func NewParsers() *Parsers {
	return &Parsers{
		byType: make(map[string]ParseFunc),
	}
}

// DefaultParsers returns the CSV and JSON parsers.
func DefaultParsers() *Parsers {
	p := NewParsers()
	p.Register(MediaTypeCSV, ParseCSV)
	p.Register(MediaTypeText, ParseCSV)
	p.Register(MediaTypeJSON, ParseJSON)
	return p
}

// Register binds mediaType to fn, replacing any previous binding.
func (p *Parsers) Register(mediaType string, fn ParseFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.byType[strings.ToLower(mediaType)] = fn
}

// MediaTypes returns the registered media types, sorted.
func (p *Parsers) MediaTypes() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	types := make([]string, 0, len(p.byType))
	for t := range p.byType {
		types = append(types, t)
	}
	slices.Sort(types)

	return types
}

// Lookup returns the parser for a Content-Type header value. Parameters such as charset are ignored.
func (p *Parsers) Lookup(contentType string) (ParseFunc, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMediaType, contentType)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	fn, ok := p.byType[mediaType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMediaType, contentType)
	}

	return fn, nil
}

// Parse parses body according to contentType.
func (p *Parsers) Parse(contentType string, body []byte) (Table, error) {
	fn, err := p.Lookup(contentType)
	if err != nil {
		return nil, err
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrEmptyBody
	}

	table, err := fn(body)
	if err != nil {
		return nil, err
	}
	if len(table) == 0 {
		return nil, fmt.Errorf("%w: no instances", ErrEmptyBody)
	}

	return table, nil
}

// rectangular checks that every row has the width of the first one.
func rectangular(t Table) error {
	width := t.Columns()
	for i, row := range t {
		if len(row) != width {
			return fmt.Errorf("%w: row %d has %d columns, expected %d", ErrMalformed, i, len(row), width)
		}
	}
	if len(t) > 0 && width == 0 {
		return fmt.Errorf("%w: rows have no columns", ErrMalformed)
	}
	return nil
}
