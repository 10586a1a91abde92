package model

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Predictor is the capability every loaded model exposes.
type Predictor interface {
	// Kind returns the predictor kind as written in the artifact.
	Kind() string

	// Predict returns one output per row. Outputs are JSON-encodable scalars or vectors.
	Predict(ctx context.Context, rows [][]float64) ([]any, error)
}

// DecodeFunc builds a Predictor from the parameters of a predictor document.
type DecodeFunc func(params json.RawMessage) (Predictor, error)

// Bundle is a loaded artifact: the predictor and, optionally, the feature columns it was trained on.
type Bundle struct {
	LoadedAt       time.Time
	Predictor      Predictor
	Path           string
	FeatureColumns []string
}

// HasFeatureColumns reports whether the artifact constrains the input width.
func (b *Bundle) HasFeatureColumns() bool {
	return b.FeatureColumns != nil
}

// CheckWidth validates that a table with the given column count matches the feature columns.
func (b *Bundle) CheckWidth(columns int) error {
	if !b.HasFeatureColumns() {
		return nil
	}
	if columns != len(b.FeatureColumns) {
		return &FeatureMismatchError{Expected: len(b.FeatureColumns), Got: columns}
	}
	return nil
}

// FeatureMismatchError is returned when the input width differs from the artifact's feature columns.
type FeatureMismatchError struct {
	Expected int
	Got      int
}

func (e *FeatureMismatchError) Error() string {
	return fmt.Sprintf("Expected %d features, got %d", e.Expected, e.Got)
}

// checkWidth ensures every row has exactly width columns.
func checkWidth(rows [][]float64, width int) error {
	for i, row := range rows {
		if len(row) != width {
			return fmt.Errorf("%w: row %d has %d features, model expects %d", ErrDimension, i, len(row), width)
		}
	}
	return nil
}

// checkMinWidth ensures every row has at least width columns.
func checkMinWidth(rows [][]float64, width int) error {
	for i, row := range rows {
		if len(row) < width {
			return fmt.Errorf("%w: row %d has %d features, model reads feature %d", ErrDimension, i, len(row), width-1)
		}
	}
	return nil
}
