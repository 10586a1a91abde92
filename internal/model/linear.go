package model

import (
	"context"
	"encoding/json"
	"fmt"
)

// KindLinear is a (multi-output) linear regression: y = X·Wᵀ + b.
const KindLinear = "linear"

type linearParams struct {
	Coefficients json.RawMessage `json:"coefficients"`
	Intercept    json.RawMessage `json:"intercept"`
}

// Linear predicts with a linear model. Single-output models return a float64 per row,
// multi-output models a []float64.
type Linear struct {
	weights    [][]float64
	intercepts []float64
	multi      bool
}

// NewLinear creates a single-output linear model.
func NewLinear(coefficients []float64, intercept float64) *Linear {
	return &Linear{
		weights:    [][]float64{coefficients},
		intercepts: []float64{intercept},
	}
}

// DecodeLinear decodes the parameters of a linear predictor document.
func DecodeLinear(params json.RawMessage) (Predictor, error) {
	var p linearParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}

	m := &Linear{}

	var vector []float64
	if err := json.Unmarshal(p.Coefficients, &vector); err == nil {
		m.weights = [][]float64{vector}
	} else if err := json.Unmarshal(p.Coefficients, &m.weights); err == nil {
		m.multi = true
	} else {
		return nil, fmt.Errorf("coefficients must be a vector or a matrix: %w", err)
	}

	if len(m.weights) == 0 || len(m.weights[0]) == 0 {
		return nil, fmt.Errorf("coefficients must not be empty")
	}
	width := len(m.weights[0])
	for i, w := range m.weights {
		if len(w) != width {
			return nil, fmt.Errorf("coefficient row %d has %d values, want %d", i, len(w), width)
		}
	}

	m.intercepts = make([]float64, len(m.weights))
	if len(p.Intercept) > 0 {
		var scalar float64
		if err := json.Unmarshal(p.Intercept, &scalar); err == nil {
			for i := range m.intercepts {
				m.intercepts[i] = scalar
			}
		} else if err := json.Unmarshal(p.Intercept, &m.intercepts); err != nil {
			return nil, fmt.Errorf("intercept must be a number or a vector: %w", err)
		}
	}
	if len(m.intercepts) != len(m.weights) {
		return nil, fmt.Errorf("got %d intercepts for %d outputs", len(m.intercepts), len(m.weights))
	}

	return m, nil
}

// Kind returns KindLinear.
func (m *Linear) Kind() string {
	return KindLinear
}

// Predict computes X·Wᵀ + b for every row.
func (m *Linear) Predict(ctx context.Context, rows [][]float64) ([]any, error) {
	if err := checkWidth(rows, len(m.weights[0])); err != nil {
		return nil, err
	}

	out := make([]any, len(rows))
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		y := make([]float64, len(m.weights))
		for j, w := range m.weights {
			y[j] = dot(w, row) + m.intercepts[j]
		}

		if m.multi {
			out[i] = y
		} else {
			out[i] = y[0]
		}
	}

	return out, nil
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
