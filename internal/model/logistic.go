package model

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
)

// KindLogistic is a binary logistic regression classifier.
const KindLogistic = "logistic"

type logisticParams struct {
	Threshold    *float64  `json:"threshold"`
	Coefficients []float64 `json:"coefficients"`
	Classes      []any     `json:"classes"`
	Intercept    float64   `json:"intercept"`
}

// Logistic returns classes[1] when sigmoid(x·w + b) is above the threshold, classes[0] otherwise.
type Logistic struct {
	coefficients []float64
	classes      []any
	intercept    float64
	threshold    float64
}

// DecodeLogistic decodes the parameters of a logistic predictor document.
func DecodeLogistic(params json.RawMessage) (Predictor, error) {
	var p logisticParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}

	if len(p.Coefficients) == 0 {
		return nil, fmt.Errorf("coefficients must not be empty")
	}

	m := &Logistic{
		coefficients: p.Coefficients,
		intercept:    p.Intercept,
		classes:      []any{0, 1},
		threshold:    0.5,
	}

	if p.Classes != nil {
		if len(p.Classes) != 2 {
			return nil, fmt.Errorf("classes must hold exactly 2 labels, got %d", len(p.Classes))
		}
		m.classes = p.Classes
	}

	if p.Threshold != nil {
		if *p.Threshold <= 0 || *p.Threshold >= 1 {
			return nil, fmt.Errorf("threshold must be in (0, 1), got %v", *p.Threshold)
		}
		m.threshold = *p.Threshold
	}

	return m, nil
}

// Kind returns KindLogistic.
func (m *Logistic) Kind() string {
	return KindLogistic
}

// Predict returns one class label per row.
func (m *Logistic) Predict(ctx context.Context, rows [][]float64) ([]any, error) {
	if err := checkWidth(rows, len(m.coefficients)); err != nil {
		return nil, err
	}

	out := make([]any, len(rows))
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if sigmoid(dot(m.coefficients, row)+m.intercept) > m.threshold {
			out[i] = m.classes[1]
		} else {
			out[i] = m.classes[0]
		}
	}

	return out, nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
