package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ekisa-team/tabserve/internal/model"
	"github.com/ekisa-team/tabserve/internal/payload"
)

// Inference is the application context shared by every transport.
// The bundle is set once at construction and never mutated.
type Inference struct {
	bundle  *model.Bundle
	parsers *payload.Parsers
}

// NewInference creates a new Inference service. A nil bundle yields a service that reports not ready.
func NewInference(bundle *model.Bundle, parsers *payload.Parsers) *Inference {
	if parsers == nil {
		parsers = payload.DefaultParsers()
	}

	return &Inference{
		bundle:  bundle,
		parsers: parsers,
	}
}

// Bundle returns the loaded bundle, or nil.
func (s *Inference) Bundle() *model.Bundle {
	return s.bundle
}

// Ready reports whether a model is loaded.
func (s *Inference) Ready() error {
	if s.bundle == nil || s.bundle.Predictor == nil {
		return ErrModelNotLoaded
	}
	return nil
}

// Accepts reports whether contentType has a registered parser.
func (s *Inference) Accepts(contentType string) error {
	_, err := s.parsers.Lookup(contentType)
	return err
}

// Parse parses body according to contentType.
func (s *Inference) Parse(contentType string, body []byte) (payload.Table, error) {
	return s.parsers.Parse(contentType, body)
}

// Invoke parses body and predicts on the resulting table.
func (s *Inference) Invoke(ctx context.Context, contentType string, body []byte) ([]any, error) {
	table, err := s.Parse(contentType, body)
	if err != nil {
		return nil, err
	}

	return s.Predict(ctx, table)
}

// Predict validates the table against the artifact's feature columns and runs the predictor.
func (s *Inference) Predict(ctx context.Context, table payload.Table) ([]any, error) {
	if err := s.Ready(); err != nil {
		return nil, err
	}

	if err := s.bundle.CheckWidth(table.Columns()); err != nil {
		slog.Warn("Rejected input", "error", err)
		return nil, err
	}

	preds, err := s.predict(ctx, table)
	if err != nil {
		slog.Error("Failed to generate predictions", "kind", s.bundle.Predictor.Kind(), "rows", len(table), "error", err)
		return nil, &PredictionError{Err: err}
	}

	return preds, nil
}

// predict calls the predictor, turning panics into errors.
func (s *Inference) predict(ctx context.Context, table payload.Table) (preds []any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("predictor panicked: %v", r)
		}
	}()

	preds, err = s.bundle.Predictor.Predict(ctx, table)
	if err != nil {
		return nil, err
	}

	if len(preds) != len(table) {
		return nil, fmt.Errorf("predictor returned %d outputs for %d rows", len(preds), len(table))
	}

	return preds, nil
}
