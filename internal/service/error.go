package service

import (
	"errors"
	"fmt"
)

// Error definitions for the service package.
var (
	ErrModelNotLoaded = errors.New("model is not loaded")
)

// PredictionError wraps any failure raised by the predictor.
type PredictionError struct {
	Err error
}

func (e *PredictionError) Error() string {
	return fmt.Sprintf("Error generating prediction: %v", e.Err)
}

func (e *PredictionError) Unwrap() error {
	return e.Err
}
