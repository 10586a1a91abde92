package model

import "errors"

// Error definitions for the model package.
var (
	ErrArtifactNotFound  = errors.New("model artifact not found")
	ErrInvalidArtifact   = errors.New("invalid model artifact")
	ErrUnknownKind       = errors.New("unknown predictor kind")
	ErrAlreadyRegistered = errors.New("predictor kind is already registered")
	ErrDimension         = errors.New("input dimension mismatch")
)
