package payload

import "errors"

// Error definitions for the payload package.
var (
	ErrUnsupportedMediaType = errors.New("unsupported content type")
	ErrEmptyBody            = errors.New("empty request body")
	ErrMalformed            = errors.New("malformed request body")
)
