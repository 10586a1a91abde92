package model

import (
	"slices"
	"sync"
)

// Registry maps predictor kinds to their decoders.
type Registry struct {
	decoders map[string]DecodeFunc
	mu       sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		decoders: make(map[string]DecodeFunc),
	}
}

// DefaultRegistry returns a registry with the built-in kinds.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	_ = r.Register(KindLinear, DecodeLinear)
	_ = r.Register(KindLogistic, DecodeLogistic)
	_ = r.Register(KindTree, DecodeTree)
	return r
}

// Register adds a decoder for kind.
func (r *Registry) Register(kind string, fn DecodeFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.decoders[kind]; ok {
		return ErrAlreadyRegistered
	}

	r.decoders[kind] = fn

	return nil
}

// Get retrieves the decoder of kind.
func (r *Registry) Get(kind string) (DecodeFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, ok := r.decoders[kind]
	return fn, ok
}

// Kinds returns the registered kinds, sorted.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]string, 0, len(r.decoders))
	for kind := range r.decoders {
		kinds = append(kinds, kind)
	}
	slices.Sort(kinds)

	return kinds
}
