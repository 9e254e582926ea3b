package engine

import "imagehound/internal/domain"

// Registry is a fixed, ordered collection of engines. Order determines both
// help-text order and button layout order. Built once at startup, read-only
// afterwards.
type Registry struct {
	engines []domain.Engine
}

// NewRegistry creates a registry preserving the given order. Nil entries are
// skipped so callers can pass conditionally-constructed engines directly.
func NewRegistry(engines ...domain.Engine) *Registry {
	r := &Registry{}
	for _, e := range engines {
		if e != nil {
			r.engines = append(r.engines, e)
		}
	}
	return r
}

// All returns the engines in registry order.
func (r *Registry) All() []domain.Engine {
	return r.engines
}

// PreWork returns the engines requiring a network round trip before a usable
// action exists, in registry order.
func (r *Registry) PreWork() []domain.PreWorkEngine {
	var out []domain.PreWorkEngine
	for _, e := range r.engines {
		if pw, ok := e.(domain.PreWorkEngine); ok {
			out = append(out, pw)
		}
	}
	return out
}

// BestMatch returns the engines supporting deep lookups, in registry order.
func (r *Registry) BestMatch() []domain.BestMatchEngine {
	var out []domain.BestMatchEngine
	for _, e := range r.engines {
		if bm, ok := e.(domain.BestMatchEngine); ok {
			out = append(out, bm)
		}
	}
	return out
}

// Get returns the engine with the given name, or nil.
func (r *Registry) Get(name string) domain.Engine {
	for _, e := range r.engines {
		if e.Name() == name {
			return e
		}
	}
	return nil
}

// Len returns the number of registered engines.
func (r *Registry) Len() int { return len(r.engines) }
