package module

import (
	"fmt"
	"slices"
)

// Registry maps chain names to chains. It is read-only after construction.
type Registry struct {
	chains map[string]*Chain
}

// NewRegistry indexes chains by name. Duplicate names are rejected.
func NewRegistry(chains ...*Chain) (*Registry, error) {
	r := &Registry{chains: make(map[string]*Chain, len(chains))}
	for _, c := range chains {
		if c == nil {
			continue
		}
		if _, dup := r.chains[c.name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateChain, c.name)
		}
		r.chains[c.name] = c
	}
	return r, nil
}

// Resolve returns the chain registered under name.
func (r *Registry) Resolve(name string) (*Chain, error) {
	if r != nil {
		if c, ok := r.chains[name]; ok {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownChain, name)
}

// Names returns the registered chain names, sorted.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.chains))
	for name := range r.chains {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.chains)
}
