package spec

import (
	"fmt"
	"sort"
	"strings"
)

// Registry maps spec type names to definitions. Definitions are statically
// known at startup; registration is not safe for concurrent use.
type Registry struct {
	defs map[string]Definition
}

func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]Definition)}
}

func (r *Registry) Register(def Definition) {
	r.defs[def.Type] = def
}

// Get returns the definition for name. Unknown names fail with an error
// listing every registered type.
func (r *Registry) Get(name string) (Definition, error) {
	def, ok := r.defs[name]
	if !ok {
		return Definition{}, fmt.Errorf("unknown spec type %q (available: %s)",
			name, strings.Join(r.Names(), ", "))
	}
	return def, nil
}

// Names returns all registered spec type names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Default returns a registry carrying the built-in definitions.
func Default() *Registry {
	r := NewRegistry()
	r.Register(UserSpec())
	r.Register(ConfigSpec())
	return r
}
