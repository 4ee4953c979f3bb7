package tickets

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"sync"
)

// IntFunc produces the current value of a named variable.
type IntFunc func(ctx context.Context) (int, error)

var variableNameRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Registry maps variable names to the functions that compute them.
// It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]IntFunc
}

func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]IntFunc)}
}

// Register binds name to fn. Names must be identifiers and may only be registered once.
func (r *Registry) Register(name string, fn IntFunc) error {
	if !variableNameRE.MatchString(name) {
		return fmt.Errorf("invalid variable name %q", name)
	}
	if fn == nil {
		return fmt.Errorf("variable %q: nil function", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.funcs[name]; ok {
		return fmt.Errorf("variable %q already registered", name)
	}
	r.funcs[name] = fn
	return nil
}

func (r *Registry) Lookup(name string) (IntFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[name]
	return fn, ok
}

// Names returns the registered names in ascending order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Evaluate computes a single variable. Unknown names are a 404-class *Error.
func (r *Registry) Evaluate(ctx context.Context, name string) (int, error) {
	fn, ok := r.Lookup(name)
	if !ok {
		return 0, unknownVariable(name)
	}
	return fn(ctx)
}
