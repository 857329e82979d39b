// Package extensibility provides the pluggable pieces a Machine is wired
// with: the action Registry, handler middleware and event sources.
package extensibility

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"

	"github.com/comalice/dfsm/internal/core"
)

// Registry maps action names to handlers. Lookup tries the exact name first,
// then the width-folded NFC form so that full-width and half-width spellings
// of the same name (e.g. "待機（ミリ秒）" and "待機(ミリ秒)") resolve alike.
// Thread-safe for concurrent access.
type Registry struct {
	mu          sync.RWMutex
	handlers    map[string]core.Handler
	folded      map[string]string
	middlewares []Middleware
}

// NewRegistry creates a registry from builtins overlaid with user handlers;
// user handlers win on name collisions.
func NewRegistry(builtins, user map[string]core.Handler) *Registry {
	r := &Registry{
		handlers: make(map[string]core.Handler),
		folded:   make(map[string]string),
	}
	r.Merge(builtins)
	r.Merge(user)
	return r
}

// Register adds or replaces the handler for name.
func (r *Registry) Register(name string, h core.Handler) error {
	if name == "" {
		return errors.New("action name must not be empty")
	}
	if h == nil {
		return errors.Errorf("nil handler for action %q", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = h
	r.folded[fold(name)] = name
	return nil
}

// MustRegister is Register that panics on error.
func (r *Registry) MustRegister(name string, h core.Handler) {
	if err := r.Register(name, h); err != nil {
		panic(err)
	}
}

// Merge registers every entry of handlers, replacing existing names.
// Nil handlers are ignored.
func (r *Registry) Merge(handlers map[string]core.Handler) {
	for name, h := range handlers {
		if name == "" || h == nil {
			continue
		}
		_ = r.Register(name, h)
	}
}

// Use appends middleware applied to every handler returned by Lookup.
// The first middleware given is the outermost.
func (r *Registry) Use(mw ...Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middlewares = append(r.middlewares, mw...)
}

// Lookup implements core.Registry.
func (r *Registry) Lookup(name string) (core.Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	key := name
	h, ok := r.handlers[key]
	if !ok {
		if key, ok = r.folded[fold(name)]; ok {
			h = r.handlers[key]
		}
	}
	if !ok {
		return nil, false
	}
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		h = r.middlewares[i](key, h)
	}
	return h, true
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered names.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}

func fold(name string) string {
	return norm.NFC.String(width.Fold.String(name))
}
