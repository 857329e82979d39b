package primitives

import "sync"

// Keys the engine writes into the Context. Everything else belongs to actions.
const (
	CurrentStateKey = "currentState"
	LastEventKey    = "lastEvent"
	EventMetaKey    = "eventMeta"
)

// Context is the single mutable key/value store shared by the engine and every action.
// Values are untyped; config documents carry strings, numbers, lists and maps.
// Execution is serialized by the scheduler, the lock only protects readers on
// other goroutines (observers, Send callers inspecting state).
type Context struct {
	mu   sync.RWMutex
	data map[string]any
}

// NewContext creates a Context seeded with a copy of initial.
func NewContext(initial map[string]any) *Context {
	c := &Context{data: make(map[string]any, len(initial))}
	for k, v := range initial {
		c.data[k] = v
	}
	return c
}

// Get retrieves a value by key.
func (c *Context) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.data[key]
	return v, ok
}

// GetString returns the value under key when it is a string.
func (c *Context) GetString(key string) (string, bool) {
	v, ok := c.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Set stores a value by key.
func (c *Context) Set(key string, val any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = val
}

// Delete removes a key.
func (c *Context) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

// Len returns the number of keys.
func (c *Context) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// Snapshot returns a shallow copy of the data. Modifying it does not affect the Context.
func (c *Context) Snapshot() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap := make(map[string]any, len(c.data))
	for k, v := range c.data {
		snap[k] = v
	}
	return snap
}

// Restore replaces all data with a copy of snap.
func (c *Context) Restore(snap map[string]any) {
	data := make(map[string]any, len(snap))
	for k, v := range snap {
		data[k] = v
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = data
}
