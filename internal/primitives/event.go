// Event provides the immutable event primitive queued into the scheduler.
//
// Events are value types. Once created, Events should not be mutated; Meta is
// copied by NewEvent so later changes by the sender are not observed.
package primitives

// Event is a named signal with optional metadata. Each queued Event is consumed at most once.
type Event struct {
	Name string         `json:"name" yaml:"name"`
	Meta map[string]any `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// NewEvent creates a new Event, copying meta.
func NewEvent(name string, meta map[string]any) Event {
	var m map[string]any
	if len(meta) > 0 {
		m = make(map[string]any, len(meta))
		for k, v := range meta {
			m[k] = v
		}
	}
	return Event{
		Name: name,
		Meta: m,
	}
}

// IsZero reports whether the event is the empty event used for initial entry.
func (e Event) IsZero() bool {
	return e.Name == "" && len(e.Meta) == 0
}
