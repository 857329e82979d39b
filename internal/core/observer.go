package core

import (
	"time"

	"github.com/comalice/dfsm/internal/primitives"
)

// Snapshot is an immutable copy of the machine at a point of observation.
type Snapshot struct {
	RunID     string           `json:"runId" yaml:"runId"`
	Seq       uint64           `json:"seq" yaml:"seq"`
	State     string           `json:"state" yaml:"state"`
	Previous  string           `json:"previous,omitempty" yaml:"previous,omitempty"`
	Event     primitives.Event `json:"event" yaml:"event"`
	Terminal  bool             `json:"terminal" yaml:"terminal"`
	Context   map[string]any   `json:"context" yaml:"context"`
	Timestamp time.Time        `json:"timestamp" yaml:"timestamp"`
}

// Observer is notified on every state entry, before the entry actions run.
// Errors are logged and otherwise ignored.
type Observer interface {
	OnStateEnter(snapshot Snapshot) error
}

// TickObserver is implemented by observers that also want one call per
// processed event, before the tick actions of the current state.
type TickObserver interface {
	OnTick(snapshot Snapshot) error
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(snapshot Snapshot) error

func (f ObserverFunc) OnStateEnter(snapshot Snapshot) error {
	return f(snapshot)
}

// EventSource feeds external events into a started machine until its channel closes.
type EventSource interface {
	Events() <-chan primitives.Event
}
