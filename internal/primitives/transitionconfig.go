// Package primitives defines the foundational data structures for the FSM engine.
// TransitionConfig is a single (event, target) pair scoped to one state.
// Transitions keep their declared order; lookup is first-match-wins.
package primitives

import (
	"strings"

	"github.com/pkg/errors"
)

// DoneEvent is the event name bound by the onDone shorthand.
const DoneEvent = "done"

// TransitionConfig defines a single transition triggered by an event.
type TransitionConfig struct {
	Event  string `json:"event" yaml:"event"`
	Target string `json:"to" yaml:"to"`
}

// Validate checks that event and target are present.
func (t *TransitionConfig) Validate() error {
	if strings.TrimSpace(t.Event) == "" {
		return errors.New("event is required")
	}
	if strings.TrimSpace(t.Target) == "" {
		return errors.New("target is required")
	}
	return nil
}

// Canonical renders the transition with primary keys.
func (t TransitionConfig) Canonical() map[string]any {
	return map[string]any{
		EventKey:  t.Event,
		TargetKey: t.Target,
	}
}
