// Package primitives defines the foundational data structures for the FSM engine.
//
// StateConfig represents one named state: ordered entry and tick action lists
// and the ordered list of outgoing transitions.
package primitives

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// StateConfig defines a state configuration.
type StateConfig struct {
	Name        string             `json:"-" yaml:"-"`
	Entry       []ActionRef        `json:"entry,omitempty" yaml:"entry,omitempty"`
	Tick        []ActionRef        `json:"tick,omitempty" yaml:"tick,omitempty"`
	Transitions []TransitionConfig `json:"transitions" yaml:"transitions"`
}

// NewStateConfig creates a new StateConfig with a name.
func NewStateConfig(name string) *StateConfig {
	return &StateConfig{Name: name}
}

// AddEntry appends an entry action.
func (s *StateConfig) AddEntry(action ActionRef) *StateConfig {
	s.Entry = append(s.Entry, action)
	return s
}

// AddTick appends a tick action.
func (s *StateConfig) AddTick(action ActionRef) *StateConfig {
	s.Tick = append(s.Tick, action)
	return s
}

// Transition appends a transition from event to target.
func (s *StateConfig) Transition(event, target string) *StateConfig {
	s.Transitions = append(s.Transitions, TransitionConfig{Event: event, Target: target})
	return s
}

// Targets returns the declared target names in order, duplicates included.
func (s *StateConfig) Targets() []string {
	out := make([]string, 0, len(s.Transitions))
	for _, t := range s.Transitions {
		out = append(out, t.Target)
	}
	return out
}

// Validate checks the state name and every transition.
func (s *StateConfig) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return errors.New("state name is required")
	}
	for i, t := range s.Transitions {
		if err := t.Validate(); err != nil {
			return errors.Wrapf(err, "transition %d of %s", i, s.Name)
		}
	}
	return nil
}

// Canonical renders the state with primary keys.
func (s *StateConfig) Canonical() map[string]any {
	m := map[string]any{}
	if len(s.Entry) > 0 {
		m[EntryKey] = canonicalActions(s.Entry)
	}
	if len(s.Tick) > 0 {
		m[TickKey] = canonicalActions(s.Tick)
	}
	transitions := make([]any, 0, len(s.Transitions))
	for _, t := range s.Transitions {
		transitions = append(transitions, t.Canonical())
	}
	m[TransitionsKey] = transitions
	return m
}

func canonicalActions(actions []ActionRef) []any {
	out := make([]any, 0, len(actions))
	for _, a := range actions {
		out = append(out, a.Canonical())
	}
	return out
}

func (s *StateConfig) String() string {
	return fmt.Sprintf("%s(entry=%d tick=%d transitions=%d)", s.Name, len(s.Entry), len(s.Tick), len(s.Transitions))
}
