// Package primitives defines the foundational data structures for the FSM engine.
//
// MachineConfig is the canonical model produced by Normalize: the initial
// state name, the flat map of states by name, the initial Context and the
// optional distinguished terminal state name.
package primitives

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultTerminalState is the distinguished terminal state name used when the document names none.
const DefaultTerminalState = "end"

// MachineConfig defines the complete machine configuration.
type MachineConfig struct {
	Initial  string                  `json:"initial" yaml:"initial"`
	Terminal string                  `json:"terminal,omitempty" yaml:"terminal,omitempty"`
	States   map[string]*StateConfig `json:"states" yaml:"states"`
	Context  map[string]any          `json:"context,omitempty" yaml:"context,omitempty"`
}

// Validate validates the entire machine configuration:
// - Non-empty Initial and States (ConfigError)
// - Initial exists in States (ConfigError wrapping an UnknownStateError)
// - Every state validates (ConfigError)
// - Every transition target exists in States (UnknownStateError)
func (m *MachineConfig) Validate() error {
	if strings.TrimSpace(m.Initial) == "" {
		return NewConfigError(InitialKey, "initial state is required")
	}
	if len(m.States) == 0 {
		return NewConfigError(StatesKey, "states map is required and cannot be empty")
	}
	if _, ok := m.States[m.Initial]; !ok {
		return WrapConfigError(InitialKey, NewUnknownStateError(m.Initial, "initial"))
	}
	for _, name := range m.StateNames() {
		state := m.States[name]
		if state == nil {
			return NewConfigError(StatesKey+"."+name, "state entry is nil")
		}
		if err := state.Validate(); err != nil {
			return NewConfigError(StatesKey+"."+name, err.Error())
		}
		for _, t := range state.Transitions {
			if _, ok := m.States[t.Target]; !ok {
				return NewUnknownStateError(t.Target, fmt.Sprintf("transition %q of state %q", t.Event, name))
			}
		}
	}
	return nil
}

// TerminalState returns the configured terminal name or DefaultTerminalState.
func (m *MachineConfig) TerminalState() string {
	if m.Terminal != "" {
		return m.Terminal
	}
	return DefaultTerminalState
}

// StateNames returns the state names sorted for deterministic iteration.
func (m *MachineConfig) StateNames() []string {
	names := make([]string, 0, len(m.States))
	for name := range m.States {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Unreachable returns the sorted names of states that no transition path from Initial reaches.
// Unreachable states are legal; callers may warn about them.
func (m *MachineConfig) Unreachable() []string {
	visited := make(map[string]bool, len(m.States))
	m.markReachable(m.Initial, visited)
	var out []string
	for _, name := range m.StateNames() {
		if !visited[name] {
			out = append(out, name)
		}
	}
	return out
}

func (m *MachineConfig) markReachable(name string, visited map[string]bool) {
	if visited[name] {
		return
	}
	state, ok := m.States[name]
	if !ok {
		return
	}
	visited[name] = true
	for _, t := range state.Transitions {
		m.markReachable(t.Target, visited)
	}
}

// Canonical renders the configuration as a primary-key document.
// Normalize(Canonical()) yields an equal MachineConfig.
func (m *MachineConfig) Canonical() map[string]any {
	states := make(map[string]any, len(m.States))
	for name, s := range m.States {
		states[name] = s.Canonical()
	}
	doc := map[string]any{
		InitialKey: m.Initial,
		StatesKey:  states,
	}
	if m.Terminal != "" {
		doc[TerminalKey] = m.Terminal
	}
	if m.Context != nil {
		ctx := make(map[string]any, len(m.Context))
		for k, v := range m.Context {
			ctx[k] = v
		}
		doc[ContextKey] = ctx
	}
	return doc
}
