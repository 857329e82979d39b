package core

import (
	"github.com/comalice/dfsm/internal/primitives"
)

// Table is the per-state transition table. Built once from a validated config, never mutated.
type Table struct {
	initial  string
	terminal string
	states   map[string]*primitives.StateConfig
	names    []string
}

// NewTable validates config and builds the table. terminal overrides the
// config's distinguished terminal name when non-empty.
func NewTable(config primitives.MachineConfig, terminal string) (*Table, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if terminal == "" {
		terminal = config.TerminalState()
	}
	states := make(map[string]*primitives.StateConfig, len(config.States))
	for name, s := range config.States {
		states[name] = s
	}
	return &Table{
		initial:  config.Initial,
		terminal: terminal,
		states:   states,
		names:    config.StateNames(),
	}, nil
}

// Lookup returns the target of the first transition of state declared for event.
// Later duplicates for the same event are unreachable.
func (t *Table) Lookup(state, event string) (string, bool) {
	s, ok := t.states[state]
	if !ok {
		return "", false
	}
	for _, tr := range s.Transitions {
		if tr.Event == event {
			return tr.Target, true
		}
	}
	return "", false
}

// AssertState fails with an UnknownStateError when name is not declared.
func (t *Table) AssertState(name string) error {
	if _, ok := t.states[name]; !ok {
		return primitives.NewUnknownStateError(name, "")
	}
	return nil
}

// IsTerminal reports whether name is the distinguished terminal state or declares no transitions.
func (t *Table) IsTerminal(name string) bool {
	if name == t.terminal {
		return true
	}
	s, ok := t.states[name]
	return ok && len(s.Transitions) == 0
}

// State returns the definition of name.
func (t *Table) State(name string) (*primitives.StateConfig, bool) {
	s, ok := t.states[name]
	return s, ok
}

// States returns the sorted state names.
func (t *Table) States() []string {
	return append([]string(nil), t.names...)
}

// Initial returns the name of the state the machine starts in.
func (t *Table) Initial() string { return t.initial }

// Terminal returns the distinguished terminal state name.
func (t *Table) Terminal() string { return t.terminal }
