// Package primitives includes builder helpers for MachineConfig.
package primitives

// MachineBuilder builds a MachineConfig fluently from Go code.
type MachineBuilder struct {
	config *MachineConfig
}

// NewMachineBuilder creates a new MachineBuilder.
func NewMachineBuilder(initial string) *MachineBuilder {
	return &MachineBuilder{
		config: &MachineConfig{Initial: initial, States: make(map[string]*StateConfig)},
	}
}

// State starts (or reopens) a state.
func (b *MachineBuilder) State(name string) *StateBuilder {
	s, ok := b.config.States[name]
	if !ok {
		s = NewStateConfig(name)
		b.config.States[name] = s
	}
	return &StateBuilder{state: s, mb: b}
}

// Terminal sets the distinguished terminal state name.
func (b *MachineBuilder) Terminal(name string) *MachineBuilder {
	b.config.Terminal = name
	return b
}

// Context sets one initial context value.
func (b *MachineBuilder) Context(key string, value any) *MachineBuilder {
	if b.config.Context == nil {
		b.config.Context = make(map[string]any)
	}
	b.config.Context[key] = value
	return b
}

// Build validates and returns the config.
func (b *MachineBuilder) Build() (MachineConfig, error) {
	if err := b.config.Validate(); err != nil {
		return MachineConfig{}, err
	}
	return *b.config, nil
}

// MustBuild is Build that panics on an invalid config. Intended for tests and examples.
func (b *MachineBuilder) MustBuild() MachineConfig {
	cfg, err := b.Build()
	if err != nil {
		panic(err)
	}
	return cfg
}

// StateBuilder for fluent actions and transitions.
type StateBuilder struct {
	state *StateConfig
	mb    *MachineBuilder
}

// Entry appends entry actions; strings and descriptor maps are normalized.
func (sb *StateBuilder) Entry(actions ...any) *StateBuilder {
	for _, a := range actions {
		sb.state.AddEntry(NormalizeAction(a))
	}
	return sb
}

// Tick appends tick actions.
func (sb *StateBuilder) Tick(actions ...any) *StateBuilder {
	for _, a := range actions {
		sb.state.AddTick(NormalizeAction(a))
	}
	return sb
}

// Transition adds a transition.
func (sb *StateBuilder) Transition(event, target string) *StateBuilder {
	sb.state.Transition(event, target)
	return sb
}

// State switches to another state.
func (sb *StateBuilder) State(name string) *StateBuilder {
	return sb.mb.State(name)
}

// Done returns the machine builder.
func (sb *StateBuilder) Done() *MachineBuilder {
	return sb.mb
}

// Build is shorthand for Done().Build().
func (sb *StateBuilder) Build() (MachineConfig, error) {
	return sb.mb.Build()
}
