// Package dfsm runs declarative finite-state machines.
//
// A machine is described by a document naming an initial state and, per state,
// the actions to run on entry and the event-to-target transitions. Documents
// may use the English keys (initial, states, entry, transitions) or the
// Japanese ones (初期状態, 状態群, 開始時, 遷移):
//
//	initial: idle
//	states:
//	  idle:
//	    entry: [log_state]
//	    transitions:
//	      - {event: go, to: done}
//	  done: {}
//
// Actions are resolved by name against a Registry that holds the built-in
// actions plus any handlers registered by the caller:
//
//	cfg, err := dfsm.LoadFile("machine.yaml")
//	m, err := dfsm.New(cfg, dfsm.WithHandlers(map[string]dfsm.Handler{
//		"greet": func(ctx context.Context, inv *dfsm.Invocation) error {
//			inv.Context.Set("greeting", "hello")
//			return nil
//		},
//	}))
//	err = m.Start(ctx)
//	err = m.Send(ctx, dfsm.NewEvent("go", nil))
//	<-m.Done()
package dfsm

import (
	"context"

	"github.com/comalice/dfsm/internal/actions"
	"github.com/comalice/dfsm/internal/core"
	"github.com/comalice/dfsm/internal/extensibility"
	"github.com/comalice/dfsm/internal/primitives"
)

type (
	// Config is a normalized machine definition.
	Config = primitives.MachineConfig
	// Builder assembles a Config from Go code.
	Builder = primitives.MachineBuilder
	Event   = primitives.Event
	Context = primitives.Context

	Machine    = core.Machine
	Option     = core.Option
	Handler    = core.Handler
	Invocation = core.Invocation
	Observer   = core.Observer
	Snapshot   = core.Snapshot

	// Registry resolves action names to handlers.
	Registry = extensibility.Registry
	// Middleware wraps every handler of a Registry.
	Middleware = extensibility.Middleware
	// ActionOption configures the built-in actions.
	ActionOption = actions.Option
)

// Errors and error predicates.
var (
	ErrStopped    = primitives.ErrStopped
	ErrNotStarted = core.ErrNotStarted

	IsConfigError         = primitives.IsConfigError
	IsUnknownStateError   = primitives.IsUnknownStateError
	IsActionFailedError   = primitives.IsActionFailedError
	IsActionNotFoundError = primitives.IsActionNotFoundError
	IsInvalidActionError  = primitives.IsInvalidActionError
)

// Machine options.
var (
	WithLogger                = core.WithLogger
	WithRegistry              = core.WithRegistry
	WithObserver              = core.WithObserver
	WithMetricsScope          = core.WithMetricsScope
	WithTerminalState         = core.WithTerminalState
	WithContinueOnActionError = core.WithContinueOnActionError
	WithEventSource           = core.WithEventSource
	WithHistorySize           = core.WithHistorySize
	WithRunID                 = core.WithRunID
)

// Built-in action options.
var (
	WithOutput    = actions.WithOutput
	WithInput     = actions.WithInput
	WithCursor    = actions.WithCursor
	WithSleep     = actions.WithSleep
	WithScriptDir = actions.WithScriptDir
)

// NewEvent creates an event. A nil meta is left nil.
func NewEvent(name string, meta map[string]any) Event {
	return primitives.NewEvent(name, meta)
}

// NewBuilder starts a Config whose initial state is initial.
func NewBuilder(initial string) *Builder {
	return primitives.NewMachineBuilder(initial)
}

// Normalize turns a decoded document into a Config.
func Normalize(raw map[string]any) (Config, error) {
	return primitives.Normalize(raw)
}

// NewRegistry returns a Registry holding the built-in actions overlaid by user.
// A user handler replaces a built-in of the same name.
func NewRegistry(user map[string]Handler, opts ...ActionOption) *Registry {
	return extensibility.NewRegistry(actions.Builtins(opts...), user)
}

// WithHandlers resolves actions against the built-ins plus handlers.
func WithHandlers(handlers map[string]Handler, opts ...ActionOption) Option {
	return core.WithRegistry(NewRegistry(handlers, opts...))
}

// New creates a Machine for config. Without WithRegistry or WithHandlers the
// built-in actions are available.
func New(config Config, opts ...Option) (*Machine, error) {
	opts = append([]Option{core.WithRegistry(NewRegistry(nil))}, opts...)
	return core.NewMachine(config, opts...)
}

// RunFile loads the document at path and runs it until a terminal state is
// reached, a fatal action error occurs or ctx is done.
func RunFile(ctx context.Context, path string, opts ...Option) (*Machine, error) {
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return m, m.Run(ctx)
}
