package core

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/comalice/dfsm/internal/primitives"
)

// Handler executes one action. A handler that does asynchronous work must not
// return before that work completes: the return is the point the pipeline awaits.
type Handler func(ctx context.Context, inv *Invocation) error

// Registry resolves action names and descriptor types to handlers.
type Registry interface {
	Lookup(name string) (Handler, bool)
}

// Invocation is the argument passed to a Handler.
type Invocation struct {
	// Context is the machine-wide store shared by all actions.
	Context *primitives.Context
	// State is the state whose action list is running.
	State string
	// Event is the event that caused the state entry, zero on initial entry.
	Event primitives.Event
	// Action is the entry being executed.
	Action primitives.ActionRef
	// Params holds the descriptor parameters, nil for named actions.
	Params map[string]any
	Logger log.FieldLogger

	emit func(primitives.Event)
}

// Emit enqueues an event into the machine's scheduler.
func (inv *Invocation) Emit(name string, meta map[string]any) {
	if inv.emit == nil {
		return
	}
	inv.emit(primitives.NewEvent(name, meta))
}

// NewInvocation builds an Invocation outside a running machine, e.g. to test a handler.
func NewInvocation(c *primitives.Context, state string, action primitives.ActionRef, emit func(primitives.Event)) *Invocation {
	return &Invocation{
		Context: c,
		State:   state,
		Action:  action,
		Params:  action.Params,
		Logger:  log.StandardLogger(),
		emit:    emit,
	}
}

type emptyRegistry struct{}

func (emptyRegistry) Lookup(string) (Handler, bool) { return nil, false }
