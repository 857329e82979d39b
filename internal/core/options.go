package core

import (
	log "github.com/sirupsen/logrus"
	"github.com/uber-go/tally/v4"
)

// WithLogger configures the Machine's logger. Defaults to the logrus standard logger.
func WithLogger(l log.FieldLogger) Option {
	return func(m *Machine) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithRegistry configures the Registry used to resolve actions.
func WithRegistry(r Registry) Option {
	return func(m *Machine) {
		m.registry = r
	}
}

// WithObserver adds observers, notified in the order given.
func WithObserver(observers ...Observer) Option {
	return func(m *Machine) {
		for _, o := range observers {
			if o != nil {
				m.observers = append(m.observers, o)
			}
		}
	}
}

// WithMetricsScope configures the tally scope the Machine reports to.
func WithMetricsScope(scope tally.Scope) Option {
	return func(m *Machine) {
		if scope != nil {
			m.scope = scope
		}
	}
}

// WithTerminalState overrides the distinguished terminal state name.
func WithTerminalState(name string) Option {
	return func(m *Machine) {
		m.terminalName = name
	}
}

// WithContinueOnActionError makes action failures non-fatal: they are logged
// and the rest of the action list still runs.
func WithContinueOnActionError() Option {
	return func(m *Machine) {
		m.continueOnError = true
	}
}

// WithEventSource forwards events from s into the machine once started.
func WithEventSource(s EventSource) Option {
	return func(m *Machine) {
		m.eventSource = s
	}
}

// WithHistorySize bounds the number of retained transition records.
func WithHistorySize(size int) Option {
	return func(m *Machine) {
		m.historySize = size
	}
}

// WithRunID sets the run identifier instead of a random UUID.
func WithRunID(id string) Option {
	return func(m *Machine) {
		m.runID = id
	}
}
