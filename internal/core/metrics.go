package core

import (
	"github.com/uber-go/tally/v4"
)

// Metrics contains counters to track machine execution.
type Metrics struct {
	// the metrics scope for the machine
	scope tally.Scope

	Transitions     tally.Counter
	UnmatchedEvents tally.Counter
	DiscardedEvents tally.Counter
	EventsProcessed tally.Counter

	ActionsRun      tally.Counter
	ActionsNotFound tally.Counter
	ActionsInvalid  tally.Counter
	ActionsFailed   tally.Counter
	ActionDuration  tally.Timer

	ObserverErrors tally.Counter
	QueueDepth     tally.Gauge
}

// NewMetrics returns a new Metrics struct.
func NewMetrics(scope tally.Scope) *Metrics {
	if scope == nil {
		scope = tally.NoopScope
	}
	actionScope := scope.SubScope("action")
	return &Metrics{
		scope:           scope,
		Transitions:     scope.Counter("transitions"),
		UnmatchedEvents: scope.Counter("unmatched_events"),
		DiscardedEvents: scope.Counter("discarded_events"),
		EventsProcessed: scope.Counter("events_processed"),
		ActionsRun:      actionScope.Counter("run"),
		ActionsNotFound: actionScope.Counter("not_found"),
		ActionsInvalid:  actionScope.Counter("invalid"),
		ActionsFailed:   actionScope.Counter("failed"),
		ActionDuration:  actionScope.Timer("duration"),
		ObserverErrors:  scope.Counter("observer_errors"),
		QueueDepth:      scope.Gauge("queue_depth"),
	}
}
