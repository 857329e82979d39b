// Package core provides the runtime tier of the FSM engine: the transition
// table, the sequential action pipeline, the FIFO event scheduler and the
// Machine that ties them together.
//
// A Machine runs on a single logical thread. Send is safe from any goroutine,
// but only the goroutine that owns the current drain mutates machine state.
package core

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/uber-go/tally/v4"

	"github.com/comalice/dfsm/internal/primitives"
)

// ErrNotStarted is returned by Send before Start.
var ErrNotStarted = errors.New("machine not started")

// Option applies configuration to Machine via functional options pattern.
type Option func(*Machine)

// Machine is a running instance of a MachineConfig.
type Machine struct {
	config    primitives.MachineConfig
	table     *Table
	store     *primitives.Context
	pipeline  *Pipeline
	scheduler *Scheduler
	history   *History

	// set by options
	registry        Registry
	observers       []Observer
	logger          log.FieldLogger
	scope           tally.Scope
	eventSource     EventSource
	runID           string
	terminalName    string
	historySize     int
	continueOnError bool

	metrics *Metrics

	mu       sync.RWMutex
	current  string
	previous string
	terminal bool
	seq      uint64
	started  bool
}

// NewMachine validates config and creates a Machine. Nothing runs until Start.
func NewMachine(config primitives.MachineConfig, opts ...Option) (*Machine, error) {
	m := &Machine{
		config: config,
		logger: log.StandardLogger(),
		scope:  tally.NoopScope,
	}
	for _, opt := range opts {
		opt(m)
	}

	table, err := NewTable(config, m.terminalName)
	if err != nil {
		return nil, err
	}
	if m.runID == "" {
		m.runID = uuid.NewString()
	}

	m.table = table
	m.logger = m.logger.WithField("run_id", m.runID)
	m.metrics = NewMetrics(m.scope)
	m.store = primitives.NewContext(config.Context)
	m.history = NewHistory(m.historySize)
	m.pipeline = NewPipeline(m.registry, m.logger, m.metrics, m.continueOnError)
	m.scheduler = NewScheduler(m.process, m.logger, m.metrics)
	return m, nil
}

// Start enters the initial state, runs its entry actions and drains any
// events they emitted. It returns when the queue is empty, the machine
// reached a terminal state, or an action failed. Idempotent.
func (m *Machine) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return nil
	}
	m.started = true
	m.mu.Unlock()

	m.logger.WithField("initial", m.table.Initial()).Info("Starting machine")
	err := m.scheduler.Hold(ctx, func(ctx context.Context) (bool, error) {
		return m.enter(ctx, m.table.Initial(), primitives.Event{})
	})

	if m.eventSource != nil {
		go m.forward(ctx, m.eventSource)
	}
	return err
}

// Run starts the machine and blocks until it stops or ctx is cancelled.
// Cancellation stops the machine and returns ctx.Err().
func (m *Machine) Run(ctx context.Context) error {
	if err := m.Start(ctx); err != nil {
		return err
	}
	select {
	case <-m.scheduler.Done():
		return m.scheduler.Err()
	case <-ctx.Done():
		m.scheduler.Stop(ctx.Err())
		return ctx.Err()
	}
}

func (m *Machine) forward(ctx context.Context, source EventSource) {
	events := source.Events()
	for {
		select {
		case <-m.scheduler.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := m.scheduler.Send(ctx, event); err != nil {
				if errors.Is(err, primitives.ErrStopped) {
					return
				}
				m.logger.WithError(err).Debug("Drain started by event source ended with error")
			}
		}
	}
}

// Send enqueues event. See Scheduler.Send for the drain semantics.
func (m *Machine) Send(ctx context.Context, event primitives.Event) error {
	m.mu.RLock()
	started := m.started
	m.mu.RUnlock()
	if !started {
		return ErrNotStarted
	}
	return m.scheduler.Send(ctx, event)
}

func (m *Machine) emitter(ctx context.Context) func(primitives.Event) {
	return func(event primitives.Event) {
		if err := m.scheduler.Send(ctx, event); err != nil {
			m.logger.WithError(err).WithField("event", event.Name).Debug("Emit dropped")
		}
	}
}

// process resolves one dequeued event against the current state.
func (m *Machine) process(ctx context.Context, event primitives.Event) (bool, error) {
	m.metrics.EventsProcessed.Inc(1)
	m.store.Set(primitives.LastEventKey, event.Name)
	if event.Meta != nil {
		m.store.Set(primitives.EventMetaKey, event.Meta)
	} else {
		m.store.Delete(primitives.EventMetaKey)
	}

	current := m.Current()
	state, _ := m.table.State(current)

	m.notifyTick(m.snapshot(event))
	if len(state.Tick) > 0 {
		if err := m.pipeline.Run(ctx, current, event, state.Tick, m.store, m.emitter(ctx)); err != nil {
			return false, err
		}
	}

	target, ok := m.table.Lookup(current, event.Name)
	if !ok {
		m.metrics.UnmatchedEvents.Inc(1)
		m.logger.WithFields(log.Fields{
			"state": current,
			"event": event.Name,
		}).Warn("No transition for event")
		return false, nil
	}
	return m.enter(ctx, target, event)
}

// enter makes target the current state, notifies observers and runs its entry actions.
func (m *Machine) enter(ctx context.Context, target string, event primitives.Event) (bool, error) {
	if err := m.table.AssertState(target); err != nil {
		return false, err
	}
	state, _ := m.table.State(target)
	terminal := m.table.IsTerminal(target)

	m.mu.Lock()
	from := m.current
	m.previous = from
	m.current = target
	m.terminal = terminal
	m.seq++
	seq := m.seq
	m.mu.Unlock()

	m.store.Set(primitives.CurrentStateKey, target)
	m.history.Record(TransitionRecord{
		Seq:       seq,
		From:      from,
		To:        target,
		Event:     event.Name,
		Timestamp: time.Now(),
	})
	if from != "" {
		m.metrics.Transitions.Inc(1)
	}
	m.logger.WithFields(log.Fields{
		"from":     from,
		"to":       target,
		"event":    event.Name,
		"terminal": terminal,
	}).Debug("Entering state")

	m.notify(m.snapshot(event))

	if err := m.pipeline.Run(ctx, target, event, state.Entry, m.store, m.emitter(ctx)); err != nil {
		return terminal, err
	}
	if terminal {
		m.logger.WithField("state", target).Info("Reached terminal state")
	}
	return terminal, nil
}

func (m *Machine) notify(s Snapshot) {
	for _, o := range m.observers {
		m.observe(func() error { return o.OnStateEnter(s) })
	}
}

func (m *Machine) notifyTick(s Snapshot) {
	for _, o := range m.observers {
		if t, ok := o.(TickObserver); ok {
			m.observe(func() error { return t.OnTick(s) })
		}
	}
}

func (m *Machine) observe(call func() error) {
	defer func() {
		if r := recover(); r != nil {
			m.metrics.ObserverErrors.Inc(1)
			m.logger.WithField("panic", r).Warn("Observer panicked")
		}
	}()
	if err := call(); err != nil {
		m.metrics.ObserverErrors.Inc(1)
		m.logger.WithError(err).Warn("Observer failed")
	}
}

func (m *Machine) snapshot(event primitives.Event) Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{
		RunID:     m.runID,
		Seq:       m.seq,
		State:     m.current,
		Previous:  m.previous,
		Event:     event,
		Terminal:  m.terminal,
		Context:   m.store.Snapshot(),
		Timestamp: time.Now(),
	}
}

// Snapshot returns a copy of the machine's current state and context.
func (m *Machine) Snapshot() Snapshot {
	return m.snapshot(primitives.Event{})
}

// Current returns the current state name, empty before Start.
func (m *Machine) Current() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Terminal reports whether the current state is terminal.
func (m *Machine) Terminal() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.terminal
}

// Stop halts the machine and discards queued events. Safe to call more than once.
func (m *Machine) Stop() {
	m.scheduler.Stop(nil)
}

// Done is closed when the machine stops.
func (m *Machine) Done() <-chan struct{} { return m.scheduler.Done() }

// Err returns the error that stopped the machine, nil on a clean stop.
func (m *Machine) Err() error { return m.scheduler.Err() }

// Pending returns the number of queued events.
func (m *Machine) Pending() int { return m.scheduler.Pending() }

// SchedulerState returns the scheduler's lifecycle state.
func (m *Machine) SchedulerState() SchedulerState { return m.scheduler.State() }

// History returns the recorded state entries, oldest first.
func (m *Machine) History() []TransitionRecord { return m.history.Records() }

// Context returns the machine's shared context.
func (m *Machine) Context() *primitives.Context { return m.store }

// Table returns the transition table.
func (m *Machine) Table() *Table { return m.table }

// Config returns the configuration the machine was built from.
func (m *Machine) Config() primitives.MachineConfig { return m.config }

// RunID identifies this machine instance in logs and snapshots.
func (m *Machine) RunID() string { return m.runID }
