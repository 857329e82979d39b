package core

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/comalice/dfsm/internal/primitives"
)

// SchedulerState is the lifecycle state of a Scheduler.
type SchedulerState int

const (
	// Idle means no drain is in progress; the next Send starts one.
	Idle SchedulerState = iota
	// Draining means a drain loop owns the queue; Send only appends.
	Draining
	// Stopped is final; Send returns ErrStopped.
	Stopped
)

func (s SchedulerState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Draining:
		return "draining"
	case Stopped:
		return "stopped"
	}
	return "unknown"
}

// ProcessFunc handles one dequeued event. Returning terminal or a non-nil
// error stops the scheduler.
type ProcessFunc func(ctx context.Context, event primitives.Event) (terminal bool, err error)

// Scheduler is a FIFO event queue drained by at most one goroutine at a time.
type Scheduler struct {
	mu      sync.Mutex
	state   SchedulerState
	queue   []primitives.Event
	process ProcessFunc
	done    chan struct{}
	err     error

	logger  log.FieldLogger
	metrics *Metrics
}

// NewScheduler creates an idle Scheduler that hands events to process.
func NewScheduler(process ProcessFunc, logger log.FieldLogger, metrics *Metrics) *Scheduler {
	if logger == nil {
		logger = log.StandardLogger()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Scheduler{
		process: process,
		done:    make(chan struct{}),
		logger:  logger,
		metrics: metrics,
	}
}

// Send enqueues event. When the scheduler is idle the drain runs on the
// caller's goroutine and Send returns once the queue is empty or the
// scheduler stopped, reporting the error that stopped it. While another drain
// is in progress Send only appends and returns nil.
func (s *Scheduler) Send(ctx context.Context, event primitives.Event) error {
	s.mu.Lock()
	switch s.state {
	case Stopped:
		s.mu.Unlock()
		return primitives.ErrStopped
	case Draining:
		s.enqueueLocked(event)
		s.mu.Unlock()
		return nil
	}
	s.enqueueLocked(event)
	s.state = Draining
	s.mu.Unlock()
	return s.drain(ctx)
}

// Hold marks the scheduler as draining, runs fn and then drains whatever fn
// enqueued. Events sent while fn runs are queued, never processed early.
func (s *Scheduler) Hold(ctx context.Context, fn func(ctx context.Context) (bool, error)) error {
	s.mu.Lock()
	switch s.state {
	case Stopped:
		s.mu.Unlock()
		return primitives.ErrStopped
	case Draining:
		s.mu.Unlock()
		return errors.New("scheduler is already draining")
	}
	s.state = Draining
	s.mu.Unlock()

	terminal, err := fn(ctx)
	if err != nil || terminal {
		s.stop(err)
		return err
	}
	return s.drain(ctx)
}

func (s *Scheduler) drain(ctx context.Context) error {
	for {
		s.mu.Lock()
		if s.state == Stopped {
			s.mu.Unlock()
			return nil
		}
		if len(s.queue) == 0 {
			s.state = Idle
			s.mu.Unlock()
			return nil
		}
		event := s.queue[0]
		s.queue[0] = primitives.Event{}
		s.queue = s.queue[1:]
		s.metrics.QueueDepth.Update(float64(len(s.queue)))
		s.mu.Unlock()

		terminal, err := s.process(ctx, event)
		if err != nil || terminal {
			s.stop(err)
			return err
		}
	}
}

func (s *Scheduler) enqueueLocked(event primitives.Event) {
	s.queue = append(s.queue, event)
	s.metrics.QueueDepth.Update(float64(len(s.queue)))
}

// Stop moves the scheduler to Stopped, discarding queued events. An event
// being processed finishes first. Calling Stop more than once is a no-op.
func (s *Scheduler) Stop(err error) {
	s.stop(err)
}

func (s *Scheduler) stop(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Stopped {
		return
	}
	s.state = Stopped
	if n := len(s.queue); n > 0 {
		s.metrics.DiscardedEvents.Inc(int64(n))
		s.logger.WithField("discarded", n).Info("Discarding residual events")
	}
	s.queue = nil
	s.metrics.QueueDepth.Update(0)
	s.err = err
	close(s.done)
}

// Done is closed when the scheduler stops.
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}

// Err returns the error that stopped the scheduler, if any.
func (s *Scheduler) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// State returns the current lifecycle state.
func (s *Scheduler) State() SchedulerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Pending returns the number of queued events.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}
