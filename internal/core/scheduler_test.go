package core

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/suite"
	"github.com/uber-go/tally/v4"

	"github.com/comalice/dfsm/internal/primitives"
)

type SchedulerTestSuite struct {
	suite.Suite

	scope     tally.TestScope
	scheduler *Scheduler
	processed []string
	// handle is swapped per test to script the process callback.
	handle func(ctx context.Context, event primitives.Event) (bool, error)
}

func TestSchedulerTestSuite(t *testing.T) {
	suite.Run(t, new(SchedulerTestSuite))
}

func (s *SchedulerTestSuite) SetupTest() {
	logger, _ := logtest.NewNullLogger()
	s.scope = tally.NewTestScope("", nil)
	s.processed = nil
	s.handle = func(context.Context, primitives.Event) (bool, error) { return false, nil }
	s.scheduler = NewScheduler(func(ctx context.Context, event primitives.Event) (bool, error) {
		s.processed = append(s.processed, event.Name)
		return s.handle(ctx, event)
	}, logger, NewMetrics(s.scope))
}

func (s *SchedulerTestSuite) send(name string) error {
	return s.scheduler.Send(context.Background(), primitives.NewEvent(name, nil))
}

func (s *SchedulerTestSuite) TestSendWhileIdleDrainsOnCaller() {
	s.Require().NoError(s.send("a"))
	s.Equal([]string{"a"}, s.processed)
	s.Equal(Idle, s.scheduler.State())
}

func (s *SchedulerTestSuite) TestReentrantSendOnlyAppends() {
	s.handle = func(ctx context.Context, event primitives.Event) (bool, error) {
		if event.Name == "a" {
			s.Equal(Draining, s.scheduler.State())
			s.Require().NoError(s.send("b"))
			s.Require().NoError(s.send("c"))
			// Nested sends have not been processed yet.
			s.Equal([]string{"a"}, s.processed)
		}
		return false, nil
	}
	s.Require().NoError(s.send("a"))
	s.Equal([]string{"a", "b", "c"}, s.processed)
}

func (s *SchedulerTestSuite) TestHoldQueuesUntilFnReturns() {
	err := s.scheduler.Hold(context.Background(), func(ctx context.Context) (bool, error) {
		s.Require().NoError(s.send("first"))
		s.Require().NoError(s.send("second"))
		s.Empty(s.processed)
		s.Equal(2, s.scheduler.Pending())
		return false, nil
	})
	s.Require().NoError(err)
	s.Equal([]string{"first", "second"}, s.processed)
}

func (s *SchedulerTestSuite) TestHoldWhileDrainingFails() {
	s.handle = func(ctx context.Context, event primitives.Event) (bool, error) {
		err := s.scheduler.Hold(ctx, func(context.Context) (bool, error) { return false, nil })
		s.Error(err)
		return false, nil
	}
	s.Require().NoError(s.send("a"))
}

func (s *SchedulerTestSuite) TestTerminalStopsAndDiscards() {
	s.handle = func(ctx context.Context, event primitives.Event) (bool, error) {
		if event.Name == "a" {
			s.Require().NoError(s.send("x"))
			s.Require().NoError(s.send("y"))
			return true, nil
		}
		return false, nil
	}
	s.Require().NoError(s.send("a"))
	s.Equal([]string{"a"}, s.processed)
	s.Equal(Stopped, s.scheduler.State())
	s.Zero(s.scheduler.Pending())
	s.Equal(int64(2), counterValue(s.scope, "discarded_events"))
	s.ErrorIs(s.send("z"), primitives.ErrStopped)

	select {
	case <-s.scheduler.Done():
	default:
		s.Fail("done channel not closed")
	}
}

func (s *SchedulerTestSuite) TestProcessErrorStops() {
	boom := errors.New("boom")
	s.handle = func(context.Context, primitives.Event) (bool, error) { return false, boom }
	s.ErrorIs(s.send("a"), boom)
	s.ErrorIs(s.scheduler.Err(), boom)
	s.Equal(Stopped, s.scheduler.State())
}

func (s *SchedulerTestSuite) TestStopIsIdempotent() {
	s.scheduler.Stop(nil)
	s.scheduler.Stop(errors.New("ignored"))
	s.NoError(s.scheduler.Err())
	s.Equal("stopped", s.scheduler.State().String())
}
