package production

import (
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"github.com/comalice/dfsm/internal/core"
)

// ChannelPublisher forwards snapshots to a Go channel.
// Non-blocking publish with drop on backpressure.
type ChannelPublisher struct {
	mu      sync.RWMutex
	ch      chan<- core.Snapshot
	closed  bool
	dropped atomic.Int64
}

// NewChannelPublisher creates a ChannelPublisher with the given output channel.
func NewChannelPublisher(ch chan<- core.Snapshot) *ChannelPublisher {
	return &ChannelPublisher{ch: ch}
}

func (p *ChannelPublisher) OnStateEnter(s core.Snapshot) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return nil
	}
	select {
	case p.ch <- s:
	default:
		p.dropped.Inc()
	}
	return nil
}

// Dropped returns the number of snapshots dropped because the channel was full.
func (p *ChannelPublisher) Dropped() int64 {
	return p.dropped.Load()
}

// Close closes the output channel. Later snapshots are ignored.
func (p *ChannelPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.ch)
	}
	return nil
}

// MultiObserver fans a notification out to several observers in order.
// Every observer is called even when an earlier one fails.
type MultiObserver []core.Observer

func (m MultiObserver) OnStateEnter(s core.Snapshot) error {
	var errs *multierror.Error
	for _, o := range m {
		if err := o.OnStateEnter(s); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	if errs.ErrorOrNil() == nil {
		return nil
	}
	return errors.Wrapf(errs, "%d of %d observers failed", errs.Len(), len(m))
}

func (m MultiObserver) OnTick(s core.Snapshot) error {
	var errs *multierror.Error
	for _, o := range m {
		if t, ok := o.(core.TickObserver); ok {
			if err := t.OnTick(s); err != nil {
				errs = multierror.Append(errs, err)
			}
		}
	}
	return errs.ErrorOrNil()
}
