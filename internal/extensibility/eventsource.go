package extensibility

import (
	"bufio"
	"io"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/comalice/dfsm/internal/core"
	"github.com/comalice/dfsm/internal/primitives"
)

// ChannelEventSource is an EventSource implementation backed by a Go channel.
// Provides a simple way to feed external events into the Machine.
type ChannelEventSource struct {
	ch chan primitives.Event
}

// Events returns the receive-only channel for events.
func (s *ChannelEventSource) Events() <-chan primitives.Event {
	return s.ch
}

// NewChannelEventSource creates a new ChannelEventSource with the given channel.
// The channel should be buffered if backpressure handling is needed.
func NewChannelEventSource(ch chan primitives.Event) *ChannelEventSource {
	return &ChannelEventSource{ch: ch}
}

// TimerEventSource generates periodic events using time.Ticker.
// Used by the CLI to drive tick actions at a fixed interval.
type TimerEventSource struct {
	ch     chan primitives.Event
	name   string
	meta   map[string]any
	ticker *time.Ticker
	stop   chan struct{}
	once   sync.Once
}

// NewTimerEventSource creates a TimerEventSource that emits name every d.
func NewTimerEventSource(name string, meta map[string]any, d time.Duration) *TimerEventSource {
	t := &TimerEventSource{
		ch:     make(chan primitives.Event, 10),
		name:   name,
		meta:   meta,
		ticker: time.NewTicker(d),
		stop:   make(chan struct{}),
	}
	go t.run()
	return t
}

func (t *TimerEventSource) run() {
	for {
		select {
		case <-t.ticker.C:
			select {
			case t.ch <- primitives.NewEvent(t.name, t.meta):
			default:
				// drop if full
			}
		case <-t.stop:
			t.ticker.Stop()
			close(t.ch)
			return
		}
	}
}

// Events returns the event channel.
func (t *TimerEventSource) Events() <-chan primitives.Event {
	return t.ch
}

// Stop stops the ticker and closes the channel. Safe to call more than once.
func (t *TimerEventSource) Stop() {
	t.once.Do(func() { close(t.stop) })
}

// LineEventSource turns each non-empty line read from r into an event. The
// trimmed line is the event name unless a fixed name is configured, in which
// case the line is carried in the event metadata under "line".
type LineEventSource struct {
	ch     chan primitives.Event
	logger log.FieldLogger
	stop   chan struct{}
	once   sync.Once
}

// NewLineEventSource starts reading r. fixedName may be empty.
func NewLineEventSource(r io.Reader, fixedName string, logger log.FieldLogger) *LineEventSource {
	if logger == nil {
		logger = log.StandardLogger()
	}
	s := &LineEventSource{
		ch:     make(chan primitives.Event),
		logger: logger,
		stop:   make(chan struct{}),
	}
	go s.run(r, fixedName)
	return s
}

func (s *LineEventSource) run(r io.Reader, fixedName string) {
	defer close(s.ch)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		ev := primitives.NewEvent(line, nil)
		if fixedName != "" {
			ev = primitives.NewEvent(fixedName, map[string]any{"line": line})
		}
		if !s.send(ev) {
			return
		}
	}
	if err := scanner.Err(); err != nil {
		s.logger.WithError(err).Warn("Event input closed with error")
	}
}

// send delivers ev unless the source is stopped. Stop takes precedence over a
// waiting receiver.
func (s *LineEventSource) send(ev primitives.Event) bool {
	select {
	case <-s.stop:
		return false
	default:
	}
	select {
	case s.ch <- ev:
		return true
	case <-s.stop:
		return false
	}
}

// Events returns the event channel. It is closed at end of input or after Stop.
func (s *LineEventSource) Events() <-chan primitives.Event {
	return s.ch
}

// Stop abandons the reader. A read already blocked on r returns only when r
// yields, after which the line is dropped and the channel closed. Safe to call
// more than once.
func (s *LineEventSource) Stop() {
	s.once.Do(func() { close(s.stop) })
}

// MergedEventSource fans several sources into one channel, which is closed
// once every input channel is closed or Stop is called.
type MergedEventSource struct {
	ch      chan primitives.Event
	sources []core.EventSource
	stop    chan struct{}
	once    sync.Once
}

// MergeEventSources starts forwarding from sources. Nil sources are ignored.
func MergeEventSources(sources ...core.EventSource) *MergedEventSource {
	m := &MergedEventSource{
		ch:   make(chan primitives.Event),
		stop: make(chan struct{}),
	}
	var wg sync.WaitGroup
	for _, s := range sources {
		if s == nil {
			continue
		}
		m.sources = append(m.sources, s)
		wg.Add(1)
		go func(in <-chan primitives.Event) {
			defer wg.Done()
			m.forward(in)
		}(s.Events())
	}
	go func() {
		wg.Wait()
		close(m.ch)
	}()
	return m
}

func (m *MergedEventSource) forward(in <-chan primitives.Event) {
	for {
		select {
		case ev, ok := <-in:
			if !ok {
				return
			}
			select {
			case <-m.stop:
				return
			default:
			}
			select {
			case m.ch <- ev:
			case <-m.stop:
				return
			}
		case <-m.stop:
			return
		}
	}
}

// Events returns the merged channel.
func (m *MergedEventSource) Events() <-chan primitives.Event {
	return m.ch
}

// Stop ends forwarding and stops every input source that can be stopped.
// Safe to call more than once.
func (m *MergedEventSource) Stop() {
	m.once.Do(func() {
		close(m.stop)
		for _, s := range m.sources {
			if st, ok := s.(interface{ Stop() }); ok {
				st.Stop()
			}
		}
	})
}
