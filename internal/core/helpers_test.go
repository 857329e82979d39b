package core

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/uber-go/tally/v4"

	"github.com/comalice/dfsm/internal/primitives"
)

type mapRegistry map[string]Handler

func (r mapRegistry) Lookup(name string) (Handler, bool) {
	h, ok := r[name]
	return h, ok
}

// recorder collects ordered calls from handlers and observers.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(call string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *recorder) handler(label string) Handler {
	return func(_ context.Context, inv *Invocation) error {
		r.add(label + "@" + inv.State)
		return nil
	}
}

func (r *recorder) observer() Observer {
	return ObserverFunc(func(s Snapshot) error {
		r.add("observe@" + s.State)
		return nil
	})
}

func emitHandler(_ context.Context, inv *Invocation) error {
	name, _ := inv.Params["event"].(string)
	inv.Emit(name, nil)
	return nil
}

func warnings(hook *logtest.Hook) []*log.Entry {
	var out []*log.Entry
	for _, e := range hook.AllEntries() {
		if e.Level == log.WarnLevel {
			out = append(out, e)
		}
	}
	return out
}

func counterValue(scope tally.TestScope, name string) int64 {
	var total int64
	for _, c := range scope.Snapshot().Counters() {
		if c.Name() == name {
			total += c.Value()
		}
	}
	return total
}

func newTestMachine(config primitives.MachineConfig, opts ...Option) (*Machine, *logtest.Hook, tally.TestScope, error) {
	logger, hook := logtest.NewNullLogger()
	scope := tally.NewTestScope("", nil)
	opts = append([]Option{WithLogger(logger), WithMetricsScope(scope)}, opts...)
	m, err := NewMachine(config, opts...)
	return m, hook, scope, err
}
