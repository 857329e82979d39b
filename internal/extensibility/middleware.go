package extensibility

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/uber-go/tally/v4"

	"github.com/comalice/dfsm/internal/core"
)

// Middleware wraps the handler registered under name.
type Middleware func(name string, next core.Handler) core.Handler

// Logging logs every action before and after it runs, at debug level.
func Logging(logger log.FieldLogger) Middleware {
	return func(name string, next core.Handler) core.Handler {
		return func(ctx context.Context, inv *core.Invocation) error {
			entry := logger.WithFields(log.Fields{
				"action": name,
				"state":  inv.State,
				"event":  inv.Event.Name,
			})
			entry.Debug("Executing action")
			start := time.Now()
			err := next(ctx, inv)
			entry = entry.WithField("duration", time.Since(start))
			if err != nil {
				entry.WithError(err).Debug("Action returned error")
			} else {
				entry.Debug("Action completed")
			}
			return err
		}
	}
}

// Timing records a per-action latency timer and error counter, tagged by action name.
func Timing(scope tally.Scope) Middleware {
	return func(name string, next core.Handler) core.Handler {
		tagged := scope.Tagged(map[string]string{"action": name})
		timer := tagged.Timer("latency")
		errs := tagged.Counter("errors")
		return func(ctx context.Context, inv *core.Invocation) error {
			sw := timer.Start()
			err := next(ctx, inv)
			sw.Stop()
			if err != nil {
				errs.Inc(1)
			}
			return err
		}
	}
}
