package core

import (
	"context"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/comalice/dfsm/internal/primitives"
)

// Pipeline executes an ordered action list strictly sequentially: action i+1
// starts only after the handler for action i returned.
type Pipeline struct {
	registry        Registry
	logger          log.FieldLogger
	metrics         *Metrics
	continueOnError bool
}

// NewPipeline creates a Pipeline. A nil registry resolves nothing.
func NewPipeline(registry Registry, logger log.FieldLogger, metrics *Metrics, continueOnError bool) *Pipeline {
	if registry == nil {
		registry = emptyRegistry{}
	}
	return &Pipeline{
		registry:        registry,
		logger:          logger,
		metrics:         metrics,
		continueOnError: continueOnError,
	}
}

// Run executes actions for state. Unresolved and malformed entries are logged and
// skipped. A failing handler aborts the list with an ActionFailedError unless
// the pipeline continues on errors, in which case the failure is only logged.
func (p *Pipeline) Run(
	ctx context.Context,
	state string,
	event primitives.Event,
	actions []primitives.ActionRef,
	store *primitives.Context,
	emit func(primitives.Event),
) error {
	for i, action := range actions {
		entry := p.logger.WithFields(log.Fields{
			"state":  state,
			"index":  i,
			"action": action.String(),
		})

		if action.Kind == primitives.InvalidAction {
			err := primitives.NewInvalidActionError(action.Raw, state)
			p.metrics.ActionsInvalid.Inc(1)
			entry.WithError(err).Warn("Skipping malformed action")
			continue
		}

		handler, ok := p.registry.Lookup(action.Key())
		if !ok {
			err := primitives.NewActionNotFoundError(action.Key(), state)
			p.metrics.ActionsNotFound.Inc(1)
			entry.WithError(err).Warn("Skipping unregistered action")
			continue
		}

		inv := &Invocation{
			Context: store,
			State:   state,
			Event:   event,
			Action:  action,
			Params:  action.Params,
			Logger:  entry,
			emit:    emit,
		}

		start := time.Now()
		err := invoke(ctx, handler, inv)
		p.metrics.ActionDuration.Record(time.Since(start))
		p.metrics.ActionsRun.Inc(1)
		if err == nil {
			continue
		}

		p.metrics.ActionsFailed.Inc(1)
		failure := primitives.NewActionFailedError(action.Key(), state, err)
		if p.continueOnError {
			entry.WithError(err).Warn("Action failed, continuing")
			continue
		}
		entry.WithError(err).Error("Action failed")
		return failure
	}
	return nil
}

func invoke(ctx context.Context, h Handler, inv *Invocation) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("panic: %v", r)
		}
	}()
	return h(ctx, inv)
}
