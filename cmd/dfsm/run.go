package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/uber-go/tally/v4"

	"github.com/comalice/dfsm"
	"github.com/comalice/dfsm/internal/actions"
	"github.com/comalice/dfsm/internal/config"
	"github.com/comalice/dfsm/internal/core"
	"github.com/comalice/dfsm/internal/extensibility"
	"github.com/comalice/dfsm/internal/metrics"
	"github.com/comalice/dfsm/internal/primitives"
	"github.com/comalice/dfsm/internal/production"
)

// errInputEnded is returned when every event source closed while the machine
// was still waiting in a non-terminal state.
var errInputEnded = errors.New("event input ended before a terminal state was reached")

type runner struct {
	settings config.Settings
	logger   *log.Logger
	stdin    io.Reader
	stdout   io.Writer

	// actionOpts are applied after the ones derived from settings.
	actionOpts []actions.Option
}

func (r *runner) load(path string) (primitives.MachineConfig, error) {
	cfg, err := dfsm.LoadFile(path)
	if err != nil {
		return cfg, err
	}
	if unreachable := cfg.Unreachable(); len(unreachable) > 0 {
		r.logger.WithField("states", unreachable).Warn("States unreachable from the initial state")
	}
	return cfg, nil
}

func (r *runner) registry(scope tally.Scope, configPath string) *extensibility.Registry {
	opts := []actions.Option{actions.WithOutput(r.stdout)}
	scriptDir := r.settings.ScriptDir
	if scriptDir == "" {
		scriptDir = filepath.Dir(configPath)
	}
	opts = append(opts, actions.WithScriptDir(scriptDir))
	if r.settings.StdinKeys {
		opts = append(opts, actions.WithInput(r.stdin))
	}
	opts = append(opts, r.actionOpts...)

	registry := extensibility.NewRegistry(actions.Builtins(opts...), nil)
	registry.Use(extensibility.Logging(r.logger), extensibility.Timing(scope))
	return registry
}

// sources returns the event sources selected by the settings. With none
// selected and standard input not claimed by read_key, lines of standard
// input become events.
func (r *runner) sources() *extensibility.MergedEventSource {
	var sources []core.EventSource
	if r.settings.TickInterval > 0 {
		sources = append(sources, extensibility.NewTimerEventSource(r.settings.TickEvent, nil, r.settings.TickInterval))
	}
	if r.settings.StdinEvents || (len(sources) == 0 && !r.settings.StdinKeys) {
		sources = append(sources, extensibility.NewLineEventSource(r.stdin, "", r.logger))
	}
	return extensibility.MergeEventSources(sources...)
}

func (r *runner) observers(table *core.Table) ([]core.Observer, io.Closer, error) {
	var (
		observers []core.Observer
		closer    io.Closer = nopCloser{}
	)
	if r.settings.Render {
		var opts []production.RendererOption
		if r.settings.ClearScreen {
			opts = append(opts, production.WithClearScreen())
		}
		if r.settings.TickInterval > 0 {
			opts = append(opts, production.WithTicks(), production.WithMaxFPS(r.settings.RenderFPS))
		}
		observers = append(observers, production.NewTextRenderer(r.stdout, table, opts...))
	}
	if r.settings.TracePath != "" {
		var format production.Format
		if r.settings.TraceFormat != "" {
			f, err := production.ParseFormat(r.settings.TraceFormat)
			if err != nil {
				return nil, nil, err
			}
			format = f
		}
		recorder, err := production.OpenRecorder(r.settings.TracePath, format)
		if err != nil {
			return nil, nil, err
		}
		observers = append(observers, recorder)
		closer = recorder
	}
	return observers, closer, nil
}

func (r *runner) run(ctx context.Context, path string) error {
	cfg, err := r.load(path)
	if err != nil {
		return err
	}

	reporter := metrics.NewLogReporter(r.logger)
	scope, scopeCloser := metrics.NewRootScope("dfsm", reporter, r.settings.MetricsInterval)
	defer scopeCloser.Close()

	table, err := core.NewTable(cfg, r.settings.TerminalState)
	if err != nil {
		return err
	}
	observers, traceCloser, err := r.observers(table)
	if err != nil {
		return err
	}
	defer traceCloser.Close()

	opts := []core.Option{
		core.WithLogger(r.logger),
		core.WithRegistry(r.registry(scope, path)),
		core.WithMetricsScope(scope),
		core.WithTerminalState(r.settings.TerminalState),
		core.WithHistorySize(r.settings.HistorySize),
	}
	if len(observers) > 0 {
		opts = append(opts, core.WithObserver(production.MultiObserver(observers)))
	}
	if r.settings.ContinueOnError {
		opts = append(opts, core.WithContinueOnActionError())
	}
	m, err := core.NewMachine(cfg, opts...)
	if err != nil {
		return err
	}

	if err := m.Start(ctx); err != nil {
		return err
	}
	if m.Terminal() {
		r.finished(m)
		return nil
	}

	sources := r.sources()
	defer sources.Stop()
	inputDone := make(chan struct{})
	go func() {
		defer close(inputDone)
		for ev := range sources.Events() {
			if err := m.Send(ctx, ev); err != nil {
				return
			}
		}
	}()

	select {
	case <-m.Done():
		err = m.Err()
	case <-ctx.Done():
		m.Stop()
		return ctx.Err()
	case <-inputDone:
		if !m.Terminal() {
			m.Stop()
			return errors.Wrapf(errInputEnded, "in state %s", m.Current())
		}
		err = m.Err()
	}
	if err != nil {
		return err
	}
	r.finished(m)
	return nil
}

func (r *runner) finished(m *core.Machine) {
	path := make([]string, 0, len(m.History()))
	for _, rec := range m.History() {
		path = append(path, rec.To)
	}
	r.logger.WithFields(log.Fields{
		"state": m.Current(),
		"path":  strings.Join(path, " > "),
	}).Info("Machine finished")
}

func (r *runner) dot(path string) error {
	cfg, err := r.load(path)
	if err != nil {
		return err
	}
	table, err := core.NewTable(cfg, r.settings.TerminalState)
	if err != nil {
		return err
	}
	_, err = io.WriteString(r.stdout, production.ExportDOT(table, ""))
	return err
}

func (r *runner) validate(path string) error {
	cfg, err := r.load(path)
	if err != nil {
		return err
	}
	fingerprint, err := primitives.Fingerprint(&cfg)
	if err != nil {
		return err
	}
	data, err := production.ExportJSON(cfg)
	if err != nil {
		return err
	}
	r.logger.WithFields(log.Fields{
		"states":      len(cfg.States),
		"fingerprint": fingerprint,
	}).Info("Config is valid")
	_, err = fmt.Fprintf(r.stdout, "%s\n", data)
	return err
}

func (r *runner) actions() error {
	registry := extensibility.NewRegistry(actions.Builtins(), nil)
	for _, name := range registry.Names() {
		if _, err := fmt.Fprintln(r.stdout, name); err != nil {
			return err
		}
	}
	return nil
}

func (r *runner) trace(path string) error {
	snapshots, err := production.ReadTraceFile(path)
	if err != nil {
		return err
	}
	for _, s := range snapshots {
		from := s.Previous
		if from == "" {
			from = "(start)"
		}
		if _, err := fmt.Fprintf(r.stdout, "%4d  %-20s %-20s %s\n", s.Seq, from, s.State, s.Event.Name); err != nil {
			return err
		}
	}
	return nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
