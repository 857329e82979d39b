package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	log "github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/comalice/dfsm/internal/config"
	"github.com/comalice/dfsm/internal/logging"
)

var (
	// Version of the dfsm command, set at build time.
	version string
)

// newApp builds the command line. Flags default to the values already
// loaded into s and write back into it when given.
func newApp(s *config.Settings) (*kingpin.Application, map[string]*string) {
	app := kingpin.New("dfsm", "Declarative finite-state machine runner")
	app.Version(version)
	app.HelpFlag.Short('h')

	app.Flag("log-level", "log level (debug, info, warn, error)").
		Default(s.LogLevel).StringVar(&s.LogLevel)
	app.Flag("log-format", "log format (text, json)").
		Default(s.LogFormat).StringVar(&s.LogFormat)

	paths := make(map[string]*string)

	run := app.Command("run", "run a machine until it reaches a terminal state").Default()
	paths["run"] = run.Arg("config", "JSON or YAML machine definition").Required().ExistingFile()
	run.Flag("terminal", "name of the terminal state").
		Default(s.TerminalState).StringVar(&s.TerminalState)
	run.Flag("continue-on-error", "log failing actions and keep going").
		Default(strconv.FormatBool(s.ContinueOnError)).BoolVar(&s.ContinueOnError)
	run.Flag("history", "number of transitions kept in the history ring").
		Default(strconv.Itoa(s.HistorySize)).IntVar(&s.HistorySize)
	run.Flag("render", "print the machine and its context on every state entry").
		Short('r').Default(strconv.FormatBool(s.Render)).BoolVar(&s.Render)
	run.Flag("clear", "clear the screen before rendering").
		Default(strconv.FormatBool(s.ClearScreen)).BoolVar(&s.ClearScreen)
	run.Flag("fps", "maximum frames per second rendered for tick events (0 is unlimited)").
		Default(strconv.FormatFloat(s.RenderFPS, 'f', -1, 64)).Float64Var(&s.RenderFPS)
	run.Flag("trace", "write a snapshot trace to this file").
		Default(s.TracePath).StringVar(&s.TracePath)
	run.Flag("trace-format", "trace format (json, yaml); defaults from the file extension").
		Default(s.TraceFormat).StringVar(&s.TraceFormat)
	run.Flag("tick", "send the tick event at this interval").
		Default(s.TickInterval.String()).DurationVar(&s.TickInterval)
	run.Flag("tick-event", "name of the tick event").
		Default(s.TickEvent).StringVar(&s.TickEvent)
	run.Flag("stdin-events", "turn every line of standard input into an event").
		Default(strconv.FormatBool(s.StdinEvents)).BoolVar(&s.StdinEvents)
	run.Flag("stdin-keys", "feed standard input to the read_key action").
		Default(strconv.FormatBool(s.StdinKeys)).BoolVar(&s.StdinKeys)
	run.Flag("script-dir", "directory script actions resolve relative files against").
		Default(s.ScriptDir).StringVar(&s.ScriptDir)
	run.Flag("metrics-interval", "log metrics at this interval; always logged once at exit").
		Default(s.MetricsInterval.String()).DurationVar(&s.MetricsInterval)

	dot := app.Command("dot", "print a machine as a Graphviz digraph")
	paths["dot"] = dot.Arg("config", "JSON or YAML machine definition").Required().ExistingFile()

	validate := app.Command("validate", "normalize a machine and print its canonical form")
	paths["validate"] = validate.Arg("config", "JSON or YAML machine definition").Required().ExistingFile()

	app.Command("actions", "list the built-in action names")

	trace := app.Command("trace", "summarize a trace written by run --trace")
	paths["trace"] = trace.Arg("file", "trace file").Required().ExistingFile()

	return app, paths
}

func main() {
	if err := config.LoadEnv(); err != nil {
		log.WithError(err).Warn("Cannot load .env")
	}
	settings, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Invalid DFSM_* environment")
	}

	app, paths := newApp(&settings)
	cmd := kingpin.MustParse(app.Parse(os.Args[1:]))
	app.FatalIfError(settings.Validate(), "invalid settings")

	logger, err := logging.New(settings.LogLevel, settings.LogFormat, os.Stderr)
	app.FatalIfError(err, "cannot configure logging")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := &runner{
		settings: settings,
		logger:   logger,
		stdin:    os.Stdin,
		stdout:   os.Stdout,
	}

	switch cmd {
	case "run":
		err = r.run(ctx, *paths["run"])
	case "dot":
		err = r.dot(*paths["dot"])
	case "validate":
		err = r.validate(*paths["validate"])
	case "actions":
		err = r.actions()
	case "trace":
		err = r.trace(*paths["trace"])
	}
	stop()
	app.FatalIfError(err, "%s", cmd)
}
