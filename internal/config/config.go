// Package config loads the CLI settings from DFSM_* environment variables,
// optionally seeded from .env files.
package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Settings holds the runtime settings of the dfsm command. Flags override
// these values; these values override the defaults.
type Settings struct {
	LogLevel  string `env:"DFSM_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"DFSM_LOG_FORMAT" envDefault:"text"`

	// TerminalState overrides the terminal state name of the loaded config.
	TerminalState string `env:"DFSM_TERMINAL_STATE"`
	// ContinueOnError makes action failures non-fatal.
	ContinueOnError bool `env:"DFSM_CONTINUE_ON_ERROR" envDefault:"false"`
	HistorySize     int  `env:"DFSM_HISTORY_SIZE" envDefault:"64"`

	Render      bool `env:"DFSM_RENDER" envDefault:"false"`
	ClearScreen bool `env:"DFSM_CLEAR_SCREEN" envDefault:"false"`
	// RenderFPS caps frames rendered for tick events; 0 is unlimited.
	RenderFPS float64 `env:"DFSM_RENDER_FPS" envDefault:"0"`

	TracePath   string `env:"DFSM_TRACE_PATH"`
	TraceFormat string `env:"DFSM_TRACE_FORMAT"`

	// TickInterval, when positive, sends TickEvent at that interval.
	TickInterval time.Duration `env:"DFSM_TICK_INTERVAL" envDefault:"0s"`
	TickEvent    string        `env:"DFSM_TICK_EVENT" envDefault:"tick"`

	// StdinEvents turns each line of standard input into an event.
	StdinEvents bool `env:"DFSM_STDIN_EVENTS" envDefault:"false"`
	// StdinKeys feeds standard input to the read_key action instead.
	StdinKeys bool   `env:"DFSM_STDIN_KEYS" envDefault:"false"`
	ScriptDir string `env:"DFSM_SCRIPT_DIR"`

	MetricsInterval time.Duration `env:"DFSM_METRICS_INTERVAL" envDefault:"0s"`
}

// LoadEnv loads the given .env files into the process environment. With no
// paths it loads ./.env if present. Existing variables are not overridden.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		// Ignore errors - the .env file might not exist and that's ok
		_ = godotenv.Load()
		return nil
	}
	if err := godotenv.Load(paths...); err != nil {
		return errors.Wrap(err, "load env files")
	}
	return nil
}

// Load parses Settings from the process environment.
func Load() (Settings, error) {
	s, err := env.ParseAs[Settings]()
	if err != nil {
		return Settings{}, errors.Wrap(err, "parse environment")
	}
	return s, s.Validate()
}

// LoadFrom parses Settings from environ instead of the process environment.
func LoadFrom(environ map[string]string) (Settings, error) {
	var s Settings
	if err := env.ParseWithOptions(&s, env.Options{Environment: environ}); err != nil {
		return Settings{}, errors.Wrap(err, "parse environment")
	}
	return s, s.Validate()
}

// Validate checks the values that cannot be validated by their type alone.
func (s Settings) Validate() error {
	if _, err := log.ParseLevel(s.LogLevel); err != nil {
		return errors.Wrap(err, "DFSM_LOG_LEVEL")
	}
	switch s.LogFormat {
	case "text", "json":
	default:
		return errors.Errorf("DFSM_LOG_FORMAT: unknown format %q", s.LogFormat)
	}
	switch s.TraceFormat {
	case "", "json", "jsonl", "yaml", "yml":
	default:
		return errors.Errorf("DFSM_TRACE_FORMAT: unknown format %q", s.TraceFormat)
	}
	if s.HistorySize < 0 {
		return errors.New("DFSM_HISTORY_SIZE must not be negative")
	}
	if s.RenderFPS < 0 {
		return errors.New("DFSM_RENDER_FPS must not be negative")
	}
	if s.TickInterval < 0 || s.MetricsInterval < 0 {
		return errors.New("intervals must not be negative")
	}
	if s.StdinEvents && s.StdinKeys {
		return errors.New("DFSM_STDIN_EVENTS and DFSM_STDIN_KEYS are mutually exclusive")
	}
	return nil
}
