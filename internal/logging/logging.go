// Package logging builds the logrus logger used by the dfsm command.
package logging

import (
	"io"
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Format names accepted by New.
const (
	TextFormat = "text"
	JSONFormat = "json"
)

// New returns a logger writing to out (stderr when nil) at level in format.
func New(level, format string, out io.Writer) (*log.Logger, error) {
	if out == nil {
		out = os.Stderr
	}
	logger := log.New()
	logger.SetOutput(out)
	if err := Configure(logger, level, format); err != nil {
		return nil, err
	}
	return logger, nil
}

// Configure applies level and format to logger.
func Configure(logger *log.Logger, level, format string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return errors.Wrap(err, "log level")
	}
	logger.SetLevel(lvl)

	switch format {
	case "", TextFormat:
		logger.SetFormatter(&log.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "15:04:05.000",
		})
	case JSONFormat:
		logger.SetFormatter(&log.JSONFormatter{})
	default:
		return errors.Errorf("unknown log format %q", format)
	}
	return nil
}
