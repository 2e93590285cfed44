// Package logx configures the process-wide zerolog logger.
package logx

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options controls logger setup.
type Options struct {
	Verbose bool
	// Out defaults to stderr so stdout stays free for result lines.
	Out io.Writer
}

// Init replaces log.Logger with a console logger. Verbose enables debug level.
func Init(opts Options) {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	level := zerolog.InfoLevel
	if opts.Verbose {
		level = zerolog.DebugLevel
	}

	writer := zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}
	log.Logger = zerolog.New(writer).With().Timestamp().Logger().Level(level)
}
