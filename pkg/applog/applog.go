// Package applog provides the zerolog-backed structured logger shared by every
// package in the aggregator: feed adapters, the ingestion pipeline, and the store.
package applog

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

var (
	once   sync.Once
	root   zerolog.Logger
	levelV zerolog.Level
)

// Init configures the process-wide root logger. Calling it more than once is
// a no-op; the first call wins.
func Init(levelName string, pretty bool, out io.Writer) {
	once.Do(func() {
		if out == nil {
			out = os.Stderr
		}
		levelV = parseLevel(levelName)
		zerolog.SetGlobalLevel(levelV)

		w := out
		if pretty {
			w = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
		}
		root = zerolog.New(w).With().Timestamp().Logger()
	})
}

// ensure guarantees Init has run at least once with sane defaults, so callers
// that forgot to call Init (e.g. in tests) still get a usable logger.
func ensure() {
	once.Do(func() {
		levelV = zerolog.InfoLevel
		zerolog.SetGlobalLevel(levelV)
		root = zerolog.New(os.Stderr).With().Timestamp().Logger()
	})
}

// Named returns a child logger tagged with a "component" field.
func Named(component string) zerolog.Logger {
	ensure()
	return root.With().Str("component", component).Logger()
}

func parseLevel(name string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "", "info":
		return zerolog.InfoLevel
	default:
		return zerolog.InfoLevel
	}
}
