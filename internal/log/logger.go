// Package log wraps zerolog with a process-wide logger, a context
// carrier, and Gin request middleware.
package log

import (
	"context"
	"io"
	stdlog "log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logger configuration.
type Config struct {
	Level       string `mapstructure:"level"`
	Pretty      bool   `mapstructure:"pretty"`
	ServiceName string `mapstructure:"service_name"`
}

var (
	global = zerolog.New(os.Stdout).With().Timestamp().Logger()
	once   sync.Once
)

// Init initialises the global logger. Call once at service startup.
// Stdlib log output is redirected into zerolog so stray log.Printf
// calls still come out as structured JSON.
func Init(cfg Config) {
	once.Do(func() {
		var w io.Writer = os.Stdout
		if cfg.Pretty {
			w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
		}

		logger := zerolog.New(w).Level(parseLevel(cfg.Level)).With().Timestamp().Logger()
		if cfg.ServiceName != "" {
			logger = logger.With().Str(FieldService, cfg.ServiceName).Logger()
		}
		global = logger

		stdlog.SetFlags(0)
		stdlog.SetOutput(global.With().Str("source", "stdlog").Logger())
	})
}

// L returns the global logger.
func L() zerolog.Logger {
	return global
}

type ctxKey struct{}

// WithLogger stores a logger in the context.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// Ctx retrieves the request-scoped logger from the context, falling
// back to the global logger.
func Ctx(ctx context.Context) zerolog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(zerolog.Logger); ok {
		return l
	}
	return global
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}
