package observability

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

// InitLogger initializes the global zerolog logger
func InitLogger(serviceName, env, level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if env == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}).With().
			Str("service", serviceName).
			Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Caller().
			Str("service", serviceName).
			Logger()
	}

	// Code that reaches for zerolog.Ctx on a bare context still logs.
	zerolog.DefaultContextLogger = &log.Logger
}

// WithLogFields returns a context whose logger carries the given string
// fields in addition to whatever the context logger already had. The
// request middleware uses it for request_id; auth adds user_id.
func WithLogFields(ctx context.Context, kv ...string) context.Context {
	lc := baseLogger(ctx).With()
	for i := 0; i+1 < len(kv); i += 2 {
		lc = lc.Str(kv[i], kv[i+1])
	}
	logger := lc.Logger()
	return logger.WithContext(ctx)
}

// LoggerFromContext returns the request logger stored in ctx, or the global
// logger, annotated with the active trace and span ids.
func LoggerFromContext(ctx context.Context) *zerolog.Logger {
	logger := *baseLogger(ctx)

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		logger = logger.With().
			Str("trace_id", span.SpanContext().TraceID().String()).
			Str("span_id", span.SpanContext().SpanID().String()).
			Logger()
	}

	return &logger
}

func baseLogger(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &log.Logger
}
