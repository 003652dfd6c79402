package core

import (
	"context"
	"time"
)

// Logger captures the leveled logging surface the service emits to. The
// method set matches *slog.Logger so callers can pass one directly.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// MetricsRecorder receives one observation per service operation.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// Tracer opens a span per service operation.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

// TraceSpan terminates a span opened by a Tracer.
type TraceSpan interface {
	End(err error)
}

// Option configures optional service collaborators.
type Option func(*Service)

// WithLogger attaches a logger for operation outcomes.
func WithLogger(logger Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(recorder MetricsRecorder) Option {
	return func(s *Service) {
		s.metrics = recorder
	}
}

// WithTracer attaches a tracer.
func WithTracer(tracer Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// instrument wraps one service operation with tracing, metrics, and logging.
func (s *Service) instrument(ctx context.Context, operation string, fn func(context.Context) error) error {
	start := time.Now()
	var span TraceSpan
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, operation)
	}
	err := fn(ctx)
	duration := time.Since(start)
	if span != nil {
		span.End(err)
	}
	if s.metrics != nil {
		s.metrics.Observe(ctx, operation, err == nil, duration)
	}
	if err != nil {
		s.logger.Warn("operation failed", "operation", operation, "error", err, "duration_ms", float64(duration)/float64(time.Millisecond))
	} else {
		s.logger.Debug("operation completed", "operation", operation, "duration_ms", float64(duration)/float64(time.Millisecond))
	}
	return err
}
