package observability

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ajitpratap0/tcpprovider-go/pkg/codec"
	perrors "github.com/ajitpratap0/tcpprovider-go/pkg/errors"
	"github.com/ajitpratap0/tcpprovider-go/pkg/initializer"
)

// ObservabilityMiddleware records metrics and spans around initializer calls
type ObservabilityMiddleware struct {
	config  ObservabilityConfig
	tracer  trace.Tracer
	metrics MetricsProvider

	// tracing is set when the middleware built its own tracer provider.
	tracing *TracingProvider
}

// ObservabilityConfig configures the observability middleware
type ObservabilityConfig struct {
	// Tracing configuration
	EnableTracing bool          `json:"enable_tracing"`
	TracingConfig TracingConfig `json:"tracing"`

	// Metrics configuration
	EnableMetrics bool          `json:"enable_metrics"`
	MetricsConfig MetricsConfig `json:"metrics"`

	// RecordPanics adds a span event before re-raising a host panic.
	RecordPanics bool `json:"record_panics"`

	// Tracer and Metrics, when set, are used instead of building providers
	// from TracingConfig and MetricsConfig.
	Tracer  trace.Tracer    `json:"-"`
	Metrics MetricsProvider `json:"-"`
}

// NewObservabilityMiddleware creates the middleware, building any providers
// the config enables but does not supply.
func NewObservabilityMiddleware(config ObservabilityConfig) (*ObservabilityMiddleware, error) {
	m := &ObservabilityMiddleware{config: config, metrics: NopMetrics()}

	if config.EnableTracing {
		m.tracer = config.Tracer
		if m.tracer == nil {
			t, err := NewTracingProvider(config.TracingConfig)
			if err != nil {
				return nil, fmt.Errorf("failed to create tracing provider: %w", err)
			}
			m.tracing = t
			m.tracer = t.Tracer()
		}
	}

	if config.EnableMetrics {
		if config.Metrics != nil {
			m.metrics = config.Metrics
		} else {
			p, err := NewMetricsProvider(config.MetricsConfig)
			if err != nil {
				return nil, fmt.Errorf("failed to create metrics provider: %w", err)
			}
			m.metrics = p
		}
	}

	return m, nil
}

// Metrics returns the provider the middleware records to
func (m *ObservabilityMiddleware) Metrics() MetricsProvider {
	return m.metrics
}

// Shutdown flushes and stops the tracer provider built by
// NewObservabilityMiddleware. Supplied tracers and metrics belong to the
// caller and are left running.
func (m *ObservabilityMiddleware) Shutdown(ctx context.Context) error {
	if m.tracing == nil {
		return nil
	}
	return m.tracing.Shutdown(ctx)
}

// Wrap implements the initializer.Middleware interface
func (m *ObservabilityMiddleware) Wrap(next initializer.Initializer) initializer.Initializer {
	return &observabilityInitializer{middleware: m, next: next}
}

type observabilityInitializer struct {
	middleware *ObservabilityMiddleware
	next       initializer.Initializer
}

func (oi *observabilityInitializer) Unwrap() initializer.Initializer {
	return oi.next
}

func (oi *observabilityInitializer) startSpan(operation string) (context.Context, trace.Span) {
	if oi.middleware.tracer == nil {
		return context.Background(), trace.SpanFromContext(context.Background())
	}
	return startOperationSpan(context.Background(), oi.middleware.tracer, operation)
}

// recordPanic marks the span and re-raises.
func (oi *observabilityInitializer) recordPanic(span trace.Span) {
	if !oi.middleware.config.RecordPanics {
		return
	}
	if r := recover(); r != nil {
		span.AddEvent("panic", trace.WithAttributes(attribute.String("panic.value", fmt.Sprint(r))))
		span.SetStatus(codes.Error, "panic occurred")
		panic(r)
	}
}

func (oi *observabilityInitializer) ListenerStarted(id initializer.ListenerIdentity) {
	_, span := oi.startSpan("listener_started")
	span.SetAttributes(AttrServerNumber.Int(id.ServerNumber), AttrEndpoint.String(endpoint(id)))
	defer span.End()
	defer oi.recordPanic(span)

	oi.next.ListenerStarted(id)
	oi.middleware.metrics.RecordListenerEvent(id.ServerNumber, "started")
}

func (oi *observabilityInitializer) ListenerStopped(id initializer.ListenerIdentity) {
	_, span := oi.startSpan("listener_stopped")
	span.SetAttributes(AttrServerNumber.Int(id.ServerNumber), AttrEndpoint.String(endpoint(id)))
	defer span.End()
	defer oi.recordPanic(span)

	oi.next.ListenerStopped(id)
	oi.middleware.metrics.RecordListenerEvent(id.ServerNumber, "stopped")
}

func (oi *observabilityInitializer) Prepare(conn net.Conn) error {
	ctx, span := oi.startSpan("prepare")
	defer span.End()
	defer oi.recordPanic(span)

	start := time.Now()
	err := oi.next.Prepare(conn)
	duration := time.Since(start)

	status := "success"
	if err != nil {
		status = getErrorType(err)
		RecordError(ctx, err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	oi.middleware.metrics.RecordPrepare(status, duration)
	return err
}

func (oi *observabilityInitializer) NewFormatter() codec.Formatter {
	_, span := oi.startSpan("formatter")
	defer span.End()
	defer oi.recordPanic(span)

	f := oi.next.NewFormatter()
	name := "default"
	if f != nil {
		name = f.Name()
	}
	span.SetAttributes(AttrFormatter.String(name))
	oi.middleware.metrics.RecordFormatterSelection(name)
	return f
}

func endpoint(id initializer.ListenerIdentity) string {
	if id.EndPoint == nil {
		return ""
	}
	return id.EndPoint.String()
}

// getErrorType classifies an error for metric labels
func getErrorType(err error) string {
	if err == nil {
		return "success"
	}
	if pe, ok := perrors.AsProviderError(err); ok {
		return string(pe.Category())
	}
	var ne net.Error
	if stderrors.As(err, &ne) && ne.Timeout() {
		return "timeout"
	}
	return "error"
}
