package tracing

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.20.0"
	"go.opentelemetry.io/otel/trace"
)

// Handle correlates one end-to-end request with its trace. TraceUrl is empty
// when no trace UI endpoint is configured.
type Handle struct {
	TraceId  string
	TraceUrl string
}

// Layer is the process-wide trace context. Initialization happens lazily on
// first use, at most once; a failed initialization is cached and never
// retried, and every operation degrades to a no-op rather than failing the
// request.
type Layer struct {
	options  Options
	once     sync.Once
	enabled  bool
	baseUrl  string
	tracer   trace.Tracer
	provider *sdktrace.TracerProvider
}

func New(opts ...Option) *Layer {
	options := NewOptions(opts...)

	return &Layer{
		options: options,
	}
}

func (l *Layer) init() {
	l.once.Do(func() {
		if len(l.options.Endpoint) == 0 {
			slog.InfoContext(l.options.Context, "tracing disabled, no endpoint configured")
			return
		}

		endpoint := resolveEndpoint(l.options.Endpoint)
		l.baseUrl = strings.TrimRight(endpoint, "/")

		exporter, err := otlptracehttp.New(
			l.options.Context,
			otlptracehttp.WithEndpointURL(l.baseUrl+"/v1/traces"),
		)
		if err != nil {
			slog.ErrorContext(l.options.Context, "failed to initialize trace exporter", "error", err)
			return
		}

		provider := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(resource.NewWithAttributes(
				semconv.SchemaURL,
				semconv.ServiceName(l.options.ServiceName),
			)),
		)

		otel.SetTracerProvider(provider)

		l.provider = provider
		l.tracer = provider.Tracer(l.options.ServiceName)
		l.enabled = true
	})
}

// Enabled reports whether a trace backend was registered successfully.
func (l *Layer) Enabled() bool {
	l.init()
	return l.enabled
}

// Span opens a child span, or a no-op handle when no backend is active. The
// span tags itself with the ambient trace id bound by the surrounding Run.
func (l *Layer) Span(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, *Span) {
	l.init()

	if !l.enabled {
		return ctx, &Span{}
	}

	ctx, span := l.tracer.Start(ctx, name)
	span.SetAttributes(attrs...)

	if id := TraceIdFrom(ctx); len(id) > 0 {
		span.SetAttributes(attribute.String("trace_id", id))
	}

	return ctx, &Span{span: span}
}

// Run opens the root span for one request and binds its trace id to the
// returned context so nested Span calls inherit it. Without an active backend
// the id is generated locally instead.
func (l *Layer) Run(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, *Span, Handle) {
	l.init()

	if !l.enabled {
		id := strings.ReplaceAll(uuid.New().String(), "-", "")
		return withTraceId(ctx, id), &Span{}, l.handle(id)
	}

	ctx, span := l.tracer.Start(ctx, name)
	span.SetAttributes(attrs...)

	id := span.SpanContext().TraceID().String()
	span.SetAttributes(attribute.String("trace_id", id))

	return withTraceId(ctx, id), &Span{span: span}, l.handle(id)
}

// Shutdown flushes any buffered spans. Failures are logged, never returned.
func (l *Layer) Shutdown(ctx context.Context) {
	if l.provider == nil {
		return
	}
	if err := l.provider.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to shut down trace provider", "error", err)
	}
}

func (l *Layer) handle(id string) Handle {
	h := Handle{
		TraceId: id,
	}
	if len(l.baseUrl) > 0 {
		h.TraceUrl = l.baseUrl + "/traces/" + id
	}
	return h
}

// Span wraps an active backend span, or nothing at all. Every method on the
// empty Span is a no-op, so call sites never branch on whether tracing is up.
type Span struct {
	span trace.Span
}

func (s *Span) SetAttribute(key string, value any) {
	if s.span == nil {
		return
	}

	switch v := value.(type) {
	case string:
		s.span.SetAttributes(attribute.String(key, v))
	case bool:
		s.span.SetAttributes(attribute.Bool(key, v))
	case int:
		s.span.SetAttributes(attribute.Int(key, v))
	case int64:
		s.span.SetAttributes(attribute.Int64(key, v))
	case float64:
		s.span.SetAttributes(attribute.Float64(key, v))
	default:
		s.span.SetAttributes(attribute.String(key, fmt.Sprintf("%v", v)))
	}
}

// End closes the span, recording err on it first when non-nil. The error is
// the caller's to propagate; End only annotates.
func (s *Span) End(err error) {
	if s.span == nil {
		return
	}

	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	}

	s.span.End()
}

type traceIdKey struct{}

func withTraceId(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceIdKey{}, id)
}

// TraceIdFrom returns the trace id bound by the nearest enclosing Run, or "".
func TraceIdFrom(ctx context.Context) string {
	if id, ok := ctx.Value(traceIdKey{}).(string); ok {
		return id
	}
	return ""
}

// resolveEndpoint swaps an unresolvable host for loopback, keeping the port.
// A collector that moved or never existed should degrade tracing, not block
// initialization.
func resolveEndpoint(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil || len(u.Host) == 0 {
		return endpoint
	}

	host := u.Hostname()
	if _, err := net.LookupHost(host); err == nil {
		return endpoint
	}

	if port := u.Port(); len(port) > 0 {
		u.Host = "127.0.0.1:" + port
	} else {
		u.Host = "127.0.0.1"
	}

	slog.Warn("trace endpoint host unresolvable, substituting loopback", "host", host, "endpoint", u.String())

	return u.String()
}
