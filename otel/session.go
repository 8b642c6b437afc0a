// Package otel provides OpenTelemetry tracing decorators for syopub
// interfaces. Spans carry methods, paths, statuses and identifiers only;
// cookies, tokens and form bodies are never recorded.
package otel

import (
	"context"
	"net/url"

	"github.com/fwojciec/syopub"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName names the tracer used by every decorator in this package.
const TracerName = "github.com/fwojciec/syopub/otel"

func tracerFrom(tp trace.TracerProvider) trace.Tracer {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return tp.Tracer(TracerName)
}

// Ensure TracingSession implements syopub.Session.
var _ syopub.Session = (*TracingSession)(nil)

// TracingSession wraps a Session with one client span per request.
type TracingSession struct {
	next   syopub.Session
	tracer trace.Tracer
}

// NewTracingSession creates a TracingSession. A nil provider means the
// global one.
func NewTracingSession(next syopub.Session, tp trace.TracerProvider) *TracingSession {
	return &TracingSession{next: next, tracer: tracerFrom(tp)}
}

// Get delegates to the wrapped session inside a span.
func (s *TracingSession) Get(ctx context.Context, path string, query url.Values) (*syopub.Response, error) {
	ctx, span := s.start(ctx, "GET", path)
	defer span.End()

	res, err := s.next.Get(ctx, path, query)
	end(span, res, err)
	return res, err
}

// PostForm delegates to the wrapped session inside a span.
func (s *TracingSession) PostForm(ctx context.Context, path string, form url.Values) (*syopub.Response, error) {
	ctx, span := s.start(ctx, "POST", path)
	defer span.End()

	res, err := s.next.PostForm(ctx, path, form)
	end(span, res, err)
	return res, err
}

func (s *TracingSession) start(ctx context.Context, method, path string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "http "+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.path", path),
		),
	)
}

func end(span trace.Span, res *syopub.Response, err error) {
	if res != nil {
		span.SetAttributes(
			attribute.Int("http.status_code", res.StatusCode),
			attribute.Int("http.response_size", len(res.Body)),
		)
		if res.Location != "" {
			span.SetAttributes(attribute.String("http.location", res.Location))
		}
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	if res != nil && res.StatusCode >= 400 {
		span.SetStatus(codes.Error, res.URL)
	}
}
