package otel

import (
	"context"

	"github.com/fwojciec/syopub"
	"github.com/fwojciec/syopub/publish"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Ensure TracingPublisher implements publish.Publisher.
var _ publish.Publisher = (*TracingPublisher)(nil)

// TracingPublisher wraps a book Publisher with one span per book. Request
// spans from a TracingSession nest under it.
type TracingPublisher struct {
	next   publish.Publisher
	tracer trace.Tracer
}

// NewTracingPublisher creates a TracingPublisher. A nil provider means the
// global one.
func NewTracingPublisher(next publish.Publisher, tp trace.TracerProvider) *TracingPublisher {
	return &TracingPublisher{next: next, tracer: tracerFrom(tp)}
}

// Publish delegates to the wrapped publisher inside a span.
func (p *TracingPublisher) Publish(ctx context.Context, book *syopub.Book, progress publish.ProgressFunc) (*syopub.BookResult, error) {
	ctx, span := p.tracer.Start(ctx, "publish book", trace.WithAttributes(
		attribute.String("book.dir", book.Dir),
		attribute.String("book.title", book.Title),
		attribute.Int("book.chapters", len(book.Chapters)),
	))
	defer span.End()

	result, err := p.next.Publish(ctx, book, progress)
	if result != nil {
		span.SetAttributes(
			attribute.String("book.id", result.BookID),
			attribute.String("book.state", result.State.String()),
			attribute.Int("book.published", result.Published()),
		)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return result, err
}
