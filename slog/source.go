package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/syopub"
)

// Ensure LoggingBookSource implements syopub.BookSource.
var _ syopub.BookSource = (*LoggingBookSource)(nil)

// LoggingBookSource wraps a BookSource with logging.
type LoggingBookSource struct {
	next   syopub.BookSource
	logger *slog.Logger
}

// NewLoggingBookSource creates a new LoggingBookSource.
func NewLoggingBookSource(next syopub.BookSource, logger *slog.Logger) *LoggingBookSource {
	return &LoggingBookSource{next: next, logger: logger}
}

// Discover delegates to the wrapped source and logs the operation.
func (s *LoggingBookSource) Discover(ctx context.Context, root string) (dirs []string, err error) {
	defer func(begin time.Time) {
		s.logger.InfoContext(ctx, "book discovery",
			"root", root,
			"count", len(dirs),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Discover(ctx, root)
}

// Load delegates to the wrapped source and logs the operation.
func (s *LoggingBookSource) Load(ctx context.Context, dir string) (book *syopub.Book, err error) {
	defer func(begin time.Time) {
		attrs := []any{"dir", dir}
		if book != nil {
			attrs = append(attrs, "title", book.Title, "chapters", len(book.Chapters))
		}
		attrs = append(attrs, "duration", time.Since(begin), "err", err)
		s.logger.InfoContext(ctx, "book load", attrs...)
	}(time.Now())
	return s.next.Load(ctx, dir)
}
