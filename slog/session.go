// Package slog provides logging decorators for syopub interfaces.
package slog

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/fwojciec/syopub"
)

// Ensure LoggingSession implements syopub.Session.
var _ syopub.Session = (*LoggingSession)(nil)

// LoggingSession wraps a Session with request logging.
type LoggingSession struct {
	next   syopub.Session
	logger *slog.Logger
}

// NewLoggingSession creates a new LoggingSession.
func NewLoggingSession(next syopub.Session, logger *slog.Logger) *LoggingSession {
	return &LoggingSession{next: next, logger: logger}
}

// Get delegates to the wrapped session and logs the request.
func (s *LoggingSession) Get(ctx context.Context, path string, query url.Values) (res *syopub.Response, err error) {
	defer func(begin time.Time) {
		s.log(ctx, "GET", path, res, err, time.Since(begin))
	}(time.Now())
	return s.next.Get(ctx, path, query)
}

// PostForm delegates to the wrapped session and logs the request. Form
// values are never logged.
func (s *LoggingSession) PostForm(ctx context.Context, path string, form url.Values) (res *syopub.Response, err error) {
	defer func(begin time.Time) {
		s.log(ctx, "POST", path, res, err, time.Since(begin))
	}(time.Now())
	return s.next.PostForm(ctx, path, form)
}

func (s *LoggingSession) log(ctx context.Context, method, path string, res *syopub.Response, err error, d time.Duration) {
	attrs := []any{"method", method, "path", path}
	if res != nil {
		attrs = append(attrs, "status", res.StatusCode, "bytes", len(res.Body))
		if res.Location != "" {
			attrs = append(attrs, "location", res.Location)
		}
	}
	attrs = append(attrs, "duration", d)

	if err != nil {
		s.logger.ErrorContext(ctx, "request", append(attrs, "err", err)...)
		return
	}
	s.logger.DebugContext(ctx, "request", attrs...)
}
