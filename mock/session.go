package mock

import (
	"context"
	"net/url"
	"regexp"

	"github.com/fwojciec/syopub"
)

var _ syopub.Session = (*Session)(nil)

// Session is a mock implementation of syopub.Session.
type Session struct {
	GetFn      func(ctx context.Context, path string, query url.Values) (*syopub.Response, error)
	PostFormFn func(ctx context.Context, path string, form url.Values) (*syopub.Response, error)
}

func (s *Session) Get(ctx context.Context, path string, query url.Values) (*syopub.Response, error) {
	return s.GetFn(ctx, path, query)
}

func (s *Session) PostForm(ctx context.Context, path string, form url.Values) (*syopub.Response, error) {
	return s.PostFormFn(ctx, path, form)
}

var _ syopub.Scraper = (*Scraper)(nil)

// Scraper is a mock implementation of syopub.Scraper.
type Scraper struct {
	InputValueFn func(html []byte, name string) (string, error)
	FormActionFn func(html []byte, formID string) (string, error)
	CaptureFn    func(target string, pattern *regexp.Regexp) (string, error)
}

func (s *Scraper) InputValue(html []byte, name string) (string, error) {
	return s.InputValueFn(html, name)
}

func (s *Scraper) FormAction(html []byte, formID string) (string, error) {
	return s.FormActionFn(html, formID)
}

func (s *Scraper) Capture(target string, pattern *regexp.Regexp) (string, error) {
	return s.CaptureFn(target, pattern)
}
