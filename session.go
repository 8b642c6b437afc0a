package syopub

import (
	"context"
	"net/url"
	"regexp"
)

// Response is the part of an HTTP response the publishing workflow inspects.
// Redirects are never followed, so Location carries the redirect target.
type Response struct {
	Method     string
	URL        string
	StatusCode int
	Location   string
	Body       []byte
}

// IsRedirect reports whether the response is a 3xx redirect.
func (r *Response) IsRedirect() bool {
	return r.StatusCode >= 300 && r.StatusCode < 400
}

// IsSuccess reports whether the response has a 2xx status.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Session is an authenticated connection to the hosting site.
// Implementations must be safe for concurrent use and must not follow
// redirects automatically.
type Session interface {
	// Get requests path (relative to the site base URL, or absolute) with
	// the given query parameters.
	Get(ctx context.Context, path string, query url.Values) (*Response, error)

	// PostForm submits form as application/x-www-form-urlencoded to path.
	PostForm(ctx context.Context, path string, form url.Values) (*Response, error)
}

// Scraper recovers dynamic values from server-rendered pages and redirect
// targets. Implementations are pure: they never touch the network.
//
// Every method returns ECONTRACT when the expected value is absent, which
// means the page layout changed or the session lost permission.
type Scraper interface {
	// InputValue returns the value attribute of the input named name.
	InputValue(html []byte, name string) (string, error)

	// FormAction returns the action attribute of the form with the given id.
	FormAction(html []byte, formID string) (string, error)

	// Capture returns the first capture group of pattern matched against
	// target, typically a redirect Location.
	Capture(target string, pattern *regexp.Regexp) (string, error)
}
