// Package resty implements syopub.Session with go-resty. The session
// carries the pre-authenticated cookies, never follows redirects, and is
// shared by every book of a run.
package resty

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/fwojciec/syopub"
	"github.com/go-resty/resty/v2"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

// Ensure Session implements syopub.Session at compile time.
var _ syopub.Session = (*Session)(nil)

// Session is an authenticated, concurrency-safe connection to the site.
type Session struct {
	client  *resty.Client
	limiter *rate.Limiter
}

type options struct {
	userAgent  string
	timeout    time.Duration
	rps        float64
	cloudflare bool
	logger     *slog.Logger
}

// Option configures a Session.
type Option func(*options)

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(o *options) {
		o.userAgent = ua
	}
}

// WithTimeout sets the per-request timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithRateLimit caps requests per second across all users of the session.
// Zero disables limiting.
func WithRateLimit(rps float64) Option {
	return func(o *options) {
		o.rps = rps
	}
}

// WithCloudflareBypass wraps the transport so TLS and header fingerprints
// resemble a browser's.
func WithCloudflareBypass() Option {
	return func(o *options) {
		o.cloudflare = true
	}
}

// WithLogger routes resty's internal warnings and errors to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// NewSession creates a Session for baseURL authenticated with cookies.
func NewSession(baseURL string, cookies syopub.CookieConfig, opts ...Option) (*Session, error) {
	o := &options{userAgent: syopub.DefaultUserAgent}
	for _, opt := range opts {
		opt(o)
	}

	base, err := url.Parse(baseURL)
	if err != nil || base.Host == "" {
		return nil, syopub.Errorf(syopub.ECONFIG, "invalid base URL %q", baseURL)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	jar.SetCookies(base, sessionCookies(base, cookies))

	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetCookieJar(jar)
	client.SetHeader("User-Agent", o.userAgent)
	client.SetRedirectPolicy(resty.RedirectPolicyFunc(func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}))
	if o.timeout > 0 {
		client.SetTimeout(o.timeout)
	}
	if o.cloudflare {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}
	if o.logger != nil {
		client.SetLogger(&restyLogger{logger: o.logger})
	}

	s := &Session{client: client}
	if o.rps > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(o.rps), 1)
		client.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
			return s.limiter.Wait(r.Context())
		})
	}
	return s, nil
}

// NewSessionFromConfig creates a Session from the run configuration.
func NewSessionFromConfig(cfg syopub.Config, logger *slog.Logger) (*Session, error) {
	opts := []Option{
		WithUserAgent(cfg.UserAgent),
		WithTimeout(time.Duration(cfg.Timeout)),
		WithRateLimit(cfg.RequestsPerSecond),
	}
	if cfg.CloudflareBypass {
		opts = append(opts, WithCloudflareBypass())
	}
	if logger != nil {
		opts = append(opts, WithLogger(logger))
	}
	return NewSession(cfg.BaseURL, cfg.Cookie, opts...)
}

// sessionCookies scopes the login cookies to the base host and, for named
// hosts, its subdomains.
func sessionCookies(base *url.URL, cookies syopub.CookieConfig) []*http.Cookie {
	domain := base.Hostname()
	if net.ParseIP(domain) != nil {
		domain = ""
	}
	return []*http.Cookie{
		{Name: "ses", Value: cookies.Ses, Domain: domain, Path: "/"},
		{Name: "userl", Value: cookies.Userl, Domain: domain, Path: "/"},
	}
}

// Get requests path with the given query parameters.
func (s *Session) Get(ctx context.Context, path string, query url.Values) (*syopub.Response, error) {
	req := s.client.R().SetContext(ctx)
	if len(query) > 0 {
		req.SetQueryParamsFromValues(query)
	}
	res, err := req.Get(path)
	return toResponse(http.MethodGet, path, res, err)
}

// PostForm submits form to path.
func (s *Session) PostForm(ctx context.Context, path string, form url.Values) (*syopub.Response, error) {
	res, err := s.client.R().
		SetContext(ctx).
		SetFormDataFromValues(form).
		Post(path)
	return toResponse(http.MethodPost, path, res, err)
}

func toResponse(method, path string, res *resty.Response, err error) (*syopub.Response, error) {
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return &syopub.Response{
		Method:     method,
		URL:        res.Request.URL,
		StatusCode: res.StatusCode(),
		Location:   res.Header().Get("Location"),
		Body:       res.Body(),
	}, nil
}

// restyLogger adapts slog to resty.Logger.
type restyLogger struct {
	logger *slog.Logger
}

func (l *restyLogger) Errorf(format string, v ...any) {
	l.logger.Error(fmt.Sprintf(format, v...), "component", "resty")
}

func (l *restyLogger) Warnf(format string, v ...any) {
	l.logger.Warn(fmt.Sprintf(format, v...), "component", "resty")
}

func (l *restyLogger) Debugf(format string, v ...any) {
	l.logger.Debug(fmt.Sprintf(format, v...), "component", "resty")
}
