package syopub

import (
	"net/url"
	"time"

	"dario.cat/mergo"
)

// Default configuration values.
const (
	DefaultBaseURL    = "https://syosetu.com"
	DefaultDataDir    = "./output"
	DefaultChapterExt = ".txt"
	DefaultEncoding   = "utf-8"
	DefaultUserAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/141.0.0.0 Safari/537.36 Edg/141.0.0.0"
	DefaultTimeout    = 60 * time.Second
)

// Config holds the settings shared by every component of a run.
// It is loaded once and passed by value; nothing reads it from a global.
type Config struct {
	BaseURL string       `toml:"base_url"`
	DataDir string       `toml:"data_dir"`
	Cookie  CookieConfig `toml:"cookie"`
	Novel   NovelConfig  `toml:"novel"`

	UserAgent         string   `toml:"user_agent"`
	Timeout           Duration `toml:"timeout"`
	RequestsPerSecond float64  `toml:"requests_per_second"`
	Concurrency       int      `toml:"concurrency"`
	ChapterExt        string   `toml:"chapter_ext"`
	Encoding          string   `toml:"encoding"`
	CloudflareBypass  bool     `toml:"cloudflare_bypass"`
	LedgerPath        string   `toml:"ledger_path"`
}

// CookieConfig holds the pre-authenticated session cookies.
type CookieConfig struct {
	Ses   string `toml:"ses"`
	Userl string `toml:"userl"`
}

// NovelConfig holds defaults applied to every created book.
type NovelConfig struct {
	// Searchable controls whether books appear in the site's search and
	// listing pages. A nil value means the default, true.
	Searchable *bool `toml:"searchable"`
}

// IsSearchable returns the searchable preference, defaulting to true.
func (n NovelConfig) IsSearchable() bool {
	if n.Searchable == nil {
		return true
	}
	return *n.Searchable
}

// Duration is a time.Duration that decodes from strings such as "30s".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return Errorf(ECONFIG, "invalid duration %q: %v", string(text), err)
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// defaults holds the values WithDefaults fills into unset fields.
var defaults = Config{
	BaseURL:    DefaultBaseURL,
	DataDir:    DefaultDataDir,
	UserAgent:  DefaultUserAgent,
	Timeout:    Duration(DefaultTimeout),
	ChapterExt: DefaultChapterExt,
	Encoding:   DefaultEncoding,
}

// WithDefaults returns a copy of c with unset fields filled in. Fields that
// have no default keep their zero value.
func (c Config) WithDefaults() Config {
	// Merge fails only on mismatched types.
	_ = mergo.Merge(&c, defaults)
	return c
}

// Validate returns ECONFIG if the configuration cannot drive a run.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return Errorf(ECONFIG, "base_url required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return Errorf(ECONFIG, "base_url %q must be an absolute URL", c.BaseURL)
	}
	if c.Cookie.Ses == "" {
		return Errorf(ECONFIG, "cookie.ses required")
	}
	if c.Cookie.Userl == "" {
		return Errorf(ECONFIG, "cookie.userl required")
	}
	if c.RequestsPerSecond < 0 {
		return Errorf(ECONFIG, "requests_per_second must not be negative")
	}
	return nil
}
