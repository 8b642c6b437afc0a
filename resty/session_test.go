package resty_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/fwojciec/syopub"
	syoresty "github.com/fwojciec/syopub/resty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCookies = syopub.CookieConfig{Ses: "session-token", Userl: "user-token"}

func TestSession_PostForm(t *testing.T) {
	t.Parallel()

	t.Run("does not follow redirects", func(t *testing.T) {
		t.Parallel()

		var followed bool
		mux := http.NewServeMux()
		mux.HandleFunc("/usernovel/add/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/usernovelmanage/top/ncode/2918565/", http.StatusFound)
		})
		mux.HandleFunc("/usernovelmanage/top/ncode/2918565/", func(w http.ResponseWriter, r *http.Request) {
			followed = true
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		session, err := syoresty.NewSession(server.URL, testCookies)
		require.NoError(t, err)

		res, err := session.PostForm(context.Background(), "/usernovel/add/", url.Values{"title": {"Book"}})

		require.NoError(t, err)
		assert.False(t, followed)
		assert.True(t, res.IsRedirect())
		assert.Equal(t, http.StatusFound, res.StatusCode)
		assert.Equal(t, "/usernovelmanage/top/ncode/2918565/", res.Location)
		assert.Equal(t, http.MethodPost, res.Method)
	})

	t.Run("sends form fields and session cookies", func(t *testing.T) {
		t.Parallel()

		var gotForm url.Values
		var gotSes, gotUserl, gotUA string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = r.ParseForm()
			gotForm = r.PostForm
			if c, err := r.Cookie("ses"); err == nil {
				gotSes = c.Value
			}
			if c, err := r.Cookie("userl"); err == nil {
				gotUserl = c.Value
			}
			gotUA = r.UserAgent()
		}))
		defer server.Close()

		session, err := syoresty.NewSession(server.URL, testCookies, syoresty.WithUserAgent("test-agent"))
		require.NoError(t, err)

		form := url.Values{"subtitle": {"第一話"}, "preface": {""}}
		res, err := session.PostForm(context.Background(), "/draftepisode/add/ncode/1/", form)

		require.NoError(t, err)
		assert.True(t, res.IsSuccess())
		assert.Equal(t, "第一話", gotForm.Get("subtitle"))
		assert.Contains(t, gotForm, "preface")
		assert.Equal(t, "session-token", gotSes)
		assert.Equal(t, "user-token", gotUserl)
		assert.Equal(t, "test-agent", gotUA)
	})

	t.Run("accepts absolute action URLs", func(t *testing.T) {
		t.Parallel()

		var gotPath string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
		}))
		defer server.Close()

		session, err := syoresty.NewSession(server.URL, testCookies)
		require.NoError(t, err)

		_, err = session.PostForm(context.Background(), server.URL+"/draftnovelmanage/updateconfirm/ncode/1/", url.Values{})

		require.NoError(t, err)
		assert.Equal(t, "/draftnovelmanage/updateconfirm/ncode/1/", gotPath)
	})
}

func TestSession_Get(t *testing.T) {
	t.Parallel()

	t.Run("returns body and sends query", func(t *testing.T) {
		t.Parallel()

		var gotQuery url.Values
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.Query()
			_, _ = w.Write([]byte(`{"result":"ok"}`))
		}))
		defer server.Close()

		session, err := syoresty.NewSession(server.URL, testCookies)
		require.NoError(t, err)

		query := url.Values{"draftepisodeid": {"42"}, "reserve": {"off"}}
		res, err := session.Get(context.Background(), "/draftepisode/postconfirmapi/", query)

		require.NoError(t, err)
		assert.Equal(t, `{"result":"ok"}`, string(res.Body))
		assert.Equal(t, "42", gotQuery.Get("draftepisodeid"))
		assert.Equal(t, "off", gotQuery.Get("reserve"))
	})

	t.Run("wraps transport errors with method and path", func(t *testing.T) {
		t.Parallel()

		session, err := syoresty.NewSession("http://non-existent-host.invalid", testCookies, syoresty.WithTimeout(100*time.Millisecond))
		require.NoError(t, err)

		_, err = session.Get(context.Background(), "/draftepisode/input/ncode/1/", nil)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "GET /draftepisode/input/ncode/1/")
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(100 * time.Millisecond)
		}))
		defer server.Close()

		session, err := syoresty.NewSession(server.URL, testCookies)
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err = session.Get(ctx, "/", nil)
		require.Error(t, err)
	})

	t.Run("is safe for concurrent use", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(r.URL.Path))
		}))
		defer server.Close()

		session, err := syoresty.NewSession(server.URL, testCookies)
		require.NoError(t, err)

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				res, err := session.Get(context.Background(), "/page", nil)
				if assert.NoError(t, err) {
					assert.Equal(t, "/page", string(res.Body))
				}
			}()
		}
		wg.Wait()
	})
}

func TestSession_RateLimit(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	session, err := syoresty.NewSession(server.URL, testCookies, syoresty.WithRateLimit(20))
	require.NoError(t, err)

	begin := time.Now()
	for i := 0; i < 3; i++ {
		_, err := session.Get(context.Background(), "/", nil)
		require.NoError(t, err)
	}

	// Burst of 1 at 20 rps: the second and third requests wait ~50ms each.
	assert.GreaterOrEqual(t, time.Since(begin), 90*time.Millisecond)
}

func TestNewSession_InvalidBaseURL(t *testing.T) {
	t.Parallel()

	_, err := syoresty.NewSession("not a url", testCookies)

	require.Error(t, err)
	assert.Equal(t, syopub.ECONFIG, syopub.ErrorCode(err))
}

func TestNewSessionFromConfig(t *testing.T) {
	t.Parallel()

	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.UserAgent()
	}))
	defer server.Close()

	cfg := syopub.Config{BaseURL: server.URL, Cookie: testCookies}.WithDefaults()
	session, err := syoresty.NewSessionFromConfig(cfg, nil)
	require.NoError(t, err)

	_, err = session.Get(context.Background(), "/", nil)
	require.NoError(t, err)
	assert.Equal(t, syopub.DefaultUserAgent, gotUA)
}
