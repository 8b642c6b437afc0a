package publish_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/fwojciec/syopub"
	"github.com/fwojciec/syopub/goquery"
	"github.com/fwojciec/syopub/publish"
	syoresty "github.com/fwojciec/syopub/resty"
	"github.com/stretchr/testify/require"
)

// draftSubmission is one accepted POST to the draft-add endpoint.
type draftSubmission struct {
	BookID   string
	DraftID  string
	Subtitle string
	Content  string
}

// fakeSite reproduces the site's form workflow: redirects carry new ids,
// management pages carry form actions and draft pages carry single-use
// tokens.
type fakeSite struct {
	t      *testing.T
	server *httptest.Server

	// Titles for which book creation answers 200 instead of redirecting.
	rejectTitles map[string]bool

	mu        sync.Mutex
	nextBook  int
	nextDraft int
	nextToken int
	tokens    map[string]bool // token -> used
	books     []string        // created titles in order
	drafts    []draftSubmission
	confirms  []url.Values
	commits   []string
	forms     map[string]url.Values // last form posted per management path
}

func newFakeSite(t *testing.T) *fakeSite {
	t.Helper()

	s := &fakeSite{
		t:            t,
		rejectTitles: make(map[string]bool),
		nextBook:     2918564,
		nextDraft:    4872096,
		tokens:       make(map[string]bool),
		forms:        make(map[string]url.Values),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /usernovel/add/{$}", s.createBook)
	mux.HandleFunc("GET /draftnovelmanage/receptionsinput/ncode/{id}/{$}", s.managePage("receptionsconfirm"))
	mux.HandleFunc("GET /draftnovelmanage/updateinput/ncode/{id}/{$}", s.managePage("updateconfirm"))
	mux.HandleFunc("POST /draftnovelmanage/receptionsconfirm/ncode/{id}/{$}", s.manageSubmit("receptions"))
	mux.HandleFunc("POST /draftnovelmanage/updateconfirm/ncode/{id}/{$}", s.manageSubmit("update"))
	mux.HandleFunc("GET /draftepisode/input/ncode/{id}/{$}", s.draftPage)
	mux.HandleFunc("POST /draftepisode/add/ncode/{id}/{$}", s.addDraft)
	mux.HandleFunc("GET /draftepisode/postconfirmapi/{$}", s.confirm)
	mux.HandleFunc("POST /draftepisode/postapi/{$}", s.commit)

	s.server = httptest.NewServer(mux)
	t.Cleanup(s.server.Close)
	return s
}

func (s *fakeSite) session() syopub.Session {
	s.t.Helper()
	session, err := syoresty.NewSession(s.server.URL, syopub.CookieConfig{Ses: "ses", Userl: "userl"})
	require.NoError(s.t, err)
	return session
}

func (s *fakeSite) bookPublisher(cfg syopub.Config) *publish.BookPublisher {
	return publish.NewBookPublisher(s.session(), goquery.NewScraper(), cfg)
}

func (s *fakeSite) createBook(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	title := r.PostForm.Get("title")

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rejectTitles[title] || r.PostForm.Get("mode1") != "保存する" {
		_, _ = w.Write([]byte(`<html><body><p class="error">入力内容に誤りがあります</p></body></html>`))
		return
	}
	s.nextBook++
	s.books = append(s.books, title)
	http.Redirect(w, r, fmt.Sprintf("/usernovelmanage/top/ncode/%d/", s.nextBook), http.StatusFound)
}

func (s *fakeSite) managePage(confirm string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><body>
<form id="usernovelmanageForm" action="/draftnovelmanage/%s/ncode/%s/" method="post"></form>
</body></html>`, confirm, r.PathValue("id"))
	}
}

func (s *fakeSite) manageSubmit(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		s.mu.Lock()
		s.forms[kind+"/"+r.PathValue("id")] = r.PostForm
		s.mu.Unlock()
		http.Redirect(w, r, fmt.Sprintf("/usernovelmanage/top/ncode/%s/", r.PathValue("id")), http.StatusFound)
	}
}

func (s *fakeSite) draftPage(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.nextToken++
	token := fmt.Sprintf("token-%d", s.nextToken)
	s.tokens[token] = false
	s.mu.Unlock()

	fmt.Fprintf(w, `<html><body>
<form id="episodeForm" action="/draftepisode/add/ncode/%s/" method="post">
<input type="hidden" name="csrf_onetimepass" value="%s">
</form>
</body></html>`, r.PathValue("id"), token)
}

func (s *fakeSite) addDraft(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()

	s.mu.Lock()
	defer s.mu.Unlock()

	token := r.PostForm.Get("csrf_onetimepass")
	used, issued := s.tokens[token]
	if !issued || used {
		_, _ = w.Write([]byte(`<html><body><p class="error">不正なアクセスです</p></body></html>`))
		return
	}
	s.tokens[token] = true

	s.nextDraft++
	draftID := fmt.Sprint(s.nextDraft)
	s.drafts = append(s.drafts, draftSubmission{
		BookID:   r.PathValue("id"),
		DraftID:  draftID,
		Subtitle: r.PostForm.Get("subtitle"),
		Content:  r.PostForm.Get("novel"),
	})
	http.Redirect(w, r, "/draftepisode/view/draftepisodeid/"+draftID+"/", http.StatusFound)
}

func (s *fakeSite) confirm(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.confirms = append(s.confirms, r.URL.Query())
	s.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *fakeSite) commit(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	s.mu.Lock()
	s.commits = append(s.commits, r.PostForm.Get("draftepisodeid"))
	s.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *fakeSite) snapshotDrafts() []draftSubmission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]draftSubmission(nil), s.drafts...)
}

func (s *fakeSite) snapshotCommits() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commits...)
}

func (s *fakeSite) form(key string) url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.forms[key]
}

func (s *fakeSite) snapshotConfirms() []url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]url.Values(nil), s.confirms...)
}
