package publish

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/syopub"
)

// ChapterPublisher publishes one chapter in two phases. ADD_DRAFT always
// runs and creates exactly one draft; PUBLISH runs only for chapters long
// enough to publish and is attempted at most once.
type ChapterPublisher struct {
	session      syopub.Session
	scraper      syopub.Scraper
	now          func() time.Time
	draftPattern *regexp.Regexp
}

// ChapterOption configures a ChapterPublisher.
type ChapterOption func(*ChapterPublisher)

// WithClock sets the clock used for the publish confirmation timestamp.
func WithClock(now func() time.Time) ChapterOption {
	return func(p *ChapterPublisher) {
		p.now = now
	}
}

// NewChapterPublisher creates a ChapterPublisher using session for requests
// and scraper to recover tokens and ids.
func NewChapterPublisher(session syopub.Session, scraper syopub.Scraper, opts ...ChapterOption) *ChapterPublisher {
	p := &ChapterPublisher{
		session:      session,
		scraper:      scraper,
		now:          time.Now,
		draftPattern: regexp.MustCompile(draftIDPattern),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish drives ch through Start → DraftAdded → (Skipped | Published) for
// the remote book bookID. The returned result is never nil and holds the
// last state reached; on failure the same error is also stored in it.
func (p *ChapterPublisher) Publish(ctx context.Context, bookID string, ch *syopub.Chapter) (*syopub.ChapterResult, error) {
	result := &syopub.ChapterResult{
		Source:      ch.Source,
		Index:       ch.Index,
		Title:       ch.Title,
		Chars:       ch.Chars(),
		ContentHash: fmt.Sprintf("%016x", xxhash.Sum64String(ch.Content)),
		State:       syopub.ChapterStart,
	}
	fail := func(err error) (*syopub.ChapterResult, error) {
		result.Err = fmt.Errorf("chapter %s: %w", ch.Source, err)
		return result, result.Err
	}

	draftID, err := p.AddDraft(ctx, bookID, ch)
	if err != nil {
		return fail(err)
	}
	result.DraftID = draftID
	result.State = syopub.ChapterDraftAdded

	if !ch.Publishable() {
		result.State = syopub.ChapterSkipped
		return result, nil
	}

	if err := p.PublishDraft(ctx, draftID); err != nil {
		return fail(err)
	}
	result.State = syopub.ChapterPublished
	return result, nil
}

// AddDraft saves ch as a new draft of bookID and returns the draft id.
// The one-time token is fetched fresh for every call.
func (p *ChapterPublisher) AddDraft(ctx context.Context, bookID string, ch *syopub.Chapter) (string, error) {
	page, err := p.session.Get(ctx, bookPath(draftInputPath, bookID), nil)
	if err != nil {
		return "", err
	}
	if !page.IsSuccess() {
		return "", statusError(page, "success")
	}

	token, err := p.scraper.InputValue(page.Body, tokenField)
	if err != nil {
		return "", fmt.Errorf("draft page for book %s: %w", bookID, err)
	}

	form := url.Values{
		"subtitle":      {ch.Title},
		"novel":         {ch.Content},
		"preface":       {""},
		"postscript":    {""},
		"MAX_FILE_SIZE": {maxFileSize},
		"novel-file":    {""},
		"freememo":      {""},
		tokenField:      {token},
	}
	res, err := p.session.PostForm(ctx, bookPath(draftAddPath, bookID), form)
	if err != nil {
		return "", err
	}
	if !res.IsRedirect() {
		return "", statusError(res, "redirect")
	}
	if res.Location == "" {
		return "", syopub.Errorf(syopub.ECONTRACT, "%s %s: redirect without Location", res.Method, res.URL)
	}

	return p.scraper.Capture(res.Location, p.draftPattern)
}

// PublishDraft confirms and commits draftID. The confirmation must succeed;
// the commit is accepted unless it fails outright.
func (p *ChapterPublisher) PublishDraft(ctx context.Context, draftID string) error {
	query := url.Values{
		"draftepisodeid": {draftID},
		"reserve":        {"off"},
		"end":            {"1"},
		"_":              {strconv.FormatInt(p.now().UnixMilli(), 10)},
	}
	res, err := p.session.Get(ctx, postConfirmPath, query)
	if err != nil {
		return err
	}
	if !res.IsSuccess() {
		return statusError(res, "success")
	}

	res, err = p.session.PostForm(ctx, postAPIPath, url.Values{"draftepisodeid": {draftID}})
	if err != nil {
		return err
	}
	if res.StatusCode >= 400 {
		return statusError(res, "non-error status")
	}
	return nil
}
