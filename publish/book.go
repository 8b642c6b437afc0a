package publish

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"slices"

	"github.com/fwojciec/syopub"
)

// BookPublisher establishes a book on the site and publishes its chapters.
// Steps run strictly in order: CREATE, CONFIGURE_VISIBILITY, DESCRIBE,
// PUBLISH_CHAPTERS. Any failure stops the book at the state it reached.
type BookPublisher struct {
	session     syopub.Session
	scraper     syopub.Scraper
	chapters    *ChapterPublisher
	searchable  bool
	bookPattern *regexp.Regexp
}

// NewBookPublisher creates a BookPublisher. Only the Novel settings of cfg
// are used here; the session already carries the base URL and credentials.
func NewBookPublisher(session syopub.Session, scraper syopub.Scraper, cfg syopub.Config, opts ...ChapterOption) *BookPublisher {
	return &BookPublisher{
		session:     session,
		scraper:     scraper,
		chapters:    NewChapterPublisher(session, scraper, opts...),
		searchable:  cfg.Novel.IsSearchable(),
		bookPattern: regexp.MustCompile(bookIDPattern),
	}
}

// Publish runs the book state machine. Chapters are published in ascending
// index order, one at a time: the site orders episodes by submission, so
// sequential submission is what keeps them in order. The returned result
// is never nil.
func (p *BookPublisher) Publish(ctx context.Context, book *syopub.Book, progress ProgressFunc) (*syopub.BookResult, error) {
	result := &syopub.BookResult{
		Dir:   book.Dir,
		Title: book.Title,
		State: syopub.BookStart,
	}
	fail := func(step string, err error) (*syopub.BookResult, error) {
		result.Err = fmt.Errorf("%s: %w", step, err)
		return result, result.Err
	}

	if err := book.Validate(); err != nil {
		return fail("validate", err)
	}

	bookID, err := p.Create(ctx, book.Title)
	if err != nil {
		return fail("create", err)
	}
	result.BookID = bookID
	result.State = syopub.BookCreated

	if err := p.ConfigureVisibility(ctx, bookID); err != nil {
		return fail("configure visibility", err)
	}
	result.State = syopub.BookConfigured

	if err := p.Describe(ctx, bookID, book); err != nil {
		return fail("describe", err)
	}
	result.State = syopub.BookDescribed

	chapters := slices.Clone(book.Chapters)
	syopub.SortChapters(chapters)
	for _, ch := range chapters {
		if err := ctx.Err(); err != nil {
			return fail("publish chapters", err)
		}

		cr, err := p.chapters.Publish(ctx, bookID, ch)
		result.Chapters = append(result.Chapters, cr)
		if progress != nil {
			progress(ProgressEvent{
				Type:    ProgressChapterFinished,
				Dir:     book.Dir,
				Title:   book.Title,
				Chapter: cr,
				Error:   err,
			})
		}
		if err != nil {
			return fail("publish chapters", err)
		}
	}

	result.State = syopub.BookDone
	return result, nil
}

// Create submits the book title and returns the id the site assigned.
func (p *BookPublisher) Create(ctx context.Context, title string) (string, error) {
	form := url.Values{
		"title": {title},
		"mode1": {saveMode},
	}
	res, err := p.session.PostForm(ctx, createBookPath, form)
	if err != nil {
		return "", err
	}
	if !res.IsRedirect() {
		return "", statusError(res, "redirect")
	}
	if res.Location == "" {
		return "", syopub.Errorf(syopub.ECONTRACT, "%s %s: redirect without Location", res.Method, res.URL)
	}
	return p.scraper.Capture(res.Location, p.bookPattern)
}

// ConfigureVisibility turns every reader interaction on and applies the
// searchable preference.
func (p *BookPublisher) ConfigureVisibility(ctx context.Context, bookID string) error {
	action, err := p.formAction(ctx, bookPath(receptionsPath, bookID))
	if err != nil {
		return err
	}

	form := url.Values{
		"notkansou":    {"0"},
		"notreview":    {"0"},
		"notpoint":     {"0"},
		"notpointview": {"0"},
		"notreport":    {"0"},
		"notsearch":    {flag(!p.searchable)},
		tokenField:     {""},
	}
	return p.submit(ctx, action, form)
}

// Describe submits the book's metadata.
func (p *BookPublisher) Describe(ctx context.Context, bookID string, book *syopub.Book) error {
	action, err := p.formAction(ctx, bookPath(updateInputPath, bookID))
	if err != nil {
		return err
	}
	return p.submit(ctx, action, describeForm(book))
}

func describeForm(book *syopub.Book) url.Values {
	form := url.Values{
		"title":                  {book.Title},
		"writer_radio":           {"0"},
		"writer":                 {""},
		"noveltype":              {"1"},
		"age_limit":              {"1"},
		"nocgenre":               {"1"},
		"classification":         {"1"},
		"ff_type":                {"1"},
		"ff_keyword":             {""},
		"ff_ncode":               {""},
		"trpg_replay_type":       {"1"},
		"trpg_replay_keyword_id": {""},
		"scenario_author":        {""},
		"scenario_name":          {""},
		"biggenre":               {"1"},
		"genre":                  {"101"},
		"ex":                     {DefaultDescription},
		"auto_keyword_array":     {""},
		"unique_keyword_array":   {syopub.KeywordArray(book.Subjects)},
		"is_monetized":           {"0"},
	}
	if book.Author != "" {
		form.Set("writer_radio", "1")
		form.Set("writer", book.Author)
	}
	if book.Description != "" {
		form.Set("ex", book.Description)
	}
	return form
}

// formAction fetches a management page and scrapes its form action.
func (p *BookPublisher) formAction(ctx context.Context, path string) (string, error) {
	page, err := p.session.Get(ctx, path, nil)
	if err != nil {
		return "", err
	}
	if !page.IsSuccess() {
		return "", statusError(page, "success")
	}
	action, err := p.scraper.FormAction(page.Body, manageFormID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return action, nil
}

// submit posts a management form. The site answers with a page or a
// redirect; only error statuses are treated as failure.
func (p *BookPublisher) submit(ctx context.Context, action string, form url.Values) error {
	res, err := p.session.PostForm(ctx, action, form)
	if err != nil {
		return err
	}
	if res.StatusCode >= 400 {
		return statusError(res, "non-error status")
	}
	return nil
}
