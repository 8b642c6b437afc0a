package syopub

import (
	"errors"
	"fmt"
	"time"
)

// ChapterState is a step of the chapter publishing state machine.
type ChapterState int

// Chapter states in the order they are reached.
// A chapter ends either Skipped (too short to publish) or Published.
const (
	ChapterStart ChapterState = iota
	ChapterDraftAdded
	ChapterSkipped
	ChapterPublished
)

func (s ChapterState) String() string {
	switch s {
	case ChapterStart:
		return "start"
	case ChapterDraftAdded:
		return "draft_added"
	case ChapterSkipped:
		return "skipped"
	case ChapterPublished:
		return "published"
	}
	return fmt.Sprintf("ChapterState(%d)", int(s))
}

// ParseChapterState is the inverse of ChapterState.String.
func ParseChapterState(s string) (ChapterState, error) {
	for st := ChapterStart; st <= ChapterPublished; st++ {
		if st.String() == s {
			return st, nil
		}
	}
	return ChapterStart, Errorf(EINVALID, "unknown chapter state %q", s)
}

// BookState is a step of the book publishing state machine.
type BookState int

// Book states in the order they are reached. There is no branching back.
const (
	BookStart BookState = iota
	BookCreated
	BookConfigured
	BookDescribed
	BookDone
)

func (s BookState) String() string {
	switch s {
	case BookStart:
		return "start"
	case BookCreated:
		return "created"
	case BookConfigured:
		return "configured"
	case BookDescribed:
		return "described"
	case BookDone:
		return "done"
	}
	return fmt.Sprintf("BookState(%d)", int(s))
}

// ParseBookState is the inverse of BookState.String.
func ParseBookState(s string) (BookState, error) {
	for st := BookStart; st <= BookDone; st++ {
		if st.String() == s {
			return st, nil
		}
	}
	return BookStart, Errorf(EINVALID, "unknown book state %q", s)
}

// ChapterResult records how far one chapter got.
type ChapterResult struct {
	Source      string       `json:"source"`
	Index       int          `json:"index"`
	Title       string       `json:"title"`
	Chars       int          `json:"chars"`
	ContentHash string       `json:"contentHash"`
	DraftID     string       `json:"draftId"`
	State       ChapterState `json:"state"`
	Err         error        `json:"-"`
}

// BookResult records how far one book got. Err is nil when State is BookDone.
type BookResult struct {
	Dir      string           `json:"dir"`
	Title    string           `json:"title"`
	BookID   string           `json:"bookId"`
	State    BookState        `json:"state"`
	Chapters []*ChapterResult `json:"chapters"`
	Err      error            `json:"-"`
}

// Published returns the number of chapters that reached ChapterPublished.
func (r *BookResult) Published() int {
	var n int
	for _, c := range r.Chapters {
		if c.State == ChapterPublished {
			n++
		}
	}
	return n
}

// Report aggregates the outcome of one publication run.
type Report struct {
	RunID      string        `json:"runId"`
	Root       string        `json:"root"`
	StartedAt  time.Time     `json:"startedAt"`
	FinishedAt time.Time     `json:"finishedAt"`
	Books      []*BookResult `json:"books"`
}

// Failed returns the number of books that did not complete.
func (r *Report) Failed() int {
	var n int
	for _, b := range r.Books {
		if b.Err != nil {
			n++
		}
	}
	return n
}

// Succeeded returns the number of books that completed.
func (r *Report) Succeeded() int {
	return len(r.Books) - r.Failed()
}

// Err joins the errors of every failed book, or returns nil.
func (r *Report) Err() error {
	var errs []error
	for _, b := range r.Books {
		if b.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", b.Dir, b.Err))
		}
	}
	return errors.Join(errs...)
}
