package syopub

import (
	"context"
	"time"
)

// Run is a ledger entry for one invocation of the publisher.
type Run struct {
	ID         string    `json:"id"`
	Root       string    `json:"root"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Books      int       `json:"books"`
	Failed     int       `json:"failed"`
}

// Validate returns an error if the run contains invalid fields.
func (r *Run) Validate() error {
	if r.Root == "" {
		return Errorf(EINVALID, "run root required")
	}
	return nil
}

// Finished reports whether the run has completed.
func (r *Run) Finished() bool {
	return !r.FinishedAt.IsZero()
}

// RunService records publication runs so past results can be inspected.
// The ledger is informational: the site itself has no idempotency, and
// re-running a book always creates a new remote book and new drafts.
type RunService interface {
	// CreateRun stores a new run and assigns its ID and StartedAt.
	CreateRun(ctx context.Context, run *Run) error

	// RecordBook stores the result of one book, including its chapters.
	// Returns ENOTFOUND if the run does not exist.
	RecordBook(ctx context.Context, runID string, result *BookResult) error

	// FinishRun marks the run as completed.
	// Returns ENOTFOUND if the run does not exist.
	FinishRun(ctx context.Context, runID string) error

	// FindRunByID retrieves a run by ID.
	// Returns ENOTFOUND if the run does not exist.
	FindRunByID(ctx context.Context, id string) (*Run, error)

	// FindRuns retrieves runs, most recent first.
	FindRuns(ctx context.Context, filter RunFilter) ([]*Run, error)

	// FindBookResults retrieves the recorded book results of a run in the
	// order they were recorded. Errors are restored as *Error values.
	FindBookResults(ctx context.Context, runID string) ([]*BookResult, error)
}

// RunFilter represents a filter for FindRuns.
type RunFilter struct {
	Root *string `json:"root"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}
