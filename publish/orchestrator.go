package publish

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fwojciec/syopub"
	"golang.org/x/sync/errgroup"
)

// ProgressType indicates the type of progress event.
type ProgressType int

const (
	ProgressBookStarted ProgressType = iota
	ProgressChapterFinished
	ProgressBookFinished
	ProgressLedgerFailed
)

// ProgressEvent reports progress during a publication run.
type ProgressEvent struct {
	Type    ProgressType
	Dir     string
	Title   string
	Chapter *syopub.ChapterResult
	Book    *syopub.BookResult
	Error   error
}

// ProgressFunc is a callback for reporting publication progress.
type ProgressFunc func(event ProgressEvent)

// Publisher publishes a single loaded book.
type Publisher interface {
	Publish(ctx context.Context, book *syopub.Book, progress ProgressFunc) (*syopub.BookResult, error)
}

var _ Publisher = (*BookPublisher)(nil)

// Orchestrator publishes every book under a root directory. Each book runs
// in its own goroutine and all share one session. A failing book never
// stops the others: every book runs to completion and gets a result.
type Orchestrator struct {
	Source    syopub.BookSource
	Publisher Publisher

	// Runs, when set, records the run and every book result.
	Runs syopub.RunService

	// Concurrency limits how many books are in flight. Zero or less means
	// one goroutine per book with no limit.
	Concurrency int
}

// Run discovers the book directories under root and publishes them all.
// An error is returned only when discovery fails; per-book failures are
// reported in the Report.
func (o *Orchestrator) Run(ctx context.Context, root string, progress ProgressFunc) (*syopub.Report, error) {
	dirs, err := o.Source.Discover(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("discover books: %w", err)
	}
	return o.RunDirs(ctx, root, dirs, progress), nil
}

// RunDirs publishes the given book directories. Results are returned in the
// order of dirs regardless of completion order.
func (o *Orchestrator) RunDirs(ctx context.Context, root string, dirs []string, progress ProgressFunc) *syopub.Report {
	var mu sync.Mutex
	notify := func(event ProgressEvent) {
		if progress == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		progress(event)
	}

	report := &syopub.Report{
		Root:      root,
		StartedAt: time.Now().UTC(),
		Books:     make([]*syopub.BookResult, len(dirs)),
	}

	runs := o.Runs
	if runs != nil {
		run := &syopub.Run{Root: root}
		if err := runs.CreateRun(ctx, run); err != nil {
			notify(ProgressEvent{Type: ProgressLedgerFailed, Error: err})
			runs = nil
		} else {
			report.RunID = run.ID
		}
	}

	g := new(errgroup.Group)
	if o.Concurrency > 0 {
		g.SetLimit(o.Concurrency)
	}
	for i, dir := range dirs {
		g.Go(func() error {
			result := o.publishBook(ctx, dir, notify)
			report.Books[i] = result

			if runs != nil {
				if err := runs.RecordBook(ctx, report.RunID, result); err != nil {
					notify(ProgressEvent{Type: ProgressLedgerFailed, Dir: dir, Error: err})
				}
			}
			notify(ProgressEvent{
				Type:  ProgressBookFinished,
				Dir:   dir,
				Title: result.Title,
				Book:  result,
				Error: result.Err,
			})
			return nil
		})
	}
	_ = g.Wait()

	report.FinishedAt = time.Now().UTC()
	if runs != nil {
		if err := runs.FinishRun(ctx, report.RunID); err != nil {
			notify(ProgressEvent{Type: ProgressLedgerFailed, Error: err})
		}
	}
	return report
}

// publishBook loads and publishes one book. Storage failures become the
// book's result.
func (o *Orchestrator) publishBook(ctx context.Context, dir string, notify ProgressFunc) *syopub.BookResult {
	notify(ProgressEvent{Type: ProgressBookStarted, Dir: dir})

	book, err := o.Source.Load(ctx, dir)
	if err != nil {
		return &syopub.BookResult{
			Dir:   dir,
			State: syopub.BookStart,
			Err:   fmt.Errorf("load: %w", err),
		}
	}

	result, err := o.Publisher.Publish(ctx, book, notify)
	if result == nil {
		result = &syopub.BookResult{Title: book.Title, Err: err}
	}
	result.Dir = dir
	return result
}
