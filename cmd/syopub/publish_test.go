package main_test

import (
	"bytes"
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fwojciec/syopub"
	main "github.com/fwojciec/syopub/cmd/syopub"
	"github.com/fwojciec/syopub/fs"
	"github.com/fwojciec/syopub/publish"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type publisherFunc func(ctx context.Context, book *syopub.Book, progress publish.ProgressFunc) (*syopub.BookResult, error)

func (f publisherFunc) Publish(ctx context.Context, book *syopub.Book, progress publish.ProgressFunc) (*syopub.BookResult, error) {
	return f(ctx, book, progress)
}

// recordingPublisher assigns sequential book ids and records titles.
type recordingPublisher struct {
	mu     sync.Mutex
	titles []string
	fail   map[string]bool
}

func (p *recordingPublisher) Publish(_ context.Context, book *syopub.Book, _ publish.ProgressFunc) (*syopub.BookResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.titles = append(p.titles, book.Title)
	if p.fail[book.Title] {
		err := syopub.Errorf(syopub.ESTATUS, "POST /usernovel/add/: expected redirect, got status 200")
		return &syopub.BookResult{Title: book.Title, State: syopub.BookStart, Err: err}, err
	}
	result := &syopub.BookResult{Title: book.Title, BookID: "100", State: syopub.BookDone}
	for _, ch := range book.Chapters {
		state := syopub.ChapterSkipped
		if ch.Publishable() {
			state = syopub.ChapterPublished
		}
		result.Chapters = append(result.Chapters, &syopub.ChapterResult{Source: ch.Source, DraftID: "1", State: state})
	}
	return result, nil
}

func publishDeps(t *testing.T, publisher publish.Publisher) (*main.Dependencies, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	deps := newDeps(t, stdout, stderr)
	deps.Now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
	deps.Orchestrator = &publish.Orchestrator{Source: deps.Source, Publisher: publisher}
	return deps, stdout, stderr
}

func TestPublishCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("publishes every book and writes receipts", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		a := writeBook(t, root, "a", "Alpha", 201, 50)
		b := writeBook(t, root, "b", "Beta", 10)
		publisher := &recordingPublisher{}
		deps, stdout, _ := publishDeps(t, publisher)

		err := (&main.PublishCmd{Root: root}).Run(deps)

		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"Alpha", "Beta"}, publisher.titles)
		output := stdout.String()
		assert.Contains(t, output, "Publishing 2 books")
		assert.Contains(t, output, "1/2 chapters published")
		assert.Contains(t, output, "2 ok, 0 failed")

		for _, dir := range []string{a, b} {
			r, err := fs.ReadReceipt(dir)
			require.NoError(t, err)
			assert.Equal(t, "100", r.BookID)
		}
	})

	t.Run("returns error when a book fails but publishes the rest", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		writeBook(t, root, "a", "Alpha", 10)
		bad := writeBook(t, root, "b", "Beta", 10)
		publisher := &recordingPublisher{fail: map[string]bool{"Beta": true}}
		deps, stdout, stderr := publishDeps(t, publisher)

		err := (&main.PublishCmd{Root: root}).Run(deps)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "1 of 2 books failed")
		assert.Contains(t, err.Error(), bad+": POST /usernovel/add/: expected redirect")
		assert.Equal(t, syopub.ESTATUS, syopub.ErrorCode(err))
		assert.Len(t, publisher.titles, 2)
		assert.Contains(t, stderr.String(), "expected redirect")
		assert.Contains(t, stdout.String(), "1 ok, 1 failed")

		_, err = fs.ReadReceipt(bad)
		assert.Equal(t, syopub.ENOTFOUND, syopub.ErrorCode(err))
	})

	t.Run("publishes a single book", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		writeBook(t, root, "a", "Alpha", 10)
		b := writeBook(t, root, "b", "Beta", 10)
		publisher := &recordingPublisher{}
		deps, _, _ := publishDeps(t, publisher)

		err := (&main.PublishCmd{Book: b}).Run(deps)

		require.NoError(t, err)
		assert.Equal(t, []string{"Beta"}, publisher.titles)
	})

	t.Run("skips books with receipts when asked", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		a := writeBook(t, root, "a", "Alpha", 10)
		writeBook(t, root, "b", "Beta", 10)
		require.NoError(t, fs.WriteReceipt(a, &fs.Receipt{BookID: "7"}))
		publisher := &recordingPublisher{}
		deps, stdout, _ := publishDeps(t, publisher)

		err := (&main.PublishCmd{Root: root, SkipPublished: true}).Run(deps)

		require.NoError(t, err)
		assert.Equal(t, []string{"Beta"}, publisher.titles)
		assert.Contains(t, stdout.String(), "skip "+a+": already published as 7")
	})

	t.Run("fails when the data directory is missing", func(t *testing.T) {
		t.Parallel()

		deps, _, stderr := publishDeps(t, &recordingPublisher{})

		err := (&main.PublishCmd{Root: filepath.Join(t.TempDir(), "missing")}).Run(deps)

		assert.Equal(t, syopub.ESTORAGE, syopub.ErrorCode(err))
		assert.Contains(t, stderr.String(), "does not exist")
	})

	t.Run("reports chapter progress", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		writeBook(t, root, "a", "Alpha", 300)
		publisher := publisherFunc(func(_ context.Context, book *syopub.Book, progress publish.ProgressFunc) (*syopub.BookResult, error) {
			ch := &syopub.ChapterResult{Source: "chapter_1.txt", Title: "第1話", State: syopub.ChapterPublished}
			progress(publish.ProgressEvent{Type: publish.ProgressChapterFinished, Dir: book.Dir, Chapter: ch})
			return &syopub.BookResult{Title: book.Title, BookID: "5", State: syopub.BookDone, Chapters: []*syopub.ChapterResult{ch}}, nil
		})
		deps, stdout, _ := publishDeps(t, publisher)

		err := (&main.PublishCmd{Root: root}).Run(deps)

		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "published chapter_1.txt 第1話")
	})
}
