package slog_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/fwojciec/syopub"
	"github.com/fwojciec/syopub/mock"
	syoslog "github.com/fwojciec/syopub/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingBookSource(t *testing.T) {
	t.Parallel()

	t.Run("logs discovery count", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.BookSource{
			DiscoverFn: func(ctx context.Context, root string) ([]string, error) {
				return []string{"a", "b"}, nil
			},
		}

		dirs, err := syoslog.NewLoggingBookSource(inner, newLogger(&buf)).Discover(context.Background(), "books")

		require.NoError(t, err)
		assert.Len(t, dirs, 2)
		assert.Contains(t, buf.String(), "book discovery")
		assert.Contains(t, buf.String(), "root=books")
		assert.Contains(t, buf.String(), "count=2")
	})

	t.Run("logs loaded book", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.BookSource{
			LoadFn: func(ctx context.Context, dir string) (*syopub.Book, error) {
				return &syopub.Book{Title: "Book", Chapters: make([]*syopub.Chapter, 3)}, nil
			},
		}

		_, err := syoslog.NewLoggingBookSource(inner, newLogger(&buf)).Load(context.Background(), "books/a")

		require.NoError(t, err)
		assert.Contains(t, buf.String(), "dir=books/a")
		assert.Contains(t, buf.String(), "title=Book")
		assert.Contains(t, buf.String(), "chapters=3")
	})

	t.Run("logs load error", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.BookSource{
			LoadFn: func(ctx context.Context, dir string) (*syopub.Book, error) {
				return nil, syopub.Errorf(syopub.ESTORAGE, "no metadata file in %s", dir)
			},
		}

		_, err := syoslog.NewLoggingBookSource(inner, newLogger(&buf)).Load(context.Background(), "books/a")

		require.Error(t, err)
		assert.Contains(t, buf.String(), "no metadata file in books/a")
	})
}

func TestLoggingRunService(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	inner := &mock.RunService{
		CreateRunFn: func(ctx context.Context, run *syopub.Run) error {
			run.ID = "run-1"
			return nil
		},
		RecordBookFn: func(ctx context.Context, runID string, result *syopub.BookResult) error { return nil },
	}

	runs := syoslog.NewLoggingRunService(inner, newLogger(&buf))
	run := &syopub.Run{Root: "books"}
	require.NoError(t, runs.CreateRun(context.Background(), run))
	require.NoError(t, runs.RecordBook(context.Background(), run.ID, &syopub.BookResult{Dir: "books/a", State: syopub.BookDone}))

	assert.Contains(t, buf.String(), "run=run-1")
	assert.Contains(t, buf.String(), "state=done")
}
