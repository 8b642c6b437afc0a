package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/fwojciec/syopub"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ syopub.RunService = (*RunService)(nil)

// RunService implements syopub.RunService using SQLite.
type RunService struct {
	db  *DB
	now func() time.Time
}

// NewRunService creates a new RunService.
func NewRunService(db *DB) *RunService {
	return &RunService{db: db, now: time.Now}
}

// CreateRun creates a new run.
func (s *RunService) CreateRun(ctx context.Context, run *syopub.Run) error {
	if err := run.Validate(); err != nil {
		return err
	}

	run.ID = uuid.New().String()
	run.StartedAt = s.now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, root, started_at)
		VALUES (?, ?, ?)
	`, run.ID, run.Root, formatTime(run.StartedAt))
	return err
}

// RecordBook stores one book result and its chapter results atomically.
func (s *RunService) RecordBook(ctx context.Context, runID string, result *syopub.BookResult) error {
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var position int
	err = tx.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM book_results WHERE run_id = runs.id)
		FROM runs
		WHERE id = ?
	`, runID).Scan(&position)
	if errors.Is(err, sql.ErrNoRows) {
		return syopub.Errorf(syopub.ENOTFOUND, "run not found")
	}
	if err != nil {
		return err
	}

	id := uuid.New().String()
	code, message := splitError(result.Err)
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO book_results (id, run_id, position, dir, title, book_id, state, error_code, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, runID, position, result.Dir, result.Title, result.BookID, result.State.String(), code, message); err != nil {
		return err
	}

	for i, c := range result.Chapters {
		code, message := splitError(c.Err)
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO chapter_results (book_result_id, position, source, chapter_index, title, chars, content_hash, draft_id, state, error_code, error_message)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, id, i, c.Source, c.Index, c.Title, c.Chars, c.ContentHash, c.DraftID, c.State.String(), code, message); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// FinishRun marks a run as completed.
func (s *RunService) FinishRun(ctx context.Context, runID string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE runs SET finished_at = ? WHERE id = ?
	`, formatTime(s.now()), runID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return syopub.Errorf(syopub.ENOTFOUND, "run not found")
	}
	return nil
}

const runColumns = `
	runs.id, runs.root, runs.started_at, runs.finished_at,
	(SELECT COUNT(*) FROM book_results b WHERE b.run_id = runs.id),
	(SELECT COUNT(*) FROM book_results b WHERE b.run_id = runs.id AND b.error_message != '')
`

// FindRunByID retrieves a run by ID.
func (s *RunService) FindRunByID(ctx context.Context, id string) (*syopub.Run, error) {
	run, err := scanRun(s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, syopub.Errorf(syopub.ENOTFOUND, "run not found")
	}
	return run, err
}

// FindRuns retrieves runs matching the filter, most recent first.
func (s *RunService) FindRuns(ctx context.Context, filter syopub.RunFilter) ([]*syopub.Run, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT " + runColumns + " FROM runs WHERE 1=1")
	if filter.Root != nil {
		query.WriteString(" AND root = ?")
		args = append(args, *filter.Root)
	}
	query.WriteString(" ORDER BY started_at DESC, rowid DESC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*syopub.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*syopub.Run, error) {
	var run syopub.Run
	var startedAt, finishedAt string
	if err := row.Scan(&run.ID, &run.Root, &startedAt, &finishedAt, &run.Books, &run.Failed); err != nil {
		return nil, err
	}

	var err error
	if run.StartedAt, err = parseTime(startedAt, "started_at"); err != nil {
		return nil, err
	}
	if run.FinishedAt, err = parseTime(finishedAt, "finished_at"); err != nil {
		return nil, err
	}
	return &run, nil
}

// FindBookResults retrieves the book results of a run in recorded order.
func (s *RunService) FindBookResults(ctx context.Context, runID string) ([]*syopub.BookResult, error) {
	if _, err := s.FindRunByID(ctx, runID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, dir, title, book_id, state, error_code, error_message
		FROM book_results
		WHERE run_id = ?
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	var results []*syopub.BookResult
	for rows.Next() {
		var id, state, code, message string
		var r syopub.BookResult
		if err := rows.Scan(&id, &r.Dir, &r.Title, &r.BookID, &state, &code, &message); err != nil {
			return nil, err
		}
		if r.State, err = syopub.ParseBookState(state); err != nil {
			return nil, err
		}
		r.Err = joinError(code, message)
		ids = append(ids, id)
		results = append(results, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for i, id := range ids {
		chapters, err := s.findChapterResults(ctx, id)
		if err != nil {
			return nil, err
		}
		results[i].Chapters = chapters
	}
	return results, nil
}

func (s *RunService) findChapterResults(ctx context.Context, bookResultID string) ([]*syopub.ChapterResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source, chapter_index, title, chars, content_hash, draft_id, state, error_code, error_message
		FROM chapter_results
		WHERE book_result_id = ?
		ORDER BY position
	`, bookResultID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chapters []*syopub.ChapterResult
	for rows.Next() {
		var c syopub.ChapterResult
		var state, code, message string
		if err := rows.Scan(&c.Source, &c.Index, &c.Title, &c.Chars, &c.ContentHash, &c.DraftID, &state, &code, &message); err != nil {
			return nil, err
		}
		if c.State, err = syopub.ParseChapterState(state); err != nil {
			return nil, err
		}
		c.Err = joinError(code, message)
		chapters = append(chapters, &c)
	}
	return chapters, rows.Err()
}
