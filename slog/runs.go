package slog

import (
	"context"
	"log/slog"

	"github.com/fwojciec/syopub"
)

// Ensure LoggingRunService implements syopub.RunService.
var _ syopub.RunService = (*LoggingRunService)(nil)

// LoggingRunService wraps a RunService and logs ledger writes.
type LoggingRunService struct {
	syopub.RunService
	logger *slog.Logger
}

// NewLoggingRunService creates a new LoggingRunService. Reads are passed
// through unlogged.
func NewLoggingRunService(next syopub.RunService, logger *slog.Logger) *LoggingRunService {
	return &LoggingRunService{RunService: next, logger: logger}
}

// CreateRun delegates to the wrapped service and logs the new run id.
func (s *LoggingRunService) CreateRun(ctx context.Context, run *syopub.Run) error {
	err := s.RunService.CreateRun(ctx, run)
	s.logger.DebugContext(ctx, "ledger create run", "run", run.ID, "root", run.Root, "err", err)
	return err
}

// RecordBook delegates to the wrapped service and logs the recorded book.
func (s *LoggingRunService) RecordBook(ctx context.Context, runID string, result *syopub.BookResult) error {
	err := s.RunService.RecordBook(ctx, runID, result)
	s.logger.DebugContext(ctx, "ledger record book",
		"run", runID,
		"dir", result.Dir,
		"state", result.State.String(),
		"err", err,
	)
	return err
}

// FinishRun delegates to the wrapped service.
func (s *LoggingRunService) FinishRun(ctx context.Context, runID string) error {
	err := s.RunService.FinishRun(ctx, runID)
	s.logger.DebugContext(ctx, "ledger finish run", "run", runID, "err", err)
	return err
}
