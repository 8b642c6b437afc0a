package mock

import (
	"context"

	"github.com/fwojciec/syopub"
)

var _ syopub.RunService = (*RunService)(nil)

// RunService is a mock implementation of syopub.RunService.
type RunService struct {
	CreateRunFn       func(ctx context.Context, run *syopub.Run) error
	RecordBookFn      func(ctx context.Context, runID string, result *syopub.BookResult) error
	FinishRunFn       func(ctx context.Context, runID string) error
	FindRunByIDFn     func(ctx context.Context, id string) (*syopub.Run, error)
	FindRunsFn        func(ctx context.Context, filter syopub.RunFilter) ([]*syopub.Run, error)
	FindBookResultsFn func(ctx context.Context, runID string) ([]*syopub.BookResult, error)
}

func (s *RunService) CreateRun(ctx context.Context, run *syopub.Run) error {
	return s.CreateRunFn(ctx, run)
}

func (s *RunService) RecordBook(ctx context.Context, runID string, result *syopub.BookResult) error {
	return s.RecordBookFn(ctx, runID, result)
}

func (s *RunService) FinishRun(ctx context.Context, runID string) error {
	return s.FinishRunFn(ctx, runID)
}

func (s *RunService) FindRunByID(ctx context.Context, id string) (*syopub.Run, error) {
	return s.FindRunByIDFn(ctx, id)
}

func (s *RunService) FindRuns(ctx context.Context, filter syopub.RunFilter) ([]*syopub.Run, error) {
	return s.FindRunsFn(ctx, filter)
}

func (s *RunService) FindBookResults(ctx context.Context, runID string) ([]*syopub.BookResult, error) {
	return s.FindBookResultsFn(ctx, runID)
}
