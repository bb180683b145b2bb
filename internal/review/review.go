// Package review implements the human gate between ranking and sending.
// Nothing reaches a client until an agent has approved it here.
package review

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/homematch/internal/model"
)

// Store is the persistence surface review needs.
type Store interface {
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRankedResults(ctx context.Context, runID string) ([]model.RankedResult, error)
	GetRankedResult(ctx context.Context, runID, resultID string) (*model.RankedResult, error)
	SetApprovals(ctx context.Context, runID string, approvedIDs []string) error
	RejectResult(ctx context.Context, runID, resultID string) error
	CompleteStage(ctx context.Context, runID string, stage model.Stage) error
	SetRunStage(ctx context.Context, runID string, stage model.Stage) error
}

// Service exposes the review operations.
type Service struct {
	store Store
}

// NewService builds a review Service.
func NewService(st Store) *Service {
	return &Service{store: st}
}

// Pending returns every ranked result of the run in rank order, including
// already-reviewed ones so the reviewer sees the full picture.
func (s *Service) Pending(ctx context.Context, runID string) ([]model.RankedResult, error) {
	if _, err := s.store.GetRun(ctx, runID); err != nil {
		return nil, err
	}
	return s.store.ListRankedResults(ctx, runID)
}

// Approve marks exactly the given results approved and everything else in the
// run rejected, then stamps the review stage. Approval is exclusive: a repeat
// call with a different set replaces the previous decision.
func (s *Service) Approve(ctx context.Context, runID string, resultIDs []string) ([]model.RankedResult, error) {
	if len(resultIDs) == 0 {
		return nil, eris.New("review: no results selected")
	}

	run, err := s.store.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run.CompletedAt(model.StageRanking) == nil {
		return nil, eris.Errorf("review: run %s has not finished ranking", runID)
	}

	if err := s.store.SetApprovals(ctx, runID, resultIDs); err != nil {
		return nil, err
	}
	if err := s.store.CompleteStage(ctx, runID, model.StageReview); err != nil {
		return nil, err
	}
	if err := s.store.SetRunStage(ctx, runID, model.StageSend); err != nil {
		return nil, err
	}

	zap.L().Info("results approved",
		zap.String("run_id", runID),
		zap.Int("approved", len(resultIDs)))
	return s.store.ListRankedResults(ctx, runID)
}

// Reject marks a single result rejected without touching the others.
func (s *Service) Reject(ctx context.Context, runID, resultID string) (*model.RankedResult, error) {
	if err := s.store.RejectResult(ctx, runID, resultID); err != nil {
		return nil, err
	}
	zap.L().Info("result rejected",
		zap.String("run_id", runID),
		zap.String("result_id", resultID))
	return s.store.GetRankedResult(ctx, runID, resultID)
}
