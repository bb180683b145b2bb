package review

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/homematch/internal/model"
	"github.com/sells-group/homematch/internal/store"
)

type fakeStore struct {
	run     *model.Run
	results map[string]*model.RankedResult

	approvals       []string
	rejected        []string
	completedStages []model.Stage
	stage           model.Stage
}

func newFakeStore() *fakeStore {
	now := time.Now().UTC()
	return &fakeStore{
		run: &model.Run{
			ID:                 "run-1",
			CurrentStage:       model.StageReview,
			Status:             model.RunStatusCompleted,
			RankingCompletedAt: &now,
		},
		results: map[string]*model.RankedResult{
			"r-1": {ID: "r-1", RunID: "run-1", RankPosition: 1},
			"r-2": {ID: "r-2", RunID: "run-1", RankPosition: 2},
		},
	}
}

func (f *fakeStore) GetRun(_ context.Context, runID string) (*model.Run, error) {
	if f.run == nil || f.run.ID != runID {
		return nil, store.ErrNotFound
	}
	return f.run, nil
}

func (f *fakeStore) ListRankedResults(_ context.Context, _ string) ([]model.RankedResult, error) {
	out := make([]model.RankedResult, 0, len(f.results))
	for _, r := range f.results {
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeStore) GetRankedResult(_ context.Context, runID, resultID string) (*model.RankedResult, error) {
	r, ok := f.results[resultID]
	if !ok || r.RunID != runID {
		return nil, store.ErrNotFound
	}
	return r, nil
}

func (f *fakeStore) SetApprovals(_ context.Context, _ string, approvedIDs []string) error {
	for _, id := range approvedIDs {
		if _, ok := f.results[id]; !ok {
			return store.ErrNotFound
		}
	}
	f.approvals = approvedIDs
	return nil
}

func (f *fakeStore) RejectResult(_ context.Context, runID, resultID string) error {
	r, ok := f.results[resultID]
	if !ok || r.RunID != runID {
		return store.ErrNotFound
	}
	rejected := false
	r.Approved = &rejected
	f.rejected = append(f.rejected, resultID)
	return nil
}

func (f *fakeStore) CompleteStage(_ context.Context, _ string, stage model.Stage) error {
	f.completedStages = append(f.completedStages, stage)
	return nil
}

func (f *fakeStore) SetRunStage(_ context.Context, _ string, stage model.Stage) error {
	f.stage = stage
	return nil
}

func TestPendingUnknownRun(t *testing.T) {
	svc := NewService(newFakeStore())
	_, err := svc.Pending(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPendingListsResults(t *testing.T) {
	svc := NewService(newFakeStore())
	results, err := svc.Pending(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestApproveAdvancesToSend(t *testing.T) {
	st := newFakeStore()
	svc := NewService(st)

	results, err := svc.Approve(context.Background(), "run-1", []string{"r-1"})
	require.NoError(t, err)

	assert.Len(t, results, 2)
	assert.Equal(t, []string{"r-1"}, st.approvals)
	assert.Equal(t, []model.Stage{model.StageReview}, st.completedStages)
	assert.Equal(t, model.StageSend, st.stage)
}

func TestApproveRequiresSelection(t *testing.T) {
	svc := NewService(newFakeStore())
	_, err := svc.Approve(context.Background(), "run-1", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no results selected")
}

func TestApproveRequiresRankingDone(t *testing.T) {
	st := newFakeStore()
	st.run.RankingCompletedAt = nil
	svc := NewService(st)

	_, err := svc.Approve(context.Background(), "run-1", []string{"r-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not finished ranking")
}

func TestApproveUnknownResult(t *testing.T) {
	st := newFakeStore()
	svc := NewService(st)

	_, err := svc.Approve(context.Background(), "run-1", []string{"r-404"})
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Empty(t, st.completedStages)
}

func TestRejectSingleResult(t *testing.T) {
	st := newFakeStore()
	svc := NewService(st)

	result, err := svc.Reject(context.Background(), "run-1", "r-2")
	require.NoError(t, err)

	require.NotNil(t, result.Approved)
	assert.False(t, *result.Approved)
	assert.Equal(t, []string{"r-2"}, st.rejected)
	assert.Nil(t, st.results["r-1"].Approved)
}
