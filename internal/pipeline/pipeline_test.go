package pipeline

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/homematch/internal/model"
	"github.com/sells-group/homematch/internal/store"
)

type fakeStore struct {
	run         *model.Run
	requirement *model.Requirement
	listings    []model.Listing

	completedStages []model.Stage
	failedWith      string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		requirement: &model.Requirement{ID: "req-1", TranscriptID: "tr-1"},
		listings:    []model.Listing{{ID: "l-1", Address: "123 Oak Street"}},
	}
}

func (f *fakeStore) CreateTranscript(_ context.Context, rawText, uploadMethod string) (*model.Transcript, error) {
	return &model.Transcript{ID: "tr-1", RawText: rawText, UploadMethod: uploadMethod}, nil
}

func (f *fakeStore) GetRequirementByTranscript(_ context.Context, _ string) (*model.Requirement, error) {
	return f.requirement, nil
}

func (f *fakeStore) ListListingsByRun(_ context.Context, _ string) ([]model.Listing, error) {
	return f.listings, nil
}

func (f *fakeStore) CreateRun(_ context.Context, transcriptID string) (*model.Run, error) {
	f.run = &model.Run{
		ID:           "run-1",
		TranscriptID: transcriptID,
		CurrentStage: model.StageIngestion,
		Status:       model.RunStatusPending,
	}
	return f.run, nil
}

func (f *fakeStore) GetRun(_ context.Context, runID string) (*model.Run, error) {
	if f.run == nil || f.run.ID != runID {
		return nil, store.ErrNotFound
	}
	snapshot := *f.run
	return &snapshot, nil
}

func (f *fakeStore) ListRuns(_ context.Context, _ store.RunFilter) ([]model.Run, error) {
	if f.run == nil {
		return nil, nil
	}
	return []model.Run{*f.run}, nil
}

func (f *fakeStore) SetRunStage(_ context.Context, _ string, stage model.Stage) error {
	f.run.CurrentStage = stage
	return nil
}

func (f *fakeStore) SetRunStatus(_ context.Context, _ string, status model.RunStatus) error {
	f.run.Status = status
	return nil
}

func (f *fakeStore) CompleteStage(_ context.Context, _ string, stage model.Stage) error {
	f.completedStages = append(f.completedStages, stage)
	return nil
}

func (f *fakeStore) FailRun(_ context.Context, _ string, errorMessage string) error {
	f.run.Status = model.RunStatusFailed
	f.run.ErrorMessage = errorMessage
	f.failedWith = errorMessage
	return nil
}

type fakeExtractor struct {
	req    *model.Requirement
	err    error
	called int
}

func (f *fakeExtractor) Extract(_ context.Context, _ string) (*model.Requirement, error) {
	f.called++
	return f.req, f.err
}

type fakeSearcher struct {
	listings []model.Listing
	err      error
	called   int
}

func (f *fakeSearcher) SearchListings(_ context.Context, _ string, _ *model.Requirement) ([]model.Listing, error) {
	f.called++
	return f.listings, f.err
}

type fakeRanker struct {
	err    error
	called int
}

func (f *fakeRanker) RankListings(_ context.Context, _ string, _ *model.Requirement, _ []model.Listing) ([]model.RankedResult, error) {
	f.called++
	return nil, f.err
}

func newTestService(st *fakeStore) (*Service, *fakeExtractor, *fakeSearcher, *fakeRanker) {
	ex := &fakeExtractor{req: st.requirement}
	se := &fakeSearcher{listings: st.listings}
	ra := &fakeRanker{}
	return NewService(st, ex, se, ra), ex, se, ra
}

func TestStartRunsAllStages(t *testing.T) {
	st := newFakeStore()
	svc, ex, se, ra := newTestService(st)

	run, err := svc.Start(context.Background(), "transcript text", model.UploadMethodUpload)
	require.NoError(t, err)

	assert.Equal(t, model.RunStatusCompleted, run.Status)
	assert.Equal(t, model.StageReview, run.CurrentStage)
	assert.Equal(t, 1, ex.called)
	assert.Equal(t, 1, se.called)
	assert.Equal(t, 1, ra.called)
	assert.Equal(t, []model.Stage{
		model.StageIngestion,
		model.StageExtraction,
		model.StageSearch,
		model.StageRanking,
	}, st.completedStages)
}

func TestStartExtractionFailureMarksRunFailed(t *testing.T) {
	st := newFakeStore()
	svc, ex, se, ra := newTestService(st)
	ex.err = eris.New("llm timeout")

	run, err := svc.Start(context.Background(), "transcript text", model.UploadMethodUpload)
	require.NoError(t, err)

	assert.Equal(t, model.RunStatusFailed, run.Status)
	assert.Contains(t, run.ErrorMessage, "extraction stage")
	assert.Contains(t, st.failedWith, "llm timeout")
	assert.Equal(t, 0, se.called)
	assert.Equal(t, 0, ra.called)
}

func TestStartSearchFailureMarksRunFailed(t *testing.T) {
	st := newFakeStore()
	svc, _, se, ra := newTestService(st)
	se.err = eris.New("all sources down")

	run, err := svc.Start(context.Background(), "transcript text", model.UploadMethodUpload)
	require.NoError(t, err)

	assert.Equal(t, model.RunStatusFailed, run.Status)
	assert.Contains(t, run.ErrorMessage, "search stage")
	assert.Equal(t, 0, ra.called)
}

func TestResumeFromSearchSkipsExtraction(t *testing.T) {
	st := newFakeStore()
	svc, ex, se, ra := newTestService(st)

	st.run = &model.Run{
		ID:           "run-1",
		TranscriptID: "tr-1",
		CurrentStage: model.StageSearch,
		Status:       model.RunStatusPending,
	}

	run, err := svc.Resume(context.Background(), "run-1")
	require.NoError(t, err)

	assert.Equal(t, 0, ex.called)
	assert.Equal(t, 1, se.called)
	assert.Equal(t, 1, ra.called)
	assert.Equal(t, model.RunStatusCompleted, run.Status)
	assert.Equal(t, model.StageReview, run.CurrentStage)
}

func TestResumeCompletedRunIsNoop(t *testing.T) {
	st := newFakeStore()
	svc, ex, se, ra := newTestService(st)

	st.run = &model.Run{
		ID:           "run-1",
		TranscriptID: "tr-1",
		CurrentStage: model.StageReview,
		Status:       model.RunStatusCompleted,
	}

	run, err := svc.Resume(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusCompleted, run.Status)
	assert.Equal(t, 0, ex.called)
	assert.Equal(t, 0, se.called)
	assert.Equal(t, 0, ra.called)
}

func TestRunStageRejectsWrongStage(t *testing.T) {
	st := newFakeStore()
	svc, _, _, _ := newTestService(st)

	st.run = &model.Run{
		ID:           "run-1",
		TranscriptID: "tr-1",
		CurrentStage: model.StageExtraction,
		Status:       model.RunStatusPending,
	}

	_, err := svc.RunStage(context.Background(), "run-1", model.StageRanking)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at stage")
}

func TestRunStageRejectsNonAutomatedStage(t *testing.T) {
	st := newFakeStore()
	svc, _, _, _ := newTestService(st)

	_, err := svc.RunStage(context.Background(), "run-1", model.StageReview)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be run directly")
}

func TestRunStageExecutesSingleStage(t *testing.T) {
	st := newFakeStore()
	svc, _, se, ra := newTestService(st)

	st.run = &model.Run{
		ID:           "run-1",
		TranscriptID: "tr-1",
		CurrentStage: model.StageSearch,
		Status:       model.RunStatusPending,
	}

	run, err := svc.RunStage(context.Background(), "run-1", model.StageSearch)
	require.NoError(t, err)

	assert.Equal(t, 1, se.called)
	assert.Equal(t, 0, ra.called)
	assert.Equal(t, model.StageRanking, run.CurrentStage)
	assert.Equal(t, model.RunStatusPending, run.Status)
	assert.Equal(t, []model.Stage{model.StageSearch}, st.completedStages)
}

func TestRunStageRankingCompletesRun(t *testing.T) {
	st := newFakeStore()
	svc, _, _, ra := newTestService(st)

	st.run = &model.Run{
		ID:           "run-1",
		TranscriptID: "tr-1",
		CurrentStage: model.StageRanking,
		Status:       model.RunStatusPending,
	}

	run, err := svc.RunStage(context.Background(), "run-1", model.StageRanking)
	require.NoError(t, err)

	assert.Equal(t, 1, ra.called)
	assert.Equal(t, model.StageReview, run.CurrentStage)
	assert.Equal(t, model.RunStatusCompleted, run.Status)
}
