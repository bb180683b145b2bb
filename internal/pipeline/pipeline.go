// Package pipeline orchestrates the matching workflow: a transcript moves
// through ingestion, extraction, search, and ranking, then parks at review
// until a human approves results for sending.
package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/homematch/internal/model"
	"github.com/sells-group/homematch/internal/store"
)

// Store is the persistence surface the orchestrator needs.
type Store interface {
	CreateTranscript(ctx context.Context, rawText, uploadMethod string) (*model.Transcript, error)
	GetRequirementByTranscript(ctx context.Context, transcriptID string) (*model.Requirement, error)
	ListListingsByRun(ctx context.Context, runID string) ([]model.Listing, error)
	CreateRun(ctx context.Context, transcriptID string) (*model.Run, error)
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter store.RunFilter) ([]model.Run, error)
	SetRunStage(ctx context.Context, runID string, stage model.Stage) error
	SetRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	CompleteStage(ctx context.Context, runID string, stage model.Stage) error
	FailRun(ctx context.Context, runID string, errorMessage string) error
}

// Extractor turns a transcript into a structured requirement.
type Extractor interface {
	Extract(ctx context.Context, transcriptID string) (*model.Requirement, error)
}

// Searcher finds candidate listings for a requirement.
type Searcher interface {
	SearchListings(ctx context.Context, runID string, req *model.Requirement) ([]model.Listing, error)
}

// Ranker scores listings against a requirement.
type Ranker interface {
	RankListings(ctx context.Context, runID string, req *model.Requirement, listings []model.Listing) ([]model.RankedResult, error)
}

// Service drives runs through the pipeline stages.
type Service struct {
	store     Store
	extractor Extractor
	searcher  Searcher
	ranker    Ranker
}

// NewService builds the orchestrator.
func NewService(st Store, extractor Extractor, searcher Searcher, ranker Ranker) *Service {
	return &Service{store: st, extractor: extractor, searcher: searcher, ranker: ranker}
}

// Prepare ingests a transcript and creates its run without executing the
// later stages. The returned run sits at the extraction stage; Resume picks
// it up from there.
func (s *Service) Prepare(ctx context.Context, rawText, uploadMethod string) (*model.Run, error) {
	transcript, err := s.store.CreateTranscript(ctx, rawText, uploadMethod)
	if err != nil {
		return nil, err
	}

	run, err := s.store.CreateRun(ctx, transcript.ID)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetRunStatus(ctx, run.ID, model.RunStatusInProgress); err != nil {
		return nil, err
	}
	if err := s.store.CompleteStage(ctx, run.ID, model.StageIngestion); err != nil {
		return nil, err
	}
	if err := s.store.SetRunStage(ctx, run.ID, model.StageExtraction); err != nil {
		return nil, err
	}

	zap.L().Info("run started",
		zap.String("run_id", run.ID),
		zap.String("transcript_id", transcript.ID),
		zap.String("upload_method", uploadMethod))
	return s.store.GetRun(ctx, run.ID)
}

// Start ingests a transcript, creates a run, and executes every automated
// stage. A stage failure marks the run failed rather than returning an error;
// the returned run carries the failure details. Errors are only returned when
// the run itself could not be created.
func (s *Service) Start(ctx context.Context, rawText, uploadMethod string) (*model.Run, error) {
	run, err := s.Prepare(ctx, rawText, uploadMethod)
	if err != nil {
		return nil, err
	}
	if err := s.executeFrom(ctx, run.ID, model.StageExtraction); err != nil {
		s.fail(ctx, run.ID, err)
	}
	return s.store.GetRun(ctx, run.ID)
}

// Resume picks a run back up from its current stage and executes the
// remaining automated stages. Used when ingestion happened out of band, for
// example a transcript assembled over several messages.
func (s *Service) Resume(ctx context.Context, runID string) (*model.Run, error) {
	run, err := s.store.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run.Status == model.RunStatusCompleted {
		return run, nil
	}
	if err := s.store.SetRunStatus(ctx, runID, model.RunStatusInProgress); err != nil {
		return nil, err
	}

	stage := run.CurrentStage
	if stage == model.StageIngestion {
		if err := s.store.CompleteStage(ctx, runID, model.StageIngestion); err != nil {
			return nil, err
		}
		if err := s.store.SetRunStage(ctx, runID, model.StageExtraction); err != nil {
			return nil, err
		}
		stage = model.StageExtraction
	}

	if err := s.executeFrom(ctx, runID, stage); err != nil {
		s.fail(ctx, runID, err)
	}
	return s.store.GetRun(ctx, runID)
}

// RunStage executes exactly one automated stage of an existing run. The stage
// must be the run's current stage; earlier or later stages are rejected.
func (s *Service) RunStage(ctx context.Context, runID string, stage model.Stage) (*model.Run, error) {
	switch stage {
	case model.StageExtraction, model.StageSearch, model.StageRanking:
	default:
		return nil, eris.Errorf("pipeline: stage %q cannot be run directly", stage)
	}

	run, err := s.store.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run.CurrentStage != stage {
		return nil, eris.Errorf("pipeline: run is at stage %q, cannot run %q", run.CurrentStage, stage)
	}

	if err := s.store.SetRunStatus(ctx, runID, model.RunStatusInProgress); err != nil {
		return nil, err
	}
	if err := s.executeStage(ctx, run, stage); err != nil {
		s.fail(ctx, runID, err)
		return s.store.GetRun(ctx, runID)
	}
	if stage != model.StageRanking {
		if err := s.store.SetRunStatus(ctx, runID, model.RunStatusPending); err != nil {
			return nil, err
		}
	}
	return s.store.GetRun(ctx, runID)
}

// GetRun returns one run.
func (s *Service) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	return s.store.GetRun(ctx, runID)
}

// ListRuns returns runs matching the filter.
func (s *Service) ListRuns(ctx context.Context, filter store.RunFilter) ([]model.Run, error) {
	return s.store.ListRuns(ctx, filter)
}

// executeFrom runs the automated stages starting at from, in order, stopping
// before review.
func (s *Service) executeFrom(ctx context.Context, runID string, from model.Stage) error {
	for stage := from; stage != model.StageReview; {
		run, err := s.store.GetRun(ctx, runID)
		if err != nil {
			return err
		}
		if err := s.executeStage(ctx, run, stage); err != nil {
			return err
		}
		next, ok := stage.Next()
		if !ok {
			break
		}
		stage = next
	}
	return nil
}

func (s *Service) executeStage(ctx context.Context, run *model.Run, stage model.Stage) error {
	switch stage {
	case model.StageExtraction:
		return s.runExtraction(ctx, run)
	case model.StageSearch:
		return s.runSearch(ctx, run)
	case model.StageRanking:
		return s.runRanking(ctx, run)
	}
	return eris.Errorf("pipeline: unexpected stage %q", stage)
}

func (s *Service) runExtraction(ctx context.Context, run *model.Run) error {
	if _, err := s.extractor.Extract(ctx, run.TranscriptID); err != nil {
		return eris.Wrap(err, "pipeline: extraction stage")
	}
	if err := s.store.CompleteStage(ctx, run.ID, model.StageExtraction); err != nil {
		return err
	}
	return s.store.SetRunStage(ctx, run.ID, model.StageSearch)
}

func (s *Service) runSearch(ctx context.Context, run *model.Run) error {
	req, err := s.store.GetRequirementByTranscript(ctx, run.TranscriptID)
	if err != nil {
		return eris.Wrap(err, "pipeline: load requirement")
	}
	if _, err := s.searcher.SearchListings(ctx, run.ID, req); err != nil {
		return eris.Wrap(err, "pipeline: search stage")
	}
	if err := s.store.CompleteStage(ctx, run.ID, model.StageSearch); err != nil {
		return err
	}
	return s.store.SetRunStage(ctx, run.ID, model.StageRanking)
}

func (s *Service) runRanking(ctx context.Context, run *model.Run) error {
	req, err := s.store.GetRequirementByTranscript(ctx, run.TranscriptID)
	if err != nil {
		return eris.Wrap(err, "pipeline: load requirement")
	}
	listings, err := s.store.ListListingsByRun(ctx, run.ID)
	if err != nil {
		return eris.Wrap(err, "pipeline: load listings")
	}
	if _, err := s.ranker.RankListings(ctx, run.ID, req, listings); err != nil {
		return eris.Wrap(err, "pipeline: ranking stage")
	}
	if err := s.store.CompleteStage(ctx, run.ID, model.StageRanking); err != nil {
		return err
	}
	if err := s.store.SetRunStage(ctx, run.ID, model.StageReview); err != nil {
		return err
	}
	// The automated portion is done. Review and send are externally triggered.
	return s.store.SetRunStatus(ctx, run.ID, model.RunStatusCompleted)
}

func (s *Service) fail(ctx context.Context, runID string, err error) {
	zap.L().Error("run failed",
		zap.String("run_id", runID),
		zap.Error(err))
	if failErr := s.store.FailRun(ctx, runID, err.Error()); failErr != nil {
		zap.L().Warn("failed to record run failure",
			zap.String("run_id", runID),
			zap.Error(failErr))
	}
}
