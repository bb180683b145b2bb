package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/homematch/internal/model"
)

// ErrNotFound is returned when a requested record does not exist, or when a
// record exists but does not belong to the run named in the request.
var ErrNotFound = eris.New("store: not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for the matching pipeline.
type Store interface {
	// Transcripts
	CreateTranscript(ctx context.Context, rawText, uploadMethod string) (*model.Transcript, error)
	GetTranscript(ctx context.Context, id string) (*model.Transcript, error)
	SetTranscriptStatus(ctx context.Context, id string, status model.TranscriptStatus) error

	// Requirements
	SaveRequirement(ctx context.Context, req *model.Requirement) (*model.Requirement, error)
	GetRequirement(ctx context.Context, id string) (*model.Requirement, error)
	GetRequirementByTranscript(ctx context.Context, transcriptID string) (*model.Requirement, error)
	UpdateRequirement(ctx context.Context, id string, update model.RequirementUpdate) (*model.Requirement, error)

	// Listings
	CreateListings(ctx context.Context, listings []model.Listing) ([]model.Listing, error)
	ListListingsByRun(ctx context.Context, runID string) ([]model.Listing, error)
	GetListing(ctx context.Context, id string) (*model.Listing, error)

	// Runs
	CreateRun(ctx context.Context, transcriptID string) (*model.Run, error)
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)
	SetRunStage(ctx context.Context, runID string, stage model.Stage) error
	SetRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	CompleteStage(ctx context.Context, runID string, stage model.Stage) error
	FailRun(ctx context.Context, runID string, errorMessage string) error

	// Rankings
	CreateRankedResults(ctx context.Context, results []model.RankedResult) ([]model.RankedResult, error)
	ListRankedResults(ctx context.Context, runID string) ([]model.RankedResult, error)
	GetRankedResult(ctx context.Context, runID, resultID string) (*model.RankedResult, error)
	SetApprovals(ctx context.Context, runID string, approvedIDs []string) error
	RejectResult(ctx context.Context, runID, resultID string) error
	MarkSent(ctx context.Context, runID string, resultIDs []string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// stageColumns maps a pipeline stage to its completion timestamp column. The
// whitelist keeps stage names out of SQL string interpolation.
var stageColumns = map[model.Stage]string{
	model.StageIngestion:  "ingestion_completed_at",
	model.StageExtraction: "extraction_completed_at",
	model.StageSearch:     "search_completed_at",
	model.StageRanking:    "ranking_completed_at",
	model.StageReview:     "review_completed_at",
	model.StageSend:       "send_completed_at",
}
