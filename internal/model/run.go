package model

import "time"

// Stage identifies one phase of a matching pipeline run.
type Stage string

const (
	StageIngestion  Stage = "ingestion"
	StageExtraction Stage = "extraction"
	StageSearch     Stage = "search"
	StageRanking    Stage = "ranking"
	StageReview     Stage = "review"
	StageSend       Stage = "send"
)

// stageOrder is the fixed progression of pipeline stages. REVIEW and SEND are
// externally triggered and never run inline with the earlier stages.
var stageOrder = []Stage{
	StageIngestion,
	StageExtraction,
	StageSearch,
	StageRanking,
	StageReview,
	StageSend,
}

// Index returns the position of the stage in the fixed order, or -1 for an
// unknown stage.
func (s Stage) Index() int {
	for i, st := range stageOrder {
		if st == s {
			return i
		}
	}
	return -1
}

// Next returns the stage that follows s. The second return is false when s is
// the final stage or unknown.
func (s Stage) Next() (Stage, bool) {
	i := s.Index()
	if i < 0 || i >= len(stageOrder)-1 {
		return "", false
	}
	return stageOrder[i+1], true
}

// Valid reports whether s is a known pipeline stage.
func (s Stage) Valid() bool {
	return s.Index() >= 0
}

// RunStatus is the lifecycle status of a pipeline run.
type RunStatus string

const (
	RunStatusPending    RunStatus = "pending"
	RunStatusInProgress RunStatus = "in_progress"
	RunStatusCompleted  RunStatus = "completed"
	RunStatusFailed     RunStatus = "failed"
)

// Run is a single execution of the transcript -> extraction -> search ->
// ranking -> review -> send workflow. Stage completion timestamps are set once,
// after that stage's output has been persisted.
type Run struct {
	ID           string    `json:"id"`
	TranscriptID string    `json:"transcript_id"`
	CurrentStage Stage     `json:"current_stage"`
	Status       RunStatus `json:"status"`

	IngestionCompletedAt  *time.Time `json:"ingestion_completed_at,omitempty"`
	ExtractionCompletedAt *time.Time `json:"extraction_completed_at,omitempty"`
	SearchCompletedAt     *time.Time `json:"search_completed_at,omitempty"`
	RankingCompletedAt    *time.Time `json:"ranking_completed_at,omitempty"`
	ReviewCompletedAt     *time.Time `json:"review_completed_at,omitempty"`
	SendCompletedAt       *time.Time `json:"send_completed_at,omitempty"`

	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CompletedAt returns the completion timestamp recorded for the given stage,
// or nil when the stage has not finished.
func (r *Run) CompletedAt(stage Stage) *time.Time {
	switch stage {
	case StageIngestion:
		return r.IngestionCompletedAt
	case StageExtraction:
		return r.ExtractionCompletedAt
	case StageSearch:
		return r.SearchCompletedAt
	case StageRanking:
		return r.RankingCompletedAt
	case StageReview:
		return r.ReviewCompletedAt
	case StageSend:
		return r.SendCompletedAt
	}
	return nil
}
