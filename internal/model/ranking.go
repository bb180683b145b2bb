package model

import "time"

// CheckResult is the verdict of a single must-have check.
type CheckResult struct {
	Pass   bool   `json:"pass"`
	Reason string `json:"reason"`
}

// NiceToHaveScore is the continuous [0,1] verdict of a single nice-to-have.
type NiceToHaveScore struct {
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

// ScoreWeights documents the weighting used to combine must-have rate and
// nice-to-have score into the overall score.
type ScoreWeights struct {
	MustHave   float64 `json:"must_have"`
	NiceToHave float64 `json:"nice_to_have"`
}

// ScoreBreakdown retains every individual check and score with its reason so
// a ranking is fully explainable after the fact.
type ScoreBreakdown struct {
	MustHaveChecks    map[string]CheckResult     `json:"must_have_checks"`
	NiceToHaveDetails map[string]NiceToHaveScore `json:"nice_to_have_details"`
	MustHaveRate      float64                    `json:"must_have_rate"`
	Weights           ScoreWeights               `json:"weights"`
}

// RankedResult is one listing's position in a ranking run. Approved is
// tri-state: nil = not yet reviewed, true = approved, false = rejected.
type RankedResult struct {
	ID            string `json:"id"`
	RunID         string `json:"run_id"`
	ListingID     string `json:"listing_id"`
	RequirementID string `json:"requirement_id"`

	OverallScore    float64        `json:"overall_score"`
	MustHavePass    bool           `json:"must_have_pass"`
	NiceToHaveScore float64        `json:"nice_to_have_score"`
	RankPosition    int            `json:"rank_position"`
	Breakdown       ScoreBreakdown `json:"score_breakdown"`

	Approved  *bool     `json:"approved,omitempty"`
	Sent      bool      `json:"sent"`
	CreatedAt time.Time `json:"created_at"`
}
