// Package extract turns a raw call transcript into a structured buyer
// requirement via a single LLM call.
package extract

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/homematch/internal/llm"
	"github.com/sells-group/homematch/internal/model"
)

// Store is the persistence surface extraction needs.
type Store interface {
	GetTranscript(ctx context.Context, id string) (*model.Transcript, error)
	SetTranscriptStatus(ctx context.Context, id string, status model.TranscriptStatus) error
	SaveRequirement(ctx context.Context, req *model.Requirement) (*model.Requirement, error)
}

// Service runs requirement extraction.
type Service struct {
	store    Store
	provider llm.Provider
}

// NewService builds an extraction Service.
func NewService(st Store, provider llm.Provider) *Service {
	return &Service{store: st, provider: provider}
}

// extractionResult mirrors the JSON schema the extraction prompt demands.
type extractionResult struct {
	ClientName        string   `json:"client_name"`
	BudgetMax         float64  `json:"budget_max"`
	Locations         []string `json:"locations"`
	MustHaves         []string `json:"must_haves"`
	NiceToHaves       []string `json:"nice_to_haves"`
	PropertyType      string   `json:"property_type"`
	MinBeds           int      `json:"min_beds"`
	MinBaths          int      `json:"min_baths"`
	MinSqft           int      `json:"min_sqft"`
	SchoolRequirement string   `json:"school_requirement"`
	Timeline          string   `json:"timeline"`
	FinancingType     string   `json:"financing_type"`
	ConfidenceScore   float64  `json:"confidence_score"`
}

func parseExtraction(raw string) (*extractionResult, error) {
	var res extractionResult
	if err := json.Unmarshal([]byte(llm.CleanJSON(raw)), &res); err != nil {
		return nil, eris.Wrap(err, "extract: parse response")
	}
	res.ConfidenceScore = min(max(res.ConfidenceScore, 0), 1)
	res.BudgetMax = max(res.BudgetMax, 0)
	res.MinBeds = max(res.MinBeds, 0)
	res.MinBaths = max(res.MinBaths, 0)
	res.MinSqft = max(res.MinSqft, 0)
	return &res, nil
}

// Extract loads the transcript, extracts requirements, and persists the
// result. The transcript status tracks the outcome: extracting while the LLM
// call is in flight, extracted on success, failed on any error after the
// transcript was found.
func (s *Service) Extract(ctx context.Context, transcriptID string) (*model.Requirement, error) {
	transcript, err := s.store.GetTranscript(ctx, transcriptID)
	if err != nil {
		return nil, err
	}

	if err := s.store.SetTranscriptStatus(ctx, transcriptID, model.TranscriptStatusExtracting); err != nil {
		return nil, err
	}

	req, err := s.extract(ctx, transcript)
	if err != nil {
		zap.L().Error("extraction failed",
			zap.String("transcript_id", transcriptID),
			zap.Error(err))
		if statusErr := s.store.SetTranscriptStatus(ctx, transcriptID, model.TranscriptStatusFailed); statusErr != nil {
			zap.L().Warn("failed to mark transcript failed", zap.Error(statusErr))
		}
		return nil, err
	}

	if err := s.store.SetTranscriptStatus(ctx, transcriptID, model.TranscriptStatusExtracted); err != nil {
		return nil, err
	}

	zap.L().Info("requirements extracted",
		zap.String("transcript_id", transcriptID),
		zap.String("requirement_id", req.ID),
		zap.Float64("confidence", req.ConfidenceScore))
	return req, nil
}

func (s *Service) extract(ctx context.Context, transcript *model.Transcript) (*model.Requirement, error) {
	raw, err := s.provider.Complete(ctx, extractionSystemPrompt, buildExtractionUserPrompt(transcript.RawText))
	if err != nil {
		return nil, eris.Wrap(err, "extract: llm call")
	}

	parsed, err := parseExtraction(raw)
	if err != nil {
		return nil, err
	}

	req := &model.Requirement{
		TranscriptID:      transcript.ID,
		ClientName:        parsed.ClientName,
		BudgetMax:         parsed.BudgetMax,
		Locations:         parsed.Locations,
		MustHaves:         parsed.MustHaves,
		NiceToHaves:       parsed.NiceToHaves,
		PropertyType:      parsed.PropertyType,
		MinBeds:           parsed.MinBeds,
		MinBaths:          parsed.MinBaths,
		MinSqft:           parsed.MinSqft,
		SchoolRequirement: parsed.SchoolRequirement,
		Timeline:          parsed.Timeline,
		FinancingType:     parsed.FinancingType,
		ConfidenceScore:   parsed.ConfidenceScore,
		LLMProvider:       s.provider.Name(),
		LLMModel:          s.provider.Model(),
		RawLLMResponse:    raw,
	}
	return s.store.SaveRequirement(ctx, req)
}
