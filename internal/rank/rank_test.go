package rank

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/homematch/internal/config"
	"github.com/sells-group/homematch/internal/model"
)

var testWeights = config.RankingConfig{
	MustHaveWeight:   0.6,
	NiceToHaveWeight: 0.4,
	FailPenalty:      0.5,
}

// fakeProvider returns a canned completion or error.
type fakeProvider struct {
	response string
	err      error
	called   bool
}

func (f *fakeProvider) Complete(_ context.Context, _, _ string) (string, error) {
	f.called = true
	return f.response, f.err
}

func (f *fakeProvider) Name() string  { return "fake" }
func (f *fakeProvider) Model() string { return "fake-model" }

// captureStore records the persisted results.
type captureStore struct {
	results []model.RankedResult
}

func (c *captureStore) CreateRankedResults(_ context.Context, results []model.RankedResult) ([]model.RankedResult, error) {
	c.results = results
	return results, nil
}

func passingListing(id string) model.Listing {
	return model.Listing{
		ID:           id,
		Price:        fptr(450000),
		Bedrooms:     iptr(3),
		Bathrooms:    fptr(2),
		Sqft:         iptr(1800),
		PropertyType: "house",
	}
}

func quantRequirement() *model.Requirement {
	return &model.Requirement{
		ID:           "req-1",
		BudgetMax:    500000,
		MinBeds:      3,
		MinBaths:     2,
		MinSqft:      1500,
		PropertyType: "house",
		MustHaves:    []string{"3 bedrooms", "under budget"},
	}
}

func TestRankListings_Empty(t *testing.T) {
	r := NewRanker(&fakeProvider{}, &captureStore{}, testWeights)
	results, err := r.RankListings(context.Background(), "run-1", quantRequirement(), nil)
	require.NoError(t, err)
	assert.Nil(t, results)
}

func TestRankListings_QuantOnly(t *testing.T) {
	provider := &fakeProvider{}
	st := &captureStore{}
	r := NewRanker(provider, st, testWeights)

	over := passingListing("L2")
	over.Price = fptr(550000)

	results, err := r.RankListings(context.Background(), "run-1", quantRequirement(),
		[]model.Listing{over, passingListing("L1")})
	require.NoError(t, err)
	require.Len(t, results, 2)

	// All must-haves are quantitative, so the LLM is never consulted.
	assert.False(t, provider.called)

	// Passing listing ranks first despite source order.
	assert.Equal(t, "L1", results[0].ListingID)
	assert.Equal(t, 1, results[0].RankPosition)
	assert.True(t, results[0].MustHavePass)
	assert.Equal(t, 1.0, results[0].OverallScore)

	assert.Equal(t, "L2", results[1].ListingID)
	assert.Equal(t, 2, results[1].RankPosition)
	assert.False(t, results[1].MustHavePass)
	// 4 of 5 checks pass: 0.6*0.8 + 0.4*(1.0*0.5)
	assert.Equal(t, 0.68, results[1].OverallScore)
	assert.Equal(t, 0.8, results[1].Breakdown.MustHaveRate)
}

func TestRankListings_LLMFailureDefaultsToPass(t *testing.T) {
	provider := &fakeProvider{err: eris.New("api down")}
	st := &captureStore{}
	r := NewRanker(provider, st, testWeights)

	req := quantRequirement()
	req.MustHaves = append(req.MustHaves, "good school district")

	results, err := r.RankListings(context.Background(), "run-1", req,
		[]model.Listing{passingListing("L1")})
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.True(t, provider.called)
	assert.True(t, results[0].MustHavePass)
	check := results[0].Breakdown.MustHaveChecks["good school district"]
	assert.True(t, check.Pass)
	assert.Equal(t, "LLM unavailable; defaulting to pass", check.Reason)
}

func TestRankListings_SemanticVerdicts(t *testing.T) {
	// L1 is evaluated with one of two semantic items answered; L2 is omitted
	// from the response entirely.
	provider := &fakeProvider{response: `{
		"listings": {
			"L1": {
				"must_have_checks": {
					"good school district": {"pass": true, "reason": "Top-rated district"}
				},
				"nice_to_have_scores": {
					"big garden": {"score": 0.8, "reason": "Large backyard"}
				}
			}
		}
	}`}
	st := &captureStore{}
	r := NewRanker(provider, st, testWeights)

	req := quantRequirement()
	req.MustHaves = append(req.MustHaves, "good school district", "quiet street")
	req.NiceToHaves = []string{"big garden"}

	results, err := r.RankListings(context.Background(), "run-1", req,
		[]model.Listing{passingListing("L1"), passingListing("L2")})
	require.NoError(t, err)
	require.Len(t, results, 2)

	byListing := map[string]model.RankedResult{}
	for _, rr := range results {
		byListing[rr.ListingID] = rr
	}

	l1 := byListing["L1"]
	assert.False(t, l1.MustHavePass)
	assert.Equal(t, model.CheckResult{Pass: true, Reason: "Top-rated district"},
		l1.Breakdown.MustHaveChecks["good school district"])
	assert.Equal(t, model.CheckResult{Pass: false, Reason: "Not evaluated by LLM"},
		l1.Breakdown.MustHaveChecks["quiet street"])
	assert.Equal(t, 0.8, l1.NiceToHaveScore)

	// Omitted listing falls back to pass with the default nice-to-have score.
	l2 := byListing["L2"]
	assert.True(t, l2.MustHavePass)
	assert.Equal(t, 0.5, l2.NiceToHaveScore)
	assert.Equal(t, "LLM unavailable; defaulting to pass",
		l2.Breakdown.MustHaveChecks["quiet street"].Reason)

	// L2 passes all must-haves so it outranks L1.
	assert.Equal(t, 1, l2.RankPosition)
	assert.Equal(t, 2, l1.RankPosition)
}

func TestRankListings_NoNiceToHavesScoresOne(t *testing.T) {
	st := &captureStore{}
	r := NewRanker(&fakeProvider{}, st, testWeights)

	results, err := r.RankListings(context.Background(), "run-1", quantRequirement(),
		[]model.Listing{passingListing("L1")})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1.0, results[0].NiceToHaveScore)
}

func TestParseRankingResponse(t *testing.T) {
	envelope := `{"listings": {"L1": {"must_have_checks": {"x": {"pass": true, "reason": "r"}}}}}`
	bare := `{"L1": {"must_have_checks": {"x": {"pass": true, "reason": "r"}}}}`
	fenced := "```json\n" + envelope + "\n```"

	for name, raw := range map[string]string{"envelope": envelope, "bare": bare, "fenced": fenced} {
		t.Run(name, func(t *testing.T) {
			verdicts, err := parseRankingResponse(raw)
			require.NoError(t, err)
			require.Contains(t, verdicts, "L1")
			assert.True(t, verdicts["L1"].MustHaveChecks["x"].Pass)
		})
	}

	t.Run("invalid", func(t *testing.T) {
		_, err := parseRankingResponse("not json at all")
		assert.Error(t, err)
	})

	t.Run("empty object", func(t *testing.T) {
		_, err := parseRankingResponse("{}")
		assert.Error(t, err)
	})
}
