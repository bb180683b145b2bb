// Package rank implements two-phase listing scoring: algorithmic must-have
// checks run inline while a single LLM call evaluates the semantic
// requirements for every listing at once.
package rank

import (
	"context"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/sells-group/homematch/internal/config"
	"github.com/sells-group/homematch/internal/llm"
	"github.com/sells-group/homematch/internal/model"
)

// ResultStore persists ranked results.
type ResultStore interface {
	CreateRankedResults(ctx context.Context, results []model.RankedResult) ([]model.RankedResult, error)
}

// Ranker scores and persists ranked results for a run.
type Ranker struct {
	evaluator *Evaluator
	store     ResultStore
	weights   config.RankingConfig
}

// NewRanker builds a Ranker.
func NewRanker(provider llm.Provider, st ResultStore, cfg config.RankingConfig) *Ranker {
	return &Ranker{
		evaluator: NewEvaluator(provider),
		store:     st,
		weights:   cfg,
	}
}

// RankListings scores every listing, sorts them, assigns dense 1-based rank
// positions, and persists the results in one transaction. The LLM call is
// fired first so the quantitative checks overlap with the network wait.
func (r *Ranker) RankListings(ctx context.Context, runID string, req *model.Requirement, listings []model.Listing) ([]model.RankedResult, error) {
	if len(listings) == 0 {
		return nil, nil
	}

	semanticMustHaves := SemanticMustHaves(req.MustHaves)
	niceToHaves := req.NiceToHaves

	zap.L().Info("ranking listings",
		zap.Int("listings", len(listings)),
		zap.Int("semantic_must_haves", len(semanticMustHaves)),
		zap.Int("nice_to_haves", len(niceToHaves)))

	verdictCh := make(chan map[string]Verdict, 1)
	go func() {
		verdictCh <- r.evaluator.Evaluate(ctx, semanticMustHaves, niceToHaves, listings)
	}()

	quant := make(map[string]map[string]model.CheckResult, len(listings))
	for i := range listings {
		quant[listings[i].ID] = QuantitativeChecks(&listings[i], req)
	}

	verdicts := <-verdictCh

	scored := make([]model.RankedResult, len(listings))
	for i, l := range listings {
		scored[i] = r.score(&l, quant[l.ID], semanticMustHaves, niceToHaves, verdicts)
		scored[i].RunID = runID
		scored[i].ListingID = l.ID
		scored[i].RequirementID = req.ID
	}

	// Listings passing every must-have come first, then by score. Stable so
	// ties keep source order.
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].MustHavePass != scored[j].MustHavePass {
			return scored[i].MustHavePass
		}
		return scored[i].OverallScore > scored[j].OverallScore
	})
	for i := range scored {
		scored[i].RankPosition = i + 1
	}

	results, err := r.store.CreateRankedResults(ctx, scored)
	if err != nil {
		return nil, err
	}

	passed := 0
	for _, rr := range results {
		if rr.MustHavePass {
			passed++
		}
	}
	zap.L().Info("ranking complete",
		zap.String("run_id", runID),
		zap.Int("ranked", len(results)),
		zap.Int("passed_all_must_haves", passed))
	return results, nil
}

// score combines the quantitative checks and the LLM verdict for one listing.
// A listing absent from the LLM response gets its semantic must-haves
// defaulted to pass. A listing the LLM did evaluate but with an individual
// item omitted gets that item failed.
func (r *Ranker) score(listing *model.Listing, quantChecks map[string]model.CheckResult, semanticMustHaves, niceToHaves []string, verdicts map[string]Verdict) model.RankedResult {
	verdict, hasVerdict := verdicts[listing.ID]
	if hasVerdict && verdict.empty() {
		hasVerdict = false
	}

	allChecks := make(map[string]model.CheckResult, len(quantChecks)+len(semanticMustHaves))
	for name, c := range quantChecks {
		allChecks[name] = c
	}

	if hasVerdict {
		for _, mh := range semanticMustHaves {
			check, ok := verdict.MustHaveChecks[mh]
			if !ok {
				check = model.CheckResult{Pass: false, Reason: "Not evaluated by LLM"}
			}
			allChecks[mh] = check
		}
	} else {
		for _, mh := range semanticMustHaves {
			allChecks[mh] = model.CheckResult{Pass: true, Reason: "LLM unavailable; defaulting to pass"}
		}
	}

	mustHavePass := true
	passedCount := 0
	for _, c := range allChecks {
		if c.Pass {
			passedCount++
		} else {
			mustHavePass = false
		}
	}
	mustHaveRate := 1.0
	if len(allChecks) > 0 {
		mustHaveRate = float64(passedCount) / float64(len(allChecks))
	}

	niceToHaveDetails := make(map[string]model.NiceToHaveScore, len(niceToHaves))
	if hasVerdict {
		for _, nth := range niceToHaves {
			s, ok := verdict.NiceToHaveScores[nth]
			if !ok {
				s = model.NiceToHaveScore{Score: 0.5, Reason: "Not evaluated"}
			}
			niceToHaveDetails[nth] = s
		}
	} else {
		for _, nth := range niceToHaves {
			niceToHaveDetails[nth] = model.NiceToHaveScore{Score: 0.5, Reason: "LLM unavailable; default score"}
		}
	}

	niceToHaveScore := 1.0
	if len(niceToHaveDetails) > 0 {
		sum := 0.0
		for _, d := range niceToHaveDetails {
			sum += d.Score
		}
		niceToHaveScore = sum / float64(len(niceToHaveDetails))
	}

	// Weighted combination with a hard penalty when any must-have fails.
	nthWeighted := niceToHaveScore
	if !mustHavePass {
		nthWeighted *= r.weights.FailPenalty
	}
	overall := r.weights.MustHaveWeight*mustHaveRate + r.weights.NiceToHaveWeight*nthWeighted

	return model.RankedResult{
		OverallScore:    round4(overall),
		MustHavePass:    mustHavePass,
		NiceToHaveScore: round4(niceToHaveScore),
		Breakdown: model.ScoreBreakdown{
			MustHaveChecks:    allChecks,
			NiceToHaveDetails: niceToHaveDetails,
			MustHaveRate:      round4(mustHaveRate),
			Weights: model.ScoreWeights{
				MustHave:   r.weights.MustHaveWeight,
				NiceToHave: r.weights.NiceToHaveWeight,
			},
		},
	}
}

func round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}
