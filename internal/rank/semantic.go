package rank

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/homematch/internal/llm"
	"github.com/sells-group/homematch/internal/model"
)

const rankingSystemPrompt = `You are a real estate listing evaluation specialist.

You will be given:
1. A list of client requirements (semantic must-haves and nice-to-haves)
2. Multiple property listings with their descriptions and attributes

For each listing, evaluate EVERY semantic must-have and nice-to-have requirement.

You must output ONLY a valid JSON object with this structure:
{
  "listings": {
    "<listing_id>": {
      "must_have_checks": {
        "<must_have_text>": {
          "pass": true/false,
          "reason": "brief explanation"
        }
      },
      "nice_to_have_scores": {
        "<nice_to_have_text>": {
          "score": 0.0 to 1.0,
          "reason": "brief explanation"
        }
      }
    }
  }
}

EVALUATION RULES:
1. For must_have_checks: return true only if the listing clearly satisfies the requirement based on available information. If uncertain, return false.
2. For nice_to_have_scores: 1.0 means perfectly satisfied, 0.5 means partially, 0.0 means not at all. Use 0.3 if information is insufficient to determine.
3. Base evaluations on the listing description, neighborhood, property type, and all available attributes.
4. Be specific in your reasons. Reference concrete details from the listing.
5. Return ONLY the JSON object. No markdown, no explanation, no wrapping.`

// Verdict is the per-listing result of the semantic evaluation.
type Verdict struct {
	MustHaveChecks   map[string]model.CheckResult     `json:"must_have_checks"`
	NiceToHaveScores map[string]model.NiceToHaveScore `json:"nice_to_have_scores"`
}

func (v Verdict) empty() bool {
	return len(v.MustHaveChecks) == 0 && len(v.NiceToHaveScores) == 0
}

// Evaluator runs the LLM half of ranking.
type Evaluator struct {
	provider llm.Provider
}

// NewEvaluator builds an Evaluator on the given provider.
func NewEvaluator(provider llm.Provider) *Evaluator {
	return &Evaluator{provider: provider}
}

// Evaluate asks the LLM to judge the semantic must-haves and nice-to-haves
// for every listing in one call. Returns a map keyed by listing ID, or nil
// when there is nothing to evaluate or the call fails. Ranking degrades to
// quantitative-only scoring on a nil result, so failures are logged here and
// never propagated.
func (e *Evaluator) Evaluate(ctx context.Context, semanticMustHaves, niceToHaves []string, listings []model.Listing) map[string]Verdict {
	if len(semanticMustHaves) == 0 && len(niceToHaves) == 0 {
		return nil
	}

	user := buildRankingUserPrompt(semanticMustHaves, niceToHaves, listings)
	raw, err := e.provider.Complete(ctx, rankingSystemPrompt, user)
	if err != nil {
		zap.L().Error("llm ranking call failed", zap.Error(err))
		return nil
	}

	verdicts, err := parseRankingResponse(raw)
	if err != nil {
		preview := raw
		if len(preview) > 500 {
			preview = preview[:500]
		}
		zap.L().Error("llm ranking response invalid",
			zap.Error(err),
			zap.String("response_head", preview))
		return nil
	}
	return verdicts
}

// parseRankingResponse accepts either the canonical {"listings": {...}}
// envelope or the bare per-listing map.
func parseRankingResponse(raw string) (map[string]Verdict, error) {
	cleaned := llm.CleanJSON(raw)

	var envelope struct {
		Listings map[string]Verdict `json:"listings"`
	}
	if err := json.Unmarshal([]byte(cleaned), &envelope); err == nil && len(envelope.Listings) > 0 {
		return envelope.Listings, nil
	}

	var bare map[string]Verdict
	if err := json.Unmarshal([]byte(cleaned), &bare); err != nil {
		return nil, err
	}
	if len(bare) == 0 {
		return nil, fmt.Errorf("rank: empty ranking response")
	}
	return bare, nil
}

func buildRankingUserPrompt(semanticMustHaves, niceToHaves []string, listings []model.Listing) string {
	var sb strings.Builder
	for _, l := range listings {
		priceStr := "N/A"
		if l.Price != nil {
			priceStr = printer.Sprintf("$%.0f", *l.Price)
		}
		desc := l.Description
		if desc == "" {
			desc = "No description available"
		}
		if len(desc) > 300 {
			desc = desc[:297] + "..."
		}

		fmt.Fprintf(&sb, "\n--- LISTING ID: %s ---\n", l.ID)
		fmt.Fprintf(&sb, "Address: %s\n", orNA(l.Address))
		fmt.Fprintf(&sb, "Price: %s\n", priceStr)
		fmt.Fprintf(&sb, "Bedrooms: %s\n", intOrNA(l.Bedrooms))
		fmt.Fprintf(&sb, "Bathrooms: %s\n", floatOrNA(l.Bathrooms))
		fmt.Fprintf(&sb, "Sqft: %s\n", intOrNA(l.Sqft))
		fmt.Fprintf(&sb, "Property Type: %s\n", orNA(l.PropertyType))
		fmt.Fprintf(&sb, "Neighborhood: %s\n", orNA(l.Neighborhood))
		fmt.Fprintf(&sb, "Year Built: %s\n", intOrNA(l.YearBuilt))
		fmt.Fprintf(&sb, "Days on Market: %s\n", intOrNA(l.DaysOnMarket))
		fmt.Fprintf(&sb, "Description: %s\n", desc)
	}

	return fmt.Sprintf(
		"Evaluate the following %d listings against these client requirements.\n\n"+
			"SEMANTIC MUST-HAVES (deal-breakers):\n%s\n\n"+
			"NICE-TO-HAVES (preferences):\n%s\n\n"+
			"LISTINGS:\n%s\n"+
			"Evaluate every listing against every requirement. Return ONLY the JSON object.",
		len(listings), bulletList(semanticMustHaves), bulletList(niceToHaves), sb.String(),
	)
}

func bulletList(items []string) string {
	if len(items) == 0 {
		return "- (none)"
	}
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "- " + item
	}
	return strings.Join(lines, "\n")
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func intOrNA(p *int) string {
	if p == nil {
		return "N/A"
	}
	return fmt.Sprintf("%d", *p)
}

func floatOrNA(p *float64) string {
	if p == nil {
		return "N/A"
	}
	return formatValue(*p, "")
}
