package rank

import "strings"

// quantitativeKeywords marks must-haves already covered by the algorithmic
// checks. Sending "3 bedrooms" to the LLM would double-count a constraint the
// numeric checks enforce exactly.
var quantitativeKeywords = []string{
	"bedroom", "bed", "bath", "bathroom", "budget", "price",
	"sqft", "square feet", "square foot", "sq ft",
	"property type", "house", "condo", "townhouse",
}

func isQuantitativeMustHave(mustHave string) bool {
	lower := strings.ToLower(mustHave)
	for _, kw := range quantitativeKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// SemanticMustHaves filters a requirement's must-haves down to the items that
// need LLM evaluation.
func SemanticMustHaves(mustHaves []string) []string {
	var out []string
	for _, mh := range mustHaves {
		if !isQuantitativeMustHave(mh) {
			out = append(out, mh)
		}
	}
	return out
}
