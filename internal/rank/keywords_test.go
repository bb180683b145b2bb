package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSemanticMustHaves(t *testing.T) {
	mustHaves := []string{
		"3 bedrooms",
		"good school district",
		"under budget",
		"quiet street",
		"2 bathrooms minimum",
		"walkable to downtown",
		"single family house",
		"at least 1500 sq ft",
	}

	got := SemanticMustHaves(mustHaves)
	assert.Equal(t, []string{
		"good school district",
		"quiet street",
		"walkable to downtown",
	}, got)
}

func TestSemanticMustHaves_Empty(t *testing.T) {
	assert.Nil(t, SemanticMustHaves(nil))
	assert.Nil(t, SemanticMustHaves([]string{"3 beds", "2 baths"}))
}

func TestIsQuantitativeMustHave_CaseInsensitive(t *testing.T) {
	assert.True(t, isQuantitativeMustHave("BUDGET under 500k"))
	assert.True(t, isQuantitativeMustHave("Townhouse preferred"))
	assert.False(t, isQuantitativeMustHave("near a park"))
}
