package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/homematch/internal/model"
)

func fptr(f float64) *float64 { return &f }
func iptr(i int) *int         { return &i }

func TestCheckNumeric_NoConstraint(t *testing.T) {
	res := checkNumeric(fptr(450000), 0, "budget", true)
	assert.True(t, res.Pass)
	assert.Equal(t, "No budget constraint", res.Reason)
}

func TestCheckNumeric_MissingData(t *testing.T) {
	res := checkNumeric(nil, 3, "beds", false)
	assert.False(t, res.Pass)
	assert.Equal(t, "Listing has no beds data", res.Reason)
}

func TestCheckNumeric_BudgetPass(t *testing.T) {
	res := checkNumeric(fptr(450000), 500000, "budget", true)
	assert.True(t, res.Pass)
	assert.Equal(t, "$450,000 budget <= $500,000 required", res.Reason)
}

func TestCheckNumeric_BudgetFail(t *testing.T) {
	res := checkNumeric(fptr(550000), 500000, "budget", true)
	assert.False(t, res.Pass)
	assert.Equal(t, "$550,000 budget > $500,000 required", res.Reason)
}

func TestCheckNumeric_BedsBoundary(t *testing.T) {
	res := checkNumeric(fptr(3), 3, "beds", false)
	assert.True(t, res.Pass)
	assert.Equal(t, "3 beds >= 3 required", res.Reason)
}

func TestCheckNumeric_SqftGrouping(t *testing.T) {
	res := checkNumeric(fptr(1800), 1500, "sqft", false)
	assert.True(t, res.Pass)
	assert.Equal(t, "1,800 sqft >= 1,500 required", res.Reason)
}

func TestCheckPropertyType(t *testing.T) {
	tests := []struct {
		name       string
		listing    string
		required   string
		wantPass   bool
		wantReason string
	}{
		{"no constraint", "house", "", true, "No property type constraint"},
		{"no data", "", "house", false, "Listing has no property type data"},
		{"case insensitive match", "House", "house", true, "Type 'House' matches required 'house'"},
		{"mismatch", "condo", "house", false, "Type 'condo' does not match required 'house'"},
		{"whitespace", " house ", "house", true, "Type ' house ' matches required 'house'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &model.Listing{PropertyType: tt.listing}
			r := &model.Requirement{PropertyType: tt.required}
			res := checkPropertyType(l, r)
			assert.Equal(t, tt.wantPass, res.Pass)
			assert.Equal(t, tt.wantReason, res.Reason)
		})
	}
}

func TestQuantitativeChecks_AllChecks(t *testing.T) {
	listing := &model.Listing{
		Price:        fptr(450000),
		Bedrooms:     iptr(3),
		Bathrooms:    fptr(2),
		Sqft:         iptr(1800),
		PropertyType: "house",
	}
	req := &model.Requirement{
		BudgetMax:    500000,
		MinBeds:      3,
		MinBaths:     2,
		MinSqft:      1500,
		PropertyType: "house",
	}

	checks := QuantitativeChecks(listing, req)
	assert.Len(t, checks, 5)
	for name, c := range checks {
		assert.True(t, c.Pass, "check %s: %s", name, c.Reason)
	}
}
