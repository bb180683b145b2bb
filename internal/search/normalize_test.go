package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNumeric(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want *int
	}{
		{"nil", nil, nil},
		{"float", float64(1010), iptr(1010)},
		{"int", 3, iptr(3)},
		{"sqft string", "1,010 sqft", iptr(1010)},
		{"day string", "1 day", iptr(1)},
		{"plain string", "2200", iptr(2200)},
		{"no digits", "pending", nil},
		{"bool", true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseNumeric(tt.in)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func TestRawFloatFallbackKeys(t *testing.T) {
	m := map[string]any{"bathrooms": 2.5}
	got := rawFloat(m, "baths", "bathrooms")
	require.NotNil(t, got)
	assert.Equal(t, 2.5, *got)

	assert.Nil(t, rawFloat(m, "missing"))
}

func TestRawStringSkipsEmpty(t *testing.T) {
	m := map[string]any{"imgSrc": "", "hiResImageLink": "https://img.example/1.jpg"}
	assert.Equal(t, "https://img.example/1.jpg", rawString(m, "imgSrc", "hiResImageLink"))
}

func iptr(i int) *int { return &i }
