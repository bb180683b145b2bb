package zillow

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocationSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"New York, NY", "new-york-ny"},
		{"St. Louis, MO", "st-louis-mo"},
		{"  Austin  ", "austin"},
		{"São Paulo", "so-paulo"},
		{"washington, d.c.", "washington-dc"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, locationSlug(tt.in), tt.in)
	}
}

func TestBuildSearchURL(t *testing.T) {
	raw, err := buildSearchURL(SearchQuery{
		Location: "Springfield, IL",
		MaxPrice: 500000,
		BedsMin:  3,
		Bounds:   &MapBounds{North: 40.0, South: 39.0, East: -89.0, West: -90.0},
	})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(raw, "https://www.zillow.com/springfield-il/?searchQueryState="))

	encoded := strings.TrimPrefix(raw, "https://www.zillow.com/springfield-il/?searchQueryState=")
	decoded, err := url.QueryUnescape(encoded)
	require.NoError(t, err)

	var state map[string]any
	require.NoError(t, json.Unmarshal([]byte(decoded), &state))
	assert.Equal(t, "Springfield, IL", state["usersSearchTerm"])

	filters := state["filterState"].(map[string]any)
	assert.Equal(t, 500000.0, filters["price"].(map[string]any)["max"])
	assert.Equal(t, 3.0, filters["beds"].(map[string]any)["min"])
	assert.NotContains(t, filters, "baths")
	assert.Equal(t, 40.0, state["mapBounds"].(map[string]any)["north"])
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient("", "host.example.com")
	assert.Error(t, err)
}

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/search/byurl", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-rapidapi-key"))
		assert.Contains(t, r.URL.Query().Get("url"), "zillow.com")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results": [{"zpid": "123", "unformattedPrice": 450000}], "totalCount": 1}`))
	}))
	defer srv.Close()

	c, err := NewClient("test-key", "host.example.com", WithBaseURL(srv.URL))
	require.NoError(t, err)

	results, err := c.Search(context.Background(), SearchQuery{Location: "Springfield"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "123", results[0]["zpid"])
}

func TestSearch_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c, err := NewClient("test-key", "host.example.com", WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = c.Search(context.Background(), SearchQuery{Location: "Springfield"})
	assert.ErrorContains(t, err, "403")
}
