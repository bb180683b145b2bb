// Package zillow searches Zillow listings through the RapidAPI
// real-estate101 gateway.
package zillow

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// MapBounds is the viewport sent with a search. Zillow scopes results to the
// visible map, so a missing viewport returns listings from anywhere.
type MapBounds struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// SearchQuery holds the filters for one search. Zero values mean
// unconstrained.
type SearchQuery struct {
	Location string
	Bounds   *MapBounds
	MaxPrice int
	BedsMin  int
	BathsMin int
	SqftMin  int
}

// Client calls the real-estate101 search-by-URL endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	host       string
	apiKey     string
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL overrides the API endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// NewClient creates a Zillow search client. The key and host are RapidAPI
// credentials.
func NewClient(apiKey, host string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, eris.New("zillow: api key not configured")
	}
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    "https://" + host,
		host:       host,
		apiKey:     apiKey,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

var slugNonAlnum = regexp.MustCompile(`[^a-z0-9-]`)
var slugDashes = regexp.MustCompile(`-+`)
var slugSpaces = regexp.MustCompile(`\s+`)

// locationSlug converts "New York, NY" into the "new-york-ny" form Zillow
// URLs use.
func locationSlug(location string) string {
	slug := strings.ToLower(strings.TrimSpace(location))
	slug = strings.ReplaceAll(slug, ".", "")
	slug = strings.ReplaceAll(slug, ",", " ")
	slug = slugSpaces.ReplaceAllString(strings.TrimSpace(slug), " ")
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = slugNonAlnum.ReplaceAllString(slug, "")
	slug = slugDashes.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

type rangeFilter struct {
	Min int `json:"min,omitempty"`
	Max int `json:"max,omitempty"`
}

// buildSearchURL assembles the zillow.com URL whose searchQueryState encodes
// the filters. The RapidAPI gateway scrapes whatever this URL would show.
func buildSearchURL(q SearchQuery) (string, error) {
	filterState := map[string]any{
		"sort": map[string]string{"value": "globalrelevanceex"},
	}
	if q.MaxPrice > 0 {
		filterState["price"] = rangeFilter{Max: q.MaxPrice}
	}
	if q.BedsMin > 0 {
		filterState["beds"] = rangeFilter{Min: q.BedsMin}
	}
	if q.BathsMin > 0 {
		filterState["baths"] = rangeFilter{Min: q.BathsMin}
	}
	if q.SqftMin > 0 {
		filterState["sqft"] = rangeFilter{Min: q.SqftMin}
	}

	state := map[string]any{
		"isMapVisible":    true,
		"isListVisible":   true,
		"filterState":     filterState,
		"usersSearchTerm": q.Location,
	}
	if q.Bounds != nil {
		state["mapBounds"] = q.Bounds
	}

	encoded, err := json.Marshal(state)
	if err != nil {
		return "", eris.Wrap(err, "zillow: marshal search state")
	}
	return "https://www.zillow.com/" + locationSlug(q.Location) + "/?searchQueryState=" + url.QueryEscape(string(encoded)), nil
}

// Search runs a search and returns the raw property payloads.
func (c *Client) Search(ctx context.Context, q SearchQuery) ([]map[string]any, error) {
	searchURL, err := buildSearchURL(q)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("url", searchURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/search/byurl?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "zillow: build request")
	}
	req.Header.Set("x-rapidapi-key", c.apiKey)
	req.Header.Set("x-rapidapi-host", c.host)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "zillow: search request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("zillow: search returned %d", resp.StatusCode)
	}

	var body struct {
		Results    []map[string]any `json:"results"`
		TotalCount int              `json:"totalCount"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, eris.Wrap(err, "zillow: decode response")
	}

	zap.L().Info("zillow search complete",
		zap.String("location", q.Location),
		zap.Int("results", len(body.Results)),
		zap.Int("total_count", body.TotalCount))
	return body.Results, nil
}
