// Package realtor searches Realtor.com listings through the RapidAPI
// realtor16 gateway.
package realtor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// SearchQuery holds the filters for one for-sale search. Zero values mean
// unconstrained.
type SearchQuery struct {
	Location string
	MaxPrice int
	BedsMin  int
	BathsMin int
	SqftMin  int
}

// Client calls the realtor16 for-sale search endpoint.
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

// NewClient creates a Realtor search client. The key and host are RapidAPI
// credentials.
func NewClient(apiKey, host string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, eris.New("realtor: api key not configured")
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

// Search runs a for-sale search and returns the raw property payloads.
func (c *Client) Search(ctx context.Context, q SearchQuery) ([]map[string]any, error) {
	params := url.Values{}
	params.Set("location", q.Location)
	params.Set("search_radius", "0")
	if q.MaxPrice > 0 {
		params.Set("price_max", strconv.Itoa(q.MaxPrice))
	}
	if q.BedsMin > 0 {
		params.Set("beds_min", strconv.Itoa(q.BedsMin))
	}
	if q.BathsMin > 0 {
		params.Set("baths_min", strconv.Itoa(q.BathsMin))
	}
	if q.SqftMin > 0 {
		params.Set("sqft_min", strconv.Itoa(q.SqftMin))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/search/forsale?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "realtor: build request")
	}
	req.Header.Set("x-rapidapi-key", c.apiKey)
	req.Header.Set("x-rapidapi-host", c.host)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "realtor: search request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("realtor: search returned %d", resp.StatusCode)
	}

	var body struct {
		Properties []map[string]any `json:"properties"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, eris.Wrap(err, "realtor: decode response")
	}

	zap.L().Info("realtor search complete",
		zap.String("location", q.Location),
		zap.Int("results", len(body.Properties)))
	return body.Properties, nil
}
