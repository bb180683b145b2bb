// Package nominatim geocodes free-form locations via the OpenStreetMap
// Nominatim API.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"golang.org/x/time/rate"
)

// Client geocodes location strings.
type Client interface {
	// Geocode resolves a free-form location to coordinates and a bounding
	// box. Result.Matched is false when the location is unknown.
	Geocode(ctx context.Context, location string) (*Result, error)
}

// Result holds the geocoding output for a location.
type Result struct {
	Latitude  float64
	Longitude float64
	Bounds    *geom.Bounds
	Matched   bool
}

// Option configures the geocoder.
type Option func(*geocoder)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(g *geocoder) {
		g.httpClient = hc
	}
}

// WithBaseURL overrides the Nominatim endpoint.
func WithBaseURL(baseURL string) Option {
	return func(g *geocoder) {
		g.baseURL = baseURL
	}
}

// WithUserAgent sets the User-Agent header. Nominatim's usage policy requires
// an identifying agent.
func WithUserAgent(ua string) Option {
	return func(g *geocoder) {
		g.userAgent = ua
	}
}

type geocoder struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string

	// Nominatim's usage policy caps clients at one request per second. The
	// mutex serializes concurrent searches so the limiter is the only gate.
	mu      sync.Mutex
	limiter *rate.Limiter
}

// NewClient creates a new geocoding Client with the given options.
func NewClient(opts ...Option) Client {
	g := &geocoder{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    "https://nominatim.openstreetmap.org",
		userAgent:  "homematch/1.0",
		limiter:    rate.NewLimiter(1, 1),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type searchResult struct {
	Lat         string   `json:"lat"`
	Lon         string   `json:"lon"`
	BoundingBox []string `json:"boundingbox"`
}

func (g *geocoder) Geocode(ctx context.Context, location string) (*Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "nominatim: rate limit wait")
	}

	q := url.Values{}
	q.Set("q", location)
	q.Set("format", "json")
	q.Set("limit", "1")

	reqURL := fmt.Sprintf("%s/search?%s", g.baseURL, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "nominatim: build request")
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "nominatim: search")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("nominatim: search returned %d", resp.StatusCode)
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, eris.Wrap(err, "nominatim: decode response")
	}
	if len(results) == 0 {
		return &Result{Matched: false}, nil
	}

	r := results[0]
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return nil, eris.Wrap(err, "nominatim: parse lat")
	}
	lon, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return nil, eris.Wrap(err, "nominatim: parse lon")
	}

	out := &Result{Latitude: lat, Longitude: lon, Matched: true}

	// boundingbox is [south, north, west, east] as strings.
	if len(r.BoundingBox) >= 4 {
		vals := make([]float64, 4)
		for i, s := range r.BoundingBox[:4] {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, eris.Wrapf(err, "nominatim: parse boundingbox[%d]", i)
			}
			vals[i] = v
		}
		south, north, west, east := vals[0], vals[1], vals[2], vals[3]
		out.Bounds = geom.NewBounds(geom.XY).Set(west, south, east, north)
	}

	return out, nil
}
