package search

import (
	"context"
	"sync"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/homematch/internal/config"
	"github.com/sells-group/homematch/internal/model"
)

type fakeSource struct {
	name     string
	listings []model.Listing
	err      error

	mu      sync.Mutex
	queries []Query
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Search(_ context.Context, q Query) ([]model.Listing, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()
	return f.listings, f.err
}

type fakeListingStore struct {
	saved []model.Listing
	err   error
}

func (f *fakeListingStore) CreateListings(_ context.Context, listings []model.Listing) ([]model.Listing, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.saved = listings
	return listings, nil
}

func searchCfg() config.SearchConfig {
	return config.SearchConfig{MaxConcurrent: 2, TimeoutSecs: 5, MaxPerLocation: 20}
}

func testRequirement() *model.Requirement {
	return &model.Requirement{
		ID:        "req-1",
		BudgetMax: 500000,
		MinBeds:   3,
		Locations: []string{"Springfield, IL", "Shelbyville, IL"},
	}
}

func TestSearchListingsFansOutPerSourceAndLocation(t *testing.T) {
	src := &fakeSource{name: "zillow", listings: []model.Listing{{Address: "123 Oak Street"}}}
	st := &fakeListingStore{}
	agg := NewAggregator([]Source{src}, st, searchCfg())

	listings, err := agg.SearchListings(context.Background(), "run-1", testRequirement())
	require.NoError(t, err)

	assert.Len(t, src.queries, 2)
	assert.Len(t, listings, 2)
	for _, l := range listings {
		assert.Equal(t, "run-1", l.RunID)
		assert.Equal(t, "req-1", l.RequirementID)
	}
	assert.Equal(t, listings, st.saved)
}

func TestSearchListingsQueryCarriesConstraints(t *testing.T) {
	src := &fakeSource{name: "zillow", listings: []model.Listing{{Address: "a"}}}
	agg := NewAggregator([]Source{src}, &fakeListingStore{}, searchCfg())

	req := testRequirement()
	req.Locations = []string{"Springfield, IL"}
	_, err := agg.SearchListings(context.Background(), "run-1", req)
	require.NoError(t, err)

	require.Len(t, src.queries, 1)
	q := src.queries[0]
	assert.Equal(t, "Springfield, IL", q.Location)
	assert.Equal(t, 500000, q.MaxPrice)
	assert.Equal(t, 3, q.MinBeds)
}

func TestSearchListingsSkipsFailedSource(t *testing.T) {
	broken := &fakeSource{name: "zillow", err: eris.New("rate limited")}
	working := &fakeSource{name: "realtor", listings: []model.Listing{{Address: "456 Maple Avenue"}}}
	agg := NewAggregator([]Source{broken, working}, &fakeListingStore{}, searchCfg())

	req := testRequirement()
	req.Locations = []string{"Springfield, IL"}
	listings, err := agg.SearchListings(context.Background(), "run-1", req)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "456 Maple Avenue", listings[0].Address)
}

func TestSearchListingsFallsBackToFixtureWhenEmpty(t *testing.T) {
	empty := &fakeSource{name: "zillow"}
	agg := NewAggregator([]Source{empty}, &fakeListingStore{}, searchCfg())

	listings, err := agg.SearchListings(context.Background(), "run-1", testRequirement())
	require.NoError(t, err)
	require.Len(t, listings, 3)
	for _, l := range listings {
		assert.Equal(t, model.SourceMock, l.Source)
		assert.Equal(t, "run-1", l.RunID)
	}
	assert.Equal(t, "123 Oak Street, Springfield", listings[0].Address)
}

func TestSearchListingsDefaultsLocation(t *testing.T) {
	src := &fakeSource{name: "zillow", listings: []model.Listing{{Address: "a"}}}
	agg := NewAggregator([]Source{src}, &fakeListingStore{}, searchCfg())

	req := testRequirement()
	req.Locations = nil
	_, err := agg.SearchListings(context.Background(), "run-1", req)
	require.NoError(t, err)

	require.Len(t, src.queries, 1)
	assert.Equal(t, "United States", src.queries[0].Location)
}

func TestSearchListingsTruncatesPerCall(t *testing.T) {
	src := &fakeSource{name: "zillow", listings: []model.Listing{
		{Address: "a"}, {Address: "b"}, {Address: "c"},
	}}
	cfg := searchCfg()
	cfg.MaxPerLocation = 2
	agg := NewAggregator([]Source{src}, &fakeListingStore{}, cfg)

	req := testRequirement()
	req.Locations = []string{"Springfield, IL"}
	listings, err := agg.SearchListings(context.Background(), "run-1", req)
	require.NoError(t, err)
	assert.Len(t, listings, 2)
}

func TestSearchListingsPersistFailure(t *testing.T) {
	src := &fakeSource{name: "zillow", listings: []model.Listing{{Address: "a"}}}
	st := &fakeListingStore{err: eris.New("connection reset")}
	agg := NewAggregator([]Source{src}, st, searchCfg())

	req := testRequirement()
	req.Locations = []string{"Springfield, IL"}
	_, err := agg.SearchListings(context.Background(), "run-1", req)
	require.Error(t, err)
}

func TestLoadMockListings(t *testing.T) {
	listings, err := loadMockListings()
	require.NoError(t, err)
	require.Len(t, listings, 3)

	first := listings[0]
	assert.Equal(t, model.SourceMock, first.Source)
	require.NotNil(t, first.Price)
	assert.Equal(t, 450000.0, *first.Price)
	require.NotNil(t, first.Bedrooms)
	assert.Equal(t, 3, *first.Bedrooms)
	assert.Equal(t, "townhouse", listings[2].PropertyType)
}
