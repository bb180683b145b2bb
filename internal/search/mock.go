package search

import (
	"context"
	_ "embed"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/homematch/internal/model"
)

//go:embed mock_listings.yaml
var mockListingsYAML []byte

type mockSource struct {
	listings []model.Listing
}

func newMockSource(Deps) (Source, error) {
	listings, err := loadMockListings()
	if err != nil {
		return nil, err
	}
	return &mockSource{listings: listings}, nil
}

func loadMockListings() ([]model.Listing, error) {
	var doc struct {
		Listings []struct {
			ExternalID   string  `yaml:"external_id"`
			Address      string  `yaml:"address"`
			Price        float64 `yaml:"price"`
			Bedrooms     int     `yaml:"bedrooms"`
			Bathrooms    float64 `yaml:"bathrooms"`
			Sqft         int     `yaml:"sqft"`
			PropertyType string  `yaml:"property_type"`
			Description  string  `yaml:"description"`
			Neighborhood string  `yaml:"neighborhood"`
		} `yaml:"listings"`
	}
	if err := yaml.Unmarshal(mockListingsYAML, &doc); err != nil {
		return nil, eris.Wrap(err, "search: parse mock listings")
	}

	listings := make([]model.Listing, 0, len(doc.Listings))
	for _, m := range doc.Listings {
		m := m
		listings = append(listings, model.Listing{
			ExternalID:   m.ExternalID,
			Source:       model.SourceMock,
			Address:      m.Address,
			Price:        &m.Price,
			Bedrooms:     &m.Bedrooms,
			Bathrooms:    &m.Bathrooms,
			Sqft:         &m.Sqft,
			PropertyType: m.PropertyType,
			Description:  m.Description,
			Neighborhood: m.Neighborhood,
		})
	}
	return listings, nil
}

func (s *mockSource) Name() string { return model.SourceMock }

func (s *mockSource) Search(_ context.Context, _ Query) ([]model.Listing, error) {
	out := make([]model.Listing, len(s.listings))
	copy(out, s.listings)
	return out, nil
}
