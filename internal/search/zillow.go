package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/homematch/internal/model"
	"github.com/sells-group/homematch/pkg/nominatim"
	"github.com/sells-group/homematch/pkg/zillow"
)

type zillowSource struct {
	client   *zillow.Client
	geocoder nominatim.Client
}

func newZillowSource(deps Deps) (Source, error) {
	client, err := zillow.NewClient(deps.Config.Zillow.Key, deps.Config.Zillow.Host,
		zillow.WithBaseURL(deps.Config.Zillow.BaseURL))
	if err != nil {
		return nil, err
	}
	return &zillowSource{client: client, geocoder: deps.Geocoder}, nil
}

func (s *zillowSource) Name() string { return "zillow" }

func (s *zillowSource) Search(ctx context.Context, q Query) ([]model.Listing, error) {
	// Zillow scopes results to a map viewport, so geocode first. An unknown
	// location yields no results rather than an error.
	geo, err := s.geocoder.Geocode(ctx, q.Location)
	if err != nil {
		return nil, eris.Wrapf(err, "search: geocode %q", q.Location)
	}
	if !geo.Matched {
		zap.L().Warn("location not geocodable", zap.String("location", q.Location))
		return nil, nil
	}

	zq := zillow.SearchQuery{
		Location: q.Location,
		MaxPrice: q.MaxPrice,
		BedsMin:  q.MinBeds,
		BathsMin: q.MinBaths,
		SqftMin:  q.MinSqft,
	}
	if b := geo.Bounds; b != nil {
		zq.Bounds = &zillow.MapBounds{
			West:  b.Min(0),
			South: b.Min(1),
			East:  b.Max(0),
			North: b.Max(1),
		}
	}

	raws, err := s.client.Search(ctx, zq)
	if err != nil {
		return nil, err
	}

	listings := make([]model.Listing, 0, len(raws))
	for _, raw := range raws {
		listings = append(listings, mapZillowProperty(raw))
	}
	return listings, nil
}

// mapZillowProperty normalizes one real-estate101 property payload. The API
// mixes numeric and display-formatted fields: price is a string while
// unformattedPrice is numeric, livingArea looks like "1,010 sqft", and
// daysOnZillow looks like "1 day".
func mapZillowProperty(raw map[string]any) model.Listing {
	l := model.Listing{Source: "zillow"}

	if addr := rawMap(raw, "address"); addr != nil {
		parts := []string{}
		for _, k := range []string{"street", "city", "state", "zipcode"} {
			if v := rawString(addr, k); v != "" {
				parts = append(parts, v)
			}
		}
		l.Address = strings.Join(parts, ", ")
		l.Neighborhood = rawString(addr, "city")
	} else {
		l.Address = rawString(raw, "address")
	}

	if p := rawFloat(raw, "unformattedPrice"); p != nil {
		l.Price = p
	} else if p := rawInt(raw, "price"); p != nil {
		f := float64(*p)
		l.Price = &f
	}

	l.Bedrooms = rawInt(raw, "beds", "bedrooms")
	l.Bathrooms = rawFloat(raw, "baths", "bathrooms")
	l.Sqft = rawInt(raw, "livingArea", "area")
	l.DaysOnMarket = rawInt(raw, "daysOnZillow")
	l.YearBuilt = rawInt(raw, "yearBuilt")

	if ll := rawMap(raw, "latLong"); ll != nil {
		l.Latitude = rawFloat(ll, "latitude")
		l.Longitude = rawFloat(ll, "longitude")
	} else {
		l.Latitude = rawFloat(raw, "latitude")
		l.Longitude = rawFloat(raw, "longitude")
	}

	if detailURL := rawString(raw, "detailUrl"); detailURL != "" {
		if !strings.HasPrefix(detailURL, "http") {
			detailURL = "https://www.zillow.com" + detailURL
		}
		l.ListingURL = detailURL
	}

	switch id := raw["id"].(type) {
	case string:
		l.ExternalID = id
	case float64:
		l.ExternalID = fmt.Sprintf("%.0f", id)
	}
	if l.ExternalID == "" {
		switch zpid := raw["zpid"].(type) {
		case string:
			l.ExternalID = zpid
		case float64:
			l.ExternalID = fmt.Sprintf("%.0f", zpid)
		}
	}

	if homeType := rawString(raw, "homeType"); homeType != "" {
		l.PropertyType = strings.ReplaceAll(strings.ToLower(homeType), "_", " ")
	}

	l.Description = rawString(raw, "description")
	l.ImageURL = rawString(raw, "imgSrc", "hiResImageLink")

	if b, err := json.Marshal(raw); err == nil {
		l.RawJSON = string(b)
	}
	return l
}
