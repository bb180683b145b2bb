package search

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/sells-group/homematch/internal/model"
	"github.com/sells-group/homematch/pkg/realtor"
)

type realtorSource struct {
	client *realtor.Client
}

func newRealtorSource(deps Deps) (Source, error) {
	client, err := realtor.NewClient(deps.Config.Realtor.Key, deps.Config.Realtor.Host,
		realtor.WithBaseURL(deps.Config.Realtor.BaseURL))
	if err != nil {
		return nil, err
	}
	return &realtorSource{client: client}, nil
}

func (s *realtorSource) Name() string { return "realtor" }

func (s *realtorSource) Search(ctx context.Context, q Query) ([]model.Listing, error) {
	raws, err := s.client.Search(ctx, realtor.SearchQuery{
		Location: q.Location,
		MaxPrice: q.MaxPrice,
		BedsMin:  q.MinBeds,
		BathsMin: q.MinBaths,
		SqftMin:  q.MinSqft,
	})
	if err != nil {
		return nil, err
	}

	listings := make([]model.Listing, 0, len(raws))
	for _, raw := range raws {
		listings = append(listings, mapRealtorProperty(raw))
	}
	return listings, nil
}

// mapRealtorProperty normalizes one realtor16 property payload. Address and
// coordinates live under location.address, size attributes under description.
func mapRealtorProperty(raw map[string]any) model.Listing {
	l := model.Listing{Source: "realtor"}

	if loc := rawMap(raw, "location"); loc != nil {
		if addr := rawMap(loc, "address"); addr != nil {
			parts := []string{}
			for _, k := range []string{"line", "city", "state_code", "postal_code"} {
				if v := rawString(addr, k); v != "" {
					parts = append(parts, v)
				}
			}
			l.Address = strings.Join(parts, ", ")
			l.Neighborhood = rawString(addr, "city")
			if coord := rawMap(addr, "coordinate"); coord != nil {
				l.Latitude = rawFloat(coord, "lat")
				l.Longitude = rawFloat(coord, "lon")
			}
		}
	}

	l.Price = rawFloat(raw, "list_price")

	if desc := rawMap(raw, "description"); desc != nil {
		l.Bedrooms = rawInt(desc, "beds")
		l.Bathrooms = rawFloat(desc, "baths", "baths_consolidated")
		l.Sqft = rawInt(desc, "sqft")
		l.YearBuilt = rawInt(desc, "year_built")
		if t := rawString(desc, "type"); t != "" {
			l.PropertyType = strings.ReplaceAll(strings.ToLower(t), "_", " ")
		}
		l.Description = rawString(desc, "text")
	}

	l.ExternalID = rawString(raw, "property_id", "listing_id")
	if photo := rawMap(raw, "primary_photo"); photo != nil {
		l.ImageURL = rawString(photo, "href")
	}
	if permalink := rawString(raw, "permalink"); permalink != "" {
		l.ListingURL = "https://www.realtor.com/realestateandhomes-detail/" + permalink
	}
	l.DaysOnMarket = rawInt(raw, "days_on_market")

	if b, err := json.Marshal(raw); err == nil {
		l.RawJSON = string(b)
	}
	return l
}
