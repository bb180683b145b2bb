package model

import "time"

// Listing is a normalized property record. Source adapters are responsible for
// producing this canonical shape; nothing downstream coerces raw payloads.
// Nil pointer fields mean the source provided no data for that dimension,
// which is distinct from a zero value.
type Listing struct {
	ID            string   `json:"id"`
	ExternalID    string   `json:"external_id,omitempty"`
	RunID         string   `json:"run_id,omitempty"`
	RequirementID string   `json:"requirement_id"`
	Source        string   `json:"source"`
	Address       string   `json:"address"`
	Price         *float64 `json:"price,omitempty"`
	Bedrooms      *int     `json:"bedrooms,omitempty"`
	Bathrooms     *float64 `json:"bathrooms,omitempty"`
	Sqft          *int     `json:"sqft,omitempty"`
	PropertyType  string   `json:"property_type,omitempty"`
	Description   string   `json:"description,omitempty"`
	Neighborhood  string   `json:"neighborhood,omitempty"`
	ImageURL      string   `json:"image_url,omitempty"`
	ListingURL    string   `json:"listing_url,omitempty"`
	YearBuilt     *int     `json:"year_built,omitempty"`
	DaysOnMarket  *int     `json:"days_on_market,omitempty"`
	Latitude      *float64 `json:"latitude,omitempty"`
	Longitude     *float64 `json:"longitude,omitempty"`

	// RawJSON retains the source payload for audit and debugging.
	RawJSON   string    `json:"raw_json,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SourceMock tags listings produced by the built-in fallback fixture so they
// are distinguishable downstream from live source results.
const SourceMock = "mock"
