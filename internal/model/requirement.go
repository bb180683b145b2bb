package model

import "time"

// Requirement is the structured representation of a buyer's needs, extracted
// from one transcript (1:1). BudgetMax of 0 means unconstrained, never free;
// the same convention applies to MinBeds/MinBaths/MinSqft.
type Requirement struct {
	ID           string `json:"id"`
	TranscriptID string `json:"transcript_id"`

	ClientName        string   `json:"client_name"`
	BudgetMax         float64  `json:"budget_max"`
	Locations         []string `json:"locations"`
	MustHaves         []string `json:"must_haves"`
	NiceToHaves       []string `json:"nice_to_haves"`
	PropertyType      string   `json:"property_type"`
	MinBeds           int      `json:"min_beds"`
	MinBaths          int      `json:"min_baths"`
	MinSqft           int      `json:"min_sqft"`
	SchoolRequirement string   `json:"school_requirement"`
	Timeline          string   `json:"timeline"`
	FinancingType     string   `json:"financing_type"`
	ConfidenceScore   float64  `json:"confidence_score"`

	// Provenance: which provider/model produced the extraction. Never cleared,
	// even after a human edit.
	LLMProvider    string `json:"llm_provider"`
	LLMModel       string `json:"llm_model"`
	RawLLMResponse string `json:"raw_llm_response,omitempty"`

	IsEdited  bool      `json:"is_edited"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RequirementUpdate carries a human edit to a requirement. Nil fields are left
// unchanged. Applying any update sets IsEdited on the requirement.
type RequirementUpdate struct {
	ClientName        *string   `json:"client_name,omitempty"`
	BudgetMax         *float64  `json:"budget_max,omitempty"`
	Locations         *[]string `json:"locations,omitempty"`
	MustHaves         *[]string `json:"must_haves,omitempty"`
	NiceToHaves       *[]string `json:"nice_to_haves,omitempty"`
	PropertyType      *string   `json:"property_type,omitempty"`
	MinBeds           *int      `json:"min_beds,omitempty"`
	MinBaths          *int      `json:"min_baths,omitempty"`
	MinSqft           *int      `json:"min_sqft,omitempty"`
	SchoolRequirement *string   `json:"school_requirement,omitempty"`
	Timeline          *string   `json:"timeline,omitempty"`
	FinancingType     *string   `json:"financing_type,omitempty"`
}

// Apply copies the non-nil update fields onto r and marks it edited.
func (u RequirementUpdate) Apply(r *Requirement) {
	if u.ClientName != nil {
		r.ClientName = *u.ClientName
	}
	if u.BudgetMax != nil {
		r.BudgetMax = *u.BudgetMax
	}
	if u.Locations != nil {
		r.Locations = *u.Locations
	}
	if u.MustHaves != nil {
		r.MustHaves = *u.MustHaves
	}
	if u.NiceToHaves != nil {
		r.NiceToHaves = *u.NiceToHaves
	}
	if u.PropertyType != nil {
		r.PropertyType = *u.PropertyType
	}
	if u.MinBeds != nil {
		r.MinBeds = *u.MinBeds
	}
	if u.MinBaths != nil {
		r.MinBaths = *u.MinBaths
	}
	if u.MinSqft != nil {
		r.MinSqft = *u.MinSqft
	}
	if u.SchoolRequirement != nil {
		r.SchoolRequirement = *u.SchoolRequirement
	}
	if u.Timeline != nil {
		r.Timeline = *u.Timeline
	}
	if u.FinancingType != nil {
		r.FinancingType = *u.FinancingType
	}
	r.IsEdited = true
}
