// internal/models/intent.go
package models

// ResolvedLocation is a saved location the user referred to by name.
type ResolvedLocation struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

// Intent is the validated result of intent extraction for one run.
type Intent struct {
	PlaceCategories      []string           `json:"place_categories"`
	LastDestination      string             `json:"last_destination"`
	SearchRadiusMeters   int                `json:"search_radius_meters"`
	PersonalLocations    []ResolvedLocation `json:"personal_locations"`
	UnmatchedSuggestions []string           `json:"unmatched_suggestions"`

	// Origin and OpenNow come from the request, not from extraction.
	Origin  *LatLng `json:"origin,omitempty"`
	OpenNow *bool   `json:"open_now,omitempty"`
}

// QuerySpec is one text-search request derived from an Intent category.
type QuerySpec struct {
	Category     string   `json:"category"`
	TextQuery    string   `json:"text_query"`
	Origin       *LatLng  `json:"origin,omitempty"`
	RadiusMeters *float64 `json:"radius_meters,omitempty"`
	OpenNow      *bool    `json:"open_now,omitempty"`
	ResultBudget int      `json:"result_budget"`
}

// HasLocationBias reports whether the spec carries a bias circle.
func (q QuerySpec) HasLocationBias() bool {
	return q.Origin != nil && q.RadiusMeters != nil
}
