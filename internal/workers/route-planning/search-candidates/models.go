// internal/workers/route-planning/search-candidates/models.go
package searchcandidates

import "rouvia/internal/models"

// Input is an ad-hoc search over explicit query strings.
type Input struct {
	Queries    []string    `json:"queries"`
	Lat        *float64    `json:"lat,omitempty"`
	Lng        *float64    `json:"lng,omitempty"`
	RadiusM    interface{} `json:"radius_m,omitempty"`
	OpenNow    *bool       `json:"open_now,omitempty"`
	MinRating  *float64    `json:"min_rating,omitempty"`
	MaxResults int         `json:"max_results,omitempty"`
}

type Output struct {
	Specs      []models.QuerySpec      `json:"specs"`
	Candidates []models.PlaceCandidate `json:"candidates"`
	Count      int                     `json:"count"`
}
