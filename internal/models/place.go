// internal/models/place.go
package models

// BusinessStatus values reported by the place provider.
const (
	StatusOperational       = "OPERATIONAL"
	StatusClosedTemporarily = "CLOSED_TEMPORARILY"
	StatusClosedPermanently = "CLOSED_PERMANENTLY"
)

type ExternalURIs struct {
	Maps    string `json:"maps,omitempty"`
	Website string `json:"website,omitempty"`
}

// PlaceCandidate is a provider place considered for a route. PlaceID is the
// identity key.
type PlaceCandidate struct {
	PlaceID      string        `json:"place_id"`
	Name         string        `json:"name"`
	Address      string        `json:"address,omitempty"`
	Coordinates  *LatLng       `json:"coordinates,omitempty"`
	Rating       *float64      `json:"rating,omitempty"`
	RatingCount  *int          `json:"rating_count,omitempty"`
	Categories   []string      `json:"categories"`
	Status       string        `json:"status,omitempty"`
	ExternalURIs *ExternalURIs `json:"external_uris,omitempty"`
}

// RatingOrZero is the rating used for ordering.
func (p PlaceCandidate) RatingOrZero() float64 {
	if p.Rating == nil {
		return 0
	}
	return *p.Rating
}

// RatingCountOrZero is the review count used for ordering.
func (p PlaceCandidate) RatingCountOrZero() int {
	if p.RatingCount == nil {
		return 0
	}
	return *p.RatingCount
}

// HasCategory reports whether category is already recorded.
func (p PlaceCandidate) HasCategory(category string) bool {
	for _, c := range p.Categories {
		if c == category {
			return true
		}
	}
	return false
}
