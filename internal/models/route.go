// internal/models/route.go
package models

const (
	StopSourcePersonal = "personal_location"
	StopSourceSearch   = "search"
)

// Stop is one entry of the planned route, in visit order.
type Stop struct {
	PlaceID      string        `json:"place_id,omitempty"`
	Name         string        `json:"name"`
	Address      string        `json:"address,omitempty"`
	Category     string        `json:"category,omitempty"`
	Coordinates  *LatLng       `json:"coordinates,omitempty"`
	Rating       *float64      `json:"rating,omitempty"`
	RatingCount  *int          `json:"rating_count,omitempty"`
	ExternalURIs *ExternalURIs `json:"external_uris,omitempty"`
	Source       string        `json:"source"`
	SavedID      string        `json:"saved_location_id,omitempty"`
}

// StopFromCandidate copies a candidate into a search-sourced stop.
func StopFromCandidate(c PlaceCandidate, category string) Stop {
	return Stop{
		PlaceID:      c.PlaceID,
		Name:         c.Name,
		Address:      c.Address,
		Category:     category,
		Coordinates:  c.Coordinates,
		Rating:       c.Rating,
		RatingCount:  c.RatingCount,
		ExternalURIs: c.ExternalURIs,
		Source:       StopSourceSearch,
	}
}

// StopFromPersonal turns a resolved saved location into a stop.
func StopFromPersonal(l ResolvedLocation) Stop {
	return Stop{
		Name:    l.Name,
		Address: l.Address,
		Source:  StopSourcePersonal,
		SavedID: l.ID,
	}
}

// RouteResponse is the assembled pipeline result.
type RouteResponse struct {
	Status          string        `json:"status"`
	Stops           []Stop        `json:"stops"`
	TranscribedText string        `json:"transcribed_text,omitempty"`
	Message         string        `json:"message"`
	Metadata        RouteMetadata `json:"metadata"`
}

type RouteMetadata struct {
	RunID                string             `json:"run_id"`
	PersonalLocations    []ResolvedLocation `json:"personal_locations"`
	UnmatchedSuggestions []string           `json:"unmatched_suggestions"`
	HasPersonalLocations bool               `json:"has_personal_locations"`
	CandidateCount       int                `json:"candidate_count"`
	SearchSkipped        bool               `json:"search_skipped"`
}
