// internal/models/profile.go
package models

import "time"

type SavedLocation struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

type VisitedPlace struct {
	PlaceName    string `json:"place_name"`
	PlaceID      string `json:"place_id"`
	ActivityType string `json:"activity_type"`
	VisitedDate  string `json:"visited_date"`
	Location     string `json:"location"`
}

// UserProfile owns a user's saved locations and visit history.
type UserProfile struct {
	UserID         string          `json:"user_id"`
	SavedLocations []SavedLocation `json:"saved_locations"`
	VisitedPlaces  []VisitedPlace  `json:"visited_places"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// FindSaved returns the index of the saved location with id, or -1.
func (p *UserProfile) FindSaved(id string) int {
	for i, l := range p.SavedLocations {
		if l.ID == id {
			return i
		}
	}
	return -1
}
