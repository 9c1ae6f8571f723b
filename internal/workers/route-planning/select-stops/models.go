// internal/workers/route-planning/select-stops/models.go
package selectstops

import "rouvia/internal/models"

// promptCandidate is the compact candidate form sent to the model.
type promptCandidate struct {
	PlaceID     string         `json:"place_id"`
	Name        string         `json:"name"`
	Address     string         `json:"address,omitempty"`
	Rating      *float64       `json:"rating,omitempty"`
	RatingCount *int           `json:"rating_count,omitempty"`
	Categories  []string       `json:"categories"`
	Coordinates *models.LatLng `json:"coordinates,omitempty"`
}

type promptIntent struct {
	PlaceCategories []string       `json:"place_types"`
	LastDestination string         `json:"last_destination"`
	Origin          *models.LatLng `json:"starting_location,omitempty"`
}

type selection struct {
	Stops []struct {
		PlaceID  string `json:"place_id"`
		Category string `json:"category"`
	} `json:"stops"`
}

const selectionSchema = `{
	"type": "object",
	"required": ["stops"],
	"properties": {
		"stops": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["place_id"],
				"properties": {
					"place_id": {"type": "string", "minLength": 1},
					"category": {"type": ["string", "null"]}
				}
			}
		}
	}
}`
