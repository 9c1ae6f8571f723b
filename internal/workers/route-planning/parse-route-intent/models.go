// internal/workers/route-planning/parse-route-intent/models.go
package parserouteintent

import "rouvia/internal/models"

// Request is one intent-extraction call.
type Request struct {
	Text   string
	Origin *models.LatLng
	UserID string
}

// extraction is the collaborator payload after schema validation.
type extraction struct {
	PlaceTypes         []string    `json:"place_types"`
	LastDestination    string      `json:"last_destination"`
	SearchRadiusMeters interface{} `json:"search_radius_meters"`
	PersonalLocations  []string    `json:"personal_locations"`
}

const extractionSchema = `{
	"type": "object",
	"required": ["place_types"],
	"properties": {
		"place_types": {
			"type": "array",
			"items": {"type": "string"}
		},
		"last_destination": {"type": ["string", "null"]},
		"search_radius_meters": {"type": ["number", "string", "null"]},
		"personal_locations": {
			"type": ["array", "null"],
			"items": {"type": "string"}
		}
	}
}`
