// internal/workers/route-planning/parse-route-intent/prompt.go
package parserouteintent

import (
	"strings"

	"rouvia/internal/models"
)

const extractionRules = `You extract destination CATEGORIES from a trip request.
Return a STRICT JSON object with these keys:
"place_types": an array of Google Places place types (lowercase snake_case) in the order the user wants to visit them. Do not include the user's saved locations here.
"last_destination": the last element of "place_types".
"search_radius_meters": an integer search radius in meters around the starting location. Default to 10000 when the user gives none.
"personal_locations": names from the saved locations list that the user wants to visit, in visit order. Use the saved names exactly.
If the user names only one destination, "last_destination" is that destination.
No extra text. No markdown. No code fences.`

func buildPrompt(req Request, saved []models.SavedLocation) string {
	var b strings.Builder
	b.WriteString(extractionRules)

	if len(saved) > 0 {
		b.WriteString("\nSaved locations: ")
		names := make([]string, len(saved))
		for i, l := range saved {
			names[i] = l.Name
		}
		b.WriteString(strings.Join(names, ", "))
	}
	if req.Origin != nil {
		b.WriteString("\nStarting location: ")
		b.WriteString(req.Origin.String())
	}
	b.WriteString("\nUser text: ")
	b.WriteString(req.Text)
	return b.String()
}
