// internal/workers/profile/saved-locations/defaults.go
package savedlocations

import (
	"time"

	"rouvia/internal/models"
)

// DefaultUserID is used when a request carries no user id.
const DefaultUserID = "default_test_user"

// DefaultProfile is the profile created on first access for userID.
func DefaultProfile(userID string, now time.Time) *models.UserProfile {
	return &models.UserProfile{
		UserID: userID,
		SavedLocations: []models.SavedLocation{
			{ID: "1", Name: "Home", Address: "423 Mayorview Dr, Burlington, ON L4E 9W2"},
			{ID: "2", Name: "Work", Address: "1003 Bloor St, Toronto, ON N2J 2J9"},
			{ID: "3", Name: "Gym", Address: "150 University Ave W, Waterloo, ON N2L 3E9"},
			{ID: "4", Name: "Daycare", Address: "200 Columbia St W, Waterloo, ON N2L 3L3"},
		},
		VisitedPlaces: []models.VisitedPlace{
			{
				PlaceName:    "Royal Ontario Museum",
				PlaceID:      "rom_museum_toronto",
				ActivityType: "entertainment",
				VisitedDate:  "2024-01-15",
				Location:     "Toronto, ON",
			},
			{
				PlaceName:    "Tim Hortons",
				PlaceID:      "tim_hortons_waterloo",
				ActivityType: "bites",
				VisitedDate:  "2024-01-20",
				Location:     "Waterloo, ON",
			},
		},
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
}

func normalizeUserID(userID string) string {
	if userID == "" {
		return DefaultUserID
	}
	return userID
}
