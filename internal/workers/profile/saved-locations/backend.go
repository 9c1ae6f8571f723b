// internal/workers/profile/saved-locations/backend.go
package savedlocations

import (
	"context"

	"rouvia/internal/models"
)

// Backend persists whole profiles keyed by user id.
//
// Load returns the stored profile, creating seed when none exists. Creation
// is a single create-if-absent operation, so concurrent first loads agree on
// one profile. Update runs fn against the current profile (seeded the same
// way) and persists it when fn reports a change; the read and write are one
// atomic unit on the backend.
type Backend interface {
	Name() string
	Load(ctx context.Context, userID string, seed *models.UserProfile) (*models.UserProfile, error)
	Update(ctx context.Context, userID string, seed *models.UserProfile, fn func(*models.UserProfile) bool) (bool, error)
}

func cloneProfile(p *models.UserProfile) *models.UserProfile {
	cp := *p
	cp.SavedLocations = append([]models.SavedLocation(nil), p.SavedLocations...)
	cp.VisitedPlaces = append([]models.VisitedPlace(nil), p.VisitedPlaces...)
	return &cp
}
