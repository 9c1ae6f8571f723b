// internal/workers/profile/saved-locations/store.go
package savedlocations

import (
	"context"
	"errors"
	"strconv"
	"time"

	apperrors "rouvia/internal/common/errors"
	"rouvia/internal/common/logger"
	"rouvia/internal/common/metrics"
	"rouvia/internal/models"
)

// Source names the backend that served a call.
type Source string

const (
	SourcePrimary  Source = "primary"
	SourceFallback Source = "fallback"
)

// Store is the saved-location service. Calls go to the primary backend and
// fall back to the local backend when the primary fails. The two backends
// are never synchronized.
type Store struct {
	primary  Backend
	fallback Backend
	timeout  time.Duration
	now      func() time.Time
	logger   logger.Logger
}

// NewStore builds a store. primary may be nil, in which case every call is
// served by fallback.
func NewStore(primary, fallback Backend, timeout time.Duration, log logger.Logger) *Store {
	return &Store{
		primary:  primary,
		fallback: fallback,
		timeout:  timeout,
		now:      time.Now,
		logger:   log.With(map[string]interface{}{"component": "saved-locations"}),
	}
}

// Get returns the user's profile, creating the default one on first access.
func (s *Store) Get(ctx context.Context, userID string) (*models.UserProfile, Source, error) {
	userID = normalizeUserID(userID)
	var out *models.UserProfile
	src, err := s.run(ctx, "get", userID, func(ctx context.Context, b Backend) error {
		p, err := b.Load(ctx, userID, DefaultProfile(userID, s.now()))
		out = p
		return err
	})
	return out, src, err
}

func (s *Store) SavedLocations(ctx context.Context, userID string) ([]models.SavedLocation, Source, error) {
	p, src, err := s.Get(ctx, userID)
	if err != nil {
		return nil, src, err
	}
	return p.SavedLocations, src, nil
}

// GetByID returns nil when the user has no saved location with id.
func (s *Store) GetByID(ctx context.Context, userID, id string) (*models.SavedLocation, Source, error) {
	p, src, err := s.Get(ctx, userID)
	if err != nil {
		return nil, src, err
	}
	if i := p.FindSaved(id); i >= 0 {
		loc := p.SavedLocations[i]
		return &loc, src, nil
	}
	return nil, src, nil
}

// Add appends a saved location and returns its id, which is the list length
// after the append. Ids are only unique within a user's list and may repeat
// after deletes.
func (s *Store) Add(ctx context.Context, userID, name, address string) (string, Source, error) {
	userID = normalizeUserID(userID)
	var id string
	src, err := s.mutate(ctx, "add", userID, func(p *models.UserProfile) bool {
		id = strconv.Itoa(len(p.SavedLocations) + 1)
		p.SavedLocations = append(p.SavedLocations, models.SavedLocation{ID: id, Name: name, Address: address})
		return true
	})
	if err != nil {
		return "", src, err
	}
	return id, src, nil
}

// Update reports false when id does not exist for the user.
func (s *Store) Update(ctx context.Context, userID, id, name, address string) (bool, Source, error) {
	userID = normalizeUserID(userID)
	found := false
	src, err := s.mutate(ctx, "update", userID, func(p *models.UserProfile) bool {
		found = false
		i := p.FindSaved(id)
		if i < 0 {
			return false
		}
		found = true
		p.SavedLocations[i].Name = name
		p.SavedLocations[i].Address = address
		return true
	})
	return found, src, err
}

// Delete reports false when id does not exist for the user.
func (s *Store) Delete(ctx context.Context, userID, id string) (bool, Source, error) {
	userID = normalizeUserID(userID)
	found := false
	src, err := s.mutate(ctx, "delete", userID, func(p *models.UserProfile) bool {
		found = false
		i := p.FindSaved(id)
		if i < 0 {
			return false
		}
		found = true
		p.SavedLocations = append(p.SavedLocations[:i], p.SavedLocations[i+1:]...)
		return true
	})
	return found, src, err
}

// RecordVisit appends a visit stamped with the current time.
func (s *Store) RecordVisit(ctx context.Context, userID string, visit models.VisitedPlace) (Source, error) {
	userID = normalizeUserID(userID)
	visit.VisitedDate = s.now().UTC().Format(time.RFC3339)
	return s.mutate(ctx, "record_visit", userID, func(p *models.UserProfile) bool {
		p.VisitedPlaces = append(p.VisitedPlaces, visit)
		return true
	})
}

func (s *Store) Visited(ctx context.Context, userID string) ([]models.VisitedPlace, Source, error) {
	p, src, err := s.Get(ctx, userID)
	if err != nil {
		return nil, src, err
	}
	return p.VisitedPlaces, src, nil
}

func (s *Store) mutate(ctx context.Context, op, userID string, fn func(*models.UserProfile) bool) (Source, error) {
	return s.run(ctx, op, userID, func(ctx context.Context, b Backend) error {
		_, err := b.Update(ctx, userID, DefaultProfile(userID, s.now()), func(p *models.UserProfile) bool {
			if !fn(p) {
				return false
			}
			p.UpdatedAt = s.now().UTC()
			return true
		})
		return err
	})
}

// run executes call on the primary and, if that fails, on the fallback.
// Caller cancellation is returned as is without touching the fallback.
func (s *Store) run(ctx context.Context, op, userID string, call func(context.Context, Backend) error) (Source, error) {
	var primaryErr error
	if s.primary != nil {
		primaryErr = s.call(ctx, op, s.primary, call)
		if primaryErr == nil {
			return SourcePrimary, nil
		}
		if ctx.Err() != nil {
			return SourcePrimary, ctx.Err()
		}
		s.logger.Warn("Primary store failed, using fallback", map[string]interface{}{
			"operation": op,
			"userId":    userID,
			"backend":   s.primary.Name(),
			"error":     primaryErr.Error(),
		})
	}

	if s.fallback == nil {
		return SourcePrimary, apperrors.NewStoreUnavailableError(primaryErr)
	}
	fallbackErr := s.call(ctx, op, s.fallback, call)
	if fallbackErr == nil {
		return SourceFallback, nil
	}

	s.logger.Error("Saved-location store unavailable", map[string]interface{}{
		"operation": op,
		"userId":    userID,
		"error":     fallbackErr.Error(),
	})
	return SourceFallback, apperrors.NewStoreUnavailableError(errors.Join(primaryErr, fallbackErr))
}

func (s *Store) call(ctx context.Context, op string, b Backend, call func(context.Context, Backend) error) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	err := call(ctx, b)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.StoreOperations.WithLabelValues(b.Name(), op, outcome).Inc()
	return err
}
