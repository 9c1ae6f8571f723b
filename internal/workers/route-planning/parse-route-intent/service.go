// internal/workers/route-planning/parse-route-intent/service.go
package parserouteintent

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"strings"
	"time"

	apperrors "rouvia/internal/common/errors"
	"rouvia/internal/common/gemini"
	"rouvia/internal/common/logger"
	"rouvia/internal/common/validation"
	"rouvia/internal/models"
	savedlocations "rouvia/internal/workers/profile/saved-locations"
	searchcandidates "rouvia/internal/workers/route-planning/search-candidates"
)

// SavedLocationSource lists a user's saved locations.
type SavedLocationSource interface {
	SavedLocations(ctx context.Context, userID string) ([]models.SavedLocation, savedlocations.Source, error)
}

var schema = validation.MustCompile("route-intent", extractionSchema)

// Service asks the language model for a structured intent and resolves the
// user's personal locations against their saved list.
type Service struct {
	config    *Config
	generator gemini.Generator
	saved     SavedLocationSource
	logger    logger.Logger
}

func NewService(config *Config, generator gemini.Generator, saved SavedLocationSource, log logger.Logger) *Service {
	return &Service{
		config:    config,
		generator: generator,
		saved:     saved,
		logger:    log.With(map[string]interface{}{"stage": "parse-route-intent"}),
	}
}

func (s *Service) Parse(ctx context.Context, req Request) (*models.Intent, error) {
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		return nil, apperrors.NewValidationError("text is required")
	}

	saved := s.savedLocations(ctx, req.UserID)

	genCtx := ctx
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := s.generator.GenerateJSON(genCtx, buildPrompt(req, saved))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, apperrors.NewIntentParseError("", err)
	}

	ext, err := s.decode(raw)
	if err != nil {
		return nil, err
	}

	res := resolvePersonal(ext.PersonalLocations, req.Text, saved)
	categories := withoutPersonal(ext.PlaceTypes, res.locations)

	intent := &models.Intent{
		PlaceCategories:      categories,
		LastDestination:      alignLastDestination(ext.LastDestination, categories),
		SearchRadiusMeters:   s.radius(ext.SearchRadiusMeters),
		PersonalLocations:    res.locations,
		UnmatchedSuggestions: res.unmatched,
		Origin:               req.Origin,
	}
	if intent.PersonalLocations == nil {
		intent.PersonalLocations = []models.ResolvedLocation{}
	}
	if intent.UnmatchedSuggestions == nil {
		intent.UnmatchedSuggestions = []string{}
	}

	s.logger.Info("Intent parsed", map[string]interface{}{
		"categories":      len(intent.PlaceCategories),
		"personal":        len(intent.PersonalLocations),
		"unmatched":       len(intent.UnmatchedSuggestions),
		"radiusMeters":    intent.SearchRadiusMeters,
		"lastDestination": intent.LastDestination,
		"durationMs":      time.Since(start).Milliseconds(),
	})
	return intent, nil
}

// savedLocations degrades to no personal resolution when the store is down.
func (s *Service) savedLocations(ctx context.Context, userID string) []models.SavedLocation {
	if s.saved == nil {
		return nil
	}
	locs, src, err := s.saved.SavedLocations(ctx, userID)
	if err != nil {
		s.logger.Warn("Saved locations unavailable, skipping personal resolution", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
		return nil
	}
	s.logger.Debug("Saved locations loaded", map[string]interface{}{
		"userId": userID,
		"count":  len(locs),
		"source": string(src),
	})
	return locs
}

func (s *Service) decode(raw string) (*extraction, error) {
	doc := []byte(gemini.StripFence(raw))

	if result := schema.ValidateBytes(doc); !result.Valid {
		return nil, apperrors.NewIntentParseError(result.Summary(), nil)
	}

	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()
	var ext extraction
	if err := dec.Decode(&ext); err != nil {
		return nil, apperrors.NewIntentParseError("", err)
	}
	return &ext, nil
}

// radius normalizes the reported radius, using the default when it is
// missing or unreadable.
func (s *Service) radius(v interface{}) int {
	def := s.config.DefaultRadiusMeters
	if def <= 0 {
		def = DefaultRadiusMeters
	}
	if v == nil {
		return def
	}
	meters, err := searchcandidates.ParseRadius(v)
	if err != nil {
		s.logger.Warn("Ignoring unreadable search radius", map[string]interface{}{
			"radius": v,
		})
		return def
	}
	r := int(math.Round(meters))
	if r <= 0 {
		return def
	}
	return r
}
