// internal/workers/route-planning/select-stops/service.go
package selectstops

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	apperrors "rouvia/internal/common/errors"
	"rouvia/internal/common/gemini"
	"rouvia/internal/common/logger"
	"rouvia/internal/common/validation"
	"rouvia/internal/models"
)

var schema = validation.MustCompile("stop-selection", selectionSchema)

const selectionRules = `You are an expert route planner.
Given the user's intent and a list of candidate places, choose the stops to visit and order them.
Rules:
Pick exactly one place for each category in "place_types" when a candidate for it exists.
The final stop must match "last_destination".
Prefer higher rating first, then proximity to the starting location and to the previous stop.
Only use place_id values from the candidates.
Return a STRICT JSON object {"stops": [{"place_id": "...", "category": "..."}]} in visit order.
No extra text. No markdown. No code fences.`

// Service delegates stop selection to the language model and maps its
// answer back onto the candidate pool.
type Service struct {
	config    *Config
	generator gemini.Generator
	logger    logger.Logger
}

func NewService(config *Config, generator gemini.Generator, log logger.Logger) *Service {
	return &Service{
		config:    config,
		generator: generator,
		logger:    log.With(map[string]interface{}{"stage": "select-stops"}),
	}
}

// Select returns stops in the order the model chose. Ids outside the pool
// and repeats are dropped. An empty pool yields no stops without a model call.
func (s *Service) Select(ctx context.Context, intent models.Intent, candidates []models.PlaceCandidate) ([]models.Stop, error) {
	if len(candidates) == 0 {
		return []models.Stop{}, nil
	}

	prompt, err := s.buildPrompt(intent, candidates)
	if err != nil {
		return nil, apperrors.NewSelectionError("", err)
	}

	genCtx := ctx
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	raw, err := s.generator.GenerateJSON(genCtx, prompt)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, apperrors.NewSelectionError("", err)
	}

	doc := []byte(gemini.StripFence(raw))
	if result := schema.ValidateBytes(doc); !result.Valid {
		return nil, apperrors.NewSelectionError(result.Summary(), nil)
	}
	var sel selection
	if err := json.Unmarshal(doc, &sel); err != nil {
		return nil, apperrors.NewSelectionError("", err)
	}

	byID := make(map[string]int, len(candidates))
	for i, c := range candidates {
		byID[c.PlaceID] = i
	}

	stops := make([]models.Stop, 0, len(sel.Stops))
	used := make(map[string]bool, len(sel.Stops))
	unknown := 0
	for _, st := range sel.Stops {
		i, ok := byID[st.PlaceID]
		if !ok {
			unknown++
			continue
		}
		if used[st.PlaceID] {
			continue
		}
		used[st.PlaceID] = true
		c := candidates[i]
		stops = append(stops, models.StopFromCandidate(c, stopCategory(st.Category, c, intent)))
	}

	if unknown > 0 {
		s.logger.Warn("Selection referenced unknown places", map[string]interface{}{
			"unknown": unknown,
		})
	}
	s.logger.Info("Stops selected", map[string]interface{}{
		"candidates": len(candidates),
		"stops":      len(stops),
	})
	return stops, nil
}

func (s *Service) buildPrompt(intent models.Intent, candidates []models.PlaceCandidate) (string, error) {
	limit := len(candidates)
	if s.config.MaxPromptCandidates > 0 && limit > s.config.MaxPromptCandidates {
		limit = s.config.MaxPromptCandidates
	}

	compact := make([]promptCandidate, limit)
	for i, c := range candidates[:limit] {
		compact[i] = promptCandidate{
			PlaceID:     c.PlaceID,
			Name:        c.Name,
			Address:     c.Address,
			Rating:      c.Rating,
			RatingCount: c.RatingCount,
			Categories:  c.Categories,
			Coordinates: c.Coordinates,
		}
	}

	intentJSON, err := json.Marshal(promptIntent{
		PlaceCategories: intent.PlaceCategories,
		LastDestination: intent.LastDestination,
		Origin:          intent.Origin,
	})
	if err != nil {
		return "", fmt.Errorf("encode intent: %w", err)
	}
	candidatesJSON, err := json.Marshal(compact)
	if err != nil {
		return "", fmt.Errorf("encode candidates: %w", err)
	}

	var b strings.Builder
	b.WriteString(selectionRules)
	b.WriteString("\nUser intent: ")
	b.Write(intentJSON)
	b.WriteString("\nCandidate places: ")
	b.Write(candidatesJSON)
	return b.String(), nil
}

// stopCategory prefers the category the model reported when the candidate
// matched it, then the first candidate category that the intent asked for.
func stopCategory(reported string, c models.PlaceCandidate, intent models.Intent) string {
	if reported != "" && c.HasCategory(reported) {
		return reported
	}
	for _, want := range intent.PlaceCategories {
		if c.HasCategory(want) {
			return want
		}
	}
	if len(c.Categories) > 0 {
		return c.Categories[0]
	}
	return reported
}
