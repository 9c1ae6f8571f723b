// internal/workers/route-planning/search-candidates/querybuilder.go
package searchcandidates

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	apperrors "rouvia/internal/common/errors"
	"rouvia/internal/models"
)

const nearMeSuffix = " near me"

// ParseRadius normalizes a radius to meters. Accepted forms are a bare
// number, a numeric string, "<n>m" and "<n>km" (case-insensitive, trimmed).
// Anything else, including non-positive values, is a malformed radius.
func ParseRadius(v interface{}) (float64, error) {
	var meters float64
	switch r := v.(type) {
	case float64:
		meters = r
	case float32:
		meters = float64(r)
	case int:
		meters = float64(r)
	case int32:
		meters = float64(r)
	case int64:
		meters = float64(r)
	case json.Number:
		f, err := r.Float64()
		if err != nil {
			return 0, apperrors.NewMalformedRadiusError(v)
		}
		meters = f
	case string:
		f, ok := parseRadiusString(r)
		if !ok {
			return 0, apperrors.NewMalformedRadiusError(v)
		}
		meters = f
	default:
		return 0, apperrors.NewMalformedRadiusError(v)
	}

	if math.IsNaN(meters) || math.IsInf(meters, 0) || meters <= 0 {
		return 0, apperrors.NewMalformedRadiusError(v)
	}
	return meters, nil
}

func parseRadiusString(s string) (float64, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	multiplier := 1.0
	switch {
	case strings.HasSuffix(s, "km"):
		s = strings.TrimSuffix(s, "km")
		multiplier = 1000
	case strings.HasSuffix(s, "m"):
		s = strings.TrimSuffix(s, "m")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f * multiplier, true
}

// BudgetPerCategory splits maxResults across n categories, never below
// MinBudgetPerCategory. A non-positive cap uses DefaultMaxResults.
func BudgetPerCategory(maxResults, n int) int {
	if n <= 0 {
		return 0
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	budget := maxResults / n
	if budget < MinBudgetPerCategory {
		budget = MinBudgetPerCategory
	}
	return budget
}

// BuildQueries emits one QuerySpec per non-personal category of intent, in
// category order. Categories naming a resolved personal location and repeats
// are skipped. An empty result means search should be skipped.
func BuildQueries(intent models.Intent, maxResults int) []models.QuerySpec {
	personal := make(map[string]struct{}, len(intent.PersonalLocations))
	for _, p := range intent.PersonalLocations {
		personal[normalizeCategory(p.Name)] = struct{}{}
	}

	categories := make([]string, 0, len(intent.PlaceCategories))
	seen := make(map[string]struct{}, len(intent.PlaceCategories))
	for _, c := range intent.PlaceCategories {
		key := normalizeCategory(c)
		if key == "" {
			continue
		}
		if _, ok := personal[key]; ok {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		categories = append(categories, c)
	}
	if len(categories) == 0 {
		return nil
	}

	budget := BudgetPerCategory(maxResults, len(categories))

	var radius *float64
	if intent.Origin != nil && intent.SearchRadiusMeters > 0 {
		r := float64(intent.SearchRadiusMeters)
		radius = &r
	}

	specs := make([]models.QuerySpec, 0, len(categories))
	for _, c := range categories {
		spec := models.QuerySpec{
			Category:     c,
			TextQuery:    humanizeCategory(c),
			OpenNow:      intent.OpenNow,
			ResultBudget: budget,
		}
		if intent.Origin != nil {
			spec.TextQuery += nearMeSuffix
		}
		if radius != nil {
			origin := *intent.Origin
			r := *radius
			spec.Origin = &origin
			spec.RadiusMeters = &r
		}
		specs = append(specs, spec)
	}
	return specs
}

func normalizeCategory(c string) string {
	return strings.ToLower(strings.TrimSpace(c))
}

// humanizeCategory turns a tag like "coffee_shop" into "coffee shop".
func humanizeCategory(c string) string {
	c = strings.TrimSpace(c)
	c = strings.NewReplacer("_", " ", "-", " ").Replace(c)
	return strings.Join(strings.Fields(c), " ")
}
