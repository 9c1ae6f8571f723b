// internal/workers/route-planning/search-candidates/engine.go
package searchcandidates

import (
	"context"
	"errors"
	"time"

	"rouvia/internal/common/logger"
	"rouvia/internal/common/metrics"
	"rouvia/internal/common/places"
	"rouvia/internal/models"
)

// TextSearcher is the place-search provider boundary.
type TextSearcher interface {
	TextSearch(ctx context.Context, req places.TextSearchRequest) (*places.TextSearchResponse, error)
}

// Engine runs one QuerySpec against the provider: it paginates until the
// budget is met or tokens run out, drops repeated place ids, and applies
// the minimum-rating filter.
type Engine struct {
	searcher       TextSearcher
	minRating      float64
	pageTokenDelay time.Duration
	retryDelay     time.Duration
	logger         logger.Logger
}

func NewEngine(searcher TextSearcher, cfg *Config, log logger.Logger) *Engine {
	return &Engine{
		searcher:       searcher,
		minRating:      cfg.MinRating,
		pageTokenDelay: cfg.PageTokenDelay,
		retryDelay:     cfg.RetryDelay,
		logger:         log.With(map[string]interface{}{"component": "search-engine"}),
	}
}

// WithMinRating returns a copy of e using a different rating threshold.
func (e *Engine) WithMinRating(minRating float64) *Engine {
	cp := *e
	cp.minRating = minRating
	return &cp
}

// stopReason values are logged when a spec's pagination ends.
const (
	stopBudget      = "budget_reached"
	stopNoToken     = "no_next_page"
	stopRateLimited = "rate_limited"
)

// Search returns the spec's candidates in provider order. A provider failure
// other than rate limiting aborts the spec and is returned as is; repeated
// rate limiting ends pagination and keeps what was collected.
func (e *Engine) Search(ctx context.Context, spec models.QuerySpec) ([]models.PlaceCandidate, error) {
	budget := spec.ResultBudget
	if budget <= 0 {
		budget = MinBudgetPerCategory
	}

	req := places.TextSearchRequest{
		TextQuery: spec.TextQuery,
		PageSize:  min(budget, places.MaxPageSize),
	}
	if spec.OpenNow != nil {
		req.OpenNow = *spec.OpenNow
	}
	if spec.HasLocationBias() {
		req.LocationBias = &places.LocationBias{Circle: places.Circle{
			Center: places.LatLngLiteral{Latitude: spec.Origin.Lat, Longitude: spec.Origin.Lng},
			Radius: *spec.RadiusMeters,
		}}
	}

	collected := make([]models.PlaceCandidate, 0, budget)
	seen := make(map[string]struct{}, budget)
	pages, dropped := 0, 0
	reason := ""

	for reason == "" {
		if pages > 0 {
			if err := sleepCtx(ctx, e.pageTokenDelay); err != nil {
				return nil, err
			}
		}

		resp, err := e.fetchPage(ctx, req)
		if errors.Is(err, places.ErrRateLimited) {
			reason = stopRateLimited
			break
		}
		if err != nil {
			metrics.SearchPageRequests.WithLabelValues("error").Inc()
			e.logger.Warn("Place search aborted", map[string]interface{}{
				"category": spec.Category,
				"page":     pages + 1,
				"error":    err.Error(),
			})
			return nil, err
		}
		metrics.SearchPageRequests.WithLabelValues("ok").Inc()
		pages++

		for _, p := range resp.Places {
			if len(collected) >= budget {
				break
			}
			if p.ID == "" {
				continue
			}
			if _, dup := seen[p.ID]; dup {
				dropped++
				continue
			}
			seen[p.ID] = struct{}{}

			c := toCandidate(p, spec.Category)
			if e.minRating > 0 && c.Rating != nil && *c.Rating < e.minRating {
				dropped++
				continue
			}
			collected = append(collected, c)
		}

		switch {
		case len(collected) >= budget:
			reason = stopBudget
		case resp.NextPageToken == "":
			reason = stopNoToken
		default:
			req.PageToken = resp.NextPageToken
		}
	}

	e.logger.Info("Place search finished", map[string]interface{}{
		"category":   spec.Category,
		"query":      spec.TextQuery,
		"pages":      pages,
		"candidates": len(collected),
		"dropped":    dropped,
		"budget":     budget,
		"stopReason": reason,
	})
	return collected, nil
}

// fetchPage issues one page request, retrying exactly once after a rate
// limit response. A second rate limit is returned as places.ErrRateLimited.
func (e *Engine) fetchPage(ctx context.Context, req places.TextSearchRequest) (*places.TextSearchResponse, error) {
	resp, err := e.searcher.TextSearch(ctx, req)
	if !errors.Is(err, places.ErrRateLimited) {
		return resp, err
	}

	metrics.SearchRateLimited.Inc()
	e.logger.Warn("Place search rate limited, retrying once", map[string]interface{}{
		"query":   req.TextQuery,
		"delayMs": e.retryDelay.Milliseconds(),
	})
	if err := sleepCtx(ctx, e.retryDelay); err != nil {
		return nil, err
	}

	resp, err = e.searcher.TextSearch(ctx, req)
	if errors.Is(err, places.ErrRateLimited) {
		metrics.SearchRateLimited.Inc()
	}
	return resp, err
}

func toCandidate(p places.Place, category string) models.PlaceCandidate {
	c := models.PlaceCandidate{
		PlaceID:     p.ID,
		Address:     p.FormattedAddress,
		Rating:      p.Rating,
		RatingCount: p.UserRatingCount,
		Categories:  []string{category},
		Status:      p.BusinessStatus,
	}
	if p.DisplayName != nil {
		c.Name = p.DisplayName.Text
	}
	if p.Location != nil {
		c.Coordinates = &models.LatLng{Lat: p.Location.Latitude, Lng: p.Location.Longitude}
	}
	if p.GoogleMapsURI != "" || p.WebsiteURI != "" {
		c.ExternalURIs = &models.ExternalURIs{Maps: p.GoogleMapsURI, Website: p.WebsiteURI}
	}
	return c
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
