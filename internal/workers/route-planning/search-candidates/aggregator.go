// internal/workers/route-planning/search-candidates/aggregator.go
package searchcandidates

import (
	"context"
	"errors"
	"sort"

	apperrors "rouvia/internal/common/errors"
	"rouvia/internal/common/logger"
	"rouvia/internal/common/metrics"
	"rouvia/internal/models"

	"golang.org/x/sync/errgroup"
)

// SpecSearcher runs a single QuerySpec.
type SpecSearcher interface {
	Search(ctx context.Context, spec models.QuerySpec) ([]models.PlaceCandidate, error)
}

// Aggregator fans specs out to a SpecSearcher and reduces the results into
// one ranked pool.
type Aggregator struct {
	searcher    SpecSearcher
	concurrency int
	logger      logger.Logger
}

func NewAggregator(searcher SpecSearcher, concurrency int, log logger.Logger) *Aggregator {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Aggregator{
		searcher:    searcher,
		concurrency: concurrency,
		logger:      log.With(map[string]interface{}{"component": "search-aggregator"}),
	}
}

// Aggregate searches every spec and returns the merged pool sorted by rating
// then review count, descending. A failed spec contributes nothing; only
// cancellation of ctx fails the aggregate.
func (a *Aggregator) Aggregate(ctx context.Context, specs []models.QuerySpec) ([]models.PlaceCandidate, error) {
	if len(specs) == 0 {
		return []models.PlaceCandidate{}, nil
	}

	// Each goroutine owns one slot; the merge below is the only reader.
	results := make([][]models.PlaceCandidate, len(specs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i := range specs {
		i := i
		g.Go(func() error {
			found, err := a.searcher.Search(gctx, specs[i])
			if err != nil {
				a.logSpecFailure(specs[i], err)
				return nil
			}
			results[i] = found
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pool := Merge(results...)
	RankCandidates(pool)
	metrics.SearchCandidates.Observe(float64(len(pool)))

	a.logger.Info("Candidate pool built", map[string]interface{}{
		"specs":      len(specs),
		"candidates": len(pool),
	})
	return pool, nil
}

func (a *Aggregator) logSpecFailure(spec models.QuerySpec, err error) {
	fields := map[string]interface{}{
		"category":  spec.Category,
		"errorCode": string(apperrors.CodeOf(err)),
		"error":     err.Error(),
	}
	var pe *apperrors.SearchProviderError
	if errors.As(err, &pe) {
		fields["status"] = pe.StatusCode
		fields["body"] = pe.Body
	}
	a.logger.Warn("Spec search failed, continuing with zero candidates", fields)
}

// Merge concatenates per-spec results keeping the first occurrence of each
// place id and unioning categories onto it.
func Merge(lists ...[]models.PlaceCandidate) []models.PlaceCandidate {
	index := make(map[string]int)
	out := make([]models.PlaceCandidate, 0)

	for _, list := range lists {
		for _, c := range list {
			if pos, ok := index[c.PlaceID]; ok {
				for _, cat := range c.Categories {
					if !out[pos].HasCategory(cat) {
						out[pos].Categories = append(out[pos].Categories, cat)
					}
				}
				continue
			}
			c.Categories = append([]string(nil), c.Categories...)
			index[c.PlaceID] = len(out)
			out = append(out, c)
		}
	}
	return out
}

// RankCandidates sorts in place by rating desc, then rating count desc.
// Unknown values order as zero; records are not modified.
func RankCandidates(pool []models.PlaceCandidate) {
	sort.SliceStable(pool, func(i, j int) bool {
		ri, rj := pool[i].RatingOrZero(), pool[j].RatingOrZero()
		if ri != rj {
			return ri > rj
		}
		return pool[i].RatingCountOrZero() > pool[j].RatingCountOrZero()
	})
}
