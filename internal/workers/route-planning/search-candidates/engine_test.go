// internal/workers/route-planning/search-candidates/engine_test.go
package searchcandidates

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	apperrors "rouvia/internal/common/errors"
	"rouvia/internal/common/logger"
	"rouvia/internal/common/places"
	"rouvia/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type pageResult struct {
	resp *places.TextSearchResponse
	err  error
}

// scriptedSearcher replays results in call order and records requests.
type scriptedSearcher struct {
	mu      sync.Mutex
	results []pageResult
	calls   []places.TextSearchRequest
}

func (s *scriptedSearcher) TextSearch(_ context.Context, req places.TextSearchRequest) (*places.TextSearchResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, req)
	if len(s.calls) > len(s.results) {
		return nil, fmt.Errorf("unexpected call %d", len(s.calls))
	}
	r := s.results[len(s.calls)-1]
	return r.resp, r.err
}

func ptrF(v float64) *float64 { return &v }
func ptrI(v int) *int         { return &v }

func mkPlace(id string, rating *float64, count *int) places.Place {
	return places.Place{
		ID:              id,
		DisplayName:     &places.LocalizedText{Text: "Place " + id},
		Rating:          rating,
		UserRatingCount: count,
	}
}

func mkPage(next string, ids ...string) pageResult {
	resp := &places.TextSearchResponse{NextPageToken: next}
	for _, id := range ids {
		resp.Places = append(resp.Places, mkPlace(id, ptrF(4.0), ptrI(10)))
	}
	return pageResult{resp: resp}
}

func seqIDs(prefix string, n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return ids
}

func createTestConfig() *Config {
	return &Config{MaxResults: 60, Concurrency: 2}
}

func newTestEngine(t *testing.T, s TextSearcher) *Engine {
	return NewEngine(s, createTestConfig(), logger.NewTestLogger(t))
}

func candidateIDs(cs []models.PlaceCandidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.PlaceID
	}
	return out
}

// ==========================
// Core Functionality Tests
// ==========================

func TestEngine_PaginatesUntilBudget(t *testing.T) {
	s := &scriptedSearcher{results: []pageResult{
		mkPage("tok-2", seqIDs("a", 20)...),
		mkPage("tok-3", seqIDs("b", 20)...),
	}}

	got, err := newTestEngine(t, s).Search(context.Background(), models.QuerySpec{
		Category: "cafe", TextQuery: "cafe", ResultBudget: 30,
	})
	require.NoError(t, err)

	assert.Len(t, got, 30)
	require.Len(t, s.calls, 2)
	assert.Equal(t, "", s.calls[0].PageToken)
	assert.Equal(t, "tok-2", s.calls[1].PageToken)
	assert.Equal(t, 20, s.calls[0].PageSize)
}

func TestEngine_StopsWithoutNextToken(t *testing.T) {
	s := &scriptedSearcher{results: []pageResult{mkPage("", "p1", "p2", "p3")}}

	got, err := newTestEngine(t, s).Search(context.Background(), models.QuerySpec{
		Category: "museum", TextQuery: "museum", ResultBudget: 30,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2", "p3"}, candidateIDs(got))
	assert.Len(t, s.calls, 1)
	assert.Equal(t, []string{"museum"}, got[0].Categories)
}

func TestEngine_DeduplicatesAcrossPages(t *testing.T) {
	s := &scriptedSearcher{results: []pageResult{
		mkPage("tok-2", "a", "b", "a"),
		mkPage("", "b", "c"),
	}}

	got, err := newTestEngine(t, s).Search(context.Background(), models.QuerySpec{
		Category: "cafe", TextQuery: "cafe", ResultBudget: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, candidateIDs(got))
}

func TestEngine_MinRatingKeepsUnknownRatings(t *testing.T) {
	s := &scriptedSearcher{results: []pageResult{{resp: &places.TextSearchResponse{Places: []places.Place{
		mkPlace("low", ptrF(3.2), ptrI(40)),
		mkPlace("unrated", nil, nil),
		mkPlace("high", ptrF(4.6), ptrI(90)),
		mkPlace("edge", ptrF(4.0), ptrI(5)),
	}}}}}

	cfg := createTestConfig()
	cfg.MinRating = 4.0
	e := NewEngine(s, cfg, logger.NewTestLogger(t))

	got, err := e.Search(context.Background(), models.QuerySpec{Category: "cafe", TextQuery: "cafe", ResultBudget: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"unrated", "high", "edge"}, candidateIDs(got))
}

func TestEngine_RetriesRateLimitOnce(t *testing.T) {
	s := &scriptedSearcher{results: []pageResult{
		{err: places.ErrRateLimited},
		mkPage("", "ok1", "ok2"),
	}}

	got, err := newTestEngine(t, s).Search(context.Background(), models.QuerySpec{
		Category: "cafe", TextQuery: "cafe", ResultBudget: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"ok1", "ok2"}, candidateIDs(got))
	require.Len(t, s.calls, 2)
	assert.Equal(t, s.calls[0], s.calls[1])
}

func TestEngine_RepeatedRateLimitStops(t *testing.T) {
	s := &scriptedSearcher{results: []pageResult{
		mkPage("tok-2", "a", "b"),
		{err: places.ErrRateLimited},
		{err: places.ErrRateLimited},
	}}

	got, err := newTestEngine(t, s).Search(context.Background(), models.QuerySpec{
		Category: "cafe", TextQuery: "cafe", ResultBudget: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, candidateIDs(got))
	assert.Len(t, s.calls, 3)
}

func TestEngine_ProviderErrorAbortsSpec(t *testing.T) {
	s := &scriptedSearcher{results: []pageResult{
		mkPage("tok-2", "a"),
		{err: &apperrors.SearchProviderError{StatusCode: http.StatusInternalServerError, Body: "backend error"}},
	}}

	got, err := newTestEngine(t, s).Search(context.Background(), models.QuerySpec{
		Category: "cafe", TextQuery: "cafe", ResultBudget: 10,
	})
	assert.Nil(t, got)
	var pe *apperrors.SearchProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, http.StatusInternalServerError, pe.StatusCode)
	assert.Equal(t, "backend error", pe.Body)
}

func TestEngine_LocationBiasOnlyWithOriginAndRadius(t *testing.T) {
	origin := &models.LatLng{Lat: 43.46, Lng: -80.52}

	tests := []struct {
		name     string
		spec     models.QuerySpec
		wantBias bool
	}{
		{"both", models.QuerySpec{TextQuery: "cafe near me", Origin: origin, RadiusMeters: ptrF(10000)}, true},
		{"origin only", models.QuerySpec{TextQuery: "cafe near me", Origin: origin}, false},
		{"neither", models.QuerySpec{TextQuery: "cafe"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &scriptedSearcher{results: []pageResult{mkPage("")}}
			_, err := newTestEngine(t, s).Search(context.Background(), tt.spec)
			require.NoError(t, err)
			require.Len(t, s.calls, 1)
			if !tt.wantBias {
				assert.Nil(t, s.calls[0].LocationBias)
				return
			}
			require.NotNil(t, s.calls[0].LocationBias)
			assert.Equal(t, 10000.0, s.calls[0].LocationBias.Circle.Radius)
			assert.Equal(t, 43.46, s.calls[0].LocationBias.Circle.Center.Latitude)
		})
	}
}

func TestEngine_MapsCandidateFields(t *testing.T) {
	s := &scriptedSearcher{results: []pageResult{{resp: &places.TextSearchResponse{Places: []places.Place{{
		ID:               "rom",
		DisplayName:      &places.LocalizedText{Text: "Royal Ontario Museum"},
		FormattedAddress: "100 Queens Park, Toronto",
		Location:         &places.LatLngLiteral{Latitude: 43.667, Longitude: -79.394},
		Rating:           ptrF(4.7),
		UserRatingCount:  ptrI(30000),
		BusinessStatus:   models.StatusOperational,
		GoogleMapsURI:    "https://maps.google.com/?cid=1",
	}}}}}}

	got, err := newTestEngine(t, s).Search(context.Background(), models.QuerySpec{Category: "museum", TextQuery: "museum", ResultBudget: 10})
	require.NoError(t, err)
	require.Len(t, got, 1)

	c := got[0]
	assert.Equal(t, "Royal Ontario Museum", c.Name)
	assert.Equal(t, "100 Queens Park, Toronto", c.Address)
	assert.Equal(t, 43.667, c.Coordinates.Lat)
	assert.Equal(t, 30000, *c.RatingCount)
	assert.Equal(t, models.StatusOperational, c.Status)
	assert.Equal(t, "https://maps.google.com/?cid=1", c.ExternalURIs.Maps)
}

func TestEngine_CancelledDuringPageDelay(t *testing.T) {
	s := &scriptedSearcher{results: []pageResult{mkPage("tok-2", "a")}}
	cfg := createTestConfig()
	cfg.PageTokenDelay = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEngine(s, cfg, logger.NewNoOpLogger()).Search(ctx, models.QuerySpec{TextQuery: "cafe", ResultBudget: 10})
	assert.ErrorIs(t, err, context.Canceled)
}
