// internal/workers/route-planning/search-candidates/handler_test.go
package searchcandidates

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	apperrors "rouvia/internal/common/errors"
	"rouvia/internal/common/logger"
	"rouvia/internal/common/places"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPlacesServer(t *testing.T, handle func(req places.TextSearchRequest) string) (*httptest.Server, *[]places.TextSearchRequest) {
	t.Helper()
	var mu sync.Mutex
	var seen []places.TextSearchRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req places.TextSearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		mu.Lock()
		seen = append(seen, req)
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(handle(req)))
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func newTestHandler(t *testing.T, srv *httptest.Server) *Handler {
	client := places.NewClient(places.Config{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Timeout: 2 * time.Second,
	}, nil, logger.NewTestLogger(t))
	return NewHandler(createTestConfig(), client, logger.NewTestLogger(t))
}

func TestExecute_SearchesEachQuery(t *testing.T) {
	srv, seen := newPlacesServer(t, func(req places.TextSearchRequest) string {
		switch req.TextQuery {
		case "coffee near me":
			return `{"places":[{"id":"c1","displayName":{"text":"Bean"},"rating":4.4,"userRatingCount":50}]}`
		default:
			return `{"places":[{"id":"p1","displayName":{"text":"Pharma"},"rating":4.8,"userRatingCount":12}]}`
		}
	})

	lat, lng := 43.46, -80.52
	out, err := newTestHandler(t, srv).Execute(context.Background(), &Input{
		Queries: []string{"coffee", " ", "pharmacy"},
		Lat:     &lat,
		Lng:     &lng,
		RadiusM: "5km",
	})
	require.NoError(t, err)

	assert.Equal(t, 2, out.Count)
	assert.Equal(t, "p1", out.Candidates[0].PlaceID)
	require.Len(t, out.Specs, 2)
	assert.Equal(t, 10, out.Specs[0].ResultBudget)

	require.Len(t, *seen, 2)
	for _, req := range *seen {
		require.NotNil(t, req.LocationBias)
		assert.Equal(t, 5000.0, req.LocationBias.Circle.Radius)
	}
}

func TestExecute_KeepsFractionalRadius(t *testing.T) {
	srv, seen := newPlacesServer(t, func(places.TextSearchRequest) string {
		return `{"places":[]}`
	})

	lat, lng := 43.46, -80.52
	out, err := newTestHandler(t, srv).Execute(context.Background(), &Input{
		Queries: []string{"bakery"},
		Lat:     &lat,
		Lng:     &lng,
		RadiusM: "1.2345km",
	})
	require.NoError(t, err)

	require.Len(t, out.Specs, 1)
	require.NotNil(t, out.Specs[0].RadiusMeters)
	assert.InDelta(t, 1234.5, *out.Specs[0].RadiusMeters, 1e-9)
	require.Len(t, *seen, 1)
	require.NotNil(t, (*seen)[0].LocationBias)
	assert.InDelta(t, 1234.5, (*seen)[0].LocationBias.Circle.Radius, 1e-9)
}

func TestExecute_MinRatingOverride(t *testing.T) {
	srv, _ := newPlacesServer(t, func(places.TextSearchRequest) string {
		return `{"places":[
			{"id":"low","displayName":{"text":"Low"},"rating":3.1},
			{"id":"high","displayName":{"text":"High"},"rating":4.6}
		]}`
	})

	minRating := 4.0
	out, err := newTestHandler(t, srv).Execute(context.Background(), &Input{
		Queries:   []string{"ramen"},
		MinRating: &minRating,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"high"}, candidateIDs(out.Candidates))
}

func TestExecute_RejectsEmptyQueries(t *testing.T) {
	h := NewHandler(createTestConfig(), &scriptedSearcher{}, logger.NewNoOpLogger())

	_, err := h.Execute(context.Background(), &Input{Queries: []string{"", "  "}})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestExecute_RejectsMalformedRadius(t *testing.T) {
	s := &scriptedSearcher{}
	h := NewHandler(createTestConfig(), s, logger.NewNoOpLogger())

	_, err := h.Execute(context.Background(), &Input{Queries: []string{"cafe"}, RadiusM: "two miles"})
	assert.ErrorIs(t, err, apperrors.ErrMalformedRadius)
	assert.Empty(t, s.calls)
}
