package places

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "rouvia/internal/common/errors"
	"rouvia/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	return NewClient(Config{
		BaseURL: srv.URL + "/v1",
		APIKey:  "test-key",
		Timeout: 2 * time.Second,
	}, nil, logger.NewTestLogger(t))
}

func TestTextSearch_Success(t *testing.T) {
	var got TextSearchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/places:searchText", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "test-key", r.Header.Get("X-Goog-Api-Key"))
		assert.Equal(t, FieldMask, r.Header.Get("X-Goog-FieldMask"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"places": [
				{"id": "p1", "displayName": {"text": "Cafe One"}, "rating": 4.5, "userRatingCount": 120, "types": ["cafe"]},
				{"id": "p2", "displayName": {"text": "No Reviews"}}
			],
			"nextPageToken": "tok-2"
		}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	resp, err := c.TextSearch(context.Background(), TextSearchRequest{
		TextQuery: "cafe near me",
		PageSize:  20,
		LocationBias: &LocationBias{Circle: Circle{
			Center: LatLngLiteral{Latitude: 43.46, Longitude: -80.52},
			Radius: 10000,
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, "cafe near me", got.TextQuery)
	require.NotNil(t, got.LocationBias)
	assert.Equal(t, 10000.0, got.LocationBias.Circle.Radius)

	require.Len(t, resp.Places, 2)
	assert.Equal(t, "tok-2", resp.NextPageToken)
	require.NotNil(t, resp.Places[0].Rating)
	assert.Equal(t, 4.5, *resp.Places[0].Rating)
	assert.Nil(t, resp.Places[1].Rating)
	assert.Nil(t, resp.Places[1].UserRatingCount)
}

func TestTextSearch_ClampsRadius(t *testing.T) {
	var got TextSearchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).TextSearch(context.Background(), TextSearchRequest{
		TextQuery:    "museum",
		LocationBias: &LocationBias{Circle: Circle{Radius: 120000}},
	})
	require.NoError(t, err)
	assert.Equal(t, MaxBiasRadius, got.LocationBias.Circle.Radius)
}

func TestTextSearch_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).TextSearch(context.Background(), TextSearchRequest{TextQuery: "cafe"})
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestTextSearch_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"status":"PERMISSION_DENIED"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).TextSearch(context.Background(), TextSearchRequest{TextQuery: "cafe"})
	var pe *apperrors.SearchProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, http.StatusForbidden, pe.StatusCode)
	assert.Contains(t, pe.Body, "PERMISSION_DENIED")
}

func TestTextSearch_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(500 * time.Millisecond):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, nil, logger.NewNoOpLogger())
	_, err := c.TextSearch(context.Background(), TextSearchRequest{TextQuery: "cafe"})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeTimeout, apperrors.CodeOf(err))
}
