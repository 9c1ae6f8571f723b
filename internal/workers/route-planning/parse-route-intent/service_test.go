// internal/workers/route-planning/parse-route-intent/service_test.go
package parserouteintent

import (
	"context"
	"errors"
	"testing"

	apperrors "rouvia/internal/common/errors"
	"rouvia/internal/common/logger"
	"rouvia/internal/models"
	savedlocations "rouvia/internal/workers/profile/saved-locations"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type stubGenerator struct {
	response string
	err      error
	prompt   string
}

func (g *stubGenerator) GenerateJSON(_ context.Context, prompt string) (string, error) {
	g.prompt = prompt
	return g.response, g.err
}

type stubSaved struct {
	locations []models.SavedLocation
	err       error
}

func (s stubSaved) SavedLocations(context.Context, string) ([]models.SavedLocation, savedlocations.Source, error) {
	return s.locations, savedlocations.SourcePrimary, s.err
}

var defaultSaved = []models.SavedLocation{
	{ID: "1", Name: "Home", Address: "423 Mayorview Dr"},
	{ID: "2", Name: "Work", Address: "1003 Bloor St"},
	{ID: "3", Name: "Gym", Address: "150 University Ave W"},
}

func newTestService(t *testing.T, gen *stubGenerator, saved SavedLocationSource) *Service {
	return NewService(&Config{DefaultRadiusMeters: DefaultRadiusMeters}, gen, saved, logger.NewTestLogger(t))
}

func resolvedNames(locs []models.ResolvedLocation) []string {
	out := make([]string, len(locs))
	for i, l := range locs {
		out[i] = l.Name
	}
	return out
}

// ==========================
// Core Functionality Tests
// ==========================

func TestParse_CategoriesAndRadius(t *testing.T) {
	gen := &stubGenerator{response: `{"place_types":["cafe","museum"],"last_destination":"museum","search_radius_meters":"5km"}`}
	origin := &models.LatLng{Lat: 43.46, Lng: -80.52}

	intent, err := newTestService(t, gen, stubSaved{locations: defaultSaved}).Parse(context.Background(), Request{
		Text:   "grab a coffee and then see a museum",
		Origin: origin,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"cafe", "museum"}, intent.PlaceCategories)
	assert.Equal(t, "museum", intent.LastDestination)
	assert.Equal(t, 5000, intent.SearchRadiusMeters)
	assert.Empty(t, intent.PersonalLocations)
	assert.NotNil(t, intent.UnmatchedSuggestions)
	assert.Same(t, origin, intent.Origin)

	assert.Contains(t, gen.prompt, "Saved locations: Home, Work, Gym")
	assert.Contains(t, gen.prompt, "Starting location: 43.46,-80.52")
	assert.Contains(t, gen.prompt, "User text: grab a coffee and then see a museum")
}

func TestParse_ResolvesPersonalLocations(t *testing.T) {
	gen := &stubGenerator{response: "```json\n" + `{
		"place_types": ["home", "pharmacy"],
		"last_destination": "home",
		"search_radius_meters": 8000,
		"personal_locations": ["home", "Cottage"]
	}` + "\n```"}

	intent, err := newTestService(t, gen, stubSaved{locations: defaultSaved}).Parse(context.Background(), Request{
		Text: "pharmacy, then stop at work, then go home",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Home", "Work"}, resolvedNames(intent.PersonalLocations))
	assert.Equal(t, "1", intent.PersonalLocations[0].ID)
	assert.Equal(t, []string{"Cottage"}, intent.UnmatchedSuggestions)
	assert.Equal(t, []string{"pharmacy"}, intent.PlaceCategories)
	assert.Equal(t, "pharmacy", intent.LastDestination)
	assert.Equal(t, 8000, intent.SearchRadiusMeters)
}

func TestParse_OnlyPersonalLocations(t *testing.T) {
	gen := &stubGenerator{response: `{"place_types":[],"last_destination":"","personal_locations":["Home"]}`}

	intent, err := newTestService(t, gen, stubSaved{locations: defaultSaved}).Parse(context.Background(), Request{Text: "take me home"})
	require.NoError(t, err)

	assert.Empty(t, intent.PlaceCategories)
	assert.Equal(t, "", intent.LastDestination)
	assert.Equal(t, []string{"Home"}, resolvedNames(intent.PersonalLocations))
	assert.Equal(t, DefaultRadiusMeters, intent.SearchRadiusMeters)
}

func TestParse_WholeWordMatchOnly(t *testing.T) {
	gen := &stubGenerator{response: `{"place_types":["restaurant"]}`}

	intent, err := newTestService(t, gen, stubSaved{locations: defaultSaved}).Parse(context.Background(), Request{
		Text: "find a homestyle restaurant near the gymnasium",
	})
	require.NoError(t, err)

	assert.Empty(t, intent.PersonalLocations)
	assert.Equal(t, "restaurant", intent.LastDestination)
}

func TestParse_RealignsLastDestination(t *testing.T) {
	gen := &stubGenerator{response: `{"place_types":["bakery","park"],"last_destination":"airport"}`}

	intent, err := newTestService(t, gen, nil).Parse(context.Background(), Request{Text: "bakery then a park"})
	require.NoError(t, err)
	assert.Equal(t, "park", intent.LastDestination)
}

func TestParse_RadiusDefaults(t *testing.T) {
	tests := []struct {
		name   string
		radius string
		want   int
	}{
		{"missing", `null`, DefaultRadiusMeters},
		{"meters string", `"2500m"`, 2500},
		{"unreadable", `"a few blocks"`, DefaultRadiusMeters},
		{"zero", `0`, DefaultRadiusMeters},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &stubGenerator{response: `{"place_types":["cafe"],"search_radius_meters":` + tt.radius + `}`}
			intent, err := newTestService(t, gen, nil).Parse(context.Background(), Request{Text: "coffee"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, intent.SearchRadiusMeters)
		})
	}
}

func TestParse_StoreOutageSkipsResolution(t *testing.T) {
	gen := &stubGenerator{response: `{"place_types":["cafe"],"personal_locations":["Home"]}`}
	saved := stubSaved{err: apperrors.NewStoreUnavailableError(errors.New("down"))}

	intent, err := newTestService(t, gen, saved).Parse(context.Background(), Request{Text: "coffee then home"})
	require.NoError(t, err)
	assert.Empty(t, intent.PersonalLocations)
	assert.Equal(t, []string{"Home"}, intent.UnmatchedSuggestions)
	assert.NotContains(t, gen.prompt, "Saved locations")
}

// ==========================
// Error Tests
// ==========================

func TestParse_MalformedResponses(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"not json", "Sure! Here are your places: cafe"},
		{"missing place_types", `{"last_destination":"cafe"}`},
		{"wrong type", `{"place_types":"cafe"}`},
		{"array root", `["cafe"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &stubGenerator{response: tt.response}
			_, err := newTestService(t, gen, nil).Parse(context.Background(), Request{Text: "coffee"})
			assert.ErrorIs(t, err, apperrors.ErrIntentParse)
		})
	}
}

func TestParse_GeneratorFailure(t *testing.T) {
	gen := &stubGenerator{err: errors.New("429 resource exhausted")}

	_, err := newTestService(t, gen, nil).Parse(context.Background(), Request{Text: "coffee"})
	assert.ErrorIs(t, err, apperrors.ErrIntentParse)
}

func TestParse_EmptyText(t *testing.T) {
	gen := &stubGenerator{}

	_, err := newTestService(t, gen, nil).Parse(context.Background(), Request{Text: "   "})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Empty(t, gen.prompt)
}
