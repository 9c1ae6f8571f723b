// internal/workers/route-planning/search-candidates/querybuilder_test.go
package searchcandidates

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	apperrors "rouvia/internal/common/errors"
	"rouvia/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRadius(t *testing.T) {
	tests := []struct {
		name    string
		in      interface{}
		want    float64
		wantErr bool
	}{
		{"km string", "5km", 5000, false},
		{"m string", "5000m", 5000, false},
		{"bare int", 5000, 5000, false},
		{"bare float", 5000.0, 5000, false},
		{"json number", json.Number("2500"), 2500, false},
		{"upper case with spaces", "  2.5 KM ", 2500, false},
		{"numeric string", "750", 750, false},
		{"furlongs", "5 furlongs", 0, true},
		{"unit only", "km", 0, true},
		{"empty", "", 0, true},
		{"zero", 0, 0, true},
		{"negative", "-3km", 0, true},
		{"bool", true, 0, true},
		{"nil", nil, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRadius(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, apperrors.ErrMalformedRadius))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBudgetPerCategory_SumWithinCap(t *testing.T) {
	for n := 1; n <= DefaultMaxResults/MinBudgetPerCategory; n++ {
		t.Run(fmt.Sprintf("%d categories", n), func(t *testing.T) {
			budget := BudgetPerCategory(DefaultMaxResults, n)
			assert.GreaterOrEqual(t, budget, MinBudgetPerCategory)
			assert.LessOrEqual(t, budget*n, DefaultMaxResults)
		})
	}
}

func TestBudgetPerCategory_Floor(t *testing.T) {
	assert.Equal(t, 10, BudgetPerCategory(60, 9))
	assert.Equal(t, 30, BudgetPerCategory(60, 2))
	assert.Equal(t, 60, BudgetPerCategory(0, 1))
	assert.Equal(t, 0, BudgetPerCategory(60, 0))
}

func TestBuildQueries_CafeAndMuseumWithOrigin(t *testing.T) {
	intent := models.Intent{
		PlaceCategories:    []string{"cafe", "museum"},
		LastDestination:    "museum",
		SearchRadiusMeters: 10000,
		Origin:             &models.LatLng{Lat: 43.4643, Lng: -80.5204},
	}

	specs := BuildQueries(intent, 60)
	require.Len(t, specs, 2)

	for i, want := range []string{"cafe near me", "museum near me"} {
		assert.Equal(t, want, specs[i].TextQuery)
		require.True(t, specs[i].HasLocationBias())
		assert.Equal(t, 10000.0, *specs[i].RadiusMeters)
		assert.Equal(t, 43.4643, specs[i].Origin.Lat)
		assert.Equal(t, 30, specs[i].ResultBudget)
	}
	assert.Equal(t, "cafe", specs[0].Category)
	assert.Equal(t, "museum", specs[1].Category)
}

func TestBuildQueries_NoOriginNoBias(t *testing.T) {
	specs := BuildQueries(models.Intent{
		PlaceCategories:    []string{"coffee_shop"},
		SearchRadiusMeters: 5000,
	}, 60)

	require.Len(t, specs, 1)
	assert.Equal(t, "coffee shop", specs[0].TextQuery)
	assert.False(t, specs[0].HasLocationBias())
	assert.Nil(t, specs[0].Origin)
	assert.Equal(t, 60, specs[0].ResultBudget)
}

func TestBuildQueries_OriginWithoutRadius(t *testing.T) {
	specs := BuildQueries(models.Intent{
		PlaceCategories: []string{"park"},
		Origin:          &models.LatLng{Lat: 1, Lng: 2},
	}, 60)

	require.Len(t, specs, 1)
	assert.Equal(t, "park near me", specs[0].TextQuery)
	assert.False(t, specs[0].HasLocationBias())
}

func TestBuildQueries_SkipsPersonalAndDuplicates(t *testing.T) {
	specs := BuildQueries(models.Intent{
		PlaceCategories:   []string{"Home", "cafe", "Cafe", "gym"},
		PersonalLocations: []models.ResolvedLocation{{ID: "1", Name: "home"}, {ID: "3", Name: "Gym"}},
	}, 60)

	require.Len(t, specs, 1)
	assert.Equal(t, "cafe", specs[0].Category)
}

func TestBuildQueries_Empty(t *testing.T) {
	assert.Empty(t, BuildQueries(models.Intent{}, 60))
	assert.Empty(t, BuildQueries(models.Intent{
		PlaceCategories:   []string{"Home"},
		PersonalLocations: []models.ResolvedLocation{{Name: "Home"}},
	}, 60))
}

func TestBuildQueries_CopiesOpenNow(t *testing.T) {
	open := true
	specs := BuildQueries(models.Intent{PlaceCategories: []string{"bakery"}, OpenNow: &open}, 60)
	require.Len(t, specs, 1)
	require.NotNil(t, specs[0].OpenNow)
	assert.True(t, *specs[0].OpenNow)
}
