// internal/workers/route-planning/plan-route/pipeline_test.go
package planroute

import (
	"context"
	"errors"
	"testing"

	apperrors "rouvia/internal/common/errors"
	"rouvia/internal/common/logger"
	"rouvia/internal/models"
	parserouteintent "rouvia/internal/workers/route-planning/parse-route-intent"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type stubTranscriber struct {
	text  string
	err   error
	calls int
}

func (s *stubTranscriber) Transcribe(context.Context, []byte, string) (string, error) {
	s.calls++
	return s.text, s.err
}

type stubIntents struct {
	intent *models.Intent
	err    error
	got    parserouteintent.Request
}

func (s *stubIntents) Parse(_ context.Context, req parserouteintent.Request) (*models.Intent, error) {
	s.got = req
	if s.err != nil {
		return nil, s.err
	}
	cp := *s.intent
	return &cp, nil
}

type stubGatherer struct {
	pool  []models.PlaceCandidate
	err   error
	specs []models.QuerySpec
	calls int
}

func (s *stubGatherer) Aggregate(_ context.Context, specs []models.QuerySpec) ([]models.PlaceCandidate, error) {
	s.calls++
	s.specs = specs
	if s.err != nil {
		return nil, s.err
	}
	return s.pool, nil
}

// stubSelector picks the first candidate per category in intent order, the
// contract the live selector is asked to honor.
type stubSelector struct {
	err   error
	calls int
}

func (s *stubSelector) Select(_ context.Context, intent models.Intent, pool []models.PlaceCandidate) ([]models.Stop, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	var stops []models.Stop
	for _, cat := range intent.PlaceCategories {
		for _, c := range pool {
			if c.HasCategory(cat) {
				stops = append(stops, models.StopFromCandidate(c, cat))
				break
			}
		}
	}
	return stops, nil
}

type fixture struct {
	transcriber *stubTranscriber
	intents     *stubIntents
	gatherer    *stubGatherer
	selector    *stubSelector
	pipeline    *Pipeline
}

func newFixture(t *testing.T, intent *models.Intent) *fixture {
	f := &fixture{
		transcriber: &stubTranscriber{text: "coffee then the museum"},
		intents:     &stubIntents{intent: intent},
		gatherer: &stubGatherer{pool: []models.PlaceCandidate{
			{PlaceID: "m1", Name: "Royal Museum", Categories: []string{"museum"}},
			{PlaceID: "c1", Name: "Bean There", Categories: []string{"cafe"}},
		}},
		selector: &stubSelector{},
	}
	f.pipeline = NewPipeline(&Config{MaxResults: 60}, Dependencies{
		Transcriber: f.transcriber,
		Intents:     f.intents,
		Gatherer:    f.gatherer,
		Selector:    f.selector,
	}, logger.NewTestLogger(t))
	return f
}

func searchIntent() *models.Intent {
	return &models.Intent{
		PlaceCategories:      []string{"cafe", "museum"},
		LastDestination:      "museum",
		SearchRadiusMeters:   10000,
		PersonalLocations:    []models.ResolvedLocation{},
		UnmatchedSuggestions: []string{},
	}
}

func stopNames(stops []models.Stop) []string {
	out := make([]string, len(stops))
	for i, s := range stops {
		out[i] = s.Name
	}
	return out
}

func requireStage(t *testing.T, err error, stage Stage) *apperrors.PipelineError {
	t.Helper()
	var pe *apperrors.PipelineError
	require.True(t, errors.As(err, &pe), "expected PipelineError, got %v", err)
	assert.Equal(t, string(stage), pe.Stage)
	return pe
}

// ==========================
// Core Functionality Tests
// ==========================

func TestRun_TextRequest(t *testing.T) {
	f := newFixture(t, searchIntent())
	origin := &models.LatLng{Lat: 43.46, Lng: -80.52}

	resp, err := f.pipeline.Run(context.Background(), Request{Text: "coffee then the museum", Origin: origin, UserID: "u1"})
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, resp.Status)
	assert.Equal(t, []string{"Bean There", "Royal Museum"}, stopNames(resp.Stops))
	assert.Equal(t, "Found 2 total stops", resp.Message)
	assert.Empty(t, resp.TranscribedText)
	assert.NotEmpty(t, resp.Metadata.RunID)
	assert.Equal(t, 2, resp.Metadata.CandidateCount)
	assert.False(t, resp.Metadata.SearchSkipped)

	assert.Zero(t, f.transcriber.calls)
	assert.Equal(t, "u1", f.intents.got.UserID)
	require.Len(t, f.gatherer.specs, 2)
	assert.Equal(t, "cafe near me", f.gatherer.specs[0].TextQuery)
	assert.Equal(t, 30, f.gatherer.specs[0].ResultBudget)
	require.NotNil(t, f.gatherer.specs[1].RadiusMeters)
	assert.Equal(t, 10000.0, *f.gatherer.specs[1].RadiusMeters)
}

func TestRun_AudioRequest(t *testing.T) {
	f := newFixture(t, searchIntent())

	resp, err := f.pipeline.Run(context.Background(), Request{Audio: []byte("ogg"), ContentType: "audio/ogg"})
	require.NoError(t, err)

	assert.Equal(t, 1, f.transcriber.calls)
	assert.Equal(t, "coffee then the museum", f.intents.got.Text)
	assert.Equal(t, "coffee then the museum", resp.TranscribedText)
}

func TestRun_PersonalOnlySkipsSearch(t *testing.T) {
	intent := &models.Intent{
		PlaceCategories:      []string{},
		SearchRadiusMeters:   10000,
		PersonalLocations:    []models.ResolvedLocation{{ID: "1", Name: "Home", Address: "423 Mayorview Dr"}},
		UnmatchedSuggestions: []string{},
	}
	f := newFixture(t, intent)

	resp, err := f.pipeline.Run(context.Background(), Request{Text: "take me home"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Home"}, stopNames(resp.Stops))
	assert.Equal(t, models.StopSourcePersonal, resp.Stops[0].Source)
	assert.Contains(t, resp.Message, "Found 1 personal locations")
	assert.True(t, resp.Metadata.SearchSkipped)
	assert.True(t, resp.Metadata.HasPersonalLocations)
	assert.Zero(t, f.gatherer.calls)
	assert.Zero(t, f.selector.calls)
}

func TestRun_PersonalStopsComeFirst(t *testing.T) {
	intent := searchIntent()
	intent.PersonalLocations = []models.ResolvedLocation{
		{ID: "2", Name: "Work"},
		{ID: "1", Name: "Home"},
		{ID: "2", Name: "Work"},
	}
	intent.UnmatchedSuggestions = []string{"Cottage"}
	f := newFixture(t, intent)

	resp, err := f.pipeline.Run(context.Background(), Request{Text: "work, coffee, museum, home"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Work", "Home", "Bean There", "Royal Museum"}, stopNames(resp.Stops))
	assert.Equal(t, "Found 3 personal locations, Found 4 total stops, Need clarification on 1 locations", resp.Message)
}

func TestRun_EmptyPoolSkipsSelection(t *testing.T) {
	f := newFixture(t, searchIntent())
	f.gatherer.pool = []models.PlaceCandidate{}

	resp, err := f.pipeline.Run(context.Background(), Request{Text: "coffee"})
	require.NoError(t, err)

	assert.Empty(t, resp.Stops)
	assert.NotNil(t, resp.Stops)
	assert.Equal(t, "Processing complete", resp.Message)
	assert.Equal(t, 1, f.gatherer.calls)
	assert.Zero(t, f.selector.calls)
}

func TestRun_OpenNowReachesSpecs(t *testing.T) {
	f := newFixture(t, searchIntent())
	open := true

	_, err := f.pipeline.Run(context.Background(), Request{Text: "coffee", OpenNow: &open})
	require.NoError(t, err)
	require.NotNil(t, f.gatherer.specs[0].OpenNow)
	assert.True(t, *f.gatherer.specs[0].OpenNow)
}

// ==========================
// Error Tests
// ==========================

func TestRun_FailuresCarryStage(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fixture)
		req   Request
		stage Stage
		code  apperrors.ErrorCode
	}{
		{
			name:  "no input",
			setup: func(*fixture) {},
			req:   Request{Text: "  "},
			stage: StageReceived,
			code:  apperrors.ErrCodeValidationFailed,
		},
		{
			name: "transcription",
			setup: func(f *fixture) {
				f.transcriber.err = apperrors.NewTranscriptionError(errors.New("provider down"))
			},
			req:   Request{Audio: []byte("x")},
			stage: StageTranscribed,
			code:  apperrors.ErrCodeTranscriptionError,
		},
		{
			name: "intent",
			setup: func(f *fixture) {
				f.intents.err = apperrors.NewIntentParseError("not json", nil)
			},
			req:   Request{Text: "coffee"},
			stage: StageIntentParsed,
			code:  apperrors.ErrCodeIntentParseError,
		},
		{
			name: "search",
			setup: func(f *fixture) {
				f.gatherer.err = context.DeadlineExceeded
			},
			req:   Request{Text: "coffee"},
			stage: StageCandidatesGathered,
			code:  apperrors.ErrCodeTimeout,
		},
		{
			name: "selection",
			setup: func(f *fixture) {
				f.selector.err = apperrors.NewSelectionError("bad shape", nil)
			},
			req:   Request{Text: "coffee"},
			stage: StageStopsSelected,
			code:  apperrors.ErrCodeSelectionError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, searchIntent())
			tt.setup(f)

			resp, err := f.pipeline.Run(context.Background(), tt.req)
			assert.Nil(t, resp)
			requireStage(t, err, tt.stage)
			assert.Equal(t, tt.code, apperrors.CodeOf(err))
			assert.Contains(t, apperrors.PublicMessage(err), string(tt.stage))
		})
	}
}

func TestBuildMessage(t *testing.T) {
	tests := []struct {
		personal, stops, unmatched int
		want                       string
	}{
		{0, 0, 0, "Processing complete"},
		{1, 1, 0, "Found 1 personal locations, Found 1 total stops"},
		{0, 3, 0, "Found 3 total stops"},
		{0, 0, 2, "Need clarification on 2 locations"},
		{2, 5, 1, "Found 2 personal locations, Found 5 total stops, Need clarification on 1 locations"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, BuildMessage(tt.personal, tt.stops, tt.unmatched))
	}
}
