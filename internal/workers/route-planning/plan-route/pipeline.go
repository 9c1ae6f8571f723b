// internal/workers/route-planning/plan-route/pipeline.go
package planroute

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "rouvia/internal/common/errors"
	"rouvia/internal/common/logger"
	"rouvia/internal/common/metrics"
	"rouvia/internal/common/observability"
	"rouvia/internal/models"
	parserouteintent "rouvia/internal/workers/route-planning/parse-route-intent"
	searchcandidates "rouvia/internal/workers/route-planning/search-candidates"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, contentType string) (string, error)
}

type IntentParser interface {
	Parse(ctx context.Context, req parserouteintent.Request) (*models.Intent, error)
}

type CandidateGatherer interface {
	Aggregate(ctx context.Context, specs []models.QuerySpec) ([]models.PlaceCandidate, error)
}

type StopSelector interface {
	Select(ctx context.Context, intent models.Intent, candidates []models.PlaceCandidate) ([]models.Stop, error)
}

// Dependencies are the stage collaborators of a Pipeline. Observability may
// be nil.
type Dependencies struct {
	Transcriber   Transcriber
	Intents       IntentParser
	Gatherer      CandidateGatherer
	Selector      StopSelector
	Observability *observability.Observability
}

// Pipeline runs one request through transcription, intent parsing,
// candidate search and stop selection, strictly in that order.
type Pipeline struct {
	config *Config
	deps   Dependencies
	logger logger.Logger
}

func NewPipeline(config *Config, deps Dependencies, log logger.Logger) *Pipeline {
	if deps.Observability == nil {
		deps.Observability = observability.NewNoop()
	}
	return &Pipeline{
		config: config,
		deps:   deps,
		logger: log.With(map[string]interface{}{"component": "pipeline"}),
	}
}

type run struct {
	id     string
	state  Stage
	logger logger.Logger
}

// Run returns the assembled response or a *errors.PipelineError naming the
// stage that failed. No partial response is returned on failure.
func (p *Pipeline) Run(ctx context.Context, req Request) (*models.RouteResponse, error) {
	r := &run{id: uuid.NewString(), state: StageReceived}
	r.logger = p.logger.With(map[string]interface{}{"runId": r.id})
	start := time.Now()

	resp, err := p.run(ctx, r, req)

	status := StatusSuccess
	if err != nil {
		status = "failed"
		r.logger.Error("Pipeline failed", map[string]interface{}{
			"stage":     r.failedAt(err),
			"lastState": string(r.state),
			"errorCode": string(apperrors.CodeOf(err)),
			"error":     err.Error(),
		})
		r.state = StageFailed
	}
	metrics.PipelineRuns.WithLabelValues(req.inputKind(), status).Inc()
	p.deps.Observability.RecordRun(ctx, req.inputKind(), status, time.Since(start))

	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (p *Pipeline) run(ctx context.Context, r *run, req Request) (*models.RouteResponse, error) {
	text := strings.TrimSpace(req.Text)
	audio := len(req.Audio) > 0
	if !audio && text == "" {
		return nil, &apperrors.PipelineError{
			Stage: string(StageReceived),
			Err:   apperrors.NewValidationError("either audio or text is required"),
		}
	}

	if audio {
		err := p.stage(ctx, r, StageTranscribed, func(ctx context.Context) error {
			t, err := p.deps.Transcriber.Transcribe(ctx, req.Audio, req.ContentType)
			text = t
			return err
		})
		if err != nil {
			return nil, err
		}
	}

	var intent *models.Intent
	err := p.stage(ctx, r, StageIntentParsed, func(ctx context.Context) error {
		var err error
		intent, err = p.deps.Intents.Parse(ctx, parserouteintent.Request{
			Text:   text,
			Origin: req.Origin,
			UserID: req.UserID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	intent.OpenNow = req.OpenNow

	pool := []models.PlaceCandidate{}
	specs := searchcandidates.BuildQueries(*intent, p.config.MaxResults)
	skipped := len(specs) == 0
	if skipped {
		r.logger.Info("No searchable categories, skipping search", map[string]interface{}{
			"personal": len(intent.PersonalLocations),
		})
	} else {
		err = p.stage(ctx, r, StageCandidatesGathered, func(ctx context.Context) error {
			found, err := p.deps.Gatherer.Aggregate(ctx, specs)
			if found != nil {
				pool = found
			}
			return err
		})
		if err != nil {
			return nil, err
		}
	}

	selected := []models.Stop{}
	if len(pool) > 0 {
		err = p.stage(ctx, r, StageStopsSelected, func(ctx context.Context) error {
			stops, err := p.deps.Selector.Select(ctx, *intent, pool)
			if stops != nil {
				selected = stops
			}
			return err
		})
		if err != nil {
			return nil, err
		}
	}

	stops := mergeStops(intent.PersonalLocations, selected)

	resp := &models.RouteResponse{
		Status:  StatusSuccess,
		Stops:   stops,
		Message: BuildMessage(len(intent.PersonalLocations), len(stops), len(intent.UnmatchedSuggestions)),
		Metadata: models.RouteMetadata{
			RunID:                r.id,
			PersonalLocations:    intent.PersonalLocations,
			UnmatchedSuggestions: intent.UnmatchedSuggestions,
			HasPersonalLocations: len(intent.PersonalLocations) > 0,
			CandidateCount:       len(pool),
			SearchSkipped:        skipped,
		},
	}
	if audio {
		resp.TranscribedText = text
	}
	r.state = StageResponseBuilt

	r.logger.Info("Route planned", map[string]interface{}{
		"stage":      string(r.state),
		"stops":      len(stops),
		"candidates": len(pool),
		"personal":   len(intent.PersonalLocations),
		"unmatched":  len(intent.UnmatchedSuggestions),
	})
	return resp, nil
}

// stage runs fn as the named stage, tracing and timing it. Failures come
// back wrapped in a PipelineError for that stage.
func (p *Pipeline) stage(ctx context.Context, r *run, name Stage, fn func(context.Context) error) error {
	ctx, span := p.deps.Observability.StartSpan(ctx, "pipeline."+strings.ToLower(string(name)),
		attribute.String("run.id", r.id))
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	metrics.PipelineStageDuration.WithLabelValues(string(name)).Observe(elapsed.Seconds())

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apperrors.CodeOf(err)))
		return &apperrors.PipelineError{Stage: string(name), Err: err}
	}

	r.state = name
	r.logger.Debug("Stage complete", map[string]interface{}{
		"stage":      string(name),
		"durationMs": elapsed.Milliseconds(),
	})
	return nil
}

func (r *run) failedAt(err error) string {
	var pe *apperrors.PipelineError
	if errors.As(err, &pe) {
		return pe.Stage
	}
	return string(r.state)
}

// mergeStops puts personal locations first, in their resolved order, then
// the selected stops in the order the selector returned them.
func mergeStops(personal []models.ResolvedLocation, selected []models.Stop) []models.Stop {
	stops := make([]models.Stop, 0, len(personal)+len(selected))
	savedIDs := make(map[string]bool, len(personal))
	for _, l := range personal {
		if savedIDs[l.ID] {
			continue
		}
		savedIDs[l.ID] = true
		stops = append(stops, models.StopFromPersonal(l))
	}

	placeIDs := make(map[string]bool, len(selected))
	for _, s := range selected {
		if s.SavedID != "" && savedIDs[s.SavedID] {
			continue
		}
		if s.PlaceID != "" {
			if placeIDs[s.PlaceID] {
				continue
			}
			placeIDs[s.PlaceID] = true
		}
		stops = append(stops, s)
	}
	return stops
}

// BuildMessage summarizes a run's counts.
func BuildMessage(personal, stops, unmatched int) string {
	var parts []string
	if personal > 0 {
		parts = append(parts, fmt.Sprintf("Found %d personal locations", personal))
	}
	if stops > 0 {
		parts = append(parts, fmt.Sprintf("Found %d total stops", stops))
	}
	if unmatched > 0 {
		parts = append(parts, fmt.Sprintf("Need clarification on %d locations", unmatched))
	}
	if len(parts) == 0 {
		return "Processing complete"
	}
	return strings.Join(parts, ", ")
}
