// internal/workers/route-planning/search-candidates/handler.go
package searchcandidates

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	apperrors "rouvia/internal/common/errors"
	"rouvia/internal/common/logger"
	"rouvia/internal/common/metrics"
	"rouvia/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "search-candidates"

// Handler serves ad-hoc candidate searches for the debug endpoint and the
// search-candidates job type.
type Handler struct {
	config     *Config
	engine     *Engine
	logger     logger.Logger
	errHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, searcher TextSearcher, log logger.Logger) *Handler {
	log = log.With(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		engine:     NewEngine(searcher, config, log),
		logger:     log,
		errHandler: apperrors.NewErrorHandler(log),
	}
}

// Engine exposes the configured engine for the pipeline.
func (h *Handler) Engine() *Engine {
	return h.engine
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("Processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.errHandler.HandleJobError(context.Background(), client, job,
			apperrors.NewValidationError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.Execute(ctx, &input)
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.CodeOf(err))).Inc()
		h.errHandler.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

// Execute builds one spec per query and aggregates their candidates.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	queries := make([]string, 0, len(input.Queries))
	for _, q := range input.Queries {
		if q = strings.TrimSpace(q); q != "" {
			queries = append(queries, q)
		}
	}
	if len(queries) == 0 {
		return nil, apperrors.NewValidationError("queries must contain at least one non-empty string")
	}

	intent := models.Intent{
		PlaceCategories: queries,
		OpenNow:         input.OpenNow,
	}
	if input.Lat != nil && input.Lng != nil {
		intent.Origin = &models.LatLng{Lat: *input.Lat, Lng: *input.Lng}
	}
	var radius *float64
	if input.RadiusM != nil {
		meters, err := ParseRadius(input.RadiusM)
		if err != nil {
			return nil, err
		}
		radius = &meters
		intent.SearchRadiusMeters = int(math.Ceil(meters))
	}

	maxResults := input.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultDebugMaxResults
	}

	engine := h.engine
	if input.MinRating != nil {
		engine = engine.WithMinRating(*input.MinRating)
	}

	specs := BuildQueries(intent, maxResults)
	// Debug callers get the bias radius exactly as parsed.
	for i := range specs {
		if specs[i].RadiusMeters != nil && radius != nil {
			specs[i].RadiusMeters = radius
		}
	}
	pool, err := NewAggregator(engine, h.config.Concurrency, h.logger).Aggregate(ctx, specs)
	if err != nil {
		return nil, err
	}

	return &Output{Specs: specs, Candidates: pool, Count: len(pool)}, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("Failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("Failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}
