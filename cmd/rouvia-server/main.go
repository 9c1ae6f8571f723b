// cmd/rouvia-server/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rouvia/internal/common/camunda"
	"rouvia/internal/common/config"
	"rouvia/internal/common/database"
	"rouvia/internal/common/gemini"
	commonhttp "rouvia/internal/common/http"
	"rouvia/internal/common/logger"
	"rouvia/internal/common/observability"
	"rouvia/internal/common/places"
	"rouvia/internal/common/whisper"
	"rouvia/internal/server"

	savedlocations "rouvia/internal/workers/profile/saved-locations"
	pir "rouvia/internal/workers/route-planning/parse-route-intent"
	pr "rouvia/internal/workers/route-planning/plan-route"
	sc "rouvia/internal/workers/route-planning/search-candidates"
	ss "rouvia/internal/workers/route-planning/select-stops"
	ta "rouvia/internal/workers/route-planning/transcribe-audio"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err.Error(),
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func fatal(log logger.Logger, msg string, err error) {
	log.Error(msg, map[string]interface{}{"error": err.Error()})
	os.Exit(1)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	log.Info("Starting rouvia server...", map[string]interface{}{
		"environment": cfg.App.Environment,
		"version":     cfg.App.Version,
	})

	obs := observability.New(cfg.Observability.ServiceName, cfg.Observability.JaegerEndpoint, log)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Saved-location store ---
	primary, closePrimary, err := openPrimaryBackend(ctx, cfg, log)
	if err != nil {
		// The file fallback still serves every call.
		log.Error("Primary profile store unavailable, using fallback only", map[string]interface{}{
			"backend": cfg.Store.Primary,
			"error":   err.Error(),
		})
	}
	defer closePrimary()

	store := savedlocations.NewStore(
		primary,
		savedlocations.NewFileBackend(cfg.Store.FallbackPath),
		config.GetDuration(cfg.Store.Timeout),
		log,
	)

	// --- External service clients ---
	placesClient := places.NewClient(places.Config{
		BaseURL:           cfg.APIs.Places.BaseURL,
		APIKey:            cfg.APIs.Places.APIKey,
		Timeout:           config.GetDuration(cfg.APIs.Places.Timeout),
		RequestsPerSecond: cfg.APIs.Places.RequestsPerSecond,
	}, commonhttp.NewClient(config.GetDuration(cfg.APIs.Places.Timeout)), log)

	llm, err := gemini.NewClient(ctx, gemini.Config{
		APIKey:  cfg.APIs.Gemini.APIKey,
		Model:   cfg.APIs.Gemini.Model,
		Timeout: config.GetDuration(cfg.APIs.Gemini.Timeout),
	}, log)
	if err != nil {
		fatal(log, "gemini client failed", err)
	}

	speech := whisper.NewClient(whisper.Config{
		APIKey:     cfg.APIs.OpenAI.APIKey,
		BaseURL:    cfg.APIs.OpenAI.BaseURL,
		Model:      cfg.APIs.OpenAI.Model,
		Timeout:    config.GetDuration(cfg.APIs.OpenAI.Timeout),
		HTTPClient: commonhttp.NewClient(config.GetDuration(cfg.APIs.OpenAI.Timeout)).HTTPClient(),
	}, log)

	// --- Stages ---
	searchCfg := sc.LoadConfig()
	searchCfg.MaxResults = cfg.Search.MaxResults
	searchCfg.MinRating = cfg.Search.MinRating
	searchCfg.Concurrency = cfg.Search.Concurrency
	searchCfg.PageTokenDelay = config.GetDuration(cfg.APIs.Places.PageTokenDelay)
	searchCfg.RetryDelay = config.GetDuration(cfg.APIs.Places.RetryDelay)
	search := sc.NewHandler(searchCfg, placesClient, log)

	intentCfg := pir.LoadConfig()
	intentCfg.DefaultRadiusMeters = cfg.Search.DefaultRadiusMeters
	intentCfg.Timeout = config.GetDuration(cfg.APIs.Gemini.Timeout)

	selectCfg := ss.LoadConfig()
	selectCfg.Timeout = config.GetDuration(cfg.APIs.Gemini.Timeout)

	transcribeCfg := ta.LoadConfig()
	transcribeCfg.MaxAudioBytes = cfg.Server.MaxUploadBytes
	transcribeCfg.Timeout = config.GetDuration(cfg.APIs.OpenAI.Timeout)

	pipelineCfg := pr.LoadConfig()
	pipelineCfg.MaxResults = cfg.Search.MaxResults

	pipeline := pr.NewPipeline(pipelineCfg, pr.Dependencies{
		Transcriber:   ta.NewService(transcribeCfg, speech, log),
		Intents:       pir.NewService(intentCfg, llm, store, log),
		Gatherer:      sc.NewAggregator(search.Engine(), searchCfg.Concurrency, log),
		Selector:      ss.NewService(selectCfg, llm, log),
		Observability: obs,
	}, log)

	// --- Zeebe workers (optional) ---
	var zeebe *camunda.Client
	var workers []*camunda.Worker
	if cfg.Camunda.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			zeebe, err = camunda.NewClient(cfg.Camunda.BrokerAddress, config.GetDuration(cfg.Camunda.RequestTimeout))
			return err
		}, 10, 2*time.Second, log, "Zeebe client initialization")
		if err != nil {
			fatal(log, "zeebe client failed after retries", err)
		}
		log.Info("Zeebe client connected successfully", nil)

		jobs := map[string]camunda.JobHandler{
			pr.TaskType: pr.NewHandler(pipelineCfg, pipeline, log),
			sc.TaskType: search,
		}
		for taskType, handler := range jobs {
			if !config.IsWorkerEnabled(cfg, taskType) {
				log.Info("Worker disabled", map[string]interface{}{"taskType": taskType})
				continue
			}
			wcfg := config.GetWorkerConfig(cfg, taskType)
			workers = append(workers, camunda.NewWorker(
				zeebe.GetClient(), taskType, wcfg.MaxJobsActive, config.GetDuration(wcfg.Timeout), handler, log,
			))
		}
	}

	// --- HTTP API ---
	api := server.New(server.Config{
		Port:           cfg.Server.Port,
		ReadTimeout:    config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout:   config.GetDuration(cfg.Server.WriteTimeout),
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
	}, pipeline, store, search, log).HTTPServer()

	go func() {
		log.Info("HTTP API listening", map[string]interface{}{"addr": api.Addr})
		if err := api.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(log, "HTTP API failed", err)
		}
	}()

	// --- Health & Metrics Server ---
	ops := &http.Server{
		Addr:    ":" + strconv.Itoa(cfg.Server.MetricsPort),
		Handler: opsMux(zeebe),
	}
	go func() {
		log.Info("Health/Metrics server listening", map[string]interface{}{"addr": ops.Addr})
		if err := ops.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Health/Metrics server failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("Shutdown signal received, stopping...", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := api.Shutdown(shutdownCtx); err != nil {
		log.Error("Error stopping HTTP API", map[string]interface{}{"error": err.Error()})
	}
	for _, w := range workers {
		w.Stop()
	}
	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			log.Error("Error closing Zeebe client", map[string]interface{}{"error": err.Error()})
		}
	}
	_ = ops.Shutdown(shutdownCtx)

	log.Info("Rouvia server stopped gracefully", nil)
}

// openPrimaryBackend connects the configured primary profile backend. On
// failure it returns a nil backend so the store runs on its fallback.
func openPrimaryBackend(ctx context.Context, cfg *config.Config, log logger.Logger) (savedlocations.Backend, func(), error) {
	noop := func() {}

	switch cfg.Store.Primary {
	case "postgres":
		var pg *database.PostgresClient
		err := retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 5, 2*time.Second, log, "PostgreSQL connection")
		if err != nil {
			return nil, noop, err
		}
		backend := savedlocations.NewPostgresBackend(pg)
		if err := backend.EnsureSchema(ctx); err != nil {
			_ = pg.Close()
			return nil, noop, fmt.Errorf("postgres schema: %w", err)
		}
		log.Info("PostgreSQL connected successfully", nil)
		return backend, func() { _ = pg.Close() }, nil

	default:
		var rdb *database.RedisClient
		err := retryWithBackoff(func() error {
			var err error
			rdb, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return rdb.Ping(ctx)
		}, 5, 2*time.Second, log, "Redis connection")
		if err != nil {
			return nil, noop, err
		}
		log.Info("Redis connected successfully", nil)
		return savedlocations.NewRedisBackend(rdb, cfg.Store.KeyPrefix), func() { _ = rdb.Close() }, nil
	}
}

func opsMux(zeebe *camunda.Client) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy")
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if zeebe != nil {
			if err := zeebe.HealthCheck(r.Context()); err != nil {
				writeStatus(w, http.StatusServiceUnavailable, "not ready")
				return
			}
		}
		writeStatus(w, http.StatusOK, "ready")
	})
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	})
}
