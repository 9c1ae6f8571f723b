package places

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	apperrors "rouvia/internal/common/errors"
	commonhttp "rouvia/internal/common/http"
	"rouvia/internal/common/logger"

	"golang.org/x/time/rate"
)

// ErrRateLimited is returned for HTTP 429 so callers can apply their retry policy.
var ErrRateLimited = errors.New("place search rate limited")

// maxErrorBody bounds how much of a failed response is kept.
const maxErrorBody = 4096

type Config struct {
	BaseURL           string
	APIKey            string
	Timeout           time.Duration
	RequestsPerSecond float64
}

// Client calls the Places Text Search endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	httpClient *commonhttp.Client
	limiter    *rate.Limiter
	logger     logger.Logger
}

func NewClient(cfg Config, httpClient *commonhttp.Client, log logger.Logger) *Client {
	if httpClient == nil {
		httpClient = commonhttp.NewClient(cfg.Timeout)
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		timeout:    cfg.Timeout,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, 1),
		logger:     log.With(map[string]interface{}{"component": "places"}),
	}
}

// TextSearch fetches one page. A 429 yields ErrRateLimited; other non-2xx
// statuses yield *errors.SearchProviderError.
func (c *Client) TextSearch(ctx context.Context, req TextSearchRequest) (*TextSearchResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if req.LocationBias != nil && req.LocationBias.Circle.Radius > MaxBiasRadius {
		req.LocationBias.Circle.Radius = MaxBiasRadius
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	endpoint := c.baseURL + "/places:searchText"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Goog-Api-Key", c.apiKey)
	httpReq.Header.Set("X-Goog-FieldMask", FieldMask)

	c.logger.Debug("Calling place text search", map[string]interface{}{
		"url":      endpoint,
		"apiKey":   "***REDACTED***",
		"query":    req.TextQuery,
		"paged":    req.PageToken != "",
		"pageSize": req.PageSize,
		"hasBias":  req.LocationBias != nil,
		"openNow":  req.OpenNow,
	})

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		var ne net.Error
		if ctx.Err() != nil || (errors.As(err, &ne) && ne.Timeout()) {
			return nil, apperrors.NewTimeoutError("places", err)
		}
		return nil, fmt.Errorf("place search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, ErrRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &apperrors.SearchProviderError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var out TextSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &apperrors.SearchProviderError{StatusCode: resp.StatusCode, Body: "undecodable response: " + err.Error()}
	}
	return &out, nil
}
