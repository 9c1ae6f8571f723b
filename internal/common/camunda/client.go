package camunda

import (
	"context"
	"fmt"
	"strings"
	"time"

	"rouvia/internal/common/errors"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

const connectTimeout = 10 * time.Second

// Client wraps the Zeebe gateway client used by the route job workers.
type Client struct {
	client         zbc.Client
	requestTimeout time.Duration
	backoff        backoff
}

type backoff struct {
	maxRetries int
	base       time.Duration
	max        time.Duration
}

var defaultBackoff = backoff{maxRetries: 3, base: time.Second, max: 10 * time.Second}

// NewClient dials a plaintext gateway and confirms the broker answers a
// topology request before returning.
func NewClient(address string, requestTimeout time.Duration) (*Client, error) {
	zeebeClient, err := zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         address,
		UsePlaintextConnection: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Zeebe client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if _, err := zeebeClient.NewTopologyCommand().Send(ctx); err != nil {
		zeebeClient.Close()
		return nil, fmt.Errorf("failed to connect to Zeebe broker at %s: %w", address, err)
	}

	if requestTimeout <= 0 {
		requestTimeout = connectTimeout
	}
	return &Client{client: zeebeClient, requestTimeout: requestTimeout, backoff: defaultBackoff}, nil
}

// GetClient returns the raw client the job workers poll with.
func (c *Client) GetClient() zbc.Client {
	return c.client
}

func (c *Client) Close() error {
	return c.client.Close()
}

// HealthCheck asks the gateway for its topology within the request timeout.
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	err := c.withRetry(ctx, "topology", func(ctx context.Context) error {
		_, err := c.client.NewTopologyCommand().Send(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("zeebe health check failed: %w", err)
	}
	return nil
}

// withRetry reruns transient gateway failures with capped exponential backoff.
func (c *Client) withRetry(ctx context.Context, operation string, call func(context.Context) error) error {
	for attempt := 0; ; attempt++ {
		err := call(ctx)
		if err == nil {
			return nil
		}
		if !isTransient(err) || attempt >= c.backoff.maxRetries {
			return classify(err, operation, attempt)
		}

		delay := c.backoff.base << attempt
		if delay > c.backoff.max {
			delay = c.backoff.max
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("zeebe %s cancelled after %d attempts: %w", operation, attempt+1, ctx.Err())
		}
	}
}

var transientPhrases = []string{
	"connection refused",
	"connection reset",
	"timeout",
	"deadline exceeded",
	"unavailable",
	"unreachable",
	"broken pipe",
}

func isTransient(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, phrase := range transientPhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}

// classify maps a gateway failure onto the service error codes.
func classify(err error, operation string, attempt int) error {
	wrapped := fmt.Errorf("zeebe %s failed after %d attempts: %w", operation, attempt+1, err)
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded") {
		return errors.NewTimeoutError("zeebe", wrapped)
	}
	return errors.NewInternalError(wrapped)
}
