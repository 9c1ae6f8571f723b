package camunda

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"rouvia/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient() *Client {
	return &Client{
		requestTimeout: time.Second,
		backoff:        backoff{maxRetries: 2, base: time.Millisecond, max: 2 * time.Millisecond},
	}
}

func TestWithRetry(t *testing.T) {
	tests := []struct {
		name      string
		failures  []error
		wantCalls int
		wantCode  errors.ErrorCode
	}{
		{"succeeds first try", nil, 1, ""},
		{"recovers from transient", []error{stderrors.New("rpc error: Unavailable")}, 2, ""},
		{"permanent error is not retried", []error{stderrors.New("invalid argument")}, 1, errors.ErrCodeInternal},
		{
			"transient errors exhaust retries",
			[]error{
				stderrors.New("connection refused"),
				stderrors.New("connection refused"),
				stderrors.New("context deadline exceeded"),
			},
			3,
			errors.ErrCodeTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := testClient().withRetry(context.Background(), "topology", func(context.Context) error {
				calls++
				if calls <= len(tt.failures) {
					return tt.failures[calls-1]
				}
				return nil
			})

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantCode == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, errors.CodeOf(err))
			assert.ErrorIs(t, err, tt.failures[len(tt.failures)-1])
		})
	}
}

func TestWithRetry_StopsWhenContextDone(t *testing.T) {
	c := testClient()
	c.backoff.base = time.Hour
	c.backoff.max = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := c.withRetry(ctx, "topology", func(context.Context) error {
		calls++
		cancel()
		return stderrors.New("connection reset by peer")
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, isTransient(stderrors.New("dial tcp: Connection Refused")))
	assert.True(t, isTransient(stderrors.New("write: broken pipe")))
	assert.False(t, isTransient(stderrors.New("NOT_FOUND: no such job")))
}
