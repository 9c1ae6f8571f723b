// internal/workers/route-planning/search-candidates/config.go
package searchcandidates

import "time"

const (
	DefaultMaxResults      = 60
	MinBudgetPerCategory   = 10
	DefaultDebugMaxResults = 10
)

type Config struct {
	// MaxResults is the overall cap distributed across categories.
	MaxResults int
	MinRating  float64
	// PageTokenDelay is waited before a next-page token is reused. Zero in tests.
	PageTokenDelay time.Duration
	// RetryDelay is waited before the single retry of a rate-limited page.
	RetryDelay  time.Duration
	Concurrency int
	Timeout     time.Duration
}

func LoadConfig() *Config {
	return &Config{
		MaxResults:     DefaultMaxResults,
		PageTokenDelay: 2 * time.Second,
		RetryDelay:     2 * time.Second,
		Concurrency:    4,
		Timeout:        60 * time.Second,
	}
}
