// internal/workers/route-planning/plan-route/config.go
package planroute

import "time"

type Config struct {
	// MaxResults is the candidate cap shared by all categories of one run.
	MaxResults int
	// Timeout bounds a whole run started from a job.
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		MaxResults: 60,
		Timeout:    120 * time.Second,
	}
}
