// internal/workers/route-planning/select-stops/config.go
package selectstops

import "time"

type Config struct {
	// MaxPromptCandidates bounds how many ranked candidates are offered to the model.
	MaxPromptCandidates int
	Timeout             time.Duration
}

func LoadConfig() *Config {
	return &Config{
		MaxPromptCandidates: 60,
		Timeout:             30 * time.Second,
	}
}
