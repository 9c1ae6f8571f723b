// internal/workers/route-planning/parse-route-intent/config.go
package parserouteintent

import "time"

const DefaultRadiusMeters = 10000

type Config struct {
	DefaultRadiusMeters int
	Timeout             time.Duration
}

func LoadConfig() *Config {
	return &Config{
		DefaultRadiusMeters: DefaultRadiusMeters,
		Timeout:             30 * time.Second,
	}
}
