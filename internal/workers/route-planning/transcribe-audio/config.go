// internal/workers/route-planning/transcribe-audio/config.go
package transcribeaudio

import "time"

type Config struct {
	MaxAudioBytes int64
	Timeout       time.Duration
}

func LoadConfig() *Config {
	return &Config{
		MaxAudioBytes: 25 << 20,
		Timeout:       60 * time.Second,
	}
}
