// Package whisper transcribes uploaded audio through the OpenAI audio API.
package whisper

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"

	apperrors "rouvia/internal/common/errors"
	"rouvia/internal/common/logger"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"
)

type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	HTTPClient *http.Client
}

type Client struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  logger.Logger
}

func NewClient(cfg Config, log logger.Logger) *Client {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPClient != nil {
		oc.HTTPClient = cfg.HTTPClient
	}
	model := cfg.Model
	if model == "" {
		model = openai.Whisper1
	}
	return &Client{
		client:  openai.NewClientWithConfig(oc),
		model:   model,
		timeout: cfg.Timeout,
		logger:  log.With(map[string]interface{}{"component": "whisper"}),
	}
}

// Transcribe converts audio bytes to text. Every failure is a transcription error.
func (c *Client) Transcribe(ctx context.Context, audio []byte, contentType string) (string, error) {
	if len(audio) == 0 {
		return "", apperrors.NewTranscriptionError(fmt.Errorf("empty audio payload"))
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req := openai.AudioRequest{
		Model:    c.model,
		FilePath: uuid.NewString() + extensionFor(contentType),
		Reader:   bytes.NewReader(audio),
		Format:   openai.AudioResponseFormatJSON,
	}

	start := time.Now()
	resp, err := c.client.CreateTranscription(ctx, req)
	if err != nil {
		return "", apperrors.NewTranscriptionError(err)
	}

	text := strings.TrimSpace(resp.Text)
	c.logger.Info("Audio transcribed", map[string]interface{}{
		"bytes":      len(audio),
		"chars":      len(text),
		"durationMs": time.Since(start).Milliseconds(),
	})
	return text, nil
}

// extensionFor picks the filename suffix the API uses to detect the codec.
func extensionFor(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ".webm"
	}
	switch mediaType {
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/wav", "audio/x-wav", "audio/wave":
		return ".wav"
	case "audio/mp4", "audio/m4a", "audio/x-m4a":
		return ".m4a"
	case "audio/ogg":
		return ".ogg"
	case "audio/flac":
		return ".flac"
	default:
		return ".webm"
	}
}
