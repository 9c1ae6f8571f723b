// internal/workers/route-planning/transcribe-audio/service.go
package transcribeaudio

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	apperrors "rouvia/internal/common/errors"
	"rouvia/internal/common/logger"
)

// Transcriber is the speech-to-text provider.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, contentType string) (string, error)
}

// Service validates uploads and turns provider failures into transcription errors.
type Service struct {
	config      *Config
	transcriber Transcriber
	logger      logger.Logger
}

func NewService(config *Config, transcriber Transcriber, log logger.Logger) *Service {
	return &Service{
		config:      config,
		transcriber: transcriber,
		logger:      log.With(map[string]interface{}{"stage": "transcribe-audio"}),
	}
}

func (s *Service) Transcribe(ctx context.Context, audio []byte, contentType string) (string, error) {
	if len(audio) == 0 {
		return "", apperrors.NewValidationError("audio file is empty")
	}
	if s.config.MaxAudioBytes > 0 && int64(len(audio)) > s.config.MaxAudioBytes {
		return "", apperrors.NewValidationError(fmt.Sprintf("audio exceeds %d bytes", s.config.MaxAudioBytes))
	}

	contentType = resolveContentType(audio, contentType)

	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := s.transcriber.Transcribe(ctx, audio, contentType)
	if err != nil {
		if !errors.Is(err, apperrors.ErrTranscription) {
			err = apperrors.NewTranscriptionError(err)
		}
		s.logger.Warn("Transcription failed", map[string]interface{}{
			"contentType": contentType,
			"bytes":       len(audio),
			"error":       err.Error(),
		})
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", apperrors.NewTranscriptionError(errors.New("transcript is empty"))
	}

	s.logger.Info("Audio transcribed", map[string]interface{}{
		"contentType": contentType,
		"bytes":       len(audio),
		"chars":       len(text),
		"durationMs":  time.Since(start).Milliseconds(),
	})
	return text, nil
}

// resolveContentType sniffs the payload when the upload carried no usable type.
func resolveContentType(audio []byte, contentType string) string {
	ct := strings.TrimSpace(contentType)
	if ct == "" || strings.HasPrefix(ct, "application/octet-stream") {
		return http.DetectContentType(audio)
	}
	return ct
}
