package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/garyjia/quickquote/internal/application/port"
	"github.com/garyjia/quickquote/internal/domain/entity"
)

// TranscriptionService turns a recorded job description into text
type TranscriptionService interface {
	Transcribe(ctx context.Context, filename string, audio []byte) (string, error)
}

type transcriptionServiceImpl struct {
	transcriber port.Transcriber
	maxBytes    int64
	logger      Logger
}

// NewTranscriptionService creates a new TranscriptionService. maxBytes <= 0
// disables the size check.
func NewTranscriptionService(transcriber port.Transcriber, maxBytes int64, logger Logger) TranscriptionService {
	return &transcriptionServiceImpl{
		transcriber: transcriber,
		maxBytes:    maxBytes,
		logger:      logger,
	}
}

// Transcribe sends the recording to the speech model
func (s *transcriptionServiceImpl) Transcribe(ctx context.Context, filename string, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", entity.ErrEmptyAudio
	}
	if s.maxBytes > 0 && int64(len(audio)) > s.maxBytes {
		return "", fmt.Errorf("%w: %d bytes, limit is %d", entity.ErrAudioTooLarge, len(audio), s.maxBytes)
	}

	text, err := s.transcriber.Transcribe(ctx, filename, bytes.NewReader(audio))
	if err != nil {
		s.logger.Error("Transcription failed", "error", err, "filename", filename)
		return "", err
	}

	s.logger.Info("Recording transcribed", "filename", filename, "bytes", len(audio), "chars", len(text))
	return text, nil
}
