package openai

import (
	"context"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/garyjia/quickquote/internal/application/port"
	"github.com/garyjia/quickquote/internal/domain/entity"
)

const defaultTranscriptionModel = "whisper-large-v3-turbo"

// AudioTranscriber is the part of the OpenAI client the transcriber uses
type AudioTranscriber interface {
	CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
}

// Transcriber implements port.Transcriber with a Whisper-compatible endpoint
type Transcriber struct {
	client  AudioTranscriber
	model   string
	prompts *PromptConfig
	logger  *zap.Logger
}

// NewTranscriber creates a new speech transcriber
func NewTranscriber(client AudioTranscriber, model string, prompts *PromptConfig, logger *zap.Logger) *Transcriber {
	if model == "" {
		model = defaultTranscriptionModel
	}
	if prompts == nil {
		prompts = DefaultPrompts()
	}
	return &Transcriber{
		client:  client,
		model:   model,
		prompts: prompts,
		logger:  logger,
	}
}

// Transcribe sends the recording and returns the plain transcript
func (t *Transcriber) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	if audio == nil {
		return "", entity.ErrEmptyAudio
	}
	if filename == "" {
		filename = "recording.wav"
	}

	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: filename,
		Reader:   audio,
		Prompt:   t.prompts.Transcription.Prompt,
		Language: t.prompts.Transcription.Language,
		Format:   openai.AudioResponseFormatText,
	})
	if err != nil {
		t.logger.Error("Transcription call failed", zap.String("model", t.model), zap.Error(err))
		return "", fmt.Errorf("%w: %w", entity.ErrTranscriptionFailed, err)
	}

	text := strings.TrimSpace(resp.Text)
	t.logger.Info("Audio transcribed",
		zap.String("model", t.model),
		zap.Int("length", len(text)))

	return text, nil
}

// Verify interface compliance
var _ port.Transcriber = (*Transcriber)(nil)
