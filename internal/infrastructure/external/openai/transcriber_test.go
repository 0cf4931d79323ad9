package openai

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/quickquote/internal/domain/entity"
)

type fakeAudio struct {
	text string
	err  error
	last openai.AudioRequest
	body string
}

func (f *fakeAudio) CreateTranscription(_ context.Context, req openai.AudioRequest) (openai.AudioResponse, error) {
	f.last = req
	if req.Reader != nil {
		b, _ := io.ReadAll(req.Reader)
		f.body = string(b)
	}
	if f.err != nil {
		return openai.AudioResponse{}, f.err
	}
	return openai.AudioResponse{Text: f.text}, nil
}

func TestTranscriber_Transcribe(t *testing.T) {
	audio := &fakeAudio{text: "  Client: John Doe. 5 LED lights at $80 each.\n"}
	tr := NewTranscriber(audio, "", nil, zap.NewNop())

	text, err := tr.Transcribe(context.Background(), "memo.wav", strings.NewReader("RIFF...."))
	require.NoError(t, err)
	assert.Equal(t, "Client: John Doe. 5 LED lights at $80 each.", text)
	assert.Equal(t, "whisper-large-v3-turbo", audio.last.Model)
	assert.Equal(t, openai.AudioResponseFormatText, audio.last.Format)
	assert.Equal(t, "memo.wav", audio.last.FilePath)
	assert.Equal(t, "RIFF....", audio.body)
}

func TestTranscriber_DefaultsFilename(t *testing.T) {
	audio := &fakeAudio{text: "ok"}
	_, err := NewTranscriber(audio, "custom", nil, zap.NewNop()).
		Transcribe(context.Background(), "", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, "recording.wav", audio.last.FilePath)
	assert.Equal(t, "custom", audio.last.Model)
}

func TestTranscriber_Errors(t *testing.T) {
	tr := NewTranscriber(&fakeAudio{}, "", nil, zap.NewNop())
	_, err := tr.Transcribe(context.Background(), "a.wav", nil)
	assert.ErrorIs(t, err, entity.ErrEmptyAudio)

	tr = NewTranscriber(&fakeAudio{err: errors.New("429 rate limited")}, "", nil, zap.NewNop())
	_, err = tr.Transcribe(context.Background(), "a.wav", strings.NewReader("x"))
	assert.ErrorIs(t, err, entity.ErrTranscriptionFailed)
}
