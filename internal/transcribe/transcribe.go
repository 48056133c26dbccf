package transcribe

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/Seka35/visual-crm/internal/consts"
	"github.com/Seka35/visual-crm/internal/logger"
)

// Transcriber converts voice notes to text through the Whisper API.
type Transcriber struct {
	client openai.Client
	model  string
	log    *logger.Logger
}

// New creates a transcriber. Extra request options are for tests.
func New(apiKey, model string, opts ...option.RequestOption) (*Transcriber, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if model == "" {
		model = consts.DefaultTranscriptionModel
	}

	clientOpts := append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Transcriber{
		client: openai.NewClient(clientOpts...),
		model:  model,
		log:    logger.Global().WithPrefix("transcribe"),
	}, nil
}

// Transcribe sends one audio stream to the transcription endpoint and
// returns the recognized text. Telegram voice notes arrive as OGG/Opus.
func (t *Transcriber) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	if filename == "" {
		filename = "voice.ogg"
	}

	resp, err := t.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		Model: openai.AudioModel(t.model),
		File:  openai.File(audio, filename, "audio/ogg"),
	})
	if err != nil {
		return "", fmt.Errorf("transcription failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text)
	t.log.Debug("transcribed %d characters from %s", len(text), filename)
	return text, nil
}
