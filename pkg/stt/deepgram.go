package stt

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"time"

	prerecorded "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/rest"
	interfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	client "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"

	"github.com/voxline-ai/voxline/pkg/errorsx"
	"github.com/voxline-ai/voxline/pkg/logging"
)

// minWAVBytes rejects payloads shorter than the 44-byte container header
// plus ~100 ms of 8 kHz 16-bit audio before any network round trip.
const minWAVBytes = 44 + 1600

type DeepgramConfig struct {
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	TimeoutMS int    `mapstructure:"timeout_ms"`
}

func (c DeepgramConfig) withDefaults() DeepgramConfig {
	if c.Model == "" {
		c.Model = "nova-2"
	}
	if c.TimeoutMS <= 0 {
		c.TimeoutMS = 8000
	}
	return c
}

// Deepgram transcribes whole utterances through the prerecorded REST API.
// The pipeline segments audio itself, so the streaming endpoint is not used.
type Deepgram struct {
	cfg    DeepgramConfig
	api    *prerecorded.Client
	logger *slog.Logger
}

func NewDeepgram(cfg DeepgramConfig) *Deepgram {
	cfg = cfg.withDefaults()
	return &Deepgram{
		cfg:    cfg,
		api:    prerecorded.New(client.NewREST(cfg.APIKey, &interfaces.ClientOptions{})),
		logger: logging.NewComponentLogger(slog.Default(), "deepgram_stt"),
	}
}

func (d *Deepgram) Transcribe(ctx context.Context, wav []byte, language string) Result {
	if len(wav) < minWAVBytes {
		return Result{Empty: true}
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, time.Duration(d.cfg.TimeoutMS)*time.Millisecond)
	defer cancel()

	options := &interfaces.PreRecordedTranscriptionOptions{
		Model:       d.cfg.Model,
		Language:    normalizeLanguage(language),
		SmartFormat: true,
	}
	res, err := d.api.FromStream(ctx, bytes.NewReader(wav), options)
	if err != nil {
		d.logger.Warn("transcription_failed",
			"reason_code", string(errorsx.ReasonSTTTranscribe),
			"timeout", errorsx.IsTimeout(err),
			"error", err.Error())
		return Result{Empty: true, Err: errorsx.Wrap(err, errorsx.ReasonSTTTranscribe)}
	}
	if res == nil || res.Results == nil ||
		len(res.Results.Channels) == 0 || len(res.Results.Channels[0].Alternatives) == 0 {
		return Result{Empty: true}
	}
	alt := res.Results.Channels[0].Alternatives[0]
	text := strings.TrimSpace(alt.Transcript)
	if IsNoise(text) {
		d.logger.Debug("transcript_rejected",
			"reason_code", string(errorsx.ReasonSTTRejected),
			"length", len(text))
		return Result{Empty: true}
	}
	return Result{Text: text, Confidence: alt.Confidence}
}

// normalizeLanguage maps BCP-47 tags to the provider's language codes,
// keeping the region when the provider supports it.
func normalizeLanguage(language string) string {
	language = strings.TrimSpace(language)
	if language == "" {
		return "en"
	}
	return language
}
