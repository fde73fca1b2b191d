package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/voxline-ai/voxline/pkg/audio"
	"github.com/voxline-ai/voxline/pkg/errorsx"
	"github.com/voxline-ai/voxline/pkg/logging"
)

type ElevenLabsConfig struct {
	APIKey    string `mapstructure:"api_key"`
	VoiceID   string `mapstructure:"voice_id"`
	ModelID   string `mapstructure:"model_id"`
	BaseURL   string `mapstructure:"base_url"`
	TimeoutMS int    `mapstructure:"timeout_ms"`
}

func (c ElevenLabsConfig) withDefaults() ElevenLabsConfig {
	if c.ModelID == "" {
		c.ModelID = "eleven_flash_v2_5"
	}
	if c.BaseURL == "" {
		c.BaseURL = "https://api.elevenlabs.io"
	}
	if c.TimeoutMS <= 0 {
		c.TimeoutMS = 15000
	}
	return c
}

// ElevenLabs synthesizes over the HTTP streaming endpoint, requesting raw
// 24 kHz PCM so no container parsing is needed.
type ElevenLabs struct {
	cfg    ElevenLabsConfig
	client *http.Client
	logger *slog.Logger
}

func NewElevenLabs(cfg ElevenLabsConfig) *ElevenLabs {
	cfg = cfg.withDefaults()
	return &ElevenLabs{
		cfg:    cfg,
		client: &http.Client{Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond},
		logger: logging.NewComponentLogger(slog.Default(), "elevenlabs_tts"),
	}
}

func (e *ElevenLabs) Synthesize(ctx context.Context, text, voice string) []int16 {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if voice == "" {
		voice = e.cfg.VoiceID
	}
	if e.cfg.APIKey == "" || voice == "" {
		e.logger.Warn("synthesis_skipped", "reason_code", string(errorsx.ReasonTTSSynthesize), "error", "missing api key or voice id")
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	u, err := url.Parse(e.cfg.BaseURL + "/v1/text-to-speech/" + voice + "/stream")
	if err != nil {
		e.logger.Warn("synthesis_failed", "reason_code", string(errorsx.ReasonTTSSynthesize), "error", err.Error())
		return nil
	}
	q := u.Query()
	q.Set("model_id", e.cfg.ModelID)
	q.Set("output_format", "pcm_24000")
	u.RawQuery = q.Encode()

	body, _ := json.Marshal(map[string]any{
		"model_id": e.cfg.ModelID,
		"text":     text,
		"voice_settings": map[string]any{
			"stability":        0.5,
			"similarity_boost": 0.8,
		},
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		e.logger.Warn("synthesis_failed", "reason_code", string(errorsx.ReasonTTSSynthesize), "error", err.Error())
		return nil
	}
	req.Header.Set("xi-api-key", e.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		e.logger.Warn("synthesis_failed",
			"reason_code", string(errorsx.ReasonTTSSynthesize),
			"timeout", errorsx.IsTimeout(err),
			"error", err.Error())
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		e.logger.Warn("synthesis_failed",
			"reason_code", string(errorsx.ReasonTTSSynthesize),
			"status", resp.StatusCode,
			"detail", string(detail))
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		e.logger.Warn("synthesis_failed", "reason_code", string(errorsx.ReasonTTSSynthesize), "error", err.Error())
		return nil
	}
	return audio.BytesToPCM(raw)
}
