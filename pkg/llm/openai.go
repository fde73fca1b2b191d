package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/voxline-ai/voxline/pkg/errorsx"
	"github.com/voxline-ai/voxline/pkg/logging"
	"github.com/voxline-ai/voxline/pkg/resilience"
)

type OpenAIConfig struct {
	APIKey            string `mapstructure:"api_key"`
	Model             string `mapstructure:"model"`
	BaseURL           string `mapstructure:"base_url"`
	TimeoutMS         int    `mapstructure:"timeout_ms"`
	MaxHistory        int    `mapstructure:"max_history"`
	UseCircuitBreaker bool   `mapstructure:"use_circuit_breaker"`
	CircuitThreshold  int    `mapstructure:"circuit_threshold"`
	CircuitCooldownMS int    `mapstructure:"circuit_cooldown_ms"`
}

func (c OpenAIConfig) withDefaults() OpenAIConfig {
	if c.Model == "" {
		c.Model = "gpt-4o-mini"
	}
	if c.BaseURL == "" {
		c.BaseURL = "https://api.openai.com/v1"
	}
	if c.TimeoutMS <= 0 {
		c.TimeoutMS = 12000
	}
	if c.MaxHistory <= 0 {
		c.MaxHistory = 12
	}
	return c
}

// OpenAIAdapter speaks the OpenAI-compatible chat-completions protocol, which
// also covers Cerebras, Groq and compatible gateways via BaseURL.
type OpenAIAdapter struct {
	cfg     OpenAIConfig
	client  *http.Client
	breaker *resilience.CircuitBreaker
	logger  *slog.Logger
}

func NewOpenAIAdapter(cfg OpenAIConfig) *OpenAIAdapter {
	cfg = cfg.withDefaults()
	a := &OpenAIAdapter{
		cfg:    cfg,
		client: &http.Client{Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond},
		logger: logging.NewComponentLogger(slog.Default(), "openai_llm"),
	}
	if cfg.UseCircuitBreaker {
		a.breaker = resilience.NewCircuitBreaker(
			cfg.CircuitThreshold,
			time.Duration(cfg.CircuitCooldownMS)*time.Millisecond)
	}
	return a
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
}

func (a *OpenAIAdapter) GenerateReply(ctx context.Context, req Request) (Reply, error) {
	if a.breaker != nil && !a.breaker.Allow() {
		return Reply{}, errorsx.Wrap(errors.New("llm circuit open"), errorsx.ReasonLLMGenerate)
	}
	raw, err := a.complete(ctx, a.buildMessages(req))
	if a.breaker != nil {
		if err != nil {
			a.breaker.OnError(err)
		} else {
			a.breaker.OnSuccess()
		}
	}
	if err != nil {
		a.logger.Warn("llm_generate_failed",
			"reason_code", string(errorsx.ReasonLLMGenerate),
			"timeout", errorsx.IsTimeout(err),
			"error", err.Error())
		return Reply{}, errorsx.Wrap(err, errorsx.ReasonLLMGenerate)
	}
	return parseReply(raw, a.logger), nil
}

func (a *OpenAIAdapter) buildMessages(req Request) []Message {
	history := req.History
	if len(history) > a.cfg.MaxHistory {
		history = history[len(history)-a.cfg.MaxHistory:]
	}
	messages := make([]Message, 0, len(history)+2)
	messages = append(messages, Message{Role: "system", Content: SystemPrompt(req.Persona, req.Language)})
	messages = append(messages, history...)
	messages = append(messages, Message{Role: "user", Content: req.Transcript})
	return messages
}

func (a *OpenAIAdapter) complete(ctx context.Context, messages []Message) (string, error) {
	if a.cfg.APIKey == "" {
		return "", errors.New("llm api key missing")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	body, err := json.Marshal(chatRequest{Model: a.cfg.Model, Messages: messages})
	if err != nil {
		return "", err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := a.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusTooManyRequests {
		detail, _ := io.ReadAll(resp.Body)
		return "", resilience.RateLimitError{Provider: "openai", Message: string(detail)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(resp.Body)
		return "", errors.New(string(detail))
	}
	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", err
	}
	if len(cr.Choices) == 0 {
		return "", errors.New("empty choices")
	}
	return strings.TrimSpace(cr.Choices[0].Message.Content), nil
}

type replyWire struct {
	Speak     string            `json:"speak"`
	Action    string            `json:"action"`
	Extracted map[string]string `json:"extracted"`
	Score     float64           `json:"score"`
}

// parseReply converts raw model output into a structured Reply, degrading to
// a text-only reply with default action and fields when the output does not
// parse. The degraded reply is still a valid turn.
func parseReply(raw string, logger *slog.Logger) Reply {
	var wire replyWire
	err := json.Unmarshal([]byte(cleanJSON(raw)), &wire)
	if err == nil && strings.TrimSpace(wire.Speak) != "" {
		return Reply{
			Speak:     TruncateSpeak(wire.Speak),
			Action:    NormalizeAction(wire.Action),
			Extracted: wire.Extracted,
			Score:     wire.Score,
			Raw:       raw,
		}
	}
	if logger != nil {
		logger.Debug("llm_reply_degraded", "reason_code", string(errorsx.ReasonLLMParse))
	}
	// Valid JSON with nothing to say, or no usable text at all: the caller
	// must still hear something.
	if err == nil || strings.TrimSpace(raw) == "" {
		return FallbackReply()
	}
	return Reply{
		Speak:  TruncateSpeak(raw),
		Action: ActionContinue,
		Raw:    raw,
	}
}
