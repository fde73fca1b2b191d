package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/supabase-community/supabase-go"

	"github.com/voxline-ai/voxline/pkg/errorsx"
	"github.com/voxline-ai/voxline/pkg/logging"
)

type SupabaseConfig struct {
	URL             string `mapstructure:"url"`
	ServiceRoleKey  string `mapstructure:"service_role_key"`
	CallsTable      string `mapstructure:"calls_table"`
	TranscriptTable string `mapstructure:"transcript_table"`
	TimeoutMS       int    `mapstructure:"timeout_ms"`
}

func (c SupabaseConfig) withDefaults() SupabaseConfig {
	if c.CallsTable == "" {
		c.CallsTable = "calls"
	}
	if c.TranscriptTable == "" {
		c.TranscriptTable = "call_transcripts"
	}
	if c.TimeoutMS <= 0 {
		c.TimeoutMS = 5000
	}
	return c
}

// SupabaseSink writes call records through PostgREST. One client is built at
// startup and shared by all sessions; the underlying HTTP client is safe for
// concurrent use.
type SupabaseSink struct {
	cfg    SupabaseConfig
	client *supabase.Client
	logger *slog.Logger
}

func NewSupabaseSink(cfg SupabaseConfig) (*SupabaseSink, error) {
	cfg = cfg.withDefaults()
	client, err := supabase.NewClient(cfg.URL, cfg.ServiceRoleKey, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("supabase client: %w", err)
	}
	return &SupabaseSink{
		cfg:    cfg,
		client: client,
		logger: logging.NewComponentLogger(slog.Default(), "supabase_store"),
	}, nil
}

func (s *SupabaseSink) UpdateCallStatus(ctx context.Context, status CallStatus) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	update := map[string]any{
		"status":           status.Status,
		"duration_seconds": status.DurationSeconds,
	}
	if status.QualityScore > 0 {
		update["quality_score"] = status.QualityScore
	}
	if len(status.Extracted) > 0 {
		update["extracted"] = status.Extracted
	}
	err := s.execute(ctx, func() error {
		_, _, err := s.client.From(s.cfg.CallsTable).
			Update(update, "", "").
			Eq("call_id", status.CallID).
			Execute()
		return err
	})
	if err != nil {
		s.logger.Error("call_status_write_failed",
			"reason_code", string(errorsx.ReasonStoreStatus),
			"call_id", status.CallID,
			"error", err.Error())
		return errorsx.Wrap(err, errorsx.ReasonStoreStatus)
	}
	return nil
}

func (s *SupabaseSink) WriteTranscript(ctx context.Context, transcript CallTranscript) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	err := s.execute(ctx, func() error {
		_, _, err := s.client.From(s.cfg.TranscriptTable).
			Insert(transcript, false, "", "", "").
			Execute()
		return err
	})
	if err != nil {
		s.logger.Error("transcript_write_failed",
			"reason_code", string(errorsx.ReasonStoreTranscript),
			"call_id", transcript.CallID,
			"entries", len(transcript.Entries),
			"error", err.Error())
		return errorsx.Wrap(err, errorsx.ReasonStoreTranscript)
	}
	return nil
}

// execute runs one PostgREST call under the sink's deadline. The client has
// no context-aware variant, so the call runs on its own goroutine and the
// deadline abandons it; finalize never blocks past the configured timeout.
func (s *SupabaseSink) execute(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	go func() { done <- fn() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *SupabaseSink) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, time.Duration(s.cfg.TimeoutMS)*time.Millisecond)
}
