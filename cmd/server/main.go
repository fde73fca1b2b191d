package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/voxline-ai/voxline/pkg/config"
	"github.com/voxline-ai/voxline/pkg/llm"
	"github.com/voxline-ai/voxline/pkg/logging"
	"github.com/voxline-ai/voxline/pkg/runner"
	"github.com/voxline-ai/voxline/pkg/session"
	"github.com/voxline-ai/voxline/pkg/store"
	"github.com/voxline-ai/voxline/pkg/stt"
	"github.com/voxline-ai/voxline/pkg/telephony"
	"github.com/voxline-ai/voxline/pkg/tts"
)

type drainFunc func() error

func (f drainFunc) Drain() error { return f() }

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}
	logger := logging.Init(cfg.LogLevel, cfg.LogFormat)

	var sink store.Sink = store.NopSink{}
	if cfg.Store.URL != "" {
		supa, err := store.NewSupabaseSink(cfg.Store)
		if err != nil {
			logger.Error("supabase_init_failed", "error", err.Error())
			os.Exit(1)
		}
		sink = supa
	} else {
		logger.Warn("persistence_disabled")
	}

	controller := telephony.NewController(cfg.Telephony)
	manager := session.NewManager(cfg.Session, session.Deps{
		Transcriber: stt.NewDeepgram(cfg.STT),
		Dialogue:    llm.NewOpenAIAdapter(cfg.LLM),
		Synthesizer: tts.NewElevenLabs(cfg.TTS),
		Sink:        sink,
		Control:     controller,
	})
	media := telephony.NewMediaServer(manager.NewHandler)

	mux := http.NewServeMux()
	mux.HandleFunc(cfg.Server.VoicePath, telephony.NewVoiceHandler(
		cfg.Server.PublicURL,
		cfg.Server.MediaPath,
		map[string]string{"language": cfg.Session.Language},
	))
	mux.Handle(cfg.Server.MediaPath, media)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok", "version": runner.ServiceVersion})
	})

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	shutdownTimeout := time.Duration(cfg.Server.ShutdownSec) * time.Second
	drain := drainFunc(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Warn("http_shutdown_failed", "error", err.Error())
			_ = server.Close()
		}
		_ = media.Drain()
		manager.Wait()
		return nil
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	life := runner.NewLifecycleRunner(drain, runner.Hooks{
		OnStart: func() {
			go func() {
				logger.Info("server_listening", "addr", server.Addr, "environment", cfg.Environment)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("server_failed", "error", err.Error())
					stop()
				}
			}()
		},
	}, shutdownTimeout+time.Second)

	if err := life.Run(ctx); err != nil {
		logger.Error("shutdown_incomplete", "error", err.Error())
		os.Exit(1)
	}
}
