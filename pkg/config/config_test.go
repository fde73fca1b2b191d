package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
stt:
  api_key: dg-key
llm:
  api_key: oa-key
tts:
  api_key: el-key
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogFormat != "json" {
		t.Fatalf("expected json log format default, got %s", cfg.LogFormat)
	}
	if cfg.Server.Port != 8080 || cfg.Server.MediaPath != "/media" {
		t.Fatalf("unexpected server defaults: %+v", cfg.Server)
	}
	if cfg.STT.Model != "nova-2" || cfg.STT.TimeoutMS != 8000 {
		t.Fatalf("unexpected stt defaults: %+v", cfg.STT)
	}
	if cfg.Session.VAD.Threshold != 0.015 || cfg.Session.VAD.SilenceFrames != 15 {
		t.Fatalf("unexpected vad defaults: %+v", cfg.Session.VAD)
	}
	if cfg.Store.CallsTable != "calls" {
		t.Fatalf("unexpected store defaults: %+v", cfg.Store)
	}
}

func TestLoadOverridesAndExpandsEnv(t *testing.T) {
	t.Setenv("TEST_DG_KEY", "secret-dg")
	path := writeConfig(t, `
log_level: debug
server:
  port: 9090
session:
  persona:
    agent_name: Nova
  greetings:
    en: "Hi there!"
stt:
  api_key: ${TEST_DG_KEY}
llm:
  api_key: oa-key
  model: gpt-4o
tts:
  api_key: el-key
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != "debug" || cfg.Server.Port != 9090 {
		t.Fatalf("overrides not applied: %+v", cfg.Server)
	}
	if cfg.STT.APIKey != "secret-dg" {
		t.Fatalf("env expansion failed: %q", cfg.STT.APIKey)
	}
	if cfg.LLM.Model != "gpt-4o" {
		t.Fatalf("unexpected llm model %s", cfg.LLM.Model)
	}
	if cfg.Session.Persona.AgentName != "Nova" {
		t.Fatalf("unexpected persona: %+v", cfg.Session.Persona)
	}
	if cfg.Session.Greetings["en"] != "Hi there!" {
		t.Fatalf("unexpected greetings: %+v", cfg.Session.Greetings)
	}
}

func TestLoadRejectsMissingProviderKeys(t *testing.T) {
	path := writeConfig(t, `
llm:
  api_key: oa-key
tts:
  api_key: el-key
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected validation error for missing stt key")
	}
}
