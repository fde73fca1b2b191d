// Package config loads the service configuration: a YAML file layered over
// environment variables, with defaults for everything that has a sane one.
// String values support ${VAR} expansion so secrets can stay out of the file.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/voxline-ai/voxline/pkg/llm"
	"github.com/voxline-ai/voxline/pkg/session"
	"github.com/voxline-ai/voxline/pkg/store"
	"github.com/voxline-ai/voxline/pkg/stt"
	"github.com/voxline-ai/voxline/pkg/telephony"
	"github.com/voxline-ai/voxline/pkg/tts"
)

type ServerConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	PublicURL   string `mapstructure:"public_url"`
	VoicePath   string `mapstructure:"voice_path"`
	MediaPath   string `mapstructure:"media_path"`
	ShutdownSec int    `mapstructure:"shutdown_sec"`
}

type Config struct {
	Environment string                  `mapstructure:"environment"`
	LogLevel    string                  `mapstructure:"log_level"`
	LogFormat   string                  `mapstructure:"log_format"`
	Server      ServerConfig            `mapstructure:"server"`
	Session     session.Config          `mapstructure:"session"`
	STT         stt.DeepgramConfig      `mapstructure:"stt"`
	LLM         llm.OpenAIConfig        `mapstructure:"llm"`
	TTS         tts.ElevenLabsConfig    `mapstructure:"tts"`
	Telephony   telephony.ControlConfig `mapstructure:"telephony"`
	Store       store.SupabaseConfig    `mapstructure:"store"`
}

// Load reads the config file at path. A missing path is allowed; defaults
// and VOXLINE_* environment variables still apply.
func Load(path string) (Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	}
	v.SetEnvPrefix("VOXLINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.voice_path", "/voice")
	v.SetDefault("server.media_path", "/media")
	v.SetDefault("server.shutdown_sec", 10)
	v.SetDefault("session.language", "en")
	v.SetDefault("session.min_utterance_ms", 200)
	v.SetDefault("session.inbox_size", 256)
	v.SetDefault("session.vad.threshold", 0.015)
	v.SetDefault("session.vad.silence_frames", 15)
	v.SetDefault("stt.model", "nova-2")
	v.SetDefault("stt.timeout_ms", 8000)
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.timeout_ms", 12000)
	v.SetDefault("llm.max_history", 12)
	v.SetDefault("tts.model_id", "eleven_flash_v2_5")
	v.SetDefault("tts.timeout_ms", 15000)
	v.SetDefault("telephony.ring_timeout_sec", 30)
	v.SetDefault("telephony.machine_detection", true)
	v.SetDefault("store.calls_table", "calls")
	v.SetDefault("store.transcript_table", "call_transcripts")
	v.SetDefault("store.timeout_ms", 5000)

	if path != "" {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	// Weak typing lets numeric and boolean values arrive as env strings.
	weak := func(dc *mapstructure.DecoderConfig) { dc.WeaklyTypedInput = true }
	if err := v.Unmarshal(&cfg, weak); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	expandEnvStrings(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.STT.APIKey) == "" {
		return fmt.Errorf("stt.api_key is required")
	}
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		return fmt.Errorf("llm.api_key is required")
	}
	if strings.TrimSpace(c.TTS.APIKey) == "" {
		return fmt.Errorf("tts.api_key is required")
	}
	return nil
}

// expandEnvStrings walks the struct and applies os.ExpandEnv to every string
// field, including those inside maps.
func expandEnvStrings(cfg *Config) {
	expandValue(reflect.ValueOf(cfg))
}

func expandValue(v reflect.Value) {
	switch v.Kind() {
	case reflect.Ptr:
		if !v.IsNil() {
			expandValue(v.Elem())
		}
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			expandValue(v.Field(i))
		}
	case reflect.Map:
		for _, key := range v.MapKeys() {
			elem := v.MapIndex(key)
			if elem.Kind() == reflect.String {
				v.SetMapIndex(key, reflect.ValueOf(os.ExpandEnv(elem.String())))
			}
		}
	case reflect.Slice:
		for i := 0; i < v.Len(); i++ {
			expandValue(v.Index(i))
		}
	case reflect.String:
		if v.CanSet() {
			v.SetString(os.ExpandEnv(v.String()))
		}
	}
}
