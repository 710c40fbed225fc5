package config

import (
	"reflect"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"codeberg.org/snonux/jembatan/internal/i18n"
	"codeberg.org/snonux/jembatan/internal/provider"
)

func newViper(values map[string]any) *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	for k, val := range values {
		v.Set(k, val)
	}
	return v
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load(newViper(nil))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if c.Provider != "" {
		t.Errorf("Provider = %q, want empty so settings decide", c.Provider)
	}
	if c.Direction != provider.IDToJP {
		t.Errorf("Direction = %s", c.Direction)
	}
	if !reflect.DeepEqual(c.Fallbacks, []provider.ID{provider.MyMemory, provider.Lingva}) {
		t.Errorf("Fallbacks = %v", c.Fallbacks)
	}
	if c.LastResort != provider.LibreTranslate || c.AutoPreferred != provider.LibreTranslate {
		t.Errorf("LastResort = %s, AutoPreferred = %s", c.LastResort, c.AutoPreferred)
	}
	if c.Timeout != 0 || c.AttemptTimeout != 0 || c.HTTPTimeout != 0 {
		t.Errorf("timeouts must be off by default: %v %v %v", c.Timeout, c.AttemptTimeout, c.HTTPTimeout)
	}
	if c.Language != i18n.SourceLanguage {
		t.Errorf("Language = %q, want Indonesian", c.Language)
	}
	if !c.Breaker.Enabled || c.Breaker.MaxFailures != 5 || c.Breaker.OpenTimeout != time.Minute {
		t.Errorf("Breaker = %+v", c.Breaker)
	}
	if c.BaseURLs[provider.DeepL] != provider.DefaultDeepLURL {
		t.Errorf("DeepL URL = %s", c.BaseURLs[provider.DeepL])
	}
	if c.ServerPort != 8080 || c.LogLevel != "info" || c.Audio.Format != "mp3" {
		t.Errorf("unexpected config %+v", c)
	}
}

func TestLoadOverrides(t *testing.T) {
	c, err := Load(newViper(map[string]any{
		"translation.provider":        "DeepL",
		"translation.direction":       "ja-id",
		"translation.timeout":         "20s",
		"translation.attempt_timeout": "5s",
		"translation.fallbacks":       []string{"lingva", "argos"},
		"providers.lingva.base_url":   "http://localhost:3000/",
		"providers.openai.model":      "gpt-4o",
		"breaker.enabled":             false,
		"audio.format":                ".wav",
	}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if c.Provider != provider.DeepL || c.Direction != provider.JPToID {
		t.Errorf("Provider = %s, Direction = %s", c.Provider, c.Direction)
	}
	if c.Timeout != 20*time.Second || c.AttemptTimeout != 5*time.Second {
		t.Errorf("timeouts = %v %v", c.Timeout, c.AttemptTimeout)
	}
	if c.BaseURLs[provider.Lingva] != "http://localhost:3000" {
		t.Errorf("Lingva URL = %s", c.BaseURLs[provider.Lingva])
	}
	if c.Audio.Format != "wav" {
		t.Errorf("Audio.Format = %s", c.Audio.Format)
	}

	logger := logrus.New()
	sc := c.ServiceConfig(logger)
	if !reflect.DeepEqual(sc.Router.Fallbacks, []provider.ID{provider.Lingva, provider.Argos}) {
		t.Errorf("Router.Fallbacks = %v", sc.Router.Fallbacks)
	}
	if sc.Router.AttemptTimeout != 5*time.Second || sc.Timeout != 20*time.Second || sc.Logger != logger {
		t.Errorf("unexpected service config %+v", sc)
	}

	pc := c.ProviderConfig(logger)
	if pc.OpenAIModel != "gpt-4o" || pc.Breaker.Enabled || pc.HTTPClient == nil {
		t.Errorf("unexpected provider config %+v", pc)
	}
	if pc.BaseURLs[provider.Lingva] != "http://localhost:3000" {
		t.Errorf("provider Lingva URL = %s", pc.BaseURLs[provider.Lingva])
	}
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]any
	}{
		{"unknown provider", map[string]any{"translation.provider": "babelfish"}},
		{"bad direction", map[string]any{"translation.direction": "id_to_en"}},
		{"paid fallback", map[string]any{"translation.fallbacks": []string{"deepl"}}},
		{"paid last resort", map[string]any{"translation.last_resort": "openai"}},
		{"auto preferred auto", map[string]any{"translation.auto_preferred": "auto"}},
		{"negative timeout", map[string]any{"translation.timeout": "-1s"}},
		{"bad port", map[string]any{"server.port": 70000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(newViper(tt.values)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSpeechConfig(t *testing.T) {
	c, err := Load(newViper(map[string]any{
		"providers.openai.base_url": "http://localhost:9999/v1",
		"audio.openai_voice":        "coral",
	}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	sc := c.SpeechConfig("sk-test", nil)
	if sc.OpenAIKey != "sk-test" || sc.OpenAIBaseURL != "http://localhost:9999/v1" || sc.OpenAIVoice != "coral" {
		t.Errorf("unexpected speech config %+v", sc)
	}
}

func TestNewLogger(t *testing.T) {
	if l := NewLogger("debug"); l.GetLevel() != logrus.DebugLevel {
		t.Errorf("level = %s", l.GetLevel())
	}
	if l := NewLogger("loud"); l.GetLevel() != logrus.InfoLevel {
		t.Errorf("level = %s", l.GetLevel())
	}
}

func TestSpeechConfigGemini(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "env-gemini")
	c, err := Load(newViper(map[string]any{
		"audio.provider":     "gemini",
		"audio.gemini_voice": "Puck",
	}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	sc := c.SpeechConfig("", nil)
	if sc.Provider != "gemini" || sc.GeminiKey != "env-gemini" || sc.GeminiVoice != "Puck" {
		t.Errorf("unexpected speech config %+v", sc)
	}
	if sc.GeminiModel != "gemini-2.5-flash-preview-tts" {
		t.Errorf("GeminiModel = %q", sc.GeminiModel)
	}
}
