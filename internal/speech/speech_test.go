package speech

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"

	"codeberg.org/snonux/jembatan/internal/provider"
)

type mockProvider struct {
	name          string
	generateErr   error
	availableErr  error
	generateCalls int
}

func (m *mockProvider) GenerateAudio(ctx context.Context, text, lang, outputFile string) error {
	m.generateCalls++
	return m.generateErr
}

func (m *mockProvider) Name() string {
	return m.name
}

func (m *mockProvider) IsAvailable() error {
	return m.availableErr
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestLanguageOf(t *testing.T) {
	if got := LanguageOf(provider.IDToJP); got != LangJapanese {
		t.Errorf("LanguageOf(id_to_jp) = %s", got)
	}
	if got := LanguageOf(provider.JPToID); got != LangIndonesian {
		t.Errorf("LanguageOf(jp_to_id) = %s", got)
	}
}

func TestValidateText(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		lang    string
		wantErr bool
	}{
		{"hiragana", "ありがとう", LangJapanese, false},
		{"katakana", "コーヒー", LangJapanese, false},
		{"kanji", "水", LangJapanese, false},
		{"latin as japanese", "terima kasih", LangJapanese, true},
		{"indonesian", "terima kasih", LangIndonesian, false},
		{"kana as indonesian", "ありがとう", LangIndonesian, true},
		{"digits only", "123", LangIndonesian, true},
		{"empty", "  ", LangJapanese, true},
		{"unknown language", "hello", "en-US", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateText(tt.text, tt.lang)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateText(%q, %s) error = %v, wantErr %v", tt.text, tt.lang, err, tt.wantErr)
			}
		})
	}
}

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr string
	}{
		{"nil config", nil, "OpenAI API key is required"},
		{"openai without key", &Config{Provider: "openai"}, "OpenAI API key is required"},
		{"gemini without key", &Config{Provider: "gemini"}, "Gemini API key is required"},
		{"unknown provider", &Config{Provider: "polly"}, "unknown speech provider: polly"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProvider(context.Background(), tt.config)
			if err == nil || err.Error() != tt.wantErr {
				t.Errorf("NewProvider() error = %v, want %s", err, tt.wantErr)
			}
		})
	}

	p, err := NewProvider(context.Background(), &Config{Provider: "openai", OpenAIKey: "k", Logger: quietLogger()})
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	if !strings.HasPrefix(p.Name(), "openai") {
		t.Errorf("Name() = %s", p.Name())
	}
}

func TestProviderWithFallback(t *testing.T) {
	ctx := context.Background()

	t.Run("primary succeeds", func(t *testing.T) {
		primary := &mockProvider{name: "primary"}
		fallback := &mockProvider{name: "fallback"}
		p := NewProviderWithFallback(primary, fallback, quietLogger())

		if err := p.GenerateAudio(ctx, "水", LangJapanese, "out.mp3"); err != nil {
			t.Fatalf("GenerateAudio() error = %v", err)
		}
		if primary.generateCalls != 1 || fallback.generateCalls != 0 {
			t.Errorf("calls = %d/%d", primary.generateCalls, fallback.generateCalls)
		}
	})

	t.Run("primary fails", func(t *testing.T) {
		primary := &mockProvider{name: "primary", generateErr: errors.New("boom")}
		fallback := &mockProvider{name: "fallback"}
		p := NewProviderWithFallback(primary, fallback, quietLogger())

		if err := p.GenerateAudio(ctx, "水", LangJapanese, "out.mp3"); err != nil {
			t.Fatalf("GenerateAudio() error = %v", err)
		}
		if fallback.generateCalls != 1 {
			t.Errorf("fallback calls = %d", fallback.generateCalls)
		}
	})

	t.Run("cancelled context skips fallback", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		primary := &mockProvider{name: "primary", generateErr: context.Canceled}
		fallback := &mockProvider{name: "fallback"}
		p := NewProviderWithFallback(primary, fallback, quietLogger())

		if err := p.GenerateAudio(cctx, "水", LangJapanese, "out.mp3"); !errors.Is(err, context.Canceled) {
			t.Errorf("GenerateAudio() error = %v", err)
		}
		if fallback.generateCalls != 0 {
			t.Errorf("fallback called %d times", fallback.generateCalls)
		}
	})

	t.Run("availability", func(t *testing.T) {
		down := errors.New("down")
		p := NewProviderWithFallback(&mockProvider{name: "a", availableErr: down}, &mockProvider{name: "b"}, quietLogger())
		if err := p.IsAvailable(); err != nil {
			t.Errorf("IsAvailable() error = %v", err)
		}
		p = NewProviderWithFallback(&mockProvider{name: "a", availableErr: down}, &mockProvider{name: "b", availableErr: down}, quietLogger())
		if err := p.IsAvailable(); err == nil {
			t.Error("expected error when both providers are down")
		}
		if p.Name() != "a (fallback: b)" {
			t.Errorf("Name() = %s", p.Name())
		}
	})
}

// speechServer fakes the OpenAI /audio/speech endpoint
func speechServer(t *testing.T, calls *int32, got *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		if r.URL.Path != "/audio/speech" {
			http.NotFound(w, r)
			return
		}
		body := map[string]any{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if got != nil {
			*got = body
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("ID3fake-audio"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIProviderGenerateAudio(t *testing.T) {
	var calls int32
	var body map[string]any
	srv := speechServer(t, &calls, &body)

	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.OpenAIKey = "test-key"
	cfg.OpenAIBaseURL = srv.URL
	cfg.EnableCache = true
	cfg.CacheDir = filepath.Join(dir, "cache")
	cfg.Logger = quietLogger()

	p, err := NewOpenAIProvider(cfg)
	if err != nil {
		t.Fatalf("NewOpenAIProvider() error = %v", err)
	}

	out := filepath.Join(dir, "nested", "arigatou.mp3")
	if err := p.GenerateAudio(context.Background(), " ありがとう ", LangJapanese, out); err != nil {
		t.Fatalf("GenerateAudio() error = %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil || string(data) != "ID3fake-audio" {
		t.Fatalf("output = %q, %v", data, err)
	}
	if body["input"] != "ありがとう" || body["voice"] != "nova" || body["response_format"] != "mp3" {
		t.Errorf("unexpected request body %v", body)
	}
	if instr, _ := body["instructions"].(string); !strings.Contains(instr, "Japanese") {
		t.Errorf("instructions = %q", instr)
	}

	// second call is served from the cache
	again := filepath.Join(dir, "again.mp3")
	if err := p.GenerateAudio(context.Background(), "ありがとう", LangJapanese, again); err != nil {
		t.Fatalf("GenerateAudio() cached error = %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("expected 1 API call, got %d", calls)
	}
	count, size, err := p.CacheStats()
	if err != nil || count != 1 || size == 0 {
		t.Errorf("CacheStats() = %d, %d, %v", count, size, err)
	}

	if err := p.ClearCache(); err != nil {
		t.Fatalf("ClearCache() error = %v", err)
	}
	if _, err := os.Stat(cfg.CacheDir); !os.IsNotExist(err) {
		t.Errorf("cache dir still present: %v", err)
	}
}

func TestOpenAIProviderRejectsWrongScript(t *testing.T) {
	var calls int32
	srv := speechServer(t, &calls, nil)

	p, err := NewOpenAIProvider(&Config{OpenAIKey: "k", OpenAIBaseURL: srv.URL, OpenAIModel: "tts-1", OpenAIVoice: "alloy", OpenAISpeed: 1})
	if err != nil {
		t.Fatalf("NewOpenAIProvider() error = %v", err)
	}
	err = p.GenerateAudio(context.Background(), "terima kasih", LangJapanese, filepath.Join(t.TempDir(), "x.mp3"))
	if err == nil {
		t.Fatal("expected validation error")
	}
	if calls != 0 {
		t.Errorf("expected no API call, got %d", calls)
	}
}

func TestOpenAIProviderAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider(&Config{OpenAIKey: "k", OpenAIBaseURL: srv.URL, OpenAIModel: "tts-1", OpenAIVoice: "alloy", OpenAISpeed: 1})
	if err != nil {
		t.Fatalf("NewOpenAIProvider() error = %v", err)
	}
	err = p.GenerateAudio(context.Background(), "terima kasih", LangIndonesian, filepath.Join(t.TempDir(), "x.mp3"))
	if err == nil || !strings.Contains(err.Error(), "OpenAI TTS API error") {
		t.Errorf("GenerateAudio() error = %v", err)
	}
}

func TestResponseFormat(t *testing.T) {
	tests := map[string]string{
		"a.mp3":  "mp3",
		"a.WAV":  "wav",
		"a.opus": "opus",
		"a.aac":  "aac",
		"a.flac": "flac",
		"a":      "mp3",
	}
	for file, want := range tests {
		if got := string(responseFormat(file)); got != want {
			t.Errorf("responseFormat(%s) = %s, want %s", file, got, want)
		}
	}
}

func TestESpeakArgs(t *testing.T) {
	p := &ESpeakProvider{config: &ESpeakConfig{Speed: 120, Pitch: 40, Amplitude: 90, WordGap: 2}}
	got := strings.Join(p.args("水", LangJapanese, "out.wav"), " ")
	want := "-v ja -s 120 -p 40 -a 90 -g 2 -w out.wav 水"
	if got != want {
		t.Errorf("args = %q, want %q", got, want)
	}

	p.config.WordGap = 0
	got = strings.Join(p.args("air", LangIndonesian, "out.wav"), " ")
	if got != "-v id -s 120 -p 40 -a 90 -w out.wav air" {
		t.Errorf("args = %q", got)
	}
}

func TestESpeakGenerateAudio(t *testing.T) {
	p, err := NewESpeakProvider(nil)
	if err != nil {
		t.Skip("espeak-ng not installed")
	}

	out := filepath.Join(t.TempDir(), "air.wav")
	if err := p.GenerateAudio(context.Background(), "air", LangIndonesian, out); err != nil {
		t.Fatalf("GenerateAudio() error = %v", err)
	}
	if info, err := os.Stat(out); err != nil || info.Size() == 0 {
		t.Errorf("no audio written: %v", err)
	}
}
