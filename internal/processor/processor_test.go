package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"codeberg.org/snonux/jembatan/internal/batch"
	"codeberg.org/snonux/jembatan/internal/cli"
	"codeberg.org/snonux/jembatan/internal/config"
	"codeberg.org/snonux/jembatan/internal/history"
	"codeberg.org/snonux/jembatan/internal/provider"
	"codeberg.org/snonux/jembatan/internal/settings"
	"codeberg.org/snonux/jembatan/internal/speech"
	"codeberg.org/snonux/jembatan/internal/testutil"
	"codeberg.org/snonux/jembatan/internal/translation"
)

type testEnv struct {
	proc    *Processor
	flags   *cli.Flags
	out     *bytes.Buffer
	errOut  *bytes.Buffer
	log     *testutil.CallLog
	store   *settings.FileStore
	history *history.Store
	speech  *testutil.MockSpeech
}

func newTestEnv(t *testing.T, overrides ...*testutil.MockAdapter) *testEnv {
	t.Helper()
	dir := t.TempDir()

	store, err := settings.OpenFileStore(filepath.Join(dir, "settings.yaml"))
	if err != nil {
		t.Fatalf("OpenFileStore() error = %v", err)
	}
	hist, err := history.Open(":memory:", testutil.QuietLogger())
	if err != nil {
		t.Fatalf("history.Open() error = %v", err)
	}
	t.Cleanup(func() { hist.Close() })

	env := &testEnv{
		flags:   cli.NewFlags(),
		out:     &bytes.Buffer{},
		errOut:  &bytes.Buffer{},
		log:     &testutil.CallLog{},
		store:   store,
		history: hist,
		speech:  &testutil.MockSpeech{},
	}

	svcCfg := translation.DefaultServiceConfig()
	svcCfg.Logger = testutil.QuietLogger()
	svc := translation.NewService(testutil.NewMockRegistry(env.log, overrides...), svcCfg)

	env.proc = New(env.flags, Options{
		Config: &config.Config{
			Direction: provider.IDToJP,
			Audio:     config.AudioConfig{OutputDir: filepath.Join(dir, "audio"), Format: "mp3"},
		},
		Logger:     testutil.QuietLogger(),
		Out:        env.out,
		ErrOut:     env.errOut,
		Translator: svc,
		Settings:   store,
		History:    hist,
		Speech:     env.speech,
	})
	return env
}

func TestProcessText(t *testing.T) {
	tests := []struct {
		name  string
		setup func(e *testEnv)
		args  []string
		want  []string
		calls []provider.ID
	}{
		{
			name:  "default provider from settings",
			args:  []string{"terima", "kasih"},
			want:  []string{"Terjemahan: terima kasih (libretranslate)", "Level JLPT: N5", "Provider: LibreTranslate"},
			calls: []provider.ID{provider.LibreTranslate},
		},
		{
			name: "reverse direction",
			setup: func(e *testEnv) {
				e.proc.config.Direction = provider.JPToID
			},
			args:  []string{"水"},
			want:  []string{"Teks Indonesia: 水 (libretranslate)"},
			calls: []provider.ID{provider.LibreTranslate},
		},
		{
			name: "configured provider",
			setup: func(e *testEnv) {
				e.proc.config.Provider = provider.Lingva
			},
			args:  []string{"air"},
			want:  []string{"Provider: Lingva"},
			calls: []provider.ID{provider.Lingva},
		},
		{
			name: "swap translates back",
			setup: func(e *testEnv) {
				e.flags.Swap = true
			},
			args:  []string{"air"},
			want:  []string{"<-> air (libretranslate) (libretranslate)"},
			calls: []provider.ID{provider.LibreTranslate, provider.LibreTranslate},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t)
			if tt.setup != nil {
				tt.setup(e)
			}

			if err := e.proc.ProcessText(context.Background(), tt.args); err != nil {
				t.Fatalf("ProcessText() error = %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(e.out.String(), want) {
					t.Errorf("output lacks %q:\n%s", want, e.out.String())
				}
			}
			got := e.log.Providers()
			if len(got) != len(tt.calls) {
				t.Fatalf("calls = %v, want %v", got, tt.calls)
			}
			for i := range got {
				if got[i] != tt.calls[i] {
					t.Errorf("calls = %v, want %v", got, tt.calls)
				}
			}
		})
	}
}

func TestProcessTextPaidProvider(t *testing.T) {
	e := newTestEnv(t)
	e.proc.config.Provider = provider.DeepL

	err := e.proc.ProcessText(context.Background(), []string{"air"})
	if err == nil || err.Error() != translation.MsgCredentialRequired {
		t.Fatalf("ProcessText() error = %v, want %q", err, translation.MsgCredentialRequired)
	}
	if len(e.log.Calls()) != 0 {
		t.Errorf("adapters called without a key: %v", e.log.Providers())
	}

	e.flags.APIKey = "flag-key"
	if err := e.proc.ProcessText(context.Background(), []string{"air"}); err != nil {
		t.Fatalf("ProcessText() error = %v", err)
	}
	if calls := e.log.Calls(); len(calls) != 1 || calls[0].Credential != "flag-key" {
		t.Errorf("calls = %+v", calls)
	}
}

func TestProcessTextFailure(t *testing.T) {
	e := newTestEnv(t,
		testutil.FailingAdapter(provider.LibreTranslate, 502, nil),
		testutil.FailingAdapter(provider.MyMemory, 500, nil),
		testutil.FailingAdapter(provider.Lingva, 503, nil),
	)

	err := e.proc.ProcessText(context.Background(), []string{"air"})
	if err == nil || err.Error() != translation.MsgAllFreeUnavailable {
		t.Errorf("ProcessText() error = %v", err)
	}
	if e.out.Len() != 0 {
		t.Errorf("unexpected output %q", e.out.String())
	}

	if err := e.proc.ProcessText(context.Background(), []string{"  "}); err == nil || err.Error() != translation.MsgEmptyText {
		t.Errorf("empty text error = %v", err)
	}
}

func TestProcessTextOutputFormats(t *testing.T) {
	e := newTestEnv(t)
	e.flags.Output = cli.OutputJSON

	if err := e.proc.ProcessText(context.Background(), []string{"air"}); err != nil {
		t.Fatalf("ProcessText() error = %v", err)
	}
	var got batch.Result
	if err := json.Unmarshal(e.out.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, e.out.String())
	}
	if got.Translation != "air (libretranslate)" || got.JLPTLevel != "N5" || got.Direction != provider.IDToJP {
		t.Errorf("result = %+v", got)
	}

	e.out.Reset()
	e.flags.Output = cli.OutputYAML
	if err := e.proc.ProcessText(context.Background(), []string{"air"}); err != nil {
		t.Fatalf("ProcessText() error = %v", err)
	}
	if !strings.Contains(e.out.String(), "jlpt_level: N5") {
		t.Errorf("unexpected YAML:\n%s", e.out.String())
	}

	e.flags.Output = "xml"
	if err := e.proc.ProcessText(context.Background(), []string{"air"}); err == nil {
		t.Error("expected error for unknown output format")
	}
}

func TestProcessTextSave(t *testing.T) {
	e := newTestEnv(t)
	e.flags.Save = true

	// Without a user nothing is saved, but the translation is shown
	if err := e.proc.ProcessText(context.Background(), []string{"air"}); err != nil {
		t.Fatalf("ProcessText() error = %v", err)
	}
	if !strings.Contains(e.errOut.String(), history.MsgLoginRequired) {
		t.Errorf("stderr = %q", e.errOut.String())
	}

	e.flags.User = "user-1"
	if err := e.proc.ProcessText(context.Background(), []string{"air"}); err != nil {
		t.Fatalf("ProcessText() error = %v", err)
	}
	if !strings.Contains(e.errOut.String(), history.MsgSaved) {
		t.Errorf("stderr = %q", e.errOut.String())
	}

	entries, err := e.history.List(context.Background(), "user-1", 0)
	if err != nil || len(entries) != 1 {
		t.Fatalf("List() = %v, %v", entries, err)
	}
	if entries[0].OutputText != "air (libretranslate)" {
		t.Errorf("entry = %+v", entries[0])
	}
}

func TestProcessTextSpeak(t *testing.T) {
	e := newTestEnv(t, &testutil.MockAdapter{
		Provider: provider.LibreTranslate,
		Outcome:  &provider.Outcome{TranslatedText: "ありがとう", Level: "N5"},
	})
	e.flags.Speak = true

	if err := e.proc.ProcessText(context.Background(), []string{"terima kasih"}); err != nil {
		t.Fatalf("ProcessText() error = %v", err)
	}
	if len(e.speech.Calls) != 1 || e.speech.Calls[0] != "ja-JP: ありがとう" {
		t.Errorf("speech calls = %v", e.speech.Calls)
	}
	if !strings.Contains(e.out.String(), "Audio disimpan ke ") {
		t.Errorf("output = %s", e.out.String())
	}
	if n := testutil.CountFiles(t, e.proc.config.Audio.OutputDir); n != 1 {
		t.Errorf("audio files = %d, want 1", n)
	}
}

func TestProcessTextSpeakIndonesianResult(t *testing.T) {
	e := newTestEnv(t, &testutil.MockAdapter{
		Provider: provider.LibreTranslate,
		Outcome:  &provider.Outcome{TranslatedText: "terima kasih", Level: "N5"},
	})
	e.proc.config.Direction = provider.JPToID
	e.flags.Speak = true

	if err := e.proc.ProcessText(context.Background(), []string{"ありがとう"}); err != nil {
		t.Fatalf("ProcessText() error = %v", err)
	}
	if len(e.speech.Calls) != 1 || e.speech.Calls[0] != "id-ID: terima kasih" {
		t.Errorf("speech calls = %v", e.speech.Calls)
	}
}

func TestSpeak(t *testing.T) {
	e := newTestEnv(t)

	if _, err := e.proc.Speak(context.Background(), "terima kasih", speech.LangJapanese); err == nil {
		t.Error("expected error for non-Japanese text")
	}

	e.speech.Err = errors.New("tts down")
	if _, err := e.proc.Speak(context.Background(), "水", speech.LangJapanese); err == nil || !strings.Contains(err.Error(), "tts down") {
		t.Errorf("Speak() error = %v", err)
	}

	e.speech.Err = nil
	file, err := e.proc.Speak(context.Background(), "水", speech.LangJapanese)
	if err != nil {
		t.Fatalf("Speak() error = %v", err)
	}
	if filepath.Ext(file) != ".mp3" {
		t.Errorf("file = %s", file)
	}
	testutil.AssertFileExists(t, file)
}

func TestProcessBatch(t *testing.T) {
	e := newTestEnv(t)
	e.flags.BatchFile = testutil.CreateBatchFile(t, t.TempDir(), "air", "# comment", "[jp_to_id]", "水", "  ")

	if err := e.proc.ProcessBatch(context.Background()); err != nil {
		t.Fatalf("ProcessBatch() error = %v", err)
	}

	out := e.out.String()
	for _, want := range []string{
		"translation: air (libretranslate)",
		"direction: jp_to_id",
		"translation: 水 (libretranslate)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
	if !strings.Contains(e.errOut.String(), "Translated: 2") {
		t.Errorf("summary = %s", e.errOut.String())
	}
}

func TestProcessBatchContinuesOnFailure(t *testing.T) {
	e := newTestEnv(t,
		testutil.FailingAdapter(provider.LibreTranslate, 502, nil),
		testutil.FailingAdapter(provider.MyMemory, 500, nil),
		testutil.FailingAdapter(provider.Lingva, 503, nil),
	)
	e.flags.BatchFile = testutil.CreateBatchFile(t, t.TempDir(), "air", "api")
	e.flags.Output = cli.OutputJSON

	if err := e.proc.ProcessBatch(context.Background()); err != nil {
		t.Fatalf("ProcessBatch() error = %v", err)
	}

	var results []batch.Result
	if err := json.Unmarshal(e.out.Bytes(), &results); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(results) != 2 || batch.Failed(results) != 2 {
		t.Fatalf("results = %+v", results)
	}
	if results[1].Error != translation.MsgAllFreeUnavailable {
		t.Errorf("Error = %q", results[1].Error)
	}
	if !strings.Contains(e.errOut.String(), "Errors: 2") {
		t.Errorf("summary = %s", e.errOut.String())
	}
}

func TestProcessBatchMissingFile(t *testing.T) {
	e := newTestEnv(t)
	e.flags.BatchFile = filepath.Join(t.TempDir(), "missing.txt")

	if err := e.proc.ProcessBatch(context.Background()); err == nil {
		t.Error("expected error for a missing batch file")
	}
}

func TestNewProcessor(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	dir := t.TempDir()
	config.SetDefaults(viper.GetViper())
	viper.Set("settings.path", filepath.Join(dir, "settings.yaml"))
	viper.Set("history.path", filepath.Join(dir, "history.db"))
	viper.Set("ui.language", "id")
	viper.Set("providers.deepl.api_key", "deepl-key")
	t.Setenv("OPENAI_API_KEY", "openai-key")

	p, err := NewProcessor(cli.NewFlags())
	if err != nil {
		t.Fatalf("NewProcessor() error = %v", err)
	}
	defer p.Close()

	if p.translator == nil || p.settings == nil {
		t.Error("collaborators not initialized")
	}
	if p.credentials[provider.OpenAI] != "openai-key" || p.credentials[provider.DeepL] != "deepl-key" {
		t.Errorf("credentials = %v", p.credentials)
	}
	if _, err := os.Stat(filepath.Join(dir, "history.db")); !os.IsNotExist(err) {
		t.Error("history database should be opened lazily")
	}

	viper.Set("translation.fallbacks", []string{"deepl"})
	if _, err := NewProcessor(cli.NewFlags()); err == nil {
		t.Error("expected error for a paid fallback")
	}
}
