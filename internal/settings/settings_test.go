package settings

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"

	"codeberg.org/snonux/jembatan/internal/provider"
)

func storeWith(values map[string]string) *viper.Viper {
	v := viper.New()
	for k, val := range values {
		v.Set(k, val)
	}
	return v
}

func TestResolveActiveProvider(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]string
		want   Active
	}{
		{
			name:   "nothing stored",
			values: nil,
			want:   Active{Provider: provider.LibreTranslate},
		},
		{
			name: "free provider",
			values: map[string]string{
				KeyProvider: "lingva",
			},
			want: Active{Provider: provider.Lingva},
		},
		{
			name: "paid provider with key",
			values: map[string]string{
				KeyProvider: "deepl",
				KeyAPIKeys:  `{"deepl":"d-key","openai":"sk-x"}`,
			},
			want: Active{Provider: provider.DeepL, Credential: "d-key"},
		},
		{
			name: "paid provider without key is not validated",
			values: map[string]string{
				KeyProvider: "openai",
				KeyAPIKeys:  `{"google":"g-key"}`,
			},
			want: Active{Provider: provider.OpenAI},
		},
		{
			name: "malformed keys",
			values: map[string]string{
				KeyProvider: "google",
				KeyAPIKeys:  `{"google":`,
			},
			want: Active{Provider: provider.Google},
		},
		{
			name: "unknown provider",
			values: map[string]string{
				KeyProvider: "bing",
			},
			want: Active{Provider: provider.LibreTranslate},
		},
		{
			name: "auto mode flag",
			values: map[string]string{
				KeyProvider: "deepl",
				KeyAPIKeys:  `{"deepl":"d-key"}`,
				KeyAutoMode: "true",
			},
			want: Active{Provider: provider.Auto, AutoMode: true},
		},
		{
			name: "auto provider",
			values: map[string]string{
				KeyProvider: "auto",
			},
			want: Active{Provider: provider.Auto, AutoMode: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewResolver(storeWith(tt.values)).ResolveActiveProvider()
			if got != tt.want {
				t.Errorf("ResolveActiveProvider() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSave(t *testing.T) {
	t.Run("paid provider needs key", func(t *testing.T) {
		store := storeWith(nil)
		err := Save(store, Settings{Provider: provider.Google, APIKeys: map[provider.ID]string{provider.DeepL: "d"}})
		if !errors.Is(err, ErrAPIKeyRequired) {
			t.Fatalf("expected ErrAPIKeyRequired, got %v", err)
		}
		if store.GetString(KeyProvider) != "" {
			t.Error("nothing may be written on validation failure")
		}
	})

	t.Run("round trip", func(t *testing.T) {
		store := storeWith(nil)
		in := Settings{
			Provider: provider.OpenAI,
			APIKeys:  map[provider.ID]string{provider.OpenAI: "sk-test", provider.Google: ""},
		}
		if err := Save(store, in); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		got := Load(store)
		if got.Provider != provider.OpenAI || got.AutoMode {
			t.Errorf("Load() = %+v", got)
		}
		if len(got.APIKeys) != 1 || got.APIKeys[provider.OpenAI] != "sk-test" {
			t.Errorf("APIKeys = %v", got.APIKeys)
		}
		if store.GetString(KeyAutoMode) != "false" {
			t.Errorf("auto mode stored as %q", store.GetString(KeyAutoMode))
		}
	})

	t.Run("auto mode implies auto provider", func(t *testing.T) {
		store := storeWith(nil)
		if err := Save(store, Settings{Provider: provider.Lingva, AutoMode: true}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if store.GetString(KeyProvider) != "auto" || store.GetString(KeyAutoMode) != "true" {
			t.Errorf("stored %q / %q", store.GetString(KeyProvider), store.GetString(KeyAutoMode))
		}
	})
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.yaml")

	fs, err := OpenFileStore(path)
	if err != nil {
		t.Fatalf("OpenFileStore() error = %v", err)
	}
	if err := Save(fs, Settings{Provider: provider.DeepL, APIKeys: map[provider.ID]string{provider.DeepL: "d-key"}}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := fs.Write(); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	reopened, err := OpenFileStore(path)
	if err != nil {
		t.Fatalf("OpenFileStore() error = %v", err)
	}
	got := NewResolver(reopened).ResolveActiveProvider()
	if got.Provider != provider.DeepL || got.Credential != "d-key" {
		t.Errorf("ResolveActiveProvider() = %+v", got)
	}
}

func TestMaskKey(t *testing.T) {
	tests := map[string]string{
		"":            "",
		"abc":         "***",
		"sk-1234abcd": "********abcd",
	}
	for in, want := range tests {
		if got := MaskKey(in); got != want {
			t.Errorf("MaskKey(%q) = %q, want %q", in, got, want)
		}
	}
}
