package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"codeberg.org/snonux/jembatan/internal/provider"
)

// Keys of the persisted settings
const (
	KeyProvider = "translation-provider"
	KeyAPIKeys  = "translation-api-keys"
	KeyAutoMode = "translation-auto-mode"
)

// DefaultProvider is used when nothing or something unknown is stored
const DefaultProvider = provider.LibreTranslate

// End-user messages for the settings dialog, also gettext message IDs
const (
	MsgAPIKeyRequiredTitle = "API Key Diperlukan"
	MsgAPIKeyRequired      = "Silakan masukkan API key untuk %s"
	MsgSaved               = "Pengaturan Tersimpan"
	MsgSavedAuto           = "Mode Auto diaktifkan - sistem akan memilih API terbaik"
	MsgSavedProvider       = "API %s berhasil diatur"
)

// ErrAPIKeyRequired is returned when saving a paid provider without a key
var ErrAPIKeyRequired = errors.New("API key required")

// Store is a string key/value store. *viper.Viper implements it.
type Store interface {
	GetString(key string) string
	Set(key string, value any)
}

// Settings is the persisted provider selection
type Settings struct {
	Provider provider.ID
	APIKeys  map[provider.ID]string
	AutoMode bool
}

// Load reads settings from store. Missing or malformed values fall back to
// the defaults and never fail.
func Load(store Store) Settings {
	s := Settings{
		Provider: DefaultProvider,
		APIKeys:  map[provider.ID]string{},
	}

	if raw := store.GetString(KeyProvider); raw != "" {
		if id, err := provider.ParseID(raw); err == nil {
			s.Provider = id
		}
	}

	if raw := store.GetString(KeyAPIKeys); raw != "" {
		var keys map[string]string
		if err := json.Unmarshal([]byte(raw), &keys); err == nil {
			for name, key := range keys {
				id, err := provider.ParseID(name)
				if err != nil || key == "" {
					continue
				}
				s.APIKeys[id] = key
			}
		}
	}

	s.AutoMode = store.GetString(KeyAutoMode) == "true"
	return s
}

// Save validates s and writes it to store. A paid provider needs a key;
// choosing auto turns auto mode on and vice versa.
func Save(store Store, s Settings) error {
	if s.AutoMode {
		s.Provider = provider.Auto
	}
	if s.Provider == provider.Auto {
		s.AutoMode = true
	}
	if !s.Provider.Valid() {
		return fmt.Errorf("unknown provider %q", s.Provider)
	}
	if s.Provider.IsPaid() && strings.TrimSpace(s.APIKeys[s.Provider]) == "" {
		return fmt.Errorf("%w for %s", ErrAPIKeyRequired, s.Provider)
	}

	keys := make(map[string]string, len(s.APIKeys))
	for id, key := range s.APIKeys {
		if key != "" {
			keys[string(id)] = key
		}
	}
	data, err := json.Marshal(keys)
	if err != nil {
		return fmt.Errorf("failed to encode API keys: %w", err)
	}

	store.Set(KeyProvider, string(s.Provider))
	store.Set(KeyAPIKeys, string(data))
	store.Set(KeyAutoMode, strconv.FormatBool(s.AutoMode))
	return nil
}

// MaskKey hides all but the last four characters of an API key
func MaskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", 8) + key[len(key)-4:]
}
