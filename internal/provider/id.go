package provider

import (
	"fmt"
	"strings"
)

// ID identifies a translation backend
type ID string

const (
	LibreTranslate ID = "libretranslate"
	MyMemory       ID = "mymemory"
	Lingva         ID = "lingva"
	Argos          ID = "argos"
	OpenAI         ID = "openai"
	Google         ID = "google"
	DeepL          ID = "deepl"

	// Auto defers the choice to the free router's standard order. It never
	// reaches an adapter.
	Auto ID = "auto"
)

// FreeIDs lists the backends that need no credential
var FreeIDs = []ID{LibreTranslate, MyMemory, Lingva, Argos}

// PaidIDs lists the backends that need an API key
var PaidIDs = []ID{OpenAI, Google, DeepL}

// IsFree reports whether id is a free backend. Auto is not a backend.
func (id ID) IsFree() bool {
	switch id {
	case LibreTranslate, MyMemory, Lingva, Argos:
		return true
	}
	return false
}

// IsPaid reports whether id needs a credential
func (id ID) IsPaid() bool {
	switch id {
	case OpenAI, Google, DeepL:
		return true
	}
	return false
}

// IsAuto reports whether id is the auto meta value
func (id ID) IsAuto() bool {
	return id == Auto
}

// Valid reports whether id is one of the known values
func (id ID) Valid() bool {
	return id.IsFree() || id.IsPaid() || id.IsAuto()
}

// DisplayName returns the human readable provider name
func (id ID) DisplayName() string {
	switch id {
	case OpenAI:
		return "OpenAI GPT"
	case Google:
		return "Google Translate"
	case DeepL:
		return "DeepL"
	case MyMemory:
		return "MyMemory (Free)"
	case Lingva:
		return "Lingva (Free)"
	case LibreTranslate:
		return "LibreTranslate (Free)"
	case Argos:
		return "Argos Translate (Free)"
	case Auto:
		return "Mode Auto (Smart)"
	default:
		return string(id)
	}
}

// String returns the ID as stored in settings
func (id ID) String() string {
	return string(id)
}

// ParseID parses a provider name, case-insensitively
func ParseID(s string) (ID, error) {
	id := ID(strings.ToLower(strings.TrimSpace(s)))
	if !id.Valid() {
		return "", fmt.Errorf("unknown provider: %s (supported: %s)", s, strings.Join(AllNames(), ", "))
	}
	return id, nil
}

// AllNames returns the names of every known ID, free ones first
func AllNames() []string {
	names := make([]string, 0, len(FreeIDs)+len(PaidIDs)+1)
	for _, id := range FreeIDs {
		names = append(names, string(id))
	}
	for _, id := range PaidIDs {
		names = append(names, string(id))
	}
	return append(names, string(Auto))
}
