package history

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"codeberg.org/snonux/jembatan/internal/provider"
)

// End-user messages, also gettext message IDs
const (
	MsgLoginRequired = "Silakan login terlebih dahulu untuk menyimpan riwayat"
	MsgSaved         = "Terjemahan berhasil disimpan ke riwayat"
	MsgSaveFailed    = "Gagal Menyimpan"
)

var (
	// ErrLoginRequired is returned when saving without a user
	ErrLoginRequired = errors.New("login required to save history")
	// ErrNothingToSave is returned when there is no translation to save
	ErrNothingToSave = errors.New("no translation to save")
	// ErrNotFound is returned when an entry does not exist for the user
	ErrNotFound = errors.New("history entry not found")
)

// User is the identity history rows belong to. Only its presence matters
// for saving.
type User struct {
	ID    string
	Email string
}

// Entry is one saved translation
type Entry struct {
	ID         string             `json:"id" yaml:"id"`
	UserID     string             `json:"userId" yaml:"user_id"`
	InputText  string             `json:"inputText" yaml:"input_text"`
	OutputText string             `json:"outputText" yaml:"output_text"`
	Romaji     string             `json:"romaji,omitempty" yaml:"romaji,omitempty"`
	JLPTLevel  string             `json:"jlptLevel" yaml:"jlpt_level"`
	Direction  provider.Direction `json:"direction" yaml:"translation_direction"`
	Provider   provider.ID        `json:"provider,omitempty" yaml:"provider,omitempty"`
	CreatedAt  time.Time          `json:"createdAt" yaml:"created_at"`
}

// NewEntry builds the row for a finished translation. It fails with
// ErrLoginRequired without a user and ErrNothingToSave without a result.
func NewEntry(user *User, input string, dir provider.Direction, id provider.ID, out provider.Outcome) (*Entry, error) {
	if user == nil || strings.TrimSpace(user.ID) == "" {
		return nil, ErrLoginRequired
	}
	if strings.TrimSpace(input) == "" || strings.TrimSpace(out.TranslatedText) == "" {
		return nil, ErrNothingToSave
	}

	level := out.Level
	if level == "" {
		level = provider.DefaultLevel
	}

	return &Entry{
		ID:         uuid.NewString(),
		UserID:     user.ID,
		InputText:  input,
		OutputText: out.TranslatedText,
		Romaji:     out.Romaji,
		JLPTLevel:  level,
		Direction:  dir,
		Provider:   id,
		CreatedAt:  time.Now().UTC(),
	}, nil
}
