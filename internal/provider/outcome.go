package provider

import "strings"

// DefaultLevel is the JLPT level reported when none is known
const DefaultLevel = "N5"

// Outcome is the normalized result every adapter produces
type Outcome struct {
	TranslatedText string
	// Romaji is only filled by the AI adapter
	Romaji string
	// Level is one of N5, N4 or N3
	Level string
}

// NewOutcome returns an outcome for mechanical translation backends, which
// carry no romanization and no level classification.
func NewOutcome(text string) Outcome {
	return Outcome{TranslatedText: text, Level: DefaultLevel}
}

// NormalizeLevel maps a model supplied level to N5, N4 or N3
func NormalizeLevel(level string) string {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "N3":
		return "N3"
	case "N4":
		return "N4"
	default:
		return DefaultLevel
	}
}
