package speech

import (
	"fmt"
	"strings"
	"unicode"
)

// ValidateText checks that text is non-empty and written in a script lang
// can be spoken in
func ValidateText(text, lang string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("text cannot be empty")
	}

	switch lang {
	case LangJapanese:
		for _, r := range text {
			if unicode.In(r, unicode.Hiragana, unicode.Katakana, unicode.Han) {
				return nil
			}
		}
		return fmt.Errorf("text must contain Japanese characters")

	case LangIndonesian:
		for _, r := range text {
			if unicode.In(r, unicode.Latin) {
				return nil
			}
		}
		return fmt.Errorf("text must contain Latin characters")

	default:
		return fmt.Errorf("unsupported speech language: %s", lang)
	}
}
