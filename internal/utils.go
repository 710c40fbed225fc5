package internal

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"unicode"
)

// maxNameRunes limits the readable part of generated file names
const maxNameRunes = 32

// AudioFileName returns a stable file name for the spoken form of text.
// Format: sanitized(text)[:32]_md5(text)[:8].ext
func AudioFileName(text, ext string) string {
	hash := md5.Sum([]byte(text))
	hashStr := hex.EncodeToString(hash[:])[:8]

	name := []rune(SanitizeFilename(strings.TrimSpace(text)))
	if len(name) > maxNameRunes {
		name = name[:maxNameRunes]
	}

	return string(name) + "_" + hashStr + "." + strings.TrimPrefix(ext, ".")
}

// SanitizeFilename creates a safe filename from a string. Letters of any
// script are kept, so Japanese text stays readable.
func SanitizeFilename(s string) string {
	var b strings.Builder
	for _, r := range s {
		if isFilenameRune(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func isFilenameRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' ||
		unicode.Is(unicode.Mn, r) // kana voicing marks
}
