package translation

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// NormalizeText prepares user input for the providers. Full-width Latin
// letters and digits and half-width katakana, common with Japanese IMEs,
// are folded to their canonical widths; Japanese punctuation and the
// ideographic space are kept. The result is NFC composed and trimmed.
func NormalizeText(text string) string {
	text = strings.Map(foldRune, text)
	text = norm.NFC.String(text)
	return strings.TrimSpace(text)
}

func foldRune(r rune) rune {
	p := width.LookupRune(r)
	switch p.Kind() {
	case width.EastAsianFullwidth:
		if f := p.Folded(); f != 0 && (unicode.IsLetter(f) || unicode.IsDigit(f)) {
			return f
		}
	case width.EastAsianHalfwidth:
		if f := p.Folded(); f != 0 {
			return f
		}
	}
	return r
}
