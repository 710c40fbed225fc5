package provider

import (
	"fmt"
	"strings"
)

// Direction is the translation direction between Indonesian and Japanese
type Direction string

const (
	IDToJP Direction = "id_to_jp"
	JPToID Direction = "jp_to_id"
)

// Language codes shared by every adapter. Adapters that need a different
// casing convert them locally.
const (
	LangIndonesian = "id"
	LangJapanese   = "ja"
)

// Languages returns the source and target language codes for d
func (d Direction) Languages() (source, target string) {
	if d == JPToID {
		return LangJapanese, LangIndonesian
	}
	return LangIndonesian, LangJapanese
}

// Reverse returns the opposite direction
func (d Direction) Reverse() Direction {
	if d == JPToID {
		return IDToJP
	}
	return JPToID
}

// Valid reports whether d is a known direction
func (d Direction) Valid() bool {
	return d == IDToJP || d == JPToID
}

// ParseDirection accepts "id_to_jp"/"jp_to_id" as well as the short forms
// "id-ja" and "ja-id".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "id_to_jp", "id-ja", "id-jp", "id2ja":
		return IDToJP, nil
	case "jp_to_id", "ja-id", "jp-id", "ja2id":
		return JPToID, nil
	default:
		return "", fmt.Errorf("unknown direction: %s (supported: id_to_jp, jp_to_id)", s)
	}
}
