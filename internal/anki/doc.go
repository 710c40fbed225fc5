// Package anki turns saved translations into Anki flashcards. Cards are
// written in Anki's CSV text import format, with optional pronunciation
// audio referenced as [sound:...] fields.
package anki
