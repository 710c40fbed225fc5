package anki

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"codeberg.org/snonux/jembatan/internal/history"
	"codeberg.org/snonux/jembatan/internal/provider"
)

// Card represents a single Anki flashcard: Japanese on the front,
// Indonesian on the back
type Card struct {
	Japanese   string
	Romaji     string
	Indonesian string
	JLPTLevel  string
	AudioFile  string // Path to audio file, optional
}

// CardFromEntry builds the card of a saved translation, whichever
// direction it was made in
func CardFromEntry(e *history.Entry) Card {
	c := Card{Romaji: e.Romaji, JLPTLevel: e.JLPTLevel}
	if e.Direction == provider.JPToID {
		c.Japanese, c.Indonesian = e.InputText, e.OutputText
	} else {
		c.Japanese, c.Indonesian = e.OutputText, e.InputText
	}
	return c
}

// GeneratorOptions configures the Anki export
type GeneratorOptions struct {
	IncludeHeaders bool   // Include CSV headers
	DeckName       string // Written as a deck directive when set
	// AudioDir is searched for pronunciation files named by AudioName
	AudioDir string
	// AudioName returns the audio file name of a Japanese text
	AudioName func(text string) string
}

// DefaultGeneratorOptions returns sensible defaults
func DefaultGeneratorOptions() *GeneratorOptions {
	return &GeneratorOptions{
		IncludeHeaders: true,
		DeckName:       "Jembatan Japanese",
	}
}

// Generator creates Anki-compatible import files
type Generator struct {
	options *GeneratorOptions
	cards   []Card
	seen    map[string]bool
}

// NewGenerator creates a new Anki generator
func NewGenerator(options *GeneratorOptions) *Generator {
	if options == nil {
		options = DefaultGeneratorOptions()
	}
	return &Generator{
		options: options,
		cards:   make([]Card, 0),
		seen:    map[string]bool{},
	}
}

// AddCard adds a card to the collection. Cards without Japanese text and
// repeated Japanese texts are skipped; AddCard reports whether it was added.
func (g *Generator) AddCard(card Card) bool {
	key := strings.TrimSpace(card.Japanese)
	if key == "" || g.seen[key] {
		return false
	}
	g.seen[key] = true

	if card.AudioFile == "" {
		card.AudioFile = g.findAudio(key)
	}
	g.cards = append(g.cards, card)
	return true
}

// AddEntries adds a card for every history entry
func (g *Generator) AddEntries(entries []*history.Entry) {
	for _, e := range entries {
		g.AddCard(CardFromEntry(e))
	}
}

// Cards returns the collected cards
func (g *Generator) Cards() []Card {
	return g.cards
}

// WriteCSV writes the cards in Anki's text import format. Fields are
// Japanese, Romaji, Indonesian, Audio and Tags.
func (g *Generator) WriteCSV(w io.Writer) error {
	if g.options.DeckName != "" {
		// Anki reads "#key:value" lines before the notes
		if _, err := fmt.Fprintf(w, "#separator:Comma\n#html:true\n#deck:%s\n#tags column:5\n", g.options.DeckName); err != nil {
			return fmt.Errorf("failed to write deck header: %w", err)
		}
	}

	writer := csv.NewWriter(w)

	// Write headers if requested
	if g.options.IncludeHeaders {
		headers := []string{"Japanese", "Romaji", "Indonesian", "Audio", "Tags"}
		if err := writer.Write(headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}

	// Write cards
	for _, card := range g.cards {
		record := []string{
			card.Japanese,
			card.Romaji,
			card.Indonesian,
			formatAudioField(card.AudioFile),
			tags(card),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write card: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// GenerateCSV writes the cards to the file at path
func (g *Generator) GenerateCSV(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	return g.WriteCSV(file)
}

// CopyMedia copies the audio files of all cards into mediaDir, which is
// usually Anki's collection.media folder
func (g *Generator) CopyMedia(mediaDir string) (int, error) {
	if err := os.MkdirAll(mediaDir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create media directory: %w", err)
	}

	copied := 0
	for _, card := range g.cards {
		if card.AudioFile == "" {
			continue
		}
		if err := copyMediaFile(card.AudioFile, filepath.Join(mediaDir, filepath.Base(card.AudioFile))); err != nil {
			return copied, fmt.Errorf("failed to copy audio file: %w", err)
		}
		copied++
	}
	return copied, nil
}

// Stats returns statistics about the card collection
func (g *Generator) Stats() (totalCards, withAudio int) {
	totalCards = len(g.cards)
	for _, card := range g.cards {
		if card.AudioFile != "" {
			withAudio++
		}
	}
	return
}

func (g *Generator) findAudio(japanese string) string {
	if g.options.AudioDir == "" || g.options.AudioName == nil {
		return ""
	}
	path := filepath.Join(g.options.AudioDir, g.options.AudioName(japanese))
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// formatAudioField formats the audio file reference for Anki
func formatAudioField(audioFile string) string {
	if audioFile == "" {
		return ""
	}

	// Anki audio format: [sound:filename.mp3]
	return fmt.Sprintf("[sound:%s]", filepath.Base(audioFile))
}

func tags(c Card) string {
	t := []string{"jembatan"}
	if c.JLPTLevel != "" {
		t = append(t, "JLPT::"+c.JLPTLevel)
	}
	return strings.Join(t, " ")
}

func copyMediaFile(src, dst string) error {
	if _, err := os.Stat(dst); err == nil {
		return nil // same name means same text
	}

	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	_, err = io.Copy(destFile, srcFile)
	return err
}
