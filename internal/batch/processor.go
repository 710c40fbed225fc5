package batch

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"codeberg.org/snonux/jembatan/internal/provider"
)

// Entry is one text to translate
type Entry struct {
	Text      string
	Direction provider.Direction
	// Line is the 1-based line number in the batch file
	Line int
}

// Result is the outcome of one entry
type Result struct {
	Input       string             `json:"input" yaml:"input"`
	Direction   provider.Direction `json:"direction" yaml:"direction"`
	Provider    provider.ID        `json:"provider,omitempty" yaml:"provider,omitempty"`
	Translation string             `json:"translation,omitempty" yaml:"translation,omitempty"`
	Romaji      string             `json:"romaji,omitempty" yaml:"romaji,omitempty"`
	JLPTLevel   string             `json:"jlptLevel,omitempty" yaml:"jlpt_level,omitempty"`
	// BackTranslation is the result translated back into the source language
	BackTranslation string `json:"backTranslation,omitempty" yaml:"back_translation,omitempty"`
	HistoryID       string `json:"historyId,omitempty" yaml:"history_id,omitempty"`
	Audio           string `json:"audio,omitempty" yaml:"audio,omitempty"`
	Error           string `json:"error,omitempty" yaml:"error,omitempty"`
}

// ReadBatchFile reads texts from a file, one per line.
// Supported syntax:
//   - "# comment" lines and blank lines are skipped
//   - "[jp_to_id]" or "[id_to_jp]" switches the direction of the following
//     lines; before any header dir applies
func ReadBatchFile(filename string, dir provider.Direction) ([]Entry, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	defer f.Close()

	return Parse(f, dir)
}

// Parse reads batch entries from r
func Parse(r io.Reader, dir provider.Direction) ([]Entry, error) {
	var entries []Entry

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "" || strings.HasPrefix(line, "#"):
			continue

		case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
			d, err := provider.ParseDirection(line[1 : len(line)-1])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			dir = d

		default:
			entries = append(entries, Entry{Text: line, Direction: dir, Line: lineNo})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}

	return entries, nil
}

// WriteResults writes results as a YAML list
func WriteResults(w io.Writer, results []Result) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("failed to encode batch results: %w", err)
	}
	return enc.Close()
}

// Failed counts the results with an error
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Error != "" {
			n++
		}
	}
	return n
}
