package history

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// exportDoc is the top-level YAML document written by WriteYAML
type exportDoc struct {
	User         string   `yaml:"user"`
	Translations []*Entry `yaml:"translations"`
}

// WriteYAML exports entries of userID as a YAML document
func WriteYAML(w io.Writer, userID string, entries []*Entry) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(exportDoc{User: userID, Translations: entries}); err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	return enc.Close()
}

// ReadYAML parses a document written by WriteYAML
func ReadYAML(r io.Reader) (string, []*Entry, error) {
	var doc exportDoc
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return "", nil, fmt.Errorf("failed to decode history: %w", err)
	}
	return doc.User, doc.Translations, nil
}
