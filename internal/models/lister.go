package models

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// maxChatModels limits how many chat models are printed before summarizing
const maxChatModels = 10

// Lister handles listing available OpenAI models
type Lister struct {
	apiKey string
	client *openai.Client
}

// NewLister creates a new model lister. An empty baseURL uses the public
// OpenAI endpoint.
func NewLister(apiKey, baseURL string) *Lister {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Lister{
		apiKey: apiKey,
		client: openai.NewClientWithConfig(cfg),
	}
}

// Catalog is the categorized model list
type Catalog struct {
	Speech []string
	Chat   []string
}

// Fetch retrieves and categorizes the models
func (l *Lister) Fetch(ctx context.Context) (*Catalog, error) {
	if l.apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key not found. Set OPENAI_API_KEY environment variable or configure in .jembatan.yaml")
	}

	models, err := l.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	c := &Catalog{}
	for _, model := range models.Models {
		id := model.ID
		switch {
		case strings.Contains(id, "tts") || strings.Contains(id, "audio"):
			c.Speech = append(c.Speech, id)
		case strings.Contains(id, "gpt") || strings.Contains(id, "chat"):
			c.Chat = append(c.Chat, id)
		}
	}

	sort.Strings(c.Speech)
	sort.Strings(c.Chat)
	return c, nil
}

// ListAvailableModels prints the categorized models to w
func (l *Lister) ListAvailableModels(ctx context.Context, w io.Writer) error {
	c, err := l.Fetch(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "Available OpenAI Models:")
	fmt.Fprintln(w, "\nChat/Translation Models (for Indonesian-Japanese translation):")
	if len(c.Chat) == 0 {
		fmt.Fprintln(w, "  No chat models found")
	}
	shown := c.Chat
	if len(shown) > maxChatModels {
		shown = relevant(c.Chat)
	}
	for _, model := range shown {
		fmt.Fprintf(w, "  %s\n", model)
	}
	if hidden := len(c.Chat) - len(shown); hidden > 0 {
		fmt.Fprintf(w, "  ... and %d more models\n", hidden)
	}

	fmt.Fprintln(w, "\nText-to-Speech (TTS) Models:")
	if len(c.Speech) == 0 {
		fmt.Fprintln(w, "  No TTS models found")
	}
	for _, model := range c.Speech {
		fmt.Fprintf(w, "  %s\n", model)
	}

	return nil
}

// relevant keeps the gpt-4 family, which handles Japanese well
func relevant(models []string) []string {
	var out []string
	for _, m := range models {
		if strings.HasPrefix(m, "gpt-4") {
			out = append(out, m)
		}
	}
	return out
}
