package speech

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"codeberg.org/snonux/jembatan/internal/provider"
)

// Language tags understood by the speech providers
const (
	LangJapanese   = "ja-JP"
	LangIndonesian = "id-ID"
)

// LanguageOf returns the language tag of the text a translation in dir
// produces
func LanguageOf(dir provider.Direction) string {
	if dir == provider.JPToID {
		return LangIndonesian
	}
	return LangJapanese
}

// Provider defines the interface for text-to-speech providers
type Provider interface {
	// GenerateAudio speaks text in lang and saves the audio to outputFile
	GenerateAudio(ctx context.Context, text, lang, outputFile string) error

	// Name returns the provider name
	Name() string

	// IsAvailable checks if the provider is properly configured and available
	IsAvailable() error
}

// Config holds common configuration for speech providers
type Config struct {
	Provider string // "openai", "gemini" or "espeak"

	// OpenAI-specific settings
	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string  // "tts-1", "tts-1-hd", or "gpt-4o-mini-tts"
	OpenAIVoice   string  // "alloy", "coral", "nova", "shimmer", ...
	OpenAISpeed   float64 // 0.25 to 4.0
	CacheDir      string
	EnableCache   bool

	// Gemini-specific settings
	GeminiKey     string
	GeminiBaseURL string
	GeminiModel   string
	GeminiVoice   string // "Kore", "Puck", "Aoede", ...

	ESpeak *ESpeakConfig

	Logger *logrus.Logger
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Provider:    "openai",
		OpenAIModel: "gpt-4o-mini-tts",
		OpenAIVoice: "nova",
		OpenAISpeed: 0.9,
		GeminiModel: "gemini-2.5-flash-preview-tts",
		GeminiVoice: "Kore",
		ESpeak:      DefaultESpeakConfig(),
	}
}

// NewProvider creates the configured provider. OpenAI and Gemini providers
// fall back to espeak-ng when that is installed.
func NewProvider(ctx context.Context, config *Config) (Provider, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Logger == nil {
		config.Logger = logrus.New()
	}

	var primary Provider
	switch config.Provider {
	case "openai", "":
		p, err := NewOpenAIProvider(config)
		if err != nil {
			return nil, err
		}
		primary = p

	case "gemini":
		p, err := NewGeminiProvider(ctx, config)
		if err != nil {
			return nil, err
		}
		primary = p

	case "espeak", "espeak-ng":
		p, err := NewESpeakProvider(config.ESpeak)
		if err != nil {
			return nil, err
		}
		return p, nil

	default:
		return nil, fmt.Errorf("unknown speech provider: %s", config.Provider)
	}

	if fallback, err := NewESpeakProvider(config.ESpeak); err == nil {
		return NewProviderWithFallback(primary, fallback, config.Logger), nil
	}
	return primary, nil
}

// ProviderWithFallback wraps a primary provider with a fallback option
type ProviderWithFallback struct {
	primary  Provider
	fallback Provider
	logger   *logrus.Logger
}

// NewProviderWithFallback creates a provider that falls back to secondary if primary fails
func NewProviderWithFallback(primary, fallback Provider, logger *logrus.Logger) Provider {
	if logger == nil {
		logger = logrus.New()
	}
	return &ProviderWithFallback{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// GenerateAudio tries primary provider first, falls back to secondary on error
func (p *ProviderWithFallback) GenerateAudio(ctx context.Context, text, lang, outputFile string) error {
	err := p.primary.GenerateAudio(ctx, text, lang, outputFile)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return err
	}

	p.logger.WithError(err).WithFields(logrus.Fields{
		"primary":  p.primary.Name(),
		"fallback": p.fallback.Name(),
	}).Warn("Speech provider failed, falling back")

	return p.fallback.GenerateAudio(ctx, text, lang, outputFile)
}

// Name returns the provider name
func (p *ProviderWithFallback) Name() string {
	return fmt.Sprintf("%s (fallback: %s)", p.primary.Name(), p.fallback.Name())
}

// IsAvailable checks if at least one provider is available
func (p *ProviderWithFallback) IsAvailable() error {
	primaryErr := p.primary.IsAvailable()
	if primaryErr == nil {
		return nil
	}

	fallbackErr := p.fallback.IsAvailable()
	if fallbackErr == nil {
		return nil
	}

	return fmt.Errorf("both providers unavailable: primary=%v, fallback=%v",
		primaryErr, fallbackErr)
}
