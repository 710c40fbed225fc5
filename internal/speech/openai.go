package speech

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

// instructions steer gpt-4o-mini-tts towards a learner-friendly reading
var instructions = map[string]string{
	LangJapanese:   "Speak in standard Tokyo Japanese, slowly and clearly, as a teacher would for a beginner learner.",
	LangIndonesian: "Speak in standard Indonesian, slowly and clearly, as a teacher would for a beginner learner.",
}

// OpenAIProvider implements Provider for OpenAI TTS
type OpenAIProvider struct {
	client *openai.Client
	config *Config
	logger *logrus.Logger
}

// NewOpenAIProvider creates a new OpenAI TTS provider
func NewOpenAIProvider(config *Config) (*OpenAIProvider, error) {
	if config.OpenAIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.OpenAIKey)
	if config.OpenAIBaseURL != "" {
		clientConfig.BaseURL = config.OpenAIBaseURL
	}

	logger := config.Logger
	if logger == nil {
		logger = logrus.New()
	}

	if config.EnableCache && config.CacheDir != "" {
		if err := os.MkdirAll(config.CacheDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
		logger: logger,
	}, nil
}

// GenerateAudio generates audio using OpenAI TTS
func (p *OpenAIProvider) GenerateAudio(ctx context.Context, text, lang, outputFile string) error {
	if err := ValidateText(text, lang); err != nil {
		return err
	}
	text = strings.TrimSpace(text)

	cacheFile := p.cacheFilePath(text, lang, responseFormat(outputFile))
	if cacheFile != "" {
		if _, err := os.Stat(cacheFile); err == nil {
			p.logger.WithField("file", cacheFile).Debug("Speech cache hit")
			return copyFile(cacheFile, outputFile)
		}
	}

	req := openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(p.config.OpenAIModel),
		Input:          text,
		Voice:          openai.SpeechVoice(p.config.OpenAIVoice),
		Speed:          p.config.OpenAISpeed,
		ResponseFormat: responseFormat(outputFile),
	}
	if p.supportsInstructions() {
		req.Instructions = instructions[lang]
	}

	p.logger.WithFields(logrus.Fields{
		"model": p.config.OpenAIModel,
		"voice": p.config.OpenAIVoice,
		"lang":  lang,
	}).Debug("Requesting OpenAI speech")

	response, err := p.client.CreateSpeech(ctx, req)
	if err != nil {
		return fmt.Errorf("OpenAI TTS API error: %w", err)
	}
	defer response.Close()

	if err := ensureDir(outputFile); err != nil {
		return err
	}

	out, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	written, err := io.Copy(out, response)
	if err != nil {
		return fmt.Errorf("failed to write audio file: %w", err)
	}
	if written == 0 {
		return fmt.Errorf("no audio data received from OpenAI")
	}

	if cacheFile != "" {
		if err := copyFile(outputFile, cacheFile); err != nil {
			p.logger.WithError(err).Warn("Failed to cache speech")
		}
	}

	return nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// IsAvailable checks that a key is configured. It makes no API call.
func (p *OpenAIProvider) IsAvailable() error {
	if p.config.OpenAIKey == "" {
		return fmt.Errorf("OpenAI API key not configured")
	}
	return nil
}

func (p *OpenAIProvider) supportsInstructions() bool {
	return p.config.OpenAIModel == "gpt-4o-mini-tts"
}

func responseFormat(outputFile string) openai.SpeechResponseFormat {
	switch strings.ToLower(filepath.Ext(outputFile)) {
	case ".wav":
		return openai.SpeechResponseFormatWav
	case ".opus":
		return openai.SpeechResponseFormatOpus
	case ".aac":
		return openai.SpeechResponseFormatAac
	case ".flac":
		return openai.SpeechResponseFormatFlac
	default:
		return openai.SpeechResponseFormatMp3
	}
}

// cacheFilePath returns "" when caching is disabled
func (p *OpenAIProvider) cacheFilePath(text, lang string, format openai.SpeechResponseFormat) string {
	if !p.config.EnableCache || p.config.CacheDir == "" {
		return ""
	}

	h := md5.New()
	h.Write([]byte(text))
	h.Write([]byte(lang))
	h.Write([]byte(format))
	h.Write([]byte(p.config.OpenAIModel))
	h.Write([]byte(p.config.OpenAIVoice))
	fmt.Fprintf(h, "%.2f", p.config.OpenAISpeed)
	hash := hex.EncodeToString(h.Sum(nil))

	// first two hex chars as a fan-out subdirectory
	return filepath.Join(p.config.CacheDir, hash[:2], hash[2:]+"."+string(format))
}

// ClearCache removes all cached audio files
func (p *OpenAIProvider) ClearCache() error {
	return ClearCache(p.config.CacheDir)
}

// CacheStats returns the number and total size of cached files
func (p *OpenAIProvider) CacheStats() (fileCount int, totalSize int64, err error) {
	if !p.config.EnableCache {
		return 0, 0, nil
	}
	return CacheStats(p.config.CacheDir)
}

// ClearCache removes the audio cache at dir
func ClearCache(dir string) error {
	if dir == "" {
		return nil
	}
	return os.RemoveAll(dir)
}

// CacheStats returns the number and total size of the files cached in dir.
// A missing cache is empty.
func CacheStats(dir string) (fileCount int, totalSize int64, err error) {
	if dir == "" {
		return 0, 0, nil
	}

	err = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			fileCount++
			totalSize += info.Size()
		}
		return nil
	})
	if errors.Is(err, os.ErrNotExist) {
		return 0, 0, nil
	}

	return fileCount, totalSize, err
}

func copyFile(src, dst string) error {
	if err := ensureDir(dst); err != nil {
		return err
	}

	source, err := os.Open(src)
	if err != nil {
		return err
	}
	defer source.Close()

	destination, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destination.Close()

	_, err = io.Copy(destination, source)
	return err
}
