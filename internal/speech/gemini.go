package speech

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"google.golang.org/genai"
)

// defaultPCMRate is the sample rate Gemini TTS answers with
const defaultPCMRate = 24000

// GeminiProvider implements Provider with Gemini's speech generation
type GeminiProvider struct {
	client *genai.Client
	config *Config
}

// NewGeminiProvider creates a Gemini TTS provider
func NewGeminiProvider(ctx context.Context, config *Config) (*GeminiProvider, error) {
	if config.GeminiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	cc := &genai.ClientConfig{
		APIKey:  config.GeminiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.GeminiBaseURL != "" {
		cc.HTTPOptions.BaseURL = config.GeminiBaseURL
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiProvider{client: client, config: config}, nil
}

// GenerateAudio speaks text and writes WAV, or MP3 through ffmpeg
func (p *GeminiProvider) GenerateAudio(ctx context.Context, text, lang, outputFile string) error {
	if err := ValidateText(text, lang); err != nil {
		return err
	}
	if err := ensureDir(outputFile); err != nil {
		return err
	}

	cfg := &genai.GenerateContentConfig{
		SpeechConfig: &genai.SpeechConfig{
			LanguageCode: lang,
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: p.config.GeminiVoice},
			},
		},
	}
	cfg.ResponseModalities = append(cfg.ResponseModalities, "AUDIO")

	prompt := text
	if inst, ok := instructions[lang]; ok {
		prompt = inst + "\n\n" + text
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.config.GeminiModel, genai.Text(prompt), cfg)
	if err != nil {
		return fmt.Errorf("Gemini TTS API error: %w", err)
	}

	blob := audioBlob(resp)
	if blob == nil || len(blob.Data) == 0 {
		return fmt.Errorf("Gemini TTS returned no audio")
	}

	if !strings.EqualFold(filepath.Ext(outputFile), ".mp3") {
		return writeWAVFile(outputFile, blob.Data, pcmRate(blob.MIMEType))
	}

	tmp := strings.TrimSuffix(outputFile, filepath.Ext(outputFile)) + ".tmp.wav"
	if err := writeWAVFile(tmp, blob.Data, pcmRate(blob.MIMEType)); err != nil {
		return err
	}
	defer os.Remove(tmp)
	return convertWAVToMP3(ctx, tmp, outputFile)
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// IsAvailable checks if the provider is properly configured
func (p *GeminiProvider) IsAvailable() error {
	if p.config.GeminiKey == "" {
		return fmt.Errorf("Gemini API key not configured")
	}
	return nil
}

func audioBlob(resp *genai.GenerateContentResponse) *genai.Blob {
	if resp == nil {
		return nil
	}
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		for _, part := range c.Content.Parts {
			if part != nil && part.InlineData != nil {
				return part.InlineData
			}
		}
	}
	return nil
}

// pcmRate reads the sample rate of a MIME type like
// "audio/L16;codec=pcm;rate=24000"
func pcmRate(mimeType string) int {
	for _, param := range strings.Split(mimeType, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(param), "=")
		if ok && k == "rate" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				return n
			}
		}
	}
	return defaultPCMRate
}

func writeWAVFile(path string, pcm []byte, rate int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	if err := writeWAV(f, pcm, rate); err != nil {
		return fmt.Errorf("failed to write WAV file: %w", err)
	}
	return nil
}

// writeWAV writes 16-bit mono little endian PCM with a RIFF header
func writeWAV(w io.Writer, pcm []byte, rate int) error {
	const (
		channels      = 1
		bitsPerSample = 16
	)
	blockAlign := channels * bitsPerSample / 8

	header := []any{
		[4]byte{'R', 'I', 'F', 'F'},
		uint32(36 + len(pcm)),
		[4]byte{'W', 'A', 'V', 'E'},
		[4]byte{'f', 'm', 't', ' '},
		uint32(16), // fmt chunk size
		uint16(1),  // PCM
		uint16(channels),
		uint32(rate),
		uint32(rate * blockAlign),
		uint16(blockAlign),
		uint16(bitsPerSample),
		[4]byte{'d', 'a', 't', 'a'},
		uint32(len(pcm)),
	}
	for _, v := range header {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	_, err := w.Write(pcm)
	return err
}
