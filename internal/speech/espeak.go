package speech

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// ESpeakConfig holds configuration for espeak-ng audio generation
type ESpeakConfig struct {
	Speed     int // Speech speed in words per minute (default: 140)
	Pitch     int // Pitch adjustment, 0 to 99 (default: 50)
	Amplitude int // Volume/amplitude, 0 to 200 (default: 100)
	WordGap   int // Gap between words in 10ms units (default: 0)
}

// DefaultESpeakConfig returns settings tuned for learners
func DefaultESpeakConfig() *ESpeakConfig {
	return &ESpeakConfig{
		Speed:     140,
		Pitch:     50,
		Amplitude: 100,
	}
}

// espeakVoices maps language tags to espeak-ng voices
var espeakVoices = map[string]string{
	LangJapanese:   "ja",
	LangIndonesian: "id",
}

// ESpeakProvider speaks text with the local espeak-ng binary
type ESpeakProvider struct {
	config *ESpeakConfig
}

// NewESpeakProvider creates a new espeak-ng provider
func NewESpeakProvider(config *ESpeakConfig) (*ESpeakProvider, error) {
	if err := checkESpeakInstalled(); err != nil {
		return nil, err
	}
	if config == nil {
		config = DefaultESpeakConfig()
	}
	return &ESpeakProvider{config: config}, nil
}

// GenerateAudio writes a WAV file, or an MP3 converted with ffmpeg when
// outputFile ends in .mp3
func (p *ESpeakProvider) GenerateAudio(ctx context.Context, text, lang, outputFile string) error {
	if err := ValidateText(text, lang); err != nil {
		return err
	}

	if strings.ToLower(filepath.Ext(outputFile)) != ".mp3" {
		return p.generateWAV(ctx, text, lang, outputFile)
	}

	tempWAV := strings.TrimSuffix(outputFile, filepath.Ext(outputFile)) + "_temp.wav"
	if err := p.generateWAV(ctx, text, lang, tempWAV); err != nil {
		return err
	}
	defer os.Remove(tempWAV)

	return convertWAVToMP3(ctx, tempWAV, outputFile)
}

func (p *ESpeakProvider) generateWAV(ctx context.Context, text, lang, outputFile string) error {
	if err := ensureDir(outputFile); err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, "espeak-ng", p.args(text, lang, outputFile)...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("espeak-ng failed: %w\nOutput: %s", err, string(output))
	}
	return nil
}

// args builds the espeak-ng command line
func (p *ESpeakProvider) args(text, lang, outputFile string) []string {
	args := []string{
		"-v", espeakVoices[lang],
		"-s", strconv.Itoa(p.config.Speed),
		"-p", strconv.Itoa(p.config.Pitch),
		"-a", strconv.Itoa(p.config.Amplitude),
	}
	if p.config.WordGap > 0 {
		args = append(args, "-g", strconv.Itoa(p.config.WordGap))
	}
	return append(args, "-w", outputFile, text)
}

// Name returns the provider name
func (p *ESpeakProvider) Name() string {
	return "espeak-ng"
}

// IsAvailable checks if espeak-ng is installed
func (p *ESpeakProvider) IsAvailable() error {
	return checkESpeakInstalled()
}

// checkESpeakInstalled verifies that espeak-ng is available on the system
func checkESpeakInstalled() error {
	if _, err := exec.LookPath("espeak-ng"); err != nil {
		return fmt.Errorf("espeak-ng is not installed or not in PATH: %w", err)
	}
	return nil
}

// convertWAVToMP3 converts a WAV file to MP3 using ffmpeg
func convertWAVToMP3(ctx context.Context, wavFile, mp3File string) error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return fmt.Errorf("ffmpeg is not installed or not in PATH: %w", err)
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", "-i", wavFile, "-acodec", "mp3", "-y", mp3File)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg conversion failed: %w\nOutput: %s", err, string(output))
	}
	return nil
}

func ensureDir(file string) error {
	dir := filepath.Dir(file)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	return nil
}
