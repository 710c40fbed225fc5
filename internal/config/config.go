// Package config maps viper keys onto the configuration structs of the
// translation, speech and storage packages.
package config

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"codeberg.org/snonux/jembatan/internal/history"
	"codeberg.org/snonux/jembatan/internal/i18n"
	"codeberg.org/snonux/jembatan/internal/provider"
	"codeberg.org/snonux/jembatan/internal/settings"
	"codeberg.org/snonux/jembatan/internal/speech"
	"codeberg.org/snonux/jembatan/internal/translation"
)

// EnvPrefix is the prefix of environment overrides, e.g. JEMBATAN_LOG_LEVEL
const EnvPrefix = "JEMBATAN"

// Config is the resolved application configuration
type Config struct {
	Provider  provider.ID
	Direction provider.Direction

	Timeout        time.Duration
	AttemptTimeout time.Duration
	Fallbacks      []provider.ID
	LastResort     provider.ID
	AutoPreferred  provider.ID

	BaseURLs    map[provider.ID]string
	OpenAIModel string
	HTTPTimeout time.Duration
	Breaker     provider.BreakerConfig

	HistoryPath  string
	SettingsPath string

	Audio AudioConfig

	ServerPort int
	LogLevel   string
	Language   string
}

// AudioConfig configures text-to-speech
type AudioConfig struct {
	Provider    string
	Format      string
	OutputDir   string
	OpenAIModel string
	OpenAIVoice string
	OpenAISpeed float64
	CacheDir    string
	EnableCache bool
	GeminiKey   string
	GeminiModel string
	GeminiVoice string
}

// SetDefaults registers the default value of every key on v
func SetDefaults(v *viper.Viper) {
	home, _ := os.UserHomeDir()
	stateDir := filepath.Join(home, ".local", "state", "jembatan")

	router := translation.DefaultRouterConfig()
	breaker := provider.DefaultBreakerConfig()

	v.SetDefault("translation.provider", "")
	v.SetDefault("translation.direction", string(provider.IDToJP))
	v.SetDefault("translation.timeout", 0)
	v.SetDefault("translation.attempt_timeout", 0)
	v.SetDefault("translation.fallbacks", idStrings(router.Fallbacks))
	v.SetDefault("translation.last_resort", string(provider.LibreTranslate))
	v.SetDefault("translation.auto_preferred", string(router.AutoPreferred))
	v.SetDefault("translation.http_timeout", 0)

	for id, url := range provider.DefaultConfig().BaseURLs {
		v.SetDefault("providers."+string(id)+".base_url", url)
	}
	v.SetDefault("providers.openai.model", provider.DefaultOpenAIModel)

	v.SetDefault("breaker.enabled", breaker.Enabled)
	v.SetDefault("breaker.max_failures", breaker.MaxFailures)
	v.SetDefault("breaker.open_timeout", breaker.OpenTimeout)

	v.SetDefault("history.path", history.DefaultPath())
	v.SetDefault("settings.path", settings.DefaultPath())

	v.SetDefault("audio.provider", "openai")
	v.SetDefault("audio.format", "mp3")
	v.SetDefault("audio.output_dir", filepath.Join(stateDir, "audio"))
	v.SetDefault("audio.openai_model", "gpt-4o-mini-tts")
	v.SetDefault("audio.openai_voice", "nova")
	v.SetDefault("audio.openai_speed", 0.9)
	v.SetDefault("audio.cache_dir", filepath.Join(stateDir, "audio-cache"))
	v.SetDefault("audio.enable_cache", true)
	v.SetDefault("audio.gemini_model", "gemini-2.5-flash-preview-tts")
	v.SetDefault("audio.gemini_voice", "Kore")

	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("ui.language", i18n.SourceLanguage)
}

// Load reads and validates the configuration from v
func Load(v *viper.Viper) (*Config, error) {
	c := &Config{
		Timeout:        v.GetDuration("translation.timeout"),
		AttemptTimeout: v.GetDuration("translation.attempt_timeout"),
		HTTPTimeout:    v.GetDuration("translation.http_timeout"),
		BaseURLs:       map[provider.ID]string{},
		OpenAIModel:    v.GetString("providers.openai.model"),
		Breaker: provider.BreakerConfig{
			Enabled:     v.GetBool("breaker.enabled"),
			MaxFailures: v.GetUint32("breaker.max_failures"),
			OpenTimeout: v.GetDuration("breaker.open_timeout"),
		},
		HistoryPath:  v.GetString("history.path"),
		SettingsPath: v.GetString("settings.path"),
		Audio: AudioConfig{
			Provider:    v.GetString("audio.provider"),
			Format:      strings.TrimPrefix(v.GetString("audio.format"), "."),
			OutputDir:   v.GetString("audio.output_dir"),
			OpenAIModel: v.GetString("audio.openai_model"),
			OpenAIVoice: v.GetString("audio.openai_voice"),
			OpenAISpeed: v.GetFloat64("audio.openai_speed"),
			CacheDir:    v.GetString("audio.cache_dir"),
			EnableCache: v.GetBool("audio.enable_cache"),
			GeminiKey:   v.GetString("audio.gemini_key"),
			GeminiModel: v.GetString("audio.gemini_model"),
			GeminiVoice: v.GetString("audio.gemini_voice"),
		},
		ServerPort: v.GetInt("server.port"),
		LogLevel:   v.GetString("log.level"),
		Language:   v.GetString("ui.language"),
	}

	var err error
	if raw := v.GetString("translation.provider"); raw != "" {
		if c.Provider, err = provider.ParseID(raw); err != nil {
			return nil, err
		}
	}
	if c.Direction, err = provider.ParseDirection(v.GetString("translation.direction")); err != nil {
		return nil, err
	}
	if c.LastResort, err = freeID(v.GetString("translation.last_resort"), "translation.last_resort"); err != nil {
		return nil, err
	}
	if c.AutoPreferred, err = freeID(v.GetString("translation.auto_preferred"), "translation.auto_preferred"); err != nil {
		return nil, err
	}
	for _, raw := range v.GetStringSlice("translation.fallbacks") {
		id, err := freeID(raw, "translation.fallbacks")
		if err != nil {
			return nil, err
		}
		c.Fallbacks = append(c.Fallbacks, id)
	}

	for _, id := range append(append([]provider.ID{}, provider.FreeIDs...), provider.PaidIDs...) {
		if url := v.GetString("providers." + string(id) + ".base_url"); url != "" {
			c.BaseURLs[id] = strings.TrimRight(url, "/")
		}
	}

	if c.Timeout < 0 || c.AttemptTimeout < 0 {
		return nil, fmt.Errorf("timeouts must not be negative")
	}
	if c.ServerPort < 0 || c.ServerPort > 65535 {
		return nil, fmt.Errorf("invalid server.port: %d", c.ServerPort)
	}

	return c, nil
}

// ProviderConfig returns the adapter configuration
func (c *Config) ProviderConfig(logger *logrus.Logger) *provider.Config {
	pc := provider.DefaultConfig()
	for id, url := range c.BaseURLs {
		pc.BaseURLs[id] = url
	}
	if c.OpenAIModel != "" {
		pc.OpenAIModel = c.OpenAIModel
	}
	if c.HTTPTimeout > 0 {
		pc.HTTPClient = &http.Client{Timeout: c.HTTPTimeout}
	}
	pc.Breaker = c.Breaker
	pc.Logger = logger
	return pc
}

// ServiceConfig returns the translation facade configuration
func (c *Config) ServiceConfig(logger *logrus.Logger) translation.ServiceConfig {
	sc := translation.DefaultServiceConfig()
	if len(c.Fallbacks) > 0 {
		sc.Router.Fallbacks = c.Fallbacks
	}
	if c.AutoPreferred != "" {
		sc.Router.AutoPreferred = c.AutoPreferred
	}
	if c.LastResort != "" {
		sc.LastResort = c.LastResort
	}
	sc.Router.AttemptTimeout = c.AttemptTimeout
	sc.Timeout = c.Timeout
	sc.Logger = logger
	return sc
}

// SpeechConfig returns the text-to-speech configuration
func (c *Config) SpeechConfig(openAIKey string, logger *logrus.Logger) *speech.Config {
	sc := speech.DefaultConfig()
	sc.Provider = c.Audio.Provider
	sc.OpenAIKey = openAIKey
	sc.OpenAIBaseURL = c.BaseURLs[provider.OpenAI]
	if c.Audio.OpenAIModel != "" {
		sc.OpenAIModel = c.Audio.OpenAIModel
	}
	if c.Audio.OpenAIVoice != "" {
		sc.OpenAIVoice = c.Audio.OpenAIVoice
	}
	if c.Audio.OpenAISpeed > 0 {
		sc.OpenAISpeed = c.Audio.OpenAISpeed
	}
	sc.CacheDir = c.Audio.CacheDir
	sc.EnableCache = c.Audio.EnableCache
	sc.GeminiKey = c.Audio.GeminiKey
	if sc.GeminiKey == "" {
		sc.GeminiKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.Audio.GeminiModel != "" {
		sc.GeminiModel = c.Audio.GeminiModel
	}
	if c.Audio.GeminiVoice != "" {
		sc.GeminiVoice = c.Audio.GeminiVoice
	}
	sc.Logger = logger
	return sc
}

// NewTranslationService builds the adapters and the facade
func (c *Config) NewTranslationService(logger *logrus.Logger) *translation.Service {
	registry := provider.NewRegistry(c.ProviderConfig(logger))
	return translation.NewService(registry, c.ServiceConfig(logger))
}

// NewLogger returns a logrus logger with full RFC3339 timestamps at level.
// An unknown level falls back to info with a warning.
func NewLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logger.WithError(err).Warn("Invalid log level, using info")
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}

func freeID(raw, key string) (provider.ID, error) {
	id, err := provider.ParseID(raw)
	if err != nil {
		return "", fmt.Errorf("%s: %w", key, err)
	}
	if !id.IsFree() {
		return "", fmt.Errorf("%s: %s is not a free provider", key, id)
	}
	return id, nil
}

func idStrings(ids []provider.ID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
