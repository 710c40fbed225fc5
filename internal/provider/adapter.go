package provider

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
)

// Adapter translates text with one backend
type Adapter interface {
	// ID returns the backend this adapter talks to
	ID() ID

	// Translate issues exactly one upstream call. sourceLang and targetLang
	// are lower-case ISO 639-1 codes ("id", "ja"). credential is ignored by
	// free backends.
	Translate(ctx context.Context, text, sourceLang, targetLang, credential string) (Outcome, error)
}

// Default upstream endpoints
const (
	DefaultLibreTranslateURL = "https://libretranslate.de"
	DefaultMyMemoryURL       = "https://api.mymemory.translated.net"
	DefaultLingvaURL         = "https://lingva.ml"
	DefaultArgosURL          = "https://translate.argosopentech.com"
	DefaultOpenAIURL         = "https://api.openai.com/v1"
	DefaultGoogleURL         = "https://translation.googleapis.com"
	DefaultDeepLURL          = "https://api-free.deepl.com"

	DefaultOpenAIModel = "gpt-4o-mini"
)

// Config holds the settings used to build the adapters
type Config struct {
	// BaseURLs overrides the endpoint of individual backends
	BaseURLs map[ID]string
	// OpenAIModel is the chat model used by the AI adapter
	OpenAIModel string
	// HTTPClient is shared by all HTTP adapters. A nil client means
	// http.DefaultClient semantics with no client side timeout.
	HTTPClient *http.Client
	// Breaker wraps every adapter in a circuit breaker when enabled
	Breaker BreakerConfig
	// Logger is the logger to use. If nil, a default logger is created.
	Logger *logrus.Logger
}

// DefaultConfig returns the configuration for the public endpoints
func DefaultConfig() *Config {
	return &Config{
		BaseURLs: map[ID]string{
			LibreTranslate: DefaultLibreTranslateURL,
			MyMemory:       DefaultMyMemoryURL,
			Lingva:         DefaultLingvaURL,
			Argos:          DefaultArgosURL,
			OpenAI:         DefaultOpenAIURL,
			Google:         DefaultGoogleURL,
			DeepL:          DefaultDeepLURL,
		},
		OpenAIModel: DefaultOpenAIModel,
		Breaker:     DefaultBreakerConfig(),
	}
}

// baseURL returns the configured endpoint for id, or def
func (c *Config) baseURL(id ID, def string) string {
	if u, ok := c.BaseURLs[id]; ok && u != "" {
		return u
	}
	return def
}

// Registry maps provider IDs to adapters
type Registry struct {
	mu       sync.RWMutex
	adapters map[ID]Adapter
}

// NewEmptyRegistry creates a registry without adapters
func NewEmptyRegistry() *Registry {
	return &Registry{adapters: make(map[ID]Adapter)}
}

// NewRegistry creates a registry holding one adapter per backend
func NewRegistry(cfg *Config) *Registry {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}

	hc := &httpClient{client: cfg.HTTPClient, logger: cfg.Logger}
	adapters := []Adapter{
		NewLibreTranslateAdapter(cfg.baseURL(LibreTranslate, DefaultLibreTranslateURL), hc),
		NewMyMemoryAdapter(cfg.baseURL(MyMemory, DefaultMyMemoryURL), hc),
		NewLingvaAdapter(cfg.baseURL(Lingva, DefaultLingvaURL), hc),
		NewArgosAdapter(cfg.baseURL(Argos, DefaultArgosURL), hc),
		NewOpenAIAdapter(cfg.baseURL(OpenAI, DefaultOpenAIURL), cfg.OpenAIModel, cfg.HTTPClient, cfg.Logger),
		NewGoogleAdapter(cfg.baseURL(Google, DefaultGoogleURL), hc),
		NewDeepLAdapter(cfg.baseURL(DeepL, DefaultDeepLURL), hc),
	}

	r := NewEmptyRegistry()
	for _, a := range adapters {
		// Paid adapters run on the caller's own key, so one caller's bad key
		// must not trip a breaker shared with everybody else
		if cfg.Breaker.Enabled && a.ID().IsFree() {
			a = WithBreaker(a, cfg.Breaker, cfg.Logger)
		}
		r.Register(a)
	}

	cfg.Logger.WithFields(logrus.Fields{
		"adapters": len(adapters),
		"breaker":  cfg.Breaker.Enabled,
	}).Debug("Created provider registry")

	return r
}

// Register adds or replaces the adapter for a.ID()
func (r *Registry) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[a.ID()] = a
}

// Get returns the adapter for id
func (r *Registry) Get(id ID) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[id]
	return a, ok
}

// Lookup returns the adapter for id or an error naming the missing ID
func (r *Registry) Lookup(id ID) (Adapter, error) {
	if a, ok := r.Get(id); ok {
		return a, nil
	}
	return nil, fmt.Errorf("no adapter registered for provider %q", id)
}

// IDs returns the registered IDs in sorted order
func (r *Registry) IDs() []ID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]ID, 0, len(r.adapters))
	for id := range r.adapters {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
