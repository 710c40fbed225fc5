package translation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"codeberg.org/snonux/jembatan/internal/provider"
)

// Request is one translation call
type Request struct {
	Text      string
	Direction provider.Direction
	Provider  provider.ID
	// Credential is required for paid providers and ignored otherwise
	Credential string
}

// JapaneseResult is the Indonesian to Japanese result
type JapaneseResult struct {
	// Translation repeats JapaneseText for older clients
	Translation  string `json:"translation" yaml:"translation"`
	JapaneseText string `json:"japaneseText" yaml:"japaneseText"`
	Romaji       string `json:"romaji,omitempty" yaml:"romaji,omitempty"`
	JLPTLevel    string `json:"jlptLevel" yaml:"jlptLevel"`
}

// IndonesianResult is the Japanese to Indonesian result
type IndonesianResult struct {
	IndonesianText string `json:"indonesianText" yaml:"indonesianText"`
	Romaji         string `json:"romaji,omitempty" yaml:"romaji,omitempty"`
	JLPTLevel      string `json:"jlptLevel" yaml:"jlptLevel"`
}

// NewJapaneseResult wraps a forward outcome
func NewJapaneseResult(out provider.Outcome) *JapaneseResult {
	return &JapaneseResult{
		Translation:  out.TranslatedText,
		JapaneseText: out.TranslatedText,
		Romaji:       out.Romaji,
		JLPTLevel:    out.Level,
	}
}

// NewIndonesianResult wraps a reverse outcome
func NewIndonesianResult(out provider.Outcome) *IndonesianResult {
	return &IndonesianResult{
		IndonesianText: out.TranslatedText,
		Romaji:         out.Romaji,
		JLPTLevel:      out.Level,
	}
}

// ServiceConfig configures the translation facade
type ServiceConfig struct {
	Router RouterConfig
	// LastResort is tried once after the router gave up
	LastResort provider.ID
	// Timeout is the overall deadline of one Translate call. Zero means no
	// deadline.
	Timeout time.Duration
	// Logger is the logger to use. If nil, a default logger is created.
	Logger *logrus.Logger
}

// DefaultServiceConfig returns the facade defaults
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Router:     DefaultRouterConfig(),
		LastResort: provider.LibreTranslate,
	}
}

// Service is the single entry point for translations. Free and auto
// requests go through the Router, paid requests go straight to their
// adapter.
type Service struct {
	adapters Adapters
	router   *Router
	config   ServiceConfig
	logger   *logrus.Logger
}

// NewService creates the translation facade
func NewService(adapters Adapters, config ServiceConfig) *Service {
	if config.Logger == nil {
		config.Logger = logrus.New()
	}
	if !config.LastResort.IsFree() {
		config.LastResort = provider.LibreTranslate
	}
	return &Service{
		adapters: adapters,
		router:   NewRouter(adapters, config.Router, config.Logger),
		config:   config,
		logger:   config.Logger,
	}
}

// Router returns the free router used by s
func (s *Service) Router() *Router {
	return s.router
}

// TranslateToJapanese translates Indonesian text to Japanese
func (s *Service) TranslateToJapanese(ctx context.Context, text string, id provider.ID, credential string) (*JapaneseResult, error) {
	out, err := s.Translate(ctx, Request{Text: text, Direction: provider.IDToJP, Provider: id, Credential: credential})
	if err != nil {
		return nil, err
	}
	return NewJapaneseResult(out), nil
}

// TranslateToIndonesian translates Japanese text to Indonesian
func (s *Service) TranslateToIndonesian(ctx context.Context, text string, id provider.ID, credential string) (*IndonesianResult, error) {
	out, err := s.Translate(ctx, Request{Text: text, Direction: provider.JPToID, Provider: id, Credential: credential})
	if err != nil {
		return nil, err
	}
	return NewIndonesianResult(out), nil
}

// Translate validates req and dispatches it. Validation failures are
// *ValidationError and happen before any adapter call; exhausted paths are
// *TranslationError.
func (s *Service) Translate(ctx context.Context, req Request) (provider.Outcome, error) {
	text := NormalizeText(req.Text)
	out, err := s.translate(ctx, req, text)
	recordTranslation(req.Direction, len(text), err)
	return out, err
}

func (s *Service) translate(ctx context.Context, req Request, text string) (provider.Outcome, error) {
	if err := s.validate(req, text); err != nil {
		return provider.Outcome{}, err
	}

	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	log := s.logger.WithFields(logrus.Fields{
		"provider":    req.Provider,
		"direction":   req.Direction,
		"text_length": len(text),
	})
	log.Debug("Starting translation")

	if req.Provider.IsPaid() {
		return s.translatePaid(ctx, req, text, log)
	}
	return s.translateFree(ctx, req, text, log)
}

func (s *Service) validate(req Request, text string) error {
	if text == "" {
		return invalid(ErrEmptyText, MsgEmptyText)
	}
	if !req.Direction.Valid() {
		return invalid(fmt.Errorf("%w: %q", ErrInvalidDirection, req.Direction), MsgInvalidDirection)
	}
	if !req.Provider.Valid() {
		return invalid(fmt.Errorf("%w: %q", ErrUnsupportedProvider, req.Provider), MsgUnsupportedProvider)
	}
	if req.Provider.IsPaid() && strings.TrimSpace(req.Credential) == "" {
		return invalid(fmt.Errorf("%w for %s", ErrCredentialRequired, req.Provider), MsgCredentialRequired)
	}
	return nil
}

func (s *Service) translatePaid(ctx context.Context, req Request, text string, log *logrus.Entry) (provider.Outcome, error) {
	sourceLang, targetLang := req.Direction.Languages()
	out, err := callAdapter(ctx, s.adapters, s.config.Router.AttemptTimeout, req.Provider, text, sourceLang, targetLang, req.Credential)
	if err != nil {
		log.WithError(err).Error("Paid provider failed")
		return provider.Outcome{}, &TranslationError{
			Provider: req.Provider,
			MsgID:    MsgPaidFailed,
			MsgArgs:  []any{paidLabel(req.Provider)},
			Err:      err,
		}
	}
	log.WithField("jlpt_level", out.Level).Info("Translation completed")
	return out, nil
}

func (s *Service) translateFree(ctx context.Context, req Request, text string, log *logrus.Entry) (provider.Outcome, error) {
	out, err := s.router.RouteFree(ctx, text, req.Direction, req.Provider)
	if err == nil {
		log.Info("Translation completed")
		return out, nil
	}
	if IsValidation(err) {
		return provider.Outcome{}, err
	}

	// The last resort runs even if the router already tried it, unless the
	// caller gave up.
	if ctx.Err() == nil {
		log.WithField("last_resort", s.config.LastResort).Warn("Router exhausted, trying last resort")
		sourceLang, targetLang := req.Direction.Languages()
		out, lastErr := callAdapter(ctx, s.adapters, s.config.Router.AttemptTimeout, s.config.LastResort, text, sourceLang, targetLang, "")
		if lastErr == nil {
			log.Info("Translation completed by last resort")
			return out, nil
		}
		log.WithError(lastErr).Debug("Last resort failed")
	}

	primary := req.Provider
	var re *RouteError
	if errors.As(err, &re) && len(re.Attempted) > 0 {
		primary = re.Attempted[0]
	}

	log.WithError(err).Error("Translation failed")
	return provider.Outcome{}, &TranslationError{
		Provider: primary,
		MsgID:    MsgAllFreeUnavailable,
		Err:      err,
	}
}
