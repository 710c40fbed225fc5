package translation

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"codeberg.org/snonux/jembatan/internal/provider"
)

// maxRouteAttempts bounds a routed request to three sequential calls
const maxRouteAttempts = 3

// Adapters looks up the adapter for a provider. *provider.Registry
// implements it.
type Adapters interface {
	Get(id provider.ID) (provider.Adapter, bool)
}

// RouterConfig holds the fixed fallback chain of the free router
type RouterConfig struct {
	// Fallbacks are tried in order after the preferred provider fails.
	// Only the first two entries are used.
	Fallbacks []provider.ID
	// AutoPreferred is the provider tried first in auto mode
	AutoPreferred provider.ID
	// AttemptTimeout limits each single provider call. Zero means no limit.
	AttemptTimeout time.Duration
}

// DefaultRouterConfig returns the standard chain: the preferred provider,
// then MyMemory, then Lingva. Auto mode starts with LibreTranslate.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		Fallbacks:     []provider.ID{provider.MyMemory, provider.Lingva},
		AutoPreferred: provider.LibreTranslate,
	}
}

// Router picks among free adapters and falls back along a fixed chain
type Router struct {
	adapters Adapters
	config   RouterConfig
	logger   *logrus.Logger
}

// NewRouter creates a router. Non-free entries in config.Fallbacks are
// ignored.
func NewRouter(adapters Adapters, config RouterConfig, logger *logrus.Logger) *Router {
	if logger == nil {
		logger = logrus.New()
	}
	if config.AutoPreferred == "" || !config.AutoPreferred.IsFree() {
		config.AutoPreferred = provider.LibreTranslate
	}

	fallbacks := make([]provider.ID, 0, len(config.Fallbacks))
	for _, id := range config.Fallbacks {
		if id.IsFree() {
			fallbacks = append(fallbacks, id)
		}
	}
	config.Fallbacks = fallbacks

	return &Router{adapters: adapters, config: config, logger: logger}
}

// Chain returns the providers RouteFree tries for preferred, in order
func (r *Router) Chain(preferred provider.ID) []provider.ID {
	if preferred.IsAuto() {
		preferred = r.config.AutoPreferred
	}

	chain := []provider.ID{preferred}
	for _, id := range r.config.Fallbacks {
		if len(chain) == maxRouteAttempts {
			break
		}
		if !contains(chain, id) {
			chain = append(chain, id)
		}
	}
	return chain
}

// RouteFree translates text with preferred and falls back along the fixed
// chain. It fails only when every attempt failed, with a *RouteError that
// carries the first provider's failure. A cancelled ctx stops the remaining
// attempts.
func (r *Router) RouteFree(ctx context.Context, text string, dir provider.Direction, preferred provider.ID) (provider.Outcome, error) {
	if !preferred.IsFree() && !preferred.IsAuto() {
		return provider.Outcome{}, invalid(
			fmt.Errorf("%w: %s is not a free provider", ErrUnsupportedProvider, preferred),
			MsgUnsupportedProvider)
	}
	if !dir.Valid() {
		return provider.Outcome{}, invalid(fmt.Errorf("%w: %q", ErrInvalidDirection, dir), MsgInvalidDirection)
	}

	sourceLang, targetLang := dir.Languages()
	chain := r.Chain(preferred)
	routeErr := &RouteError{}

	for i, id := range chain {
		if err := ctx.Err(); err != nil {
			if routeErr.Primary == nil {
				return provider.Outcome{}, err
			}
			routeErr.Cause = err
			return provider.Outcome{}, routeErr
		}

		if i > 0 {
			recordFallback(chain[i-1], id)
			r.logger.WithFields(logrus.Fields{
				"from":    chain[i-1],
				"to":      id,
				"attempt": i + 1,
			}).Warn("Provider failed, trying fallback")
		}

		routeErr.Attempted = append(routeErr.Attempted, id)
		out, err := r.attempt(ctx, id, text, sourceLang, targetLang)
		if err == nil {
			return out, nil
		}
		if routeErr.Primary == nil {
			routeErr.Primary = err
		}
	}

	r.logger.WithFields(logrus.Fields{
		"attempted": routeErr.Attempted,
		"direction": dir,
	}).WithError(routeErr.Primary).Error("All free providers failed")

	return provider.Outcome{}, routeErr
}

// attempt makes one adapter call, applying the per-attempt timeout
func (r *Router) attempt(ctx context.Context, id provider.ID, text, sourceLang, targetLang string) (provider.Outcome, error) {
	return callAdapter(ctx, r.adapters, r.config.AttemptTimeout, id, text, sourceLang, targetLang, "")
}

// callAdapter looks up id and calls it once. A missing adapter is reported
// as a provider failure so that routing treats it like any other.
func callAdapter(ctx context.Context, adapters Adapters, timeout time.Duration, id provider.ID, text, sourceLang, targetLang, credential string) (provider.Outcome, error) {
	a, ok := adapters.Get(id)
	if !ok {
		return provider.Outcome{}, &provider.Failure{Provider: id, Message: "no adapter registered"}
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := a.Translate(ctx, text, sourceLang, targetLang, credential)
	recordProviderCall(id, time.Since(start), err)
	return out, err
}

func contains(ids []provider.ID, id provider.ID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
