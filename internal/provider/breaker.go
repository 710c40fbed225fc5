package provider

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// BreakerConfig controls the per-provider circuit breaker
type BreakerConfig struct {
	Enabled bool
	// MaxFailures is the number of consecutive failures that opens the breaker
	MaxFailures uint32
	// OpenTimeout is how long the breaker stays open before probing again
	OpenTimeout time.Duration
}

// DefaultBreakerConfig returns the breaker settings used when none are configured
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Enabled:     true,
		MaxFailures: 5,
		OpenTimeout: 60 * time.Second,
	}
}

// breakerAdapter guards an Adapter with a circuit breaker
type breakerAdapter struct {
	next Adapter
	cb   *gobreaker.CircuitBreaker
}

// WithBreaker wraps a so that repeated failures make it fail fast. A call
// rejected by an open breaker returns a *Failure, so routing moves on as for
// any other provider failure. Context cancellation, missing credentials and
// client errors (4xx other than 408 and 429) are not counted against the
// provider.
func WithBreaker(a Adapter, cfg BreakerConfig, logger *logrus.Logger) Adapter {
	if logger == nil {
		logger = logrus.New()
	}
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = DefaultBreakerConfig().MaxFailures
	}

	settings := gobreaker.Settings{
		Name:        string(a.ID()),
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, context.Canceled) ||
				errors.Is(err, context.DeadlineExceeded) ||
				errors.Is(err, ErrCredentialRequired) ||
				isClientError(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"provider": name,
				"from":     from.String(),
				"to":       to.String(),
			}).Warn("Circuit breaker state changed")
		},
	}

	return &breakerAdapter{next: a, cb: gobreaker.NewCircuitBreaker(settings)}
}

// ID implements Adapter
func (b *breakerAdapter) ID() ID {
	return b.next.ID()
}

// Translate implements Adapter
func (b *breakerAdapter) Translate(ctx context.Context, text, sourceLang, targetLang, credential string) (Outcome, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Translate(ctx, text, sourceLang, targetLang, credential)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return Outcome{}, newFailure(b.next.ID(), 0, err)
		}
		return Outcome{}, err
	}
	return res.(Outcome), nil
}

// State returns the breaker state of a wrapped adapter, or "" when a has
// no breaker
func State(a Adapter) string {
	if b, ok := a.(*breakerAdapter); ok {
		return b.cb.State().String()
	}
	return ""
}

// isClientError reports a 4xx answer caused by the request itself
func isClientError(err error) bool {
	f, ok := AsFailure(err)
	if !ok {
		return false
	}
	switch f.StatusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return false
	}
	return f.StatusCode >= 400 && f.StatusCode < 500
}
