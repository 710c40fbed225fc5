package translation

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"codeberg.org/snonux/jembatan/internal/provider"
)

var (
	// One sample per adapter call
	providerRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jembatan_provider_requests_total",
			Help: "Total number of calls to translation providers",
		},
		[]string{"provider", "status"},
	)

	providerRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jembatan_provider_request_duration_seconds",
			Help:    "Duration of calls to translation providers in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
		},
		[]string{"provider", "status"},
	)

	fallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jembatan_fallbacks_total",
			Help: "Total number of fallback attempts after a provider failure",
		},
		[]string{"from", "to"},
	)

	// One sample per facade call
	translationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jembatan_translations_total",
			Help: "Total number of translation requests",
		},
		[]string{"direction", "status"},
	)

	translationTextSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jembatan_translation_text_size_bytes",
			Help:    "Size of translation input text in bytes",
			Buckets: []float64{10, 50, 100, 250, 500, 1000, 5000},
		},
		[]string{"direction"},
	)
)

func recordProviderCall(id provider.ID, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	providerRequestsTotal.WithLabelValues(string(id), status).Inc()
	providerRequestDuration.WithLabelValues(string(id), status).Observe(duration.Seconds())
}

func recordFallback(from, to provider.ID) {
	fallbacksTotal.WithLabelValues(string(from), string(to)).Inc()
}

func recordTranslation(dir provider.Direction, textSize int, err error) {
	status := "success"
	switch {
	case err == nil:
	case IsValidation(err):
		status = "invalid"
	default:
		status = "error"
	}
	translationsTotal.WithLabelValues(string(dir), status).Inc()
	if status != "invalid" {
		translationTextSize.WithLabelValues(string(dir)).Observe(float64(textSize))
	}
}
