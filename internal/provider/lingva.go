package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
)

// LingvaAdapter talks to a Lingva Translate instance
type LingvaAdapter struct {
	baseURL string
	http    *httpClient
}

// NewLingvaAdapter creates a Lingva adapter
func NewLingvaAdapter(baseURL string, hc *httpClient) *LingvaAdapter {
	if baseURL == "" {
		baseURL = DefaultLingvaURL
	}
	return &LingvaAdapter{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

type lingvaResponse struct {
	Translation string `json:"translation"`
}

// ID implements Adapter
func (a *LingvaAdapter) ID() ID {
	return Lingva
}

// Translate implements Adapter
func (a *LingvaAdapter) Translate(ctx context.Context, text, sourceLang, targetLang, _ string) (Outcome, error) {
	a.http.logger.WithFields(logrus.Fields{
		"provider":    Lingva,
		"source_lang": sourceLang,
		"target_lang": targetLang,
		"text_length": len(text),
	}).Debug("Translating text")

	endpoint := fmt.Sprintf("%s/api/v1/%s/%s/%s",
		a.baseURL, url.PathEscape(sourceLang), url.PathEscape(targetLang), url.PathEscape(text))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Outcome{}, newFailure(Lingva, 0, fmt.Errorf("create request: %w", err))
	}

	var resp lingvaResponse
	status, err := a.http.doJSON(ctx, Lingva, req, &resp)
	if err != nil {
		return Outcome{}, err
	}
	if strings.TrimSpace(resp.Translation) == "" {
		return Outcome{}, malformed(Lingva, status, "translation")
	}

	a.http.logSuccess(Lingva, sourceLang, targetLang)
	return NewOutcome(resp.Translation), nil
}
