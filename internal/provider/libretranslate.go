package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
)

// LibreTranslateAdapter talks to a LibreTranslate compatible /translate
// endpoint. Argos Translate exposes the same API, so both backends share
// this type.
type LibreTranslateAdapter struct {
	id      ID
	baseURL string
	http    *httpClient
}

// NewLibreTranslateAdapter creates the adapter for the public LibreTranslate
// instance
func NewLibreTranslateAdapter(baseURL string, hc *httpClient) *LibreTranslateAdapter {
	return newLibreCompatible(LibreTranslate, baseURL, DefaultLibreTranslateURL, hc)
}

// NewArgosAdapter creates the adapter for Argos Translate
func NewArgosAdapter(baseURL string, hc *httpClient) *LibreTranslateAdapter {
	return newLibreCompatible(Argos, baseURL, DefaultArgosURL, hc)
}

func newLibreCompatible(id ID, baseURL, def string, hc *httpClient) *LibreTranslateAdapter {
	if baseURL == "" {
		baseURL = def
	}
	return &LibreTranslateAdapter{
		id:      id,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
	}
}

// libreRequest is the /translate request body
type libreRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
}

// libreResponse is the /translate response body
type libreResponse struct {
	TranslatedText string `json:"translatedText"`
}

// ID implements Adapter
func (a *LibreTranslateAdapter) ID() ID {
	return a.id
}

// Translate implements Adapter
func (a *LibreTranslateAdapter) Translate(ctx context.Context, text, sourceLang, targetLang, _ string) (Outcome, error) {
	a.http.logger.WithFields(logrus.Fields{
		"provider":    a.id,
		"source_lang": sourceLang,
		"target_lang": targetLang,
		"text_length": len(text),
	}).Debug("Translating text")

	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(&libreRequest{
		Q:      text,
		Source: sourceLang,
		Target: targetLang,
		Format: "text",
	}); err != nil {
		return Outcome{}, newFailure(a.id, 0, fmt.Errorf("encode request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/translate", buf)
	if err != nil {
		return Outcome{}, newFailure(a.id, 0, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	var resp libreResponse
	status, err := a.http.doJSON(ctx, a.id, req, &resp)
	if err != nil {
		return Outcome{}, err
	}
	if strings.TrimSpace(resp.TranslatedText) == "" {
		return Outcome{}, malformed(a.id, status, "translatedText")
	}

	a.http.logSuccess(a.id, sourceLang, targetLang)
	return NewOutcome(resp.TranslatedText), nil
}
