package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
)

// GoogleAdapter talks to the Cloud Translation v2 REST API
type GoogleAdapter struct {
	baseURL string
	http    *httpClient
}

// NewGoogleAdapter creates a Google Translate adapter
func NewGoogleAdapter(baseURL string, hc *httpClient) *GoogleAdapter {
	if baseURL == "" {
		baseURL = DefaultGoogleURL
	}
	return &GoogleAdapter{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

type googleRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
}

type googleResponse struct {
	Data struct {
		Translations []struct {
			TranslatedText string `json:"translatedText"`
		} `json:"translations"`
	} `json:"data"`
}

// ID implements Adapter
func (a *GoogleAdapter) ID() ID {
	return Google
}

// Translate implements Adapter. The key travels as the "key" query parameter.
func (a *GoogleAdapter) Translate(ctx context.Context, text, sourceLang, targetLang, credential string) (Outcome, error) {
	if strings.TrimSpace(credential) == "" {
		return Outcome{}, newFailure(Google, 0, ErrCredentialRequired)
	}

	a.http.logger.WithFields(logrus.Fields{
		"provider":    Google,
		"source_lang": sourceLang,
		"target_lang": targetLang,
		"text_length": len(text),
	}).Debug("Translating text")

	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(&googleRequest{
		Q:      text,
		Source: sourceLang,
		Target: targetLang,
		Format: "text",
	}); err != nil {
		return Outcome{}, newFailure(Google, 0, fmt.Errorf("encode request: %w", err))
	}

	endpoint := a.baseURL + "/language/translate/v2?key=" + url.QueryEscape(credential)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, buf)
	if err != nil {
		return Outcome{}, newFailure(Google, 0, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	var resp googleResponse
	status, err := a.http.doJSON(ctx, Google, req, &resp)
	if err != nil {
		return Outcome{}, err
	}
	if len(resp.Data.Translations) == 0 || strings.TrimSpace(resp.Data.Translations[0].TranslatedText) == "" {
		return Outcome{}, malformed(Google, status, "data.translations[0].translatedText")
	}

	a.http.logSuccess(Google, sourceLang, targetLang)
	return NewOutcome(resp.Data.Translations[0].TranslatedText), nil
}
