package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
)

// DeepLAdapter talks to the DeepL v2 API. DeepL wants upper-case language
// codes, converted here only.
type DeepLAdapter struct {
	baseURL string
	http    *httpClient
}

// NewDeepLAdapter creates a DeepL adapter
func NewDeepLAdapter(baseURL string, hc *httpClient) *DeepLAdapter {
	if baseURL == "" {
		baseURL = DefaultDeepLURL
	}
	return &DeepLAdapter{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

type deeplResponse struct {
	Translations []struct {
		DetectedSourceLanguage string `json:"detected_source_language"`
		Text                   string `json:"text"`
	} `json:"translations"`
}

// ID implements Adapter
func (a *DeepLAdapter) ID() ID {
	return DeepL
}

// Translate implements Adapter
func (a *DeepLAdapter) Translate(ctx context.Context, text, sourceLang, targetLang, credential string) (Outcome, error) {
	if strings.TrimSpace(credential) == "" {
		return Outcome{}, newFailure(DeepL, 0, ErrCredentialRequired)
	}

	a.http.logger.WithFields(logrus.Fields{
		"provider":    DeepL,
		"source_lang": sourceLang,
		"target_lang": targetLang,
		"text_length": len(text),
	}).Debug("Translating text")

	form := url.Values{}
	form.Set("text", text)
	form.Set("source_lang", strings.ToUpper(sourceLang))
	form.Set("target_lang", strings.ToUpper(targetLang))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v2/translate", strings.NewReader(form.Encode()))
	if err != nil {
		return Outcome{}, newFailure(DeepL, 0, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "DeepL-Auth-Key "+credential)

	var resp deeplResponse
	status, err := a.http.doJSON(ctx, DeepL, req, &resp)
	if err != nil {
		return Outcome{}, err
	}
	if len(resp.Translations) == 0 || strings.TrimSpace(resp.Translations[0].Text) == "" {
		return Outcome{}, malformed(DeepL, status, "translations[0].text")
	}

	a.http.logSuccess(DeepL, sourceLang, targetLang)
	return NewOutcome(resp.Translations[0].Text), nil
}
