package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
)

// MyMemoryAdapter talks to the MyMemory /get endpoint
type MyMemoryAdapter struct {
	baseURL string
	http    *httpClient
}

// NewMyMemoryAdapter creates a MyMemory adapter
func NewMyMemoryAdapter(baseURL string, hc *httpClient) *MyMemoryAdapter {
	if baseURL == "" {
		baseURL = DefaultMyMemoryURL
	}
	return &MyMemoryAdapter{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

// myMemoryResponse is the subset of the /get response we read.
// responseStatus is a number on success and sometimes a string on errors.
type myMemoryResponse struct {
	ResponseData struct {
		TranslatedText string `json:"translatedText"`
	} `json:"responseData"`
	ResponseStatus  json.Number `json:"responseStatus"`
	ResponseDetails string      `json:"responseDetails"`
}

// ID implements Adapter
func (a *MyMemoryAdapter) ID() ID {
	return MyMemory
}

// Translate implements Adapter
func (a *MyMemoryAdapter) Translate(ctx context.Context, text, sourceLang, targetLang, _ string) (Outcome, error) {
	a.http.logger.WithFields(logrus.Fields{
		"provider":    MyMemory,
		"source_lang": sourceLang,
		"target_lang": targetLang,
		"text_length": len(text),
	}).Debug("Translating text")

	q := url.Values{}
	q.Set("q", text)
	q.Set("langpair", sourceLang+"|"+targetLang)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/get?"+q.Encode(), nil)
	if err != nil {
		return Outcome{}, newFailure(MyMemory, 0, fmt.Errorf("create request: %w", err))
	}

	var resp myMemoryResponse
	status, err := a.http.doJSON(ctx, MyMemory, req, &resp)
	if err != nil {
		return Outcome{}, err
	}
	if s := resp.ResponseStatus.String(); s != "" && s != "200" {
		msg := fmt.Sprintf("response status %s", s)
		if resp.ResponseDetails != "" {
			msg += ": " + truncate(resp.ResponseDetails, 200)
		}
		return Outcome{}, &Failure{Provider: MyMemory, StatusCode: status, Message: msg}
	}
	if strings.TrimSpace(resp.ResponseData.TranslatedText) == "" {
		return Outcome{}, malformed(MyMemory, status, "responseData.translatedText")
	}

	a.http.logSuccess(MyMemory, sourceLang, targetLang)
	return NewOutcome(resp.ResponseData.TranslatedText), nil
}
