package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// maxErrorBody bounds how much of an error response we keep
const maxErrorBody = 4096

// httpClient is the transport shared by the plain HTTP adapters
type httpClient struct {
	client *http.Client
	logger *logrus.Logger
}

// doJSON executes req and decodes a 2xx JSON body into out. Every error it
// returns is a *Failure tagged with id.
func (c *httpClient) doJSON(ctx context.Context, id ID, req *http.Request, out any) (int, error) {
	req = req.WithContext(ctx)
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	startTime := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.WithError(err).WithFields(logrus.Fields{
			"provider": id,
			"host":     req.URL.Host,
		}).Error("Translation request failed")
		return 0, newFailure(id, 0, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	duration := time.Since(startTime)
	c.logger.WithFields(logrus.Fields{
		"provider":    id,
		"status_code": resp.StatusCode,
		"duration_ms": duration.Milliseconds(),
	}).Debug("Translation request completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.WithFields(logrus.Fields{
			"provider":    id,
			"status_code": resp.StatusCode,
			"response":    truncate(string(body), 200),
		}).Error("Translation request returned non-OK status")
		return resp.StatusCode, statusFailure(id, resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.logger.WithError(err).WithField("provider", id).Error("Failed to decode translation response")
		return resp.StatusCode, newFailure(id, resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}

	return resp.StatusCode, nil
}

// logSuccess logs a completed translation in the same shape for every adapter
func (c *httpClient) logSuccess(id ID, sourceLang, targetLang string) {
	c.logger.WithFields(logrus.Fields{
		"provider":    id,
		"source_lang": sourceLang,
		"target_lang": targetLang,
	}).Info("Translation completed successfully")
}
