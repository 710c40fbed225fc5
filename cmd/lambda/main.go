// Package main is the entry point for the jembatan translation Lambda.
// It accepts either a bare handler.Request or an API Gateway proxy event.
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"codeberg.org/snonux/jembatan/internal/config"
	"codeberg.org/snonux/jembatan/internal/handler"
	"codeberg.org/snonux/jembatan/internal/history"
)

func main() {
	v := viper.New()
	config.SetDefaults(v)
	v.SetEnvPrefix(config.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	logger := config.NewLogger(v.GetString("log.level"))
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load(v)
	if err != nil {
		logger.WithError(err).Fatal("Invalid configuration")
	}

	hcfg := handler.Config{
		Translator:       cfg.NewTranslationService(logger),
		DefaultDirection: cfg.Direction,
		Logger:           logger,
	}

	// Lambda has no home directory, so history is only kept when a path is
	// configured explicitly
	if os.Getenv(config.EnvPrefix+"_HISTORY_PATH") != "" {
		store, err := history.Open(cfg.HistoryPath, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to open history")
		}
		defer store.Close()
		hcfg.History = store
	}

	fn := &function{handler: handler.New(hcfg), warmer: newWarmer(logger), logger: logger}
	lambda.Start(fn.handleRequest)
}

type function struct {
	handler *handler.Handler
	warmer  *warmer
	logger  *logrus.Logger
}

func (f *function) handleRequest(ctx context.Context, event json.RawMessage) (any, error) {
	if ev, ok := parseWarmup(event); ok {
		return f.warmer.warm(ctx, ev)
	}

	if proxy, ok := isProxyEvent(event); ok {
		return f.handleProxy(ctx, proxy)
	}

	var req handler.Request
	if err := json.Unmarshal(event, &req); err != nil {
		return nil, err
	}
	return f.handler.Handle(ctx, req)
}

// isProxyEvent reports whether event came through API Gateway
func isProxyEvent(event json.RawMessage) (*events.APIGatewayProxyRequest, bool) {
	var probe struct {
		HTTPMethod string `json:"httpMethod"`
	}
	if err := json.Unmarshal(event, &probe); err != nil || probe.HTTPMethod == "" {
		return nil, false
	}

	var proxy events.APIGatewayProxyRequest
	if err := json.Unmarshal(event, &proxy); err != nil {
		return nil, false
	}
	return &proxy, true
}

func (f *function) handleProxy(ctx context.Context, proxy *events.APIGatewayProxyRequest) (*events.APIGatewayProxyResponse, error) {
	if proxy.HTTPMethod != http.MethodPost {
		return proxyResponse(http.StatusMethodNotAllowed, &handler.Response{Error: "method not allowed", Code: handler.CodeInvalidRequest})
	}

	var req handler.Request
	if err := json.Unmarshal([]byte(proxy.Body), &req); err != nil {
		return proxyResponse(http.StatusBadRequest, &handler.Response{Error: "invalid request body", Code: handler.CodeInvalidRequest})
	}

	resp, err := f.handler.Handle(ctx, req)
	if err != nil {
		return nil, err
	}

	f.logger.WithFields(logrus.Fields{
		"request_id": proxy.RequestContext.RequestID,
		"code":       resp.Code,
	}).Debug("Handled proxy request")

	return proxyResponse(resp.HTTPStatus(), resp)
}

func proxyResponse(status int, resp *handler.Response) (*events.APIGatewayProxyResponse, error) {
	body, err := json.Marshal(resp)
	if err != nil {
		return nil, err
	}
	return &events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}, nil
}
