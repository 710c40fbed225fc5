// Package handler turns a JSON translation request into a facade call. The
// same Handle serves the Lambda entry point and the HTTP API.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"codeberg.org/snonux/jembatan/internal/history"
	"codeberg.org/snonux/jembatan/internal/provider"
	"codeberg.org/snonux/jembatan/internal/settings"
	"codeberg.org/snonux/jembatan/internal/translation"
)

// Error codes carried in Response.Code
const (
	CodeInvalidRequest    = "invalid_request"
	CodeTranslationFailed = "translation_failed"
	CodeInternal          = "internal"
)

// Request is the input of one translation
type Request struct {
	Text      string `json:"text"`
	Direction string `json:"direction,omitempty"`
	Provider  string `json:"provider,omitempty"`
	APIKey    string `json:"apiKey,omitempty"`
	UserID    string `json:"userId,omitempty"`
	UserEmail string `json:"userEmail,omitempty"`
	Save      bool   `json:"save,omitempty"`
}

// Response is the output of one translation. Exactly one of Japanese,
// Indonesian and Error is set.
type Response struct {
	Japanese   *translation.JapaneseResult   `json:"japanese,omitempty"`
	Indonesian *translation.IndonesianResult `json:"indonesian,omitempty"`
	Direction  provider.Direction            `json:"direction,omitempty"`
	Provider   provider.ID                   `json:"provider,omitempty"`

	HistoryID string `json:"historyId,omitempty"`
	Message   string `json:"message,omitempty"`
	SaveError string `json:"saveError,omitempty"`

	Error  string `json:"error,omitempty"`
	Detail string `json:"detail,omitempty"`
	Code   string `json:"code,omitempty"`

	err error
}

// Err returns the failure behind Error, nil on success
func (r *Response) Err() error {
	return r.err
}

// HTTPStatus maps Code onto an HTTP status: 400 for invalid requests, 502
// when every provider failed
func (r *Response) HTTPStatus() int {
	switch r.Code {
	case "":
		return http.StatusOK
	case CodeInvalidRequest:
		return http.StatusBadRequest
	case CodeTranslationFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Translator is the translation facade
type Translator interface {
	Translate(ctx context.Context, req translation.Request) (provider.Outcome, error)
}

// HistorySaver persists finished translations
type HistorySaver interface {
	Save(ctx context.Context, e *history.Entry) error
}

// Config wires a Handler. Settings and History are optional.
type Config struct {
	Translator Translator
	// Settings supplies the provider and API keys when a request names none
	Settings settings.Store
	History  HistorySaver
	// DefaultDirection applies to requests without a direction
	DefaultDirection provider.Direction
	Logger           *logrus.Logger
}

// Handler serves translation requests
type Handler struct {
	config Config
	logger *logrus.Logger
}

// New creates a Handler
func New(config Config) *Handler {
	if config.Logger == nil {
		config.Logger = logrus.New()
	}
	if !config.DefaultDirection.Valid() {
		config.DefaultDirection = provider.IDToJP
	}
	return &Handler{config: config, logger: config.Logger}
}

// Handle processes a translation request. Failures are reported in the
// Response; the returned error is always nil.
func (h *Handler) Handle(ctx context.Context, req Request) (*Response, error) {
	treq, err := h.resolve(req)
	if err != nil {
		return &Response{Error: err.Error(), Code: CodeInvalidRequest, err: err}, nil
	}

	out, err := h.config.Translator.Translate(ctx, treq)
	if err != nil {
		return errorResponse(err), nil
	}

	resp := &Response{Direction: treq.Direction, Provider: treq.Provider}
	if treq.Direction == provider.IDToJP {
		resp.Japanese = translation.NewJapaneseResult(out)
	} else {
		resp.Indonesian = translation.NewIndonesianResult(out)
	}

	if req.Save {
		h.save(ctx, req, treq, out, resp)
	}
	return resp, nil
}

// resolve fills in direction, provider and credential
func (h *Handler) resolve(req Request) (translation.Request, error) {
	dir := h.config.DefaultDirection
	if strings.TrimSpace(req.Direction) != "" {
		d, err := provider.ParseDirection(req.Direction)
		if err != nil {
			return translation.Request{}, errors.New(translation.MsgInvalidDirection)
		}
		dir = d
	}

	treq := translation.Request{Text: req.Text, Direction: dir, Credential: req.APIKey}

	if strings.TrimSpace(req.Provider) == "" {
		treq.Provider = settings.DefaultProvider
		if h.config.Settings != nil {
			active := settings.NewResolver(h.config.Settings).ResolveActiveProvider()
			treq.Provider = active.Provider
			if treq.Credential == "" {
				treq.Credential = active.Credential
			}
		}
		return treq, nil
	}

	id, err := provider.ParseID(req.Provider)
	if err != nil {
		return translation.Request{}, errors.New(translation.MsgUnsupportedProvider)
	}
	treq.Provider = id
	if treq.Credential == "" && id.IsPaid() && h.config.Settings != nil {
		treq.Credential = settings.Load(h.config.Settings).APIKeys[id]
	}
	return treq, nil
}

func (h *Handler) save(ctx context.Context, req Request, treq translation.Request, out provider.Outcome, resp *Response) {
	var user *history.User
	if req.UserID != "" {
		user = &history.User{ID: req.UserID, Email: req.UserEmail}
	}

	entry, err := history.NewEntry(user, translation.NormalizeText(req.Text), treq.Direction, treq.Provider, out)
	if errors.Is(err, history.ErrLoginRequired) {
		resp.SaveError = history.MsgLoginRequired
		return
	}
	if err == nil && h.config.History == nil {
		err = errors.New("history is not configured")
	}
	if err == nil {
		err = h.config.History.Save(ctx, entry)
	}
	if err != nil {
		h.logger.WithError(err).WithField("user_id", req.UserID).Error("Failed to save history")
		resp.SaveError = history.MsgSaveFailed
		return
	}

	resp.HistoryID = entry.ID
	resp.Message = history.MsgSaved
}

func errorResponse(err error) *Response {
	var ve *translation.ValidationError
	var te *translation.TranslationError
	switch {
	case errors.As(err, &ve):
		return &Response{Error: ve.Message(), Code: CodeInvalidRequest, err: err}
	case errors.As(err, &te):
		return &Response{
			Error:    te.Message(),
			Detail:   te.Detail(),
			Provider: te.Provider,
			Code:     CodeTranslationFailed,
			err:      err,
		}
	default:
		return &Response{Error: err.Error(), Code: CodeInternal, err: err}
	}
}
