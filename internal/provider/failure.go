package provider

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

var (
	// ErrCredentialRequired is returned by paid adapters called without a key
	ErrCredentialRequired = errors.New("API key is required")
	// ErrMalformedResponse marks a 2xx response without the expected field
	ErrMalformedResponse = errors.New("malformed response")
)

// Failure is the error every adapter returns
type Failure struct {
	Provider ID
	// StatusCode is the upstream HTTP status, 0 when no response arrived
	StatusCode int
	Message    string
	Err        error
}

func (f *Failure) Error() string {
	if f.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (status %d)", f.Provider, f.Message, f.StatusCode)
	}
	return fmt.Sprintf("%s: %s", f.Provider, f.Message)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// newFailure builds a Failure whose message is err's text
func newFailure(id ID, status int, err error) *Failure {
	return &Failure{Provider: id, StatusCode: status, Message: err.Error(), Err: err}
}

// statusFailure reports a non-2xx response, keeping a trimmed body
func statusFailure(id ID, status int, body []byte) *Failure {
	msg := fmt.Sprintf("unexpected status %d", status)
	if b := truncate(string(body), 200); b != "" {
		msg += ": " + b
	}
	return &Failure{Provider: id, StatusCode: status, Message: msg}
}

// malformed reports a 2xx response that lacks the field we need
func malformed(id ID, status int, field string) *Failure {
	return &Failure{
		Provider:   id,
		StatusCode: status,
		Message:    fmt.Sprintf("response has no %s", field),
		Err:        ErrMalformedResponse,
	}
}

// AsFailure extracts the *Failure from err, if any
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// truncate cuts s to at most maxLen bytes without splitting a rune
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
