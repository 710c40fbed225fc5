package translation

import (
	"errors"
	"fmt"
	"strings"

	"codeberg.org/snonux/jembatan/internal/provider"
)

// End-user messages. They double as gettext message IDs.
const (
	MsgEmptyText           = "Silakan masukkan teks yang ingin diterjemahkan"
	MsgCredentialRequired  = "Silakan atur API key di pengaturan terlebih dahulu"
	MsgUnsupportedProvider = "Provider tidak didukung"
	MsgInvalidDirection    = "Arah terjemahan tidak valid"
	MsgAllFreeUnavailable  = "Semua layanan terjemahan gratis tidak tersedia. Silakan coba lagi nanti."
	MsgPaidFailed          = "Gagal menerjemahkan dengan %s. Periksa API key dan koneksi internet."
)

var (
	// ErrEmptyText is returned for empty or whitespace-only input
	ErrEmptyText = errors.New("text is empty")
	// ErrCredentialRequired is returned when a paid provider has no API key.
	// It is the same value adapters use, so errors.Is matches either layer.
	ErrCredentialRequired = provider.ErrCredentialRequired
	// ErrUnsupportedProvider is returned for an unknown provider ID
	ErrUnsupportedProvider = errors.New("unsupported provider")
	// ErrInvalidDirection is returned for an unknown direction
	ErrInvalidDirection = errors.New("invalid direction")
)

// ValidationError is a caller precondition violation. It is raised before
// any adapter is called and is never retried.
type ValidationError struct {
	Err     error
	MsgID   string
	MsgArgs []any
}

func (e *ValidationError) Error() string {
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Message returns the end-user message
func (e *ValidationError) Message() string {
	return sprintf(e.MsgID, e.MsgArgs)
}

// RouteError is returned by the router when every attempted free provider
// failed, or when the context ended between attempts. It unwraps to the
// primary failure and, if present, the context error.
type RouteError struct {
	// Attempted lists the providers tried, in order
	Attempted []provider.ID
	// Primary is the failure of the first attempted provider
	Primary error
	// Cause is the context error when routing was cut short
	Cause error
}

func (e *RouteError) Error() string {
	names := make([]string, len(e.Attempted))
	for i, id := range e.Attempted {
		names[i] = string(id)
	}
	tried := strings.Join(names, ", ")
	if e.Cause != nil {
		return fmt.Sprintf("translation aborted after %s: %v (primary: %v)", tried, e.Cause, e.Primary)
	}
	return fmt.Sprintf("all free providers failed (%s): %v", tried, e.Primary)
}

func (e *RouteError) Unwrap() []error {
	errs := []error{e.Primary}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// TranslationError is the final failure handed to the user. Its message is
// Indonesian; Err keeps the primary provider's detail.
type TranslationError struct {
	Provider provider.ID
	MsgID    string
	MsgArgs  []any
	Err      error
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Message(), e.Err)
}

func (e *TranslationError) Unwrap() error {
	return e.Err
}

// Message returns the end-user message without the technical detail
func (e *TranslationError) Message() string {
	return sprintf(e.MsgID, e.MsgArgs)
}

// Detail returns the primary provider's error text
func (e *TranslationError) Detail() string {
	var re *RouteError
	if errors.As(e.Err, &re) && re.Primary != nil {
		return re.Primary.Error()
	}
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

// UserMessage extracts the message ID and arguments of an error meant for
// end users. ok is false for any other error.
func UserMessage(err error) (msgID string, args []any, ok bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.MsgID, ve.MsgArgs, true
	}
	var te *TranslationError
	if errors.As(err, &te) {
		return te.MsgID, te.MsgArgs, true
	}
	return "", nil, false
}

// IsValidation reports whether err is a caller precondition violation
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func invalid(err error, msgID string, args ...any) *ValidationError {
	return &ValidationError{Err: err, MsgID: msgID, MsgArgs: args}
}

// paidLabel is the provider name used in paid failure messages
func paidLabel(id provider.ID) string {
	if id == provider.OpenAI {
		return "OpenAI"
	}
	return id.DisplayName()
}

func sprintf(format string, args []any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
