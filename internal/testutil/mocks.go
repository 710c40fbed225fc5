package testutil

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"

	"codeberg.org/snonux/jembatan/internal/provider"
)

// AdapterCall records one call to a MockAdapter
type AdapterCall struct {
	Provider   provider.ID
	Text       string
	SourceLang string
	TargetLang string
	Credential string
}

// CallLog collects calls across several mock adapters, in order
type CallLog struct {
	mu    sync.Mutex
	calls []AdapterCall
}

// Add records a call
func (l *CallLog) Add(c AdapterCall) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, c)
}

// Calls returns a copy of the recorded calls
func (l *CallLog) Calls() []AdapterCall {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]AdapterCall(nil), l.calls...)
}

// Providers returns the provider of every recorded call, in order
func (l *CallLog) Providers() []provider.ID {
	calls := l.Calls()
	ids := make([]provider.ID, len(calls))
	for i, c := range calls {
		ids[i] = c.Provider
	}
	return ids
}

// MockAdapter implements provider.Adapter for testing. It returns Outcome
// or Err; with neither set it answers "<text> (<id>)".
type MockAdapter struct {
	Provider provider.ID
	Outcome  *provider.Outcome
	Err      error
	// Block makes Translate wait for the context to end
	Block bool
	Log   *CallLog
}

// ID implements provider.Adapter
func (m *MockAdapter) ID() provider.ID {
	return m.Provider
}

// Translate implements provider.Adapter
func (m *MockAdapter) Translate(ctx context.Context, text, sourceLang, targetLang, credential string) (provider.Outcome, error) {
	if m.Log != nil {
		m.Log.Add(AdapterCall{
			Provider:   m.Provider,
			Text:       text,
			SourceLang: sourceLang,
			TargetLang: targetLang,
			Credential: credential,
		})
	}

	if m.Block {
		<-ctx.Done()
		return provider.Outcome{}, &provider.Failure{Provider: m.Provider, Message: ctx.Err().Error(), Err: ctx.Err()}
	}
	if m.Err != nil {
		return provider.Outcome{}, m.Err
	}
	if m.Outcome != nil {
		return *m.Outcome, nil
	}
	return provider.NewOutcome(fmt.Sprintf("%s (%s)", text, m.Provider)), nil
}

// FailingAdapter returns a mock whose calls fail with a *provider.Failure
func FailingAdapter(id provider.ID, status int, log *CallLog) *MockAdapter {
	return &MockAdapter{
		Provider: id,
		Err:      &provider.Failure{Provider: id, StatusCode: status, Message: fmt.Sprintf("%s is down", id)},
		Log:      log,
	}
}

// NewMockRegistry returns a registry with a succeeding mock for every
// provider, then replaces the ones given in overrides
func NewMockRegistry(log *CallLog, overrides ...*MockAdapter) *provider.Registry {
	r := provider.NewEmptyRegistry()
	for _, id := range append(append([]provider.ID{}, provider.FreeIDs...), provider.PaidIDs...) {
		r.Register(&MockAdapter{Provider: id, Log: log})
	}
	for _, m := range overrides {
		if m.Log == nil {
			m.Log = log
		}
		r.Register(m)
	}
	return r
}

// MockSpeech mocks a text-to-speech provider
type MockSpeech struct {
	mu       sync.Mutex
	ProvName string
	Err      error
	AvailErr error
	Calls    []string
}

// GenerateAudio records the call and writes a fake MP3 header to outputFile
func (m *MockSpeech) GenerateAudio(ctx context.Context, text, lang, outputFile string) error {
	m.mu.Lock()
	m.Calls = append(m.Calls, fmt.Sprintf("%s: %s", lang, text))
	m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}
	return os.WriteFile(outputFile, (&TestDataGenerator{}).GenerateAudioData(), 0644)
}

// Name returns the provider name
func (m *MockSpeech) Name() string {
	if m.ProvName == "" {
		return "mock"
	}
	return m.ProvName
}

// IsAvailable returns AvailErr
func (m *MockSpeech) IsAvailable() error {
	return m.AvailErr
}

// QuietLogger returns a logger that discards its output
func QuietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// TestDataGenerator generates test data
type TestDataGenerator struct{}

// IndonesianPhrases returns short phrases used across tests
func (g *TestDataGenerator) IndonesianPhrases() []string {
	return []string{"selamat pagi", "terima kasih", "di mana stasiun?", "saya sakit", "berapa harganya?"}
}

// JapanesePhrases returns short phrases used across tests
func (g *TestDataGenerator) JapanesePhrases() []string {
	return []string{"おはようございます", "ありがとう", "駅はどこですか", "病院に行きたい"}
}

// GenerateAudioData generates mock audio data
func (g *TestDataGenerator) GenerateAudioData() []byte {
	// Simple mock MP3 header
	return []byte{0xFF, 0xFB, 0x90, 0x00, 0x00, 0x00, 0x00, 0x00}
}
