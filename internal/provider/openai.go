package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

const (
	openAITemperature = 0.3
	openAIMaxTokens   = 200
)

const toJapanesePrompt = `Kamu adalah ahli translator Indonesia-Jepang yang spesialisasi untuk pekerja migran.
Berikan terjemahan dalam format JSON dengan struktur:
{
  "translation": "terjemahan dalam hiragana/katakana/kanji",
  "romaji": "bacaan romaji",
  "jlptLevel": "N5/N4/N3"
}
Fokus pada kosakata praktis untuk kehidupan sehari-hari di Jepang.`

const toIndonesianPrompt = `Kamu adalah ahli translator Jepang-Indonesia yang spesialisasi untuk pekerja migran.
Berikan terjemahan dalam format JSON dengan struktur:
{
  "indonesianText": "terjemahan bahasa Indonesia",
  "romaji": "bacaan romaji dari teks Jepang",
  "jlptLevel": "N5/N4/N3"
}
Fokus pada terjemahan yang mudah dipahami untuk pekerja Indonesia.`

// codeFence matches a reply wrapped in a Markdown code block
var codeFence = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

// OpenAIAdapter asks a chat model for a structured translation with romaji
// and a JLPT level
type OpenAIAdapter struct {
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewOpenAIAdapter creates the AI adapter. The API key is supplied per call,
// so a client is built for every request.
func NewOpenAIAdapter(baseURL, model string, httpClient *http.Client, logger *logrus.Logger) *OpenAIAdapter {
	if baseURL == "" {
		baseURL = DefaultOpenAIURL
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &OpenAIAdapter{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: httpClient,
		logger:     logger,
	}
}

// ID implements Adapter
func (a *OpenAIAdapter) ID() ID {
	return OpenAI
}

// aiReply is the structured reply the model is asked for. Only one of
// Translation and IndonesianText is expected, depending on the target.
type aiReply struct {
	Translation    *string `json:"translation"`
	IndonesianText *string `json:"indonesianText"`
	Romaji         string  `json:"romaji"`
	JLPTLevel      string  `json:"jlptLevel"`
}

// Translate implements Adapter
func (a *OpenAIAdapter) Translate(ctx context.Context, text, sourceLang, targetLang, credential string) (Outcome, error) {
	if strings.TrimSpace(credential) == "" {
		return Outcome{}, newFailure(OpenAI, 0, ErrCredentialRequired)
	}

	toJapanese := targetLang == LangJapanese
	system, user := toIndonesianPrompt, fmt.Sprintf("Terjemahkan ke bahasa Indonesia: %q", text)
	if toJapanese {
		system, user = toJapanesePrompt, fmt.Sprintf("Terjemahkan ke bahasa Jepang: %q", text)
	}

	a.logger.WithFields(logrus.Fields{
		"provider":    OpenAI,
		"model":       a.model,
		"source_lang": sourceLang,
		"target_lang": targetLang,
		"text_length": len(text),
	}).Debug("Translating text")

	config := openai.DefaultConfig(credential)
	config.BaseURL = a.baseURL
	config.HTTPClient = a.httpClient
	client := openai.NewClientWithConfig(config)

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: openAITemperature,
		MaxTokens:   openAIMaxTokens,
	})
	if err != nil {
		status := openAIStatus(err)
		a.logger.WithError(err).WithFields(logrus.Fields{
			"provider":    OpenAI,
			"status_code": status,
		}).Error("OpenAI API error")
		return Outcome{}, newFailure(OpenAI, status, fmt.Errorf("OpenAI API error: %w", err))
	}

	if len(resp.Choices) == 0 {
		return Outcome{}, malformed(OpenAI, http.StatusOK, "choices")
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return Outcome{}, malformed(OpenAI, http.StatusOK, "message content")
	}

	out, ok := parseAIReply(content, toJapanese)
	if !ok {
		a.logger.WithFields(logrus.Fields{
			"provider": OpenAI,
			"reply":    truncate(content, 200),
		}).Warn("Reply is not structured, using raw text")
	}

	a.logger.WithFields(logrus.Fields{
		"provider":    OpenAI,
		"source_lang": sourceLang,
		"target_lang": targetLang,
		"jlpt_level":  out.Level,
	}).Info("Translation completed successfully")

	return out, nil
}

// parseAIReply decodes the structured reply. When the reply is not the
// expected JSON object it returns the raw content as translation and false.
func parseAIReply(content string, toJapanese bool) (Outcome, bool) {
	raw := NewOutcome(content)

	body := content
	if m := codeFence.FindStringSubmatch(content); m != nil {
		body = m[1]
	}

	var reply aiReply
	if err := json.Unmarshal([]byte(body), &reply); err != nil {
		return raw, false
	}

	field := reply.IndonesianText
	if toJapanese {
		field = reply.Translation
	}
	if field == nil || strings.TrimSpace(*field) == "" {
		return raw, false
	}

	return Outcome{
		TranslatedText: strings.TrimSpace(*field),
		Romaji:         strings.TrimSpace(reply.Romaji),
		Level:          NormalizeLevel(reply.JLPTLevel),
	}, true
}

// openAIStatus extracts the HTTP status from a go-openai error
func openAIStatus(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
