package provider

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
)

// chatServer answers chat completion requests with content
func chatServer(t *testing.T, content string, check func(req map[string]any)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q", got)
		}
		if check != nil {
			var req map[string]any
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("decode request: %v", err)
			}
			check(req)
		}

		resp := map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": 1700000000,
			"model":   DefaultOpenAIModel,
			"choices": []map[string]any{
				{
					"index":         0,
					"message":       map[string]any{"role": "assistant", "content": content},
					"finish_reason": "stop",
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestOpenAIAdapterStructuredReply(t *testing.T) {
	tests := []struct {
		name       string
		targetLang string
		content    string
		want       Outcome
	}{
		{
			name:       "forward json",
			targetLang: "ja",
			content:    `{"translation":"水","romaji":"mizu","jlptLevel":"N4"}`,
			want:       Outcome{TranslatedText: "水", Romaji: "mizu", Level: "N4"},
		},
		{
			name:       "reverse json",
			targetLang: "id",
			content:    `{"indonesianText":"air","romaji":"mizu","jlptLevel":"N3"}`,
			want:       Outcome{TranslatedText: "air", Romaji: "mizu", Level: "N3"},
		},
		{
			name:       "fenced json",
			targetLang: "ja",
			content:    "```json\n{\"translation\":\"猫\",\"romaji\":\"neko\",\"jlptLevel\":\"N5\"}\n```",
			want:       Outcome{TranslatedText: "猫", Romaji: "neko", Level: "N5"},
		},
		{
			name:       "unknown level",
			targetLang: "ja",
			content:    `{"translation":"経済","romaji":"keizai","jlptLevel":"N2"}`,
			want:       Outcome{TranslatedText: "経済", Romaji: "keizai", Level: "N5"},
		},
		{
			name:       "plain text degrades",
			targetLang: "ja",
			content:    "Hello",
			want:       Outcome{TranslatedText: "Hello", Romaji: "", Level: "N5"},
		},
		{
			name:       "wrong field degrades",
			targetLang: "ja",
			content:    `{"indonesianText":"air"}`,
			want:       Outcome{TranslatedText: `{"indonesianText":"air"}`, Romaji: "", Level: "N5"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := chatServer(t, tt.content, nil)
			defer srv.Close()

			a := NewOpenAIAdapter(srv.URL, "", srv.Client(), quietLogger())
			out, err := a.Translate(context.Background(), "air", "id", tt.targetLang, "sk-test")
			if err != nil {
				t.Fatalf("Translate() error = %v", err)
			}
			if out != tt.want {
				t.Errorf("Translate() = %+v, want %+v", out, tt.want)
			}
		})
	}
}

func TestOpenAIAdapterRequest(t *testing.T) {
	srv := chatServer(t, "Hello", func(req map[string]any) {
		if req["model"] != DefaultOpenAIModel {
			t.Errorf("model = %v", req["model"])
		}
		if req["max_tokens"] != float64(openAIMaxTokens) {
			t.Errorf("max_tokens = %v", req["max_tokens"])
		}
		msgs, _ := req["messages"].([]any)
		if len(msgs) != 2 {
			t.Fatalf("expected 2 messages, got %d", len(msgs))
		}
		user, _ := msgs[1].(map[string]any)
		if content, _ := user["content"].(string); content != `Terjemahkan ke bahasa Indonesia: "ありがとう"` {
			t.Errorf("user prompt = %q", content)
		}
	})
	defer srv.Close()

	a := NewOpenAIAdapter(srv.URL, "", srv.Client(), quietLogger())
	if _, err := a.Translate(context.Background(), "ありがとう", "ja", "id", "sk-test"); err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
}

func TestOpenAIAdapterFailures(t *testing.T) {
	t.Run("api error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`)
		}))
		defer srv.Close()

		_, err := NewOpenAIAdapter(srv.URL, "", srv.Client(), quietLogger()).Translate(context.Background(), "air", "id", "ja", "sk-test")
		f, ok := AsFailure(err)
		if !ok {
			t.Fatalf("expected *Failure, got %v", err)
		}
		if f.StatusCode != http.StatusUnauthorized {
			t.Errorf("StatusCode = %d, want 401", f.StatusCode)
		}
	})

	t.Run("empty reply", func(t *testing.T) {
		srv := chatServer(t, "   ", nil)
		defer srv.Close()

		_, err := NewOpenAIAdapter(srv.URL, "", srv.Client(), quietLogger()).Translate(context.Background(), "air", "id", "ja", "sk-test")
		if _, ok := AsFailure(err); !ok {
			t.Fatalf("expected *Failure, got %v", err)
		}
	})
}

func TestOpenAIAdapterIntegration(t *testing.T) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		t.Skip("OPENAI_API_KEY not set, skipping integration test")
	}

	a := NewOpenAIAdapter("", "", nil, quietLogger())
	out, err := a.Translate(context.Background(), "air", "id", "ja", apiKey)
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if out.TranslatedText == "" {
		t.Error("expected non-empty translation")
	}
}
