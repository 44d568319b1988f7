package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"FootballNews/internal/config"
)

func TestTranslate(t *testing.T) {
	t.Parallel()

	var got chatRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  Динамо переграло Шахтар  "}}]}`))
	}))
	defer srv.Close()

	client := NewChatGPTClient(config.ChatGPTConfig{
		Endpoint:       srv.URL,
		Model:          "test-model",
		APIKey:         "secret",
		TargetLanguage: "Ukrainian",
	})
	if !client.Available() {
		t.Fatalf("client should be available")
	}

	out, err := client.Translate(context.Background(), "Dynamo beat Shakhtar", "title")
	if err != nil {
		t.Fatalf("Translate error: %v", err)
	}
	if out != "Динамо переграло Шахтар" {
		t.Fatalf("unexpected translation: %q", out)
	}
	if auth != "Bearer secret" || got.Model != "test-model" || len(got.Messages) != 2 {
		t.Fatalf("unexpected request: %s %+v", auth, got)
	}
	if !strings.Contains(got.Messages[0].Content, "Ukrainian") {
		t.Fatalf("target language missing from prompt: %q", got.Messages[0].Content)
	}
	if got.Messages[1].Content != "[title]\nDynamo beat Shakhtar" {
		t.Fatalf("unexpected user message: %q", got.Messages[1].Content)
	}
}

func TestTranslateErrors(t *testing.T) {
	t.Parallel()

	if (&ChatGPTClient{}).Available() {
		t.Fatalf("empty client should not be available")
	}
	if _, err := NewChatGPTClient(config.ChatGPTConfig{}).Translate(context.Background(), "x", ""); err == nil {
		t.Fatalf("expected misconfiguration error")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewChatGPTClient(config.ChatGPTConfig{Endpoint: srv.URL, Model: "m", APIKey: "k"})
	if _, err := client.Translate(context.Background(), "text", "body"); err == nil {
		t.Fatalf("expected status error")
	}
}
