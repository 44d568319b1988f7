package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"FootballNews/internal/config"
	"FootballNews/internal/ports"
)

// ChatGPTClient implements ports.Translator backed by OpenAI-compatible APIs.
type ChatGPTClient struct {
	endpoint       string
	model          string
	apiKey         string
	systemPrompt   string
	targetLanguage string
	httpClient     *http.Client
}

var _ ports.Translator = (*ChatGPTClient)(nil)

// NewChatGPTClient builds a client from configuration.
func NewChatGPTClient(cfg config.ChatGPTConfig) *ChatGPTClient {
	return &ChatGPTClient{
		endpoint:       cfg.Endpoint,
		model:          cfg.Model,
		apiKey:         cfg.APIKey,
		systemPrompt:   cfg.SystemPrompt,
		targetLanguage: cfg.TargetLanguage,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Available reports whether the client has everything it needs to call the API.
func (c *ChatGPTClient) Available() bool {
	return c != nil && c.apiKey != "" && c.endpoint != "" && c.model != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Translate sends text as a user message and returns the first completion.
// hint describes the fragment (e.g. "title" or "body") for the model.
func (c *ChatGPTClient) Translate(ctx context.Context, text, hint string) (string, error) {
	if !c.Available() {
		return "", fmt.Errorf("chatgpt client misconfigured")
	}
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: c.prompt()},
			{Role: "user", Content: userMessage(text, hint)},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chatgpt payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("translate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("chatgpt error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode chatgpt response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("chatgpt returned no choices")
	}
	translated := strings.TrimSpace(out.Choices[0].Message.Content)
	if translated == "" {
		return "", fmt.Errorf("chatgpt returned empty content")
	}
	return translated, nil
}

func (c *ChatGPTClient) prompt() string {
	prompt := strings.TrimSpace(c.systemPrompt)
	if prompt == "" {
		prompt = "You translate football news. Return only the translated text."
	}
	if c.targetLanguage != "" {
		prompt += " Target language: " + c.targetLanguage + "."
	}
	return prompt
}

func userMessage(text, hint string) string {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return text
	}
	return "[" + hint + "]\n" + text
}
