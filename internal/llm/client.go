// Package llm provides the text-completion capability used for URL
// prioritization, business-type detection, offering categorization and
// search-query generation.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rivalscan/rivalscan/internal/config"
)

// Client is the text-completion capability. Complete sends a prompt and
// returns the model's free-text answer, which may contain JSON wrapped in
// markdown fences; callers decode it defensively via Decode.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ErrEmptyCompletion is returned when the API answers with no choices.
var ErrEmptyCompletion = errors.New("llm: empty completion response")

// maxErrorBodyBytes caps how much of an error response body is read.
const maxErrorBodyBytes = 1 << 20 // 1 MB

// HTTPClient talks to an OpenAI-compatible chat-completions endpoint.
type HTTPClient struct {
	client *http.Client
	apiURL string
	apiKey string
	model  string
}

// NewHTTPClient creates a completion client from configuration.
func NewHTTPClient(cfg config.LLMConfig) *HTTPClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	return &HTTPClient{
		client: &http.Client{Timeout: timeout},
		apiURL: strings.TrimRight(cfg.APIURL, "/"),
		apiKey: cfg.APIKey,
		model:  cfg.Model,
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends the prompt as a single user message and returns the
// first choice's content.
func (c *HTTPClient) Complete(ctx context.Context, prompt string) (string, error) {
	if c.model == "" {
		return "", errors.New("llm: model is required")
	}

	payload, err := json.Marshal(chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("llm: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.apiURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("llm: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return "", fmt.Errorf("llm: unexpected status %s: %s",
			resp.Status, strings.TrimSpace(string(body)))
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("llm: decode response: %w", err)
	}

	if len(decoded.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	return decoded.Choices[0].Message.Content, nil
}
