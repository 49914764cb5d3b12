// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/pdiddy/paper-engine/internal/httputil"
)

// openRouterAPIURL is the OpenRouter chat completions endpoint.
// Package-level var for test substitution.
var openRouterAPIURL = "https://openrouter.ai/api/v1/chat/completions"

// DefaultOpenRouterModel is used when no model is configured.
const DefaultOpenRouterModel = "anthropic/claude-sonnet-4"

// OpenRouterBackend calls an OpenAI-compatible chat completions API.
type OpenRouterBackend struct {
	APIKey    string
	Model     string
	Client    *http.Client
	UserAgent string
}

type chatRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	Messages  []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Generate sends prompt as a single user message and returns the first
// choice's content.
func (o *OpenRouterBackend) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if o.APIKey == "" {
		return "", &Error{Kind: KindAuth, Detail: "no OpenRouter API key configured"}
	}
	model := o.Model
	if model == "" {
		model = DefaultOpenRouterModel
	}
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	bodyBytes, err := json.Marshal(chatRequest{
		Model:     model,
		MaxTokens: maxTokens,
		Messages:  []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", &Error{Kind: KindRequest, Detail: "marshaling request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, openRouterAPIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", &Error{Kind: KindRequest, Detail: "creating request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.APIKey)
	if o.UserAgent != "" {
		req.Header.Set("User-Agent", o.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, o.Client, req, 0)
	if err != nil {
		return "", &Error{Kind: KindTransient, Detail: "calling OpenRouter API", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", statusError("OpenRouter API", resp.StatusCode, body)
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", &Error{Kind: KindInvalidResponse, Detail: "decoding OpenRouter response", Err: err}
	}
	if cr.Error != nil {
		return "", &Error{Kind: KindTransient, Detail: "OpenRouter error: " + cr.Error.Message}
	}
	if len(cr.Choices) == 0 {
		return "", &Error{Kind: KindEmpty, Detail: "no choices in OpenRouter response"}
	}
	text := strings.TrimSpace(cr.Choices[0].Message.Content)
	if text == "" {
		return "", &Error{Kind: KindEmpty, Detail: "empty message in OpenRouter response"}
	}
	return text, nil
}
