// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package generate calls the text generation service. Backends return
// typed errors so callers can branch on the failure kind instead of
// matching error strings.
package generate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/pdiddy/paper-engine/pkg/types"
)

// Generator produces text for a prompt. Implementations are safe for
// sequential use; the orchestrator never calls them concurrently.
type Generator interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// Kind classifies a generation failure.
type Kind string

const (
	// KindTransient covers network failures and 5xx responses.
	KindTransient Kind = "transient"

	// KindRateLimited is a 429/529 response that outlived the backoff.
	KindRateLimited Kind = "rate_limited"

	// KindAuth is a 401/403 response or a missing API key.
	KindAuth Kind = "auth"

	// KindRequest is any other 4xx response.
	KindRequest Kind = "request"

	// KindInvalidResponse is a body that does not decode.
	KindInvalidResponse Kind = "invalid_response"

	// KindEmpty is a well-formed response with no text.
	KindEmpty Kind = "empty"
)

// Error is the tagged failure returned by every backend.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("generation %s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("generation %s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of err, or "" when err is nil or not a
// generation error.
func KindOf(err error) Kind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return ""
}

// Retryable reports whether another attempt may succeed. Auth and request
// errors repeat identically.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindAuth, KindRequest:
		return false
	}
	return err != nil
}

// statusError maps a non-200 HTTP status to an Error.
func statusError(service string, status int, body []byte) *Error {
	detail := fmt.Sprintf("%s returned %d: %s", service, status, truncate(string(body), 300))
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &Error{Kind: KindAuth, Detail: detail}
	case status == http.StatusTooManyRequests || status == 529:
		return &Error{Kind: KindRateLimited, Detail: detail}
	case status >= 500:
		return &Error{Kind: KindTransient, Detail: detail}
	default:
		return &Error{Kind: KindRequest, Detail: detail}
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// New returns the backend selected by cfg.Backend ("claude" by default).
func New(cfg types.GenerationConfig) (Generator, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	client := &http.Client{Timeout: timeout}

	switch cfg.Backend {
	case "", "claude":
		return &ClaudeBackend{APIKey: cfg.APIKey, Model: cfg.Model, Client: client}, nil
	case "openrouter":
		return &OpenRouterBackend{APIKey: cfg.APIKey, Model: cfg.Model, Client: client, UserAgent: cfg.UserAgent}, nil
	default:
		return nil, fmt.Errorf("unknown generation backend %q (want claude or openrouter)", cfg.Backend)
	}
}
