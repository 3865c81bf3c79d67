// Package llm provides model provider client implementations.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// LevelTrace is below Debug, used for wire-level payload logging.
const LevelTrace = slog.Level(-8)

// Request is a provider-neutral generation request.
type Request struct {
	Model       string
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Response is the unified response from any provider. Wire format
// conversion happens at provider boundaries (gemini.go, openrouter.go).
type Response struct {
	Model        string
	Text         string
	InputTokens  int
	OutputTokens int
	Duration     time.Duration
}

// Client is the interface all model providers implement.
type Client interface {
	// Generate sends a single-turn completion request.
	Generate(ctx context.Context, req Request) (*Response, error)

	// Ping checks if the provider is reachable with the configured
	// credentials.
	Ping(ctx context.Context) error
}

// APIError is a non-2xx answer from a provider API.
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error %d: %s", e.Provider, e.StatusCode, e.Body)
}
