// Package tokensource adapts external generative text providers to the
// engine's TokenSource interface. Provider-specific wire shapes are resolved
// here, once, into the closed types.Event union; nothing outside this package
// inspects upstream payloads.
package tokensource

import (
	"time"

	"boardroom/internal/types"
)

// Client is the provider surface the engine consumes. It matches
// types.TokenSource; the alias keeps call sites inside this package short.
type Client = types.TokenSource

// AnthropicConfig holds configuration for the Anthropic client.
type AnthropicConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// OpenAIConfig holds configuration for the OpenAI client.
type OpenAIConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// GeminiConfig holds configuration for the Gemini client.
type GeminiConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// eventBuffer is the channel depth for streamed events. Deltas arrive in
// bursts; the buffer keeps the HTTP read loop from stalling on a slow
// consumer between suspension points.
const eventBuffer = 100

// minRequestSpacing paces requests to one provider from this process.
const minRequestSpacing = 100 * time.Millisecond
