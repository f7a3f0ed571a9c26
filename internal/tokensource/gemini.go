package tokensource

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"boardroom/internal/logging"
	"boardroom/internal/types"
)

// GeminiClient implements the token source over the Gemini API via the
// official genai SDK. The SDK stream carries no explicit start/stop framing,
// so both are synthesized around the delta sequence.
type GeminiClient struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// DefaultGeminiConfig returns sensible defaults.
func DefaultGeminiConfig(apiKey string) GeminiConfig {
	return GeminiConfig{
		APIKey:  apiKey,
		Model:   "gemini-2.5-flash",
		Timeout: 10 * time.Minute,
	}
}

// NewGeminiClient creates a new Gemini client with default config.
func NewGeminiClient(apiKey string) (*GeminiClient, error) {
	return NewGeminiClientWithConfig(DefaultGeminiConfig(apiKey))
}

// NewGeminiClientWithConfig creates a new Gemini client.
func NewGeminiClientWithConfig(config GeminiConfig) (*GeminiClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	if config.Model == "" {
		config.Model = "gemini-2.5-flash"
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Minute
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: config.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiClient{
		client:  client,
		model:   config.Model,
		timeout: config.Timeout,
	}, nil
}

// toGeminiContents maps role-tagged history onto SDK content values.
func toGeminiContents(history []types.ChatMessage) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history))
	for _, m := range history {
		var role genai.Role = genai.RoleUser
		if m.Role == types.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}
	return contents
}

func (c *GeminiClient) generateConfig(system string, temperature float32) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(temperature),
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	return cfg
}

// Complete sends a prompt and returns the full completion.
func (c *GeminiClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	startTime := time.Now()
	logging.APIDebug("[Gemini] Complete: model=%s system_len=%d prompt_len=%d", c.model, len(system), len(prompt))

	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, c.generateConfig(system, 0.1))
	if err != nil {
		logging.APIError("[Gemini] Complete: request failed: %v", err)
		return "", fmt.Errorf("request failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("no completion returned")
	}

	logging.API("[Gemini] Complete: finished in %v response_len=%d", time.Since(startTime), len(text))
	return text, nil
}

// StreamMessage streams a response to the given history.
func (c *GeminiClient) StreamMessage(ctx context.Context, system string, history []types.ChatMessage) (<-chan types.Event, <-chan error) {
	eventChan := make(chan types.Event, eventBuffer)
	errorChan := make(chan error, 1)

	logging.APIDebug("[Gemini] StreamMessage: model=%s history_len=%d", c.model, len(history))

	go func() {
		defer close(eventChan)
		defer close(errorChan)

		if _, hasDeadline := ctx.Deadline(); !hasDeadline {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}

		startTime := time.Now()
		started := false

		for resp, err := range c.client.Models.GenerateContentStream(ctx, c.model, toGeminiContents(history), c.generateConfig(system, 0.7)) {
			if err != nil {
				logging.APIError("[Gemini] StreamMessage: stream error after %v: %v", time.Since(startTime), err)
				errorChan <- fmt.Errorf("stream error: %w", err)
				return
			}

			if !started {
				started = true
				var id string
				if resp != nil {
					id = resp.ResponseID
				}
				select {
				case eventChan <- types.Event{Kind: types.EventMessageStart, MessageID: id}:
				case <-ctx.Done():
					return
				}
			}

			text := resp.Text()
			if text == "" {
				continue
			}
			select {
			case eventChan <- types.Event{Kind: types.EventContentDelta, Text: text}:
			case <-ctx.Done():
				return
			}
		}

		select {
		case eventChan <- types.Event{Kind: types.EventMessageStop}:
		case <-ctx.Done():
			return
		}
		logging.API("[Gemini] StreamMessage: completed in %v", time.Since(startTime))
	}()

	return eventChan, errorChan
}

// SetModel changes the model used for completions.
func (c *GeminiClient) SetModel(model string) {
	c.model = model
}

// GetModel returns the current model.
func (c *GeminiClient) GetModel() string {
	return c.model
}
