package tokensource

import (
	"fmt"

	"boardroom/internal/config"
	"boardroom/internal/logging"
)

// NewClient builds the configured provider client. Provider and key come
// from config (which already folded in the environment); model and base URL
// overrides apply when set.
func NewClient(cfg *config.Config) (Client, error) {
	llm := cfg.LLM
	if llm.Provider == "" {
		return nil, fmt.Errorf("no LLM provider configured (set llm.provider or an API key env var)")
	}
	if llm.APIKey == "" {
		return nil, fmt.Errorf("no API key configured for provider %q", llm.Provider)
	}

	logging.API("Token source: provider=%s model=%s", llm.Provider, llm.Model)

	switch llm.Provider {
	case "anthropic":
		c := DefaultAnthropicConfig(llm.APIKey)
		if llm.Model != "" {
			c.Model = llm.Model
		}
		if llm.BaseURL != "" {
			c.BaseURL = llm.BaseURL
		}
		c.Timeout = cfg.GetLLMTimeout()
		return NewAnthropicClientWithConfig(c), nil

	case "openai":
		c := DefaultOpenAIConfig(llm.APIKey)
		if llm.Model != "" {
			c.Model = llm.Model
		}
		if llm.BaseURL != "" {
			c.BaseURL = llm.BaseURL
		}
		c.Timeout = cfg.GetLLMTimeout()
		return NewOpenAIClientWithConfig(c), nil

	case "gemini":
		c := DefaultGeminiConfig(llm.APIKey)
		if llm.Model != "" {
			c.Model = llm.Model
		}
		c.Timeout = cfg.GetLLMTimeout()
		return NewGeminiClientWithConfig(c)

	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", llm.Provider)
	}
}
