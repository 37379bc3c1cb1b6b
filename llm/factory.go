package llm

import (
	"context"
	"fmt"
	"strings"
)

// New выбирает провайдера по имени из конфигурации.
func New(ctx context.Context, cfg Config) (Provider, error) {
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")

	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return NewOpenAIProvider(cfg), nil
	case "gemini":
		return NewGeminiProvider(ctx, cfg)
	case "anthropic", "claude":
		return NewAnthropicProvider(cfg), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.Provider)
	}
}
