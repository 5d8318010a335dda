// Package models implements the model-backend boundary for the conversation
// loop: each client converts chiron turns and tool specs to one provider's
// wire format and the provider's reply back into ordered content blocks.
package models

import (
	"context"
	"fmt"

	chiron "github.com/chiron-labs/go-chiron"
)

// NewProvider constructs a client for the named provider. Credentials are
// read from the environment by each constructor.
func NewProvider(ctx context.Context, provider string) (chiron.ModelClient, error) {
	switch provider {
	case "anthropic", "claude":
		return NewAnthropic(), nil
	case "openai":
		return NewOpenAI(), nil
	case "ollama":
		return NewOllama()
	case "gemini", "google":
		return NewGemini(ctx)
	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
}
