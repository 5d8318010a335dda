// Package embed provides pluggable text-embedding providers for the vector
// stores.
package embed

import (
	"context"
	"os"
	"strings"
)

// Embedder turns text into a fixed-dimension vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Dummy is a deterministic embedder for tests and offline runs.
type Dummy struct{}

func (Dummy) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, 768)
	for i, ch := range []byte(text) {
		vec[i%768] += float32(ch) / 255.0
	}
	return vec, nil
}

// FromEnv chooses a provider from CHIRON_EMBED_PROVIDER and
// CHIRON_EMBED_MODEL, inferring from available credentials when unset, and
// falling back to the dummy embedder.
func FromEnv() Embedder {
	provider := strings.ToLower(strings.TrimSpace(os.Getenv("CHIRON_EMBED_PROVIDER")))
	model := strings.TrimSpace(os.Getenv("CHIRON_EMBED_MODEL"))

	switch provider {
	case "openai":
		if e, err := NewOpenAI(model); err == nil {
			return e
		}
	case "ollama":
		if e, err := NewOllama(model); err == nil {
			return e
		}
	case "dummy", "":
		// fall through to inference
	}

	if os.Getenv("OPENAI_API_KEY") != "" {
		if e, err := NewOpenAI(model); err == nil {
			return e
		}
	}
	if os.Getenv("OLLAMA_HOST") != "" {
		if e, err := NewOllama(model); err == nil {
			return e
		}
	}
	return Dummy{}
}
