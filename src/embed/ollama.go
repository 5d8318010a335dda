package embed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	ollama "github.com/ollama/ollama/api"
)

const defaultOllamaEmbedModel = "nomic-embed-text"

// Ollama embeds text through a local Ollama server.
type Ollama struct {
	Client *ollama.Client
	Model  string
}

// NewOllama connects to OLLAMA_HOST (default http://localhost:11434).
func NewOllama(model string) (*Ollama, error) {
	if model == "" {
		model = defaultOllamaEmbedModel
	}
	host := os.Getenv("OLLAMA_HOST")
	if host == "" {
		host = "http://localhost:11434"
	}
	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid OLLAMA_HOST %q: %w", host, err)
	}
	client := ollama.NewClient(u, &http.Client{Timeout: 60 * time.Second})
	return &Ollama{Client: client, Model: model}, nil
}

func (o *Ollama) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := o.Client.Embed(ctx, &ollama.EmbedRequest{Model: o.Model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0]) == 0 {
		return nil, errors.New("ollama embed: empty embedding")
	}
	return resp.Embeddings[0], nil
}
