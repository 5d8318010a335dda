package embed

import (
	"context"
	"errors"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAI embeds text through the OpenAI embeddings API.
type OpenAI struct {
	Client *openai.Client
	Model  openai.EmbeddingModel
}

// NewOpenAI reads OPENAI_API_KEY from the env.
func NewOpenAI(model string) (*OpenAI, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("missing OPENAI_API_KEY")
	}
	m := openai.EmbeddingModel(model)
	if model == "" {
		m = openai.SmallEmbedding3
	}
	return &OpenAI{Client: openai.NewClient(apiKey), Model: m}, nil
}

func (o *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := o.Client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: o.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embed: %w", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, errors.New("openai embed: empty embedding")
	}
	return resp.Data[0].Embedding, nil
}
