package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// ErrEmptyEmbedding is returned when the API responds without vectors.
var ErrEmptyEmbedding = errors.New("empty embedding response")

// Config configures the OpenAI embedder.
type Config struct {
	// Model is the embedding model (default: text-embedding-3-small).
	Model openai.EmbeddingModel

	// Dimensions is the embedding vector size (default: 1536).
	// text-embedding-3 models honor smaller values.
	Dimensions int
}

// Embedder generates embeddings with the OpenAI embeddings API.
type Embedder struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
}

// New creates an embedder over an existing client.
func New(client *openai.Client, cfg Config) *Embedder {
	if cfg.Model == "" {
		cfg.Model = openai.SmallEmbedding3
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = 1536
	}
	return &Embedder{
		client:     client,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}
}

// Embed converts text to embedding vector.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      []string{text},
		Model:      e.model,
		Dimensions: e.dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, ErrEmptyEmbedding
	}
	return resp.Data[0].Embedding, nil
}

// Dimensions returns embedding vector size.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}
