package embedding

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// OpenAIEncoder uses an OpenAI-compatible embeddings endpoint through
// langchaingo.
type OpenAIEncoder struct {
	embedder   embeddings.Embedder
	dimensions int
}

func NewOpenAIEncoder(cfg Config) (*OpenAIEncoder, error) {
	token := cfg.Token
	if token == "" {
		// local OpenAI-compatible servers accept any token
		token = "none"
	}

	opts := []openai.Option{
		openai.WithToken(token),
		openai.WithEmbeddingModel(cfg.Model),
	}
	if cfg.URL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.URL))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	return &OpenAIEncoder{embedder: embedder, dimensions: cfg.Dimensions}, nil
}

func (e *OpenAIEncoder) Encode(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.embedder.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 || len(vecs[0]) == 0 {
		return nil, ErrNoTokens
	}
	return vecs[0], nil
}

func (e *OpenAIEncoder) Dimensions() int {
	return e.dimensions
}

func (e *OpenAIEncoder) Close() error {
	return nil
}
