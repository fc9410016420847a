// services/embedding.go
package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/sashabaranov/go-openai"
)

// EmbeddingDimensions is the fixed dimensionality of prompt embeddings.
const EmbeddingDimensions = 1536

// EmbeddingProvider turns text into a fixed-dimension vector. The OpenAI
// implementation is the production provider; tests substitute a fake.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// OpenAIEmbedder calls the OpenAI embeddings API with a per-call timeout.
type OpenAIEmbedder struct {
	client  *openai.Client
	model   openai.EmbeddingModel
	timeout time.Duration
}

func NewOpenAIEmbedder() (*OpenAIEmbedder, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}

	model := openai.EmbeddingModel(os.Getenv("OPENAI_EMBEDDING_MODEL"))
	if model == "" {
		model = openai.SmallEmbedding3
		log.Println("OPENAI_EMBEDDING_MODEL not set, defaulting to text-embedding-3-small")
	}

	return &OpenAIEmbedder{
		client:  openai.NewClient(apiKey),
		model:   model,
		timeout: 10 * time.Second,
	}, nil
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      []string{text},
		Model:      e.model,
		Dimensions: EmbeddingDimensions,
	})
	if err != nil {
		log.Printf("OpenAI embeddings call failed: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrEmbeddingUnavailable)
	}
	return resp.Data[0].Embedding, nil
}
