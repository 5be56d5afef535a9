package retrieval

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const (
	embedCacheExpiration = 30 * time.Minute
	embedCacheCleanup    = 1 * time.Hour
)

// Embedder generates vector embeddings from text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	ModelName() string
}

// EmbeddingsClient is the slice of the OpenAI client the embedder needs.
type EmbeddingsClient interface {
	Embeddings(ctx context.Context, model string, texts []string) ([][]float32, error)
}

// OpenAIEmbedder embeds text through the OpenAI embeddings endpoint.
// Results are memoized in a TTL cache keyed by the exact input text, so
// re-indexing or re-querying identical caption text costs no API call.
type OpenAIEmbedder struct {
	client EmbeddingsClient
	model  string
	cache  *gocache.Cache
}

// NewOpenAIEmbedder creates an embedder for the given model.
func NewOpenAIEmbedder(client EmbeddingsClient, model string) *OpenAIEmbedder {
	return &OpenAIEmbedder{
		client: client,
		model:  model,
		cache:  gocache.New(embedCacheExpiration, embedCacheCleanup),
	}
}

// ModelName returns the embedding model identifier.
func (e *OpenAIEmbedder) ModelName() string {
	return e.model
}

// Embed generates an embedding vector for the given text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if cached, ok := e.cache.Get(text); ok {
		return cached.([]float32), nil
	}

	vectors, err := e.client.Embeddings(ctx, e.model, []string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to embed text: %w", err)
	}

	e.cache.Set(text, vectors[0], gocache.DefaultExpiration)
	return vectors[0], nil
}

// EmbedBatch generates embeddings for multiple texts, consulting the cache
// per text and sending only the misses in one request.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int

	for i, text := range texts {
		if cached, ok := e.cache.Get(text); ok {
			result[i] = cached.([]float32)
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) == 0 {
		return result, nil
	}

	vectors, err := e.client.Embeddings(ctx, e.model, missing)
	if err != nil {
		return nil, fmt.Errorf("failed to embed batch: %w", err)
	}

	for j, vec := range vectors {
		result[missingIdx[j]] = vec
		e.cache.Set(missing[j], vec, gocache.DefaultExpiration)
	}
	return result, nil
}
