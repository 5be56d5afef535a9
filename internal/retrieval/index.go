// Package retrieval maintains a similarity index over previously generated
// captions, used to inject prior captions as context into new generation
// prompts.
package retrieval

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/captionlab/captioner/internal/metric"
)

// Result is one ranked match from a similarity query.
type Result struct {
	Text     string
	Metadata map[string]string
	Score    float64
}

// document is one indexed caption with its embedding.
type document struct {
	Text     string
	Metadata map[string]string
	Vector   []float32
}

// Index is a process-wide in-memory similarity index keyed by caption text.
// Identical caption text from different images collides: the later insert
// wins. That mirrors how captions were keyed upstream and is kept as is.
type Index struct {
	embedder Embedder
	metrics  *metric.Metrics

	mu   sync.RWMutex
	docs map[string]document
}

// NewIndex creates an empty index backed by the given embedder.
func NewIndex(embedder Embedder, metrics *metric.Metrics) *Index {
	return &Index{
		embedder: embedder,
		metrics:  metrics,
		docs:     make(map[string]document),
	}
}

// Add embeds the caption text and stores it with its metadata. Callers must
// not pass failed-caption text; only real captions belong in the index.
func (ix *Index) Add(ctx context.Context, text string, metadata map[string]string) error {
	if text == "" {
		return fmt.Errorf("cannot index empty caption text")
	}

	vector, err := ix.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("failed to index caption: %w", err)
	}

	if metadata == nil {
		metadata = map[string]string{}
	}

	ix.mu.Lock()
	ix.docs[text] = document{Text: text, Metadata: metadata, Vector: vector}
	ix.mu.Unlock()

	ix.metrics.RetrievalInserts.Inc()
	return nil
}

// Query returns up to k captions ranked by cosine similarity to the query
// text. No similarity threshold is applied: a weak match is still returned.
func (ix *Index) Query(ctx context.Context, text string, k int) ([]Result, error) {
	if k < 1 {
		k = 1
	}

	ix.metrics.RetrievalQueries.Inc()

	ix.mu.RLock()
	empty := len(ix.docs) == 0
	ix.mu.RUnlock()
	if empty {
		return nil, nil
	}

	queryVec, err := ix.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	ix.mu.RLock()
	results := make([]Result, 0, len(ix.docs))
	for _, doc := range ix.docs {
		results = append(results, Result{
			Text:     doc.Text,
			Metadata: doc.Metadata,
			Score:    cosineSimilarity(queryVec, doc.Vector),
		})
	}
	ix.mu.RUnlock()

	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Len returns the number of indexed captions.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.docs)
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
