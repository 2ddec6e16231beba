package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/himanshuarya/portfolio-rag/internal/domain/entities"
	"github.com/himanshuarya/portfolio-rag/internal/domain/ports"
)

// DefaultTopK is how many entries are handed to the model when unset.
const DefaultTopK = 2

// contextSeparator joins retrieved entries, best match first.
const contextSeparator = "\n\n"

// Retriever finds the knowledge entries most similar to a query.
type Retriever struct {
	embedder ports.EmbeddingService
	store    ports.VectorStore
	topK     int
}

// NewRetriever creates a Retriever with injected dependencies.
func NewRetriever(embedder ports.EmbeddingService, store ports.VectorStore, topK int) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Retriever{
		embedder: embedder,
		store:    store,
		topK:     topK,
	}
}

// Search returns the ranked top-K entries for query.
// An empty store returns no results without calling the embedder.
func (r *Retriever) Search(ctx context.Context, query string) ([]entities.ScoredEntry, error) {
	if r.store.Len() == 0 {
		return nil, nil
	}

	embedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	results, err := r.store.Search(ctx, embedding, r.topK)
	if err != nil {
		return nil, fmt.Errorf("searching vectors: %w", err)
	}
	return results, nil
}

// Retrieve returns the content of the top-K entries joined by a blank line.
func (r *Retriever) Retrieve(ctx context.Context, query string) (string, error) {
	results, err := r.Search(ctx, query)
	if err != nil {
		return "", err
	}
	return JoinContext(results), nil
}

// JoinContext concatenates result contents in rank order.
func JoinContext(results []entities.ScoredEntry) string {
	parts := make([]string, len(results))
	for i, res := range results {
		parts[i] = res.Entry.Content
	}
	return strings.Join(parts, contextSeparator)
}
