// Package vectordb provides vector store adapters.
// The knowledge base is small enough to hold in memory and scan linearly.
package vectordb

import (
	"context"
	"sort"

	"github.com/himanshuarya/portfolio-rag/internal/domain/entities"
)

// MemoryIndex is a read-only in-memory vector store.
// It is built once from a KnowledgeBase and never mutated, so it needs no locking.
type MemoryIndex struct {
	entries []entities.EmbeddedEntry
}

// NewMemoryIndex creates an index over the entries of kb. A nil kb yields an empty index.
func NewMemoryIndex(kb *entities.KnowledgeBase) *MemoryIndex {
	idx := &MemoryIndex{}
	if kb != nil {
		idx.entries = make([]entities.EmbeddedEntry, len(kb.Entries))
		copy(idx.entries, kb.Entries)
	}
	return idx
}

// Len reports the number of indexed entries.
func (s *MemoryIndex) Len() int {
	return len(s.entries)
}

// Search finds the most similar entries to a query embedding.
func (s *MemoryIndex) Search(ctx context.Context, embedding []float32, topK int) ([]entities.ScoredEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Rank(embedding, s.entries, topK), nil
}

// Rank scores every entry against query and returns at most topK by descending score.
// Entries whose similarity is undefined are left out. Ties keep insertion order.
func Rank(query []float32, entries []entities.EmbeddedEntry, topK int) []entities.ScoredEntry {
	if topK <= 0 || len(entries) == 0 {
		return nil
	}

	results := make([]entities.ScoredEntry, 0, len(entries))
	for i, e := range entries {
		score, ok := CosineSimilarity(query, e.Embedding)
		if !ok {
			continue
		}
		results = append(results, entities.ScoredEntry{Entry: e, Score: score, Index: i})
	}

	// Sort by score descending
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	// Take top K
	if len(results) > topK {
		results = results[:topK]
	}
	return results
}
