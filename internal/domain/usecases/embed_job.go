// Package usecases contains application business rules.
// Usecases orchestrate entities and depend only on port interfaces.
package usecases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/himanshuarya/portfolio-rag/internal/domain/entities"
	"github.com/himanshuarya/portfolio-rag/internal/domain/ports"
)

// EmbedJob turns the knowledge collection into the persisted KnowledgeBase.
// It is all-or-nothing: the artifact is only written after every entry embedded.
type EmbedJob struct {
	loader   ports.KnowledgeLoader
	embedder ports.EmbeddingService
	store    ports.ArtifactStore
	source   string
	now      func() time.Time
}

// NewEmbedJob creates an EmbedJob reading entries from source.
func NewEmbedJob(
	loader ports.KnowledgeLoader,
	embedder ports.EmbeddingService,
	store ports.ArtifactStore,
	source string,
) *EmbedJob {
	return &EmbedJob{
		loader:   loader,
		embedder: embedder,
		store:    store,
		source:   source,
		now:      time.Now,
	}
}

// Run loads, embeds and saves the knowledge collection.
func (j *EmbedJob) Run(ctx context.Context) (*entities.KnowledgeBase, error) {
	entries, err := j.loader.Load(ctx, j.source)
	if err != nil {
		return nil, fmt.Errorf("loading knowledge: %w", err)
	}

	texts := make([]string, len(entries))
	for i, entry := range entries {
		if strings.TrimSpace(entry.Content) == "" {
			return nil, fmt.Errorf("entry %d (%q) has empty content", i, entry.Title)
		}
		texts[i] = entry.Content
	}

	var vectors [][]float32
	if len(texts) > 0 {
		vectors, err = j.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embedding knowledge: %w", err)
		}
		if len(vectors) != len(entries) {
			return nil, fmt.Errorf("embedding knowledge: got %d vectors for %d entries", len(vectors), len(entries))
		}
	}

	kb := &entities.KnowledgeBase{
		Version:   entities.ArtifactVersion,
		Model:     j.embedder.Model(),
		CreatedAt: j.now().UTC(),
		Entries:   make([]entities.EmbeddedEntry, len(entries)),
	}
	for i, entry := range entries {
		if len(vectors[i]) == 0 {
			return nil, fmt.Errorf("entry %d (%q): empty embedding", i, entry.Title)
		}
		if kb.Dimensions == 0 {
			kb.Dimensions = len(vectors[i])
		} else if len(vectors[i]) != kb.Dimensions {
			return nil, fmt.Errorf("entry %d (%q): embedding has %d dimensions, want %d",
				i, entry.Title, len(vectors[i]), kb.Dimensions)
		}
		kb.Entries[i] = entities.EmbeddedEntry{KnowledgeEntry: entry, Embedding: vectors[i]}
	}

	if err := j.store.Save(ctx, kb); err != nil {
		return nil, fmt.Errorf("saving knowledge base: %w", err)
	}
	return kb, nil
}
