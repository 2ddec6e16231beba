// Package ports defines interfaces for external dependencies.
// Usecases depend on these abstractions; adapters implement them.
package ports

import (
	"context"

	"github.com/himanshuarya/portfolio-rag/internal/domain/entities"
)

// EmbeddingService generates vector embeddings for text.
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch embeds texts one request at a time, in order, and stops at the first failure.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Model names the embedding model; vectors are only comparable within one model.
	Model() string
}

// CompletionService sends a message sequence to a hosted chat model.
type CompletionService interface {
	// Complete returns the text of the first choice.
	// An empty string with a nil error means the provider returned no usable text.
	Complete(ctx context.Context, messages []entities.ChatMessage) (string, error)

	// CompleteStream returns a channel of tokens for real-time UI.
	// The channel is closed after a token with Done set.
	CompleteStream(ctx context.Context, messages []entities.ChatMessage) (<-chan StreamToken, error)
}

// VectorStore ranks stored entries against a query embedding. Read-only.
type VectorStore interface {
	// Search returns at most topK entries by descending cosine similarity.
	Search(ctx context.Context, embedding []float32, topK int) ([]entities.ScoredEntry, error)

	// Len reports how many entries the store holds.
	Len() int
}

// KnowledgeLoader reads the human-authored knowledge collection.
type KnowledgeLoader interface {
	// Load reads all entries from the given path, in file order.
	Load(ctx context.Context, path string) ([]entities.KnowledgeEntry, error)

	// SupportedExtensions returns file extensions this loader handles.
	SupportedExtensions() []string
}

// ArtifactStore persists the embedded knowledge base.
type ArtifactStore interface {
	// Load returns the stored knowledge base. A missing artifact yields an empty one.
	Load(ctx context.Context) (*entities.KnowledgeBase, error)

	// Save replaces the stored knowledge base as a whole.
	Save(ctx context.Context, kb *entities.KnowledgeBase) error
}

// StreamToken represents a single token in a streaming completion.
type StreamToken struct {
	Content string
	Done    bool
	Error   error
}

// FileWatcher monitors a file for changes.
type FileWatcher interface {
	// Watch starts monitoring path and emits events for it.
	Watch(ctx context.Context, path string) (<-chan FileEvent, error)

	// Stop stops the watcher.
	Stop() error
}

// FileEvent represents a file system change.
type FileEvent struct {
	Path      string
	Operation FileOperation
}

// FileOperation is the type of file change.
type FileOperation int

const (
	FileCreated FileOperation = iota
	FileModified
	FileDeleted
)

func (op FileOperation) String() string {
	switch op {
	case FileCreated:
		return "created"
	case FileModified:
		return "modified"
	case FileDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}
