// Package entities contains core business entities.
// These are pure domain objects with no external dependencies.
package entities

import "time"

// ArtifactVersion is the current layout version of the persisted KnowledgeBase.
const ArtifactVersion = 1

// Chat roles accepted in a conversation history.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// KnowledgeEntry is one human-authored fact about the portfolio owner.
// Content is the unit of retrieval; Title is a label and need not be unique.
type KnowledgeEntry struct {
	Title   string `json:"title" yaml:"title"`
	Content string `json:"content" yaml:"content"`
}

// EmbeddedEntry is a KnowledgeEntry with the vector of its Content.
type EmbeddedEntry struct {
	KnowledgeEntry
	Embedding []float32 `json:"embedding"`
}

// KnowledgeBase is the persisted output of the embedding job.
// Every entry was embedded by Model, and every vector has Dimensions components.
type KnowledgeBase struct {
	Version    int             `json:"version"`
	Model      string          `json:"model"`
	Dimensions int             `json:"dimensions"`
	CreatedAt  time.Time       `json:"created_at"`
	Entries    []EmbeddedEntry `json:"entries"`
}

// Len returns the number of entries, treating a nil KnowledgeBase as empty.
func (kb *KnowledgeBase) Len() int {
	if kb == nil {
		return 0
	}
	return len(kb.Entries)
}

// ScoredEntry is an entry ranked against one query vector. Request-scoped.
type ScoredEntry struct {
	Entry EmbeddedEntry
	Score float64 // cosine similarity
	Index int     // position in the knowledge base, used as the tie-breaker
}

// ChatMessage is a single role-tagged conversation turn.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is a new user message plus the history the client holds.
type ChatRequest struct {
	Message string
	History []ChatMessage
}

// ChatResponse is the model's reply.
type ChatResponse struct {
	Reply   string
	Context string // retrieved context the reply was grounded on
}
