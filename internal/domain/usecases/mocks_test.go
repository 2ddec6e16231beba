package usecases

import (
	"context"
	"errors"

	"github.com/himanshuarya/portfolio-rag/internal/domain/entities"
	"github.com/himanshuarya/portfolio-rag/internal/domain/ports"
)

// mockEmbedder implements ports.EmbeddingService for testing
type mockEmbedder struct {
	embedFn func(text string) ([]float32, error)
	calls   []string
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.calls = append(m.calls, text)
	if m.embedFn != nil {
		return m.embedFn(text)
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, len(texts))
	for i := range texts {
		emb, err := m.Embed(ctx, texts[i])
		if err != nil {
			return nil, err
		}
		result[i] = emb
	}
	return result, nil
}

func (m *mockEmbedder) Model() string { return "test-embedding" }

// mockVectorStore implements ports.VectorStore for testing
type mockVectorStore struct {
	entries  []entities.EmbeddedEntry
	searchFn func(emb []float32, topK int) ([]entities.ScoredEntry, error)
}

func (m *mockVectorStore) Search(ctx context.Context, emb []float32, topK int) ([]entities.ScoredEntry, error) {
	if m.searchFn != nil {
		return m.searchFn(emb, topK)
	}
	var results []entities.ScoredEntry
	for i, e := range m.entries {
		if i >= topK {
			break
		}
		results = append(results, entities.ScoredEntry{Entry: e, Score: 0.9, Index: i})
	}
	return results, nil
}

func (m *mockVectorStore) Len() int { return len(m.entries) }

// mockLLM implements ports.CompletionService for testing
type mockLLM struct {
	response string
	err      error
	tokens   []ports.StreamToken
	received []entities.ChatMessage
}

func (m *mockLLM) Complete(ctx context.Context, messages []entities.ChatMessage) (string, error) {
	m.received = messages
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func (m *mockLLM) CompleteStream(ctx context.Context, messages []entities.ChatMessage) (<-chan ports.StreamToken, error) {
	m.received = messages
	if m.err != nil {
		return nil, m.err
	}
	ch := make(chan ports.StreamToken, len(m.tokens)+1)
	go func() {
		defer close(ch)
		for _, tok := range m.tokens {
			ch <- tok
		}
	}()
	return ch, nil
}

// mockLoader implements ports.KnowledgeLoader for testing
type mockLoader struct {
	entries []entities.KnowledgeEntry
	err     error
}

func (m *mockLoader) Load(ctx context.Context, path string) ([]entities.KnowledgeEntry, error) {
	return m.entries, m.err
}

func (m *mockLoader) SupportedExtensions() []string { return []string{".json"} }

// mockArtifactStore implements ports.ArtifactStore for testing
type mockArtifactStore struct {
	saved   *entities.KnowledgeBase
	saves   int
	saveErr error
}

func (m *mockArtifactStore) Load(ctx context.Context) (*entities.KnowledgeBase, error) {
	if m.saved == nil {
		return &entities.KnowledgeBase{}, nil
	}
	return m.saved, nil
}

func (m *mockArtifactStore) Save(ctx context.Context, kb *entities.KnowledgeBase) error {
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = kb
	return nil
}

var errNetwork = errors.New("dial tcp 10.0.0.1:443: connection refused")

func entry(title, content string, emb ...float32) entities.EmbeddedEntry {
	return entities.EmbeddedEntry{
		KnowledgeEntry: entities.KnowledgeEntry{Title: title, Content: content},
		Embedding:      emb,
	}
}
