package vectordb

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himanshuarya/portfolio-rag/internal/domain/entities"
)

func embedded(content string, emb ...float32) entities.EmbeddedEntry {
	return entities.EmbeddedEntry{
		KnowledgeEntry: entities.KnowledgeEntry{Title: content, Content: content},
		Embedding:      emb,
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name   string
		a, b   []float32
		want   float64
		wantOK bool
	}{
		{name: "identical", a: []float32{1, 2, 3}, b: []float32{1, 2, 3}, want: 1, wantOK: true},
		{name: "scaled", a: []float32{1, 0}, b: []float32{5, 0}, want: 1, wantOK: true},
		{name: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, want: 0, wantOK: true},
		{name: "opposite", a: []float32{1, 0}, b: []float32{-1, 0}, want: -1, wantOK: true},
		{name: "zero query", a: []float32{0, 0}, b: []float32{1, 0}, wantOK: false},
		{name: "zero stored", a: []float32{1, 0}, b: []float32{0, 0}, wantOK: false},
		{name: "length mismatch", a: []float32{1, 0}, b: []float32{1, 0, 0}, wantOK: false},
		{name: "empty", a: nil, b: nil, wantOK: false},
		{name: "nan component", a: []float32{float32(math.NaN()), 1}, b: []float32{1, 1}, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CosineSimilarity(tt.a, tt.b)
			assert.Equal(t, tt.wantOK, ok)
			assert.False(t, math.IsNaN(got))
			if tt.wantOK {
				assert.InDelta(t, tt.want, got, 1e-9)
			} else {
				assert.True(t, math.IsInf(got, -1))
			}
		})
	}
}

func TestRank_OrdersByDescendingScore(t *testing.T) {
	entries := []entities.EmbeddedEntry{
		embedded("orthogonal", 0, 1),
		embedded("exact", 1, 0),
		embedded("diagonal", 1, 1),
	}

	got := Rank([]float32{1, 0}, entries, 3)

	require.Len(t, got, 3)
	assert.Equal(t, "exact", got[0].Entry.Content)
	assert.Equal(t, "diagonal", got[1].Entry.Content)
	assert.Equal(t, "orthogonal", got[2].Entry.Content)
	assert.Equal(t, 1, got[0].Index)
}

func TestRank_TopKBound(t *testing.T) {
	entries := []entities.EmbeddedEntry{
		embedded("a", 1, 0), embedded("b", 0.9, 0.1), embedded("c", 0.5, 0.5), embedded("d", 0, 1),
	}

	for topK := 1; topK <= 6; topK++ {
		got := Rank([]float32{1, 0}, entries, topK)
		assert.Len(t, got, min(topK, len(entries)))
		for i := 1; i < len(got); i++ {
			assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
		}
	}

	assert.Empty(t, Rank([]float32{1, 0}, entries, 0))
}

func TestRank_TiesKeepInsertionOrder(t *testing.T) {
	entries := []entities.EmbeddedEntry{
		embedded("first", 1, 0), embedded("second", 2, 0), embedded("third", 3, 0),
	}

	got := Rank([]float32{1, 0}, entries, 3)

	require.Len(t, got, 3)
	assert.Equal(t, []string{"first", "second", "third"},
		[]string{got[0].Entry.Content, got[1].Entry.Content, got[2].Entry.Content})
}

func TestRank_Deterministic(t *testing.T) {
	entries := []entities.EmbeddedEntry{
		embedded("a", 0.3, 0.7, 0.1), embedded("b", 0.9, 0.05, 0.2), embedded("c", 0.3, 0.7, 0.1), embedded("d", 0.1, 0.1, 0.9),
	}
	query := []float32{0.4, 0.5, 0.2}

	first := Rank(query, entries, 4)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, Rank(query, entries, 4))
	}
}

func TestRank_ZeroVectorExcluded(t *testing.T) {
	entries := []entities.EmbeddedEntry{
		embedded("zero", 0, 0),
		embedded("opposite", -1, 0),
		embedded("short", 1),
	}

	got := Rank([]float32{1, 0}, entries, 3)

	require.Len(t, got, 1)
	assert.Equal(t, "opposite", got[0].Entry.Content)
	assert.False(t, math.IsNaN(got[0].Score))
}

func TestMemoryIndex_Search(t *testing.T) {
	kb := &entities.KnowledgeBase{Entries: []entities.EmbeddedEntry{embedded("a", 1, 0), embedded("b", 0, 1)}}
	idx := NewMemoryIndex(kb)
	kb.Entries[0] = embedded("mutated", 0, 1)

	assert.Equal(t, 2, idx.Len())
	got, err := idx.Search(context.Background(), []float32{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Entry.Content, "index is isolated from the source slice")
}

func TestMemoryIndex_NilKnowledgeBase(t *testing.T) {
	idx := NewMemoryIndex(nil)
	assert.Equal(t, 0, idx.Len())

	got, err := idx.Search(context.Background(), []float32{1}, 2)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemoryIndex_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMemoryIndex(&entities.KnowledgeBase{}).Search(ctx, []float32{1}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
