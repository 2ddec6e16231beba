package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himanshuarya/portfolio-rag/internal/domain/entities"
	"github.com/himanshuarya/portfolio-rag/internal/domain/ports"
)

var errProvider = errors.New("provider down")

type stubEmbedder struct{ err error }

func (s stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []float32{float32(len(text))}, nil
}

func (s stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	panic("instrumented embedder must not delegate batches")
}

func (s stubEmbedder) Model() string { return "stub-model" }

type stubCompleter struct {
	reply  string
	err    error
	tokens []ports.StreamToken
}

func (s stubCompleter) Complete(ctx context.Context, messages []entities.ChatMessage) (string, error) {
	return s.reply, s.err
}

func (s stubCompleter) CompleteStream(ctx context.Context, messages []entities.ChatMessage) (<-chan ports.StreamToken, error) {
	if s.err != nil {
		return nil, s.err
	}
	ch := make(chan ports.StreamToken, len(s.tokens))
	for _, tok := range s.tokens {
		ch <- tok
	}
	close(ch)
	return ch, nil
}

func newTestExporter() *PrometheusExporter {
	return NewPrometheusExporter(Config{})
}

func TestPrometheusExporter_RecordChatRequest(t *testing.T) {
	e := newTestExporter()

	e.RecordChatRequest(ModeSync, 100*time.Millisecond, true)
	e.RecordChatRequest(ModeSync, 200*time.Millisecond, true)
	e.RecordChatRequest(ModeStream, 150*time.Millisecond, false)

	assert.Equal(t, 2.0, testutil.ToFloat64(e.chatRequests.WithLabelValues(ModeSync, "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(e.chatRequests.WithLabelValues(ModeStream, "error")))
}

func TestPrometheusExporter_Handler(t *testing.T) {
	e := NewPrometheusExporter(DefaultConfig())
	e.RecordChatRequest(ModeSync, time.Second, true)
	e.RecordProviderCall(OpEmbed, 10*time.Millisecond, errProvider)
	e.SetKnowledgeEntries(7)

	req := httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody)
	w := httptest.NewRecorder()
	e.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "portfolio_rag_chat_requests_total")
	assert.Contains(t, body, "portfolio_rag_provider_errors_total")
	assert.Contains(t, body, "portfolio_rag_knowledge_entries 7")
	assert.Contains(t, body, "go_goroutines")
}

func TestInstrumentedEmbedder(t *testing.T) {
	e := newTestExporter()

	ok := NewInstrumentedEmbedder(stubEmbedder{}, e)
	out, err := ok.EmbedBatch(context.Background(), []string{"a", "bb"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1}, {2}}, out)
	assert.Equal(t, "stub-model", ok.Model())

	failing := NewInstrumentedEmbedder(stubEmbedder{err: errProvider}, e)
	_, err = failing.Embed(context.Background(), "x")
	assert.ErrorIs(t, err, errProvider)

	assert.Equal(t, 1.0, testutil.ToFloat64(e.providerErrors.WithLabelValues(OpEmbed)))
	assert.Equal(t, 1, testutil.CollectAndCount(e.providerLatency))
}

func TestInstrumentedCompleter_Complete(t *testing.T) {
	e := newTestExporter()

	reply, err := NewInstrumentedCompleter(stubCompleter{reply: "hi"}, e).Complete(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "hi", reply)

	_, err = NewInstrumentedCompleter(stubCompleter{err: errProvider}, e).Complete(context.Background(), nil)
	assert.ErrorIs(t, err, errProvider)
	assert.Equal(t, 1.0, testutil.ToFloat64(e.providerErrors.WithLabelValues(OpComplete)))
}

func TestInstrumentedCompleter_StreamForwardsTokens(t *testing.T) {
	e := newTestExporter()
	tokens := []ports.StreamToken{{Content: "a"}, {Content: "b"}, {Done: true}}

	ch, err := NewInstrumentedCompleter(stubCompleter{tokens: tokens}, e).CompleteStream(context.Background(), nil)
	require.NoError(t, err)

	var got []ports.StreamToken
	for tok := range ch {
		got = append(got, tok)
	}
	assert.Equal(t, tokens, got)
	assert.Equal(t, 0.0, testutil.ToFloat64(e.providerErrors.WithLabelValues(OpCompleteStream)))
}

func TestInstrumentedCompleter_StreamErrorToken(t *testing.T) {
	e := newTestExporter()
	tokens := []ports.StreamToken{{Content: "a"}, {Done: true, Error: errProvider}}

	ch, err := NewInstrumentedCompleter(stubCompleter{tokens: tokens}, e).CompleteStream(context.Background(), nil)
	require.NoError(t, err)
	for range ch {
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(e.providerErrors.WithLabelValues(OpCompleteStream)))
}
