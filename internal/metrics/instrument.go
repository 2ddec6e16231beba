package metrics

import (
	"context"
	"time"

	"github.com/himanshuarya/portfolio-rag/internal/domain/entities"
	"github.com/himanshuarya/portfolio-rag/internal/domain/ports"
)

// InstrumentedEmbedder records latency and errors of an EmbeddingService.
type InstrumentedEmbedder struct {
	next     ports.EmbeddingService
	exporter *PrometheusExporter
}

// NewInstrumentedEmbedder wraps next.
func NewInstrumentedEmbedder(next ports.EmbeddingService, exporter *PrometheusExporter) *InstrumentedEmbedder {
	return &InstrumentedEmbedder{next: next, exporter: exporter}
}

func (e *InstrumentedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	emb, err := e.next.Embed(ctx, text)
	e.exporter.RecordProviderCall(OpEmbed, time.Since(start), err)
	return emb, err
}

// EmbedBatch records one observation per text.
func (e *InstrumentedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = emb
	}
	return out, nil
}

func (e *InstrumentedEmbedder) Model() string {
	return e.next.Model()
}

// InstrumentedCompleter records latency and errors of a CompletionService.
// A stream is timed from open to its final token.
type InstrumentedCompleter struct {
	next     ports.CompletionService
	exporter *PrometheusExporter
}

// NewInstrumentedCompleter wraps next.
func NewInstrumentedCompleter(next ports.CompletionService, exporter *PrometheusExporter) *InstrumentedCompleter {
	return &InstrumentedCompleter{next: next, exporter: exporter}
}

func (c *InstrumentedCompleter) Complete(ctx context.Context, messages []entities.ChatMessage) (string, error) {
	start := time.Now()
	reply, err := c.next.Complete(ctx, messages)
	c.exporter.RecordProviderCall(OpComplete, time.Since(start), err)
	return reply, err
}

func (c *InstrumentedCompleter) CompleteStream(ctx context.Context, messages []entities.ChatMessage) (<-chan ports.StreamToken, error) {
	start := time.Now()
	upstream, err := c.next.CompleteStream(ctx, messages)
	if err != nil {
		c.exporter.RecordProviderCall(OpCompleteStream, time.Since(start), err)
		return nil, err
	}

	out := make(chan ports.StreamToken, cap(upstream))
	go func() {
		defer close(out)

		var streamErr error
		defer func() {
			c.exporter.RecordProviderCall(OpCompleteStream, time.Since(start), streamErr)
		}()

		for tok := range upstream {
			if tok.Error != nil {
				streamErr = tok.Error
			}
			select {
			case out <- tok:
			case <-ctx.Done():
				streamErr = ctx.Err()
				return
			}
		}
	}()

	return out, nil
}
