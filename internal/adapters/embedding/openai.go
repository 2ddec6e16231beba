// Package embedding provides the embedding adapter.
// It implements ports.EmbeddingService over any OpenAI-compatible embeddings API.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

const (
	// DefaultModel is the embedding model used when none is configured.
	DefaultModel = "text-embedding-3-small"

	defaultTimeout = 60 * time.Second
)

// Config configures the embedding adapter.
type Config struct {
	APIKey     string
	BaseURL    string // optional, for OpenAI-compatible providers
	Model      string
	Dimensions int // optional, 0 keeps the model default
	Timeout    time.Duration
}

// OpenAIAdapter implements ports.EmbeddingService using go-openai.
type OpenAIAdapter struct {
	client     *openai.Client
	model      string
	dimensions int
	timeout    time.Duration
}

// NewOpenAIAdapter creates a new embedding adapter.
func NewOpenAIAdapter(cfg Config) *OpenAIAdapter {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &OpenAIAdapter{
		client:     openai.NewClientWithConfig(clientConfig),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		timeout:    cfg.Timeout,
	}
}

// Embed generates an embedding for a single text.
func (a *OpenAIAdapter) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	slog.Debug("Embedding request", "model", a.model, "chars", len(text))

	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      []string{text},
		Model:      openai.EmbeddingModel(a.model),
		Dimensions: a.dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, errors.New("empty embedding response")
	}

	slog.Debug("Embedding received", "model", a.model, "dimensions", len(resp.Data[0].Embedding))
	return resp.Data[0].Embedding, nil
}

// EmbedBatch generates embeddings for multiple texts.
// One request per text, sequentially; the first failure aborts the batch.
func (a *OpenAIAdapter) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := a.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embedding text %d: %w", i, err)
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}

// Model returns the configured embedding model.
func (a *OpenAIAdapter) Model() string {
	return a.model
}
