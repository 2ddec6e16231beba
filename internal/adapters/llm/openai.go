// Package llm provides the chat completion adapter.
// It implements ports.CompletionService over any OpenAI-compatible chat API.
package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/himanshuarya/portfolio-rag/internal/domain/entities"
	"github.com/himanshuarya/portfolio-rag/internal/domain/ports"
)

const (
	// DefaultModel is the chat model used when none is configured.
	DefaultModel = "gpt-3.5-turbo"

	defaultTimeout = 60 * time.Second
)

// Config configures the completion adapter.
type Config struct {
	APIKey      string
	BaseURL     string // optional, for OpenAI-compatible providers
	Model       string
	Temperature float32 // 0 leaves the provider default
	MaxTokens   int     // 0 means no limit
	Timeout     time.Duration
}

// OpenAIAdapter implements ports.CompletionService using go-openai.
type OpenAIAdapter struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	timeout     time.Duration
}

// NewOpenAIAdapter creates a new completion adapter.
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
	// No client-level timeout: streams are bounded by the request context instead.
	clientConfig.HTTPClient = &http.Client{}

	return &OpenAIAdapter{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     cfg.Timeout,
	}
}

// Complete sends the messages and returns the first choice's text.
func (a *OpenAIAdapter) Complete(ctx context.Context, messages []entities.ChatMessage) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	resp, err := a.client.CreateChatCompletion(ctx, a.request(messages, false))
	if err != nil {
		slog.Error("Chat completion failed", "model", a.model, "error", err, "duration", time.Since(start))
		return "", fmt.Errorf("create chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		slog.Warn("Chat completion returned no choices", "model", a.model)
		return "", nil
	}

	slog.Debug("Chat completion",
		"model", a.model,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"duration", time.Since(start))
	return resp.Choices[0].Message.Content, nil
}

// CompleteStream streams the first choice's text as it is generated.
func (a *OpenAIAdapter) CompleteStream(ctx context.Context, messages []entities.ChatMessage) (<-chan ports.StreamToken, error) {
	// Sends wait on the caller's context only: when the call times out the
	// final error token must still reach a caller that is reading.
	caller := ctx
	ctx, cancel := context.WithTimeout(ctx, a.timeout)

	stream, err := a.client.CreateChatCompletionStream(ctx, a.request(messages, true))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("create chat completion stream: %w", err)
	}

	ch := make(chan ports.StreamToken, 100)

	go func() {
		defer close(ch)
		defer cancel()
		defer stream.Close()

		send := func(tok ports.StreamToken) bool {
			select {
			case ch <- tok:
				return true
			case <-caller.Done():
				return false
			}
		}

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				send(ports.StreamToken{Done: true})
				return
			}
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					err = fmt.Errorf("chat stream: %w", ctxErr)
				}
				slog.Error("Chat stream failed", "model", a.model, "error", err)
				send(ports.StreamToken{Done: true, Error: err})
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			if content := resp.Choices[0].Delta.Content; content != "" {
				if !send(ports.StreamToken{Content: content}) {
					return
				}
			}
		}
	}()

	return ch, nil
}

func (a *OpenAIAdapter) request(messages []entities.ChatMessage, stream bool) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model:       a.model,
		Messages:    convertMessages(messages),
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
		Stream:      stream,
	}
}

// convertMessages passes roles through verbatim.
func convertMessages(messages []entities.ChatMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		out[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	return out
}
