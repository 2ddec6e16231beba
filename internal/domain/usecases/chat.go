package usecases

import (
	"context"
	"errors"
	"fmt"

	"github.com/himanshuarya/portfolio-rag/internal/domain/entities"
	"github.com/himanshuarya/portfolio-rag/internal/domain/ports"
)

// NoResponse replaces a completion that carried no text.
const NoResponse = "No response."

var (
	// ErrRetrievalFailed marks a failure to embed the query or search the index.
	ErrRetrievalFailed = errors.New("retrieval failed")
	// ErrCompletionFailed marks a failed or unusable chat completion.
	ErrCompletionFailed = errors.New("completion failed")
)

// ChatUseCase answers a message from the knowledge base.
// Retrieval always runs, then prompt assembly, then the completion call.
type ChatUseCase struct {
	retriever *Retriever
	prompts   *PromptAssembler
	llm       ports.CompletionService
}

// NewChatUseCase creates a ChatUseCase with injected dependencies.
func NewChatUseCase(retriever *Retriever, prompts *PromptAssembler, llm ports.CompletionService) *ChatUseCase {
	return &ChatUseCase{
		retriever: retriever,
		prompts:   prompts,
		llm:       llm,
	}
}

// Chat returns a complete reply or an error; never a partial reply.
func (uc *ChatUseCase) Chat(ctx context.Context, req *entities.ChatRequest) (*entities.ChatResponse, error) {
	messages, retrieved, err := uc.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	reply, err := uc.llm.Complete(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompletionFailed, err)
	}
	if reply == "" {
		reply = NoResponse
	}

	return &entities.ChatResponse{
		Reply:   reply,
		Context: retrieved,
	}, nil
}

// ChatStream is Chat with the reply delivered token by token.
// The concatenated tokens equal what Chat would have returned.
func (uc *ChatUseCase) ChatStream(ctx context.Context, req *entities.ChatRequest) (<-chan ports.StreamToken, error) {
	messages, _, err := uc.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	upstream, err := uc.llm.CompleteStream(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompletionFailed, err)
	}

	out := make(chan ports.StreamToken, 16)
	go func() {
		defer close(out)

		send := func(tok ports.StreamToken) bool {
			select {
			case out <- tok:
				return true
			case <-ctx.Done():
				return false
			}
		}

		sawContent, sawDone := false, false
		for tok := range upstream {
			if tok.Error != nil {
				send(ports.StreamToken{Done: true, Error: fmt.Errorf("%w: %w", ErrCompletionFailed, tok.Error)})
				return
			}
			if tok.Content != "" {
				sawContent = true
				if !send(ports.StreamToken{Content: tok.Content}) {
					return
				}
			}
			if tok.Done {
				sawDone = true
				break
			}
		}

		// A stream that closes without Done was cut short; its text is partial.
		if !sawDone {
			send(ports.StreamToken{Done: true, Error: fmt.Errorf("%w: stream ended early", ErrCompletionFailed)})
			return
		}

		if !sawContent {
			send(ports.StreamToken{Content: NoResponse, Done: true})
			return
		}
		send(ports.StreamToken{Done: true})
	}()

	return out, nil
}

func (uc *ChatUseCase) prepare(ctx context.Context, req *entities.ChatRequest) ([]entities.ChatMessage, string, error) {
	retrieved, err := uc.retriever.Retrieve(ctx, req.Message)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrRetrievalFailed, err)
	}
	return uc.prompts.Assemble(retrieved, req.History, req.Message), retrieved, nil
}
