package usecases

import (
	"fmt"
	"strings"

	"github.com/himanshuarya/portfolio-rag/internal/domain/entities"
)

// FallbackAnswer is the sentence the model must use when the context has no answer.
const FallbackAnswer = "I'm not sure, that information isn't in my portfolio knowledge base."

// ContextMarker introduces the retrieved context inside the system prompt.
const ContextMarker = "CONTEXT:"

// PromptAssembler builds the message sequence sent to the chat model.
// It does no I/O and no validation of history.
type PromptAssembler struct {
	owner string
}

// NewPromptAssembler creates an assembler for the named portfolio owner.
func NewPromptAssembler(owner string) *PromptAssembler {
	if strings.TrimSpace(owner) == "" {
		owner = "the portfolio owner"
	}
	return &PromptAssembler{owner: owner}
}

// SystemPrompt restricts the model to context, which is inlined verbatim.
func (p *PromptAssembler) SystemPrompt(context string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are an AI assistant built into the portfolio of %s.\n", p.owner)
	sb.WriteString("Answer ONLY using the CONTEXT below.\n")
	sb.WriteString("If the answer isn't in the context, say:\n")
	sb.WriteString("\"" + FallbackAnswer + "\"\n\n")
	sb.WriteString(ContextMarker + "\n")
	sb.WriteString(context)
	sb.WriteString("\n")
	return sb.String()
}

// Assemble returns the system message, then history as given, then the user message.
func (p *PromptAssembler) Assemble(context string, history []entities.ChatMessage, message string) []entities.ChatMessage {
	messages := make([]entities.ChatMessage, 0, len(history)+2)
	messages = append(messages, entities.ChatMessage{Role: entities.RoleSystem, Content: p.SystemPrompt(context)})
	messages = append(messages, history...)
	messages = append(messages, entities.ChatMessage{Role: entities.RoleUser, Content: message})
	return messages
}
