package usecases

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himanshuarya/portfolio-rag/internal/domain/entities"
)

func TestPromptAssembler_SystemPromptContract(t *testing.T) {
	p := NewPromptAssembler("Himanshu Arya")

	for _, ctx := range []string{"", "Himanshu works at Unisys.", "line one\n\nline two"} {
		prompt := p.SystemPrompt(ctx)

		assert.Contains(t, prompt, FallbackAnswer)
		assert.Contains(t, prompt, "CONTEXT")
		assert.True(t, strings.HasSuffix(prompt, ContextMarker+"\n"+ctx+"\n"), "context must follow the marker verbatim")
		assert.Contains(t, prompt, "Himanshu Arya")
	}
}

func TestPromptAssembler_DefaultOwner(t *testing.T) {
	p := NewPromptAssembler("  ")
	assert.Contains(t, p.SystemPrompt(""), "the portfolio owner")
}

func TestPromptAssembler_AssembleOrder(t *testing.T) {
	p := NewPromptAssembler("Himanshu Arya")
	history := []entities.ChatMessage{
		{Role: entities.RoleUser, Content: "hi"},
		{Role: entities.RoleAssistant, Content: "hello"},
		{Role: "tool", Content: "passed through untouched"},
	}

	msgs := p.Assemble("ctx", history, "Where does Himanshu work?")

	require.Len(t, msgs, 5)
	assert.Equal(t, entities.RoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "ctx")
	assert.Equal(t, history, msgs[1:4])
	assert.Equal(t, entities.ChatMessage{Role: entities.RoleUser, Content: "Where does Himanshu work?"}, msgs[4])
}

func TestPromptAssembler_DoesNotAliasHistory(t *testing.T) {
	p := NewPromptAssembler("x")
	history := make([]entities.ChatMessage, 1, 4)
	history[0] = entities.ChatMessage{Role: entities.RoleUser, Content: "first"}

	msgs := p.Assemble("", history, "second")
	msgs[1].Content = "mutated"

	assert.Equal(t, "first", history[0].Content)
}
