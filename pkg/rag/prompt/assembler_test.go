package prompt

import (
	"strings"
	"testing"

	"rag-chat-be/pkg/llm"
	"rag-chat-be/pkg/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func retrieved(content string, score float64, metadata map[string]string) store.RetrievedResult {
	return store.RetrievedResult{
		ChunkId:    uuid.New(),
		DocumentId: uuid.New(),
		Content:    content,
		Score:      score,
		Backend:    store.BackendVector,
		Metadata:   metadata,
	}
}

func TestBuildRagContext(t *testing.T) {
	assembler := NewAssembler()

	t.Run("empty results render empty string", func(t *testing.T) {
		assert.Equal(t, "", assembler.BuildRagContext(nil))
		assert.Equal(t, "", assembler.BuildRagContext([]store.RetrievedResult{}))
	})

	t.Run("numbered blocks joined by blank lines", func(t *testing.T) {
		context := assembler.BuildRagContext([]store.RetrievedResult{
			retrieved("first chunk", 0.9, nil),
			retrieved("second chunk", 0.8, nil),
		})
		assert.Equal(t, "Document[1]: first chunk\n\nDocument[2]: second chunk", context)
	})
}

func TestBuildMessagesInjectsSystemMessages(t *testing.T) {
	assembler := NewAssembler()
	history := []llm.Message{
		{Role: llm.RoleUser, Content: "hello"},
		{Role: llm.RoleAssistant, Content: "hi"},
		{Role: llm.RoleUser, Content: "what is Go?"},
	}

	messages := assembler.BuildMessages(history, "Document[1]: Go is a language")

	assert.Len(t, messages, 5)
	assert.Equal(t, llm.RoleSystem, messages[0].Role)
	assert.Equal(t, llm.RoleSystem, messages[1].Role)
	assert.Contains(t, messages[1].Content, "Document[1]: Go is a language")
	assert.Equal(t, "hello", messages[2].Content)
	assert.Equal(t, "hi", messages[3].Content)
	assert.Equal(t, "what is Go?", messages[4].Content)
}

func TestBuildMessagesKeepsExistingSystemMessage(t *testing.T) {
	assembler := NewAssembler()
	history := []llm.Message{
		{Role: llm.RoleSystem, Content: "custom persona"},
		{Role: llm.RoleUser, Content: "hello"},
	}

	messages := assembler.BuildMessages(history, "some context")

	// No default system message; context goes right after the caller's own.
	assert.Len(t, messages, 3)
	assert.Equal(t, "custom persona", messages[0].Content)
	assert.Equal(t, llm.RoleSystem, messages[1].Role)
	assert.Contains(t, messages[1].Content, "some context")
	assert.Equal(t, "hello", messages[2].Content)
}

func TestBuildMessagesContextFollowsSystemMessagePosition(t *testing.T) {
	assembler := NewAssembler()
	history := []llm.Message{
		{Role: llm.RoleUser, Content: "hello"},
		{Role: llm.RoleSystem, Content: "late persona"},
		{Role: llm.RoleUser, Content: "question"},
	}

	messages := assembler.BuildMessages(history, "ctx")

	assert.Len(t, messages, 4)
	assert.Equal(t, "late persona", messages[1].Content)
	assert.Contains(t, messages[2].Content, "ctx")
	assert.Equal(t, "question", messages[3].Content)
}

func TestBuildMessagesEmptyContextAddsNoContextMessage(t *testing.T) {
	assembler := NewAssembler()
	history := []llm.Message{{Role: llm.RoleUser, Content: "hello"}}

	messages := assembler.BuildMessages(history, "")

	assert.Len(t, messages, 2)
	assert.Equal(t, llm.RoleSystem, messages[0].Role)
	assert.Equal(t, llm.RoleUser, messages[1].Role)
}

func TestBuildRagMessagesEmptyContextInjectsNotice(t *testing.T) {
	assembler := NewAssembler()
	history := []llm.Message{{Role: llm.RoleUser, Content: "anything about quasars?"}}

	messages := assembler.BuildRagMessages(history, "")

	assert.Len(t, messages, 3)
	assert.Equal(t, llm.RoleSystem, messages[1].Role)
	assert.True(t, strings.Contains(messages[1].Content, "could not find an answer"))
	assert.Equal(t, llm.RoleUser, messages[2].Role)
}

func TestExtractSources(t *testing.T) {
	assembler := NewAssembler()

	sources := assembler.ExtractSources([]store.RetrievedResult{
		retrieved("a", 0.91, map[string]string{"title": "Go Guide", "source": "guide.md"}),
		retrieved("b", 0.42, nil),
	})

	assert.Len(t, sources, 2)
	assert.Equal(t, store.Source{Title: "Go Guide", Source: "guide.md", Relevance: 0.91}, sources[0])
	assert.Equal(t, store.Source{Title: "Unknown", Source: "Unknown", Relevance: 0.42}, sources[1])
}

func TestAssemble(t *testing.T) {
	assembler := NewAssembler()
	history := []llm.Message{{Role: llm.RoleUser, Content: "explain channels"}}

	prompt := assembler.Assemble(history, []store.RetrievedResult{
		retrieved("channels carry values", 0.8, map[string]string{"title": "Concurrency"}),
	})

	assert.Len(t, prompt.Messages, 3)
	assert.Contains(t, prompt.Messages[1].Content, "Document[1]: channels carry values")
	assert.Len(t, prompt.Sources, 1)
	assert.Equal(t, "Concurrency", prompt.Sources[0].Title)
}
