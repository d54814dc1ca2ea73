package prompt

import (
	"fmt"
	"strings"

	"rag-chat-be/pkg/llm"
	"rag-chat-be/pkg/store"
)

const defaultSystemPrompt = "You are a helpful assistant. Answer the user's questions clearly and concisely."

const contextPreamble = "Use the following retrieved documents to answer the user's question. " +
	"Base your answer strictly on this material and cite it where relevant.\n\n"

const noContextNotice = "No relevant information was found in the knowledge base for this question. " +
	"Tell the user that you could not find an answer instead of guessing."

// AssembledPrompt is the message list ready for the generation call, plus
// the citation list extracted from the same retrieval results.
type AssembledPrompt struct {
	Messages []llm.Message
	Sources  []store.Source
}

// Assembler turns retrieval results and conversation history into the
// final prompt. It owns the context rendering format and the system
// message injection rules.
type Assembler struct {
	systemPrompt string
}

func NewAssembler() *Assembler {
	return &Assembler{systemPrompt: defaultSystemPrompt}
}

func NewAssemblerWithSystemPrompt(systemPrompt string) *Assembler {
	if systemPrompt == "" {
		systemPrompt = defaultSystemPrompt
	}
	return &Assembler{systemPrompt: systemPrompt}
}

// BuildRagContext renders retrieval results as numbered blocks separated
// by blank lines. Empty results render as the empty string.
func (a *Assembler) BuildRagContext(results []store.RetrievedResult) string {
	if len(results) == 0 {
		return ""
	}

	blocks := make([]string, len(results))
	for i, result := range results {
		blocks[i] = fmt.Sprintf("Document[%d]: %s", i+1, result.Content)
	}
	return strings.Join(blocks, "\n\n")
}

// withSystemMessage copies the history, inserting the default system
// message at position 0 when the history carries none of its own, and
// returns the index of the first system message.
func (a *Assembler) withSystemMessage(history []llm.Message) ([]llm.Message, int) {
	for i, m := range history {
		if m.Role == llm.RoleSystem {
			messages := make([]llm.Message, 0, len(history)+1)
			messages = append(messages, history...)
			return messages, i
		}
	}

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: a.systemPrompt})
	messages = append(messages, history...)
	return messages, 0
}

func insertAfter(messages []llm.Message, index int, message llm.Message) []llm.Message {
	out := make([]llm.Message, 0, len(messages)+1)
	out = append(out, messages[:index+1]...)
	out = append(out, message)
	return append(out, messages[index+1:]...)
}

// BuildMessages injects the system messages without disturbing the rest of
// the history. A non-empty context becomes its own system message right
// after the first one, never merged into it, so injected context stays
// auditable and removable.
func (a *Assembler) BuildMessages(history []llm.Message, context string) []llm.Message {
	messages, systemIndex := a.withSystemMessage(history)
	if context == "" {
		return messages
	}
	contextMessage := llm.Message{Role: llm.RoleSystem, Content: contextPreamble + context}
	return insertAfter(messages, systemIndex, contextMessage)
}

// BuildRagMessages is BuildMessages for the RAG flow. An empty context
// still injects a system message, one that says nothing was found, so the
// model declines instead of inventing an answer.
func (a *Assembler) BuildRagMessages(history []llm.Message, context string) []llm.Message {
	if context == "" {
		messages, systemIndex := a.withSystemMessage(history)
		notice := llm.Message{Role: llm.RoleSystem, Content: noContextNotice}
		return insertAfter(messages, systemIndex, notice)
	}
	return a.BuildMessages(history, context)
}

// ExtractSources pulls citation fields from result metadata. It does not
// depend on the rendered context, so callers can emit citations even when
// they trim or rewrite the context text.
func (a *Assembler) ExtractSources(results []store.RetrievedResult) []store.Source {
	sources := make([]store.Source, len(results))
	for i, result := range results {
		title := result.Metadata["title"]
		if title == "" {
			title = "Unknown"
		}
		origin := result.Metadata["source"]
		if origin == "" {
			origin = "Unknown"
		}
		sources[i] = store.Source{
			Title:     title,
			Source:    origin,
			Relevance: result.Score,
		}
	}
	return sources
}

// Assemble runs the full pipeline: render context, inject system messages,
// extract citations.
func (a *Assembler) Assemble(history []llm.Message, results []store.RetrievedResult) *AssembledPrompt {
	context := a.BuildRagContext(results)
	return &AssembledPrompt{
		Messages: a.BuildRagMessages(history, context),
		Sources:  a.ExtractSources(results),
	}
}
