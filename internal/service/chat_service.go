package service

import (
	"context"
	"fmt"

	"rag-chat-be/internal/dto"
	"rag-chat-be/internal/pkg/logger"
	"rag-chat-be/internal/pkg/serverutils"
	"rag-chat-be/pkg/llm"
	"rag-chat-be/pkg/rag/prompt"
	"rag-chat-be/pkg/rag/stream"
	"rag-chat-be/pkg/store"
)

// Retriever is the slice of the retrieval coordinator the chat flow needs.
type Retriever interface {
	Retrieve(ctx context.Context, query string, filter map[string]string) []store.RetrievedResult
}

type IChatService interface {
	Chat(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error)
	ChatStream(ctx context.Context, req *dto.ChatRequest) (<-chan stream.Event, error)
	RagChat(ctx context.Context, req *dto.ChatRequest) (*dto.RagChatResponse, error)
	RagChatStream(ctx context.Context, req *dto.ChatRequest) (<-chan stream.Event, error)
}

type chatService struct {
	llmProvider llm.LLMProvider
	retriever   Retriever
	assembler   *prompt.Assembler
	bridge      *stream.Bridge
	logger      logger.ILogger
	llmOptions  []llm.Option
}

// NewChatService builds the chat flow. llmOptions apply to every
// generation call, e.g. the configured sampling temperature.
func NewChatService(
	llmProvider llm.LLMProvider,
	retriever Retriever,
	assembler *prompt.Assembler,
	bridge *stream.Bridge,
	log logger.ILogger,
	llmOptions ...llm.Option,
) IChatService {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &chatService{
		llmProvider: llmProvider,
		retriever:   retriever,
		assembler:   assembler,
		bridge:      bridge,
		logger:      log,
		llmOptions:  llmOptions,
	}
}

func validRole(role string) bool {
	switch role {
	case llm.RoleSystem, llm.RoleUser, llm.RoleAssistant:
		return true
	}
	return false
}

// validateMessages rejects a conversation before any backend is touched.
func validateMessages(messages []dto.ChatMessage) error {
	if len(messages) == 0 {
		return serverutils.NewValidationError("messages must not be empty")
	}
	for i, m := range messages {
		if m.Role == "" || m.Content == "" {
			return serverutils.NewValidationError(fmt.Sprintf("message %d is missing role or content", i))
		}
		if !validRole(m.Role) {
			return serverutils.NewValidationError(fmt.Sprintf("message %d has invalid role '%s'", i, m.Role))
		}
	}
	return nil
}

// extractLastUserMessage returns the retrieval query for the RAG flow.
func extractLastUserMessage(messages []dto.ChatMessage) (string, error) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == llm.RoleUser {
			return messages[i].Content, nil
		}
	}
	return "", serverutils.NewValidationError("conversation contains no user message")
}

func toLLMMessages(messages []dto.ChatMessage) []llm.Message {
	out := make([]llm.Message, len(messages))
	for i, m := range messages {
		out[i] = llm.Message{Role: m.Role, Content: m.Content}
	}
	return out
}

func (c *chatService) Chat(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error) {
	if err := validateMessages(req.Messages); err != nil {
		return nil, err
	}

	messages := c.assembler.BuildMessages(toLLMMessages(req.Messages), "")
	response, err := c.llmProvider.Chat(ctx, messages, c.llmOptions...)
	if err != nil {
		c.logger.Error("chat", "Generation failed", map[string]interface{}{"error": err.Error()})
		return nil, err
	}

	return &dto.ChatResponse{Response: response}, nil
}

func (c *chatService) ChatStream(ctx context.Context, req *dto.ChatRequest) (<-chan stream.Event, error) {
	if err := validateMessages(req.Messages); err != nil {
		return nil, err
	}

	messages := c.assembler.BuildMessages(toLLMMessages(req.Messages), "")
	upstream, err := c.llmProvider.ChatStream(ctx, messages, c.llmOptions...)
	if err != nil {
		c.logger.Error("chat", "Failed to open generation stream", map[string]interface{}{"error": err.Error()})
		return nil, err
	}

	return c.bridge.Run(ctx, upstream, nil), nil
}

func (c *chatService) RagChat(ctx context.Context, req *dto.ChatRequest) (*dto.RagChatResponse, error) {
	assembled, err := c.assemble(ctx, req)
	if err != nil {
		return nil, err
	}

	response, err := c.llmProvider.Chat(ctx, assembled.Messages, c.llmOptions...)
	if err != nil {
		c.logger.Error("chat", "Generation failed", map[string]interface{}{"error": err.Error()})
		return nil, err
	}

	return &dto.RagChatResponse{
		Response: response,
		Sources:  assembled.Sources,
	}, nil
}

func (c *chatService) RagChatStream(ctx context.Context, req *dto.ChatRequest) (<-chan stream.Event, error) {
	assembled, err := c.assemble(ctx, req)
	if err != nil {
		return nil, err
	}

	upstream, err := c.llmProvider.ChatStream(ctx, assembled.Messages, c.llmOptions...)
	if err != nil {
		c.logger.Error("chat", "Failed to open generation stream", map[string]interface{}{"error": err.Error()})
		return nil, err
	}

	return c.bridge.Run(ctx, upstream, assembled.Sources), nil
}

func (c *chatService) assemble(ctx context.Context, req *dto.ChatRequest) (*prompt.AssembledPrompt, error) {
	if err := validateMessages(req.Messages); err != nil {
		return nil, err
	}
	query, err := extractLastUserMessage(req.Messages)
	if err != nil {
		return nil, err
	}

	results := c.retriever.Retrieve(ctx, query, nil)
	c.logger.Debug("chat", "Retrieval finished", map[string]interface{}{
		"query_length": len(query),
		"results":      len(results),
	})

	return c.assembler.Assemble(toLLMMessages(req.Messages), results), nil
}
