package dto

import "rag-chat-be/pkg/store"

type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=system user assistant"`
	Content string `json:"content" validate:"required"`
}

type ChatRequest struct {
	Messages []ChatMessage `json:"messages" validate:"required,min=1,dive"`
	Stream   bool          `json:"stream"`
}

type ChatResponse struct {
	Response string `json:"response"`
}

type RagChatResponse struct {
	Response string         `json:"response"`
	Sources  []store.Source `json:"sources"`
}
