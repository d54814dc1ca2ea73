package factory

import (
	"fmt"

	"rag-chat-be/pkg/llm"
	"rag-chat-be/pkg/llm/ollama"
	"rag-chat-be/pkg/llm/openai"
)

// NewLLMProvider selects an LLM backend by configured name.
func NewLLMProvider(providerName, modelName, baseURL, apiKey string) (llm.LLMProvider, error) {
	switch providerName {
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	case "openai":
		if apiKey == "" && baseURL == "" {
			return nil, fmt.Errorf("openai provider requires an API key or a custom base URL")
		}
		return openai.NewOpenAIProvider(baseURL, modelName, apiKey), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: ollama, openai)", providerName)
	}
}
