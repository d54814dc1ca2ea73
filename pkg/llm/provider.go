package llm

import (
	"context"
	"io"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string // "user", "assistant", "system"
	Content string
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

func WithMaxTokens(maxTokens int) Option {
	return func(o *Options) {
		o.MaxTokens = maxTokens
	}
}

// UpstreamStream is a live token stream from a generation backend. The body
// carries newline-delimited event records; ownership passes to whoever
// relays it, who must Close it.
type UpstreamStream struct {
	Body io.ReadCloser
}

func NewUpstreamStream(body io.ReadCloser) *UpstreamStream {
	return &UpstreamStream{Body: body}
}

func (s *UpstreamStream) Close() error {
	if s == nil || s.Body == nil {
		return nil
	}
	return s.Body.Close()
}

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	// Chat sends a chat history to the model and returns the full response
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// ChatStream sends a chat history and returns the backend's live token
	// stream. The stream is scoped to ctx: cancelling ctx aborts it.
	ChatStream(ctx context.Context, history []Message, options ...Option) (*UpstreamStream, error)
}
