package retrieval

import (
	"context"

	"rag-chat-be/pkg/store"
)

// DegradedStrategy is the terminal fallback. It always succeeds with zero
// results so the chat flow keeps working without retrieval context.
type DegradedStrategy struct{}

func NewDegradedStrategy() *DegradedStrategy {
	return &DegradedStrategy{}
}

func (s *DegradedStrategy) Name() store.Backend {
	return store.BackendFallback
}

func (s *DegradedStrategy) Attempt(ctx context.Context, query string, topK int, filter map[string]string) ([]store.RetrievedResult, error) {
	return []store.RetrievedResult{}, nil
}
