package retrieval

import (
	"context"
	"fmt"

	"rag-chat-be/internal/repository/contract"
	"rag-chat-be/pkg/store"
)

// KeywordStrategy runs a full-text scan only. It needs no embedding
// provider, so it stays usable when the embedding service is down.
type KeywordStrategy struct {
	repo contract.ChunkEmbeddingRepository
}

func NewKeywordStrategy(repo contract.ChunkEmbeddingRepository) *KeywordStrategy {
	return &KeywordStrategy{repo: repo}
}

func (s *KeywordStrategy) Name() store.Backend {
	return store.BackendKeyword
}

func (s *KeywordStrategy) Attempt(ctx context.Context, query string, topK int, filter map[string]string) ([]store.RetrievedResult, error) {
	scored, err := s.repo.KeywordSearch(ctx, query, topK, filter)
	if err != nil {
		return nil, fmt.Errorf("keyword search failed: %w", err)
	}

	return toResults(scored, s.Name()), nil
}
