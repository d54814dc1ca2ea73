package retrieval

import (
	"context"

	"rag-chat-be/internal/repository/contract"
	"rag-chat-be/pkg/store"
)

// Strategy is one retrieval backend. Attempt returns the candidate chunks
// for a query, or an error when the backend cannot serve the request at
// all. Partial or empty results are not errors.
type Strategy interface {
	Name() store.Backend
	Attempt(ctx context.Context, query string, topK int, filter map[string]string) ([]store.RetrievedResult, error)
}

func toResults(scored []*contract.ScoredChunkEmbedding, backend store.Backend) []store.RetrievedResult {
	results := make([]store.RetrievedResult, 0, len(scored))
	for _, s := range scored {
		if s == nil || s.Embedding == nil {
			continue
		}
		results = append(results, store.RetrievedResult{
			ChunkId:    s.Embedding.Id,
			DocumentId: s.Embedding.DocumentId,
			Content:    s.Embedding.Content,
			Score:      s.Score,
			Backend:    backend,
			Metadata:   s.Embedding.Metadata,
		})
	}
	return results
}
