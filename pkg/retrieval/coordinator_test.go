package retrieval

import (
	"context"
	"errors"
	"testing"

	"rag-chat-be/pkg/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeStrategy struct {
	name    store.Backend
	results []store.RetrievedResult
	err     error
	calls   int
}

func (f *fakeStrategy) Name() store.Backend {
	return f.name
}

func (f *fakeStrategy) Attempt(ctx context.Context, query string, topK int, filter map[string]string) ([]store.RetrievedResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func result(score float64) store.RetrievedResult {
	return store.RetrievedResult{
		ChunkId:    uuid.New(),
		DocumentId: uuid.New(),
		Content:    "chunk",
		Score:      score,
		Backend:    store.BackendVector,
	}
}

func TestCoordinatorFirstStrategyWins(t *testing.T) {
	first := &fakeStrategy{name: store.BackendVector, results: []store.RetrievedResult{result(0.9)}}
	second := &fakeStrategy{name: store.BackendKeyword, results: []store.RetrievedResult{result(0.5)}}

	coordinator := NewCoordinator([]Strategy{first, second}, 5, nil)
	results := coordinator.Retrieve(context.Background(), "query", nil)

	assert.Len(t, results, 1)
	assert.Equal(t, 0.9, results[0].Score)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 0, second.calls)
}

func TestCoordinatorFallsThroughOnError(t *testing.T) {
	first := &fakeStrategy{name: store.BackendVector, err: errors.New("embedding service down")}
	second := &fakeStrategy{name: store.BackendKeyword, results: []store.RetrievedResult{result(0.4)}}

	coordinator := NewCoordinator([]Strategy{first, second}, 5, nil)
	results := coordinator.Retrieve(context.Background(), "query", nil)

	assert.Len(t, results, 1)
	assert.Equal(t, 0.4, results[0].Score)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
}

func TestCoordinatorEmptyResultStopsChain(t *testing.T) {
	first := &fakeStrategy{name: store.BackendVector, results: []store.RetrievedResult{}}
	second := &fakeStrategy{name: store.BackendKeyword, results: []store.RetrievedResult{result(0.4)}}

	coordinator := NewCoordinator([]Strategy{first, second}, 5, nil)
	results := coordinator.Retrieve(context.Background(), "query", nil)

	assert.Empty(t, results)
	assert.NotNil(t, results)
	assert.Equal(t, 0, second.calls)
}

func TestCoordinatorSortsAndTruncates(t *testing.T) {
	strategy := &fakeStrategy{
		name: store.BackendVector,
		results: []store.RetrievedResult{
			result(0.3), result(0.9), result(0.7), result(0.5),
		},
	}

	coordinator := NewCoordinator([]Strategy{strategy}, 2, nil)
	results := coordinator.Retrieve(context.Background(), "query", nil)

	assert.Len(t, results, 2)
	assert.Equal(t, 0.9, results[0].Score)
	assert.Equal(t, 0.7, results[1].Score)
}

func TestCoordinatorExhaustedChainReturnsEmpty(t *testing.T) {
	first := &fakeStrategy{name: store.BackendVector, err: errors.New("down")}
	second := &fakeStrategy{name: store.BackendKeyword, err: errors.New("also down")}

	coordinator := NewCoordinator([]Strategy{first, second}, 5, nil)
	results := coordinator.Retrieve(context.Background(), "query", nil)

	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestCoordinatorStrategyLookup(t *testing.T) {
	vector := &fakeStrategy{name: store.BackendVector}
	keyword := &fakeStrategy{name: store.BackendKeyword}

	coordinator := NewCoordinator([]Strategy{vector, keyword}, 5, nil)

	s, ok := coordinator.Strategy(store.BackendKeyword)
	assert.True(t, ok)
	assert.Equal(t, store.BackendKeyword, s.Name())

	_, ok = coordinator.Strategy(store.BackendHybrid)
	assert.False(t, ok)
}
