package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"rag-chat-be/internal/dto"
	"rag-chat-be/internal/entity"
	"rag-chat-be/pkg/chunker"
	"rag-chat-be/pkg/embedding"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncChunkRepo makes the fake safe to poll while the consumer goroutine
// writes to it.
type syncChunkRepo struct {
	mu sync.Mutex
	*fakeChunkRepo
}

func newSyncChunkRepo() *syncChunkRepo {
	return &syncChunkRepo{fakeChunkRepo: newFakeChunkRepo()}
}

func (s *syncChunkRepo) CreateBulk(ctx context.Context, embeddings []*entity.ChunkEmbedding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fakeChunkRepo.CreateBulk(ctx, embeddings)
}

func (s *syncChunkRepo) DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fakeChunkRepo.DeleteByDocumentId(ctx, documentId)
}

func (s *syncChunkRepo) CountByDocumentId(ctx context.Context, documentId uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fakeChunkRepo.CountByDocumentId(ctx, documentId)
}

type fakeEmbedder struct{}

func (fakeEmbedder) Generate(text string, taskType string) (*embedding.EmbeddingResponse, error) {
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{0.1, 0.2, 0.3}},
	}, nil
}

func TestConsumerEmbedsPublishedDocument(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	docs := newFakeDocumentRepo()
	chunks := newSyncChunkRepo()

	splitter, err := chunker.New(50, 10)
	require.NoError(t, err)

	documentId := uuid.New()
	docs.documents[documentId] = &entity.Document{
		Id:      documentId,
		Title:   "Go Guide",
		Source:  "guide.md",
		Content: "Go is a compiled language. It has goroutines. Channels carry values between them.",
	}

	consumer := NewConsumerService(pubSub, "TEST_TOPIC", docs, chunks, splitter, fakeEmbedder{}, nil)
	require.NoError(t, consumer.Consume(ctx))

	publisher := NewPublisherService("TEST_TOPIC", pubSub)
	payload, err := json.Marshal(dto.PublishIndexDocumentMessage{DocumentId: documentId})
	require.NoError(t, err)
	require.NoError(t, publisher.Publish(ctx, payload))

	require.Eventually(t, func() bool {
		count, _ := chunks.CountByDocumentId(ctx, documentId)
		return count > 0
	}, 2*time.Second, 10*time.Millisecond)

	count, err := chunks.CountByDocumentId(ctx, documentId)
	require.NoError(t, err)
	assert.Greater(t, count, int64(1))

	chunks.mu.Lock()
	defer chunks.mu.Unlock()
	for _, c := range chunks.chunksByDocument[documentId] {
		assert.Equal(t, "Go Guide", c.Metadata["title"])
		assert.Equal(t, "guide.md", c.Metadata["source"])
		assert.NotEmpty(t, c.EmbeddingValue)
	}
}

func TestConsumerAcksUnknownDocument(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	chunks := newSyncChunkRepo()

	splitter, err := chunker.New(50, 10)
	require.NoError(t, err)

	consumer := NewConsumerService(pubSub, "TEST_TOPIC", newFakeDocumentRepo(), chunks, splitter, fakeEmbedder{}, nil)
	require.NoError(t, consumer.Consume(ctx))

	publisher := NewPublisherService("TEST_TOPIC", pubSub)
	payload, _ := json.Marshal(dto.PublishIndexDocumentMessage{DocumentId: uuid.New()})
	require.NoError(t, publisher.Publish(ctx, payload))

	// The message is acked, not redelivered; no chunks ever appear.
	time.Sleep(100 * time.Millisecond)
	chunks.mu.Lock()
	defer chunks.mu.Unlock()
	assert.Empty(t, chunks.chunksByDocument)
}
