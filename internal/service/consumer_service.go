package service

import (
	"context"
	"encoding/json"

	"rag-chat-be/internal/dto"
	"rag-chat-be/internal/entity"
	"rag-chat-be/internal/pkg/logger"
	"rag-chat-be/internal/repository/contract"
	"rag-chat-be/pkg/chunker"
	"rag-chat-be/pkg/embedding"
	"rag-chat-be/pkg/store"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// embeddingDim matches the vector column width.
const embeddingDim = 768

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	documentRepo      contract.DocumentRepository
	chunkRepo         contract.ChunkEmbeddingRepository
	chunker           *chunker.Chunker
	embeddingProvider embedding.EmbeddingProvider
	logger            logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	documentRepo contract.DocumentRepository,
	chunkRepo contract.ChunkEmbeddingRepository,
	splitter *chunker.Chunker,
	embeddingProvider embedding.EmbeddingProvider,
	log logger.ILogger,
) IConsumerService {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &consumerService{
		pubSub:            pubSub,
		topicName:         topicName,
		documentRepo:      documentRepo,
		chunkRepo:         chunkRepo,
		chunker:           splitter,
		embeddingProvider: embeddingProvider,
		logger:            log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

// processMessage acks permanently invalid messages and nacks retriable
// failures so the broker redelivers them.
func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishIndexDocumentMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("consumer", "Failed to unmarshal message", map[string]interface{}{"error": err.Error()})
		msg.Ack() // Malformed payloads never become valid; do not retry.
		return
	}

	document, err := cs.documentRepo.FindById(ctx, payload.DocumentId)
	if err != nil {
		cs.logger.Error("consumer", "Failed to fetch document", map[string]interface{}{
			"document_id": payload.DocumentId.String(),
			"error":       err.Error(),
		})
		msg.Nack()
		return
	}
	if document == nil {
		cs.logger.Warn("consumer", "Document vanished before embedding", map[string]interface{}{
			"document_id": payload.DocumentId.String(),
		})
		msg.Ack()
		return
	}

	// Re-indexing replaces any chunks from a previous run.
	if err := cs.chunkRepo.DeleteByDocumentId(ctx, document.Id); err != nil {
		cs.logger.Error("consumer", "Failed to clear stale chunks", map[string]interface{}{
			"document_id": document.Id.String(),
			"error":       err.Error(),
		})
		msg.Nack()
		return
	}

	metadata := make(map[string]string, len(document.Metadata)+2)
	for k, v := range document.Metadata {
		metadata[k] = v
	}
	metadata["title"] = document.Title
	metadata["source"] = document.Source

	chunks := cs.chunker.Split(store.Document{
		Id:       document.Id,
		Title:    document.Title,
		Source:   document.Source,
		Content:  document.Content,
		Metadata: metadata,
	})

	cs.logger.Info("consumer", "Embedding document", map[string]interface{}{
		"document_id": document.Id.String(),
		"chunks":      len(chunks),
	})

	embeddings := make([]*entity.ChunkEmbedding, 0, len(chunks))
	for _, chunk := range chunks {
		values, err := cs.embed(chunk.Content)
		if err != nil {
			cs.logger.Error("consumer", "Embedding generation failed", map[string]interface{}{
				"document_id": document.Id.String(),
				"chunk_index": chunk.Index,
				"error":       err.Error(),
			})
			msg.Nack()
			return
		}

		embeddings = append(embeddings, &entity.ChunkEmbedding{
			Id:             chunk.Id,
			Content:        chunk.Content,
			EmbeddingValue: values,
			DocumentId:     document.Id,
			ChunkIndex:     chunk.Index,
			Metadata:       chunk.Metadata,
		})
	}

	if err := cs.chunkRepo.CreateBulk(ctx, embeddings); err != nil {
		cs.logger.Error("consumer", "Failed to persist chunk embeddings", map[string]interface{}{
			"document_id": document.Id.String(),
			"error":       err.Error(),
		})
		msg.Nack()
		return
	}

	cs.logger.Info("consumer", "Document embedded", map[string]interface{}{
		"document_id": document.Id.String(),
		"chunks":      len(embeddings),
	})
	msg.Ack()
}

// embed falls back to a zero vector when no provider is configured, so
// keyword search still sees the chunk text.
func (cs *consumerService) embed(content string) ([]float32, error) {
	if cs.embeddingProvider == nil {
		return make([]float32, embeddingDim), nil
	}
	res, err := cs.embeddingProvider.Generate(content, embedding.TaskRetrievalDocument)
	if err != nil {
		return nil, err
	}
	return res.Embedding.Values, nil
}
