package bootstrap

import (
	"log"
	"time"

	"rag-chat-be/internal/config"
	"rag-chat-be/internal/controller"
	"rag-chat-be/internal/pkg/logger"
	"rag-chat-be/internal/repository/implementation"
	"rag-chat-be/internal/service"
	"rag-chat-be/pkg/chunker"
	"rag-chat-be/pkg/embedding"
	"rag-chat-be/pkg/llm"
	"rag-chat-be/pkg/llm/factory"
	"rag-chat-be/pkg/rag/prompt"
	"rag-chat-be/pkg/rag/stream"
	"rag-chat-be/pkg/retrieval"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController   controller.IChatController
	IndexController  controller.IIndexController
	SearchController controller.ISearchController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	documentRepo := implementation.NewDocumentRepository(db)
	chunkRepo := implementation.NewChunkEmbeddingRepository(db)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)
	publisherService := service.NewPublisherService(cfg.Rag.IndexTopicName, pubSub)

	// 3. AI Backends
	// A missing embedding backend degrades retrieval to keyword search
	// instead of refusing to start.
	var embeddingProvider embedding.EmbeddingProvider
	switch cfg.Ai.EmbeddingProvider {
	case "ollama":
		embeddingProvider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.EmbeddingModel)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.EmbeddingModel)
	case "openai":
		if cfg.Ai.OpenAIAPIKey == "" && cfg.Ai.OpenAIBaseURL == "" {
			log.Printf("[WARN] OpenAI embedding provider selected but no API key or base URL set; vector search disabled")
		} else {
			embeddingProvider = embedding.NewOpenAIProvider(cfg.Ai.OpenAIBaseURL, cfg.Ai.EmbeddingModel, cfg.Ai.OpenAIAPIKey)
			log.Printf("[INFO] Using Embedding Provider: OPENAI (%s)", cfg.Ai.EmbeddingModel)
		}
	default:
		log.Printf("[WARN] Unknown embedding provider %q; vector search disabled", cfg.Ai.EmbeddingProvider)
	}
	if embeddingProvider != nil {
		ttl := time.Duration(cfg.Ai.EmbedCacheTTLMin) * time.Minute
		embeddingProvider = embedding.NewCachedProvider(embeddingProvider, ttl)
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		llmBaseURL(cfg),
		cfg.Ai.OpenAIAPIKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Retrieval Chain
	keywordStrategy := retrieval.NewKeywordStrategy(chunkRepo)

	var chain []retrieval.Strategy
	switch cfg.Rag.SearchType {
	case "hybrid":
		if embeddingProvider != nil {
			chain = append(chain, retrieval.NewHybridStrategy(embeddingProvider, chunkRepo))
		}
		chain = append(chain, keywordStrategy)
	case "keyword":
		chain = append(chain, keywordStrategy)
	default:
		if embeddingProvider != nil {
			chain = append(chain, retrieval.NewVectorStrategy(embeddingProvider, chunkRepo, cfg.Rag.ScoreThreshold))
		}
		chain = append(chain, keywordStrategy)
	}
	chain = append(chain, retrieval.NewDegradedStrategy())
	coordinator := retrieval.NewCoordinator(chain, cfg.Rag.TopK, sysLogger)

	// 5. Chunking
	splitter, err := chunker.New(cfg.Rag.ChunkSize, cfg.Rag.ChunkOverlap)
	if err != nil {
		log.Fatalf("[FATAL] Invalid chunking configuration: %v", err)
	}

	// 6. Services
	assembler := prompt.NewAssemblerWithSystemPrompt(cfg.Rag.SystemPrompt)
	bridge := stream.NewBridge(sysLogger)
	loaderService := service.NewDocumentLoaderService()

	chatService := service.NewChatService(
		llmProvider,
		coordinator,
		assembler,
		bridge,
		sysLogger,
		llm.WithTemperature(cfg.Ai.Temperature),
	)
	indexService := service.NewIndexService(documentRepo, chunkRepo, loaderService, publisherService, sysLogger)
	searchService := service.NewSearchService(coordinator, sysLogger)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Rag.IndexTopicName,
		documentRepo,
		chunkRepo,
		splitter,
		embeddingProvider,
		sysLogger,
	)

	// 7. Controllers
	return &Container{
		ChatController:   controller.NewChatController(chatService, cfg.Ai.LLMModel, sysLogger),
		IndexController:  controller.NewIndexController(indexService),
		SearchController: controller.NewSearchController(searchService),
		ConsumerService:  consumerService,
		Logger:           sysLogger,
	}
}

func llmBaseURL(cfg *config.Config) string {
	if cfg.Ai.LLMProvider == "openai" {
		return cfg.Ai.OpenAIBaseURL
	}
	return cfg.Ai.OllamaBaseURL
}
