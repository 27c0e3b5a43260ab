package bootstrap

import (
	"context"
	"fmt"
	"time"

	"subsidy-intake-be/internal/config"
	"subsidy-intake-be/internal/controller"
	"subsidy-intake-be/internal/pkg/logger"
	"subsidy-intake-be/internal/repository/contract"
	"subsidy-intake-be/internal/repository/implementation"
	"subsidy-intake-be/internal/repository/memory"
	"subsidy-intake-be/internal/repository/redisstore"
	"subsidy-intake-be/internal/service"
	"subsidy-intake-be/pkg/corpus"
	"subsidy-intake-be/pkg/delivery"
	"subsidy-intake-be/pkg/embedding"
	"subsidy-intake-be/pkg/line"
	"subsidy-intake-be/pkg/llm/factory"
	"subsidy-intake-be/pkg/message"
	"subsidy-intake-be/pkg/relevance"
	"subsidy-intake-be/pkg/retrieval"
	"subsidy-intake-be/pkg/selection"
	"subsidy-intake-be/pkg/similarity"

	pktNats "subsidy-intake-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const module = "Bootstrap"

type Container struct {
	// Controllers
	WebhookController controller.IWebhookController
	SessionController controller.ISessionController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	Logger logger.ILogger

	closers []func()
}

// NewContainer wires every component. db may be nil unless the session
// store or the corpus source is postgres.
func NewContainer(ctx context.Context, db *gorm.DB, cfg *config.Config) (*Container, error) {
	c := &Container{}

	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	auditLogger := logger.NewIsolatedLogger(cfg.App.AuditLogPath)
	c.Logger = sysLogger

	// 2. Event Bus
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 256},
		watermill.NewStdLogger(false, false),
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })
	publisher := service.NewPublisherService(pubSub, cfg.App.EventTopic)

	var relay service.EventRelay
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		sysLogger.Warn(module, "NATS unavailable, domain events are only logged", map[string]interface{}{"error": err.Error()})
	} else {
		relay = natsPub
		c.closers = append(c.closers, natsPub.Close)
	}
	c.ConsumerService = service.NewConsumerService(pubSub, cfg.App.EventTopic, relay, sysLogger)

	// 3. AI providers
	embeddingProvider := newEmbeddingProvider(cfg, sysLogger)

	llmBaseURL, llmKey := cfg.Ai.OllamaBaseURL, ""
	switch cfg.Ai.LLMProvider {
	case "openai":
		llmBaseURL, llmKey = cfg.Ai.OpenAIBaseURL, cfg.Keys.OpenAI
		if llmKey == "" {
			llmKey = cfg.Keys.GoogleGemini // Gemini serves the OpenAI-compatible endpoint
		}
	case "huggingface":
		llmBaseURL, llmKey = "", cfg.Keys.HuggingFace
	}
	llmProvider, err := factory.NewLLMProvider(cfg.Ai.LLMProvider, cfg.Ai.LLMModel, llmBaseURL, llmKey)
	if err != nil {
		return nil, fmt.Errorf("init llm provider: %w", err)
	}
	sysLogger.Info(module, "LLM provider ready", map[string]interface{}{
		"provider": cfg.Ai.LLMProvider,
		"model":    cfg.Ai.LLMModel,
	})

	// 4. Storage
	sessions, err := c.newSessionRepository(ctx, db, cfg, sysLogger)
	if err != nil {
		return nil, err
	}

	var candidates contract.CandidateRepository
	if db != nil {
		candidates = implementation.NewCandidateRepository(db)
	}
	entries, err := corpus.NewLoader(cfg.Pipeline.CorpusSource, cfg.Pipeline.CorpusCSVPath, candidates, sysLogger).Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	index := similarity.NewIndex(entries, sysLogger)

	// 5. Pipeline
	orchestrator := retrieval.NewOrchestrator(
		sessions,
		relevance.NewGate(llmProvider, sysLogger),
		embeddingProvider,
		index,
		publisher,
		retrieval.Config{TopN: cfg.Pipeline.TopN, HandoffTTL: cfg.Pipeline.HandoffTTL},
		sysLogger,
	)
	resolver := selection.NewResolver(sessions, publisher, sysLogger)

	var sender delivery.Sender
	if cfg.Line.Enabled() {
		sender = line.NewClient(cfg.Line.APIBaseURL, cfg.Line.ChannelAccessToken)
	} else {
		sysLogger.Warn(module, "LINE_CHANNEL_ACCESS_TOKEN not set, delivery disabled", nil)
	}
	dispatcher := delivery.NewDispatcher(sender, sysLogger)

	conversation := service.NewConversationService(orchestrator, resolver, message.NewFactory(), dispatcher, sysLogger, auditLogger)

	// 6. Controllers
	c.WebhookController = controller.NewWebhookController(conversation, cfg.Line.ChannelSecret, cfg.Line.Enabled(), index.Len())
	c.SessionController = controller.NewSessionController(
		service.NewSessionService(sessions, cfg.Pipeline.HandoffTTL),
		cfg.App.AdminJWTSecret,
	)

	return c, nil
}

func newEmbeddingProvider(cfg *config.Config, log logger.ILogger) embedding.EmbeddingProvider {
	var provider embedding.EmbeddingProvider
	switch cfg.Ai.EmbeddingProvider {
	case "ollama":
		provider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel)
	case "jina":
		provider = embedding.NewJinaProvider(cfg.Keys.Jina)
	default:
		provider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
	}
	log.Info(module, "Embedding provider ready", map[string]interface{}{
		"provider":  cfg.Ai.EmbeddingProvider,
		"cache_ttl": cfg.Ai.EmbeddingCacheTTL.String(),
	})
	return embedding.NewCachedProvider(provider, cfg.Ai.EmbeddingCacheTTL)
}

func (c *Container) newSessionRepository(ctx context.Context, db *gorm.DB, cfg *config.Config, log logger.ILogger) (contract.SessionRepository, error) {
	retention := cfg.Pipeline.SessionRetention

	switch cfg.Pipeline.SessionStore {
	case "redis":
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Warn(module, "Failed to parse Redis URL, using it as address", map[string]interface{}{"error": err.Error()})
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb := redis.NewClient(opt)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		c.closers = append(c.closers, func() { _ = rdb.Close() })
		return redisstore.NewSessionRepository(rdb, retention), nil

	case "postgres":
		if db == nil {
			return nil, fmt.Errorf("session store postgres needs DB_CONNECTION_STRING")
		}
		return implementation.NewSessionRepository(db), nil

	case "memory", "":
		return memory.NewSessionRepository(retention), nil

	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.Pipeline.SessionStore)
	}
}

// Close releases connections in reverse creation order and flushes logs
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}
}
