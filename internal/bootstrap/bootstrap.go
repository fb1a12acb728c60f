package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bpe-platform/chatbot-service/internal/config"
	"github.com/bpe-platform/chatbot-service/internal/core/domain"
	"github.com/bpe-platform/chatbot-service/internal/core/ports"
	"github.com/bpe-platform/chatbot-service/internal/core/usecase"
	"github.com/bpe-platform/chatbot-service/internal/infrastructure/llm/llamacpp"
	"github.com/bpe-platform/chatbot-service/internal/infrastructure/llm/openaicompat"
	"github.com/bpe-platform/chatbot-service/internal/infrastructure/queue/nats"
	"github.com/bpe-platform/chatbot-service/internal/infrastructure/repository/postgres"
	"github.com/bpe-platform/chatbot-service/internal/infrastructure/resilience"
	"github.com/bpe-platform/chatbot-service/internal/infrastructure/search/bleveindex"
	"github.com/bpe-platform/chatbot-service/internal/infrastructure/search/elastic"
)

// App wires the configured adapters into the chatbot usecases. Both binaries
// share this assembly; the api ignores the reindexer wiring it does not use
// and vice versa.
type App struct {
	Config config.Config

	Queue       ports.MessageQueue
	Store       ports.FAQStore
	FAQAnswerer ports.FAQAnswerer
	SocialBot   ports.SocialAnswerer
	FAQManager  ports.FAQManager
	Reindexer   ports.Reindexer

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewFAQRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	if seeded, err := repo.SeedDefaults(ctx); err != nil {
		return nil, fmt.Errorf("seed faqs: %w", err)
	} else if seeded > 0 {
		log.InfoContext(ctx, "seeded default faqs", slog.Int("count", seeded))
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	generator := buildGenerator(ctx, cfg, executor, log)

	faqIndex, socialIndex, indexWriter, closeIndex, err := buildIndexes(ctx, cfg, executor, log)
	if err != nil {
		queue.Close()
		_ = db.Close()
		return nil, err
	}

	retrievalCfg := usecase.RetrievalConfig{
		TextWeight:    cfg.TextChannelWeight,
		KeywordWeight: cfg.KeywordChannelWeight,
		ChannelLimit:  cfg.ChannelResultLimit,
	}

	var faqRetriever *usecase.Retriever[domain.FAQDocument]
	if faqIndex != nil {
		faqRetriever = usecase.NewRetriever(faqIndex,
			func(d domain.FAQDocument) string { return d.ID }, retrievalCfg)
	}

	var socialRetriever *usecase.Retriever[domain.SocialDocument]
	if socialIndex != nil {
		socialCfg := retrievalCfg
		socialCfg.MinHitScore = cfg.SocialInclusionFloor
		socialRetriever = usecase.NewRetriever(socialIndex,
			func(d domain.SocialDocument) string { return d.ID }, socialCfg)
	}

	faqAnswerer := usecase.NewFAQAnswerService(faqRetriever, generator, usecase.FAQAnswerConfig{
		DirectThreshold:    cfg.FAQDirectAnswerThreshold,
		AlternativeFloor:   cfg.FAQAlternativeFloor,
		ContextSize:        cfg.FAQContextSize,
		RAGConfidenceScale: cfg.FAQRAGConfidenceScale,
	}, log)

	socialAnswerer := usecase.NewSocialAnswerService(socialRetriever, generator, usecase.SocialAnswerConfig{
		SourceDisplayFloor:  cfg.SocialSourceDisplayFloor,
		ContextSize:         cfg.SocialContextSize,
		ContextContentLimit: cfg.SocialContextContentLimit,
		DirectContentLimit:  cfg.SocialDirectContentLimit,
	}, log)

	app := &App{
		Config:      cfg,
		Queue:       queue,
		Store:       repo,
		FAQAnswerer: faqAnswerer,
		SocialBot:   socialAnswerer,
		FAQManager:  usecase.NewFAQAdminService(repo, queue, log),
		closeFn: func() {
			queue.Close()
			if closeIndex != nil {
				closeIndex()
			}
			_ = db.Close()
		},
	}
	if indexWriter != nil {
		app.Reindexer = usecase.NewReindexService(repo, indexWriter, log)
	}
	return app, nil
}

// buildGenerator returns nil when generation is disabled or the backend is
// unknown; the answer strategies degrade to stored/templated answers.
func buildGenerator(ctx context.Context, cfg config.Config, executor *resilience.Executor, log *slog.Logger) ports.AnswerGenerator {
	if !cfg.LLMEnabled {
		return nil
	}
	switch cfg.LLMBackend {
	case "llamacpp":
		client := llamacpp.New(llamacpp.Config{
			BaseURL:     cfg.LlamaURL,
			MaxTokens:   cfg.LLMMaxTokens,
			Temperature: cfg.LLMTemperature,
			Timeout:     time.Duration(cfg.LLMTimeoutSecs) * time.Second,
		}, executor)
		if err := client.Healthy(ctx); err != nil {
			log.WarnContext(ctx, "llama server not healthy at startup, generation stays enabled",
				slog.Any("error", err))
		}
		return client
	case "openai":
		return openaicompat.New(openaicompat.Config{
			BaseURL:     cfg.OpenAIBaseURL,
			APIKey:      cfg.OpenAIAPIKey,
			Model:       cfg.OpenAIModel,
			MaxTokens:   cfg.LLMMaxTokens,
			Temperature: cfg.LLMTemperature,
		}, executor)
	default:
		log.WarnContext(ctx, "unknown llm backend, generation disabled",
			slog.String("backend", cfg.LLMBackend))
		return nil
	}
}

// buildIndexes resolves the search backend. An unreachable Elasticsearch is
// not fatal: the chatbot starts with retrieval disabled and reports the
// feature unavailable until the cluster returns.
func buildIndexes(ctx context.Context, cfg config.Config, executor *resilience.Executor, log *slog.Logger) (
	ports.DocumentIndex[domain.FAQDocument],
	ports.DocumentIndex[domain.SocialDocument],
	ports.FAQIndexWriter,
	func(),
	error,
) {
	switch cfg.SearchBackend {
	case "elasticsearch":
		client := elastic.NewClient(cfg.ElasticURL, 10*time.Second, executor)
		if err := client.Ping(ctx); err != nil {
			log.WarnContext(ctx, "elasticsearch unreachable, retrieval disabled",
				slog.Any("error", err))
			return nil, nil, nil, nil, nil
		}
		faqIndex := elastic.NewFAQIndex(client, cfg.FAQIndexName)
		socialIndex := elastic.NewSocialIndex(client, cfg.SocialIndexPattern)
		return faqIndex, socialIndex, faqIndex, nil, nil
	case "bleve":
		index, err := bleveindex.New(cfg.BleveIndexPath)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("open bleve index: %w", err)
		}
		// No social corpus without a cluster; the data chatbot reports
		// unavailable on this backend.
		return index, nil, index, func() { _ = index.Close() }, nil
	default:
		return nil, nil, nil, nil, fmt.Errorf("unknown search backend %q", cfg.SearchBackend)
	}
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
