package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"pdfchat/internal/ai"
	"pdfchat/internal/app"
	"pdfchat/internal/cache"
	"pdfchat/internal/config"
	"pdfchat/internal/logger"
	"pdfchat/internal/model"
	"pdfchat/internal/pkg/pdfextract"
	mysqlClient "pdfchat/internal/platform/mysql"
	rabbitmqClient "pdfchat/internal/platform/rabbitmq"
	redisClient "pdfchat/internal/platform/redis"
	"pdfchat/internal/repository"
	"pdfchat/internal/vectorstore"
	"pdfchat/internal/vectorstore/memory"
	"pdfchat/internal/vectorstore/milvus"
	"pdfchat/internal/vectorstore/qdrant"
	"pdfchat/internal/weather"
	"pdfchat/internal/worker"
)

// provider is the union the generation backends implement.
type provider interface {
	ai.Embedder
	ai.Generator
}

type App struct {
	Config *config.Config
	Log    *logrus.Entry

	LLM         provider
	VectorStore vectorstore.Store

	// Optional infrastructure; nil when disabled in config.
	MySQL            *gorm.DB
	Redis            *redis.Client
	MQConn           *amqp.Connection
	Publisher        *rabbitmqClient.EvaluationPublisher
	EvaluationWorker *worker.EvaluationPersistWorker
	Documents        *repository.DocumentRepository
	Evaluations      *repository.EvaluationRepository

	Answerer *app.Answerer
	Indexer  *app.Indexer
	Chat     *app.ChatService
	Uploads  *app.UploadService

	StartedAt time.Time
	closers   []func() error
}

// New loads config and wires every component. On error, anything already
// opened is closed before returning.
func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	logger.Init(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	a, err := Wire(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if a.EvaluationWorker != nil {
		if err := a.EvaluationWorker.Start(ctx); err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("start evaluation worker failed: %w", err)
		}
	}
	return a, nil
}

// Wire builds the application from an already loaded config without starting
// background workers.
func Wire(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{
		Config:    cfg,
		Log:       logger.Component("bootstrap"),
		StartedAt: time.Now(),
	}
	if err := a.wire(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) wire(ctx context.Context) error {
	cfg := a.Config

	llm, err := newProvider(ctx, cfg.LLM)
	if err != nil {
		return err
	}
	a.LLM = llm
	if closer, ok := llm.(interface{ Close() error }); ok {
		a.closers = append(a.closers, closer.Close)
	}

	store, err := newVectorStore(ctx, cfg)
	if err != nil {
		return err
	}
	a.VectorStore = store
	a.closers = append(a.closers, store.Close)

	if cfg.MySQL.Enabled {
		db, err := mysqlClient.New(ctx, cfg.MySQLDSN(), &model.DocumentRecord{}, &model.EvaluationRecord{})
		if err != nil {
			return err
		}
		a.MySQL = db
		a.closers = append(a.closers, func() error { return mysqlClient.Close(db) })
		a.Documents = repository.NewDocumentRepository(db)
		a.Evaluations = repository.NewEvaluationRepository(db)
	}

	var weatherCache app.WeatherCache
	if cfg.Redis.Enabled {
		rdb, err := redisClient.New(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		a.Redis = rdb
		a.closers = append(a.closers, rdb.Close)
		weatherCache = cache.NewWeatherCache(rdb, time.Duration(cfg.Weather.CacheTTLSeconds)*time.Second)
	}

	var recorder app.EvaluationRecorder
	if a.Evaluations != nil {
		recorder = a.Evaluations
	}
	if cfg.RabbitMQ.Enabled {
		conn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.EvaluationQueue)
		if err != nil {
			return err
		}
		a.MQConn = conn
		a.closers = append(a.closers, conn.Close)

		a.Publisher = rabbitmqClient.NewEvaluationPublisher(conn, cfg.RabbitMQ.EvaluationQueue)
		a.closers = append(a.closers, a.Publisher.Close)
		recorder = a.Publisher

		if a.Evaluations != nil {
			a.EvaluationWorker = worker.NewEvaluationPersistWorker(
				conn, a.Evaluations, cfg.RabbitMQ.EvaluationQueue, logger.Component("evaluation_worker"),
			)
			a.closers = append(a.closers, func() error { a.EvaluationWorker.Close(); return nil })
		} else {
			a.Log.Warn("rabbitmq enabled without mysql: evaluations are queued but not persisted")
		}
	}

	var ledger app.DocumentLedger
	if a.Documents != nil {
		ledger = a.Documents
	}

	weatherClient := weather.NewClient(weather.Config{
		APIKey:            cfg.Weather.APIKey,
		BaseURL:           cfg.Weather.BaseURL,
		Units:             cfg.Weather.Units,
		Timeout:           time.Duration(cfg.Weather.TimeoutSeconds) * time.Second,
		RequestsPerMinute: cfg.Weather.RequestsPerMinute,
	})

	a.Answerer = app.NewAnswerer(llm, store, llm, app.AnswererConfig{
		Collection: cfg.VectorStore.Collection,
		MaxTokens:  cfg.LLM.MaxOutputTokens,
	}, logger.Component("answerer"))
	a.Indexer = app.NewIndexer(pdfextract.Extractor{}, llm, store, ledger, app.IndexerConfig{
		Collection:   cfg.VectorStore.Collection,
		ChunkWords:   cfg.RAG.ChunkWords,
		OverlapWords: cfg.RAG.OverlapWords,
	}, logger.Component("indexer"))
	a.Chat = app.NewChatService(
		a.Answerer,
		app.NewWeatherWorker(weatherClient, weatherCache, logger.Component("weather")),
		recorder,
		cfg.RAG.TopK,
		logger.Component("chat"),
	)
	a.Uploads = app.NewUploadService(cfg.App.DocumentsDir, a.Indexer, logger.Component("upload"))

	a.Log.WithFields(logrus.Fields{
		"provider":   cfg.LLM.Provider,
		"backend":    cfg.VectorStore.Backend,
		"collection": cfg.VectorStore.Collection,
		"mysql":      cfg.MySQL.Enabled,
		"redis":      cfg.Redis.Enabled,
		"rabbitmq":   cfg.RabbitMQ.Enabled,
	}).Info("application wired")
	return nil
}

func newProvider(ctx context.Context, cfg config.LLMConfig) (provider, error) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	switch cfg.Provider {
	case "openai":
		return ai.NewOpenAICompatibleClient(ai.OpenAIConfig{
			BaseURL:            cfg.BaseURL,
			APIKey:             cfg.APIKey,
			Model:              cfg.Model,
			EmbeddingModel:     cfg.EmbeddingModel,
			EmbeddingBatchSize: cfg.EmbeddingBatchSize,
			Timeout:            timeout,
		}), nil
	case "gemini":
		client, err := ai.NewGeminiClient(ctx, ai.GeminiConfig{
			APIKey:             cfg.APIKey,
			Model:              cfg.Model,
			EmbeddingModel:     cfg.EmbeddingModel,
			MaxOutputTokens:    cfg.MaxOutputTokens,
			EmbeddingBatchSize: cfg.EmbeddingBatchSize,
		})
		if err != nil {
			return nil, fmt.Errorf("create gemini client failed: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}

func newVectorStore(ctx context.Context, cfg *config.Config) (vectorstore.Store, error) {
	vs := cfg.VectorStore
	switch vs.Backend {
	case "memory":
		return memory.New(), nil
	case "milvus":
		store, err := milvus.New(ctx, vs.MilvusAddress)
		if err != nil {
			return nil, fmt.Errorf("connect milvus failed: %w", err)
		}
		return store, nil
	case "qdrant":
		host, port, useTLS, err := cfg.QdrantEndpoint()
		if err != nil {
			return nil, err
		}
		store, err := qdrant.New(qdrant.Config{Host: host, Port: port, APIKey: vs.QdrantAPIKey, UseTLS: useTLS})
		if err != nil {
			return nil, fmt.Errorf("connect qdrant failed: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported vector backend %q", vs.Backend)
	}
}

// Close releases resources in reverse order of acquisition and returns the
// last error seen.
func (a *App) Close() error {
	var closeErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			closeErr = err
		}
	}
	a.closers = nil
	return closeErr
}
