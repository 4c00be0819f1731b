package cmd

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mapletenders/tenderindex/internal/config"
	"github.com/mapletenders/tenderindex/internal/db"
	dbRedis "github.com/mapletenders/tenderindex/internal/db/redis"
	"github.com/mapletenders/tenderindex/internal/domain"
	logpkg "github.com/mapletenders/tenderindex/internal/logger"
	"github.com/mapletenders/tenderindex/internal/metrics"
	"github.com/mapletenders/tenderindex/internal/repository/embcache"
	indexrepo "github.com/mapletenders/tenderindex/internal/repository/index"
	searchrepo "github.com/mapletenders/tenderindex/internal/repository/search"
	sourcerepo "github.com/mapletenders/tenderindex/internal/repository/source"
	openaiEmb "github.com/mapletenders/tenderindex/internal/transport/openai"
	embeddinguc "github.com/mapletenders/tenderindex/internal/usecase/embedding"
	healthuc "github.com/mapletenders/tenderindex/internal/usecase/health"
	reconcileuc "github.com/mapletenders/tenderindex/internal/usecase/reconcile"
	searchuc "github.com/mapletenders/tenderindex/internal/usecase/search"
)

// embeddingProvider labels embedding metrics.
const embeddingProvider = "openai"

// app is the composition root: every store and service, built once from config.
type app struct {
	cfg    config.Config
	env    string
	logger *zap.Logger

	store  db.Store
	source *sourcerepo.Repo

	search     *searchuc.Service
	reconcile  *reconcileuc.Service
	health     *healthuc.Service
	embeddings *embeddinguc.Service
}

// newApp loads config, connects the index store and the source store, and wires the services.
func newApp(ctx context.Context, env string) (*app, error) {
	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:      cfg.Index.Addrs,
		Password:   cfg.Index.Password,
		ClientName: "tenderindex",
	})
	if err != nil {
		return nil, fmt.Errorf("create index store: %w", err)
	}

	if err := store.WaitForReady(ctx, time.Duration(cfg.Index.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("index store not ready: %w", err)
	}
	logger.Info("Connected to index store", zap.Strings("addrs", cfg.Index.Addrs))

	source, err := sourcerepo.Open(cfg.Source.Driver, cfg.Source.DSN)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("open source store: %w", err)
	}
	// Unreachable source is not fatal: search does not read it
	if err := source.Ping(ctx); err != nil {
		logger.Warn("Source store not reachable", zap.String("driver", cfg.Source.Driver), zap.Error(err))
	}

	metrics.Register()

	base, docEmbedder, queryEmbedder := buildEmbedders(cfg.Embedding, store, logger)
	logger.Info("Embedders created",
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.Bool("query_instruction", cfg.Embedding.QueryInstruction != ""),
	)

	index := indexrepo.New(store, indexrepo.Config{
		Name:      cfg.Index.Name,
		KeyPrefix: cfg.Index.KeyPrefix,
		VectorDim: cfg.Embedding.Dimensions,
		HNSW: indexrepo.HNSWConfig{
			M:           cfg.Index.HNSWM,
			EFConstruct: cfg.Index.HNSWEFConstruct,
		},
	})
	search := searchrepo.New(store, index.Name(), index.KeyPrefix())

	healthSvc := healthuc.New(store, index, newEmbeddingHealthChecker(base))

	return &app{
		cfg:    cfg,
		env:    env,
		logger: logger,
		store:  store,
		source: source,
		search: searchuc.New(search, index, queryEmbedder, cfg.Index.Candidates, logger),
		reconcile: reconcileuc.New(source, index, healthSvc, reconcileuc.Config{
			Workers:       cfg.Sync.Workers,
			ProgressEvery: cfg.Sync.ProgressEvery,
		}, logger),
		health:     healthSvc,
		embeddings: embeddinguc.New(queryEmbedder, docEmbedder, logger),
	}, nil
}

// close releases both stores and flushes the logger.
func (a *app) close() {
	if err := a.source.Close(); err != nil {
		a.logger.Warn("Failed to close source store", zap.Error(err))
	}
	a.store.Close()
	_ = a.logger.Sync()
}

// buildEmbedders assembles the decorator chain: OpenAI -> Cached -> Instruction (queries only).
// base is returned for health checks, which must bypass the cache.
func buildEmbedders(
	cfg config.EmbeddingConfig, store db.KVStore, logger *zap.Logger,
) (base *openaiEmb.Embedder, docs, query domain.Embedder) {
	base = openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		Provider:   embeddingProvider,
		Logger:     logger,
	})

	model := embcache.Model{Name: cfg.Model, Dim: cfg.Dimensions}
	docs = embcache.New(base, store, model, cfg.CacheSize, metrics.EmbeddingCacheTotal, logger).
		WithTTL(time.Duration(cfg.CacheTTLHours) * time.Hour)

	// Instruction prefix is outermost so the cache key includes it
	query = docs
	if cfg.QueryInstruction != "" {
		query = domain.NewInstructionEmbedder(docs, cfg.QueryInstruction)
	}
	return base, docs, query
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}
