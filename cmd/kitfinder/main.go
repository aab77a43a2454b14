package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kailas-cloud/kitfinder/internal/config"
	"github.com/kailas-cloud/kitfinder/internal/db"
	dbRedis "github.com/kailas-cloud/kitfinder/internal/db/redis"
	"github.com/kailas-cloud/kitfinder/internal/domain"
	"github.com/kailas-cloud/kitfinder/internal/domain/preference"
	logpkg "github.com/kailas-cloud/kitfinder/internal/logger"
	"github.com/kailas-cloud/kitfinder/internal/metrics"
	budgetrepo "github.com/kailas-cloud/kitfinder/internal/repository/budget"
	catalogrepo "github.com/kailas-cloud/kitfinder/internal/repository/catalog"
	"github.com/kailas-cloud/kitfinder/internal/repository/embcache"
	chiTransport "github.com/kailas-cloud/kitfinder/internal/transport/chi"
	openaiEmb "github.com/kailas-cloud/kitfinder/internal/transport/openai"
	"github.com/kailas-cloud/kitfinder/internal/transport/youtube"
	cataloguc "github.com/kailas-cloud/kitfinder/internal/usecase/catalog"
	embeddinguc "github.com/kailas-cloud/kitfinder/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/kitfinder/internal/usecase/health"
	indexuc "github.com/kailas-cloud/kitfinder/internal/usecase/index"
	searchuc "github.com/kailas-cloud/kitfinder/internal/usecase/search"
	videouc "github.com/kailas-cloud/kitfinder/internal/usecase/video"
	"github.com/kailas-cloud/kitfinder/internal/version"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, logpkg.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting kitfinder API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	// Redis 8 and Valkey speak the same command subset; one rueidis store serves both.
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()

	budget := buildBudget(ctx, cfg.Embedding, store, logger)

	// Pass nil interface (not typed nil pointer) when budget is not configured.
	var budgetChecker embeddinguc.BudgetChecker
	if budget != nil {
		budgetChecker = budget
	}

	embedder := buildEmbedder(cfg.Embedding, store, budgetChecker, logger)
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	algorithm := db.VectorHNSW
	if strings.EqualFold(cfg.Index.Algorithm, "flat") {
		algorithm = db.VectorFlat
	}
	catRepo := catalogrepo.New(store, cfg.Index.Collection, cfg.Embedding.Dimensions).
		WithIndex(catalogrepo.IndexConfig{
			Algorithm:   algorithm,
			M:           cfg.Index.HNSWM,
			EFConstruct: cfg.Index.HNSWEFConstruct,
		})
	indexSvc := indexuc.New(catRepo, embedder, logger).WithBatchSize(cfg.Embedding.BatchSize)

	if err := bootstrapCatalog(ctx, cfg, indexSvc, logger); err != nil {
		logger.Fatal("Catalog bootstrap failed", zap.Error(err))
	}

	videoClient, err := youtube.NewClient(ctx, &youtube.Config{
		APIKey:            cfg.Video.APIKey,
		BaseURL:           cfg.Video.BaseURL,
		RequestsPerSecond: cfg.Video.RequestsPerSecond,
		Burst:             cfg.Video.Burst,
		Breaker: youtube.BreakerConfig{
			MaxRequests:         1,
			Interval:            time.Duration(cfg.Video.BreakerIntervalSec) * time.Second,
			Timeout:             time.Duration(cfg.Video.BreakerTimeoutSec) * time.Second,
			ConsecutiveFailures: cfg.Video.BreakerFailures,
		},
		Logger: logger,
	})
	if err != nil {
		logger.Fatal("Failed to create video search client", zap.Error(err))
	}
	if !videoClient.Enabled() {
		logger.Warn("Video search disabled: no API key configured")
	}

	searchSvc := searchuc.New(indexSvc, videouc.NewAugmenter(videoClient))
	healthSvc := healthuc.New(store, embedder).
		WithVideo(videoClient).
		WithItemCounter(indexSvc)

	server := chiTransport.NewServer(
		searchSvc, healthSvc, buildOptions(cfg), cfg.Search.DefaultResults, logger,
	)
	if budget != nil {
		server.WithBudget(budget)
	}

	handler := chiTransport.NewRouter(server, chiTransport.RouterConfig{
		APIKeys:            cfg.Auth.APIKeys,
		CORSAllowedOrigins: cfg.CORS.AllowedOrigins,
		RequestsPerMinute:  cfg.RateLimit.RequestsPerMinute,
		Logger:             logger,
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// bootstrapCatalog creates the index and ingests the catalog per the ingest mode.
// It runs before the HTTP server accepts traffic.
func bootstrapCatalog(ctx context.Context, cfg config.Config, index *indexuc.Service, logger *zap.Logger) error {
	if err := index.EnsureCollection(ctx, cfg.Index.RecreateOnStart); err != nil {
		return fmt.Errorf("ensure collection: %w", err)
	}

	mode := cfg.Catalog.IngestMode
	if cfg.Index.RecreateOnStart && mode == config.IngestIfEmpty {
		mode = config.IngestAlways
	}

	switch mode {
	case config.IngestNever:
		logger.Info("Catalog ingest disabled")
		return nil
	case config.IngestIfEmpty:
		n, err := index.Count(ctx)
		if err != nil {
			return fmt.Errorf("count indexed items: %w", err)
		}
		if n > 0 {
			logger.Info("Catalog already indexed, skipping ingest", zap.Int("items", n))
			return nil
		}
	}

	items, err := cataloguc.LoadFile(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	start := time.Now()
	report, err := index.Ingest(ctx, items)
	if err != nil {
		return fmt.Errorf("ingest catalog: %w", err)
	}
	logger.Info("Catalog ingested",
		zap.String("path", cfg.Catalog.Path),
		zap.Int("items", report.Items),
		zap.Int("tokens", report.Tokens),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

// buildBudget returns nil when no token limit is configured.
func buildBudget(
	ctx context.Context, cfg config.EmbeddingConfig, store db.Store, logger *zap.Logger,
) *embeddinguc.BudgetTracker {
	if cfg.Budget.DailyTokenLimit <= 0 && cfg.Budget.MonthlyTokenLimit <= 0 {
		return nil
	}
	budget := embeddinguc.NewBudgetTracker(
		cfg.Provider,
		cfg.Budget.DailyTokenLimit,
		cfg.Budget.MonthlyTokenLimit,
		embeddinguc.ParseBudgetAction(cfg.Budget.Action),
		logger,
	)
	// Connect persistence store; loads current counters from DB.
	return budget.WithStore(ctx, budgetrepo.New(store, 24*time.Hour))
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented.
func buildEmbedder(
	cfg config.EmbeddingConfig,
	store db.Store,
	budget embeddinguc.BudgetChecker,
	logger *zap.Logger,
) *embeddinguc.InstrumentedEmbedder {
	dims := 0
	if cfg.RequestDimensions {
		dims = cfg.Dimensions
	}
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:           cfg.APIKey,
		BaseURL:          cfg.BaseURL,
		Model:            cfg.Model,
		Dimensions:       dims,
		ExpectDimensions: cfg.Dimensions,
		Provider:         cfg.Provider,
		Logger:           logger,
	})

	var embedder domain.Embedder = embcache.New(base, store, metrics.EmbeddingCacheTotal, logger).
		WithNamespace(cfg.Model, cfg.Dimensions).
		WithTTL(time.Duration(cfg.CacheTTLHours) * time.Hour)

	// Instrumented is outermost so cache hits reach the request usage as 0 tokens.
	return embeddinguc.NewInstrumentedEmbedder(embedder, cfg.Provider, cfg.Model, budget, logger).
		WithMaxBatchSize(cfg.BatchSize)
}

// buildOptions merges configured option sets over the built-in ones.
func buildOptions(cfg config.Config) preference.Options {
	opts := preference.DefaultOptions()
	if len(cfg.Options.Layouts) > 0 {
		opts.Layouts = cfg.Options.Layouts
	}
	if len(cfg.Options.MountingStyles) > 0 {
		opts.MountingStyles = cfg.Options.MountingStyles
	}
	if len(cfg.Options.BudgetTiers) > 0 {
		opts.BudgetTiers = cfg.Options.BudgetTiers
	}
	opts.MaxResults = cfg.Search.MaxResults
	return opts
}
