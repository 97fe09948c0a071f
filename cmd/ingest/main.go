package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/Jainesh24/cwi-backend/internal/api"
	"github.com/Jainesh24/cwi-backend/internal/config"
	"github.com/Jainesh24/cwi-backend/internal/httpx"
	"github.com/Jainesh24/cwi-backend/internal/logging"
	"github.com/Jainesh24/cwi-backend/internal/metrics"
	"github.com/Jainesh24/cwi-backend/internal/mq"
	"github.com/Jainesh24/cwi-backend/internal/narrative"
	"github.com/Jainesh24/cwi-backend/internal/risk"
	"github.com/Jainesh24/cwi-backend/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.With(zap.String("service", "ingest"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := storage.Open(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns)
	if err != nil {
		logger.Fatal("database error", zap.Error(err))
	}
	defer dbPool.Close()

	if err := storage.RunMigrations(ctx, dbPool); err != nil {
		logger.Fatal("migration error", zap.Error(err))
	}
	repo := storage.NewRepository(dbPool)

	tables, err := risk.LoadTables(cfg.RiskTablesPath)
	if err != nil {
		logger.Fatal("risk tables error", zap.Error(err))
	}

	tokens, err := httpx.ParseTokens(cfg.APITokens)
	if err != nil {
		logger.Fatal("API_TOKENS error", zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	var primary narrative.Generator
	if cfg.OpenAI.Enabled() {
		primary = narrative.NewOpenAI(narrative.OpenAIConfig{
			APIKey:      cfg.OpenAI.APIKey,
			BaseURL:     cfg.OpenAI.BaseURL,
			Model:       cfg.OpenAI.Model,
			MaxTokens:   cfg.OpenAI.MaxTokens,
			Temperature: cfg.OpenAI.Temperature,
		})
	} else {
		logger.Info("OPENAI_API_KEY not set, narratives use the template")
	}
	narrator := narrative.NewResilient(primary, cfg.OpenAI.Timeout,
		narrative.WithLogger(logger), narrative.WithObserver(m))

	engine := risk.NewEngine(repo, repo, risk.NewScorer(tables), narrator,
		risk.WithHistoryWindow(cfg.HistoryWindow),
		risk.WithLogger(logger),
		risk.WithObserver(m))

	publisher := mq.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopicAnalyzed)
	defer publisher.Close()

	router := api.NewIngestRouter(api.IngestDeps{
		Common: api.Common{
			Service:  "ingest",
			Identity: httpx.Identity(tokens, cfg.AllowTenantHeader),
			Metrics:  m,
			Logger:   logger,
		},
		Store:     repo,
		Analyzer:  engine,
		Publisher: publisher,
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("ingest listening", zap.String("addr", cfg.HTTPAddr), zap.String("topic", cfg.KafkaTopicAnalyzed))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("ingest server error", zap.Error(err))
	}
}
