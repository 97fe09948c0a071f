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
	logger = logger.With(zap.String("service", "query-api"))

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

	tokens, err := httpx.ParseTokens(cfg.APITokens)
	if err != nil {
		logger.Fatal("API_TOKENS error", zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	router := api.NewQueryRouter(api.QueryDeps{
		Common: api.Common{
			Service:  "query-api",
			Identity: httpx.Identity(tokens, cfg.AllowTenantHeader),
			Metrics:  metrics.New(reg),
			Logger:   logger,
		},
		Store: storage.NewRepository(dbPool),
	})

	server := &http.Server{
		Addr:              cfg.QueryHTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("query-api listening", zap.String("addr", cfg.QueryHTTPAddr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("query-api server error", zap.Error(err))
	}
}
