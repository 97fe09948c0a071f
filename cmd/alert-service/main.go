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
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Jainesh24/cwi-backend/internal/alerting"
	"github.com/Jainesh24/cwi-backend/internal/config"
	"github.com/Jainesh24/cwi-backend/internal/logging"
	"github.com/Jainesh24/cwi-backend/internal/metrics"
	"github.com/Jainesh24/cwi-backend/internal/mq"
	"github.com/Jainesh24/cwi-backend/internal/storage"
)

const metricsAddr = ":9102"

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
	logger = logger.With(zap.String("service", "alert-service"))

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

	m := metrics.New(prometheus.NewRegistry())
	processor := alerting.NewProcessor(storage.NewRepository(dbPool), cfg.AlertCooldown, logger, m)

	reader := mq.NewReader(cfg.KafkaBrokers, cfg.KafkaTopicAnalyzed, cfg.ConsumerGroupPrefix+"-alert-service")
	defer reader.Close()

	metricsServer := &http.Server{Addr: metricsAddr, Handler: m.Handler(), ReadHeaderTimeout: 5 * time.Second}

	logger.Info("alert-service consuming",
		zap.String("topic", cfg.KafkaTopicAnalyzed),
		zap.Duration("cooldown", cfg.AlertCooldown))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return processor.Run(gctx, reader)
	})
	g.Go(func() error {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return metricsServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("alert-service stopped", zap.Error(err))
	}
	logger.Info("alert-service shutting down")
}
