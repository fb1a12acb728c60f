package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bpe-platform/chatbot-service/internal/bootstrap"
	"github.com/bpe-platform/chatbot-service/internal/config"
	"github.com/bpe-platform/chatbot-service/internal/observability/logging"
	"github.com/bpe-platform/chatbot-service/internal/observability/metrics"
)

const serviceName = "chatbot-indexer"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	log := logging.NewJSONLogger(os.Stdout, serviceName, cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		log.Error("bootstrap", slog.Any("error", err))
		os.Exit(1)
	}
	defer app.Close()

	if app.Reindexer == nil {
		log.Error("no index writer available, indexer cannot run")
		os.Exit(1)
	}

	m := metrics.NewIndexerMetrics()
	metricsServer := &http.Server{
		Addr:        ":" + cfg.IndexerMetricsPort,
		Handler:     metricsMux(m),
		ReadTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("metrics server listening", slog.String("addr", metricsServer.Addr))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server", slog.Any("error", err))
		}
	}()

	rebuild := func(ctx context.Context, reason string) error {
		start := time.Now()
		docs, err := app.Reindexer.Reindex(ctx)
		status := "success"
		if err != nil {
			status = "error"
		}
		m.RecordReindex(serviceName, status, docs, time.Since(start))
		if err != nil {
			return err
		}
		log.InfoContext(ctx, "index rebuilt",
			slog.String("reason", reason), slog.Int("documents", docs))
		return nil
	}

	// Full rebuild at startup so a fresh index never waits for the first
	// trigger.
	if err := rebuild(ctx, "startup"); err != nil {
		log.ErrorContext(ctx, "startup rebuild failed", slog.Any("error", err))
	}

	if err := app.Queue.SubscribeReindex(ctx, rebuild); err != nil {
		log.Error("reindex subscription", slog.Any("error", err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Error("metrics shutdown", slog.Any("error", err))
	}
}

func metricsMux(m *metrics.IndexerMetrics) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}
