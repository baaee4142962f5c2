package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"voicesearch/pkg/broker"
	"voicesearch/pkg/kv"
	"voicesearch/pkg/lifecycle"
	"voicesearch/pkg/logger"
	"voicesearch/pkg/metrics"
	"voicesearch/pkg/tasks"
	"voicesearch/pkg/telemetry"
	"voicesearch/worker/catalog"
	"voicesearch/worker/config"
	"voicesearch/worker/pool"
	"voicesearch/worker/service"
	"voicesearch/worker/speech"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log, err := logger.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("Worker Service starting...",
		zap.Strings("kafka_brokers", cfg.Broker.Brokers),
		zap.String("queue", cfg.Queue),
		zap.Strings("bindings", cfg.BindingKeys),
		zap.Int("workers", cfg.WorkerCount),
		zap.String("speech_driver", cfg.Speech.Driver),
		zap.String("catalog_url", cfg.CatalogURL),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		log.Fatal("Failed to register metrics", zap.Error(err))
	}

	shutdownTracer, err := telemetry.Init(rootCtx, "worker")
	if err != nil {
		log.Warn("Tracing disabled", zap.Error(err))
	}

	closers := lifecycle.NewStack(log)
	defer closers.Close()
	if shutdownTracer != nil {
		closers.Push("tracer", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return shutdownTracer(ctx)
		})
	}

	connectCtx, cancel := context.WithTimeout(rootCtx, 10*time.Second)
	cache, err := kv.Connect(connectCtx, cfg.Cache)
	cancel()
	if err != nil {
		log.Fatal("Failed to connect to cache", zap.Error(err))
	}
	closers.Push("cache", cache.Close)
	store := tasks.NewStore(cache, cfg.TaskTTL)

	recognizer, err := speech.New(cfg.Speech, &http.Client{
		Timeout:   cfg.Speech.Timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	})
	if err != nil {
		log.Fatal("Failed to create speech recognizer", zap.Error(err))
	}

	catalogClient := catalog.NewClient(cfg.CatalogURL, &http.Client{
		Timeout:   cfg.CatalogTimeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}, cfg.CatalogRetry)

	processor := service.NewProcessor(recognizer, catalogClient, store, log)

	deadLetters, err := broker.NewProducer(cfg.Broker)
	if err != nil {
		log.Fatal("Failed to create dead-letter producer", zap.Error(err))
	}
	closers.Push("dead-letter producer", deadLetters.Close)

	workers, err := pool.NewWorkerPool(cfg.WorkerCount, func(id int) (pool.Consumer, error) {
		brokerCfg := cfg.Broker
		brokerCfg.ClientID = fmt.Sprintf("%s-%d", cfg.Broker.ClientID, id)
		return broker.NewConsumer(brokerCfg, cfg.Queue, log.With(zap.Int("worker", id)),
			broker.WithDeadLetters(deadLetters),
			broker.WithDeadLetterHook(processor.OnDeadLetter),
		)
	}, log)
	if err != nil {
		log.Fatal("Failed to create consumers", zap.Error(err))
	}
	closers.Push("consumers", workers.Close)

	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Metrics server failed", zap.Error(err))
		}
	}()
	closers.Push("metrics server", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return metricsSrv.Shutdown(ctx)
	})

	log.Info("Worker is running", zap.String("metrics_addr", cfg.MetricsAddr))
	if err := workers.Run(rootCtx, cfg.BindingKeys, processor.Handle); err != nil {
		log.Error("Workers stopped with error", zap.Error(err))
	}
	log.Info("Worker Service stopped")
}
