package main

import (
	"context"
	"errors"
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

	"voicesearch/api/config"
	"voicesearch/api/handlers"
	"voicesearch/api/service"
	"voicesearch/pkg/broker"
	"voicesearch/pkg/kv"
	"voicesearch/pkg/lifecycle"
	"voicesearch/pkg/logger"
	"voicesearch/pkg/metrics"
	"voicesearch/pkg/middleware"
	"voicesearch/pkg/tasks"
	"voicesearch/pkg/telemetry"
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

	log.Info("API Service starting",
		zap.String("port", cfg.Port),
		zap.String("env", cfg.Env),
		zap.Strings("kafka_brokers", cfg.Broker.Brokers),
		zap.String("exchange", cfg.Broker.Exchange),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		log.Fatal("Failed to register metrics", zap.Error(err))
	}

	shutdownTracer, err := telemetry.Init(rootCtx, "gateway")
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

	producer, err := broker.NewProducer(cfg.Broker)
	if err != nil {
		log.Fatal("Failed to create producer", zap.Error(err))
	}
	closers.Push("producer", producer.Close)
	log.Info("Connected to broker")

	taskService := service.NewTaskService(tasks.NewStore(cache, cfg.TaskTTL), producer, log)
	taskHandler := handlers.NewTaskHandler(taskService, log, cfg.MaxFileSize)

	r := chi.NewRouter()
	r.Use(middleware.Recovery(log))
	r.Use(middleware.TraceID)
	r.Use(middleware.Logging(log))
	r.Use(metrics.Middleware())

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())
	handlers.Mount(r, taskHandler, middleware.RateLimit(cfg.RateLimit, cfg.RateBurst))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           otelhttp.NewHandler(r, "gateway"),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	log.Info("Server started", zap.String("address", srv.Addr))

	select {
	case <-rootCtx.Done():
		log.Info("Shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", zap.Error(err))
	}
	log.Info("Server stopped")
}
