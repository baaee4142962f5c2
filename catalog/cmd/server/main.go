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

	"voicesearch/catalog/config"
	"voicesearch/catalog/elastic"
	"voicesearch/catalog/handlers"
	"voicesearch/catalog/service"
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

	log.Info("Catalog service starting",
		zap.String("port", cfg.Port),
		zap.String("env", cfg.Env),
		zap.String("cache_driver", cfg.Cache.Driver),
		zap.Strings("elastic", cfg.Elastic.Addresses),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		log.Fatal("Failed to register metrics", zap.Error(err))
	}

	shutdownTracer, err := telemetry.Init(rootCtx, "catalog")
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
	log.Info("Connected to cache")

	store, err := elastic.NewStore(cfg.Elastic, otelhttp.NewTransport(http.DefaultTransport))
	if err != nil {
		log.Fatal("Failed to create elasticsearch client", zap.Error(err))
	}
	pingCtx, cancel := context.WithTimeout(rootCtx, 10*time.Second)
	if err := store.Ping(pingCtx); err != nil {
		log.Warn("Elasticsearch not reachable yet", zap.Error(err))
	}
	cancel()

	results := tasks.NewStore(cache, cfg.ResultTTL)
	base := service.NewBase(cache, store, results, cfg.CacheTTL, log)

	filmHandler := handlers.NewFilmHandler(service.NewFilmService(base, cfg.Indexes.Movies), log)
	genreHandler := handlers.NewGenreHandler(service.NewGenreService(base, cfg.Indexes.Genres), log)
	personHandler := handlers.NewPersonHandler(service.NewPersonService(base, cfg.Indexes.Persons, cfg.Indexes.Movies), log)

	r := chi.NewRouter()
	r.Use(middleware.Recovery(log))
	r.Use(middleware.TraceID)
	r.Use(middleware.Logging(log))
	r.Use(metrics.Middleware())
	r.Use(middleware.RateLimit(cfg.RateLimit, cfg.RateBurst))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())
	handlers.Mount(r, filmHandler, genreHandler, personHandler)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           otelhttp.NewHandler(r, "catalog"),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
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
