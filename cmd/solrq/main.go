package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/solrq/internal/config"
	dbRedis "github.com/kailas-cloud/solrq/internal/db/redis"
	logpkg "github.com/kailas-cloud/solrq/internal/logger"
	"github.com/kailas-cloud/solrq/internal/metrics"
	checkpointrepo "github.com/kailas-cloud/solrq/internal/repository/checkpoint"
	"github.com/kailas-cloud/solrq/internal/solr/parser"
	chiTransport "github.com/kailas-cloud/solrq/internal/transport/chi"
	"github.com/kailas-cloud/solrq/internal/transport/solrhttp"
	"github.com/kailas-cloud/solrq/internal/version"
	exportuc "github.com/kailas-cloud/solrq/internal/usecase/export"
	healthuc "github.com/kailas-cloud/solrq/internal/usecase/health"
	searchuc "github.com/kailas-cloud/solrq/internal/usecase/search"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting solrq API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("solr_url", cfg.Solr.BaseURL),
		zap.String("solr_core", cfg.Solr.Core),
		zap.Bool("checkpoints", cfg.Checkpoint.Enabled()),
	)

	// Register Solr and cursor metrics explicitly (no init())
	metrics.RegisterSolrMetrics()

	solrClient, err := solrhttp.New(solrhttp.Config{
		BaseURL: cfg.Solr.BaseURL,
		Core:    cfg.Solr.Core,
		Timeout: cfg.Solr.Timeout(),
		Logger:  logger,
	})
	if err != nil {
		logger.Fatal("Failed to create Solr client", zap.Error(err))
	}

	// Checkpoint store is optional; without it exports cannot resume.
	// Interfaces stay nil (not typed nil pointers) when it is off.
	var (
		checkpoints    exportuc.CheckpointStore
		checkpointPing healthuc.Pinger
	)
	if cfg.Checkpoint.Enabled() {
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Checkpoint.Addrs,
			Password: cfg.Checkpoint.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create checkpoint store", zap.Error(err))
		}
		defer store.Close()

		ctx := context.Background()
		timeout := time.Duration(cfg.Checkpoint.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(ctx, timeout); err != nil {
			logger.Fatal("Checkpoint store not ready", zap.Error(err))
		}
		logger.Info("Connected to checkpoint store", zap.Strings("addrs", cfg.Checkpoint.Addrs))

		checkpoints = checkpointrepo.New(store, cfg.Checkpoint.KeyPrefix, cfg.Checkpoint.TTL())
		checkpointPing = store
	}

	// Use cases
	compiler := parser.New(logger)
	searchSvc := searchuc.New(compiler, solrClient).WithMaxRows(cfg.Solr.MaxPageSize)
	exportSvc := exportuc.New(
		solrhttp.NewFetcher[json.RawMessage](solrClient, compiler),
		compiler,
		checkpoints,
		exportuc.Config{
			Core:      cfg.Solr.Core,
			UniqueKey: cfg.Solr.UniqueKey,
			BatchSize: cfg.Solr.PageSize,
			Every:     cfg.Checkpoint.EveryDocs,
		},
		logger,
	).WithObserver(metrics.NewCursorObserver(cfg.Solr.Core))
	healthSvc := healthuc.New(solrClient, checkpointPing)

	server := chiTransport.NewServer(searchSvc, exportSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware(metrics.WithStreamErrorTrailer(chiTransport.TrailerError)))
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
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

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					if rvr == http.ErrAbortHandler {
						panic(rvr)
					}
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.String("path", r.URL.Path),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request. Exports also report their id.
			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			}
			if id := ww.Header().Get(chiTransport.HeaderExportID); id != "" {
				fields = append(fields, zap.String("export_id", id))
			}
			reqLogger.Info("http_request", fields...)
		})
	}
}
