package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kirei-app/kirei/internal/advisor"
	"github.com/kirei-app/kirei/internal/bilingual"
	"github.com/kirei-app/kirei/internal/compose"
	"github.com/kirei-app/kirei/internal/config"
	"github.com/kirei-app/kirei/internal/conversation"
	"github.com/kirei-app/kirei/internal/db"
	dbRedis "github.com/kirei-app/kirei/internal/db/redis"
	"github.com/kirei-app/kirei/internal/domain"
	"github.com/kirei-app/kirei/internal/embcache"
	"github.com/kirei-app/kirei/internal/health"
	"github.com/kirei-app/kirei/internal/index/keyword"
	"github.com/kirei-app/kirei/internal/index/semantic"
	"github.com/kirei-app/kirei/internal/ingest"
	logpkg "github.com/kirei-app/kirei/internal/logger"
	"github.com/kirei-app/kirei/internal/metrics"
	"github.com/kirei-app/kirei/internal/retrieval"
	"github.com/kirei-app/kirei/internal/store"
	chiTransport "github.com/kirei-app/kirei/internal/transport/chi"
	openaiTransport "github.com/kirei-app/kirei/internal/transport/openai"
	"github.com/kirei-app/kirei/internal/version"
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

	logger.Info("Starting kirei API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	ctx := context.Background()

	// Register metrics explicitly (no init())
	metrics.RegisterCoreMetrics()

	// Database is optional: without it the embedding cache and snapshot
	// persistence are disabled and everything runs in memory.
	var kv db.Store
	if len(cfg.Database.Addrs) > 0 {
		redisStore, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create database store", zap.Error(err))
		}
		defer redisStore.Close()

		if err := redisStore.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Database not ready", zap.Error(err))
		}
		logger.Info("Connected to database")
		kv = redisStore
	}

	// AI backend is optional too: without an API key the advisor serves
	// keyword search and composed replies only.
	var (
		embedder   domain.Embedder
		generator  domain.Generator
		translator domain.Translator
		checker    health.BackendChecker
	)
	if cfg.OpenAI.APIKey != "" {
		backendCfg := &openaiTransport.Config{
			APIKey:         cfg.OpenAI.APIKey,
			BaseURL:        cfg.OpenAI.BaseURL,
			EmbeddingModel: cfg.OpenAI.EmbeddingModel,
			ChatModel:      cfg.OpenAI.ChatModel,
			MaxReplyTokens: cfg.OpenAI.MaxReplyTokens,
			RequestTimeout: time.Duration(cfg.OpenAI.RequestTimeout) * time.Second,
			Logger:         logger,
		}
		base := openaiTransport.NewEmbedder(backendCfg)
		checker = base

		embedder = base
		if kv != nil {
			embedder = embcache.New(base, kv, metrics.EmbeddingCacheTotal, logger)
		}

		generator = openaiTransport.NewGenerator(backendCfg)
		translator = openaiTransport.NewTranslator(backendCfg)
		logger.Info("AI backend configured",
			zap.String("embedding_model", cfg.OpenAI.EmbeddingModel),
			zap.String("chat_model", cfg.OpenAI.ChatModel),
		)
	} else {
		logger.Warn("No AI backend configured, running in keyword-only mode")
	}

	// Load records
	resolver := bilingual.New(translator, logger).
		WithLanguages(cfg.OpenAI.SourceLanguage, cfg.OpenAI.TargetLanguage)
	recordStore := store.New(resolver, logger)

	var raws []domain.RawRecord
	if cfg.Data.Path != "" {
		raws, err = ingest.LoadFile(cfg.Data.Path)
		if err != nil {
			logger.Fatal("Failed to load records", zap.String("path", cfg.Data.Path), zap.Error(err))
		}
	} else {
		raws = ingest.SampleRecords(cfg.Data.SampleRegion, cfg.Data.SampleCategory)
		logger.Info("No data path configured, using sample records")
	}

	loaded, skipped := recordStore.Load(ctx, raws)
	logger.Info("Records loaded", zap.Int("loaded", loaded), zap.Int("skipped", skipped))

	// Build indexes
	keywordIdx := keyword.Build(recordStore.Records())

	semanticIdx := semantic.New(embedder, logger)
	if kv != nil {
		if err := semanticIdx.Load(ctx, kv); err != nil {
			logger.Warn("No usable semantic snapshot", zap.Error(err))
		} else {
			logger.Info("Semantic snapshot restored", zap.Int("entries", semanticIdx.Len()))
		}
	}
	if !semanticIdx.Ready() && embedder != nil {
		if err := semanticIdx.Build(ctx, recordStore.Records()); err != nil {
			logger.Warn("Semantic index build failed, keyword search only", zap.Error(err))
		} else if kv != nil {
			if err := semanticIdx.Save(ctx, kv); err != nil {
				logger.Warn("Failed to persist semantic snapshot", zap.Error(err))
			}
		}
	}

	orchestrator := retrieval.New(semanticIdx, keywordIdx, logger)

	// Advisor
	sessions := conversation.NewManager()
	adv := advisor.New(orchestrator, sessions, compose.New(), generator, logger).
		WithTuning(cfg.Retrieval.TopK, cfg.Retrieval.ContextWindow)

	healthSvc := newHealthService(kv, checker, semanticIdx)

	// Reindexer only exists with an embedding backend.
	var reindexer chiTransport.Reindexer
	if embedder != nil {
		reindexer = &reindexService{store: recordStore, index: semanticIdx, kv: kv, logger: logger}
	}

	server := chiTransport.NewServer(recordStore, adv, healthSvc, reindexer, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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

// newHealthService wires only the configured components into the health
// checks. Unconfigured components must be nil interfaces (not typed nil
// pointers!) so the service reports them as disabled, and a semantic index
// without an embedding capability is a deployment choice to leave out of the
// checks, not an error to surface.
func newHealthService(kv db.Store, checker health.BackendChecker, idx *semantic.Index) *health.Service {
	var pinger health.DBPinger
	if kv != nil {
		pinger = kv
	}
	var readiness health.IndexReadiness
	if idx != nil && idx.Enabled() {
		readiness = idx
	}
	return health.New(pinger, checker, readiness)
}

// reindexService rebuilds the semantic index from the current collection and
// persists the fresh snapshot when a database is configured.
type reindexService struct {
	store  *store.RecordStore
	index  *semantic.Index
	kv     db.Store
	logger *zap.Logger
}

func (s *reindexService) Rebuild(ctx context.Context) error {
	if err := s.index.Build(ctx, s.store.Records()); err != nil {
		return fmt.Errorf("rebuild semantic index: %w", err)
	}
	if s.kv != nil {
		if err := s.index.Save(ctx, s.kv); err != nil {
			// Persistence failure is not fatal: the in-memory index is fresh.
			s.logger.Warn("Failed to persist semantic snapshot", zap.Error(err))
		}
	}
	s.logger.Info("Semantic index rebuilt", zap.Int("entries", s.index.Len()))
	return nil
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
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

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
