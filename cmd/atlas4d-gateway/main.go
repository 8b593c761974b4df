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
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/atlas4d/gateway/internal/config"
	"github.com/atlas4d/gateway/internal/db"
	"github.com/atlas4d/gateway/internal/db/lifecycle"
	"github.com/atlas4d/gateway/internal/db/postgres"
	dbRedis "github.com/atlas4d/gateway/internal/db/redis"
	"github.com/atlas4d/gateway/internal/domain/filter"
	logpkg "github.com/atlas4d/gateway/internal/logger"
	"github.com/atlas4d/gateway/internal/metrics"
	anomalyrepo "github.com/atlas4d/gateway/internal/repository/anomaly"
	observationrepo "github.com/atlas4d/gateway/internal/repository/observation"
	statsrepo "github.com/atlas4d/gateway/internal/repository/stats"
	chiTransport "github.com/atlas4d/gateway/internal/transport/chi"
	anomalyuc "github.com/atlas4d/gateway/internal/usecase/anomaly"
	healthuc "github.com/atlas4d/gateway/internal/usecase/health"
	observationuc "github.com/atlas4d/gateway/internal/usecase/observation"
	statsuc "github.com/atlas4d/gateway/internal/usecase/stats"
	"github.com/atlas4d/gateway/internal/version"
)

const migrateTimeout = 60 * time.Second

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

	if err := run(env, &cfg, logger); err != nil {
		logger.Error("Gateway stopped with error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

// run serves until a shutdown signal. Deferred cleanup runs before it returns.
func run(env string, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Starting atlas4d gateway",
		zap.String("build", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
	)

	metrics.RegisterHTTPMetrics()
	metrics.RegisterStoreMetrics()

	mgr := buildManager(cfg, logger)
	defer mgr.Stop()

	ctx := context.Background()
	report, err := mgr.Start(ctx)
	if err != nil {
		return fmt.Errorf("start store manager: %w", err)
	}
	if report.Degraded() {
		// Keep serving: /health reports degraded and data endpoints answer 503.
		logger.Error("Starting in degraded mode, primary store unreachable",
			zap.Int("attempts", report.PrimaryAttempts),
			zap.Error(report.PrimaryErr),
		)
	} else {
		logger.Info("Connected to primary store", zap.Int("attempts", report.PrimaryAttempts))
		if cfg.Database.Migrate {
			if err := migrate(ctx, mgr, logger); err != nil {
				return err
			}
		}
	}
	if report.CacheEnabled && report.CacheErr != nil {
		logger.Warn("Cache unavailable", zap.Error(report.CacheErr))
	}

	limits := filter.Limits{
		MaxLimit:    cfg.Query.MaxLimit,
		MaxHours:    cfg.Query.MaxHours,
		MaxRadiusKm: cfg.Query.MaxRadiusKm,
	}

	// Repositories share the manager as their executor
	obsRepo := observationrepo.New(mgr)
	anomRepo := anomalyrepo.New(mgr)
	statsRepo := statsrepo.New(mgr)

	obsSvc := observationuc.New(obsRepo).
		WithDefaults(observationuc.Defaults{
			RadiusKm:     cfg.Query.DefaultRadiusKm,
			Hours:        cfg.Query.DefaultHours,
			Limit:        cfg.Query.DefaultLimit,
			FeatureLimit: cfg.Query.DefaultGeoJSON,
		}).
		WithLimits(limits)
	anomSvc := anomalyuc.New(anomRepo).
		WithDefaults(anomalyuc.Defaults{
			Hours:       cfg.Query.DefaultHours,
			MinSeverity: cfg.Query.DefaultMinSeverity,
			Limit:       cfg.Query.DefaultAnomalies,
		}).
		WithLimits(limits)
	statsSvc := statsuc.New(statsRepo)
	healthSvc := healthuc.New(mgr, version.Version)

	server := chiTransport.NewServer(obsSvc, anomSvc, statsSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAgeSec,
	}))
	if cfg.RateLimit.Enabled {
		r.Use(httprate.Limit(
			cfg.RateLimit.Requests,
			cfg.RateLimit.Window(),
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(rateLimited),
		))
	}
	server.Routes(r)

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

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	case <-quit:
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}

// buildManager assembles the store manager: postgres primary, optional redis cache.
func buildManager(cfg *config.Config, logger *zap.Logger) *lifecycle.Manager {
	mgr := lifecycle.New(lifecycle.Config{
		ConnectAttempts: cfg.Database.ConnectAttempts,
		RetryDelay:      cfg.Database.RetryDelay(),
		QueryTimeout:    cfg.Database.QueryTimeout(),
		BreakerFailures: cfg.Breaker.FailureThreshold,
		BreakerTimeout:  cfg.Breaker.OpenTimeout(),
	}, lifecycle.PostgresOpener(postgres.Config{
		DSN:            cfg.Database.DSN,
		MinConns:       cfg.Database.MinConns,
		MaxConns:       cfg.Database.MaxConns,
		ConnectTimeout: time.Duration(cfg.Database.ConnectTimeout) * time.Second,
	}))

	if cfg.Cache.Enabled {
		mgr = mgr.WithCache(lifecycle.RedisOpener(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Username: cfg.Cache.Username,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		}))
	}

	return mgr.WithLogger(logger).WithMetrics(metrics.NewStoreRecorder())
}

func migrate(ctx context.Context, store db.Executor, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, migrateTimeout)
	defer cancel()

	err := store.WithConn(ctx, db.OpMigrate, func(ctx context.Context, q db.Querier) error {
		return postgres.RunMigrations(ctx, q)
	})
	if err != nil {
		return fmt.Errorf("schema migration: %w", err)
	}
	logger.Info("Schema migrations applied")
	return nil
}

func rateLimited(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":    "rate_limited",
		"message": "too many requests",
	})
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
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

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("query", r.URL.RawQuery),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
