package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"lesion-inference-service/internal/adapters/primary/http/handlers"
	"lesion-inference-service/internal/adapters/primary/http/middleware"
	"lesion-inference-service/internal/adapters/secondary/onnx"
	"lesion-inference-service/internal/adapters/secondary/postgres"
	"lesion-inference-service/internal/adapters/secondary/redis"
	"lesion-inference-service/internal/config"
	ports "lesion-inference-service/internal/core/ports/output"
	"lesion-inference-service/internal/core/services"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	initLogger(cfg)
	catalog := cfg.Catalog()

	// ============================================================================
	// Model loading
	// ============================================================================

	runtime, err := onnx.NewRuntime(onnx.Config{
		SharedLibraryPath: cfg.ONNX.SharedLibraryPath,
		IntraOpThreads:    cfg.ONNX.IntraOpThreads,
		InterOpThreads:    cfg.ONNX.InterOpThreads,
		PoolSize:          cfg.ONNX.PoolSize,
		AcquireTimeout:    cfg.ONNX.AcquireTimeout,
	})
	if err != nil {
		if cfg.Inference.StrictStartup {
			log.Fatalf("init onnx runtime: %v", err)
		}
		log.WithError(err).Error("onnx runtime unavailable, no model can be loaded")
		runtime = onnx.Unavailable(err)
	}
	defer runtime.Close()

	registry := services.NewModelRegistry(runtime, catalog)
	if err := registry.LoadAll(context.Background()); err != nil {
		if cfg.Inference.StrictStartup {
			log.Fatalf("load models: %v", err)
		}
		log.WithError(err).Error("service starting without the mole detector, /health will report unhealthy")
	}
	defer registry.Close()

	// ============================================================================
	// Optional secondary adapters
	// ============================================================================

	// Prediction cache (Optional - based on config)
	var cache ports.PredictionCache
	if cfg.Cache.Enabled {
		client, err := redis.Connect(context.Background(), cfg.Cache.RedisURL)
		if err != nil {
			log.Warnf("prediction cache init failed (continuing without cache): %v", err)
		} else {
			defer client.Close()
			cache = redis.NewPredictionCache(client)
			log.Info("prediction cache initialized")
		}
	} else {
		log.Info("prediction cache disabled")
	}

	// Inference audit log (Optional - based on config)
	var events ports.InferenceEventRepository
	if cfg.Audit.Enabled {
		pool, err := postgres.Connect(context.Background(), postgres.PoolConfig{
			DSN:             cfg.Audit.DSN,
			MaxOpenConns:    cfg.Audit.MaxOpenConns,
			MaxIdleConns:    cfg.Audit.MaxIdleConns,
			ConnMaxLifetime: cfg.Audit.ConnMaxLifetime,
		})
		if err != nil {
			log.Warnf("audit database init failed (continuing without audit log): %v", err)
		} else if err := postgres.EnsureSchema(context.Background(), pool); err != nil {
			pool.Close()
			log.Warnf("audit schema init failed (continuing without audit log): %v", err)
		} else {
			defer pool.Close()
			events = postgres.NewInferenceEventRepository(pool)
			log.Info("inference audit log initialized")
		}
	} else {
		log.Info("inference audit log disabled")
	}

	// ============================================================================
	// HTTP
	// ============================================================================

	inferenceSvc := services.NewInferenceService(registry, catalog, cache, cfg.Cache.TTL, events)
	h := handlers.New(inferenceSvc, registry, catalog.Upload)

	router := gin.New()
	router.MaxMultipartMemory = catalog.Upload.MaxBytes + (1 << 20)
	router.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.CORS(cfg.Server.CORSOrigins),
		middleware.Timeout(cfg.Server.RequestTimeout),
		gin.Recovery(),
	)
	h.RegisterRoutes(router)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Infof("starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("server forced shutdown: %v", err)
	}

	log.Info("server stopped")
}

func initLogger(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.Logger.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Logger.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
