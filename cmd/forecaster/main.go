package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"polyforecast/internal/classifier"
	"polyforecast/internal/client/clob"
	"polyforecast/internal/client/gamma"
	"polyforecast/internal/client/llm"
	"polyforecast/internal/config"
	cronrunner "polyforecast/internal/cron"
	"polyforecast/internal/db"
	"polyforecast/internal/enrich"
	"polyforecast/internal/fusion"
	"polyforecast/internal/gateway"
	"polyforecast/internal/handler"
	"polyforecast/internal/logger"
	"polyforecast/internal/orchestrator"
	"polyforecast/internal/pipeline"
	"polyforecast/internal/repository"
	gormrepository "polyforecast/internal/repository/gorm"
	"polyforecast/internal/trade"
)

func main() {
	cfgPath := os.Getenv("PF_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("PF_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// Persistence is optional: without a DSN the service predicts but does
	// not record.
	var (
		dbConn *db.DB
		repo   repository.PredictionRepository
		sink   pipeline.Sink
	)
	if cfg.DB.DSN != "" {
		dbConn, err = db.Open(cfg.DB)
		if err != nil {
			logger.Fatal("db open failed", zap.Error(err))
		}
		defer db.Close(dbConn)
		if err := db.AutoMigrate(dbConn); err != nil {
			logger.Fatal("auto-migrate failed", zap.Error(err))
		}
		store := gormrepository.New(dbConn.Gorm)
		repo = store
		if cfg.LogSink.Enabled {
			sink = repository.NewLogSink(store, cfg.LogSink.MinInterval, logger)
		}
	}

	gammaHTTP := &http.Client{Timeout: cfg.Gamma.Timeout}
	gammaClient := gamma.NewClient(gammaHTTP, cfg.Gamma.BaseURL)
	clobHTTP := &http.Client{Timeout: cfg.ClobREST.Timeout}
	clobClient := clob.NewClient(clobHTTP, cfg.ClobREST.BaseURL)
	scrapeHTTP := &http.Client{Timeout: cfg.Timeouts.Source}

	gw := gateway.New(gammaClient, clobClient, scrapeHTTP, logger, cfg.Timeouts.Source, cfg.Timeouts.Market)

	registry, err := orchestrator.NewRegistry(cfg.Models)
	if err != nil {
		logger.Fatal("model registry init failed", zap.Error(err))
	}
	// No client-level timeout: per-call contexts bound every invocation.
	llmClient := llm.NewClient(&http.Client{})
	orch := orchestrator.New(registry, llmClient, logger,
		cfg.Timeouts.ModelCall, cfg.BatchTimeout(), cfg.Gateway.MaxModelConcurrency)

	assistant := enrich.NewAssistant(cfg.Assistant, llmClient, logger)
	enricher := enrich.NewManager(cfg.Enrichment, &http.Client{Timeout: 10 * time.Second}, assistant, logger)

	cls := classifier.New(logger)
	fuse := fusion.NewEngine(registry, cfg.Fusion, logger)
	eval := trade.NewEvaluator(cfg.Trade, logger)

	pipe := pipeline.New(gw, cls, enricher, orch, registry, fuse, eval, sink, cfg, logger)

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())

	healthHandler := &handler.HealthHandler{}
	if dbConn != nil {
		healthHandler.DB = dbConn.Gorm
	}
	healthHandler.Register(engine)

	predictHandler := &handler.PredictHandler{
		Pipeline: pipe,
		Repo:     repo,
		Logger:   logger,
	}
	predictHandler.Register(engine)

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cronRunner := cronrunner.New(logger, ctx)
	if cfg.Cron.Enabled {
		if _, err := cronRunner.Add(cfg.Cron.EnrichmentRefresh, enricher.Refresh); err != nil {
			logger.Fatal("cron schedule invalid", zap.Error(err))
		}
		cronRunner.Start()
		defer cronRunner.Stop()
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown incomplete", zap.Error(err))
	}
}
