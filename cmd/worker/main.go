package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/deval2498/Spotmf/internal/alert"
	"github.com/deval2498/Spotmf/internal/client/chain"
	"github.com/deval2498/Spotmf/internal/client/prices"
	"github.com/deval2498/Spotmf/internal/client/txapi"
	"github.com/deval2498/Spotmf/internal/config"
	cronrunner "github.com/deval2498/Spotmf/internal/cron"
	"github.com/deval2498/Spotmf/internal/db"
	"github.com/deval2498/Spotmf/internal/handler"
	"github.com/deval2498/Spotmf/internal/logger"
	gormrepository "github.com/deval2498/Spotmf/internal/repository/gorm"
	"github.com/deval2498/Spotmf/internal/secrets"
	"github.com/deval2498/Spotmf/internal/service"
)

func main() {
	cfgPath := os.Getenv("SPOTMF_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("SPOTMF_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	resolver := secrets.EnvResolver{Prefix: "SPOTMF_"}
	bootCtx := context.Background()

	if dsn := secrets.FirstOf(bootCtx, resolver, secrets.DBDSN, cfg.DB.DSN); dsn != "" {
		cfg.DB.DSN = dsn
	}

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	store := gormrepository.New(dbConn.Gorm)

	// External collaborators. Any endpoint left unconfigured falls back to its
	// deterministic simulator so the full pipeline still runs locally.
	var broadcaster service.Broadcaster
	if txURL := secrets.FirstOf(bootCtx, resolver, secrets.TransactionAPIURL, cfg.TransactionAPI.BaseURL); txURL != "" {
		apiKey := secrets.FirstOf(bootCtx, resolver, secrets.TransactionAPIKey, cfg.TransactionAPI.APIKey)
		broadcaster = txapi.NewClient(txURL, apiKey, cfg.TransactionAPI.Timeout)
		logger.Info("transaction api client enabled")
	} else {
		broadcaster = txapi.Simulator{}
		logger.Warn("no transaction api configured, using simulator")
	}

	var statusChecker service.StatusChecker
	if rpcURL := secrets.FirstOf(bootCtx, resolver, secrets.BlockchainRPCURL, cfg.BlockchainRPC.URL); rpcURL != "" {
		statusChecker = chain.NewClient(rpcURL, cfg.BlockchainRPC.Timeout)
		logger.Info("blockchain rpc client enabled")
	} else {
		statusChecker = chain.Simulator{}
		logger.Warn("no blockchain rpc configured, using simulator")
	}

	var priceSource service.PriceSource
	if cfg.Prices.BaseURL != "" {
		apiKey := secrets.FirstOf(bootCtx, resolver, secrets.PricesAPIKey, cfg.Prices.APIKey)
		priceSource = prices.NewClient(cfg.Prices.BaseURL, apiKey, cfg.Prices.Timeout)
		logger.Info("price api client enabled")
	} else {
		priceSource = prices.Simulator{}
		logger.Warn("no price api configured, using simulator")
	}

	var alerts alert.Sender
	if webhookURL := secrets.FirstOf(bootCtx, resolver, secrets.AlertWebhookURL, cfg.Alert.WebhookURL); webhookURL != "" {
		alerts = alert.NewWebhookSender(webhookURL, cfg.Alert.Timeout, logger)
		logger.Info("alert webhook enabled")
	} else {
		alerts = alert.LogSender{Logger: logger}
	}

	scanner := &service.Scanner{Repo: store, Logger: logger}
	dispatcher := &service.Dispatcher{
		Repo:         store,
		Scanner:      scanner,
		Broadcast:    broadcaster,
		Alerts:       alerts,
		Logger:       logger,
		ClaimTimeout: cfg.Dispatcher.ClaimTimeout,
	}
	reconciler := &service.Reconciler{
		Repo:             store,
		Chain:            statusChecker,
		Alerts:           alerts,
		Logger:           logger,
		ExecutionTimeout: cfg.Reconciler.ExecutionTimeout,
		NotFoundGrace:    cfg.Reconciler.NotFoundGrace,
		LogRetention:     cfg.Reconciler.LogRetention,
		AlertBatchSize:   cfg.Reconciler.AlertBatchSize,
		BatchLimit:       cfg.Reconciler.BatchLimit,
	}
	refresher := &service.MovingAverageRefresher{
		Repo:       store,
		Prices:     priceSource,
		Logger:     logger,
		WindowDays: cfg.MovingAverage.WindowDays,
		MinSamples: cfg.MovingAverage.MinSamples,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())

	healthHandler := &handler.HealthHandler{DB: dbConn}
	healthHandler.Register(engine)
	strategyHandler := &handler.StrategyHandler{Repo: store}
	strategyHandler.Register(engine)
	executionHandler := &handler.ExecutionHandler{Repo: store}
	executionHandler.Register(engine)
	failedLogHandler := &handler.FailedLogHandler{Repo: store}
	failedLogHandler.Register(engine)
	cycleHandler := &handler.CycleHandler{Repo: store, Dispatcher: dispatcher, Reconciler: reconciler}
	cycleHandler.Register(engine)

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cronRunner := cronrunner.New(logger, ctx)
	if cfg.Cron.Enabled {
		if _, err := cronRunner.Add("dispatch", cfg.Cron.Dispatch, func(ctx context.Context) {
			if _, err := dispatcher.RunCycle(ctx); err != nil {
				logger.Warn("dispatch cycle failed", zap.Error(err))
			}
		}); err != nil {
			logger.Warn("cron register dispatch failed", zap.Error(err))
		}
		if _, err := cronRunner.Add("reconcile", cfg.Cron.Reconcile, func(ctx context.Context) {
			if _, err := reconciler.RunCycle(ctx); err != nil {
				logger.Warn("reconcile cycle failed", zap.Error(err))
			}
		}); err != nil {
			logger.Warn("cron register reconcile failed", zap.Error(err))
		}
		if _, err := cronRunner.Add("moving-average", cfg.Cron.MovingAverage, func(ctx context.Context) {
			if err := refresher.RunCycle(ctx); err != nil {
				logger.Warn("moving average cycle failed", zap.Error(err))
			}
		}); err != nil {
			logger.Warn("cron register moving average failed", zap.Error(err))
		}
		cronRunner.Start()
		defer cronRunner.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
