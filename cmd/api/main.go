package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/shipit/shipit-backend/internal/config"
	"github.com/shipit/shipit-backend/internal/database"
	"github.com/shipit/shipit-backend/internal/handlers"
	"github.com/shipit/shipit-backend/internal/middleware"
	"github.com/shipit/shipit-backend/internal/services"
	"github.com/shipit/shipit-backend/pkg/utils"
)

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}
	return cfg.Build()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := database.InitDB(cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize database", zap.Error(err))
	}

	// Get underlying SQL DB instance
	sqlDB, err := db.DB()
	if err != nil {
		zap.L().Fatal("Failed to get database instance", zap.Error(err))
	}
	defer sqlDB.Close()

	// Configure connection pool
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// Redis backs wallet login and the parcel update channel
	if cfg.RedisURL != "" {
		if err := services.InitRedis(cfg.RedisURL); err != nil {
			zap.L().Fatal("Failed to initialize Redis", zap.Error(err))
		}
		defer services.RedisClient.Close()
	} else {
		zap.L().Warn("REDIS_URL not set, wallet login and pub/sub disabled")
	}

	// Initialize Storage (S3 or local fallback)
	storage, err := services.NewStorage(cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize storage", zap.Error(err))
	}

	// Initialize WebSocket hub
	hub := services.NewHub()
	go hub.Run(ctx)

	var reconciler *services.Reconciler
	if cfg.ChainEnabled() {
		escrow, err := services.NewEthEscrow(ctx, cfg.EthRPCURL, cfg.EscrowContractAddress)
		if err != nil {
			zap.L().Fatal("Failed to connect to escrow contract", zap.Error(err))
		}
		defer escrow.Close()

		reconciler = services.NewReconciler(db, escrow, hub, cfg.ReconcileInterval).WithAVAXPerINR(cfg.AVAXPerINR)
		go reconciler.Run(ctx)
	} else {
		zap.L().Warn("ETH_RPC_URL or ESCROW_CONTRACT_ADDRESS not set, chain reconciliation disabled")
	}

	mailer := utils.NewMailer(utils.SMTPConfig{
		From:     cfg.EmailFrom,
		Password: cfg.EmailPassword,
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
	}, cfg.BaseURL)

	// Initialize router
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(), middleware.Metrics())

	// Configure CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	r.Use(cors.New(corsConfig))

	// Serve static files
	if !storage.IsUsingS3() {
		r.Static("/uploads", cfg.UploadDir)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "websocketClients": hub.GetConnectedClients()})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers.RegisterRoutes(r, handlers.Deps{
		DB:         db,
		Hub:        hub,
		Storage:    storage,
		Reconciler: reconciler,
		Mailer:     mailer,
		Config:     cfg,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		zap.L().Info("ShipIT API listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zap.L().Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("graceful shutdown failed", zap.Error(err))
	}
}
