package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/jobportal-admin/internal/auth"
	"github.com/justsurfingit/jobportal-admin/internal/captcha"
	"github.com/justsurfingit/jobportal-admin/internal/config"
	"github.com/justsurfingit/jobportal-admin/internal/database"
	"github.com/justsurfingit/jobportal-admin/internal/handlers"
	"github.com/justsurfingit/jobportal-admin/internal/logger"
	"github.com/justsurfingit/jobportal-admin/internal/middleware"
	"github.com/justsurfingit/jobportal-admin/internal/router"
	"github.com/justsurfingit/jobportal-admin/internal/services"
)

func main() {
	// 1. Load configuration (.env, config.yaml, environment)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	appLogger := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)
	defer func() { _ = appLogger.Sync() }()

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 2. Database and cache
	db, err := database.Connect(cfg.Database.Postgres)
	if err != nil {
		appLogger.Error("database connection failed", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		appLogger.Error("database migration failed", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	appLogger.Info("connected to postgres", map[string]interface{}{"host": cfg.Database.Postgres.Host})

	rdb := database.NewRedis(cfg.Database.Redis)
	if rdb == nil {
		appLogger.Warn("redis not configured, rate limiting and logout revocation disabled", nil)
	} else if err := database.PingRedis(context.Background(), rdb); err != nil {
		appLogger.Warn("redis unreachable at startup", map[string]interface{}{"error": err.Error()})
	}

	// 3. Core services
	var verifier captcha.Verifier = captcha.Disabled{}
	if cfg.Captcha.Enabled {
		verifier = captcha.NewRecaptchaVerifier(cfg.Captcha.SecretKey, cfg.Captcha.VerifyURL, config.GetDuration(cfg.Captcha.Timeout))
	} else {
		appLogger.Warn("bot check disabled", nil)
	}

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		// sessions are optional here; tokens only need to survive this process
		secret = randomSecret()
		appLogger.Warn("JWT secret not set, using an ephemeral one", nil)
	}
	tokens := auth.NewTokenManager(secret, cfg.Auth.TokenTTL())
	revocations := auth.NewRevocationStore(rdb)

	llmService, err := services.NewLLMService(context.Background(), cfg.LLM, appLogger)
	if err != nil {
		appLogger.Error("LLM client init failed", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	adminService := services.NewAdminService(db, verifier, auth.NewPasswordHasher(cfg.Auth.BcryptCost),
		tokens, revocations, cfg.Accounts.DeletePolicy, appLogger)
	jobService := services.NewJobService(db, appLogger)
	applicationService := services.NewApplicationService(db, cfg.Applications.EmptyIsNotFound, appLogger)

	// 4. Handlers and routes
	r := router.New(router.Deps{
		Config:       cfg,
		Logger:       appLogger,
		Redis:        rdb,
		Sessions:     middleware.NewSessionAuth(tokens, revocations, cfg.Auth.RequireSession, appLogger),
		Admins:       handlers.NewAdminHandler(adminService, appLogger),
		Jobs:         handlers.NewJobHandler(llmService, jobService, appLogger),
		Applications: handlers.NewApplicationHandler(applicationService, appLogger),
		Health:       handlers.NewHealthHandler(db, rdb),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Info("server starting", map[string]interface{}{"port": cfg.App.Port, "environment": cfg.App.Environment})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("server failed", map[string]interface{}{"error": err.Error()})
			os.Exit(1)
		}
	}()

	// 5. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("shutting down", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("forced shutdown", map[string]interface{}{"error": err.Error()})
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		log.Fatalf("failed to generate secret: %v", err)
	}
	return hex.EncodeToString(b)
}
