package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"studyhelper/internal/api"
	"studyhelper/internal/bridge"
	"studyhelper/internal/config"
	"studyhelper/internal/db"
	"studyhelper/internal/gemini"
	"studyhelper/internal/logger"
	"studyhelper/internal/notify"
	"studyhelper/internal/processor"
	"studyhelper/internal/upload"
)

func init() {
	// Load environment variables before config is read.
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Fatalf("FATAL: Error loading .env file: %v", err)
		}
		log.Println("Warning: .env file not found. Relying on system environment variables.")
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLog, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLog.Sync()

	if cfg.SessionGenerated {
		appLog.Warn("SESSION_SECRET is not set; using a random secret, sessions will not survive a restart")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var database *db.DB
	if cfg.SessionStore == config.SessionStorePostgres {
		database, err = db.NewDB(ctx, cfg.DatabaseURL)
		if err != nil {
			appLog.Fatal("Failed to connect to database", "error", err)
		}
		defer database.Close()
	}

	store, err := bridge.NewSessionStore(cfg, database)
	if err != nil {
		appLog.Fatal("Failed to create session store", "error", err, "store", cfg.SessionStore)
	}

	var guard upload.Guard = upload.NewMemoryGuard()
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		pingCancel()
		if err != nil {
			appLog.Fatal("Failed to connect to redis", "error", err, "addr", cfg.RedisAddr)
		}
		defer rdb.Close()
		guard = upload.NewRedisGuard(rdb, cfg.RedisLockTTL)
		appLog.Info("upload guard backed by redis", "addr", cfg.RedisAddr)
	}

	var gen processor.Generator
	if cfg.GeminiAPIKey != "" {
		geminiClient, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, appLog)
		if err != nil {
			appLog.Fatal("Failed to initialize Gemini client", "error", err)
		}
		defer geminiClient.Close()
		gen = geminiClient
	} else {
		appLog.Warn("GEMINI_API_KEY is not set; /api/process-files will answer 503")
	}

	handler, err := api.NewHandler(api.Deps{
		Config:    cfg,
		Logger:    appLog,
		Guard:     guard,
		Backend:   upload.NewClient(cfg.ProcessorURL, cfg.BackendTimeout),
		Processor: processor.NewService(gen, appLog),
		Sinks:     []notify.Sink{notify.NewLogSink(appLog)},
		Alerts:    []notify.Sink{notify.NewWebhookSink(cfg.NotifyWebhookURL, notify.KindError, appLog)},
	})
	if err != nil {
		appLog.Fatal("Failed to create handler", "error", err)
	}

	if cfg.LogMode == "prod" || cfg.LogMode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(sessions.Sessions(bridge.SessionName, store))
	api.SetupRoutes(router, handler)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		appLog.Info("Server listening", "port", cfg.Port, "processor", cfg.ProcessorURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Fatal("Failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLog.Error("Server forced to shutdown", "error", err)
		return
	}
	appLog.Info("Server exited properly")
}
