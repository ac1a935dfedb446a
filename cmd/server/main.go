package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/datachat-labs/datachat/internal/api"
	"github.com/datachat-labs/datachat/internal/config"
	"github.com/datachat-labs/datachat/internal/core"
	"github.com/datachat-labs/datachat/internal/files"
	"github.com/datachat-labs/datachat/internal/store"
)

// defaultUsername identifies the single application user.
const defaultUsername = "default"

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
	sugar := logger.Sugar()

	// Initialize database store
	dbStore, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		sugar.Fatalw("failed to initialize database", "error", err)
	}
	defer dbStore.Close()

	// Bootstrap the default user
	user, err := dbStore.GetOrCreateUser(defaultUsername)
	if err != nil {
		sugar.Fatalw("failed to bootstrap default user", "error", err)
	}

	// Initialize blob storage for uploads
	blobs, err := files.NewStorage(cfg.UploadDir)
	if err != nil {
		sugar.Fatalw("failed to initialize upload storage", "error", err)
	}

	// Initialize the generation client
	gemini, err := core.NewGeminiService(context.Background(), cfg.GeminiAPIKey, sugar)
	if err != nil {
		sugar.Fatalw("failed to initialize generation client", "error", err)
	}
	defer gemini.Close()

	// Initialize chat service, handler, and router
	chatService := core.NewChatService(dbStore, blobs, gemini, sugar)
	apiHandler := api.NewAPIHandler(chatService, user.ID, sugar)
	router := api.NewRouter(apiHandler, sugar)

	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // generation calls can take time
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		sugar.Infow("starting server", "addr", serverAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalw("server failed", "addr", serverAddr, "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	sugar.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		sugar.Fatalw("server forced to shutdown", "error", err)
	}
	sugar.Info("server exited gracefully")
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
