/*
Package main is the entry point for the medichat server.

It loads configuration, initializes logging, connects the database and
object storage, wires the signaling relay and the boundary services, and
runs the HTTP server until an interrupt triggers graceful shutdown.
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"medichat/internal/app/assistant"
	"medichat/internal/app/db"
	"medichat/internal/app/prescription"
	sig "medichat/internal/app/signal"
	"medichat/internal/app/speech"
	"medichat/internal/app/storage"
	"medichat/internal/configs"
	"medichat/internal/handler"
	"medichat/internal/pkg/logx"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logx.InitGlobalLogger(cfg.Environment == "development")
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Msg("Configuration loaded successfully")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(cfg.DatabaseDSN)
	if err != nil {
		logx.Fatal(err, "Failed to connect to database")
	}
	defer pool.Close()

	objectStore, err := storage.NewStorageService(storage.ServiceConfig{
		S3BucketName:      cfg.S3BucketName,
		S3Endpoint:        cfg.S3Endpoint,
		S3AccessKeyID:     cfg.S3AccessKeyID,
		S3SecretAccessKey: cfg.S3SecretAccessKey,
	})
	if err != nil {
		logx.Fatal(err, "Failed to initialize object storage")
	}

	// Signaling relay core.
	registry := sig.NewRegistry()
	rooms := sig.NewBroadcaster()
	relay := sig.NewRelay(registry)

	// Boundary services.
	medicationStore := prescription.NewStore(pool)
	deps := &handler.AppDeps{
		Config:       cfg,
		Registry:     registry,
		Rooms:        rooms,
		Relay:        relay,
		Speech:       speech.NewService(cfg.SpeechServiceURL),
		Prescription: prescription.NewService(cfg.OCRServiceURL, medicationStore, objectStore),
		Assistant:    assistant.NewService(cfg.AssistantServiceURL, assistant.NewHistoryStore(pool), medicationStore),
	}

	router := handler.Router(deps)

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("medichat server starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Fatal(err, "Server forced to shutdown")
	}

	registry.Shutdown()

	logx.Info("Server gracefully stopped.")
}
