package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kosworks/scriptmate/internal/config"
	"github.com/kosworks/scriptmate/internal/domain/chat"
	logpkg "github.com/kosworks/scriptmate/internal/logger"
	"github.com/kosworks/scriptmate/internal/metrics"
	"github.com/kosworks/scriptmate/internal/repository/docindex"
	chiTransport "github.com/kosworks/scriptmate/internal/transport/chi"
	openaiTransport "github.com/kosworks/scriptmate/internal/transport/openai"
	"github.com/kosworks/scriptmate/internal/usecase/assistant"
	"github.com/kosworks/scriptmate/internal/usecase/doctool"
	"github.com/kosworks/scriptmate/internal/usecase/retrieval"
	"github.com/kosworks/scriptmate/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting scriptmate API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("doc_index", cfg.Docs.IndexPath),
		zap.String("model", cfg.Model.Name),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterDocToolMetrics()
	metrics.RegisterAssistantMetrics()

	// Retrieval service starts the one-shot async index load. The server
	// comes up immediately; doc-dependent endpoints report not-loaded until
	// the load settles.
	docsSvc := retrieval.New(docindex.NewLoader(cfg.Docs.IndexPath), logger)
	docsSvc.Initialize(context.Background(), func(err error) {
		if err != nil {
			logger.Error("doc index unavailable; assistant will run without the search tool", zap.Error(err))
		}
	})

	tool := doctool.New(docsSvc, logger)

	responder := openaiTransport.NewResponder(&openaiTransport.Config{
		APIKey:  cfg.Model.APIKey,
		BaseURL: cfg.Model.BaseURL,
		Timeout: time.Duration(cfg.Model.TimeoutSec) * time.Second,
		Logger:  logger,
	})

	asker := assistant.New(responder, tool, docsSvc, chat.Options{
		Model:       cfg.Model.Name,
		Temperature: cfg.Model.Temperature,
		MaxTokens:   cfg.Model.MaxTokens,
	}, logger)

	server := chiTransport.NewServer(asker, docsSvc, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Router(cfg.Auth.APIKeys),
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
