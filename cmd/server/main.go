// Package main is the documentation service HTTP server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/docupilot/docupilot/internal/agent"
	"github.com/docupilot/docupilot/internal/api"
	"github.com/docupilot/docupilot/internal/auth"
	"github.com/docupilot/docupilot/internal/config"
	"github.com/docupilot/docupilot/internal/embedding"
	"github.com/docupilot/docupilot/internal/ingest"
	"github.com/docupilot/docupilot/internal/llm"
	mcpserver "github.com/docupilot/docupilot/internal/mcp"
	"github.com/docupilot/docupilot/internal/store"
	"github.com/docupilot/docupilot/internal/vectorindex"
	"github.com/docupilot/docupilot/internal/vectorstore"
)

func main() {
	// Load .env if present (local development), ignore if missing.
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg := config.Load()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	db, err := store.New(cfg.DataDir)
	if err != nil {
		return err
	}
	defer db.Close()

	provider, err := embedding.NewProvider(ctx, cfg)
	if err != nil {
		return err
	}

	index := vectorindex.New(ctx, vectorindex.Config{
		Host:       cfg.QdrantHost,
		Port:       cfg.QdrantPort,
		APIKey:     cfg.QdrantAPIKey,
		Collection: cfg.CollectionName,
	}, logger)
	defer index.Close()

	if index.Configured() {
		dimension := provider.Dimension()
		if dimension == 0 {
			dimension = cfg.DefaultDimension
		}
		if err := index.Ensure(ctx, dimension); err != nil {
			return err
		}
	}

	vectors := vectorstore.New(provider, index, logger)

	llmClient, err := llm.NewClient(cfg)
	if err != nil {
		return err
	}

	tokens, err := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenExpiry)
	if err != nil {
		return err
	}

	fetcher, err := ingest.NewFetcher(cfg.GitHubToken)
	if err != nil {
		return err
	}

	server := api.NewServer(&api.Config{
		DB:         db,
		Vectors:    vectors,
		Generator:  agent.NewGenerator(llmClient, vectors, logger),
		Maintainer: agent.NewMaintainer(llmClient, vectors, logger),
		Fetcher:    fetcher,
		Tokens:     tokens,
		Logger:     logger,
	})

	router := server.Router()

	mcp := mcpserver.NewServer(&mcpserver.Config{Vectors: vectors, DB: db})
	router.PathPrefix("/mcp").Handler(mcpserver.NewHTTPHandler(mcp, nil))

	httpServer := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server",
			"addr", httpServer.Addr,
			"embedding_backend", cfg.EmbeddingBackend,
			"llm_backend", cfg.LLMBackend,
			"index_configured", index.Configured())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
