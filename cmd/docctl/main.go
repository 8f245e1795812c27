// Package main provides the docctl maintenance CLI for the documentation
// service.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/docupilot/docupilot/internal/auth"
	"github.com/docupilot/docupilot/internal/chunker"
	"github.com/docupilot/docupilot/internal/config"
	"github.com/docupilot/docupilot/internal/embedding"
	"github.com/docupilot/docupilot/internal/ingest"
	"github.com/docupilot/docupilot/internal/store"
	"github.com/docupilot/docupilot/internal/vectorindex"
	"github.com/docupilot/docupilot/internal/vectorstore"
)

var rootCmd = &cobra.Command{
	Use:   "docctl",
	Short: "Documentation service maintenance tool",
	Long:  "CLI tool for inspecting and repairing the document store and vector index",
}

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the vector index from stored documents",
	Long: `Re-embeds every stored document and rewrites its vectors.

Use this after changing the embedding backend or model, or to repair an
index that drifted from the relational store. Each document's old vectors
are removed before its new ones are inserted.

Environment variables:
  DATA_DIR           SQLite data directory (default: data)
  QDRANT_HOST        Qdrant hostname (required for this command)
  QDRANT_PORT        Qdrant gRPC port (default: 6334)
  EMBEDDING_BACKEND  local, remote, or managed (default: local)`,
	RunE: runReindex,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show store and index status",
	RunE:  runStatus,
}

var (
	importOwner   string
	importRepo    string
	importDir     string
	importDocType string
	importAs      string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import markdown files from a GitHub repository as documents",
	Long: `Fetches every markdown file under a repository directory and stores
each one as a document with an initial version. When QDRANT_HOST is set
the imported documents are embedded as well.

Files that cannot be stored are skipped and reported at the end.`,
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importOwner, "owner", "", "repository owner (required)")
	importCmd.Flags().StringVar(&importRepo, "repo", "", "repository name (required)")
	importCmd.Flags().StringVar(&importDir, "dir", "", "directory within the repository (default: root)")
	importCmd.Flags().StringVar(&importDocType, "doc-type", "reference", "doc_type for imported documents")
	importCmd.Flags().StringVar(&importAs, "as", "", "email of the user to own imported documents (required)")
	_ = importCmd.MarkFlagRequired("owner")
	_ = importCmd.MarkFlagRequired("repo")
	_ = importCmd.MarkFlagRequired("as")

	rootCmd.AddCommand(reindexCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(importCmd)
}

func main() {
	// Load .env file if present (local development), ignore if missing.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runReindex(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	start := time.Now()
	cfg := config.Load()

	db, err := store.New(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer db.Close()

	index := vectorindex.New(ctx, vectorindex.Config{
		Host:       cfg.QdrantHost,
		Port:       cfg.QdrantPort,
		APIKey:     cfg.QdrantAPIKey,
		Collection: cfg.CollectionName,
	}, slog.Default())
	defer index.Close()

	if !index.Configured() {
		return fmt.Errorf("vector index is not configured; set QDRANT_HOST")
	}
	if err := index.Health(ctx); err != nil {
		return fmt.Errorf("index health check failed: %w", err)
	}

	provider, err := embedding.NewProvider(ctx, cfg)
	if err != nil {
		return fmt.Errorf("creating embedding provider: %w", err)
	}
	fmt.Printf("Embedding backend: %s (%s, dim %d)\n", cfg.EmbeddingBackend, provider.Name(), provider.Dimension())

	if err := index.Ensure(ctx, provider.Dimension()); err != nil {
		return fmt.Errorf("ensuring collection: %w", err)
	}

	vectors := vectorstore.New(provider, index, slog.Default())

	docs, err := db.Documents().List(ctx, 0, 1000, "")
	if err != nil {
		return fmt.Errorf("listing documents: %w", err)
	}
	fmt.Printf("Reindexing %d documents...\n\n", len(docs))

	var reindexed, failed, totalChunks int
	for _, doc := range docs {
		chunks, vectorIDs, err := vectors.StoreDocument(ctx, doc.ID, doc.Content, chunker.DefaultChunkSize, chunker.DefaultChunkOverlap)
		if err != nil {
			fmt.Printf("  FAILED %s (%s): %v\n", doc.Title, doc.ID, err)
			failed++
			continue
		}

		rows := make([]store.Embedding, len(chunks))
		for i, chunk := range chunks {
			rows[i] = store.Embedding{
				DocID:      doc.ID,
				ChunkIndex: chunk.Index,
				ChunkText:  chunk.Text,
				VectorID:   vectorIDs[i],
			}
		}
		if err := db.Embeddings().ReplaceForDoc(ctx, doc.ID, rows); err != nil {
			fmt.Printf("  FAILED %s (%s): recording embeddings: %v\n", doc.Title, doc.ID, err)
			failed++
			continue
		}

		reindexed++
		totalChunks += len(chunks)
		fmt.Printf("  %s: %d chunks\n", doc.Title, len(chunks))
	}

	fmt.Println()
	fmt.Println("Reindex complete!")
	fmt.Printf("  Documents: %d/%d\n", reindexed, len(docs))
	fmt.Printf("  Chunks: %d\n", totalChunks)
	if failed > 0 {
		fmt.Printf("  Failed: %d\n", failed)
	}
	fmt.Printf("  Duration: %s\n", time.Since(start).Round(time.Second))

	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := config.Load()

	docType, err := auth.ValidateDocType(importDocType)
	if err != nil {
		return err
	}

	db, err := store.New(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer db.Close()

	owner, err := db.Users().GetByEmail(ctx, importAs)
	if err != nil {
		return fmt.Errorf("resolving --as user: %w", err)
	}

	index := vectorindex.New(ctx, vectorindex.Config{
		Host:       cfg.QdrantHost,
		Port:       cfg.QdrantPort,
		APIKey:     cfg.QdrantAPIKey,
		Collection: cfg.CollectionName,
	}, slog.Default())
	defer index.Close()

	provider, err := embedding.NewProvider(ctx, cfg)
	if err != nil {
		return fmt.Errorf("creating embedding provider: %w", err)
	}
	if index.Configured() {
		if err := index.Ensure(ctx, provider.Dimension()); err != nil {
			return fmt.Errorf("ensuring collection: %w", err)
		}
	} else {
		fmt.Println("QDRANT_HOST not set; importing without embeddings")
	}
	vectors := vectorstore.New(provider, index, slog.Default())

	fetcher, err := ingest.NewFetcher(cfg.GitHubToken)
	if err != nil {
		return fmt.Errorf("creating fetcher: %w", err)
	}

	importer := ingest.NewImporter(fetcher, db, vectors, slog.Default())
	result, err := importer.ImportMarkdown(ctx, importOwner, importRepo, importDir, docType, owner.ID)
	if err != nil {
		return err
	}

	fmt.Println("Import complete!")
	fmt.Printf("  Files: %d/%d\n", result.ImportedFiles, result.TotalFiles)
	fmt.Printf("  Chunks: %d\n", result.TotalChunks)
	fmt.Printf("  Duration: %s\n", result.Duration.Round(time.Second))
	for _, failed := range result.FailedFiles {
		fmt.Printf("  Skipped %s: %s\n", failed.Path, failed.Reason)
	}

	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := config.Load()

	db, err := store.New(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer db.Close()

	docs, err := db.Documents().List(ctx, 0, 1000, "")
	if err != nil {
		return fmt.Errorf("listing documents: %w", err)
	}

	fmt.Printf("Store: %s\n", db.Path())
	fmt.Printf("  Documents: %d\n", len(docs))

	var mirroredChunks int
	for _, doc := range docs {
		rows, err := db.Embeddings().ListByDoc(ctx, doc.ID)
		if err != nil {
			return fmt.Errorf("listing embeddings: %w", err)
		}
		mirroredChunks += len(rows)
	}
	fmt.Printf("  Embedded chunks: %d\n", mirroredChunks)
	fmt.Println()

	index := vectorindex.New(ctx, vectorindex.Config{
		Host:       cfg.QdrantHost,
		Port:       cfg.QdrantPort,
		APIKey:     cfg.QdrantAPIKey,
		Collection: cfg.CollectionName,
	}, slog.Default())
	defer index.Close()

	if !index.Configured() {
		fmt.Println("Index: not configured")
		return nil
	}

	if err := index.Health(ctx); err != nil {
		fmt.Printf("Index: unhealthy (%v)\n", err)
		return nil
	}

	count, err := index.Count(ctx)
	if err != nil {
		return fmt.Errorf("counting points: %w", err)
	}
	fmt.Printf("Index: healthy (%s:%d, collection %q)\n", cfg.QdrantHost, cfg.QdrantPort, cfg.CollectionName)
	fmt.Printf("  Points: %d\n", count)

	if int(count) != mirroredChunks {
		fmt.Printf("  Warning: index has %d points but store mirrors %d chunks; run 'docctl reindex'\n", count, mirroredChunks)
	}

	return nil
}
