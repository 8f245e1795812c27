// Package embedding generates fixed-dimension vectors for document chunks
// and search queries. Three interchangeable backends are supported: a local
// Ollama model, the OpenAI embeddings API, and the vector backend's own
// managed inference endpoint. The backend is selected once at startup.
package embedding

import (
	"context"
	"fmt"

	"github.com/docupilot/docupilot/internal/apperr"
	"github.com/docupilot/docupilot/internal/config"
)

// Kind distinguishes document (passage) inputs from query inputs.
// Asymmetric encoders produce different vectors for indexing and querying,
// so the distinction must survive all the way to the backend.
type Kind string

const (
	KindDocument Kind = "passage"
	KindQuery    Kind = "query"
)

// Provider generates embeddings for a batch of texts. Implementations return
// one vector per input, in input order, all of Dimension() length.
type Provider interface {
	Embed(ctx context.Context, texts []string, kind Kind) ([][]float32, error)
	Dimension() int
	Name() string
}

// NewProvider constructs the embedding backend selected by cfg.
// Construction is fatal on missing credentials or an unloadable local model.
func NewProvider(ctx context.Context, cfg *config.Config) (Provider, error) {
	switch cfg.EmbeddingBackend {
	case config.EmbeddingLocal:
		return NewLocal(ctx, LocalConfig{
			BaseURL: cfg.OllamaBaseURL,
			Model:   cfg.OllamaModel,
		})
	case config.EmbeddingRemote:
		return NewRemote(RemoteConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.EmbeddingModel,
		})
	case config.EmbeddingManaged:
		return NewManaged(ManagedConfig{
			Endpoint: cfg.ManagedEndpoint,
			APIKey:   cfg.QdrantAPIKey,
			Model:    cfg.ManagedModel,
		})
	default:
		return nil, fmt.Errorf("%w: unknown embedding backend %q", apperr.ErrConfiguration, cfg.EmbeddingBackend)
	}
}
