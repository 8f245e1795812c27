package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/docupilot/docupilot/internal/apperr"
)

// Local defaults for the Ollama embedding backend.
const (
	DefaultLocalBaseURL = "http://localhost:11434"
	DefaultLocalModel   = "nomic-embed-text"
	localTimeout        = 30 * time.Second
)

// Local generates embeddings with a model served by a local Ollama instance.
// The model is verified (and warmed) once at construction; a model that
// cannot be loaded makes construction fail rather than every later request.
type Local struct {
	client    *http.Client
	baseURL   string
	model     string
	dimension int
}

// LocalConfig configures the Ollama-backed provider.
type LocalConfig struct {
	BaseURL string
	Model   string
}

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float64 `json:"embedding"`
}

// NewLocal creates an Ollama embedding provider. It runs a probe embedding
// at construction, which forces the model to load and fixes the dimension.
func NewLocal(ctx context.Context, cfg LocalConfig) (*Local, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultLocalBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLocalModel
	}

	l := &Local{
		client:  &http.Client{Timeout: localTimeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
	}

	probe, err := l.embedOne(ctx, "dimension probe")
	if err != nil {
		return nil, fmt.Errorf("%w: model %q at %s: %v", apperr.ErrModelLoad, cfg.Model, cfg.BaseURL, err)
	}
	if len(probe) == 0 {
		return nil, fmt.Errorf("%w: model %q returned an empty vector", apperr.ErrModelLoad, cfg.Model)
	}
	l.dimension = len(probe)
	return l, nil
}

// Embed generates embeddings one text at a time; Ollama has no batch API.
// Nomic-style models are asymmetric and expect a task prefix on each input.
func (l *Local) Embed(ctx context.Context, texts []string, kind Kind) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		vector, err := l.embedOne(ctx, l.prefixed(text, kind))
		if err != nil {
			return nil, fmt.Errorf("embed text %d: %w", i, err)
		}
		embeddings[i] = vector
	}
	return embeddings, nil
}

func (l *Local) embedOne(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(ollamaEmbedRequest{Model: l.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, &apperr.ProviderError{
			Provider:   "ollama",
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	var embedResp ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embedResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return toFloat32(embedResp.Embedding), nil
}

// prefixed applies the task prefix expected by nomic-style models.
// Other models ignore unknown prefixes poorly, so only nomic gets them.
func (l *Local) prefixed(text string, kind Kind) string {
	if !strings.Contains(l.model, "nomic") {
		return text
	}
	if kind == KindQuery {
		return "search_query: " + text
	}
	return "search_document: " + text
}

// Dimension returns the probed vector size.
func (l *Local) Dimension() int {
	return l.dimension
}

// Name returns the provider identifier.
func (l *Local) Name() string {
	return "ollama/" + l.model
}
