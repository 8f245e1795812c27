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

// Managed defaults. llama-text-embed-v2 is the model vector backends ship
// with their hosted inference tier.
const (
	DefaultManagedModel = "llama-text-embed-v2"
	managedTimeout      = 60 * time.Second
)

var managedDimensions = map[string]int{
	"llama-text-embed-v2":   1024,
	"multilingual-e5-large": 1024,
	"bge-small-en-v1.5":     384,
	"all-minilm-l6-v2":      384,
}

// Managed delegates embedding generation to the inference endpoint of the
// system hosting the vector index, so indexed vectors always match the
// index's own model. The passage/query input type is forwarded verbatim.
type Managed struct {
	client    *http.Client
	endpoint  string
	apiKey    string
	model     string
	dimension int
}

// ManagedConfig configures the index-hosted provider.
type ManagedConfig struct {
	Endpoint string
	APIKey   string
	Model    string
}

type managedEmbedRequest struct {
	Model      string            `json:"model"`
	Inputs     []managedInput    `json:"inputs"`
	Parameters map[string]string `json:"parameters"`
}

type managedInput struct {
	Text string `json:"text"`
}

type managedEmbedResponse struct {
	Data []struct {
		Values []float32 `json:"values"`
	} `json:"data"`
}

// NewManaged creates a provider backed by the vector backend's inference
// endpoint. Both the endpoint and the API key are required.
func NewManaged(cfg ManagedConfig) (*Managed, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("%w: MANAGED_EMBEDDING_ENDPOINT is required for the managed embedding backend", apperr.ErrConfiguration)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: an API key is required for the managed embedding backend", apperr.ErrConfiguration)
	}
	model := cfg.Model
	if model == "" {
		model = DefaultManagedModel
	}
	dimension, ok := managedDimensions[model]
	if !ok {
		dimension = managedDimensions[DefaultManagedModel]
	}
	return &Managed{
		client:    &http.Client{Timeout: managedTimeout},
		endpoint:  strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:    cfg.APIKey,
		model:     model,
		dimension: dimension,
	}, nil
}

// Embed generates embeddings server-side. kind becomes the input_type
// parameter; passing the wrong one degrades retrieval quality silently, so
// callers must pick it per use (index with passage, search with query).
func (m *Managed) Embed(ctx context.Context, texts []string, kind Kind) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	inputs := make([]managedInput, len(texts))
	for i, t := range texts {
		inputs[i] = managedInput{Text: t}
	}
	body, err := json.Marshal(managedEmbedRequest{
		Model:      m.model,
		Inputs:     inputs,
		Parameters: map[string]string{"input_type": string(kind)},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, &apperr.ProviderError{
			Provider:   "managed",
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	var embedResp managedEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embedResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(embedResp.Data) != len(texts) {
		return nil, fmt.Errorf("managed endpoint returned %d vectors for %d inputs", len(embedResp.Data), len(texts))
	}

	embeddings := make([][]float32, len(embedResp.Data))
	for i, d := range embedResp.Data {
		embeddings[i] = d.Values
	}
	return embeddings, nil
}

// Dimension returns the vector size of the configured model.
func (m *Managed) Dimension() int {
	return m.dimension
}

// Name returns the provider identifier.
func (m *Managed) Name() string {
	return "managed/" + m.model
}
