package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/docupilot/docupilot/internal/apperr"
)

const (
	// DefaultRemoteModel is the OpenAI embedding model used when none is configured.
	DefaultRemoteModel = "text-embedding-3-small"

	// remoteBatchSize balances requests-per-minute vs tokens-per-minute limits.
	remoteBatchSize = 500
)

// remoteDimensions maps OpenAI embedding models to their vector sizes.
var remoteDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// Remote generates embeddings through the OpenAI embeddings API.
// Requests are batched and retried with exponential backoff on rate limits.
type Remote struct {
	client    openai.Client
	model     string
	dimension int
}

// RemoteConfig configures the OpenAI-backed provider.
type RemoteConfig struct {
	APIKey string
	Model  string
}

// NewRemote creates an OpenAI embedding provider. The API key is required;
// without it the backend cannot serve any request, so construction fails.
func NewRemote(cfg RemoteConfig) (*Remote, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: OPENAI_API_KEY is required for the remote embedding backend", apperr.ErrConfiguration)
	}
	model := cfg.Model
	if model == "" {
		model = DefaultRemoteModel
	}
	dimension, ok := remoteDimensions[model]
	if !ok {
		dimension = remoteDimensions[DefaultRemoteModel]
	}
	return &Remote{
		client:    openai.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:     model,
		dimension: dimension,
	}, nil
}

// Embed generates embeddings for the given texts. The kind parameter is
// accepted for interface parity; OpenAI models are symmetric encoders.
func (r *Remote) Embed(ctx context.Context, texts []string, _ Kind) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var all [][]float32
	for i := 0; i < len(texts); i += remoteBatchSize {
		end := min(i+remoteBatchSize, len(texts))
		batch, err := r.embedBatchWithRetry(ctx, texts[i:end])
		if err != nil {
			return nil, fmt.Errorf("batch %d-%d: %w", i, end, err)
		}
		all = append(all, batch...)
	}
	return all, nil
}

// embedBatchWithRetry embeds a single batch, retrying with exponential
// backoff on rate limit errors. Other API errors fail immediately and are
// surfaced as ProviderError carrying the response body.
func (r *Remote) embedBatchWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	var embeddings [][]float32

	operation := func() error {
		resp, err := r.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Input: openai.EmbeddingNewParamsInputUnion{
				OfArrayOfStrings: texts,
			},
			Model: openai.EmbeddingModel(r.model),
		})
		if err != nil {
			var apiErr *openai.Error
			if errors.As(err, &apiErr) {
				if apiErr.StatusCode == 429 {
					return err // retry with backoff
				}
				return backoff.Permanent(&apperr.ProviderError{
					Provider:   "openai",
					StatusCode: apiErr.StatusCode,
					Body:       apiErr.Error(),
				})
			}
			return backoff.Permanent(err)
		}

		embeddings = make([][]float32, len(resp.Data))
		for i, data := range resp.Data {
			embeddings[i] = toFloat32(data.Embedding)
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, err
	}
	return embeddings, nil
}

// Dimension returns the vector size of the configured model.
func (r *Remote) Dimension() int {
	return r.dimension
}

// Name returns the provider identifier.
func (r *Remote) Name() string {
	return "openai/" + r.model
}

// toFloat32 converts the API's float64 vectors to float32 for storage.
func toFloat32(f64 []float64) []float32 {
	f32 := make([]float32, len(f64))
	for i, v := range f64 {
		f32[i] = float32(v)
	}
	return f32
}
