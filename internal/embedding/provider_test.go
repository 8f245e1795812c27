package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docupilot/docupilot/internal/apperr"
)

func TestNewRemote_RequiresAPIKey(t *testing.T) {
	_, err := NewRemote(RemoteConfig{})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrConfiguration)
}

func TestNewRemote_KnownDimensions(t *testing.T) {
	r, err := NewRemote(RemoteConfig{APIKey: "test-key", Model: "text-embedding-3-large"})
	require.NoError(t, err)
	assert.Equal(t, 3072, r.Dimension())
	assert.Equal(t, "openai/text-embedding-3-large", r.Name())
}

func TestNewManaged_RequiresEndpointAndKey(t *testing.T) {
	_, err := NewManaged(ManagedConfig{APIKey: "k"})
	assert.ErrorIs(t, err, apperr.ErrConfiguration)

	_, err = NewManaged(ManagedConfig{Endpoint: "http://localhost:6333"})
	assert.ErrorIs(t, err, apperr.ErrConfiguration)
}

func TestLocal_ProbeFixesDimension(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/embeddings", r.URL.Path)
		json.NewEncoder(w).Encode(ollamaEmbedResponse{Embedding: []float64{0.1, 0.2, 0.3}})
	}))
	defer srv.Close()

	local, err := NewLocal(context.Background(), LocalConfig{BaseURL: srv.URL, Model: "nomic-embed-text"})
	require.NoError(t, err)
	assert.Equal(t, 3, local.Dimension())

	vectors, err := local.Embed(context.Background(), []string{"hello"}, KindDocument)
	require.NoError(t, err)
	require.Len(t, vectors, 1)
	assert.Len(t, vectors[0], 3)
}

func TestLocal_ConstructionFailsWhenModelUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewLocal(context.Background(), LocalConfig{BaseURL: srv.URL, Model: "missing-model"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrModelLoad)
}

func TestLocal_NomicTaskPrefixes(t *testing.T) {
	var prompts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		prompts = append(prompts, req.Prompt)
		json.NewEncoder(w).Encode(ollamaEmbedResponse{Embedding: []float64{1}})
	}))
	defer srv.Close()

	local, err := NewLocal(context.Background(), LocalConfig{BaseURL: srv.URL, Model: "nomic-embed-text"})
	require.NoError(t, err)

	_, err = local.Embed(context.Background(), []string{"indexed text"}, KindDocument)
	require.NoError(t, err)
	_, err = local.Embed(context.Background(), []string{"a question"}, KindQuery)
	require.NoError(t, err)

	// prompts[0] is the construction probe.
	assert.Equal(t, "search_document: indexed text", prompts[1])
	assert.Equal(t, "search_query: a question", prompts[2])
}

func TestManaged_ForwardsInputType(t *testing.T) {
	var inputTypes []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/embed", r.URL.Path)
		require.Equal(t, "secret", r.Header.Get("Api-Key"))

		var req managedEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		inputTypes = append(inputTypes, req.Parameters["input_type"])

		resp := managedEmbedResponse{}
		for range req.Inputs {
			resp.Data = append(resp.Data, struct {
				Values []float32 `json:"values"`
			}{Values: []float32{0.5, 0.5}})
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	managed, err := NewManaged(ManagedConfig{Endpoint: srv.URL, APIKey: "secret"})
	require.NoError(t, err)

	vectors, err := managed.Embed(context.Background(), []string{"a", "b"}, KindDocument)
	require.NoError(t, err)
	assert.Len(t, vectors, 2)

	_, err = managed.Embed(context.Background(), []string{"q"}, KindQuery)
	require.NoError(t, err)

	assert.Equal(t, []string{"passage", "query"}, inputTypes)
}

func TestManaged_ProviderErrorCarriesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"quota exceeded"}`, http.StatusPaymentRequired)
	}))
	defer srv.Close()

	managed, err := NewManaged(ManagedConfig{Endpoint: srv.URL, APIKey: "secret"})
	require.NoError(t, err)

	_, err = managed.Embed(context.Background(), []string{"text"}, KindDocument)
	require.Error(t, err)
	require.True(t, apperr.IsProvider(err))
	assert.Contains(t, err.Error(), "quota exceeded")
}
