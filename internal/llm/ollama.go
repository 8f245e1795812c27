package llm

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

// Ollama defaults.
const (
	DefaultOllamaModel = "llama3.1"
	ollamaLLMTimeout   = 120 * time.Second
)

// Ollama generates text through a local Ollama instance's chat API.
type Ollama struct {
	client  *http.Client
	baseURL string
	model   string
}

// OllamaConfig configures the Ollama generation backend.
type OllamaConfig struct {
	BaseURL string
	Model   string
}

type ollamaChatRequest struct {
	Model    string            `json:"model"`
	Messages []Message         `json:"messages"`
	Stream   bool              `json:"stream"`
	Options  ollamaChatOptions `json:"options"`
}

type ollamaChatOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaChatResponse struct {
	Message Message `json:"message"`
}

// NewOllama creates an Ollama generation client.
func NewOllama(cfg OllamaConfig) *Ollama {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	model := cfg.Model
	if model == "" {
		model = DefaultOllamaModel
	}
	return &Ollama{
		client:  &http.Client{Timeout: ollamaLLMTimeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
	}
}

// Complete sends the messages to /api/chat and returns the response content.
func (o *Ollama) Complete(ctx context.Context, messages []Message, temperature float64, maxTokens int) (string, error) {
	body, err := json.Marshal(ollamaChatRequest{
		Model:    o.model,
		Messages: messages,
		Stream:   false,
		Options: ollamaChatOptions{
			Temperature: temperature,
			NumPredict:  maxTokens,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", &apperr.ProviderError{
			Provider:   "ollama",
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	var chatResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return chatResp.Message.Content, nil
}

// Name returns the backend identifier.
func (o *Ollama) Name() string {
	return "ollama/" + o.model
}
