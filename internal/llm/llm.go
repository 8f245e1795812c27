// Package llm abstracts the text-generation backend used by the agents.
// Backends are unreliable collaborators: callers must treat every Complete
// error as recoverable and fall back to degraded output where possible.
package llm

import (
	"context"
	"fmt"

	"github.com/docupilot/docupilot/internal/apperr"
	"github.com/docupilot/docupilot/internal/config"
)

// Message is one chat turn sent to the backend.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Convenience constructors for the standard roles.
func System(content string) Message    { return Message{Role: "system", Content: content} }
func User(content string) Message      { return Message{Role: "user", Content: content} }
func Assistant(content string) Message { return Message{Role: "assistant", Content: content} }

// Client generates text from an ordered message sequence.
// maxTokens <= 0 means no explicit limit.
type Client interface {
	Complete(ctx context.Context, messages []Message, temperature float64, maxTokens int) (string, error)
	Name() string
}

// NewClient constructs the generation backend selected by cfg.
func NewClient(cfg *config.Config) (Client, error) {
	switch cfg.LLMBackend {
	case config.LLMOpenAI:
		return NewOpenAI(OpenAIConfig{APIKey: cfg.OpenAIAPIKey, Model: cfg.LLMModel})
	case config.LLMOllama:
		return NewOllama(OllamaConfig{BaseURL: cfg.OllamaBaseURL, Model: cfg.OllamaLLMModel}), nil
	default:
		return nil, fmt.Errorf("%w: unknown llm backend %q", apperr.ErrConfiguration, cfg.LLMBackend)
	}
}
