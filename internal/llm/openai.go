package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/docupilot/docupilot/internal/apperr"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAI generates text through the OpenAI chat completions API.
type OpenAI struct {
	client openai.Client
	model  string
}

// OpenAIConfig configures the OpenAI generation backend.
type OpenAIConfig struct {
	APIKey string
	Model  string
}

// NewOpenAI creates an OpenAI generation client. The API key is required.
func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: OPENAI_API_KEY is required for the openai llm backend", apperr.ErrConfiguration)
	}
	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAI{
		client: openai.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:  model,
	}, nil
}

// Complete sends the messages and returns the first choice's content.
func (o *OpenAI) Complete(ctx context.Context, messages []Message, temperature float64, maxTokens int) (string, error) {
	params := openai.ChatCompletionNewParams{
		Messages:    toOpenAIMessages(messages),
		Model:       openai.ChatModel(o.model),
		Temperature: openai.Float(temperature),
	}
	if maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(maxTokens))
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", &apperr.ProviderError{
				Provider:   "openai",
				StatusCode: apiErr.StatusCode,
				Body:       apiErr.Error(),
			}
		}
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// Name returns the backend identifier.
func (o *OpenAI) Name() string {
	return "openai/" + o.model
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case "system":
			out = append(out, openai.SystemMessage(m.Content))
		case "assistant":
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
