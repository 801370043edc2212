package ai

import (
	"context"
	"fmt"
	"math"
	"net/http"

	"github.com/sashabaranov/go-openai"
)

// CompletionRequest is one single-turn completion call.
type CompletionRequest struct {
	Model       string
	Prompt      string
	MaxTokens   int
	Temperature float32
}

// Completer is the remote completion handle.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// ProviderConfig holds configuration for an OpenAI-compatible provider
type ProviderConfig struct {
	APIKey     string
	BaseURL    string // Empty = https://api.openai.com/v1
	HTTPClient *http.Client
}

// OpenAIClient implements Completer on top of go-openai.
// Works with OpenAI and any OpenAI-compatible API.
type OpenAIClient struct {
	client *openai.Client
}

// NewClient creates a new completion client from provider configuration
func NewClient(cfg ProviderConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPClient != nil {
		clientCfg.HTTPClient = cfg.HTTPClient
	}

	return &OpenAIClient{client: openai.NewClientWithConfig(clientCfg)}, nil
}

// Complete sends the prompt as a single user message and returns the first
// choice's content. A response without choices yields an empty string.
func (c *OpenAIClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	// go-openai drops a zero temperature from the payload.
	temperature := req.Temperature
	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// AvailableModels returns common models for OpenAI-compatible providers
func AvailableModels() []string {
	return []string{
		openai.GPT3Dot5Turbo,
		openai.GPT4oMini,
		openai.GPT4o,
		openai.GPT4Turbo,
	}
}
