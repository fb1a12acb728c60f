package openaicompat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/bpe-platform/chatbot-service/internal/core/ports"
	"github.com/bpe-platform/chatbot-service/internal/infrastructure/resilience"
)

// Config selects the OpenAI-compatible endpoint and generation bounds. Works
// against the hosted API or any local server speaking the same protocol.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
}

// Client generates answers through the chat completions API.
type Client struct {
	api      *openai.Client
	cfg      Config
	executor *resilience.Executor
}

func New(cfg Config, executor *resilience.Executor) *Client {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 300
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.2
	}

	apiConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiConfig.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	return &Client{
		api:      openai.NewClientWithConfig(apiConfig),
		cfg:      cfg,
		executor: executor,
	}
}

var _ ports.AnswerGenerator = (*Client)(nil)

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	var content string
	err := c.executor.Execute(ctx, "openai.chat_completion", func(ctx context.Context) error {
		resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: c.cfg.Model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			MaxTokens:   c.cfg.MaxTokens,
			Temperature: float32(c.cfg.Temperature),
		})
		if err != nil {
			return fmt.Errorf("chat completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("chat completion: no choices returned")
		}
		content = strings.TrimSpace(resp.Choices[0].Message.Content)
		return nil
	}, ClassifyError)
	if err != nil {
		return "", err
	}
	if content == "" {
		return "", fmt.Errorf("chat completion: empty response")
	}
	return content, nil
}

// ClassifyError maps API errors by status: server-side failures and rate
// limits count against the breaker, request errors do not.
func ClassifyError(err error) resilience.Outcome {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode >= 500 || apiErr.HTTPStatusCode == 429 {
			return resilience.Outcome{Retryable: true, RecordFailure: true}
		}
		return resilience.Outcome{Retryable: false, RecordFailure: false}
	}
	return resilience.Outcome{Retryable: true, RecordFailure: true}
}
