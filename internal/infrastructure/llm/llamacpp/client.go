package llamacpp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/bpe-platform/chatbot-service/internal/core/ports"
	"github.com/bpe-platform/chatbot-service/internal/infrastructure/resilience"
)

// Config tunes the llama.cpp server client. MaxTokens bounds n_predict per
// request; the truncation repair downstream deals with answers that hit it.
type Config struct {
	BaseURL     string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxTokens <= 0 {
		c.MaxTokens = 300
	}
	if c.Temperature <= 0 {
		c.Temperature = 0.2
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	return c
}

// Client talks to a llama.cpp server over its native completion API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(cfg Config, executor *resilience.Executor) *Client {
	cfg = cfg.withDefaults()
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		executor:   executor,
	}
}

var _ ports.AnswerGenerator = (*Client)(nil)

type completionRequest struct {
	Prompt      string  `json:"prompt"`
	NPredict    int     `json:"n_predict"`
	Temperature float64 `json:"temperature"`
}

type completionResponse struct {
	Content string `json:"content"`
}

// Generate runs one completion for the prompt and returns the raw text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(completionRequest{
		Prompt:      prompt,
		NPredict:    c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal completion request: %w", err)
	}

	var content string
	err = c.executor.Execute(ctx, "llamacpp.completion", func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/completion", bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("create completion request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("llama completion: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			return &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
		}

		var completion completionResponse
		if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
			return fmt.Errorf("decode completion response: %w", err)
		}
		content = strings.TrimSpace(completion.Content)
		return nil
	}, ClassifyError)
	if err != nil {
		return "", err
	}
	if content == "" {
		return "", fmt.Errorf("llama completion: empty response")
	}
	return content, nil
}

// Healthy probes the server health endpoint.
func (c *Client) Healthy(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("create health request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("llama health: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return &StatusError{Status: resp.StatusCode}
	}

	var health struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return fmt.Errorf("decode health response: %w", err)
	}
	if health.Status != "ok" {
		return fmt.Errorf("llama health: status %q", health.Status)
	}
	return nil
}

// StatusError is a non-2xx llama.cpp response.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("llama server: status %d: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("llama server: status %d", e.Status)
}

// ClassifyError marks server and transport failures as breaker-worthy; a 503
// from a model still loading is also retryable.
func ClassifyError(err error) resilience.Outcome {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		if statusErr.Status >= 500 || statusErr.Status == http.StatusTooManyRequests {
			return resilience.Outcome{Retryable: true, RecordFailure: true}
		}
		return resilience.Outcome{Retryable: false, RecordFailure: false}
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, io.EOF) {
		return resilience.Outcome{Retryable: true, RecordFailure: true}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.Outcome{Retryable: false, RecordFailure: true}
	}
	return resilience.Outcome{Retryable: true, RecordFailure: true}
}
