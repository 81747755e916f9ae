package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	ctxpkg "github.com/fepfitra/mykisah/internal/context"
	"github.com/fepfitra/mykisah/internal/model"
)

const (
	DefaultURL     = "https://openrouter.ai/api/v1/chat/completions"
	DefaultModel   = "nvidia/nemotron-nano-12b-v2-vl:free"
	DefaultReferer = "https://github.com/fepfitra/mykisah"
	DefaultTitle   = "MyKisah"
)

// Options configures a Client. Zero values fall back to the defaults above.
type Options struct {
	APIKey      string
	Model       string
	URL         string
	Referer     string
	Title       string
	Timeout     time.Duration
	Temperature *float32
	MaxTokens   *int
}

// Client is a minimal OpenRouter chat completions client. It holds the
// context bundle and resends it in front of every request.
type Client struct {
	apiKey      string
	url         string
	model       string
	referer     string
	title       string
	temperature *float32
	maxTokens   *int
	bundle      *ctxpkg.Bundle
	httpClient  *http.Client
	logger      *zap.Logger
}

// APIError is returned for non-success HTTP statuses. Body is the response
// body verbatim.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("OpenRouter API returned an error: status=%d body=%s", e.StatusCode, e.Body)
}

type chatRequest struct {
	Model       string           `json:"model"`
	Messages    []ctxpkg.Message `json:"messages"`
	Temperature *float32         `json:"temperature,omitempty"`
	MaxTokens   *int             `json:"max_tokens,omitempty"`
}

// NewClient creates an OpenRouter client.
func NewClient(opts Options, bundle *ctxpkg.Bundle, logger *zap.Logger) *Client {
	if opts.URL == "" {
		opts.URL = DefaultURL
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.Referer == "" {
		opts.Referer = DefaultReferer
	}
	if opts.Title == "" {
		opts.Title = DefaultTitle
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		apiKey:      opts.APIKey,
		url:         opts.URL,
		model:       opts.Model,
		referer:     opts.Referer,
		title:       opts.Title,
		temperature: opts.Temperature,
		maxTokens:   opts.MaxTokens,
		bundle:      bundle,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		logger: logger.Named("openrouter"),
	}
}

// Model returns the model identifier sent with every request.
func (c *Client) Model() string { return c.model }

// ChatCompletion sends the bundle followed by turns in a single request. There
// is no retry; non-2xx statuses return *APIError.
func (c *Client) ChatCompletion(ctx context.Context, turns []ctxpkg.Message) (*model.CompletionResponse, error) {
	reqBody := chatRequest{
		Model:       c.model,
		Messages:    ctxpkg.Assemble(c.bundle, turns),
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal openrouter request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create openrouter request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("HTTP-Referer", c.referer)
	req.Header.Set("X-Title", c.title)

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to OpenRouter: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed reading openrouter response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(body)}
		c.logger.Error("openrouter non-success status",
			zap.Int("status", resp.StatusCode),
			zap.String("body", apiErr.Body),
		)
		return nil, apiErr
	}

	var parsed model.CompletionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse OpenRouter response: %w", err)
	}

	c.logger.Debug("openrouter completion",
		zap.String("id", parsed.ID),
		zap.String("model", parsed.Model),
		zap.Int("messages", len(reqBody.Messages)),
		zap.Int("choices", len(parsed.Choices)),
		zap.Duration("latency", time.Since(started)),
	)
	return &parsed, nil
}
