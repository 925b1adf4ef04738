package llm

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/anstrom/nmapanalysis/internal/config"
	"github.com/anstrom/nmapanalysis/internal/errors"
	"github.com/anstrom/nmapanalysis/internal/logging"
	"github.com/anstrom/nmapanalysis/internal/metrics"
)

// HTTP status code constants
const (
	StatusBadRequest      = 400
	StatusTooManyRequests = 429
	StatusServerError     = 500
)

const (
	completionsPath = "/completions"
	userAgent       = "nmapanalysis/1.0"

	// Error bodies are only read this far.
	maxErrorBody = 64 << 10
)

// Client calls the legacy completions endpoint of an OpenAI compatible API.
// Requests are never retried.
type Client struct {
	baseURL    string
	apiKey     string
	params     config.LLMConfig
	httpClient *http.Client
	metrics    *metrics.PrometheusMetrics
	logger     *logging.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithMetrics records request counts and durations.
func WithMetrics(m *metrics.PrometheusMetrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *logging.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// completionRequest is the body of POST /completions.
type completionRequest struct {
	Model            string  `json:"model"`
	Prompt           string  `json:"prompt"`
	Temperature      float64 `json:"temperature"`
	MaxTokens        int     `json:"max_tokens"`
	TopP             float64 `json:"top_p"`
	FrequencyPenalty float64 `json:"frequency_penalty"`
	PresencePenalty  float64 `json:"presence_penalty"`
}

type completionChoice struct {
	Text         string `json:"text"`
	Index        int    `json:"index"`
	FinishReason string `json:"finish_reason"`
}

type apiErrorBody struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    any    `json:"code"`
}

type completionResponse struct {
	ID      string             `json:"id"`
	Model   string             `json:"model"`
	Choices []completionChoice `json:"choices"`
	Error   *apiErrorBody      `json:"error,omitempty"`
}

// APIError represents an error response from the completions endpoint
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("API error (status %d, type %s): %s", e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Message)
}

// NewClient creates a completions client from the llm config section. An
// empty apiKey is rejected with the message naming cfg.APIKeyEnv.
func NewClient(cfg config.LLMConfig, apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.ErrAPIKeyMissing(cfg.APIKeyEnv)
	}

	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  apiKey,
		params:  cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:    2,
				IdleConnTimeout: 30 * time.Second,
			},
		},
		logger: logging.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.WithComponent("llm")

	return c, nil
}

// Generate sends prompt to the completions endpoint and returns the text of
// the first choice.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	text, err := c.complete(ctx, prompt)
	elapsed := time.Since(start)
	c.metrics.RecordGeneration(elapsed, err)

	if err != nil {
		c.logger.Error("Completion request failed", "model", c.params.Model, "duration", elapsed, "error", err)
		return "", err
	}
	c.logger.Info("Completion request succeeded", "model", c.params.Model, "duration", elapsed, "chars", len(text))
	return text, nil
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(completionRequest{
		Model:            c.params.Model,
		Prompt:           prompt,
		Temperature:      c.params.Temperature,
		MaxTokens:        c.params.MaxTokens,
		TopP:             c.params.TopP,
		FrequencyPenalty: c.params.FrequencyPenalty,
		PresencePenalty:  c.params.PresencePenalty,
	})
	if err != nil {
		return "", errors.WrapGenerationError(errors.CodeUnknown, BackendOpenAI,
			"failed to marshal completion request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+completionsPath, bytes.NewReader(payload))
	if err != nil {
		return "", errors.WrapGenerationError(errors.CodeConfiguration, BackendOpenAI,
			"failed to create completion request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.WrapGenerationError(transportCode(ctx, err), BackendOpenAI,
			"completion request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= StatusBadRequest {
		apiErr := readAPIError(resp)
		genErr := errors.WrapGenerationError(statusCode(resp.StatusCode), BackendOpenAI,
			"completion request was rejected", apiErr)
		genErr.StatusCode = resp.StatusCode
		return "", genErr
	}

	var body completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", errors.WrapGenerationError(errors.CodeServiceResponse, BackendOpenAI,
			"failed to decode completion response", err)
	}
	if len(body.Choices) == 0 {
		return "", errors.NewGenerationError(errors.CodeServiceResponse, BackendOpenAI,
			"completion response contained no choices")
	}

	return body.Choices[0].Text, nil
}

func readAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body completionResponse
	if err := json.Unmarshal(data, &body); err == nil && body.Error != nil {
		apiErr.Message = body.Error.Message
		apiErr.Type = body.Error.Type
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

func statusCode(status int) errors.ErrorCode {
	switch {
	case status == StatusTooManyRequests:
		return errors.CodeRateLimited
	case status >= StatusServerError:
		return errors.CodeServiceUnavailable
	default:
		return errors.CodeServiceResponse
	}
}

func transportCode(ctx context.Context, err error) errors.ErrorCode {
	switch {
	case stderrors.Is(ctx.Err(), context.Canceled):
		return errors.CodeCanceled
	case stderrors.Is(ctx.Err(), context.DeadlineExceeded), isTimeout(err):
		return errors.CodeTimeout
	default:
		return errors.CodeServiceUnavailable
	}
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return stderrors.As(err, &t) && t.Timeout()
}
