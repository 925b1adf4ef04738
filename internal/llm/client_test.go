package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anstrom/nmapanalysis/internal/config"
	"github.com/anstrom/nmapanalysis/internal/errors"
	"github.com/anstrom/nmapanalysis/internal/metrics"
)

func testLLMConfig(baseURL string) config.LLMConfig {
	cfg := config.Default().LLM
	cfg.BaseURL = baseURL
	cfg.Timeout = 5 * time.Second
	return cfg
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient(testLLMConfig("http://localhost"), "")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeAPIKeyMissing))
	assert.Equal(t,
		"The OPENAI_KEY environment variable is not set. Please set the OPENAI_KEY with your OpenAI API key.",
		errors.UserMessage(err))
}

func TestClientGenerate(t *testing.T) {
	var got completionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cmpl-1","choices":[{"text":"\n\n## Description\nok","index":0,"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	m := metrics.NewPrometheusMetrics()
	client, err := NewClient(testLLMConfig(server.URL+"/v1/"), "sk-test", WithMetrics(m))
	require.NoError(t, err)

	text, err := client.Generate(context.Background(), "analyse this")
	require.NoError(t, err)
	assert.Equal(t, "\n\n## Description\nok", text)

	assert.Equal(t, completionRequest{
		Model:            "gpt-3.5-turbo-instruct",
		Prompt:           "analyse this",
		Temperature:      0.7,
		MaxTokens:        1500,
		TopP:             1.0,
		FrequencyPenalty: 0,
		PresencePenalty:  0,
	}, got)

	textfile := filepath.Join(t.TempDir(), "llm.prom")
	require.NoError(t, m.WriteTextfile(textfile))
	prom, err := os.ReadFile(textfile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `nmapanalysis_llm_requests_total{status="success"} 1`)
}

func TestClientGenerateErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantCode   errors.ErrorCode
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "unauthorized",
			status:     http.StatusUnauthorized,
			body:       `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`,
			wantCode:   errors.CodeServiceResponse,
			wantStatus: http.StatusUnauthorized,
			wantMsg:    "Incorrect API key provided",
		},
		{
			name:       "rate limited",
			status:     http.StatusTooManyRequests,
			body:       `{"error":{"message":"Rate limit reached","type":"requests"}}`,
			wantCode:   errors.CodeRateLimited,
			wantStatus: http.StatusTooManyRequests,
			wantMsg:    "Rate limit reached",
		},
		{
			name:       "server error with plain body",
			status:     http.StatusBadGateway,
			body:       "upstream down",
			wantCode:   errors.CodeServiceUnavailable,
			wantStatus: http.StatusBadGateway,
			wantMsg:    "upstream down",
		},
		{
			name:     "no choices",
			status:   http.StatusOK,
			body:     `{"id":"cmpl-2","choices":[]}`,
			wantCode: errors.CodeServiceResponse,
			wantMsg:  "no choices",
		},
		{
			name:     "malformed json",
			status:   http.StatusOK,
			body:     `{"choices":`,
			wantCode: errors.CodeServiceResponse,
			wantMsg:  "decode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client, err := NewClient(testLLMConfig(server.URL), "sk-test")
			require.NoError(t, err)

			text, err := client.Generate(context.Background(), "prompt")
			require.Error(t, err)
			assert.Empty(t, text)
			assert.Equal(t, 1, calls, "requests are not retried")

			assert.Equal(t, tt.wantCode, errors.GetCode(err))
			assert.Contains(t, err.Error(), tt.wantMsg)

			var genErr *errors.GenerationError
			require.ErrorAs(t, err, &genErr)
			assert.Equal(t, BackendOpenAI, genErr.Backend)
			assert.Equal(t, tt.wantStatus, genErr.StatusCode)

			if tt.wantStatus != 0 {
				var apiErr *APIError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, tt.wantStatus, apiErr.StatusCode)
			}
		})
	}
}

func TestClientGenerateTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client, err := NewClient(testLLMConfig(server.URL), "sk-test")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = client.Generate(ctx, "prompt")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeTimeout))
}

func TestClientGenerateUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client, err := NewClient(testLLMConfig(url), "sk-test")
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeServiceUnavailable))
}

func TestAPIErrorMessage(t *testing.T) {
	assert.Equal(t, "API error (status 401): nope", (&APIError{StatusCode: 401, Message: "nope"}).Error())
	assert.Equal(t, "API error (status 429, type requests): slow down",
		(&APIError{StatusCode: 429, Type: "requests", Message: "slow down"}).Error())
}
