package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCodes(t *testing.T) {
	codes := []ErrorCode{
		CodeUnknown,
		CodeValidation,
		CodeConfiguration,
		CodeTimeout,
		CodeCanceled,
		CodeParseFailed,
		CodeMissingAttr,
		CodeFileNotFound,
		CodeFilePermission,
		CodeDirectoryCreate,
		CodeReportWrite,
		CodeAPIKeyMissing,
		CodeServiceUnavailable,
		CodeServiceResponse,
		CodeRateLimited,
		CodeFeatureDisabled,
	}

	seen := make(map[ErrorCode]bool)
	for _, code := range codes {
		if string(code) == "" {
			t.Errorf("Error code %v should not be empty", code)
		}
		if seen[code] {
			t.Errorf("Error code %s is declared twice", code)
		}
		seen[code] = true
	}
}

func TestScanError(t *testing.T) {
	t.Run("basic error creation", func(t *testing.T) {
		err := NewScanError(CodeParseFailed, "parse failed")
		if err.Code != CodeParseFailed {
			t.Errorf("Expected code %s, got %s", CodeParseFailed, err.Code)
		}
		if err.Message != "parse failed" {
			t.Errorf("Expected message 'parse failed', got '%s'", err.Message)
		}
		if err.Context == nil {
			t.Error("Context should be initialized")
		}
	})

	t.Run("error with file", func(t *testing.T) {
		err := NewScanErrorWithFile(CodeValidation, "bad file", "scan.txt")
		expected := "[VALIDATION] bad file (file: scan.txt)"
		if err.Error() != expected {
			t.Errorf("Expected error message '%s', got '%s'", expected, err.Error())
		}
	})

	t.Run("error with file and host", func(t *testing.T) {
		err := ErrMissingAttribute("port", "protocol")
		err.File = "first.xml"
		err.WithHost("10.0.0.1")
		assert.Equal(t,
			`[MISSING_ATTRIBUTE] port element is missing the "protocol" attribute (file: first.xml) (host: 10.0.0.1)`,
			err.Error())
	})

	t.Run("wrapped error", func(t *testing.T) {
		cause := fmt.Errorf("XML syntax error on line 1")
		err := WrapScanErrorWithFile(CodeParseFailed, "decode XML", "a.xml", cause)
		if err.Unwrap() != cause {
			t.Error("Wrapped error should be unwrappable")
		}
		assert.Equal(t, "[PARSE_FAILED] decode XML (file: a.xml): XML syntax error on line 1", err.Error())
	})

	t.Run("with context", func(t *testing.T) {
		err := NewScanError(CodeParseFailed, "bad port")
		err.WithContext("portid", "abc").WithContext("line", 3)

		assert.Equal(t, "abc", err.Context["portid"])
		assert.Equal(t, 3, err.Context["line"])
	})
}

func TestReportError(t *testing.T) {
	cause := errors.New("permission denied")
	err := WrapReportError(CodeReportWrite, "xlsx", "/tmp/out.xlsx", cause)

	assert.Equal(t, "xlsx", err.Format)
	assert.Equal(t, "[REPORT_WRITE] failed to write xlsx report (path: /tmp/out.xlsx): permission denied", err.Error())
	assert.True(t, errors.Is(err, cause))
}

func TestGenerationError(t *testing.T) {
	t.Run("with status", func(t *testing.T) {
		err := NewGenerationError(CodeRateLimited, "openai", "rate limit exceeded")
		err.StatusCode = 429
		assert.Equal(t, "[RATE_LIMITED] rate limit exceeded (backend: openai) (status: 429)", err.Error())
	})

	t.Run("wrapped", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := WrapGenerationError(CodeServiceUnavailable, "openai", "request failed", cause)
		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "connection refused")
	})
}

func TestConfigError(t *testing.T) {
	t.Run("field error", func(t *testing.T) {
		err := ErrConfigInvalid("llm.temperature", 3.5)
		assert.Equal(t, "[VALIDATION] Invalid configuration value (field: llm.temperature)", err.Error())
		assert.Equal(t, 3.5, err.Value)
	})

	t.Run("no field", func(t *testing.T) {
		err := NewConfigError(CodeConfiguration, "broken")
		assert.Equal(t, "[CONFIGURATION] broken", err.Error())
	})

	t.Run("wrapped", func(t *testing.T) {
		cause := errors.New("yaml: line 2")
		err := WrapConfigError(CodeConfiguration, "parse", cause)
		assert.Same(t, cause, err.Unwrap())
	})
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"nil", nil, CodeUnknown},
		{"plain error", errors.New("x"), CodeUnknown},
		{"scan error", NewScanError(CodeParseFailed, "x"), CodeParseFailed},
		{"report error", WrapReportError(CodeReportWrite, "md", "", nil), CodeReportWrite},
		{"generation error", NewGenerationError(CodeServiceResponse, "openai", "x"), CodeServiceResponse},
		{"config error", ErrAPIKeyMissing("OPENAI_KEY"), CodeAPIKeyMissing},
		{"wrapped with fmt", fmt.Errorf("outer: %w", ErrInvalidScanFile("a.txt")), CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetCode(tt.err))
			if tt.err != nil && tt.want != CodeUnknown {
				assert.True(t, IsCode(tt.err, tt.want))
			}
		})
	}

	assert.False(t, IsCode(nil, CodeUnknown))
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{
			"api key missing",
			ErrAPIKeyMissing("OPENAI_KEY"),
			"The OPENAI_KEY environment variable is not set. Please set the OPENAI_KEY with your OpenAI API key.",
		},
		{"feature disabled", ErrFeatureDisabled("fabric"), "Function disabled until pull request is merged."},
		{"invalid scan file", ErrInvalidScanFile("a.txt"), "File a.txt does not exist or is not a valid XML file."},
		{
			"generation failure",
			WrapGenerationError(CodeServiceUnavailable, "openai", "request failed", errors.New("dial tcp: refused")),
			"request failed: dial tcp: refused",
		},
		{
			"config failure with cause",
			WrapConfigError(CodeConfiguration, "failed to read config file", errors.New("no such file")),
			"failed to read config file: no such file",
		},
		{"plain", errors.New("boom"), "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}
