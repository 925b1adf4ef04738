// Package config loads and validates the nmapanalysis configuration file.
package config

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/anstrom/nmapanalysis/internal/errors"
	"github.com/anstrom/nmapanalysis/internal/logging"
)

// Config represents the complete tool configuration
type Config struct {
	// Text generation backend
	LLM LLMConfig `yaml:"llm" json:"llm"`

	// Report output settings
	Report ReportConfig `yaml:"report" json:"report"`

	// Fabric backend settings
	Fabric FabricConfig `yaml:"fabric" json:"fabric"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Metrics configuration
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
}

// LLMConfig holds settings for the completions endpoint
type LLMConfig struct {
	// Base URL of an OpenAI compatible API
	BaseURL string `yaml:"base_url" json:"base_url" validate:"required,url"`

	// Model name sent with each request
	Model string `yaml:"model" json:"model" validate:"required"`

	// Environment variable holding the API key
	APIKeyEnv string `yaml:"api_key_env" json:"api_key_env" validate:"required"`

	Temperature      float64 `yaml:"temperature" json:"temperature" validate:"min=0,max=2"`
	MaxTokens        int     `yaml:"max_tokens" json:"max_tokens" validate:"min=1,max=32768"`
	TopP             float64 `yaml:"top_p" json:"top_p" validate:"min=0,max=1"`
	FrequencyPenalty float64 `yaml:"frequency_penalty" json:"frequency_penalty" validate:"min=-2,max=2"`
	PresencePenalty  float64 `yaml:"presence_penalty" json:"presence_penalty" validate:"min=-2,max=2"`

	// Request timeout
	Timeout time.Duration `yaml:"timeout" json:"timeout" validate:"gt=0"`
}

// ReportConfig holds report output settings
type ReportConfig struct {
	// Directory reports are written into
	OutputDir string `yaml:"output_dir" json:"output_dir" validate:"required"`

	// Go time layout used in generated file names
	TimestampFormat string `yaml:"timestamp_format" json:"timestamp_format" validate:"required"`
}

// FabricConfig holds settings for the Fabric pattern runner
type FabricConfig struct {
	// Enable the fabric-report command
	Enabled bool `yaml:"enabled" json:"enabled"`

	// File containing the "alias fabric=..." line
	BootstrapFile string `yaml:"bootstrap_file" json:"bootstrap_file"`

	// Pattern passed with -p
	Pattern string `yaml:"pattern" json:"pattern" validate:"required"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	// Log level (debug, info, warn, error)
	Level string `yaml:"level" json:"level" validate:"oneof=debug info warn error"`

	// Log format (text, json)
	Format string `yaml:"format" json:"format" validate:"oneof=text json"`

	// Log output (stdout, stderr, file path)
	Output string `yaml:"output" json:"output"`
}

// MetricsConfig holds metrics settings
type MetricsConfig struct {
	// Path of a Prometheus textfile to write after each run; empty disables
	Textfile string `yaml:"textfile" json:"textfile"`
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			BaseURL:          "https://api.openai.com/v1",
			Model:            "gpt-3.5-turbo-instruct",
			APIKeyEnv:        "OPENAI_KEY",
			Temperature:      0.7,
			MaxTokens:        1500,
			TopP:             1.0,
			FrequencyPenalty: 0.0,
			PresencePenalty:  0.0,
			Timeout:          60 * time.Second,
		},
		Report: ReportConfig{
			OutputDir:       ".",
			TimestampFormat: "2006-01-02_15-04-05",
		},
		Fabric: FabricConfig{
			Enabled:       false,
			BootstrapFile: "~/.config/fabric/fabric-bootstrap.inc",
			Pattern:       "create_network_threat_landscape",
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
			Output: "stderr",
		},
	}
}

// Load loads configuration from a file
func Load(path string) (*Config, error) {
	// Start with defaults
	config := Default()

	if path == "" {
		return config, nil
	}

	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config, nil // Return defaults if no config file
	}

	// Read file
	data, err := os.ReadFile(path) //nolint:gosec // operator supplied config path
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// JSON is a subset of YAML, so both go through the YAML decoder
	switch filepath.Ext(path) {
	case ".json":
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

var validate = validator.New()

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if stderrors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return errors.ErrConfigInvalid(fieldErrs[0].Namespace(), fieldErrs[0].Value())
		}
		return err
	}

	if c.Fabric.Enabled && c.Fabric.BootstrapFile == "" {
		return errors.NewConfigFieldError(errors.CodeValidation,
			"fabric bootstrap file is required when fabric is enabled", "Config.Fabric.BootstrapFile", c.Fabric.BootstrapFile)
	}

	return nil
}

// APIKey returns the API key from the configured environment variable.
func (c *Config) APIKey() string {
	return os.Getenv(c.LLM.APIKeyEnv)
}

// LoggerConfig converts the logging section into a logging.Config.
func (c *Config) LoggerConfig() logging.Config {
	return logging.Config{
		Level:     logging.LogLevel(c.Logging.Level),
		Format:    logging.LogFormat(c.Logging.Format),
		Output:    c.Logging.Output,
		AddSource: c.Logging.Level == "debug",
	}
}
