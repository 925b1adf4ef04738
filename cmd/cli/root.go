// Package cli provides the command-line interface of nmapanalysis.
// This package implements the Cobra-based CLI structure with commands for
// comparing scans, generating narrative reports and printing statistics.
package cli

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/anstrom/nmapanalysis/internal/config"
	"github.com/anstrom/nmapanalysis/internal/errors"
	"github.com/anstrom/nmapanalysis/internal/logging"
	"github.com/anstrom/nmapanalysis/internal/metrics"
	"github.com/anstrom/nmapanalysis/internal/report"
)

const (
	envPrefix         = "NMAPANALYSIS"
	defaultConfigName = "nmapanalysis"
	dotEnvFile        = ".env"
)

var (
	cfgFile     string
	verbose     bool
	quiet       bool
	outputDir   string
	metricsFile string
)

// Per-run state prepared before any subcommand runs.
var (
	appConfig  *config.Config
	configPath string
	runMetrics *metrics.PrometheusMetrics
	reportID   string
	runLogger  = logging.Default()
	logger     = logging.Default()

	// now is replaced in tests for stable file names.
	now = time.Now
)

// Build information - these will be set by ldflags during build.
var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "nmapanalysis",
	Short: "Nmap scan comparison and analysis",
	Long: `nmapanalysis compares two Nmap XML scans into a spreadsheet, or sends the
open port and service statistics of one scan to a language model to produce a
markdown security report.`,
	Version:           getVersion(),
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupRun,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return finishRun()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), errors.UserMessage(err))
		logger.Debug("Command failed", "error", err, "code", errors.GetCode(err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetGlobalNormalizationFunc(normalizeFlagName)

	flags := rootCmd.PersistentFlags()

	// Global flags
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./nmapanalysis.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	flags.BoolVarP(&quiet, "quiet", "q", false, "suppress the banner and status messages")
	flags.StringVar(&outputDir, "output-dir", "", "directory reports are written to (default is the config value or .)")
	flags.StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics for this run to a textfile")

	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")
}

// normalizeFlagName lets --first_nmap_file stand in for --first-nmap-file.
func normalizeFlagName(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

// setupRun loads the environment and configuration, then prepares logging,
// metrics and the report ID for the command about to run.
func setupRun(cmd *cobra.Command, _ []string) error {
	if err := loadDotEnv(dotEnvFile); err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	appConfig = cfg

	initLogging(cfg)

	reportID = uuid.NewString()
	runLogger = logging.Default().WithReportID(reportID)
	logger = runLogger.WithComponent("cli")
	runMetrics = metrics.NewPrometheusMetrics()

	if !quiet {
		printBanner(cmd.ErrOrStderr())
	}
	logger.Debug("Run prepared", "command", cmd.Name(), "config", configPath,
		"output_dir", cfg.Report.OutputDir, "log_format", logger.Config().Format)

	return nil
}

func finishRun() error {
	if appConfig == nil {
		return nil
	}
	if err := runMetrics.WriteTextfile(appConfig.Metrics.Textfile); err != nil {
		logger.Warn("Failed to write metrics textfile", "path", appConfig.Metrics.Textfile, "error", err)
		return err
	}
	return nil
}

// loadDotEnv exports variables from path without overriding the process
// environment. A missing file is not an error.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return errors.WrapConfigError(errors.CodeConfiguration, fmt.Sprintf("failed to load %s", path), err)
	}
	return nil
}

// loadConfig locates the config file with viper, loads it and applies
// NMAPANALYSIS_* environment variables and explicit flags on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(defaultConfigName)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlag("report.output_dir", cmd.Flags().Lookup("output-dir")); err != nil {
		return nil, errors.WrapConfigError(errors.CodeConfiguration, "failed to bind output-dir flag", err)
	}
	if err := v.BindPFlag("metrics.textfile", cmd.Flags().Lookup("metrics-file")); err != nil {
		return nil, errors.WrapConfigError(errors.CodeConfiguration, "failed to bind metrics-file flag", err)
	}

	configPath = ""
	if err := v.ReadInConfig(); err == nil {
		configPath = v.ConfigFileUsed()
	} else {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && stderrors.As(err, &notFound) {
			logger.Debug("No config file found, using defaults")
		} else {
			return nil, errors.WrapConfigError(errors.CodeConfiguration, "failed to read config file", err)
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, errors.WrapConfigError(errors.CodeConfiguration, "failed to load configuration", err)
	}

	applyOverrides(v, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, errors.WrapConfigError(errors.CodeValidation, "invalid configuration", err)
	}

	return cfg, nil
}

// applyOverrides copies values set through the environment or flags into cfg.
func applyOverrides(v *viper.Viper, cfg *config.Config) {
	stringKeys := map[string]*string{
		"llm.base_url":            &cfg.LLM.BaseURL,
		"llm.model":               &cfg.LLM.Model,
		"llm.api_key_env":         &cfg.LLM.APIKeyEnv,
		"report.output_dir":       &cfg.Report.OutputDir,
		"report.timestamp_format": &cfg.Report.TimestampFormat,
		"fabric.bootstrap_file":   &cfg.Fabric.BootstrapFile,
		"fabric.pattern":          &cfg.Fabric.Pattern,
		"logging.level":           &cfg.Logging.Level,
		"logging.format":          &cfg.Logging.Format,
		"logging.output":          &cfg.Logging.Output,
		"metrics.textfile":        &cfg.Metrics.Textfile,
	}
	for key, dst := range stringKeys {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}

	floatKeys := map[string]*float64{
		"llm.temperature":       &cfg.LLM.Temperature,
		"llm.top_p":             &cfg.LLM.TopP,
		"llm.frequency_penalty": &cfg.LLM.FrequencyPenalty,
		"llm.presence_penalty":  &cfg.LLM.PresencePenalty,
	}
	for key, dst := range floatKeys {
		if v.IsSet(key) {
			*dst = v.GetFloat64(key)
		}
	}

	if v.IsSet("llm.max_tokens") {
		cfg.LLM.MaxTokens = v.GetInt("llm.max_tokens")
	}
	if v.IsSet("llm.timeout") {
		cfg.LLM.Timeout = v.GetDuration("llm.timeout")
	}
	if v.IsSet("fabric.enabled") {
		cfg.Fabric.Enabled = v.GetBool("fabric.enabled")
	}
}

// initLogging installs the default logger. --verbose forces debug level.
func initLogging(cfg *config.Config) {
	logConfig := cfg.LoggerConfig()
	if verbose {
		logConfig.Level = logging.LevelDebug
	}

	l, err := logging.New(logConfig)
	if err != nil {
		l = logging.NewDefault()
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logging: %v\n", err)
	}
	logging.SetDefault(l)
}

func printBanner(w io.Writer) {
	fmt.Fprintf(w, "nmapanalysis %s - Nmap scan comparison and analysis\n\n", version)
}

// status prints a user facing progress line unless --quiet is set.
func status(cmd *cobra.Command, format string, args ...any) {
	if quiet {
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), format+"\n", args...)
}

func reportMetadata() report.Metadata {
	return report.Metadata{ReportID: reportID, Generated: now()}
}

// getVersion returns the version string.
func getVersion() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime)
}

// SetVersion sets the version information (called from main).
func SetVersion(v, c, bt string) {
	version = v
	commit = c
	buildTime = bt
	rootCmd.Version = getVersion()
}
