package llm

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/anstrom/nmapanalysis/internal/config"
	"github.com/anstrom/nmapanalysis/internal/errors"
	"github.com/anstrom/nmapanalysis/internal/logging"
	"github.com/anstrom/nmapanalysis/internal/metrics"
)

var fabricAlias = regexp.MustCompile(`^alias fabric='(.+)'`)

// FabricRunner generates text by piping the prompt into the Fabric CLI with
// a fixed pattern.
type FabricRunner struct {
	executable string
	pattern    string
	metrics    *metrics.PrometheusMetrics
	logger     *logging.Logger
}

// NewFabricRunner locates the fabric executable from the bootstrap file
// named in cfg.
func NewFabricRunner(cfg config.FabricConfig, m *metrics.PrometheusMetrics) (*FabricRunner, error) {
	exe, err := ResolveFabricExecutable(cfg.BootstrapFile)
	if err != nil {
		return nil, err
	}
	return &FabricRunner{
		executable: exe,
		pattern:    cfg.Pattern,
		metrics:    m,
		logger:     logging.Default().WithComponent("fabric"),
	}, nil
}

// Executable returns the resolved fabric binary.
func (f *FabricRunner) Executable() string {
	return f.executable
}

// ResolveFabricExecutable reads the shell bootstrap file and returns the
// target of its first "alias fabric='...'" line.
func ResolveFabricExecutable(bootstrapFile string) (string, error) {
	path, err := expandHome(bootstrapFile)
	if err != nil {
		return "", errors.WrapConfigError(errors.CodeConfiguration, "cannot resolve fabric bootstrap file", err)
	}

	file, err := os.Open(path) //nolint:gosec // operator configured path
	if err != nil {
		return "", errors.WrapConfigError(errors.CodeFileNotFound,
			fmt.Sprintf("cannot read fabric bootstrap file %s", path), err)
	}
	defer func() { _ = file.Close() }()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if m := fabricAlias.FindStringSubmatch(scanner.Text()); m != nil {
			return m[1], nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", errors.WrapConfigError(errors.CodeConfiguration, "failed to read fabric bootstrap file", err)
	}

	return "", errors.NewConfigError(errors.CodeConfiguration, "Fabric executable path not found in .inc file")
}

// Generate runs "<fabric> -p <pattern>" with prompt on stdin and returns
// its stdout.
func (f *FabricRunner) Generate(ctx context.Context, prompt string) (string, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, f.executable, "-p", f.pattern) //nolint:gosec // executable comes from the operator's bootstrap file
	cmd.Stdin = strings.NewReader(prompt)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)
	f.metrics.RecordGeneration(elapsed, err)

	if err != nil {
		f.logger.Error("Fabric execution failed", "pattern", f.pattern, "stderr", stderr.String(), "error", err)
		genErr := errors.WrapGenerationError(errors.CodeServiceResponse, BackendFabric,
			"Error executing command", err)
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			genErr.Message += ": " + msg
		}
		if ctx.Err() != nil {
			genErr.Code = errors.CodeTimeout
		}
		return "", genErr
	}

	f.logger.Info("Fabric execution succeeded", "pattern", f.pattern, "duration", elapsed)
	return stdout.String(), nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
