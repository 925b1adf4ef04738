package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != LevelWarn {
		t.Errorf("Expected default level %s, got %s", LevelWarn, cfg.Level)
	}
	if cfg.Format != FormatText {
		t.Errorf("Expected default format %s, got %s", FormatText, cfg.Format)
	}
	if cfg.Output != "stderr" {
		t.Errorf("Expected default output 'stderr', got '%s'", cfg.Output)
	}
	if cfg.AddSource {
		t.Error("Expected AddSource to be false by default")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level LogLevel
		want  slog.Level
	}{
		{LevelDebug, slog.LevelDebug},
		{LevelInfo, slog.LevelInfo},
		{LevelWarn, slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{LevelError, slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.level))
		})
	}
}

func TestNewLogger(t *testing.T) {
	t.Run("stderr text logger", func(t *testing.T) {
		logger, err := New(Config{Level: LevelInfo, Format: FormatText, Output: "stderr"})
		require.NoError(t, err)
		assert.NotNil(t, logger)
		assert.Equal(t, "stderr", logger.Config().Output)
	})

	t.Run("stdout json logger", func(t *testing.T) {
		logger, err := New(Config{Level: LevelDebug, Format: FormatJSON, Output: "stdout"})
		require.NoError(t, err)
		assert.Equal(t, FormatJSON, logger.Config().Format)
	})

	t.Run("file logger creates directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "dir", "nmapanalysis.log")
		logger, err := New(Config{Level: LevelInfo, Format: FormatText, Output: path})
		require.NoError(t, err)

		logger.Info("parsed scan", "hosts", 3)

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), "parsed scan")
		assert.Contains(t, string(content), "hosts=3")

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(logFilePerm), info.Mode().Perm())
	})

	t.Run("file logger in unwritable location", func(t *testing.T) {
		dir := t.TempDir()
		blocker := filepath.Join(dir, "file")
		require.NoError(t, os.WriteFile(blocker, []byte("x"), 0600))

		_, err := New(Config{Output: filepath.Join(blocker, "sub", "log.txt")})
		assert.Error(t, err)
	})
}

func TestNewDefault(t *testing.T) {
	logger := NewDefault()
	require.NotNil(t, logger)
	assert.Equal(t, DefaultConfig(), logger.Config())
}

func TestLoggerWithMethods(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(Config{Level: LevelDebug, Format: FormatJSON}, &buf)

	logger.
		WithComponent("compare").
		WithReportID("0d9c7c1e").
		WithFile("first.xml").
		WithError(errors.New("bad port")).
		Info("row built")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "row built", entry["msg"])
	assert.Equal(t, "compare", entry["component"])
	assert.Equal(t, "0d9c7c1e", entry["report_id"])
	assert.Equal(t, "first.xml", entry["file"])
	assert.Equal(t, "bad port", entry["error"])
}

func TestSpecializedLoggingMethods(t *testing.T) {
	tests := []struct {
		name   string
		log    func(l *Logger)
		expect []string
	}{
		{
			name:   "info parse",
			log:    func(l *Logger) { l.InfoParse("Parsed scan file", "a.xml", "hosts", 2) },
			expect: []string{"Parsed scan file", "file=a.xml", "hosts=2", "level=INFO"},
		},
		{
			name:   "error parse",
			log:    func(l *Logger) { l.ErrorParse("Parse failed", "b.xml", errors.New("EOF")) },
			expect: []string{"Parse failed", "file=b.xml", "error=EOF", "level=ERROR"},
		},
		{
			name:   "info report",
			log:    func(l *Logger) { l.InfoReport("Report written", "xlsx", "path", "out.xlsx") },
			expect: []string{"component=report", "format=xlsx", "path=out.xlsx"},
		},
		{
			name:   "error report",
			log:    func(l *Logger) { l.ErrorReport("Report failed", "md", errors.New("disk full")) },
			expect: []string{"format=md", "error=\"disk full\"", "level=ERROR"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewWithWriter(Config{Level: LevelDebug, Format: FormatText}, &buf)
			tt.log(logger)
			out := buf.String()
			for _, want := range tt.expect {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestLogLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(Config{Level: LevelWarn, Format: FormatText}, &buf)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	out := buf.String()
	assert.NotContains(t, out, "debug message")
	assert.NotContains(t, out, "info message")
	assert.Contains(t, out, "warn message")
	assert.Contains(t, out, "error message")
}

func TestSetAndGetDefault(t *testing.T) {
	original := Default()
	defer SetDefault(original)

	custom := NewWithWriter(DefaultConfig(), &bytes.Buffer{})
	SetDefault(custom)
	assert.Same(t, custom, Default())
}
