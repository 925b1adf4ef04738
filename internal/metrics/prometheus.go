// Package metrics provides Prometheus-based metrics collection for nmapanalysis.
// A run records what it parsed, compared and generated, and can dump the
// registry to a textfile for the node exporter textfile collector.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// Namespace for all nmapanalysis metrics
	namespace = "nmapanalysis"

	// Subsystems
	subsystemScan    = "scan"
	subsystemCompare = "compare"
	subsystemReports = "reports"
	subsystemLLM     = "llm"
	subsystemRun     = "run"
)

// Generation status label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// PrometheusMetrics holds all Prometheus metric collectors
type PrometheusMetrics struct {
	// Scan metrics
	hostsParsed prometheus.Counter
	openPorts   prometheus.Counter

	// Comparison metrics
	compareRows *prometheus.CounterVec

	// Report metrics
	reportsGenerated *prometheus.CounterVec

	// Text generation metrics
	llmRequests *prometheus.CounterVec
	llmDuration prometheus.Histogram

	// Run metrics
	runDuration   prometheus.Gauge
	lastRunFinish prometheus.Gauge

	startTime time.Time
	mu        sync.Mutex
	registry  *prometheus.Registry
}

// NewPrometheusMetrics creates a new Prometheus metrics instance with all collectors
func NewPrometheusMetrics() *PrometheusMetrics {
	pm := &PrometheusMetrics{
		startTime: time.Now(),
		registry:  prometheus.NewRegistry(),
	}

	pm.initScanMetrics()
	pm.initReportMetrics()
	pm.initLLMMetrics()
	pm.initRunMetrics()

	pm.registerMetrics()

	return pm
}

func (pm *PrometheusMetrics) initScanMetrics() {
	pm.hostsParsed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystemScan,
		Name:      "hosts_parsed_total",
		Help:      "Total number of hosts extracted from scan files",
	})

	pm.openPorts = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystemScan,
		Name:      "open_ports_total",
		Help:      "Total number of open port/service pairs extracted from scan files",
	})

	pm.compareRows = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemCompare,
			Name:      "rows_total",
			Help:      "Total number of comparison rows by whether the two scans differ",
		},
		[]string{"differs"},
	)
}

func (pm *PrometheusMetrics) initReportMetrics() {
	pm.reportsGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemReports,
			Name:      "generated_total",
			Help:      "Total number of report files written by format",
		},
		[]string{"format"},
	)
}

func (pm *PrometheusMetrics) initLLMMetrics() {
	pm.llmRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemLLM,
			Name:      "requests_total",
			Help:      "Total number of text generation requests by status",
		},
		[]string{"status"},
	)

	pm.llmDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystemLLM,
		Name:      "request_duration_seconds",
		Help:      "Duration of text generation requests in seconds",
		Buckets:   []float64{0.5, 1.0, 2.5, 5.0, 10.0, 20.0, 30.0, 60.0, 120.0},
	})
}

func (pm *PrometheusMetrics) initRunMetrics() {
	pm.runDuration = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystemRun,
		Name:      "duration_seconds",
		Help:      "Wall time of the last run in seconds",
	})

	pm.lastRunFinish = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystemRun,
		Name:      "last_finish_timestamp_seconds",
		Help:      "Unix time the last run finished",
	})
}

// registerMetrics registers all metrics with the Prometheus registry
func (pm *PrometheusMetrics) registerMetrics() {
	pm.registry.MustRegister(
		pm.hostsParsed,
		pm.openPorts,
		pm.compareRows,
		pm.reportsGenerated,
		pm.llmRequests,
		pm.llmDuration,
		pm.runDuration,
		pm.lastRunFinish,
	)
}

// Every recording method below is a no-op on a nil receiver so callers can
// run without metrics.

// RecordScan adds the hosts and open ports of one extracted scan.
func (pm *PrometheusMetrics) RecordScan(hosts, openPorts int) {
	if pm == nil {
		return
	}
	pm.hostsParsed.Add(float64(hosts))
	pm.openPorts.Add(float64(openPorts))
}

// RecordComparison adds comparison rows split by the differs flag.
func (pm *PrometheusMetrics) RecordComparison(rows, differing int) {
	if pm == nil {
		return
	}
	pm.compareRows.WithLabelValues("true").Add(float64(differing))
	pm.compareRows.WithLabelValues("false").Add(float64(rows - differing))
}

// IncrementReportsGenerated counts one written report file.
func (pm *PrometheusMetrics) IncrementReportsGenerated(format string) {
	if pm == nil {
		return
	}
	pm.reportsGenerated.WithLabelValues(format).Inc()
}

// RecordGeneration records one text generation request and its outcome.
func (pm *PrometheusMetrics) RecordGeneration(duration time.Duration, err error) {
	if pm == nil {
		return
	}
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	pm.llmRequests.WithLabelValues(status).Inc()
	pm.llmDuration.Observe(duration.Seconds())
}

// GetUptime returns how long ago the metrics instance was created
func (pm *PrometheusMetrics) GetUptime() time.Duration {
	return time.Since(pm.startTime)
}

// Finish stamps the run duration and finish time.
func (pm *PrometheusMetrics) Finish() {
	if pm == nil {
		return
	}
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.runDuration.Set(pm.GetUptime().Seconds())
	pm.lastRunFinish.SetToCurrentTime()
}

// WriteTextfile stamps the run and writes the registry to path in the text
// exposition format. The write is atomic.
func (pm *PrometheusMetrics) WriteTextfile(path string) error {
	if pm == nil || path == "" {
		return nil
	}
	pm.Finish()

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create metrics directory: %w", err)
		}
	}
	if err := prometheus.WriteToTextfile(path, pm.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
