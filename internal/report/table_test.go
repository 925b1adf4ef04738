package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anstrom/nmapanalysis/internal/analysis"
)

func TestRenderStatistics(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderStatistics(&buf, analysis.Calculate(testScan())))

	out := strings.ToUpper(buf.String())
	for _, want := range []string{"SERVICE", "SSH", "HTTP", "80/TCP", "22/TCP"} {
		assert.Contains(t, out, want)
	}
}

func TestRenderDifferences(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderDifferences(&buf, testRows(), "first.xml", "last.xml"))

	out := buf.String()
	assert.Contains(t, out, "22/TCP")
	assert.NotContains(t, out, "80/TCP", "unchanged rows are not printed")
}

func TestComparisonSummary(t *testing.T) {
	assert.Equal(t, "2 port entries compared, 1 differences", ComparisonSummary(testRows()))
}
