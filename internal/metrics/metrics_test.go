package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()
	m.AddStructure(3, 12)
	m.AddSpans("valid", 2)
	m.AddSpans("tableOfContents", 1)
	m.AddRules("regex", 9)
	m.AddDuplicates(2)
	m.ObserveChunk("ok")
	m.ObserveChunk("failed")
	m.ObserveValidation(7, 1, 1, 4)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.chapters))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.sections))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.spans.WithLabelValues("valid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.spans.WithLabelValues("tableOfContents")))
	assert.Equal(t, 9.0, testutil.ToFloat64(m.rules.WithLabelValues("regex")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.duplicates))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.chunks.WithLabelValues("failed")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.validation.WithLabelValues("warning")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.records.WithLabelValues("passed")))
}

func TestMetrics_ObserveCall(t *testing.T) {
	m := New()
	m.ObserveCall("mock", true, 100, 20, time.Second)
	m.ObserveCall("mock", false, 50, 0, 2*time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.llmCalls.WithLabelValues("mock", "error")))
	assert.Equal(t, 150.0, testutil.ToFloat64(m.llmTokens.WithLabelValues("mock", "prompt")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.llmLatency))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.AddStructure(1, 1)
	m.AddSpans("valid", 1)
	m.ObserveCall("x", true, 1, 1, time.Millisecond)
	assert.Nil(t, m.Registry())
	assert.NoError(t, m.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")))
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := New()
	m.AddRules("llm", 4)

	path := filepath.Join(t.TempDir(), "dcpr.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `dcpr_rules_extracted_total{strategy="llm"} 4`))
}
