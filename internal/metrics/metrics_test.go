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

func TestCounters(t *testing.T) {
	m := New()
	m.RecordLookup(LookupFound)
	m.RecordLookup(LookupNotFound)
	m.RecordLookup(LookupNotFound)
	m.RecordOutcome("fail")
	m.ObserveRequest("central", "resolve", 20*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.lookups.WithLabelValues(LookupFound)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.lookups.WithLabelValues(LookupNotFound)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.outcomes.WithLabelValues("fail")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.requestDuration))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.RecordLookup(LookupError)
	m.RecordOutcome(OutcomeIgnored)
	m.ObserveRequest("x", "list", time.Second)
	assert.Nil(t, m.Registry())
	assert.NoError(t, m.WriteFile(filepath.Join(t.TempDir(), "never.prom")))
}

func TestWriteFile(t *testing.T) {
	m := New()
	m.RecordOutcome("warn")

	path := filepath.Join(t.TempDir(), "depmeta.prom")
	require.NoError(t, m.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `depmeta_outcomes_total{severity="warn"} 1`), string(data))
}
