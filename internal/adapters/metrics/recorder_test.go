package metrics_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/metrics"
	"go.trai.ch/kiln/internal/core/domain"
)

func TestRecorder_CacheLookups(t *testing.T) {
	r := metrics.NewRecorder()
	r.ObserveCacheLookup(true)
	r.ObserveCacheLookup(true)
	r.ObserveCacheLookup(false)

	assert.InDelta(t, 2, testutil.ToFloat64(r.CacheLookups.WithLabelValues("hit")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.CacheLookups.WithLabelValues("miss")), 0)
}

func TestRecorder_Modules(t *testing.T) {
	r := metrics.NewRecorder()
	r.ObserveModule(domain.JobDone, 10*time.Millisecond)
	r.ObserveModule(domain.JobFailed, 20*time.Millisecond)
	r.ObserveModule(domain.JobSkipped, 0)

	assert.InDelta(t, 1, testutil.ToFloat64(r.Modules.WithLabelValues("done")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.Modules.WithLabelValues("failed")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.Modules.WithLabelValues("skipped")), 0)

	path := filepath.Join(t.TempDir(), "kiln.prom")
	require.NoError(t, r.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "kiln_module_duration_seconds_count 2")
}

func TestRecorder_Link(t *testing.T) {
	r := metrics.NewRecorder()
	r.ObserveLink(time.Second, nil)
	r.ObserveLink(time.Second, errors.New("exit status 1"))

	assert.InDelta(t, 1, testutil.ToFloat64(r.LinkFailures), 0)
}

func TestRecorder_WriteTextfile(t *testing.T) {
	r := metrics.NewRecorder()
	r.ObserveCacheLookup(true)

	path := filepath.Join(t.TempDir(), "kiln.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `kiln_cache_lookups_total{result="hit"} 1`)
}
