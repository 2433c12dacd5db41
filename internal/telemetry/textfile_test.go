package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HaPhanBaoMinh/kreport/internal/domain"
)

func i64(v int64) *int64 { return &v }

func testReport() *domain.ClusterReport {
	return &domain.ClusterReport{
		MetricsAvailable: true,
		Namespaces:       []domain.Namespace{{Name: "shop"}, {Name: "idle"}},
		Nodes: []domain.Node{
			{Name: "n1", MemoryCapacityBytes: 1024, MemoryUsageBytes: i64(512)},
			{Name: "n2", MemoryCapacityBytes: 2048},
		},
		Pods: []domain.Pod{
			{Namespace: "shop", Name: "api", Ready: true, MemoryUsageBytes: i64(100)},
			{Namespace: "shop", Name: "worker"},
		},
	}
}

func TestExporter_Update(t *testing.T) {
	e := NewExporter()
	e.Update(testReport(), map[string]time.Duration{"inventory": 1500 * time.Millisecond})

	assert.Equal(t, float64(1024), testutil.ToFloat64(e.nodeCapacity.WithLabelValues("n1")))
	assert.Equal(t, float64(512), testutil.ToFloat64(e.nodeUsage.WithLabelValues("n1")))
	assert.Equal(t, 1, testutil.CollectAndCount(e.nodeUsage), "nodes without usage get no series")
	assert.Equal(t, 1, testutil.CollectAndCount(e.podUsage))
	assert.Equal(t, float64(2), testutil.ToFloat64(e.pods.WithLabelValues("shop")))
	assert.Equal(t, float64(0), testutil.ToFloat64(e.pods.WithLabelValues("idle")))
	assert.Equal(t, float64(1), testutil.ToFloat64(e.metricsAvailable))
	assert.Equal(t, 1.5, testutil.ToFloat64(e.duration.WithLabelValues("inventory")))
}

func TestExporter_UpdateResetsSeries(t *testing.T) {
	e := NewExporter()
	e.Update(testReport(), nil)

	r := testReport()
	r.Nodes = r.Nodes[1:]
	r.MetricsAvailable = false
	e.Update(r, nil)

	assert.Equal(t, 1, testutil.CollectAndCount(e.nodeCapacity))
	assert.Equal(t, 0, testutil.CollectAndCount(e.nodeUsage))
	assert.Equal(t, float64(0), testutil.ToFloat64(e.metricsAvailable))
}

func TestExporter_UnknownCapacityHasNoSeries(t *testing.T) {
	e := NewExporter()
	r := testReport()
	r.Nodes = append(r.Nodes, domain.Node{Name: "bare", MemoryUsageBytes: i64(64)})
	e.Update(r, nil)

	assert.Equal(t, 2, testutil.CollectAndCount(e.nodeCapacity))
	assert.Equal(t, 2, testutil.CollectAndCount(e.nodeUsage))
}

func TestExporter_WriteTextfile(t *testing.T) {
	e := NewExporter()
	e.Update(testReport(), nil)

	path := filepath.Join(t.TempDir(), "kreport.prom")
	require.NoError(t, e.WriteTextfile(path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(b)
	assert.Contains(t, out, `kreport_node_memory_usage_bytes{node="n1"} 512`)
	assert.Contains(t, out, `kreport_pod_memory_usage_bytes{namespace="shop",pod="api"} 100`)
	assert.Contains(t, out, "kreport_metrics_available 1")
	assert.False(t, strings.Contains(out, `node="n2"} 0`), "absent usage must not be exported as zero")

	expected := `
# HELP kreport_metrics_available 1 when usage samples were collected, 0 otherwise.
# TYPE kreport_metrics_available gauge
kreport_metrics_available 1
`
	require.NoError(t, testutil.GatherAndCompare(e.Registry(), strings.NewReader(expected), "kreport_metrics_available"))
}
