package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/client-go/tools/clientcmd"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"

	"github.com/HaPhanBaoMinh/kreport/internal/config"
	"github.com/HaPhanBaoMinh/kreport/internal/domain"
	kerrors "github.com/HaPhanBaoMinh/kreport/internal/errors"
	"github.com/HaPhanBaoMinh/kreport/internal/infrastructure/mock"
)

type fakeSource struct {
	nodes []domain.Node
	pods  []domain.Pod

	nodesErr   error
	metricsOK  bool
	nodeUsage  map[string]domain.UsageSample
	podUsage   map[string]domain.UsageSample
	nodeUseErr error
	podUseErr  error
}

func (f *fakeSource) ClusterName() string { return "fake" }
func (f *fakeSource) ContextName() string { return "fake-ctx" }

func (f *fakeSource) ListNamespaces(context.Context) ([]domain.Namespace, error) {
	return []domain.Namespace{{Name: "default"}, {Name: "shop"}}, nil
}

func (f *fakeSource) ListNodes(context.Context) ([]domain.Node, error) {
	return f.nodes, f.nodesErr
}

func (f *fakeSource) ListPods(context.Context) ([]domain.Pod, error) { return f.pods, nil }

func (f *fakeSource) MetricsAvailable(context.Context) bool { return f.metricsOK }

func (f *fakeSource) FetchPodMetrics(context.Context) (map[string]domain.UsageSample, error) {
	return f.podUsage, f.podUseErr
}

func (f *fakeSource) FetchNodeMetrics(context.Context) (map[string]domain.UsageSample, error) {
	return f.nodeUsage, f.nodeUseErr
}

func (f *fakeSource) FetchNodeMetric(_ context.Context, name string) (domain.UsageSample, error) {
	s, ok := f.nodeUsage[name]
	if !ok {
		return domain.UsageSample{}, kerrors.MetricsUnavailable("no sample", nil)
	}
	return s, nil
}

func i64(v int64) *int64 { return &v }

func threeNodesFivePods() *fakeSource {
	f := &fakeSource{}
	for _, n := range []string{"n1", "n2", "n3"} {
		f.nodes = append(f.nodes, domain.Node{Name: n, CPUCapacity: "4", MemoryCapacityBytes: 16 << 30})
	}
	for _, p := range []string{"a", "b", "c", "d", "e"} {
		f.pods = append(f.pods, domain.Pod{Namespace: "shop", Name: p, Ready: true})
	}
	return f
}

func testConfig(t *testing.T) config.Config {
	cfg := config.Default()
	cfg.OutputPath = filepath.Join(t.TempDir(), "usage-report.md")
	cfg.Quiet = true
	return cfg
}

var fixedNow = func() time.Time { return time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC) }

func TestCollect_NoMetricsServer(t *testing.T) {
	res, err := Collect(context.Background(), threeNodesFivePods(), time.Second, fixedNow)
	require.NoError(t, err)

	r := res.Report
	assert.False(t, r.MetricsAvailable)
	assert.Len(t, r.Nodes, 3)
	assert.Len(t, r.Pods, 5)
	for _, n := range r.Nodes {
		assert.Nil(t, n.MemoryUsageBytes)
	}
	for _, p := range r.Pods {
		assert.Nil(t, p.MemoryUsageBytes)
	}
	assert.Equal(t, fixedNow(), r.GeneratedAt)
	assert.Equal(t, "fake", r.ClusterName)
	assert.Contains(t, res.Durations, PhaseInventory)
	assert.Contains(t, res.Durations, PhaseTotal)
}

func TestCollect_JoinsUsage(t *testing.T) {
	f := threeNodesFivePods()
	f.metricsOK = true
	f.nodeUsage = map[string]domain.UsageSample{"n1": {Key: "n1", MemoryBytes: i64(8 << 30)}}
	f.podUsage = map[string]domain.UsageSample{"shop:a": {Key: "shop:a", MemoryBytes: i64(1 << 20)}}

	res, err := Collect(context.Background(), f, time.Second, fixedNow)
	require.NoError(t, err)

	assert.True(t, res.Report.MetricsAvailable)
	require.NotNil(t, res.Report.Nodes[0].MemoryUsageBytes)
	assert.Equal(t, int64(8<<30), *res.Report.Nodes[0].MemoryUsageBytes)
	require.NotNil(t, res.Report.Pods[0].MemoryUsageBytes)
	assert.Nil(t, res.Report.Pods[1].MemoryUsageBytes)
}

func TestCollect_PartialMetricsFailure(t *testing.T) {
	f := threeNodesFivePods()
	f.metricsOK = true
	f.nodeUseErr = kerrors.MetricsUnavailable("get nodes metrics", errors.New("503"))
	f.podUsage = map[string]domain.UsageSample{"shop:b": {Key: "shop:b", MemoryBytes: i64(42)}}

	res, err := Collect(context.Background(), f, time.Second, fixedNow)
	require.NoError(t, err, "metrics failures are never fatal")

	assert.True(t, res.Report.MetricsAvailable)
	assert.Nil(t, res.Report.Nodes[0].MemoryUsageBytes)
	require.NotNil(t, res.Report.Pods[1].MemoryUsageBytes)
}

func TestCollect_AllMetricsFail(t *testing.T) {
	f := threeNodesFivePods()
	f.metricsOK = true
	f.nodeUseErr = errors.New("boom")
	f.podUseErr = errors.New("boom")

	res, err := Collect(context.Background(), f, time.Second, fixedNow)
	require.NoError(t, err)
	assert.False(t, res.Report.MetricsAvailable)
	assert.Len(t, res.Report.Pods, 5)
}

func TestRun_InventoryFailureWritesNothing(t *testing.T) {
	f := threeNodesFivePods()
	f.nodesErr = kerrors.API("list nodes", errors.New("forbidden"))
	cfg := testConfig(t)

	_, err := Run(context.Background(), cfg, f, &bytes.Buffer{})
	require.Error(t, err)
	assert.Equal(t, 3, kerrors.ExitCode(err))

	_, statErr := os.Stat(cfg.OutputPath)
	assert.True(t, os.IsNotExist(statErr), "no report on fatal errors")
}

func TestRun_WritesReportAndConsole(t *testing.T) {
	cfg := testConfig(t)
	cfg.Quiet = false
	var out bytes.Buffer

	_, err := Run(context.Background(), cfg, threeNodesFivePods(), &out)
	require.NoError(t, err)

	md, err := os.ReadFile(cfg.OutputPath)
	require.NoError(t, err)
	assert.Contains(t, string(md), "## VM Nodes usage")
	assert.Contains(t, string(md), "| shop | e | 0 days 0h |  |")
	assert.Contains(t, out.String(), "n3")
}

func TestRun_JSONAndMetricsFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.Format = config.FormatJSON
	cfg.OutputPath = filepath.Join(filepath.Dir(cfg.OutputPath), "report.json")
	cfg.MetricsFile = filepath.Join(filepath.Dir(cfg.OutputPath), "kreport.prom")

	_, err := Run(context.Background(), cfg, mock.New(mock.WithSeed(3)), &bytes.Buffer{})
	require.NoError(t, err)

	b, err := os.ReadFile(cfg.OutputPath)
	require.NoError(t, err)
	var r domain.ClusterReport
	require.NoError(t, json.Unmarshal(b, &r))
	assert.Equal(t, "demo", r.ClusterName)
	assert.Len(t, r.Nodes, 3)
	assert.True(t, r.MetricsAvailable)

	prom, err := os.ReadFile(cfg.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "kreport_metrics_available 1")
}

func TestRefresher(t *testing.T) {
	refresh := Refresher(mock.New(mock.WithoutMetrics()), time.Second)
	r, err := refresh(context.Background())
	require.NoError(t, err)
	assert.False(t, r.MetricsAvailable)
	assert.Len(t, r.Pods, 5)
}

func TestOpenSource_MissingServer(t *testing.T) {
	cfg := clientcmdapi.NewConfig()
	cfg.Clusters["c"] = &clientcmdapi.Cluster{}
	cfg.AuthInfos["u"] = &clientcmdapi.AuthInfo{Token: "t"}
	cfg.Contexts["ctx"] = &clientcmdapi.Context{Cluster: "c", AuthInfo: "u"}
	cfg.CurrentContext = "ctx"
	path := filepath.Join(t.TempDir(), "config")
	require.NoError(t, clientcmd.WriteToFile(*cfg, path))

	c := config.Default()
	c.Kubeconfig = path
	_, err := OpenSource(c)
	require.Error(t, err)
	assert.True(t, kerrors.IsCode(err, kerrors.ErrCodeAuthConfig))
	assert.Equal(t, 2, kerrors.ExitCode(err))
}

func TestOpenSource_Mock(t *testing.T) {
	c := config.Default()
	c.UseMock = true
	src, err := OpenSource(c)
	require.NoError(t, err)
	assert.Equal(t, "demo", src.ClusterName())
}

func TestKubeconfigPath(t *testing.T) {
	t.Setenv("KUBECONFIG", "/from/env")
	assert.Equal(t, "/explicit", kubeconfigPath(" /explicit "))
	assert.Equal(t, "/from/env", kubeconfigPath(""))

	t.Setenv("KUBECONFIG", "")
	t.Setenv("HOME", t.TempDir())
	assert.Equal(t, "", kubeconfigPath(""), "no kubeconfig anywhere selects in-cluster")
}
