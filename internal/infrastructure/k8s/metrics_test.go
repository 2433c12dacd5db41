package k8s

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"
	metricsv1beta1 "k8s.io/metrics/pkg/apis/metrics/v1beta1"

	"github.com/HaPhanBaoMinh/kreport/internal/domain"
	kerrors "github.com/HaPhanBaoMinh/kreport/internal/errors"
)

func usage(cpu, mem string) corev1.ResourceList {
	return corev1.ResourceList{
		corev1.ResourceCPU:    resource.MustParse(cpu),
		corev1.ResourceMemory: resource.MustParse(mem),
	}
}

// metricsServer serves path -> JSON body; anything else is a 404.
func metricsServer(t *testing.T, routes map[string]any) *Repo {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		body, ok := routes[req.URL.Path]
		if !ok {
			http.NotFound(w, req)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if raw, isRaw := body.(string); isRaw {
			_, _ = w.Write([]byte(raw))
			return
		}
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)

	r, err := New(domain.ClusterEndpoint{Server: srv.URL, Token: "t"}, 5*time.Second)
	require.NoError(t, err)
	return r
}

func TestFetchPodMetrics(t *testing.T) {
	list := metricsv1beta1.PodMetricsList{
		Items: []metricsv1beta1.PodMetrics{
			{
				ObjectMeta: metav1.ObjectMeta{Name: "api-0", Namespace: "shop"},
				Containers: []metricsv1beta1.ContainerMetrics{
					{Name: "api", Usage: usage("250m", "128Mi")},
					{Name: "sidecar", Usage: usage("10m", "32Mi")},
				},
			},
			{
				ObjectMeta: metav1.ObjectMeta{Name: "empty", Namespace: "shop"},
			},
		},
	}
	r := metricsServer(t, map[string]any{"/apis/metrics.k8s.io/v1beta1/pods": list})

	got, err := r.FetchPodMetrics(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1, "pods without containers carry no sample")

	s := got["shop:api-0"]
	assert.Equal(t, "shop:api-0", s.Key)
	require.NotNil(t, s.MemoryBytes)
	assert.Equal(t, int64(128*1024*1024), *s.MemoryBytes, "only the first container counts")
	require.NotNil(t, s.CPUMillicores)
	assert.Equal(t, int64(250), *s.CPUMillicores)
}

func TestFetchNodeMetrics(t *testing.T) {
	list := metricsv1beta1.NodeMetricsList{
		Items: []metricsv1beta1.NodeMetrics{
			{ObjectMeta: metav1.ObjectMeta{Name: "n1"}, Usage: usage("1500m", "8192000Ki")},
			{ObjectMeta: metav1.ObjectMeta{Name: "n2"}, Usage: usage("2", "2Gi")},
		},
	}
	r := metricsServer(t, map[string]any{"/apis/metrics.k8s.io/v1beta1/nodes": list})

	got, err := r.FetchNodeMetrics(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)

	require.NotNil(t, got["n1"].MemoryBytes)
	assert.Equal(t, int64(8192000*1024), *got["n1"].MemoryBytes)
	assert.Equal(t, int64(1500), *got["n1"].CPUMillicores)
	assert.Equal(t, int64(2*1024*1024*1024), *got["n2"].MemoryBytes)
	assert.Equal(t, int64(2000), *got["n2"].CPUMillicores)
}

func TestFetchNodeMetric(t *testing.T) {
	one := metricsv1beta1.NodeMetrics{ObjectMeta: metav1.ObjectMeta{Name: "n1"}, Usage: usage("100m", "512Mi")}
	r := metricsServer(t, map[string]any{"/apis/metrics.k8s.io/v1beta1/nodes/n1": one})

	s, err := r.FetchNodeMetric(context.Background(), "n1")
	require.NoError(t, err)
	assert.Equal(t, "n1", s.Key)
	assert.Equal(t, int64(512*1024*1024), *s.MemoryBytes)

	_, err = r.FetchNodeMetric(context.Background(), "missing")
	assert.True(t, kerrors.IsCode(err, kerrors.ErrCodeMetricsUnavailable))

	_, err = r.FetchNodeMetric(context.Background(), "")
	assert.True(t, kerrors.IsCode(err, kerrors.ErrCodeMetricsUnavailable))
}

func TestFetchMetrics_UnrecognisedUnits(t *testing.T) {
	body := `{"items":[
		{"metadata":{"name":"plain"},"usage":{"cpu":"100m","memory":"1048576"}},
		{"metadata":{"name":"decimal"},"usage":{"cpu":"100m","memory":"1G"}},
		{"metadata":{"name":"ok"},"usage":{"cpu":"bogus","memory":"1Mi"}}
	]}`
	r := metricsServer(t, map[string]any{"/apis/metrics.k8s.io/v1beta1/nodes": body})

	got, err := r.FetchNodeMetrics(context.Background())
	require.NoError(t, err, "a bad unit must not fail the whole list")
	require.Len(t, got, 3)

	assert.Nil(t, got["plain"].MemoryBytes)
	assert.Equal(t, "1048576", got["plain"].RawMemory)
	assert.Nil(t, got["decimal"].MemoryBytes)
	assert.Equal(t, "1G", got["decimal"].RawMemory)
	require.NotNil(t, got["ok"].MemoryBytes)
	assert.Equal(t, int64(1024*1024), *got["ok"].MemoryBytes)
	assert.Nil(t, got["ok"].CPUMillicores)
}

func TestFetchMetrics_Unavailable(t *testing.T) {
	r := metricsServer(t, map[string]any{})

	_, err := r.FetchPodMetrics(context.Background())
	assert.True(t, kerrors.IsCode(err, kerrors.ErrCodeMetricsUnavailable))
	_, err = r.FetchNodeMetrics(context.Background())
	assert.True(t, kerrors.IsCode(err, kerrors.ErrCodeMetricsUnavailable))

	noRaw, _ := newFakeRepo()
	_, err = noRaw.FetchPodMetrics(context.Background())
	assert.True(t, kerrors.IsCode(err, kerrors.ErrCodeMetricsUnavailable))
	assert.False(t, noRaw.MetricsAvailable(context.Background()))
}

func TestFetchMetrics_Malformed(t *testing.T) {
	r := metricsServer(t, map[string]any{"/apis/metrics.k8s.io/v1beta1/pods": `{"items": [`})

	_, err := r.FetchPodMetrics(context.Background())
	assert.True(t, kerrors.IsCode(err, kerrors.ErrCodeMetricsUnavailable))
}

func TestMetricsAvailable(t *testing.T) {
	live := metricsServer(t, map[string]any{})

	cs := fake.NewSimpleClientset()
	r := NewWithClients(domain.ClusterEndpoint{}, cs, live.raw)
	assert.False(t, r.MetricsAvailable(context.Background()))

	cs.Resources = []*metav1.APIResourceList{
		{GroupVersion: "v1"},
		{GroupVersion: metricsv1beta1.SchemeGroupVersion.String()},
	}
	assert.True(t, r.MetricsAvailable(context.Background()))
}
