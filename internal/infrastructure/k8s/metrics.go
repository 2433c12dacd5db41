package k8s

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	metricsv1beta1 "k8s.io/metrics/pkg/apis/metrics/v1beta1"

	"github.com/HaPhanBaoMinh/kreport/internal/domain"
	kerrors "github.com/HaPhanBaoMinh/kreport/internal/errors"
	"github.com/HaPhanBaoMinh/kreport/internal/units"
)

// "/apis/metrics.k8s.io/v1beta1"
var metricsAPIPath = "/apis/" + metricsv1beta1.SchemeGroupVersion.String()

// Usage strings are decoded as-is rather than into resource.Quantity: one
// malformed value must blank a single cell, not fail the whole list.
type usageList struct {
	Items []usageItem `json:"items"`
}

type usageItem struct {
	Metadata   metav1.ObjectMeta `json:"metadata"`
	Usage      map[string]string `json:"usage"`
	Containers []containerUsage  `json:"containers"`
}

type containerUsage struct {
	Name  string            `json:"name"`
	Usage map[string]string `json:"usage"`
}

// MetricsAvailable reports whether the metrics.k8s.io group is served.
func (r *Repo) MetricsAvailable(ctx context.Context) bool {
	if r.raw == nil {
		return false
	}
	groups, err := r.core.Discovery().ServerGroups()
	if err != nil {
		slog.Debug("discovery failed, assuming metrics API is available", "error", err)
		return true
	}
	for _, g := range groups.Groups {
		if g.Name == metricsv1beta1.SchemeGroupVersion.Group {
			return true
		}
	}
	return false
}

// FetchPodMetrics returns samples keyed "namespace:name". Only the first
// container's usage is recorded per pod.
func (r *Repo) FetchPodMetrics(ctx context.Context) (map[string]domain.UsageSample, error) {
	var list usageList
	if err := r.getMetrics(ctx, &list, "pods"); err != nil {
		return nil, err
	}
	out := make(map[string]domain.UsageSample, len(list.Items))
	for _, it := range list.Items {
		if len(it.Containers) == 0 {
			continue
		}
		key := domain.PodKey(it.Metadata.Namespace, it.Metadata.Name)
		out[key] = sampleFrom(key, it.Containers[0].Usage)
	}
	return out, nil
}

// FetchNodeMetrics returns samples keyed by node name.
func (r *Repo) FetchNodeMetrics(ctx context.Context) (map[string]domain.UsageSample, error) {
	var list usageList
	if err := r.getMetrics(ctx, &list, "nodes"); err != nil {
		return nil, err
	}
	out := make(map[string]domain.UsageSample, len(list.Items))
	for _, it := range list.Items {
		out[it.Metadata.Name] = sampleFrom(it.Metadata.Name, it.Usage)
	}
	return out, nil
}

func (r *Repo) FetchNodeMetric(ctx context.Context, nodeName string) (domain.UsageSample, error) {
	if nodeName == "" {
		return domain.UsageSample{}, kerrors.MetricsUnavailable("node name is required", nil)
	}
	var it usageItem
	if err := r.getMetrics(ctx, &it, "nodes", nodeName); err != nil {
		return domain.UsageSample{}, err
	}
	return sampleFrom(nodeName, it.Usage), nil
}

func (r *Repo) getMetrics(ctx context.Context, into any, segments ...string) error {
	what := strings.Join(segments, "/")
	if r.raw == nil {
		return kerrors.MetricsUnavailable("no metrics client for "+what, nil)
	}
	body, err := r.raw.Get().
		AbsPath(append([]string{metricsAPIPath}, segments...)...).
		Do(ctx).
		Raw()
	if err != nil {
		return kerrors.MetricsUnavailable("get "+what+" metrics", err)
	}
	if err := json.Unmarshal(body, into); err != nil {
		return kerrors.MetricsUnavailable("decode "+what+" metrics", err)
	}
	return nil
}

func sampleFrom(key string, usage map[string]string) domain.UsageSample {
	s := domain.UsageSample{Key: key, RawMemory: usage[string(corev1.ResourceMemory)]}
	if s.RawMemory != "" {
		if b, ok := units.ParseMemory(s.RawMemory); ok {
			s.MemoryBytes = &b
		} else {
			slog.Warn("unrecognised memory unit, usage left blank", "subject", key, "value", s.RawMemory)
		}
	}
	if raw := usage[string(corev1.ResourceCPU)]; raw != "" {
		if m, ok := units.ParseCPU(raw); ok {
			s.CPUMillicores = &m
		} else {
			slog.Debug("unrecognised cpu unit", "subject", key, "value", raw)
		}
	}
	return s
}
