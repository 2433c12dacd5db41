package mock

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/HaPhanBaoMinh/kreport/internal/domain"
	kerrors "github.com/HaPhanBaoMinh/kreport/internal/errors"
)

const gib = int64(1024 * 1024 * 1024)

// Repo is a canned cluster for demos and for running the viewer without
// credentials. Usage wobbles between calls; topology does not.
type Repo struct {
	start   time.Time
	rnd     *rand.Rand
	metrics bool
}

var _ domain.Source = (*Repo)(nil)

type Option func(*Repo)

// WithSeed makes usage values reproducible.
func WithSeed(seed int64) Option {
	return func(r *Repo) { r.rnd = rand.New(rand.NewSource(seed)) }
}

// WithoutMetrics simulates a cluster with no metrics-server installed.
func WithoutMetrics() Option {
	return func(r *Repo) { r.metrics = false }
}

// WithStart pins the instant ages are measured from.
func WithStart(t time.Time) Option {
	return func(r *Repo) { r.start = t }
}

func New(opts ...Option) *Repo {
	r := &Repo{
		start:   time.Now(),
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
		metrics: true,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

var nodes = []struct {
	name, pool, instance string
	cpu                  string
	memGiB               int64
	ageDays              int
}{
	{"aks-system-12345678-vmss000000", "system", "Standard_D4s_v5", "4", 16, 41},
	{"aks-system-12345678-vmss000001", "system", "Standard_D4s_v5", "4", 16, 41},
	{"aks-user-87654321-vmss000000", "user", "Standard_E8s_v5", "8", 64, 9},
}

var pods = []struct {
	ns, name, node, image string
	ready                 bool
	memMiB                int64
}{
	{"kube-system", "coredns-7d8f5b6c9-4kz2x", "aks-system-12345678-vmss000000", "mcr.microsoft.com/oss/kubernetes/coredns:v1.11.1", true, 28},
	{"kube-system", "metrics-server-5dfc8d5b9-qw7lt", "aks-system-12345678-vmss000001", "registry.k8s.io/metrics-server/metrics-server:v0.7.1", true, 42},
	{"shop", "api-7cfb9d9c9c-9tghd", "aks-user-87654321-vmss000000", "shop/api:1.4.2", true, 612},
	{"shop", "worker-5f7dcbffd6-2jqkz", "aks-user-87654321-vmss000000", "shop/worker:1.4.2", true, 388},
	{"jobs", "report-28512340-x8v2c", "", "", false, 0},
}

func (r *Repo) ClusterName() string { return "demo" }
func (r *Repo) ContextName() string { return "demo" }

func (r *Repo) ListNamespaces(ctx context.Context) ([]domain.Namespace, error) {
	return []domain.Namespace{{Name: "default"}, {Name: "kube-system"}, {Name: "shop"}, {Name: "jobs"}}, nil
}

func (r *Repo) ListNodes(ctx context.Context) ([]domain.Node, error) {
	out := make([]domain.Node, 0, len(nodes))
	for _, n := range nodes {
		created := r.start.Add(-time.Duration(n.ageDays)*24*time.Hour - 5*time.Hour)
		out = append(out, domain.Node{
			Name:                n.name,
			AgentPool:           n.pool,
			InstanceType:        n.instance,
			CPUCapacity:         n.cpu,
			MemoryCapacityBytes: n.memGiB * gib,
			OSImage:             "Ubuntu 22.04.4 LTS",
			Architecture:        "amd64",
			KubeletVersion:      "v1.29.2",
			CreationTimestamp:   created,
			Age:                 domain.NewAge(created, r.start),
		})
	}
	return out, nil
}

func (r *Repo) ListPods(ctx context.Context) ([]domain.Pod, error) {
	out := make([]domain.Pod, 0, len(pods))
	for i, p := range pods {
		started := r.start.Add(-time.Duration(3+i*7) * time.Hour)
		pod := domain.Pod{
			Name:      p.name,
			Namespace: p.ns,
			NodeName:  p.node,
			StartTime: started,
			Age:       domain.NewAge(started, r.start),
			Ready:     p.ready,
		}
		if p.image == "" {
			pod.Pending = &domain.PendingStatus{Reason: "Unschedulable", Message: "0/3 nodes are available: 3 Insufficient memory."}
		} else {
			pod.PodIP = fmt.Sprintf("10.244.%d.%d", i/2, 10+i)
			pod.Container = &domain.ContainerIdentity{Name: containerName(p.name), Image: p.image}
		}
		out = append(out, pod)
	}
	return out, nil
}

func (r *Repo) MetricsAvailable(ctx context.Context) bool { return r.metrics }

func (r *Repo) FetchPodMetrics(ctx context.Context) (map[string]domain.UsageSample, error) {
	if !r.metrics {
		return nil, kerrors.MetricsUnavailable("demo cluster has no metrics-server", nil)
	}
	out := make(map[string]domain.UsageSample, len(pods))
	for _, p := range pods {
		if p.memMiB == 0 {
			continue
		}
		key := domain.PodKey(p.ns, p.name)
		mem := int64(float64(p.memMiB*1024*1024) * r.wobble())
		cpu := int64(20 + 200*r.rnd.Float64())
		out[key] = domain.UsageSample{Key: key, MemoryBytes: &mem, CPUMillicores: &cpu, RawMemory: fmt.Sprintf("%dKi", mem/1024)}
	}
	return out, nil
}

func (r *Repo) FetchNodeMetrics(ctx context.Context) (map[string]domain.UsageSample, error) {
	if !r.metrics {
		return nil, kerrors.MetricsUnavailable("demo cluster has no metrics-server", nil)
	}
	out := make(map[string]domain.UsageSample, len(nodes))
	for i := range nodes {
		s := r.nodeSample(i)
		out[s.Key] = s
	}
	return out, nil
}

func (r *Repo) FetchNodeMetric(ctx context.Context, nodeName string) (domain.UsageSample, error) {
	if !r.metrics {
		return domain.UsageSample{}, kerrors.MetricsUnavailable("demo cluster has no metrics-server", nil)
	}
	for i, n := range nodes {
		if n.name == nodeName {
			return r.nodeSample(i), nil
		}
	}
	return domain.UsageSample{}, kerrors.MetricsUnavailable("no metrics for node "+nodeName, nil)
}

func (r *Repo) nodeSample(i int) domain.UsageSample {
	n := nodes[i]
	frac := clamp01(0.35 + 0.1*float64(i) + 0.15*r.rnd.Float64())
	mem := int64(float64(n.memGiB*gib) * frac)
	cpu := int64(300 + 1200*r.rnd.Float64())
	return domain.UsageSample{Key: n.name, MemoryBytes: &mem, CPUMillicores: &cpu, RawMemory: fmt.Sprintf("%dKi", mem/1024)}
}

// wobble returns a multiplier in [0.9, 1.1).
func (r *Repo) wobble() float64 { return 0.9 + 0.2*r.rnd.Float64() }

func containerName(pod string) string {
	name, _, _ := strings.Cut(pod, "-")
	return name
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
