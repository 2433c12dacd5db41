package report

import (
	"time"

	"github.com/HaPhanBaoMinh/kreport/internal/domain"
	"github.com/HaPhanBaoMinh/kreport/internal/units"
)

// Meta is the report header: where the data came from and when.
type Meta struct {
	ClusterName      string
	Context          string
	GeneratedAt      time.Time
	MetricsAvailable bool
}

// Build joins usage samples onto the inventory. Node samples match by node
// name; pod samples match by namespace:name and only for ready pods. Samples
// with no matching entity are dropped. The inventory is copied, never aliased.
func Build(inv domain.Inventory, usage domain.Usage, meta Meta) *domain.ClusterReport {
	r := &domain.ClusterReport{
		ClusterName:      meta.ClusterName,
		Context:          meta.Context,
		GeneratedAt:      meta.GeneratedAt,
		MetricsAvailable: meta.MetricsAvailable,
		Namespaces:       append([]domain.Namespace(nil), inv.Namespaces...),
		Nodes:            make([]domain.Node, len(inv.Nodes)),
		Pods:             make([]domain.Pod, len(inv.Pods)),
	}

	for i, n := range inv.Nodes {
		n.MemoryUsageBytes, n.CPUUsageMillis = nil, nil
		if s, ok := usage.Nodes[n.Name]; ok {
			n.MemoryUsageBytes = copyInt(s.MemoryBytes)
			n.CPUUsageMillis = copyInt(s.CPUMillicores)
		}
		r.Nodes[i] = n
	}

	for i, p := range inv.Pods {
		p.MemoryUsageBytes, p.CPUUsageMillis = nil, nil
		if s, ok := usage.Pods[p.Key()]; ok && p.Ready {
			p.MemoryUsageBytes = copyInt(s.MemoryBytes)
			p.CPUUsageMillis = copyInt(s.CPUMillicores)
		}
		r.Pods[i] = p
	}
	return r
}

// MemoryUsagePercent is floor(usage/capacity*100). ok is false when the node
// has no usage sample or its capacity is unknown.
func MemoryUsagePercent(n domain.Node) (int, bool) {
	return n.MemoryUsagePercent()
}

// MemoryCapacityGB renders node capacity in GB, or "" when the node did not
// report one.
func MemoryCapacityGB(n domain.Node) string {
	if n.MemoryCapacityBytes <= 0 {
		return ""
	}
	return units.FormatGB(n.MemoryCapacityBytes)
}

// PodsPerNamespace counts pods by namespace, including namespaces with none.
func PodsPerNamespace(r *domain.ClusterReport) map[string]int {
	out := make(map[string]int, len(r.Namespaces))
	for _, ns := range r.Namespaces {
		out[ns.Name] = 0
	}
	for _, p := range r.Pods {
		out[p.Namespace]++
	}
	return out
}

func copyInt(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
