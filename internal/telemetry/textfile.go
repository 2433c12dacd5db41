package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/HaPhanBaoMinh/kreport/internal/domain"
	kerrors "github.com/HaPhanBaoMinh/kreport/internal/errors"
	"github.com/HaPhanBaoMinh/kreport/internal/report"
)

// Exporter turns a report into gauges for the node_exporter textfile
// collector. It uses its own registry so no process metrics leak in.
type Exporter struct {
	registry *prometheus.Registry

	nodeCapacity     *prometheus.GaugeVec
	nodeUsage        *prometheus.GaugeVec
	podUsage         *prometheus.GaugeVec
	pods             *prometheus.GaugeVec
	metricsAvailable prometheus.Gauge
	duration         *prometheus.GaugeVec
}

func NewExporter() *Exporter {
	reg := prometheus.NewRegistry()

	e := &Exporter{
		registry: reg,
		nodeCapacity: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "kreport_node_memory_capacity_bytes",
			Help: "Node memory capacity in bytes.",
		}, []string{"node"}),
		nodeUsage: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "kreport_node_memory_usage_bytes",
			Help: "Node memory usage in bytes as reported by the metrics API.",
		}, []string{"node"}),
		podUsage: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "kreport_pod_memory_usage_bytes",
			Help: "Memory usage of the first container of each ready pod, in bytes.",
		}, []string{"namespace", "pod"}),
		pods: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "kreport_pods",
			Help: "Number of pods per namespace.",
		}, []string{"namespace"}),
		metricsAvailable: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "kreport_metrics_available",
			Help: "1 when usage samples were collected, 0 otherwise.",
		}),
		duration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "kreport_collection_duration_seconds",
			Help: "Wall time spent in each collection phase.",
		}, []string{"phase"}),
	}

	reg.MustRegister(e.nodeCapacity, e.nodeUsage, e.podUsage, e.pods, e.metricsAvailable, e.duration)
	return e
}

// Registry exposes the gatherer, mainly for tests.
func (e *Exporter) Registry() *prometheus.Registry { return e.registry }

// Update replaces every series with the values in r. Entities without a
// usage sample get no usage series rather than a zero.
func (e *Exporter) Update(r *domain.ClusterReport, durations map[string]time.Duration) {
	e.nodeCapacity.Reset()
	e.nodeUsage.Reset()
	e.podUsage.Reset()
	e.pods.Reset()
	e.duration.Reset()

	for _, n := range r.Nodes {
		if n.MemoryCapacityBytes > 0 {
			e.nodeCapacity.WithLabelValues(n.Name).Set(float64(n.MemoryCapacityBytes))
		}
		if n.MemoryUsageBytes != nil {
			e.nodeUsage.WithLabelValues(n.Name).Set(float64(*n.MemoryUsageBytes))
		}
	}
	for _, p := range r.Pods {
		if p.MemoryUsageBytes != nil {
			e.podUsage.WithLabelValues(p.Namespace, p.Name).Set(float64(*p.MemoryUsageBytes))
		}
	}
	for ns, count := range report.PodsPerNamespace(r) {
		e.pods.WithLabelValues(ns).Set(float64(count))
	}
	if r.MetricsAvailable {
		e.metricsAvailable.Set(1)
	} else {
		e.metricsAvailable.Set(0)
	}
	for phase, d := range durations {
		e.duration.WithLabelValues(phase).Set(d.Seconds())
	}
}

// WriteTextfile writes the current series to path. The file is replaced
// atomically by the prometheus client.
func (e *Exporter) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, e.registry); err != nil {
		return kerrors.Wrap(kerrors.ErrCodeInternal, kerrors.PhaseReport, "write metrics textfile "+path, err)
	}
	return nil
}
