package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/HaPhanBaoMinh/kreport/internal/domain"
	"github.com/HaPhanBaoMinh/kreport/internal/report"
)

// Phase names used for timing.
const (
	PhaseInventory = "inventory"
	PhaseMetrics   = "metrics"
	PhaseTotal     = "total"
)

// Result is one completed collection.
type Result struct {
	Report    *domain.ClusterReport
	Durations map[string]time.Duration
}

// Collect reads inventory and usage concurrently and builds the report once
// both sides are done. Any inventory failure aborts the run. Metrics failures
// are logged and leave the usage columns empty.
func Collect(ctx context.Context, src domain.Source, timeout time.Duration, now func() time.Time) (*Result, error) {
	start := time.Now()

	var (
		inv     domain.Inventory
		usage   domain.Usage
		metrics metricsOutcome
		mu      sync.Mutex
		timings = map[string]time.Duration{}
	)
	track := func(phase string, since time.Time) {
		mu.Lock()
		defer mu.Unlock()
		if d := time.Since(since); d > timings[phase] {
			timings[phase] = d
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer track(PhaseInventory, time.Now())
		cctx, cancel := context.WithTimeout(gctx, timeout)
		defer cancel()
		ns, err := src.ListNamespaces(cctx)
		inv.Namespaces = ns
		return err
	})
	g.Go(func() error {
		defer track(PhaseInventory, time.Now())
		cctx, cancel := context.WithTimeout(gctx, timeout)
		defer cancel()
		nodes, err := src.ListNodes(cctx)
		inv.Nodes = nodes
		return err
	})
	g.Go(func() error {
		defer track(PhaseInventory, time.Now())
		cctx, cancel := context.WithTimeout(gctx, timeout)
		defer cancel()
		pods, err := src.ListPods(cctx)
		inv.Pods = pods
		return err
	})

	// metrics goroutines never return an error so they cannot cancel the group
	g.Go(func() error {
		defer track(PhaseMetrics, time.Now())
		metrics = fetchUsage(gctx, src, timeout)
		usage = metrics.usage
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	r := report.Build(inv, usage, report.Meta{
		ClusterName:      src.ClusterName(),
		Context:          src.ContextName(),
		GeneratedAt:      now(),
		MetricsAvailable: metrics.available,
	})
	track(PhaseTotal, start)

	slog.Info("collection complete",
		"namespaces", len(r.Namespaces),
		"nodes", len(r.Nodes),
		"pods", len(r.Pods),
		"metricsAvailable", r.MetricsAvailable,
		"duration", timings[PhaseTotal].String())

	return &Result{Report: r, Durations: timings}, nil
}

type metricsOutcome struct {
	usage     domain.Usage
	available bool
}

// fetchUsage is the non-fatal half of a collection: every failure degrades
// to an empty map.
func fetchUsage(ctx context.Context, src domain.Source, timeout time.Duration) metricsOutcome {
	out := metricsOutcome{usage: domain.Usage{
		Nodes: map[string]domain.UsageSample{},
		Pods:  map[string]domain.UsageSample{},
	}}

	dctx, cancel := context.WithTimeout(ctx, timeout)
	available := src.MetricsAvailable(dctx)
	cancel()
	if !available {
		slog.Warn("metrics API not served, usage columns will be empty")
		return out
	}

	var wg sync.WaitGroup
	var nodeErr, podErr error
	var nodeMap, podMap map[string]domain.UsageSample
	wg.Add(2)
	go func() {
		defer wg.Done()
		cctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		nodeMap, nodeErr = src.FetchNodeMetrics(cctx)
	}()
	go func() {
		defer wg.Done()
		cctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		podMap, podErr = src.FetchPodMetrics(cctx)
	}()
	wg.Wait()

	if nodeErr != nil {
		slog.Warn("node metrics unavailable", "error", nodeErr)
	} else {
		out.usage.Nodes = nodeMap
	}
	if podErr != nil {
		slog.Warn("pod metrics unavailable", "error", podErr)
	} else {
		out.usage.Pods = podMap
	}
	out.available = nodeErr == nil || podErr == nil
	return out
}
