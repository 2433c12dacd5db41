package domain

import "context"

type InventoryRepo interface {
	ListNamespaces(ctx context.Context) ([]Namespace, error)
	ListNodes(ctx context.Context) ([]Node, error)
	ListPods(ctx context.Context) ([]Pod, error)
}

type MetricsRepo interface {
	MetricsAvailable(ctx context.Context) bool
	FetchPodMetrics(ctx context.Context) (map[string]UsageSample, error)
	FetchNodeMetrics(ctx context.Context) (map[string]UsageSample, error)
	FetchNodeMetric(ctx context.Context, nodeName string) (UsageSample, error)
}

// Source bundles both read paths plus the endpoint identity for the report header.
type Source interface {
	InventoryRepo
	MetricsRepo
	ClusterName() string
	ContextName() string
}
