package k8s

import (
	"context"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/HaPhanBaoMinh/kreport/internal/domain"
	kerrors "github.com/HaPhanBaoMinh/kreport/internal/errors"
)

const listPageSize = 500

// node pool labels by provider, first match wins
var agentPoolLabels = []string{
	"agentpool",
	"kubernetes.azure.com/agentpool",
	"eks.amazonaws.com/nodegroup",
	"cloud.google.com/gke-nodepool",
	"karpenter.sh/nodepool",
}

var instanceTypeLabels = []string{
	corev1.LabelInstanceTypeStable,
	corev1.LabelInstanceType,
}

// ListNamespaces keeps the server's order so reports diff cleanly between runs.
func (r *Repo) ListNamespaces(ctx context.Context) ([]domain.Namespace, error) {
	var out []domain.Namespace
	opts := metav1.ListOptions{Limit: listPageSize}
	for {
		list, err := r.core.CoreV1().Namespaces().List(ctx, opts)
		if err != nil {
			return nil, kerrors.API("list namespaces", err)
		}
		for _, ns := range list.Items {
			out = append(out, domain.Namespace{Name: ns.Name})
		}
		if list.Continue == "" {
			return out, nil
		}
		opts.Continue = list.Continue
	}
}

func (r *Repo) ListNodes(ctx context.Context) ([]domain.Node, error) {
	now := r.now()
	var out []domain.Node
	opts := metav1.ListOptions{Limit: listPageSize}
	for {
		list, err := r.core.CoreV1().Nodes().List(ctx, opts)
		if err != nil {
			return nil, kerrors.API("list nodes", err)
		}
		for i := range list.Items {
			out = append(out, nodeFromAPI(&list.Items[i], now))
		}
		if list.Continue == "" {
			return out, nil
		}
		opts.Continue = list.Continue
	}
}

// ListPods lists pods across all namespaces.
func (r *Repo) ListPods(ctx context.Context) ([]domain.Pod, error) {
	now := r.now()
	var out []domain.Pod
	opts := metav1.ListOptions{Limit: listPageSize}
	for {
		list, err := r.core.CoreV1().Pods(metav1.NamespaceAll).List(ctx, opts)
		if err != nil {
			return nil, kerrors.API("list pods", err)
		}
		for i := range list.Items {
			out = append(out, podFromAPI(&list.Items[i], now))
		}
		if list.Continue == "" {
			return out, nil
		}
		opts.Continue = list.Continue
	}
}

func nodeFromAPI(n *corev1.Node, now time.Time) domain.Node {
	out := domain.Node{
		Name:              n.Name,
		AgentPool:         firstLabel(n.Labels, agentPoolLabels),
		InstanceType:      firstLabel(n.Labels, instanceTypeLabels),
		OSImage:           n.Status.NodeInfo.OSImage,
		Architecture:      n.Status.NodeInfo.Architecture,
		KubeletVersion:    n.Status.NodeInfo.KubeletVersion,
		CreationTimestamp: n.CreationTimestamp.Time,
		Age:               domain.NewAge(n.CreationTimestamp.Time, now),
	}
	if q, ok := n.Status.Capacity[corev1.ResourceCPU]; ok {
		out.CPUCapacity = q.String()
	}
	if q, ok := n.Status.Capacity[corev1.ResourceMemory]; ok {
		out.MemoryCapacityBytes = q.Value()
	}
	return out
}

func podFromAPI(p *corev1.Pod, now time.Time) domain.Pod {
	start := p.CreationTimestamp.Time
	if p.Status.StartTime != nil {
		start = p.Status.StartTime.Time
	}
	out := domain.Pod{
		Name:      p.Name,
		Namespace: p.Namespace,
		PodIP:     p.Status.PodIP,
		NodeName:  p.Spec.NodeName,
		StartTime: start,
		Age:       domain.NewAge(start, now),
	}

	// readiness and identity come from the first container only
	if len(p.Status.ContainerStatuses) > 0 {
		cs := p.Status.ContainerStatuses[0]
		out.Ready = cs.Ready
		out.Container = &domain.ContainerIdentity{
			Name:    cs.Name,
			Image:   cs.Image,
			ImageID: cs.ImageID,
		}
		return out
	}
	out.Pending = &domain.PendingStatus{
		Message: p.Status.Message,
		Reason:  p.Status.Reason,
	}
	return out
}

func firstLabel(labels map[string]string, keys []string) string {
	for _, k := range keys {
		if v := labels[k]; v != "" {
			return v
		}
	}
	return ""
}
