package domain

import (
	"fmt"
	"time"

	"github.com/HaPhanBaoMinh/kreport/internal/units"
)

type AuthMode string

const (
	AuthCert  AuthMode = "cert"
	AuthToken AuthMode = "token"
)

// ClusterEndpoint is the resolved API server address plus credentials.
// Exactly one of (CertData, KeyData) or Token is set.
type ClusterEndpoint struct {
	Server      string
	ContextName string
	ClusterName string
	CAData      []byte
	CertData    []byte
	KeyData     []byte
	Token       string
	Insecure    bool
}

func (e ClusterEndpoint) AuthMode() AuthMode {
	if len(e.CertData) > 0 && len(e.KeyData) > 0 {
		return AuthCert
	}
	if e.Token != "" {
		return AuthToken
	}
	return ""
}

type Namespace struct {
	Name string `json:"name" yaml:"name"`
}

// Age is a wall-clock duration split into whole days and remaining whole hours.
type Age struct {
	Days  int `json:"days" yaml:"days"`
	Hours int `json:"hours" yaml:"hours"`
}

// NewAge computes now - since, truncating fractional hours. Future timestamps give a zero age.
func NewAge(since, now time.Time) Age {
	d := now.Sub(since)
	if since.IsZero() || d < 0 {
		return Age{}
	}
	hours := int(d / time.Hour)
	return Age{Days: hours / 24, Hours: hours % 24}
}

func (a Age) String() string {
	return fmt.Sprintf("%d days %dh", a.Days, a.Hours)
}

type Node struct {
	Name                string    `json:"name" yaml:"name"`
	AgentPool           string    `json:"agentPool,omitempty" yaml:"agentPool,omitempty"`
	InstanceType        string    `json:"instanceType,omitempty" yaml:"instanceType,omitempty"`
	CPUCapacity         string    `json:"cpuCapacity" yaml:"cpuCapacity"`
	MemoryCapacityBytes int64     `json:"memoryCapacityBytes" yaml:"memoryCapacityBytes"`
	OSImage             string    `json:"osImage,omitempty" yaml:"osImage,omitempty"`
	Architecture        string    `json:"architecture,omitempty" yaml:"architecture,omitempty"`
	KubeletVersion      string    `json:"kubeletVersion,omitempty" yaml:"kubeletVersion,omitempty"`
	CreationTimestamp   time.Time `json:"creationTimestamp" yaml:"creationTimestamp"`
	Age                 Age       `json:"age" yaml:"age"`

	// nil when no usage sample was available
	MemoryUsageBytes *int64 `json:"memoryUsageBytes,omitempty" yaml:"memoryUsageBytes,omitempty"`
	CPUUsageMillis   *int64 `json:"cpuUsageMillicores,omitempty" yaml:"cpuUsageMillicores,omitempty"`
}

// MemoryUsagePercent is floor(usage/capacity*100); ok is false when usage is
// absent or capacity is unknown.
func (n Node) MemoryUsagePercent() (pct int, ok bool) {
	if n.MemoryUsageBytes == nil {
		return 0, false
	}
	return units.Percent(*n.MemoryUsageBytes, n.MemoryCapacityBytes)
}

type ContainerIdentity struct {
	Name    string `json:"name" yaml:"name"`
	Image   string `json:"image" yaml:"image"`
	ImageID string `json:"imageID,omitempty" yaml:"imageID,omitempty"`
}

// PendingStatus explains why a pod has no container status yet.
type PendingStatus struct {
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
	Reason  string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

type Pod struct {
	Name      string             `json:"name" yaml:"name"`
	Namespace string             `json:"namespace" yaml:"namespace"`
	PodIP     string             `json:"podIP,omitempty" yaml:"podIP,omitempty"`
	NodeName  string             `json:"nodeName,omitempty" yaml:"nodeName,omitempty"`
	StartTime time.Time          `json:"startTime" yaml:"startTime"`
	Age       Age                `json:"age" yaml:"age"`
	Ready     bool               `json:"ready" yaml:"ready"`
	Container *ContainerIdentity `json:"container,omitempty" yaml:"container,omitempty"`
	Pending   *PendingStatus     `json:"pending,omitempty" yaml:"pending,omitempty"`

	// set only when the pod is ready and a sample exists for Key()
	MemoryUsageBytes *int64 `json:"memoryUsageBytes,omitempty" yaml:"memoryUsageBytes,omitempty"`
	CPUUsageMillis   *int64 `json:"cpuUsageMillicores,omitempty" yaml:"cpuUsageMillicores,omitempty"`
}

// Key is the identity used to join metrics samples: "namespace:name".
func (p Pod) Key() string { return PodKey(p.Namespace, p.Name) }

func PodKey(namespace, name string) string { return namespace + ":" + name }

// UsageSample is one point-in-time reading. MemoryBytes is nil when the
// reported unit was not recognised; RawMemory keeps the original string.
type UsageSample struct {
	Key           string
	MemoryBytes   *int64
	CPUMillicores *int64
	RawMemory     string
}

// ClusterReport is built once per run and never mutated afterwards.
type ClusterReport struct {
	ClusterName      string      `json:"cluster,omitempty" yaml:"cluster,omitempty"`
	Context          string      `json:"context,omitempty" yaml:"context,omitempty"`
	GeneratedAt      time.Time   `json:"generatedAt" yaml:"generatedAt"`
	MetricsAvailable bool        `json:"metricsAvailable" yaml:"metricsAvailable"`
	Namespaces       []Namespace `json:"namespaces" yaml:"namespaces"`
	Nodes            []Node      `json:"nodes" yaml:"nodes"`
	Pods             []Pod       `json:"pods" yaml:"pods"`
}

// Inventory is the topology read from the control plane.
type Inventory struct {
	Namespaces []Namespace
	Nodes      []Node
	Pods       []Pod
}

// Usage holds metrics samples keyed by node name and by PodKey.
type Usage struct {
	Nodes map[string]UsageSample
	Pods  map[string]UsageSample
}

func (u Usage) Empty() bool { return len(u.Nodes) == 0 && len(u.Pods) == 0 }
