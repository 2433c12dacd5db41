package k8s

import (
	"time"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"

	"github.com/HaPhanBaoMinh/kreport/internal/domain"
	kerrors "github.com/HaPhanBaoMinh/kreport/internal/errors"
)

// Repo reads inventory through the typed client and usage through raw
// requests to metrics.k8s.io. It keeps no state between calls.
type Repo struct {
	core     kubernetes.Interface
	raw      rest.Interface
	endpoint domain.ClusterEndpoint
	now      func() time.Time
}

var _ domain.Source = (*Repo)(nil)

func New(ep domain.ClusterEndpoint, timeout time.Duration) (*Repo, error) {
	core, err := kubernetes.NewForConfig(RESTConfig(ep, timeout))
	if err != nil {
		return nil, kerrors.AuthConfig("build kubernetes client", err)
	}
	return NewWithClients(ep, core, core.CoreV1().RESTClient()), nil
}

// NewWithClients wires explicit clients. raw may be nil, in which case
// every metrics call reports the metrics API as unavailable.
func NewWithClients(ep domain.ClusterEndpoint, core kubernetes.Interface, raw rest.Interface) *Repo {
	return &Repo{core: core, raw: raw, endpoint: ep, now: time.Now}
}

func (r *Repo) ClusterName() string { return r.endpoint.ClusterName }
func (r *Repo) ContextName() string { return r.endpoint.ContextName }
