package pipeline

import (
	"log/slog"
	"os"
	"strings"

	"github.com/HaPhanBaoMinh/kreport/internal/config"
	"github.com/HaPhanBaoMinh/kreport/internal/domain"
	"github.com/HaPhanBaoMinh/kreport/internal/infrastructure/k8s"
	"github.com/HaPhanBaoMinh/kreport/internal/infrastructure/mock"
)

// OpenSource resolves credentials and returns a live cluster source, or the
// demo source when cfg.UseMock is set.
func OpenSource(cfg config.Config) (domain.Source, error) {
	if cfg.UseMock {
		slog.Info("using demo data source")
		return mock.New(), nil
	}

	path := kubeconfigPath(cfg.Kubeconfig)
	ep, err := k8s.ResolveEndpoint(k8s.CredentialSource{KubeconfigPath: path, Context: cfg.Context})
	if err != nil {
		return nil, err
	}
	slog.Info("resolved cluster endpoint",
		"server", ep.Server,
		"context", ep.ContextName,
		"auth", string(ep.AuthMode()))

	return k8s.New(ep, cfg.Timeout)
}

// kubeconfigPath applies discovery order: explicit flag, KUBECONFIG,
// ~/.kube/config. An empty result selects in-cluster credentials.
func kubeconfigPath(flag string) string {
	if p := strings.TrimSpace(flag); p != "" {
		return p
	}
	if p := strings.TrimSpace(os.Getenv("KUBECONFIG")); p != "" {
		return p
	}
	return k8s.DefaultKubeconfigPath()
}
