package k8s

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"

	"github.com/HaPhanBaoMinh/kreport/help"
	"github.com/HaPhanBaoMinh/kreport/internal/config"
	"github.com/HaPhanBaoMinh/kreport/internal/domain"
	kerrors "github.com/HaPhanBaoMinh/kreport/internal/errors"
)

// CredentialSource points at a kubeconfig and optionally a context in it.
// An empty KubeconfigPath means in-cluster service account credentials.
// KubeconfigPath may hold several files separated by the OS list separator,
// as KUBECONFIG does.
type CredentialSource struct {
	KubeconfigPath string
	Context        string
}

// DefaultKubeconfigPath returns ~/.kube/config when it exists, else "".
func DefaultKubeconfigPath() string {
	p := filepath.Join(help.HomeDir(), ".kube", "config")
	if _, err := os.Stat(p); err != nil {
		return ""
	}
	return p
}

// ResolveEndpoint turns a credential source into a ClusterEndpoint.
// Every failure is an AUTH_CONFIG error.
func ResolveEndpoint(src CredentialSource) (domain.ClusterEndpoint, error) {
	if strings.TrimSpace(src.KubeconfigPath) == "" {
		return inClusterEndpoint()
	}
	cfg, err := loadKubeconfig(src.KubeconfigPath)
	if err != nil {
		return domain.ClusterEndpoint{}, err
	}
	return endpointFromConfig(cfg, src.Context)
}

func loadKubeconfig(path string) (*clientcmdapi.Config, error) {
	paths := filepath.SplitList(path)
	if len(paths) > 1 {
		rules := &clientcmd.ClientConfigLoadingRules{Precedence: paths}
		cfg, err := rules.Load()
		if err != nil {
			return nil, kerrors.AuthConfig("load kubeconfig "+path, err)
		}
		return cfg, nil
	}

	cfg, err := clientcmd.LoadFromFile(path)
	if err != nil {
		return nil, kerrors.AuthConfig("load kubeconfig "+path, err)
	}
	// file references are relative to the kubeconfig itself
	if err := clientcmd.ResolveLocalPaths(cfg); err != nil {
		return nil, kerrors.AuthConfig("resolve kubeconfig paths", err)
	}
	return cfg, nil
}

func endpointFromConfig(cfg *clientcmdapi.Config, contextName string) (domain.ClusterEndpoint, error) {
	name := contextName
	if name == "" {
		name = cfg.CurrentContext
	}
	if name == "" {
		return domain.ClusterEndpoint{}, kerrors.AuthConfig("no context selected and current-context is empty", nil)
	}
	kctx, ok := cfg.Contexts[name]
	if !ok || kctx == nil {
		return domain.ClusterEndpoint{}, kerrors.AuthConfig(fmt.Sprintf("context %q not found", name), nil)
	}
	cluster, ok := cfg.Clusters[kctx.Cluster]
	if !ok || cluster == nil {
		return domain.ClusterEndpoint{}, kerrors.AuthConfig(fmt.Sprintf("cluster %q referenced by context %q not found", kctx.Cluster, name), nil)
	}
	if strings.TrimSpace(cluster.Server) == "" {
		return domain.ClusterEndpoint{}, kerrors.AuthConfig(fmt.Sprintf("cluster %q has no server URL", kctx.Cluster), nil)
	}
	user, ok := cfg.AuthInfos[kctx.AuthInfo]
	if !ok || user == nil {
		return domain.ClusterEndpoint{}, kerrors.AuthConfig(fmt.Sprintf("user %q referenced by context %q not found", kctx.AuthInfo, name), nil)
	}

	ep := domain.ClusterEndpoint{
		Server:      strings.TrimSpace(cluster.Server),
		ContextName: name,
		ClusterName: kctx.Cluster,
		Insecure:    cluster.InsecureSkipTLSVerify,
	}

	var err error
	if ep.CAData, err = dataOrFile(cluster.CertificateAuthorityData, cluster.CertificateAuthority, "certificate-authority"); err != nil {
		return domain.ClusterEndpoint{}, err
	}
	cert, err := dataOrFile(user.ClientCertificateData, user.ClientCertificate, "client-certificate")
	if err != nil {
		return domain.ClusterEndpoint{}, err
	}
	key, err := dataOrFile(user.ClientKeyData, user.ClientKey, "client-key")
	if err != nil {
		return domain.ClusterEndpoint{}, err
	}
	token := user.Token
	if token == "" && user.TokenFile != "" {
		b, err := os.ReadFile(user.TokenFile)
		if err != nil {
			return domain.ClusterEndpoint{}, kerrors.AuthConfig("read tokenFile", err)
		}
		token = strings.TrimSpace(string(b))
	}

	switch {
	case len(cert) > 0 && len(key) > 0:
		ep.CertData, ep.KeyData = cert, key
	case token != "":
		ep.Token = token
	case user.Exec != nil || user.AuthProvider != nil:
		return domain.ClusterEndpoint{}, kerrors.AuthConfig(fmt.Sprintf("user %q uses an exec/auth-provider plugin; a client certificate or token is required", kctx.AuthInfo), nil)
	default:
		return domain.ClusterEndpoint{}, kerrors.AuthConfig(fmt.Sprintf("user %q has neither a client certificate/key pair nor a token", kctx.AuthInfo), nil)
	}
	return ep, nil
}

func dataOrFile(data []byte, path, field string) ([]byte, error) {
	if len(data) > 0 || path == "" {
		return data, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, kerrors.AuthConfig("read "+field, err)
	}
	return b, nil
}

func inClusterEndpoint() (domain.ClusterEndpoint, error) {
	cfg, err := rest.InClusterConfig()
	if err != nil {
		return domain.ClusterEndpoint{}, kerrors.AuthConfig("no kubeconfig given and in-cluster config unavailable", err)
	}
	ca, err := dataOrFile(cfg.TLSClientConfig.CAData, cfg.TLSClientConfig.CAFile, "service account CA")
	if err != nil {
		return domain.ClusterEndpoint{}, err
	}
	if cfg.BearerToken == "" {
		return domain.ClusterEndpoint{}, kerrors.AuthConfig("service account token is empty", nil)
	}
	return domain.ClusterEndpoint{
		Server:      cfg.Host,
		ContextName: "in-cluster",
		CAData:      ca,
		Token:       cfg.BearerToken,
	}, nil
}

// RESTConfig builds a client-go config from in-memory TLS material.
// timeout bounds every request made with it.
func RESTConfig(ep domain.ClusterEndpoint, timeout time.Duration) *rest.Config {
	cfg := &rest.Config{
		Host:      ep.Server,
		Timeout:   timeout,
		QPS:       config.ClientQPS,
		Burst:     config.ClientBurst,
		UserAgent: "kreport",
		TLSClientConfig: rest.TLSClientConfig{
			Insecure: ep.Insecure,
		},
	}
	// client-go rejects a CA together with insecure
	if !ep.Insecure {
		cfg.TLSClientConfig.CAData = ep.CAData
	}
	switch ep.AuthMode() {
	case domain.AuthCert:
		cfg.TLSClientConfig.CertData = ep.CertData
		cfg.TLSClientConfig.KeyData = ep.KeyData
	case domain.AuthToken:
		cfg.BearerToken = ep.Token
	}
	return cfg
}
