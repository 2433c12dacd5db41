package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/client-go/tools/clientcmd"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"

	kerrors "github.com/HaPhanBaoMinh/kreport/internal/errors"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := newCommand(&out).Run(context.Background(), append([]string{name}, args...))
	return out.String(), err
}

func TestReport_Mock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage-report.md")

	out, err := run(t, "--mock", "-o", path, "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "aks-system-12345678-vmss000000")

	md, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(md), "## VM Nodes usage")
	assert.Contains(t, string(md), "## Namespace/Pods usage")
}

func TestReport_SubcommandQuietYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.yaml")
	prom := filepath.Join(dir, "kreport.prom")

	out, err := run(t, "report", "--mock", "--quiet", "--format", "yaml", "--output", path, "--metrics-file", prom, "--log-level", "error")
	require.NoError(t, err)
	assert.Empty(t, out)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "cluster: demo")
	assert.FileExists(t, prom)
}

func TestReport_InvalidFlags(t *testing.T) {
	_, err := run(t, "--mock", "--format", "xml", "-o", filepath.Join(t.TempDir(), "r"))
	require.Error(t, err)
	assert.True(t, kerrors.IsCode(err, kerrors.ErrCodeInvalidRequest))
	assert.Equal(t, 1, kerrors.ExitCode(err))

	_, err = run(t, "--mock", "--timeout", "0s")
	assert.True(t, kerrors.IsCode(err, kerrors.ErrCodeInvalidRequest))
}

func TestReport_MissingServerURL(t *testing.T) {
	dir := t.TempDir()
	cfg := clientcmdapi.NewConfig()
	cfg.Clusters["c"] = &clientcmdapi.Cluster{}
	cfg.AuthInfos["u"] = &clientcmdapi.AuthInfo{Token: "t"}
	cfg.Contexts["ctx"] = &clientcmdapi.Context{Cluster: "c", AuthInfo: "u"}
	cfg.CurrentContext = "ctx"
	kubeconfig := filepath.Join(dir, "config")
	require.NoError(t, clientcmd.WriteToFile(*cfg, kubeconfig))
	output := filepath.Join(dir, "usage-report.md")

	_, err := run(t, "--kubeconfig", kubeconfig, "-o", output, "--log-level", "error")
	require.Error(t, err)
	assert.Equal(t, 2, kerrors.ExitCode(err))
	assert.Contains(t, err.Error(), "credential resolution")
	assert.NoFileExists(t, output)
}
