package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	kerrors "github.com/HaPhanBaoMinh/kreport/internal/errors"
)

// Format is the file format of the written report.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
)

// SupportedFormats lists the accepted --format values.
func SupportedFormats() []string {
	return []string{string(FormatMarkdown), string(FormatJSON), string(FormatYAML)}
}

// ParseFormat accepts the canonical names plus "markdown" and "yml".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "md", "markdown":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", kerrors.New(kerrors.ErrCodeInvalidRequest, kerrors.PhaseConfig,
		fmt.Sprintf("unknown output format %q, valid formats are: %s", s, strings.Join(SupportedFormats(), ", ")))
}

// Config holds everything one report run needs.
type Config struct {
	Kubeconfig  string
	Context     string
	OutputPath  string
	Format      Format
	Timeout     time.Duration
	MetricsFile string
	Quiet       bool
	UseMock     bool
	LogLevel    string
}

// Default returns a Config with defaults applied.
func Default() Config {
	return Config{
		OutputPath: DefaultOutputPath,
		Format:     FormatMarkdown,
		Timeout:    DefaultFetchTimeout,
		LogLevel:   "info",
	}
}

// Validate returns the first invalid field as an INVALID_REQUEST error.
func (c Config) Validate() error {
	if c.Timeout <= 0 {
		return invalid("timeout must be positive, got %v", c.Timeout)
	}
	if c.Timeout > MaxFetchTimeout {
		return invalid("timeout must be <= %v, got %v", MaxFetchTimeout, c.Timeout)
	}
	if strings.TrimSpace(c.OutputPath) == "" {
		return invalid("output path is required")
	}
	if _, err := ParseFormat(string(c.Format)); err != nil {
		return err
	}
	if c.MetricsFile != "" && filepath.Clean(c.MetricsFile) == filepath.Clean(c.OutputPath) {
		return invalid("metrics file and report output must differ (%s)", c.OutputPath)
	}
	return nil
}

func invalid(format string, a ...any) error {
	return kerrors.New(kerrors.ErrCodeInvalidRequest, kerrors.PhaseConfig, fmt.Sprintf(format, a...))
}
