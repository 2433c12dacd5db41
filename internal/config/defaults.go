package config

import "time"

const (
	// DefaultOutputPath is relative to the working directory.
	DefaultOutputPath = "usage-report.md"

	// DefaultFetchTimeout bounds every control-plane and metrics API call.
	DefaultFetchTimeout = 30 * time.Second

	// MaxFetchTimeout caps --timeout.
	MaxFetchTimeout = 10 * time.Minute

	// ClientQPS and ClientBurst throttle the kube client.
	ClientQPS   = 30
	ClientBurst = 60
)
