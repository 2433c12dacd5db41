package main

import (
	"context"
	"io"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/HaPhanBaoMinh/kreport/internal/app"
	"github.com/HaPhanBaoMinh/kreport/internal/config"
	kerrors "github.com/HaPhanBaoMinh/kreport/internal/errors"
	"github.com/HaPhanBaoMinh/kreport/internal/logging"
	"github.com/HaPhanBaoMinh/kreport/internal/pipeline"
)

const name = "kreport"

func newCommand(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:    name,
		Usage:   "Report node and pod memory usage of a Kubernetes cluster",
		Version: version,
		Description: `Collects namespaces, nodes and pods from the control plane together with
point-in-time usage from the metrics.k8s.io API, prints a summary and writes
a Markdown report (default usage-report.md).

Credentials come from --kubeconfig, then KUBECONFIG, then ~/.kube/config,
then the in-cluster service account.`,
		Flags:  reportFlags(),
		Action: reportAction(stdout),
		Commands: []*cli.Command{
			{
				Name:   "report",
				Usage:  "Collect usage and write the report (default command)",
				Flags:  reportFlags(),
				Action: reportAction(stdout),
			},
			{
				Name:   "view",
				Usage:  "Collect usage and browse it interactively",
				Flags:  collectFlags(),
				Action: viewAction,
			},
		},
	}
}

func collectFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "kubeconfig",
			Usage:   "Path to the kubeconfig file",
			Sources: cli.EnvVars("KUBECONFIG"),
		},
		&cli.StringFlag{
			Name:    "context",
			Usage:   "Kubeconfig context to use (default: current-context)",
			Sources: cli.EnvVars("KREPORT_CONTEXT"),
		},
		&cli.DurationFlag{
			Name:    "timeout",
			Usage:   "Timeout for each API call",
			Sources: cli.EnvVars("KREPORT_TIMEOUT"),
			Value:   config.DefaultFetchTimeout,
		},
		&cli.BoolFlag{
			Name:  "mock",
			Usage: "Use a built-in demo cluster instead of a real one",
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level (debug, info, warn, error)",
			Sources: cli.EnvVars("LOG_LEVEL"),
			Value:   "info",
		},
	}
}

func reportFlags() []cli.Flag {
	return append(collectFlags(),
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Report file path",
			Sources: cli.EnvVars("KREPORT_OUTPUT"),
			Value:   config.DefaultOutputPath,
		},
		&cli.StringFlag{
			Name:  "format",
			Usage: "Report file format (md, json, yaml)",
			Value: string(config.FormatMarkdown),
		},
		&cli.StringFlag{
			Name:  "metrics-file",
			Usage: "Also write Prometheus textfile metrics to this path",
		},
		&cli.BoolFlag{
			Name:  "quiet",
			Usage: "Do not print the console summary",
		},
	)
}

// configFromCommand reads flags into a validated Config.
func configFromCommand(cmd *cli.Command) (config.Config, error) {
	cfg := config.Default()
	cfg.Kubeconfig = cmd.String("kubeconfig")
	cfg.Context = cmd.String("context")
	cfg.Timeout = cmd.Duration("timeout")
	cfg.UseMock = cmd.Bool("mock")
	cfg.LogLevel = cmd.String("log-level")

	// view has no output flags
	if o := cmd.String("output"); o != "" {
		cfg.OutputPath = o
	}
	if f := cmd.String("format"); f != "" {
		format, err := config.ParseFormat(f)
		if err != nil {
			return cfg, err
		}
		cfg.Format = format
	}
	cfg.MetricsFile = cmd.String("metrics-file")
	cfg.Quiet = cmd.Bool("quiet")

	return cfg, cfg.Validate()
}

func reportAction(stdout io.Writer) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := configFromCommand(cmd)
		if err != nil {
			return err
		}
		logging.SetDefault(name, version, cfg.LogLevel)
		slog.Debug("starting", "name", name, "version", version, "output", cfg.OutputPath, "format", string(cfg.Format))

		src, err := pipeline.OpenSource(cfg)
		if err != nil {
			return err
		}
		_, err = pipeline.Run(ctx, cfg, src, stdout)
		return err
	}
}

func viewAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := configFromCommand(cmd)
	if err != nil {
		return err
	}
	// log lines would tear the alternate screen
	level := cfg.LogLevel
	if !cmd.IsSet("log-level") {
		level = "error"
	}
	logging.SetDefault(name, version, level)

	src, err := pipeline.OpenSource(cfg)
	if err != nil {
		return err
	}
	refresh := pipeline.Refresher(src, cfg.Timeout)
	r, err := refresh(ctx)
	if err != nil {
		return err
	}

	m := app.New(r, app.RefreshFunc(refresh))
	if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return kerrors.Wrap(kerrors.ErrCodeInternal, "viewer", "run terminal UI", err)
	}
	return nil
}
