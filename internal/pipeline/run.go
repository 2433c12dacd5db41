package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/HaPhanBaoMinh/kreport/internal/config"
	"github.com/HaPhanBaoMinh/kreport/internal/domain"
	"github.com/HaPhanBaoMinh/kreport/internal/report"
	"github.com/HaPhanBaoMinh/kreport/internal/telemetry"
)

// Run performs one full report: collect, print, write the report file and
// optionally the metrics textfile. Nothing is written when collection fails.
func Run(ctx context.Context, cfg config.Config, src domain.Source, stdout io.Writer) (*Result, error) {
	res, err := Collect(ctx, src, cfg.Timeout, time.Now)
	if err != nil {
		return nil, err
	}

	if !cfg.Quiet {
		if _, err := fmt.Fprint(stdout, report.RenderConsole(res.Report)); err != nil {
			slog.Warn("failed to print console report", "error", err)
		}
	}

	data, err := report.Render(res.Report, cfg.Format)
	if err != nil {
		return nil, err
	}
	if err := report.WriteFile(cfg.OutputPath, data); err != nil {
		return nil, err
	}
	slog.Info("report written", "path", cfg.OutputPath, "format", string(cfg.Format), "bytes", len(data))

	if cfg.MetricsFile != "" {
		exp := telemetry.NewExporter()
		exp.Update(res.Report, res.Durations)
		if err := exp.WriteTextfile(cfg.MetricsFile); err != nil {
			return nil, err
		}
		slog.Info("metrics textfile written", "path", cfg.MetricsFile)
	}
	return res, nil
}

// Refresher returns a function that re-runs collection against src. The
// viewer uses it for its refresh key.
func Refresher(src domain.Source, timeout time.Duration) func(context.Context) (*domain.ClusterReport, error) {
	return func(ctx context.Context) (*domain.ClusterReport, error) {
		res, err := Collect(ctx, src, timeout, time.Now)
		if err != nil {
			return nil, err
		}
		return res.Report, nil
	}
}
