package report

import (
	"bytes"
	"encoding/json"

	"gopkg.in/yaml.v3"

	"github.com/HaPhanBaoMinh/kreport/internal/config"
	"github.com/HaPhanBaoMinh/kreport/internal/domain"
	kerrors "github.com/HaPhanBaoMinh/kreport/internal/errors"
)

// Render encodes the report in the requested file format.
func Render(r *domain.ClusterReport, format config.Format) ([]byte, error) {
	switch format {
	case config.FormatMarkdown:
		return []byte(RenderMarkdown(r)), nil
	case config.FormatJSON:
		b, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return nil, kerrors.Wrap(kerrors.ErrCodeInternal, kerrors.PhaseReport, "encode json", err)
		}
		return append(b, '\n'), nil
	case config.FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return nil, kerrors.Wrap(kerrors.ErrCodeInternal, kerrors.PhaseReport, "encode yaml", err)
		}
		if err := enc.Close(); err != nil {
			return nil, kerrors.Wrap(kerrors.ErrCodeInternal, kerrors.PhaseReport, "encode yaml", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, kerrors.New(kerrors.ErrCodeInvalidRequest, kerrors.PhaseReport, "unsupported format "+string(format))
	}
}
