package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/HaPhanBaoMinh/kreport/internal/domain"
	"github.com/HaPhanBaoMinh/kreport/internal/units"
)

// RenderMarkdown renders the report document. Absent usage leaves the cell
// blank.
func RenderMarkdown(r *domain.ClusterReport) string {
	var b strings.Builder

	b.WriteString("# Cluster usage report\n\n")
	if r.ClusterName != "" {
		fmt.Fprintf(&b, "- Cluster: %s\n", mdCell(r.ClusterName))
	}
	if r.Context != "" {
		fmt.Fprintf(&b, "- Context: %s\n", mdCell(r.Context))
	}
	if !r.GeneratedAt.IsZero() {
		fmt.Fprintf(&b, "- Generated: %s\n", r.GeneratedAt.UTC().Format(time.RFC3339))
	}
	if !r.MetricsAvailable {
		b.WriteString("- Metrics API unavailable: usage columns are blank\n")
	}
	b.WriteString("\n")

	b.WriteString("## VM Nodes usage\n")
	b.WriteString("| Name | CoreCount | InstanceType | K8s version | Memory GB | Memory Usage GB | Usage% |\n")
	b.WriteString("| :--- | :--- | :--- | :--- | :--- | :--- | :--- |\n")
	for _, n := range r.Nodes {
		used, pct := "", ""
		if n.MemoryUsageBytes != nil {
			used = units.FormatGB(*n.MemoryUsageBytes)
		}
		if p, ok := MemoryUsagePercent(n); ok {
			pct = fmt.Sprintf("%d %%", p)
		}
		writeRow(&b,
			n.Name,
			n.CPUCapacity,
			n.InstanceType,
			n.KubeletVersion,
			MemoryCapacityGB(n),
			used,
			pct,
		)
	}
	b.WriteString("\n")

	b.WriteString("## Namespace/Pods usage\n")
	b.WriteString("| Namespace | POD Name | Age | Memory Usage |\n")
	b.WriteString("| :--- | :--- | :--- | :--- |\n")
	for _, p := range r.Pods {
		used := ""
		if p.MemoryUsageBytes != nil {
			used = units.FormatMB(*p.MemoryUsageBytes)
		}
		writeRow(&b, p.Namespace, p.Name, p.Age.String(), used)
	}
	return b.String()
}

func writeRow(b *strings.Builder, cells ...string) {
	b.WriteString("|")
	for _, c := range cells {
		b.WriteString(" ")
		b.WriteString(mdCell(c))
		b.WriteString(" |")
	}
	b.WriteString("\n")
}

var mdEscaper = strings.NewReplacer("|", `\|`, "\r\n", " ", "\n", " ")

// mdCell keeps a value on one table row.
func mdCell(s string) string { return mdEscaper.Replace(s) }
