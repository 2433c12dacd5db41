package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/HaPhanBaoMinh/kreport/internal/domain"
	"github.com/HaPhanBaoMinh/kreport/internal/ui/styles"
	"github.com/HaPhanBaoMinh/kreport/internal/units"
)

// absent marks a missing usage value on the console. It is never rendered as 0.
const absent = "-"

// RenderConsole renders nodes, namespaces and pods as three tables.
func RenderConsole(r *domain.ClusterReport) string {
	var b strings.Builder

	b.WriteString(styles.Title.Render(fmt.Sprintf("cluster %s (context %s)", orDash(r.ClusterName), orDash(r.Context))))
	b.WriteString("\n")
	if !r.MetricsAvailable {
		b.WriteString(styles.Warn.Render("metrics API unavailable: usage columns are empty"))
		b.WriteString("\n")
	}

	b.WriteString("\n" + styles.Header.Render("Nodes") + "\n")
	nodes := newTable("NAME", "POOL", "INSTANCE", "CPU", "MEMORY", "MEM USAGE", "USAGE%", "VERSION", "AGE")
	for _, n := range r.Nodes {
		nodes.Row(
			n.Name,
			orDash(n.AgentPool),
			orDash(n.InstanceType),
			orDash(n.CPUCapacity),
			orDash(MemoryCapacityGB(n)),
			usageCell(n.MemoryUsageBytes, units.FormatGB),
			percentCell(n),
			orDash(n.KubeletVersion),
			n.Age.String(),
		)
	}
	b.WriteString(nodes.String() + "\n")

	b.WriteString("\n" + styles.Header.Render("Namespaces") + "\n")
	counts := PodsPerNamespace(r)
	namespaces := newTable("NAMESPACE", "PODS")
	for _, ns := range r.Namespaces {
		namespaces.Row(ns.Name, strconv.Itoa(counts[ns.Name]))
	}
	b.WriteString(namespaces.String() + "\n")

	b.WriteString("\n" + styles.Header.Render("Pods") + "\n")
	pods := newTable("NAMESPACE", "POD", "READY", "AGE", "MEMORY", "NODE")
	for _, p := range r.Pods {
		pods.Row(
			p.Namespace,
			p.Name,
			strconv.FormatBool(p.Ready),
			p.Age.String(),
			usageCell(p.MemoryUsageBytes, units.FormatMB),
			orDash(p.NodeName),
		)
	}
	b.WriteString(pods.String() + "\n")
	return b.String()
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styles.Faint).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.Header.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
}

func usageCell(v *int64, format func(int64) string) string {
	if v == nil {
		return absent
	}
	return format(*v)
}

func percentCell(n domain.Node) string {
	pct, ok := MemoryUsagePercent(n)
	if !ok {
		return absent
	}
	return fmt.Sprintf("%d%%", pct)
}

func orDash(s string) string {
	if s == "" {
		return absent
	}
	return s
}
