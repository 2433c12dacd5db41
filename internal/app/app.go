package app

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/HaPhanBaoMinh/kreport/internal/domain"
	"github.com/HaPhanBaoMinh/kreport/internal/report"
	"github.com/HaPhanBaoMinh/kreport/internal/ui/styles"
	"github.com/HaPhanBaoMinh/kreport/internal/ui/widgets"
	"github.com/HaPhanBaoMinh/kreport/internal/units"
)

type View int

const (
	ViewNodes View = iota
	ViewPods
)

const (
	sortName = "name"
	sortMem  = "mem"

	allNamespaces = "(all)"
)

// RefreshFunc collects a fresh report.
type RefreshFunc func(ctx context.Context) (*domain.ClusterReport, error)

// Model browses one ClusterReport. The report itself is never modified;
// filtering and sorting work on copies.
type Model struct {
	ctx     context.Context
	cancel  context.CancelFunc
	refresh RefreshFunc

	report *domain.ClusterReport

	// Namespace picker
	nsPickerOpen bool
	nsTable      table.Model

	view   View
	ns     string
	nsList []string
	sortBy string

	table    table.Model
	infoOpen bool

	// filtered and sorted rows currently shown
	pods  []domain.Pod
	nodes []domain.Node

	width, height int
	refreshing    bool
	err           error
}

func New(r *domain.ClusterReport, refresh RefreshFunc) Model {
	ctx, cancel := context.WithCancel(context.Background())

	t := table.New()
	t.SetHeight(12)
	t.SetWidth(100)

	m := Model{
		ctx:     ctx,
		cancel:  cancel,
		refresh: refresh,
		view:    ViewNodes,
		sortBy:  sortName,
		table:   t,
	}

	m.nsTable = table.New()
	m.nsTable.SetColumns([]table.Column{{Title: "Namespaces", Width: 32}})
	m.nsTable.SetHeight(10)
	m.nsTable.SetWidth(36)

	m.setReport(r)
	return m
}

type reportMsg struct{ report *domain.ClusterReport }
type errMsg struct{ error }

func (m Model) Init() tea.Cmd { return nil }

func (m Model) fetch() tea.Cmd {
	if m.refresh == nil {
		return nil
	}
	ctx, refresh := m.ctx, m.refresh
	return func() tea.Msg {
		r, err := refresh(ctx)
		if err != nil {
			return errMsg{err}
		}
		return reportMsg{r}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

		headerH := lipgloss.Height(styles.Header.Render("x"))
		footerH := lipgloss.Height(styles.Footer.Render("x"))
		base := m.height - headerH - footerH - 2
		if base < 10 {
			base = 10
		}
		if m.infoOpen {
			m.table.SetHeight(int(float64(base) * 0.6))
		} else {
			m.table.SetHeight(base)
		}
		m.table.SetWidth(m.width - 4)
		m.rebuildTable()
		return m, nil

	case reportMsg:
		m.refreshing = false
		m.err = nil
		m.setReport(msg.report)
		return m, nil

	case errMsg:
		m.refreshing = false
		m.err = msg.error
		return m, nil

	case tea.KeyMsg:
		if m.nsPickerOpen {
			switch msg.String() {
			case "enter":
				idx := clamp(m.nsTable.Cursor(), 0, len(m.nsList)-1)
				if idx >= 0 {
					next := m.nsList[idx]
					if next == allNamespaces {
						next = ""
					}
					if next != m.ns {
						m.ns = next
						m.infoOpen = false
						m.table.SetCursor(0)
						m.rebuildTable()
					}
				}
				m.nsPickerOpen = false
				m.nsTable.Blur()
				return m, nil
			case "esc":
				m.nsPickerOpen = false
				m.nsTable.Blur()
				return m, nil
			case "up", "k", "down", "j", "pgup", "pgdown", "home", "end":
				var cmd tea.Cmd
				m.nsTable, cmd = m.nsTable.Update(msg)
				return m, cmd
			}
			return m, nil
		}

		switch msg.String() {
		case "ctrl+c", "q":
			m.cancel()
			return m, tea.Quit

		case "n":
			m.nsPickerOpen = true
			m.nsTable.Focus()
			cur := 0
			for i, v := range m.nsList {
				if v == m.ns || (m.ns == "" && v == allNamespaces) {
					cur = i
					break
				}
			}
			m.nsTable.SetCursor(cur)
			return m, nil

		case "tab":
			if m.view == ViewPods {
				m.view = ViewNodes
			} else {
				m.view = ViewPods
			}
			m.infoOpen = false
			m.table.SetCursor(0)
			m.rebuildTable()
			return m, nil

		case "i":
			m.infoOpen = !m.infoOpen
			return m, func() tea.Msg { return tea.WindowSizeMsg{Width: m.width, Height: m.height} }

		case "esc":
			if m.infoOpen {
				m.infoOpen = false
				return m, nil
			}
			m.cancel()
			return m, tea.Quit

		case "s":
			if m.sortBy == sortName {
				m.sortBy = sortMem
			} else {
				m.sortBy = sortName
			}
			m.rebuildTable()
			return m, nil

		case "r":
			if m.refreshing || m.refresh == nil {
				return m, nil
			}
			m.refreshing = true
			return m, m.fetch()

		case "up", "k", "down", "j", "pgup", "pgdown", "home", "end":
			var cmd tea.Cmd
			m.table, cmd = m.table.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *Model) setReport(r *domain.ClusterReport) {
	if r == nil {
		r = &domain.ClusterReport{}
	}
	m.report = r

	m.nsList = []string{allNamespaces}
	known := false
	for _, ns := range r.Namespaces {
		m.nsList = append(m.nsList, ns.Name)
		if ns.Name == m.ns {
			known = true
		}
	}
	if !known {
		m.ns = ""
	}
	rows := make([]table.Row, 0, len(m.nsList))
	for _, ns := range m.nsList {
		rows = append(rows, table.Row{ns})
	}
	m.nsTable.SetRows(rows)

	m.rebuildTable()
	if c := m.table.Cursor(); c < 0 || c >= len(m.table.Rows()) {
		m.table.SetCursor(0)
	}
}

func (m *Model) rebuildTable() {
	m.nodes = sortedNodes(m.report.Nodes, m.sortBy)
	m.pods = sortedPods(filterPods(m.report.Pods, m.ns), m.sortBy)
	// old rows may not fit the new column set
	m.table.SetRows(nil)

	switch m.view {
	case ViewPods:
		wNS, wPod, wReady, wMem, wMemBar, wNode, wAge := m.podColWidths(m.table.Width())
		cols := []table.Column{
			{Title: "NAMESPACE", Width: wNS},
			{Title: "POD", Width: wPod},
			{Title: "READY", Width: wReady},
			{Title: "MEM", Width: wMem},
			{Title: "", Width: wMemBar},
			{Title: "NODE", Width: wNode},
			{Title: "AGE", Width: wAge},
		}

		// pods have no limit in the report, bars are relative to the largest
		var maxMem int64 = 1
		for _, p := range m.pods {
			if p.MemoryUsageBytes != nil && *p.MemoryUsageBytes > maxMem {
				maxMem = *p.MemoryUsageBytes
			}
		}

		rows := make([]table.Row, 0, len(m.pods))
		for _, p := range m.pods {
			mem, bar := "-", ""
			if p.MemoryUsageBytes != nil {
				mem = units.FormatMB(*p.MemoryUsageBytes)
				bar = widgets.Bar(float64(*p.MemoryUsageBytes)/float64(maxMem), wMemBar-1)
			}
			rows = append(rows, table.Row{
				p.Namespace,
				p.Name,
				readyMark(p.Ready),
				mem,
				bar,
				dash(p.NodeName),
				p.Age.String(),
			})
		}
		m.table.SetColumns(cols)
		m.table.SetRows(rows)

	case ViewNodes:
		wNode, wPool, wCPU, wCap, wUsed, wPct, wBar, wAge := m.nodeColWidths(m.table.Width())
		cols := []table.Column{
			{Title: "NODE", Width: wNode},
			{Title: "POOL", Width: wPool},
			{Title: "CPU", Width: wCPU},
			{Title: "MEMORY", Width: wCap},
			{Title: "USED", Width: wUsed},
			{Title: "MEM%", Width: wPct},
			{Title: "", Width: wBar},
			{Title: "AGE", Width: wAge},
		}
		rows := make([]table.Row, 0, len(m.nodes))
		for _, n := range m.nodes {
			used, pct, bar := "-", "-", ""
			if n.MemoryUsageBytes != nil {
				used = units.FormatGB(*n.MemoryUsageBytes)
			}
			if p, ok := report.MemoryUsagePercent(n); ok {
				pct = fmt.Sprintf("%3d%%", p)
				bar = widgets.Bar(float64(p)/100, wBar-1)
			}
			rows = append(rows, table.Row{
				n.Name,
				dash(n.AgentPool),
				dash(n.CPUCapacity),
				dash(report.MemoryCapacityGB(n)),
				used,
				pct,
				bar,
				n.Age.String(),
			})
		}
		m.table.SetColumns(cols)
		m.table.SetRows(rows)
	}
	m.table.Focus()
}

func (m Model) currentSelection() int {
	i := m.table.Cursor()
	if i < 0 {
		i = 0
	}
	return i
}

func (m Model) View() string {
	ns := m.ns
	if ns == "" {
		ns = allNamespaces
	}
	tabs := []string{styles.Tab.Render("Nodes"), styles.Tab.Render("Pods")}
	tabs[m.view] = styles.TabActive.Render([]string{"Nodes", "Pods"}[m.view])

	head := styles.Header.Render(
		fmt.Sprintf("kreport │ cluster: %s  ctx: %s  ns: %s  sort: %s  ",
			dash(m.report.ClusterName), dash(m.report.Context), ns, m.sortBy),
	) + strings.Join(tabs, " ")

	status := ""
	switch {
	case m.refreshing:
		status = styles.Faint.Render("refreshing…")
	case m.err != nil:
		status = styles.Danger.Render("refresh failed: " + m.err.Error())
	case !m.report.MetricsAvailable:
		status = styles.Warn.Render("metrics API unavailable: usage columns are empty")
	}

	body := lipgloss.NewStyle().Padding(0, 1).Render(m.table.View())

	info := ""
	if m.infoOpen {
		info = styles.Box.Width(max(m.width-2, 20)).Render(m.renderInfo())
	}

	footer := styles.Footer.Render("↑/↓ move • [Tab] nodes/pods • [n] namespace • [s] sort • [i] info • [r] refresh • [q] quit")

	parts := []string{head}
	if status != "" {
		parts = append(parts, status)
	}
	parts = append(parts, body, info, footer)
	main := lipgloss.JoinVertical(lipgloss.Left, parts...)

	if m.nsPickerOpen {
		box := styles.Box.
			BorderForeground(lipgloss.Color("#7DCE13")).
			Width(40).Height(14)
		title := styles.Title.Render(" Filter Namespace (↑/↓, Enter, Esc) ")
		content := lipgloss.JoinVertical(lipgloss.Left, title, m.nsTable.View())
		overlay := lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box.Render(content))
		return main + "\n" + overlay
	}
	return main
}

func (m Model) renderInfo() string {
	switch m.view {
	case ViewPods:
		if len(m.pods) == 0 {
			return "No pods"
		}
		p := m.pods[m.currentSelection()%len(m.pods)]

		image, status := "-", "ready"
		if p.Container != nil {
			image = p.Container.Image
		}
		if !p.Ready {
			status = "not ready"
		}
		if p.Pending != nil {
			status = fmt.Sprintf("pending: %s %s", dash(p.Pending.Reason), p.Pending.Message)
		}
		mem, cpu := "-", "-"
		if p.MemoryUsageBytes != nil {
			mem = units.FormatMB(*p.MemoryUsageBytes)
		}
		if p.CPUUsageMillis != nil {
			cpu = fmt.Sprintf("%dm", *p.CPUUsageMillis)
		}
		return fmt.Sprintf(
			"Pod: %s  ns: %s  node: %s  ip: %s\nImage: %s\nStatus: %s  Age: %s\nUsage: mem=%s cpu=%s",
			p.Name, p.Namespace, dash(p.NodeName), dash(p.PodIP),
			image,
			status, p.Age,
			mem, cpu,
		)

	case ViewNodes:
		if len(m.nodes) == 0 {
			return "No nodes"
		}
		n := m.nodes[m.currentSelection()%len(m.nodes)]

		usage := "no usage sample"
		if pct, ok := report.MemoryUsagePercent(n); ok {
			usage = fmt.Sprintf("%s of %s (%d%%) %s",
				units.FormatGB(*n.MemoryUsageBytes), units.FormatGB(n.MemoryCapacityBytes),
				pct, widgets.Bar(float64(pct)/100, 20))
		}
		cpu := "-"
		if n.CPUUsageMillis != nil {
			cpu = fmt.Sprintf("%dm of %s cores", *n.CPUUsageMillis, dash(n.CPUCapacity))
		}
		return fmt.Sprintf(
			"Node: %s  pool: %s  type: %s\nOS: %s (%s)  kubelet: %s  Age: %s\nMemory: %s\nCPU: %s",
			n.Name, dash(n.AgentPool), dash(n.InstanceType),
			dash(n.OSImage), dash(n.Architecture), dash(n.KubeletVersion), n.Age,
			usage,
			cpu,
		)
	default:
		return ""
	}
}

func filterPods(pods []domain.Pod, ns string) []domain.Pod {
	out := make([]domain.Pod, 0, len(pods))
	for _, p := range pods {
		if ns == "" || p.Namespace == ns {
			out = append(out, p)
		}
	}
	return out
}

// sortedPods orders by namespace/name, or by memory descending with
// unknown usage last.
func sortedPods(pods []domain.Pod, by string) []domain.Pod {
	out := append([]domain.Pod(nil), pods...)
	sort.SliceStable(out, func(i, j int) bool {
		if by == sortMem {
			if less, decided := memDesc(out[i].MemoryUsageBytes, out[j].MemoryUsageBytes); decided {
				return less
			}
		}
		if out[i].Namespace != out[j].Namespace {
			return out[i].Namespace < out[j].Namespace
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func sortedNodes(nodes []domain.Node, by string) []domain.Node {
	out := append([]domain.Node(nil), nodes...)
	sort.SliceStable(out, func(i, j int) bool {
		if by == sortMem {
			if less, decided := memDesc(out[i].MemoryUsageBytes, out[j].MemoryUsageBytes); decided {
				return less
			}
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func memDesc(a, b *int64) (less, decided bool) {
	switch {
	case a == nil && b == nil:
		return false, false
	case a == nil:
		return false, true
	case b == nil:
		return true, true
	case *a == *b:
		return false, false
	}
	return *a > *b, true
}

func readyMark(ok bool) string {
	if ok {
		return "yes"
	}
	return "no"
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
