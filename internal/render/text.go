package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/nethalo/dbmigrate/internal/classify"
	"github.com/nethalo/dbmigrate/internal/migrate"
	"github.com/nethalo/dbmigrate/internal/mysqlconn"
	"github.com/nethalo/dbmigrate/internal/topology"
)

// TextPlanRenderer renders a classification plan as Lip Gloss styled
// terminal output.
type TextPlanRenderer struct {
	w io.Writer
}

func (r *TextPlanRenderer) RenderPlan(plan *classify.Plan) {
	width := 60
	fmt.Fprintln(r.w)

	header := TitleStyle.Render(fmt.Sprintf("dbmigrate — %s Classification", plan.Operation))
	metaLines := []string{
		r.labelValue("Statement:", plan.Statement),
		r.labelValue("Table:", fmt.Sprintf("%s.%s", plan.Database, plan.Table)),
		r.labelValue("Algorithm:", r.colorAlgorithm(plan.Classification.Algorithm)),
		r.labelValue("Lock:", string(plan.Classification.Lock)),
		r.labelValue("Rebuilds table:", fmt.Sprintf("%v", plan.Classification.RebuildsTable)),
	}
	metaBox := BoxStyle.Width(width).Render(header + "\n" + strings.Join(metaLines, "\n"))
	fmt.Fprintln(r.w, metaBox)

	for _, w := range plan.Warnings {
		warnBox := WarningBoxStyle.Width(width).Render(
			WarningText.Render(IconWarning+" Warning") + "\n" + w,
		)
		fmt.Fprintln(r.w, warnBox)
	}

	var icon, label string
	var style lipgloss.Style
	switch plan.Recommendation {
	case classify.RecommendDirect:
		icon, label, style = IconSafe, "Run directly.", SafeBoxStyle
	case classify.RecommendMigrate:
		icon, label, style = IconWarning, "Route through the migrate engine.", WarningBoxStyle
	}
	title := TitleStyle.Render("Recommendation")
	content := fmt.Sprintf("%s\n%s %s\n\n%s", title, icon, label, plan.Reason)
	fmt.Fprintln(r.w, style.Width(width).Render(content))
	fmt.Fprintln(r.w)
}

func (r *TextPlanRenderer) RenderTopology(conn mysqlconn.ConnectionConfig, topo *topology.Info) {
	width := 60
	fmt.Fprintln(r.w)

	var lines []string
	addr := fmt.Sprintf("%s:%d", conn.Host, conn.Port)
	if conn.Socket != "" {
		addr = conn.Socket
	}
	lines = append(lines, r.labelValue("Connected to:", addr))
	lines = append(lines, r.labelValue("Server version:", topo.Version.String()))
	lines = append(lines, r.labelValue("Topology:", formatTopoType(topo)))

	switch topo.Type {
	case topology.Galera:
		lines = append(lines, r.labelValue("Cluster size:", fmt.Sprintf("%d nodes", topo.GaleraClusterSize)))
		lines = append(lines, r.labelValue("Node state:", topo.GaleraNodeState))
		lines = append(lines, r.labelValue("wsrep_OSU_method:", topo.GaleraOSUMethod))
		lines = append(lines, r.labelValue("Flow control:", topo.FlowControlPausedPct))
	case topology.GroupRepl:
		lines = append(lines, r.labelValue("Mode:", topo.GRMode))
		lines = append(lines, r.labelValue("Members:", fmt.Sprintf("%d online", topo.GRMemberCount)))
		lines = append(lines, r.labelValue("Role:", topo.GRMemberRole))
	case topology.AsyncReplica, topology.SemiSyncReplica:
		if topo.ReplicaLagSecs != nil {
			lines = append(lines, r.labelValue("Replica lag:", fmt.Sprintf("%d seconds", *topo.ReplicaLagSecs)))
		}
	}
	lines = append(lines, r.labelValue("Read only:", fmt.Sprintf("%v", topo.ReadOnly)))

	title := TitleStyle.Render("dbmigrate — Connection Info")
	box := SafeBoxStyle.Width(width).Render(title + "\n" + strings.Join(lines, "\n"))
	fmt.Fprintln(r.w, box)
	fmt.Fprintln(r.w)
}

func (r *TextPlanRenderer) labelValue(label, value string) string {
	return LabelStyle.Render(label) + " " + ValueStyle.Render(value)
}

func (r *TextPlanRenderer) colorAlgorithm(algo classify.Algorithm) string {
	switch algo {
	case classify.AlgoInstant:
		return SafeText.Render(string(algo))
	case classify.AlgoInplace:
		return WarningText.Render(string(algo))
	case classify.AlgoCopy:
		return DangerText.Render(string(algo))
	default:
		return string(algo)
	}
}

// TextReporter renders a migrate.Runner's phase transitions and chunk
// progress as Lip Gloss styled lines, one per event, suitable for streaming
// to a terminal while a migration is in flight.
type TextReporter struct {
	w io.Writer
}

func (r *TextReporter) Phase(table string, phase migrate.Phase) {
	fmt.Fprintln(r.w, LabelStyle.Render(fmt.Sprintf("[%s]", table)), TitleStyle.Render(string(phase)))
}

func (r *TextReporter) Progress(table string, copied, total int64) {
	pct := 0.0
	if total > 0 {
		pct = float64(copied) / float64(total) * 100
	}
	fmt.Fprintln(r.w, LabelStyle.Render(fmt.Sprintf("[%s]", table)),
		ValueStyle.Render(fmt.Sprintf("copied %s / %s rows (%.1f%%)", formatNumber(copied), formatNumber(total), pct)))
}

func (r *TextReporter) Done(table string, report *migrate.Report, err error) {
	if err != nil {
		fmt.Fprintln(r.w, DangerText.Render(IconDanger+" "+table+" failed: "+err.Error()))
		return
	}
	lines := []string{
		r.labelValue("Origin:", report.Origin),
		r.labelValue("Shadow:", report.Shadow),
		r.labelValue("Rows copied:", formatNumber(report.RowsCopied)),
		r.labelValue("Switch:", switchMethod(report.UsedAtomic)),
	}
	if report.Archive != "" {
		lines = append(lines, r.labelValue("Archived as:", report.Archive))
	}
	title := TitleStyle.Render(IconSafe + " Migration complete")
	fmt.Fprintln(r.w, SafeBoxStyle.Width(60).Render(title+"\n"+strings.Join(lines, "\n")))
	for _, w := range report.Warnings {
		fmt.Fprintln(r.w, WarningBoxStyle.Width(60).Render(WarningText.Render(IconWarning+" Warning")+"\n"+w))
	}
}

func (r *TextReporter) labelValue(label, value string) string {
	return LabelStyle.Render(label) + " " + ValueStyle.Render(value)
}

func switchMethod(atomic bool) string {
	if atomic {
		return "atomic RENAME"
	}
	return "LOCK TABLES + ALTER RENAME"
}

// helpers shared across renderers

func formatTopoType(topo *topology.Info) string {
	switch topo.Type {
	case topology.Galera:
		return fmt.Sprintf("Percona XtraDB Cluster (%d nodes)", topo.GaleraClusterSize)
	case topology.GroupRepl:
		return fmt.Sprintf("Group Replication (%s, %d members)", topo.GRMode, topo.GRMemberCount)
	case topology.AsyncReplica:
		return "Async Replication"
	case topology.SemiSyncReplica:
		return "Semi-sync Replication"
	default:
		return "Standalone"
	}
}

func formatNumber(n int64) string {
	if n >= 1_000_000_000 {
		return fmt.Sprintf("%.0f,000,000,000+", float64(n)/1_000_000_000)
	}
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var result strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			result.WriteRune(',')
		}
		result.WriteRune(c)
	}
	return result.String()
}

func humanBytes(b int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)
	switch {
	case b >= GB:
		return fmt.Sprintf("%.1f GB", float64(b)/float64(GB))
	case b >= MB:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(MB))
	case b >= KB:
		return fmt.Sprintf("%.1f KB", float64(b)/float64(KB))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
