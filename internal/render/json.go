package render

import (
	"encoding/json"
	"io"

	"github.com/nethalo/dbmigrate/internal/classify"
	"github.com/nethalo/dbmigrate/internal/migrate"
	"github.com/nethalo/dbmigrate/internal/mysqlconn"
	"github.com/nethalo/dbmigrate/internal/topology"
)

// JSONPlanRenderer produces machine-readable JSON for a classification plan.
type JSONPlanRenderer struct {
	w io.Writer
}

type jsonPlanOutput struct {
	Statement      string   `json:"statement"`
	Database       string   `json:"database"`
	Table          string   `json:"table"`
	Operation      string   `json:"operation"`
	Algorithm      string   `json:"algorithm"`
	Lock           string   `json:"lock"`
	RebuildsTable  bool     `json:"rebuilds_table"`
	Recommendation string   `json:"recommendation"`
	Reason         string   `json:"reason"`
	Warnings       []string `json:"warnings,omitempty"`
}

func (r *JSONPlanRenderer) RenderPlan(plan *classify.Plan) {
	out := jsonPlanOutput{
		Statement:      plan.Statement,
		Database:       plan.Database,
		Table:          plan.Table,
		Operation:      string(plan.Operation),
		Algorithm:      string(plan.Classification.Algorithm),
		Lock:           string(plan.Classification.Lock),
		RebuildsTable:  plan.Classification.RebuildsTable,
		Recommendation: string(plan.Recommendation),
		Reason:         plan.Reason,
		Warnings:       plan.Warnings,
	}
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	enc.Encode(out)
}

func (r *JSONPlanRenderer) RenderTopology(conn mysqlconn.ConnectionConfig, topo *topology.Info) {
	out := map[string]interface{}{
		"host":      conn.Host,
		"port":      conn.Port,
		"version":   topo.Version.String(),
		"topology":  string(topo.Type),
		"read_only": topo.ReadOnly,
	}

	switch topo.Type {
	case topology.Galera:
		out["cluster_size"] = topo.GaleraClusterSize
		out["node_state"] = topo.GaleraNodeState
		out["osu_method"] = topo.GaleraOSUMethod
		out["wsrep_max_ws_size"] = topo.WsrepMaxWsSize
		out["flow_control_paused"] = topo.FlowControlPausedPct
	case topology.GroupRepl:
		out["gr_mode"] = topo.GRMode
		out["member_count"] = topo.GRMemberCount
		out["member_role"] = topo.GRMemberRole
	}

	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	enc.Encode(out)
}

// JSONReporter renders a migrate.Runner's phase transitions, chunk
// progress, and terminal report as newline-delimited JSON objects — one per
// event — suitable for a log collector or a scripted caller.
type JSONReporter struct {
	w io.Writer
}

type jsonEvent struct {
	Event  string          `json:"event"`
	Table  string          `json:"table"`
	Phase  string          `json:"phase,omitempty"`
	Copied int64           `json:"copied,omitempty"`
	Total  int64           `json:"total,omitempty"`
	Report *migrate.Report `json:"report,omitempty"`
	Error  string          `json:"error,omitempty"`
}

func (r *JSONReporter) encode(ev jsonEvent) {
	enc := json.NewEncoder(r.w)
	enc.Encode(ev)
}

func (r *JSONReporter) Phase(table string, phase migrate.Phase) {
	r.encode(jsonEvent{Event: "phase", Table: table, Phase: string(phase)})
}

func (r *JSONReporter) Progress(table string, copied, total int64) {
	r.encode(jsonEvent{Event: "progress", Table: table, Copied: copied, Total: total})
}

func (r *JSONReporter) Done(table string, report *migrate.Report, err error) {
	ev := jsonEvent{Event: "done", Table: table, Report: report}
	if err != nil {
		ev.Error = err.Error()
	}
	r.encode(ev)
}
