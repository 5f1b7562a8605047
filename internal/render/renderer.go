package render

import (
	"io"

	"github.com/nethalo/dbmigrate/internal/classify"
	"github.com/nethalo/dbmigrate/internal/migrate"
	"github.com/nethalo/dbmigrate/internal/mysqlconn"
	"github.com/nethalo/dbmigrate/internal/topology"
)

// PlanRenderer renders a classify.Plan and connection topology info for the
// plan command. Unlike a Reporter it renders once, not incrementally.
type PlanRenderer interface {
	RenderPlan(plan *classify.Plan)
	RenderTopology(conn mysqlconn.ConnectionConfig, topo *topology.Info)
}

// NewPlanRenderer selects a PlanRenderer by format name. Unknown or empty
// formats fall back to text.
func NewPlanRenderer(format string, w io.Writer) PlanRenderer {
	switch format {
	case "json":
		return &JSONPlanRenderer{w: w}
	default:
		return &TextPlanRenderer{w: w}
	}
}

// NewReporter selects a migrate.Reporter by format name for streaming a
// run's phase transitions and chunk progress to a terminal or a log
// collector. Unknown or empty formats fall back to text.
func NewReporter(format string, w io.Writer) migrate.Reporter {
	switch format {
	case "json":
		return &JSONReporter{w: w}
	default:
		return &TextReporter{w: w}
	}
}
