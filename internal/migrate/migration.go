package migrate

import (
	"context"

	"github.com/nethalo/dbmigrate/internal/mysqlconn"
)

// Migration mutates the shadow table into its target shape. It receives the
// shadow handle directly rather than a DSL: callers issue whatever DDL they
// need via shadow.Exec.
type Migration func(ctx context.Context, shadow *mysqlconn.Table) error

// Reporter observes a run's progress. Implementations must be safe to call
// from the goroutine driving Run (the engine itself is single-threaded, so
// no concurrent calls occur, but implementations should not block the run
// for long).
type Reporter interface {
	// Phase announces entry into a new stage of the run.
	Phase(table string, phase Phase)
	// Progress reports chunker back-fill progress as positions in the
	// primary-key range: how many key values from the range start have been
	// covered so far, and the width of the whole range (max - min + 1).
	// Gaps in the key sequence make these differ from row counts.
	Progress(table string, copied, total int64)
	// Done announces the run's terminal outcome. err is nil on success.
	Done(table string, report *Report, err error)
}

// nopReporter discards all events; the Runner's default until SetReporter
// is called.
type nopReporter struct{}

func (nopReporter) Phase(string, Phase)             {}
func (nopReporter) Progress(string, int64, int64)   {}
func (nopReporter) Done(string, *Report, error)     {}

// Report summarizes a completed (or aborted) run.
type Report struct {
	Origin       string
	Shadow       string
	Archive      string
	RowsCopied   int64
	UsedAtomic   bool
	Warnings     []string
}
