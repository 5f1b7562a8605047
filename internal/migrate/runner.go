package migrate

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nethalo/dbmigrate/internal/mysqlconn"
	"github.com/nethalo/dbmigrate/internal/topology"
)

// Runner is the top-level orchestrator: it wires the shadow-table
// lifecycle, entangler, chunker and switcher into one run against a single
// origin table.
type Runner struct {
	db       *sql.DB
	database string
	origin   string
	cfg      Config
	dialect  *mysqlconn.Dialect
	reporter Reporter
}

// NewRunner builds a Runner. cfg's zero-valued fields fall back to their
// documented defaults.
func NewRunner(db *sql.DB, database, origin string, cfg Config) *Runner {
	return &Runner{
		db:       db,
		database: database,
		origin:   origin,
		cfg:      cfg.withDefaults(),
		dialect:  mysqlconn.NewDialect(db),
		reporter: nopReporter{},
	}
}

// SetReporter installs an observer for phase transitions and chunk
// progress. Passing nil restores the no-op reporter.
func (r *Runner) SetReporter(reporter Reporter) {
	if reporter == nil {
		reporter = nopReporter{}
	}
	r.reporter = reporter
}

func (r *Runner) shadowName() string { return r.origin + r.cfg.TemporaryTableSuffix }

// CreateShadow idempotently creates the shadow table as
// CREATE TABLE shadow LIKE origin, using the given session. It fails with
// ErrShadowExists if the shadow table is already present (I6: at most one
// in-flight migration per origin).
func (r *Runner) CreateShadow(ctx context.Context, conn *sql.Conn) error {
	shadow := r.shadowName()
	exists, err := r.dialect.TableExists(ctx, r.database, shadow)
	if err != nil {
		return wrapErr(r.origin, PhaseShadowCreate, err)
	}
	if exists {
		return wrapErr(r.origin, PhaseShadowCreate, ErrShadowExists)
	}

	originIdent := fmt.Sprintf("%s.%s", mysqlconn.QuoteIdent(r.database), mysqlconn.QuoteIdent(r.origin))
	shadowIdent := fmt.Sprintf("%s.%s", mysqlconn.QuoteIdent(r.database), mysqlconn.QuoteIdent(shadow))
	query := fmt.Sprintf("%s CREATE TABLE %s LIKE %s", mysqlconn.Annotation, shadowIdent, originIdent)
	if _, err := conn.ExecContext(ctx, query); err != nil {
		return wrapErr(r.origin, PhaseShadowCreate, fmt.Errorf("creating shadow table: %w", err))
	}
	return nil
}

// Run performs one migration end to end: create the shadow, run the
// caller's migration callback against it, entangle triggers around a
// chunker back-fill and switcher cutover, and report the outcome.
//
// If Config.DisableEntangler is set, migration runs directly against the
// origin and the rest of the pipeline is skipped, for in-place refactors
// that don't need a shadow copy.
func (r *Runner) Run(ctx context.Context, migration Migration) (*Report, error) {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return nil, wrapErr(r.origin, PhaseShadowCreate, fmt.Errorf("checking out connection: %w", err))
	}
	defer conn.Close()

	origin := mysqlconn.NewTable(conn, r.database, r.origin)

	if r.cfg.DisableEntangler {
		r.reporter.Phase(r.origin, PhaseCallback)
		if cbErr := migration(ctx, origin); cbErr != nil {
			wrapped := wrapErr(r.origin, PhaseCallback, cbErr)
			r.reporter.Done(r.origin, nil, wrapped)
			return nil, wrapped
		}
		report := &Report{Origin: r.origin}
		r.reporter.Done(r.origin, report, nil)
		return report, nil
	}

	report, err := r.runWithShadow(ctx, conn, origin, migration)
	r.reporter.Done(r.origin, report, err)
	return report, err
}

func (r *Runner) runWithShadow(ctx context.Context, conn *sql.Conn, origin *mysqlconn.Table, migration Migration) (*Report, error) {
	version, err := r.dialect.Version(ctx)
	if err != nil {
		return nil, wrapErr(r.origin, PhaseShadowCreate, fmt.Errorf("detecting server version: %w", err))
	}

	useAtomic, warnings, err := r.resolveSwitchMode(version)
	if err != nil {
		return nil, err
	}

	r.reporter.Phase(r.origin, PhaseShadowCreate)
	if err := r.CreateShadow(ctx, conn); err != nil {
		return nil, err
	}
	shadow := mysqlconn.NewTable(conn, r.database, r.shadowName())

	innodbTimeout, sessionTimeout, err := r.dialect.LockWaitTimeouts(ctx)
	if err != nil {
		return nil, wrapErr(r.origin, PhaseShadowCreate, fmt.Errorf("reading lock wait timeouts: %w", err))
	}
	if err := origin.SetSessionLockWaitTimeouts(ctx, sessionTimeoutCap(innodbTimeout, sessionTimeout)); err != nil {
		return nil, wrapErr(r.origin, PhaseShadowCreate, fmt.Errorf("setting session lock wait timeouts: %w", err))
	}

	r.reporter.Phase(r.origin, PhaseCallback)
	if err := migration(ctx, shadow); err != nil {
		return nil, wrapErr(r.origin, PhaseCallback, err)
	}

	originCols, err := origin.Columns(ctx)
	if err != nil {
		return nil, wrapErr(r.origin, PhaseShadowCreate, fmt.Errorf("reading origin columns: %w", err))
	}
	shadowCols, err := shadow.Columns(ctx)
	if err != nil {
		return nil, wrapErr(r.origin, PhaseShadowCreate, fmt.Errorf("reading shadow columns: %w", err))
	}
	intersection := Intersection(columnNames(originCols), columnNames(shadowCols))

	pk, err := origin.PrimaryKey(ctx)
	if err != nil {
		return nil, wrapErr(r.origin, PhaseShadowCreate, err)
	}

	chunker := NewChunker(origin, shadow, intersection, pk.Name,
		ChunkerConfig{Stride: r.cfg.Stride, Throttle: r.cfg.Throttle}, r.reporter)

	var switcher Switcher
	if useAtomic {
		switcher = NewAtomicSwitcher(origin, shadow, r.cfg.ArchivePrefix, r.cfg.RetrySleep, r.cfg.MaxRetries, r.cfg.Clock, r.reporter)
	} else {
		switcher = NewLockedSwitcher(origin, shadow, r.cfg.ArchivePrefix, r.cfg.Clock, r.reporter)
	}

	entangler := NewEntangler(origin, shadow, intersection, pk.Name, r.reporter)

	var rowsCopied int64
	r.reporter.Phase(r.origin, PhaseEntangle)
	runErr := entangler.Run(ctx, func() error {
		r.reporter.Phase(r.origin, PhaseChunk)
		n, err := chunker.Run(ctx)
		rowsCopied = n
		if err != nil {
			return err
		}
		r.reporter.Phase(r.origin, PhaseSwitch)
		return switcher.Run(ctx)
	})
	if runErr != nil {
		return nil, runErr
	}

	report := &Report{
		Origin:     r.origin,
		Shadow:     r.shadowName(),
		RowsCopied: rowsCopied,
		UsedAtomic: useAtomic,
		Warnings:   warnings,
	}
	switch s := switcher.(type) {
	case *AtomicSwitcher:
		report.Archive = s.ArchiveName
	case *LockedSwitcher:
		report.Archive = s.ArchiveName
	}
	return report, nil
}

// resolveSwitchMode decides atomic vs. locked cutover and collects any
// cluster-topology warnings worth surfacing in the final report. Galera
// forces the locked switcher (a multi-table RENAME there is TOI-serialized
// cluster-wide and can stall behind flow control); any target with read_only
// or super_read_only ON is rejected outright since it cannot accept writes.
// Aurora only draws a warning.
func (r *Runner) resolveSwitchMode(version mysqlconn.ServerVersion) (bool, []string, error) {
	var warnings []string

	topo, err := topology.Detect(r.db)
	if err != nil {
		return false, nil, wrapErr(r.origin, PhaseShadowCreate, fmt.Errorf("detecting topology: %w", err))
	}

	if topo.ReadOnly || topo.SuperReadOnly {
		return false, nil, wrapErr(r.origin, PhaseShadowCreate, fmt.Errorf("target is read-only (read_only or super_read_only is ON); migrations must run against a writable primary"))
	}

	if r.cfg.AtomicSwitch != nil {
		if *r.cfg.AtomicSwitch && topo.Type == topology.Galera {
			warnings = append(warnings, "AtomicSwitch was forced true on a Galera/PXC node; a multi-table RENAME there can stall behind flow control")
		}
		return *r.cfg.AtomicSwitch, warnings, nil
	}

	if topo.Type == topology.Galera {
		warnings = append(warnings, "Galera/PXC cluster detected: using the locked cutover, not a single atomic RENAME")
		return false, warnings, nil
	}

	if version.IsAurora() {
		warnings = append(warnings, "Aurora MySQL detected: atomic rename support is assumed, not queried, since Aurora reports MySQL 8.0 compatibility")
	}

	return r.dialect.SupportsAtomicSwitch(version), warnings, nil
}

// sessionTimeoutCap picks a session-level lock-wait timeout comfortably
// below the server's global values, so the engine's own retry/backoff can
// react before the server surfaces a hard timeout error.
func sessionTimeoutCap(innodbGlobal, sessionGlobal int) int {
	capped := innodbGlobal
	if sessionGlobal < capped {
		capped = sessionGlobal
	}
	capped -= 2
	if capped > 100 {
		capped = 100
	}
	if capped < 1 {
		capped = 1
	}
	return capped
}

func columnNames(cols []mysqlconn.Column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}
