// Package classify decides, for a single DDL statement against a connected
// server, whether MySQL can run it directly or whether it needs the
// migrate engine's shadow-table pipeline. It reuses the version/lock matrix
// that used to back a broader external-tool advisor, narrowed to the one
// question this module's engine needs answered.
package classify

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nethalo/dbmigrate/internal/mysqlconn"
	"github.com/nethalo/dbmigrate/internal/parser"
	"github.com/nethalo/dbmigrate/internal/topology"
)

// Recommendation is the binary verdict a Plan settles on.
type Recommendation string

const (
	RecommendDirect  Recommendation = "direct-alter"
	RecommendMigrate Recommendation = "use-migrate-engine"
)

// Plan is the classification result for one DDL statement against the
// server a Planner is bound to.
type Plan struct {
	Statement      string
	Database       string
	Table          string
	Operation      parser.DDLOperation
	Classification DDLClassification
	Recommendation Recommendation
	Reason         string
	Warnings       []string
}

// Planner classifies caller-supplied DDL against a live server's version
// and topology.
type Planner struct {
	db      *sql.DB
	dialect *mysqlconn.Dialect
}

// NewPlanner binds a Planner to a connection pool.
func NewPlanner(db *sql.DB) *Planner {
	return &Planner{db: db, dialect: mysqlconn.NewDialect(db)}
}

// Plan parses stmt, classifies it against the connected server's version,
// and recommends a direct ALTER TABLE or a run through the migrate engine.
// Warnings surface topology or schema conditions worth the caller's
// attention regardless of which path they take.
func (p *Planner) Plan(ctx context.Context, stmt string) (*Plan, error) {
	parsed, err := parser.Parse(stmt)
	if err != nil {
		return nil, fmt.Errorf("parsing statement: %w", err)
	}
	if parsed.Type != parser.DDL {
		return nil, fmt.Errorf("classify: %q is not a DDL statement", stmt)
	}

	version, err := p.dialect.Version(ctx)
	if err != nil {
		return nil, fmt.Errorf("detecting server version: %w", err)
	}
	classification := ClassifyDDLWithContext(parsed, version.Major, version.Minor, version.EffectivePatch())

	plan := &Plan{
		Statement:      stmt,
		Database:       parsed.Database,
		Table:          parsed.Table,
		Operation:      parsed.DDLOp,
		Classification: classification,
	}

	if parsed.Database != "" && parsed.Table != "" {
		if _, err := p.dialect.PrimaryKey(ctx, parsed.Database, parsed.Table); err != nil {
			if errors.Is(err, mysqlconn.ErrCompositePK) || errors.Is(err, mysqlconn.ErrNoIntegerPK) {
				plan.Warnings = append(plan.Warnings,
					"table has no single-column integer primary key: the migrate engine's chunker cannot back-fill it, a direct ALTER is the only option")
			}
		}
	}

	topo, err := topology.Detect(p.db)
	if err != nil {
		return nil, fmt.Errorf("detecting topology: %w", err)
	}
	if topo.ReadOnly || topo.SuperReadOnly {
		plan.Warnings = append(plan.Warnings, "target is read-only (read_only or super_read_only is ON): neither path can write here")
	}
	if topo.Type == topology.Galera {
		plan.Warnings = append(plan.Warnings, "Galera/PXC cluster detected: routing through the migrate engine forces its locked cutover, not an atomic RENAME")
	}

	plan.Recommendation, plan.Reason = recommend(parsed.DDLOp, classification)
	return plan, nil
}

func recommend(op parser.DDLOperation, c DDLClassification) (Recommendation, string) {
	if c.RebuildsTable && c.Lock != LockNone {
		return RecommendMigrate, fmt.Sprintf(
			"%s requires %s with a %s lock: writes block for the duration of a full table rebuild",
			op, c.Algorithm, c.Lock)
	}
	if c.RebuildsTable {
		return RecommendDirect, fmt.Sprintf(
			"%s rebuilds the table but with lock %s: concurrent DML is not blocked, safe to run directly",
			op, c.Lock)
	}
	return RecommendDirect, fmt.Sprintf("%s is %s with no table rebuild", op, c.Algorithm)
}
