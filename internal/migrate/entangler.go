package migrate

import (
	"context"
	"fmt"
	"strings"

	"github.com/nethalo/dbmigrate/internal/mysqlconn"
)

// Entangler brackets an inner operation with triggers that mirror writes to
// the origin table into the shadow table for the frozen column
// intersection. Installation and teardown are idempotent: stale triggers
// from a previously aborted run are dropped before being reinstalled.
type Entangler struct {
	origin   *mysqlconn.Table
	shadow   *mysqlconn.Table
	columns  []string // intersection, origin order, unquoted
	pk       string   // unquoted primary key column name
	reporter Reporter
}

// NewEntangler builds an Entangler over the frozen column intersection and
// primary key column shared by origin and shadow.
func NewEntangler(origin, shadow *mysqlconn.Table, columns []string, pk string, reporter Reporter) *Entangler {
	return &Entangler{origin: origin, shadow: shadow, columns: columns, pk: pk, reporter: reporter}
}

func (e *Entangler) triggerNames() [3]string {
	return [3]string{
		"dmg_ins_" + e.origin.Name(),
		"dmg_upd_" + e.origin.Name(),
		"dmg_del_" + e.origin.Name(),
	}
}

// Run installs the three triggers, invokes inner, and guarantees teardown
// of every trigger it installed regardless of how inner returns. The error
// returned is always inner's, never a teardown failure.
func (e *Entangler) Run(ctx context.Context, inner func() error) error {
	names := e.triggerNames()
	installed := make([]string, 0, 3)

	ddls := []string{
		e.insertTriggerDDL(names[0]),
		e.updateTriggerDDL(names[1]),
		e.deleteTriggerDDL(names[2]),
	}

	for i, ddl := range ddls {
		if err := e.dropTrigger(ctx, names[i]); err != nil {
			e.unwind(ctx, installed)
			return wrapErr(e.origin.Name(), PhaseEntangle, fmt.Errorf("dropping stale trigger %s: %w", names[i], err))
		}
		if _, err := e.origin.Exec(ctx, ddl); err != nil {
			e.unwind(ctx, installed)
			return wrapErr(e.origin.Name(), PhaseEntangle, fmt.Errorf("installing trigger %s: %w", names[i], err))
		}
		installed = append(installed, names[i])
	}

	var innerErr error
	func() {
		defer e.unwind(ctx, installed)
		innerErr = inner()
	}()
	return innerErr
}

// unwind drops installed triggers in reverse order. The drops run on a
// context detached from ctx's cancellation, so a cancelled run still
// removes its triggers. Teardown failures are swallowed here by design:
// DROP TRIGGER IF EXISTS only fails on a dead connection, and re-raising it
// would mask whatever inner() returned.
func (e *Entangler) unwind(ctx context.Context, names []string) {
	ctx = context.WithoutCancel(ctx)
	e.reporter.Phase(e.origin.Name(), PhaseUntangle)
	for i := len(names) - 1; i >= 0; i-- {
		_ = e.dropTrigger(ctx, names[i])
	}
}

func (e *Entangler) dropTrigger(ctx context.Context, name string) error {
	_, err := e.origin.Exec(ctx, fmt.Sprintf(
		"DROP TRIGGER IF EXISTS %s.%s",
		mysqlconn.QuoteIdent(e.origin.Database()), mysqlconn.QuoteIdent(name),
	))
	return err
}

func (e *Entangler) colList() string {
	quoted := make([]string, len(e.columns))
	for i, c := range e.columns {
		quoted[i] = mysqlconn.QuoteIdent(c)
	}
	return strings.Join(quoted, ", ")
}

func (e *Entangler) newValueList() string {
	quoted := make([]string, len(e.columns))
	for i, c := range e.columns {
		quoted[i] = "NEW." + mysqlconn.QuoteIdent(c)
	}
	return strings.Join(quoted, ", ")
}

func (e *Entangler) insertTriggerDDL(name string) string {
	return fmt.Sprintf(
		"CREATE TRIGGER %s.%s AFTER INSERT ON %s FOR EACH ROW REPLACE INTO %s (%s) VALUES (%s)",
		mysqlconn.QuoteIdent(e.origin.Database()), mysqlconn.QuoteIdent(name),
		e.origin.Ident(), e.shadow.Ident(), e.colList(), e.newValueList(),
	)
}

func (e *Entangler) updateTriggerDDL(name string) string {
	return fmt.Sprintf(
		"CREATE TRIGGER %s.%s AFTER UPDATE ON %s FOR EACH ROW REPLACE INTO %s (%s) VALUES (%s)",
		mysqlconn.QuoteIdent(e.origin.Database()), mysqlconn.QuoteIdent(name),
		e.origin.Ident(), e.shadow.Ident(), e.colList(), e.newValueList(),
	)
}

func (e *Entangler) deleteTriggerDDL(name string) string {
	pk := mysqlconn.QuoteIdent(e.pk)
	return fmt.Sprintf(
		"CREATE TRIGGER %s.%s AFTER DELETE ON %s FOR EACH ROW DELETE IGNORE FROM %s WHERE %s = OLD.%s",
		mysqlconn.QuoteIdent(e.origin.Database()), mysqlconn.QuoteIdent(name),
		e.origin.Ident(), e.shadow.Ident(), pk, pk,
	)
}
