package mysqlconn

import (
	"context"
	"database/sql"
	"fmt"
)

// Table binds a single checked-out *sql.Conn to one schema-qualified table
// name. It is the adapter contract the migrate engine's Migration callback
// receives, and the handle every engine-issued statement flows through so
// that Annotation is applied uniformly.
type Table struct {
	conn     *sql.Conn
	database string
	name     string
}

// NewTable binds conn to database.name. conn is not closed by Table; the
// caller owns its lifetime.
func NewTable(conn *sql.Conn, database, name string) *Table {
	return &Table{conn: conn, database: database, name: name}
}

// Name returns the bare table name (no schema qualifier).
func (t *Table) Name() string { return t.name }

// Database returns the schema the table lives in.
func (t *Table) Database() string { return t.database }

// Ident returns the backtick-quoted, schema-qualified identifier.
func (t *Table) Ident() string {
	return fmt.Sprintf("%s.%s", QuoteIdent(t.database), QuoteIdent(t.name))
}

// Exec runs a statement against the bound connection with Annotation
// prepended.
func (t *Table) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return t.conn.ExecContext(ctx, Annotation+" "+query, args...)
}

// Query runs a query against the bound connection with Annotation prepended.
func (t *Table) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return t.conn.QueryContext(ctx, Annotation+" "+query, args...)
}

// QueryRow runs a single-row query against the bound connection with
// Annotation prepended.
func (t *Table) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return t.conn.QueryRowContext(ctx, Annotation+" "+query, args...)
}

// Columns returns the ordered list of columns currently declared on the
// table. It always reflects live catalog state, so callers should re-read it
// after mutating the table's shape.
func (t *Table) Columns(ctx context.Context) ([]Column, error) {
	rows, err := t.conn.QueryContext(ctx, `
		SELECT COLUMN_NAME, DATA_TYPE, IS_NULLABLE
		FROM information_schema.COLUMNS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION
	`, t.database, t.name)
	if err != nil {
		return nil, fmt.Errorf("querying columns of %s: %w", t.Ident(), err)
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var c Column
		var nullable string
		if err := rows.Scan(&c.Name, &c.DataType, &nullable); err != nil {
			return nil, err
		}
		c.Nullable = nullable == "YES"
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

// PrimaryKey returns the table's single-column integer primary key, or
// ErrCompositePK / ErrNoIntegerPK.
func (t *Table) PrimaryKey(ctx context.Context) (Column, error) {
	rows, err := t.conn.QueryContext(ctx, `
		SELECT COLUMN_NAME, DATA_TYPE, IS_NULLABLE
		FROM information_schema.COLUMNS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ? AND COLUMN_KEY = 'PRI'
		ORDER BY ORDINAL_POSITION
	`, t.database, t.name)
	if err != nil {
		return Column{}, fmt.Errorf("querying primary key of %s: %w", t.Ident(), err)
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var c Column
		var nullable string
		if err := rows.Scan(&c.Name, &c.DataType, &nullable); err != nil {
			return Column{}, err
		}
		c.Nullable = nullable == "YES"
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return Column{}, err
	}

	switch {
	case len(cols) == 0:
		return Column{}, ErrNoIntegerPK
	case len(cols) > 1:
		return Column{}, ErrCompositePK
	case !isIntegerType(cols[0].DataType):
		return Column{}, ErrNoIntegerPK
	default:
		return cols[0], nil
	}
}

// Exists reports whether the table is present in the catalog.
func (t *Table) Exists(ctx context.Context) (bool, error) {
	var n int
	err := t.conn.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM information_schema.TABLES
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
	`, t.database, t.name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking existence of %s: %w", t.Ident(), err)
	}
	return n > 0, nil
}

// SetSessionLockWaitTimeouts sets the bound session's lock-wait timeouts so
// the engine's own retry/backoff can fire before the server's global
// timeouts surface as a hard error.
func (t *Table) SetSessionLockWaitTimeouts(ctx context.Context, seconds int) error {
	_, err := t.conn.ExecContext(ctx, fmt.Sprintf(
		"%s SET SESSION innodb_lock_wait_timeout = %d, SESSION lock_wait_timeout = %d",
		Annotation, seconds, seconds,
	))
	return err
}

// Conn returns the underlying connection, for callers that must issue
// statements outside the table's own identity,
// e.g. RENAME TABLE against a second table name on the same session.
func (t *Table) Conn() *sql.Conn { return t.conn }
