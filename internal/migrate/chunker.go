package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/nethalo/dbmigrate/internal/mysqlconn"
)

// ChunkerConfig controls the back-fill loop.
type ChunkerConfig struct {
	// Stride is the maximum number of rows copied per chunk.
	Stride int
	// Throttle is the sleep between chunks, to yield database load.
	Throttle time.Duration
	// StartID/EndID pin the PK range to copy. Nil means "compute from
	// MIN(pk)/MAX(pk) at run start".
	StartID *int64
	EndID   *int64
}

func (c ChunkerConfig) withDefaults() ChunkerConfig {
	if c.Stride <= 0 {
		c.Stride = 2000
	}
	if c.Throttle == 0 {
		c.Throttle = 100 * time.Millisecond
	}
	return c
}

// Chunker back-fills rows that existed in the origin before the entangler's
// triggers were installed, in bounded, non-overlapping primary-key ranges.
type Chunker struct {
	origin   *mysqlconn.Table
	shadow   *mysqlconn.Table
	columns  []string
	pk       string
	cfg      ChunkerConfig
	reporter Reporter
}

// NewChunker builds a Chunker over the frozen column intersection.
func NewChunker(origin, shadow *mysqlconn.Table, columns []string, pk string, cfg ChunkerConfig, reporter Reporter) *Chunker {
	if reporter == nil {
		reporter = nopReporter{}
	}
	return &Chunker{origin: origin, shadow: shadow, columns: columns, pk: pk, cfg: cfg.withDefaults(), reporter: reporter}
}

// Run copies rows in the range [start, end] (frozen at call time unless
// pinned via ChunkerConfig) from origin into shadow, INSERT IGNORE per
// chunk so that rows already mirrored in by a live trigger are never
// clobbered by a stale chunk read.
func (c *Chunker) Run(ctx context.Context) (int64, error) {
	lo, hi, err := c.bounds(ctx)
	if err != nil {
		return 0, wrapErr(c.origin.Name(), PhaseChunk, err)
	}
	if lo == nil {
		return 0, nil // empty table: nothing to back-fill
	}

	total := *hi - *lo + 1
	base := *lo
	cur := *lo
	var copied int64

	for cur <= *hi {
		chunkHi := cur + int64(c.cfg.Stride) - 1
		if chunkHi > *hi {
			chunkHi = *hi
		}

		n, err := c.copyRange(ctx, cur, chunkHi)
		if err != nil {
			return copied, wrapErr(c.origin.Name(), PhaseChunk, fmt.Errorf("copying range [%d,%d]: %w", cur, chunkHi, err))
		}
		copied += n
		c.reporter.Progress(c.origin.Name(), chunkHi-base+1, total)

		if chunkHi == *hi {
			break
		}
		cur = chunkHi + 1

		select {
		case <-ctx.Done():
			return copied, wrapErr(c.origin.Name(), PhaseChunk, ctx.Err())
		case <-time.After(c.cfg.Throttle):
		}
	}
	return copied, nil
}

// bounds resolves the [start, end] PK range for this run, defaulting to
// MIN(pk)/MAX(pk) computed once, up front.
func (c *Chunker) bounds(ctx context.Context) (*int64, *int64, error) {
	if c.cfg.StartID != nil && c.cfg.EndID != nil {
		lo, hi := *c.cfg.StartID, *c.cfg.EndID
		return &lo, &hi, nil
	}

	pk := mysqlconn.QuoteIdent(c.pk)
	var minID, maxID sql.NullInt64
	query := fmt.Sprintf("SELECT MIN(%s), MAX(%s) FROM %s", pk, pk, c.origin.Ident())
	if err := c.origin.QueryRow(ctx, query).Scan(&minID, &maxID); err != nil {
		return nil, nil, fmt.Errorf("computing primary key range: %w", err)
	}
	if !minID.Valid || !maxID.Valid {
		return nil, nil, nil
	}

	lo, hi := minID.Int64, maxID.Int64
	if c.cfg.StartID != nil {
		lo = *c.cfg.StartID
	}
	if c.cfg.EndID != nil {
		hi = *c.cfg.EndID
	}
	return &lo, &hi, nil
}

func (c *Chunker) copyRange(ctx context.Context, lo, hi int64) (int64, error) {
	cols := make([]string, len(c.columns))
	for i, col := range c.columns {
		cols[i] = mysqlconn.QuoteIdent(col)
	}
	colList := strings.Join(cols, ", ")
	pk := mysqlconn.QuoteIdent(c.pk)

	query := fmt.Sprintf(
		"INSERT IGNORE INTO %s (%s) SELECT %s FROM %s WHERE %s BETWEEN ? AND ?",
		c.shadow.Ident(), colList, colList, c.origin.Ident(), pk,
	)
	res, err := c.origin.Exec(ctx, query, lo, hi)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
