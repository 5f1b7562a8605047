package migrate

import (
	"context"
	"errors"
	"fmt"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"

	"github.com/nethalo/dbmigrate/internal/mysqlconn"
)

// mysqlErrLockWaitTimeout and mysqlErrLockTableFull are the MySQL error
// numbers raised for lock-wait-timeout contention: 1205 is InnoDB's
// "Lock wait timeout exceeded", 1206 is "The total number of locks exceeds
// the lock table size" (also contention-shaped and worth retrying).
const (
	mysqlErrLockWaitTimeout = 1205
	mysqlErrLockTableFull   = 1206
)

// Switcher performs the cutover that makes the shadow table the new origin.
type Switcher interface {
	Run(ctx context.Context) error
}

func archiveName(prefix, origin string, now time.Time) string {
	return fmt.Sprintf("%s_%s_%s", prefix, now.Format("2006_01_02_15_04_05"), origin)
}

func isRetryableLockError(err error) bool {
	var mysqlErr *mysqldriver.MySQLError
	if !errors.As(err, &mysqlErr) {
		return false
	}
	return mysqlErr.Number == mysqlErrLockWaitTimeout || mysqlErr.Number == mysqlErrLockTableFull
}

// AtomicSwitcher performs cutover via a single multi-table RENAME, which
// MySQL executes atomically: application clients see either the old or the
// new mapping, never an intermediate state where neither name resolves.
type AtomicSwitcher struct {
	origin        *mysqlconn.Table
	shadow        *mysqlconn.Table
	archivePrefix string
	retrySleep    time.Duration
	maxRetries    int
	clock         Clock
	reporter      Reporter

	// ArchiveName is set once Run computes it, so callers (and Report) can
	// read back what the origin was renamed to.
	ArchiveName string
}

// NewAtomicSwitcher builds an AtomicSwitcher. retrySleep/maxRetries default
// to 10ms/600 when zero.
func NewAtomicSwitcher(origin, shadow *mysqlconn.Table, archivePrefix string, retrySleep time.Duration, maxRetries int, clock Clock, reporter Reporter) *AtomicSwitcher {
	if retrySleep <= 0 {
		retrySleep = 10 * time.Millisecond
	}
	if maxRetries <= 0 {
		maxRetries = 600
	}
	if clock == nil {
		clock = realClock{}
	}
	if reporter == nil {
		reporter = nopReporter{}
	}
	return &AtomicSwitcher{
		origin: origin, shadow: shadow, archivePrefix: archivePrefix,
		retrySleep: retrySleep, maxRetries: maxRetries, clock: clock, reporter: reporter,
	}
}

func (s *AtomicSwitcher) Run(ctx context.Context) error {
	s.ArchiveName = archiveName(s.archivePrefix, s.origin.Name(), s.clock.Now())
	archiveIdent := fmt.Sprintf("%s.%s", mysqlconn.QuoteIdent(s.origin.Database()), mysqlconn.QuoteIdent(s.ArchiveName))

	query := fmt.Sprintf(
		"RENAME TABLE %s TO %s, %s TO %s",
		s.origin.Ident(), archiveIdent, s.shadow.Ident(), s.origin.Ident(),
	)

	for attempt := 0; ; attempt++ {
		_, err := s.origin.Exec(ctx, query)
		if err == nil {
			return nil
		}
		if !isRetryableLockError(err) || attempt >= s.maxRetries {
			return wrapErr(s.origin.Name(), PhaseSwitch, fmt.Errorf("atomic rename: %w", err))
		}

		select {
		case <-ctx.Done():
			return wrapErr(s.origin.Name(), PhaseSwitch, ctx.Err())
		case <-time.After(s.retrySleep):
		}
	}
}

// LockedSwitcher performs cutover via LOCK TABLES / ALTER RENAME / UNLOCK,
// for servers where a single atomic multi-table RENAME is unsafe (Galera)
// or has been disabled by configuration.
type LockedSwitcher struct {
	origin        *mysqlconn.Table
	shadow        *mysqlconn.Table
	archivePrefix string
	clock         Clock
	reporter      Reporter

	ArchiveName string
}

// NewLockedSwitcher builds a LockedSwitcher.
func NewLockedSwitcher(origin, shadow *mysqlconn.Table, archivePrefix string, clock Clock, reporter Reporter) *LockedSwitcher {
	if clock == nil {
		clock = realClock{}
	}
	if reporter == nil {
		reporter = nopReporter{}
	}
	return &LockedSwitcher{origin: origin, shadow: shadow, archivePrefix: archivePrefix, clock: clock, reporter: reporter}
}

func (s *LockedSwitcher) Run(ctx context.Context) error {
	s.ArchiveName = archiveName(s.archivePrefix, s.origin.Name(), s.clock.Now())
	archiveIdent := fmt.Sprintf("%s.%s", mysqlconn.QuoteIdent(s.origin.Database()), mysqlconn.QuoteIdent(s.ArchiveName))

	lockQuery := fmt.Sprintf("LOCK TABLES %s WRITE, %s WRITE", s.origin.Ident(), s.shadow.Ident())
	if _, err := s.origin.Exec(ctx, lockQuery); err != nil {
		return wrapErr(s.origin.Name(), PhaseSwitch, fmt.Errorf("acquiring table locks: %w", err))
	}
	defer s.origin.Exec(context.WithoutCancel(ctx), "UNLOCK TABLES")

	renameOriginToArchive := fmt.Sprintf("ALTER TABLE %s RENAME TO %s", s.origin.Ident(), archiveIdent)
	if _, err := s.origin.Exec(ctx, renameOriginToArchive); err != nil {
		return wrapErr(s.origin.Name(), PhaseSwitch, fmt.Errorf("renaming origin to archive: %w", err))
	}

	renameShadowToOrigin := fmt.Sprintf("ALTER TABLE %s RENAME TO %s", s.shadow.Ident(), s.origin.Ident())
	if _, err := s.origin.Exec(ctx, renameShadowToOrigin); err != nil {
		recoverQuery := fmt.Sprintf("ALTER TABLE %s RENAME TO %s", archiveIdent, s.origin.Ident())
		if _, recoverErr := s.origin.Exec(ctx, recoverQuery); recoverErr != nil {
			return wrapErr(s.origin.Name(), PhaseSwitch, fmt.Errorf(
				"renaming shadow to origin failed (%v) and recovery rename also failed: %w", err, recoverErr,
			))
		}
		return wrapErr(s.origin.Name(), PhaseSwitch, fmt.Errorf("renaming shadow to origin: %w (origin restored from archive)", err))
	}

	return nil
}
