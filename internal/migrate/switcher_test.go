package migrate

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	mysqldriver "github.com/go-sql-driver/mysql"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func TestAtomicSwitcher_ArchiveNameFromClock(t *testing.T) {
	origin, shadow, mock, cleanup := newMockTables(t)
	defer cleanup()

	clock := fixedClock{t: time.Date(2026, 3, 5, 12, 30, 0, 0, time.UTC)}
	mock.ExpectExec("RENAME TABLE `testdb`\\.`orders` TO `testdb`\\.`dmg_archive_2026_03_05_12_30_00_orders`, `testdb`\\.`orders_new` TO `testdb`\\.`orders`").
		WillReturnResult(sqlmock.NewResult(0, 0))

	s := NewAtomicSwitcher(origin, shadow, "dmg_archive", time.Millisecond, 5, clock, nil)
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := "dmg_archive_2026_03_05_12_30_00_orders"
	if s.ArchiveName != want {
		t.Errorf("ArchiveName = %q, want %q", s.ArchiveName, want)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestAtomicSwitcher_RetriesOnLockWaitTimeout(t *testing.T) {
	origin, shadow, mock, cleanup := newMockTables(t)
	defer cleanup()

	lockErr := &mysqldriver.MySQLError{Number: 1205, Message: "Lock wait timeout exceeded"}
	mock.ExpectExec("RENAME TABLE").WillReturnError(lockErr)
	mock.ExpectExec("RENAME TABLE").WillReturnError(lockErr)
	mock.ExpectExec("RENAME TABLE").WillReturnResult(sqlmock.NewResult(0, 0))

	s := NewAtomicSwitcher(origin, shadow, "dmg_archive", time.Millisecond, 5, realClock{}, nil)
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v, want nil after retries succeed", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestAtomicSwitcher_GivesUpAfterMaxRetries(t *testing.T) {
	origin, shadow, mock, cleanup := newMockTables(t)
	defer cleanup()

	lockErr := &mysqldriver.MySQLError{Number: 1205, Message: "Lock wait timeout exceeded"}
	for i := 0; i < 3; i++ {
		mock.ExpectExec("RENAME TABLE").WillReturnError(lockErr)
	}

	s := NewAtomicSwitcher(origin, shadow, "dmg_archive", time.Millisecond, 2, realClock{}, nil)
	err := s.Run(context.Background())
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
}

func TestAtomicSwitcher_NonRetryableErrorFailsImmediately(t *testing.T) {
	origin, shadow, mock, cleanup := newMockTables(t)
	defer cleanup()

	syntaxErr := &mysqldriver.MySQLError{Number: 1064, Message: "syntax error"}
	mock.ExpectExec("RENAME TABLE").WillReturnError(syntaxErr)

	s := NewAtomicSwitcher(origin, shadow, "dmg_archive", time.Millisecond, 600, realClock{}, nil)
	err := s.Run(context.Background())
	if err == nil {
		t.Fatal("expected immediate failure for non-lock-wait error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestLockedSwitcher_RunsFullSequence(t *testing.T) {
	origin, shadow, mock, cleanup := newMockTables(t)
	defer cleanup()

	clock := fixedClock{t: time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)}
	archive := "dmg_archive_2026_03_05_00_00_00_orders"

	mock.ExpectExec("LOCK TABLES `testdb`\\.`orders` WRITE, `testdb`\\.`orders_new` WRITE").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("ALTER TABLE `testdb`\\.`orders` RENAME TO `testdb`\\.`" + archive + "`").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("ALTER TABLE `testdb`\\.`orders_new` RENAME TO `testdb`\\.`orders`").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("UNLOCK TABLES").WillReturnResult(sqlmock.NewResult(0, 0))

	s := NewLockedSwitcher(origin, shadow, "dmg_archive", clock, nil)
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestLockedSwitcher_RecoversOnSecondRenameFailure(t *testing.T) {
	origin, shadow, mock, cleanup := newMockTables(t)
	defer cleanup()

	clock := fixedClock{t: time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)}
	archive := "dmg_archive_2026_03_05_00_00_00_orders"

	mock.ExpectExec("LOCK TABLES").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("ALTER TABLE `testdb`\\.`orders` RENAME TO `testdb`\\.`" + archive + "`").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("ALTER TABLE `testdb`\\.`orders_new` RENAME TO `testdb`\\.`orders`").
		WillReturnError(&mysqldriver.MySQLError{Number: 1050, Message: "table exists"})
	mock.ExpectExec("ALTER TABLE `testdb`\\.`" + archive + "` RENAME TO `testdb`\\.`orders`").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("UNLOCK TABLES").WillReturnResult(sqlmock.NewResult(0, 0))

	s := NewLockedSwitcher(origin, shadow, "dmg_archive", clock, nil)
	err := s.Run(context.Background())
	if err == nil {
		t.Fatal("expected error surfaced even though recovery succeeded")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
