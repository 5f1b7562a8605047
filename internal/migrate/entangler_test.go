package migrate

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/nethalo/dbmigrate/internal/mysqlconn"
)

func newMockTables(t *testing.T) (*mysqlconn.Table, *mysqlconn.Table, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	conn, err := db.Conn(context.Background())
	if err != nil {
		t.Fatalf("db.Conn() error = %v", err)
	}
	origin := mysqlconn.NewTable(conn, "testdb", "orders")
	shadow := mysqlconn.NewTable(conn, "testdb", "orders_new")
	cleanup := func() {
		conn.Close()
		db.Close()
	}
	return origin, shadow, mock, cleanup
}

func TestEntangler_InstallsAndTearsDownTriggers(t *testing.T) {
	origin, shadow, mock, cleanup := newMockTables(t)
	defer cleanup()

	for _, name := range []string{"dmg_ins_orders", "dmg_upd_orders", "dmg_del_orders"} {
		mock.ExpectExec(regexp.QuoteMeta("DROP TRIGGER IF EXISTS `testdb`.`"+name+"`")).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("CREATE TRIGGER `testdb`\\.`" + name + "`").
			WillReturnResult(sqlmock.NewResult(0, 0))
	}
	for _, name := range []string{"dmg_del_orders", "dmg_upd_orders", "dmg_ins_orders"} {
		mock.ExpectExec(regexp.QuoteMeta("DROP TRIGGER IF EXISTS `testdb`.`"+name+"`")).
			WillReturnResult(sqlmock.NewResult(0, 0))
	}

	e := NewEntangler(origin, shadow, []string{"id", "name"}, "id", nopReporter{})

	innerCalled := false
	err := e.Run(context.Background(), func() error {
		innerCalled = true
		return nil
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !innerCalled {
		t.Error("inner function was not invoked")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestEntangler_ReturnsInnerErrorAfterTeardown(t *testing.T) {
	origin, shadow, mock, cleanup := newMockTables(t)
	defer cleanup()

	mock.MatchExpectationsInOrder(false)
	for _, name := range []string{"dmg_ins_orders", "dmg_upd_orders", "dmg_del_orders"} {
		mock.ExpectExec(regexp.QuoteMeta("DROP TRIGGER IF EXISTS `testdb`.`"+name+"`")).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("CREATE TRIGGER `testdb`\\.`" + name + "`").
			WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectExec(regexp.QuoteMeta("DROP TRIGGER IF EXISTS `testdb`.`dmg_ins_orders`")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DROP TRIGGER IF EXISTS `testdb`.`dmg_upd_orders`")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DROP TRIGGER IF EXISTS `testdb`.`dmg_del_orders`")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	e := NewEntangler(origin, shadow, []string{"id"}, "id", nopReporter{})

	wantErr := errors.New("chunker exploded")
	err := e.Run(context.Background(), func() error {
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Run() error = %v, want %v", err, wantErr)
	}
}

func TestEntangler_AbortsWithoutRunningInnerOnInstallFailure(t *testing.T) {
	origin, shadow, mock, cleanup := newMockTables(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("DROP TRIGGER IF EXISTS `testdb`.`dmg_ins_orders`")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TRIGGER `testdb`\\.`dmg_ins_orders`").
		WillReturnError(errors.New("syntax error"))

	e := NewEntangler(origin, shadow, []string{"id"}, "id", nopReporter{})

	innerCalled := false
	err := e.Run(context.Background(), func() error {
		innerCalled = true
		return nil
	})
	if err == nil {
		t.Fatal("expected error from failed trigger install")
	}
	if innerCalled {
		t.Error("inner function should not run when trigger install fails")
	}
}
