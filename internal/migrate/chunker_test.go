package migrate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestChunker_CopiesRangesInStride(t *testing.T) {
	origin, shadow, mock, cleanup := newMockTables(t)
	defer cleanup()

	mock.ExpectQuery("SELECT MIN\\(`id`\\), MAX\\(`id`\\) FROM `testdb`\\.`orders`").
		WillReturnRows(sqlmock.NewRows([]string{"min", "max"}).AddRow(1, 25))

	// stride 10 over [1,25] -> chunks [1,10] [11,20] [21,25]
	mock.ExpectExec("INSERT IGNORE INTO `testdb`\\.`orders_new`").
		WithArgs(int64(1), int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 10))
	mock.ExpectExec("INSERT IGNORE INTO `testdb`\\.`orders_new`").
		WithArgs(int64(11), int64(20)).
		WillReturnResult(sqlmock.NewResult(0, 10))
	mock.ExpectExec("INSERT IGNORE INTO `testdb`\\.`orders_new`").
		WithArgs(int64(21), int64(25)).
		WillReturnResult(sqlmock.NewResult(0, 5))

	var progressCalls []int64
	reporter := &fakeReporter{onProgress: func(table string, copied, total int64) {
		progressCalls = append(progressCalls, copied)
	}}

	c := NewChunker(origin, shadow, []string{"id", "name"}, "id",
		ChunkerConfig{Stride: 10, Throttle: time.Millisecond}, reporter)

	copied, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if copied != 25 {
		t.Errorf("copied = %d, want 25", copied)
	}
	want := []int64{10, 20, 25}
	if len(progressCalls) != len(want) {
		t.Fatalf("progress calls = %v, want %v", progressCalls, want)
	}
	for i := range want {
		if progressCalls[i] != want[i] {
			t.Errorf("progress[%d] = %d, want %d", i, progressCalls[i], want[i])
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestChunker_EmptyTableIsNoOp(t *testing.T) {
	origin, shadow, mock, cleanup := newMockTables(t)
	defer cleanup()

	mock.ExpectQuery("SELECT MIN\\(`id`\\), MAX\\(`id`\\) FROM `testdb`\\.`orders`").
		WillReturnRows(sqlmock.NewRows([]string{"min", "max"}).AddRow(nil, nil))

	c := NewChunker(origin, shadow, []string{"id"}, "id", ChunkerConfig{}, nil)
	copied, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if copied != 0 {
		t.Errorf("copied = %d, want 0", copied)
	}
}

func TestChunker_RespectsExplicitRange(t *testing.T) {
	origin, shadow, mock, cleanup := newMockTables(t)
	defer cleanup()

	mock.ExpectExec("INSERT IGNORE INTO `testdb`\\.`orders_new`").
		WithArgs(int64(100), int64(105)).
		WillReturnResult(sqlmock.NewResult(0, 6))

	start, end := int64(100), int64(105)
	c := NewChunker(origin, shadow, []string{"id"}, "id",
		ChunkerConfig{Stride: 50, StartID: &start, EndID: &end}, nil)

	copied, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if copied != 6 {
		t.Errorf("copied = %d, want 6", copied)
	}
}

func TestChunker_StopsOnCopyError(t *testing.T) {
	origin, shadow, mock, cleanup := newMockTables(t)
	defer cleanup()

	mock.ExpectQuery("SELECT MIN\\(`id`\\), MAX\\(`id`\\) FROM `testdb`\\.`orders`").
		WillReturnRows(sqlmock.NewRows([]string{"min", "max"}).AddRow(1, 5))
	mock.ExpectExec("INSERT IGNORE INTO `testdb`\\.`orders_new`").
		WillReturnError(errors.New("deadlock found"))

	c := NewChunker(origin, shadow, []string{"id"}, "id", ChunkerConfig{Stride: 100}, nil)
	_, err := c.Run(context.Background())
	if err == nil {
		t.Fatal("expected error from failed chunk copy")
	}
}

type fakeReporter struct {
	onProgress func(table string, copied, total int64)
	onPhase    func(table string, phase Phase)
	onDone     func(table string, report *Report, err error)
}

func (f *fakeReporter) Phase(table string, phase Phase) {
	if f.onPhase != nil {
		f.onPhase(table, phase)
	}
}

func (f *fakeReporter) Progress(table string, copied, total int64) {
	if f.onProgress != nil {
		f.onProgress(table, copied, total)
	}
}

func (f *fakeReporter) Done(table string, report *Report, err error) {
	if f.onDone != nil {
		f.onDone(table, report, err)
	}
}
