package classify

import (
	"testing"

	"github.com/nethalo/dbmigrate/internal/parser"
)

func TestClassifyDDL_AddColumnInstantByVersion(t *testing.T) {
	tests := []struct {
		name              string
		major, minor, pat int
		wantAlgo          Algorithm
	}{
		{"pre-instant", 8, 0, 5, AlgoInplace},
		{"trailing-instant", 8, 0, 20, AlgoInstant},
		{"any-position-instant", 8, 0, 35, AlgoInstant},
		{"lts", 8, 4, 0, AlgoInstant},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := ClassifyDDL(parser.AddColumn, tt.major, tt.minor, tt.pat)
			if c.Algorithm != tt.wantAlgo {
				t.Errorf("Algorithm = %v, want %v", c.Algorithm, tt.wantAlgo)
			}
			if c.Lock != LockNone {
				t.Errorf("Lock = %v, want NONE", c.Lock)
			}
		})
	}
}

func TestClassifyDDL_ModifyColumnAlwaysCopy(t *testing.T) {
	for _, v := range [][3]int{{8, 0, 5}, {8, 0, 35}, {8, 4, 0}} {
		c := ClassifyDDL(parser.ModifyColumn, v[0], v[1], v[2])
		if c.Algorithm != AlgoCopy || c.Lock != LockShared || !c.RebuildsTable {
			t.Errorf("v%d.%d.%d: ModifyColumn = %+v, want COPY/SHARED/rebuild", v[0], v[1], v[2], c)
		}
	}
}

func TestClassifyDDL_UnknownOperationFallsBackToWorstCase(t *testing.T) {
	c := ClassifyDDL(parser.DDLOperation("SOMETHING_NEW"), 8, 0, 35)
	if c.Algorithm != AlgoCopy || c.Lock != LockShared || !c.RebuildsTable {
		t.Errorf("unknown op = %+v, want conservative COPY/SHARED/rebuild default", c)
	}
}

func TestClassifyDDLWithContext_AddColumnFirstAfterDowngradesToInplace(t *testing.T) {
	parsed := &parser.ParsedSQL{DDLOp: parser.AddColumn, IsFirstAfter: true}

	c := ClassifyDDLWithContext(parsed, 8, 0, 20)
	if c.Algorithm != AlgoInplace {
		t.Errorf("8.0.20 ADD COLUMN FIRST: Algorithm = %v, want INPLACE", c.Algorithm)
	}

	c = ClassifyDDLWithContext(parsed, 8, 0, 35)
	if c.Algorithm != AlgoInstant {
		t.Errorf("8.0.35 ADD COLUMN FIRST: Algorithm = %v, want INSTANT", c.Algorithm)
	}
}
