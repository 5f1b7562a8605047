package migrate

import (
	"errors"
	"fmt"

	"github.com/nethalo/dbmigrate/internal/mysqlconn"
)

// Sentinel errors the caller and CLI branch on via errors.Is.
var (
	// ErrNoIntegerPK re-exports mysqlconn's primary-key precondition failure
	// under the migrate package, since it is this package's precondition
	// that surfaces it to callers.
	ErrNoIntegerPK = mysqlconn.ErrNoIntegerPK
	// ErrCompositePK re-exports mysqlconn's composite-key failure.
	ErrCompositePK = mysqlconn.ErrCompositePK

	// ErrShadowExists is returned by CreateShadow when the shadow table
	// already exists in the catalog (I6: at most one in-flight migration).
	ErrShadowExists = errors.New("migrate: shadow table already exists")
)

// Phase identifies the stage of a run an error (or progress event)
// originated in.
type Phase string

const (
	PhaseShadowCreate Phase = "shadow-create"
	PhaseCallback     Phase = "migrate-callback"
	PhaseEntangle     Phase = "entangle"
	PhaseChunk        Phase = "chunk"
	PhaseSwitch       Phase = "switch"
	PhaseUntangle     Phase = "untangle"
)

// Error wraps a failure with the table and phase it occurred in, and
// whether the caller may reasonably retry the whole run.
type Error struct {
	Table     string
	Phase     Phase
	Err       error
	Retryable bool
}

func (e *Error) Error() string {
	return fmt.Sprintf("migrate: %s: %s: %v", e.Table, e.Phase, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func wrapErr(table string, phase Phase, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Table: table, Phase: phase, Err: err}
}
