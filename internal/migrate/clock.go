package migrate

import "time"

// Clock is the time source used to derive archive table names. Injected so
// tests can assert on exact archive names without depending on wall time.
type Clock interface {
	Now() time.Time
}

// realClock is the default Clock, backed by time.Now.
type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }
