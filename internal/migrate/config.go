package migrate

import "time"

// Config controls a single Runner's behavior. Zero values fall back to the
// documented defaults in NewRunner.
type Config struct {
	// Stride is the chunker's maximum rows per chunk. Default 2000.
	Stride int
	// Throttle is the chunker's inter-chunk sleep. Default 100ms.
	Throttle time.Duration
	// AtomicSwitch forces the switcher strategy when non-nil; when nil the
	// Runner asks the dialect whether the server supports an atomic
	// multi-table RENAME.
	AtomicSwitch *bool
	// RetrySleep is the atomic switcher's backoff between lock-wait retries.
	// Default 10ms.
	RetrySleep time.Duration
	// MaxRetries caps the atomic switcher's lock-wait retry attempts.
	// Default 600.
	MaxRetries int
	// ArchivePrefix names the post-cutover origin. Default "dmg_archive".
	ArchivePrefix string
	// TemporaryTableSuffix names the shadow table: <origin><suffix>.
	// Default "_new".
	TemporaryTableSuffix string
	// DisableEntangler bypasses the shadow/entangle/chunk/switch pipeline
	// entirely and runs the migration callback directly against the
	// origin, for in-place refactors that don't need a shadow copy.
	DisableEntangler bool
	// Clock is the time source for archive-name timestamps. Default
	// wall-clock UTC.
	Clock Clock
}

func (c Config) withDefaults() Config {
	if c.Stride <= 0 {
		c.Stride = 2000
	}
	if c.Throttle == 0 {
		c.Throttle = 100 * time.Millisecond
	}
	if c.RetrySleep <= 0 {
		c.RetrySleep = 10 * time.Millisecond
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 600
	}
	if c.ArchivePrefix == "" {
		c.ArchivePrefix = "dmg_archive"
	}
	if c.TemporaryTableSuffix == "" {
		c.TemporaryTableSuffix = "_new"
	}
	if c.Clock == nil {
		c.Clock = realClock{}
	}
	return c
}
