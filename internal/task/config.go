package task

import "time"

// Config bundles the tunables a Task needs that don't belong on any single
// call. Mirrors the small, explicit config structs Nomad threads through its
// task runners rather than reading globals.
type Config struct {
	// TaskResourceDefaultTimeout is the timeout GetExclusiveLock and
	// GetSharedLock pass to ResourceOwner.Acquire; the Task itself does
	// not act on it, and LocalResourceManager ignores it.
	TaskResourceDefaultTimeout time.Duration

	// EnableProfiling turns on the extra armon/go-metrics sample points
	// (per-job timers) beyond the always-on counters.
	EnableProfiling bool
}

// DefaultConfig returns the configuration new tasks use when none is set
// explicitly.
func DefaultConfig() *Config {
	return &Config{
		TaskResourceDefaultTimeout: 30 * time.Second,
		EnableProfiling:            false,
	}
}
