package internal

import "time"

// Config carries the knobs the Handler and its collaborators need at
// construction, the same way the teacher's Configuration struct
// (internal/configuration.go) parameterized its Invoker and timeouts.
type Config struct {
	// StorageExclusionPrefixes lists record-name prefixes excluded from
	// durable-storage writes (spec §2.1, Storage Facade).
	StorageExclusionPrefixes []string

	// HotPathPrefixes lists record-name prefixes routed through the
	// Hot-Path Writer instead of a Transition (spec §4.7).
	HotPathPrefixes []string

	// CacheTTL bounds how long the default MemoryCache keeps a record
	// resident without activity.
	CacheTTL time.Duration

	Logger Logger
}

// DefaultConfig returns a Config with the teacher's style of sane
// zero-dependency defaults: no exclusions, no hot paths, a five minute
// cache TTL, and the prometheus/common/log-backed DefaultLogger.
func DefaultConfig() Config {
	return Config{
		StorageExclusionPrefixes: nil,
		HotPathPrefixes:          nil,
		CacheTTL:                 5 * time.Minute,
		Logger:                   NewDefaultLogger(),
	}
}
