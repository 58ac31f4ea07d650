package config

import "time"

// CacheConfig holds dashboard cache and debug snapshot configuration
type CacheConfig struct {
	TTL time.Duration
	// DebugMode serves the on-disk snapshot instead of hitting the network.
	DebugMode bool
	// SnapshotFile is where a live result is persisted for offline/debug use.
	// Empty disables snapshot reads and writes.
	SnapshotFile string
}

// DefaultCacheConfig returns the default cache configuration
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		TTL:          5 * time.Minute,
		DebugMode:    false,
		SnapshotFile: "github_data.json",
	}
}
