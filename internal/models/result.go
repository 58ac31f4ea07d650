package models

import "time"

// FetchTimings records per-phase durations of one aggregation cycle.
type FetchTimings struct {
	RepoListing time.Duration `json:"repo_listing"`
	BulkDetail  time.Duration `json:"bulk_detail"`
}

// AggregateResult is the complete dashboard dataset produced by one fetch
// cycle. All contained records are immutable value snapshots and safe to share
// read-only with the presentation layer.
type AggregateResult struct {
	Repositories []Repository  `json:"repositories"`
	PullRequests []PullRequest `json:"pull_requests"`
	Commits      []Commit      `json:"commits"`

	// Warnings records recoverable per-target failures that degraded the
	// result to partial, e.g. a single rate-limited organization.
	Warnings []string `json:"warnings,omitempty"`

	FetchedAt time.Time    `json:"fetched_at"`
	Timings   FetchTimings `json:"timings"`
}

// DataOrigin describes where a returned dataset came from.
type DataOrigin string

const (
	OriginLive     DataOrigin = "live"
	OriginCache    DataOrigin = "cache"
	OriginSnapshot DataOrigin = "snapshot"
)

// FetchStatus is the status descriptor returned alongside a dataset so the
// caller can distinguish fresh, cached, and snapshot data and surface partial
// failure warnings.
type FetchStatus struct {
	Origin       DataOrigin    `json:"origin"`
	CacheHit     bool          `json:"cache_hit"`
	SnapshotUsed bool          `json:"snapshot_used"`
	Warnings     []string      `json:"warnings,omitempty"`
	FetchedAt    time.Time     `json:"fetched_at"`
	Duration     time.Duration `json:"duration"`
}
