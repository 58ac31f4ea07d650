package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cfech/github-dashboard/internal/config"
	"github.com/cfech/github-dashboard/internal/models"
	"github.com/cfech/github-dashboard/internal/stream"
)

// Source produces a complete dashboard dataset for one scope. The live
// aggregator and the snapshot store both satisfy it; the service selects one
// at construction.
type Source interface {
	Fetch(ctx context.Context, scope models.FetchScope) (*models.AggregateResult, error)
}

// Dashboard is one dataset plus its materialized activity stream and the
// status descriptor the presentation layer displays.
type Dashboard struct {
	Result   *models.AggregateResult `json:"result"`
	Activity []models.ActivityItem   `json:"activity"`
	Status   models.FetchStatus      `json:"status"`
}

// Service is the caching boundary in front of the aggregator. Exactly one of
// live fetch or snapshot read contributes to any single Get.
type Service struct {
	source       Source
	cache        *Cache
	snapshot     *SnapshotStore
	logger       *logrus.Logger
	snapshotMode bool
}

// NewService wires the cache layer. With DebugMode set and a snapshot file
// present in the configuration, the snapshot store replaces the live source
// entirely.
func NewService(cfg *config.CacheConfig, live Source, logger *logrus.Logger) *Service {
	var snapshot *SnapshotStore
	if cfg.SnapshotFile != "" {
		snapshot = NewSnapshotStore(cfg.SnapshotFile, logger)
	}

	source := live
	snapshotMode := cfg.DebugMode && snapshot.Enabled()
	if snapshotMode {
		logger.WithField("file", cfg.SnapshotFile).Info("Debug mode: serving dashboard from snapshot")
		source = snapshot
	}

	return &Service{
		source:       source,
		cache:        New(cfg.TTL),
		snapshot:     snapshot,
		logger:       logger,
		snapshotMode: snapshotMode,
	}
}

// Get returns the dashboard dataset for scope. Within the TTL a cached copy
// is served without any network activity unless forceRefresh is set. A failed
// live fetch degrades to the snapshot when one is available; otherwise the
// error propagates.
func (s *Service) Get(ctx context.Context, scope models.FetchScope, forceRefresh bool) (*Dashboard, error) {
	start := time.Now()

	if s.snapshotMode {
		result, err := s.source.Fetch(ctx, scope)
		if err != nil {
			return nil, err
		}
		return s.dashboard(result, models.OriginSnapshot, start), nil
	}

	key := scope.Key()
	if !forceRefresh {
		if result, activity, ok := s.cache.Get(key); ok {
			s.logger.WithField("scope", key).Debug("Cache hit")
			return &Dashboard{
				Result:   result,
				Activity: activity,
				Status: models.FetchStatus{
					Origin:    models.OriginCache,
					CacheHit:  true,
					Warnings:  result.Warnings,
					FetchedAt: result.FetchedAt,
					Duration:  time.Since(start),
				},
			}, nil
		}
	}

	result, err := s.source.Fetch(ctx, scope)
	if err != nil {
		return s.degradeToSnapshot(ctx, err, start)
	}

	dashboard := s.dashboard(result, models.OriginLive, start)
	s.cache.Set(key, dashboard.Result, dashboard.Activity)

	if s.snapshot.Enabled() {
		if writeErr := s.snapshot.Write(result); writeErr != nil {
			s.logger.WithError(writeErr).Warn("Failed to persist dashboard snapshot")
		}
	}

	return dashboard, nil
}

// degradeToSnapshot masks a failed live fetch with the persisted snapshot
// when one is enabled and readable.
func (s *Service) degradeToSnapshot(ctx context.Context, fetchErr error, start time.Time) (*Dashboard, error) {
	if !s.snapshot.Enabled() {
		return nil, fetchErr
	}

	result, readErr := s.snapshot.Read()
	if readErr != nil {
		s.logger.WithError(readErr).Warn("Snapshot fallback unavailable")
		return nil, fetchErr
	}

	s.logger.WithError(fetchErr).Warn("Live fetch failed, serving snapshot")
	dashboard := s.dashboard(result, models.OriginSnapshot, start)
	dashboard.Status.Warnings = append(dashboard.Status.Warnings,
		fmt.Sprintf("live fetch failed, serving snapshot from %s: %v", result.FetchedAt.Format(time.RFC3339), fetchErr))
	return dashboard, nil
}

// dashboard materializes the activity stream for one dataset and assembles
// its status descriptor.
func (s *Service) dashboard(result *models.AggregateResult, origin models.DataOrigin, start time.Time) *Dashboard {
	return &Dashboard{
		Result:   result,
		Activity: stream.Merge(result.PullRequests, result.Commits),
		Status: models.FetchStatus{
			Origin:       origin,
			SnapshotUsed: origin == models.OriginSnapshot,
			Warnings:     result.Warnings,
			FetchedAt:    result.FetchedAt,
			Duration:     time.Since(start),
		},
	}
}
