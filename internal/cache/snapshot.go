package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/cfech/github-dashboard/internal/models"
)

// SnapshotStore persists one serialized AggregateResult to a single file so a
// prior fetch can substitute for a live one in offline/debug runs. The format
// round-trips exactly.
type SnapshotStore struct {
	path   string
	logger *logrus.Logger
}

// NewSnapshotStore creates a store writing to path. An empty path disables
// the store.
func NewSnapshotStore(path string, logger *logrus.Logger) *SnapshotStore {
	return &SnapshotStore{path: path, logger: logger}
}

// Enabled reports whether the store has a file to read and write.
func (s *SnapshotStore) Enabled() bool {
	return s != nil && s.path != ""
}

// Write persists the result, replacing any prior snapshot.
func (s *SnapshotStore) Write(result *models.AggregateResult) error {
	data, err := json.MarshalIndent(result, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", s.path, err)
	}
	s.logger.WithField("file", s.path).Debug("Persisted dashboard snapshot")
	return nil
}

// Read loads and validates the persisted result.
func (s *SnapshotStore) Read() (*models.AggregateResult, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", s.path, err)
	}

	var result models.AggregateResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("invalid snapshot %s: %w", s.path, err)
	}
	if result.FetchedAt.IsZero() {
		return nil, fmt.Errorf("invalid snapshot %s: missing fetch timestamp", s.path)
	}
	return &result, nil
}

// Fetch lets the store stand in for the live aggregator as a Source. The
// scope is ignored; the snapshot holds whatever scope produced it.
func (s *SnapshotStore) Fetch(_ context.Context, _ models.FetchScope) (*models.AggregateResult, error) {
	return s.Read()
}
