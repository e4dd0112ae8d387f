// Package store owns the durable snapshot history.
package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/codyseavey/market-pulse/internal/market"
	"github.com/codyseavey/market-pulse/internal/models"
)

// SnapshotStore persists snapshots in the sales_data table and reads them
// back in reverse date order. It does no aggregation or validation beyond
// the one-snapshot-per-date rule.
type SnapshotStore struct {
	db *gorm.DB
}

// New wraps a database handle.
func New(db *gorm.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

// Save inserts a new snapshot. A second save for the same date is rejected
// with a DuplicateDate condition; trend analysis assumes at most one
// snapshot per date and stored snapshots are immutable.
func (s *SnapshotStore) Save(snap *models.Snapshot) error {
	err := s.db.Create(snap).Error
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return market.WrapCondition(market.CodeDuplicateDate, err,
			fmt.Sprintf("snapshot already exists for %s", snap.Date))
	}
	return market.WrapCondition(market.CodePersistenceFailure, err, "failed to save snapshot")
}

// LoadRecent returns up to n snapshots, most recent date first. Short
// history returns fewer; an empty store returns an empty slice.
func (s *SnapshotStore) LoadRecent(n int) ([]models.Snapshot, error) {
	var snaps []models.Snapshot
	if err := s.db.Order("date DESC").Limit(n).Find(&snaps).Error; err != nil {
		return nil, market.WrapCondition(market.CodePersistenceFailure, err, "failed to load snapshot history")
	}
	return snaps, nil
}

// LoadPair returns the two most recent snapshots as (previous, latest), or
// an InsufficientHistory condition when fewer than two exist.
func (s *SnapshotStore) LoadPair() (previous, latest *models.Snapshot, err error) {
	snaps, err := s.LoadRecent(2)
	if err != nil {
		return nil, nil, err
	}
	if len(snaps) < 2 {
		return nil, nil, market.NewCondition(market.CodeInsufficientHistory,
			fmt.Sprintf("need 2 snapshots to compare, have %d", len(snaps)))
	}
	return &snaps[1], &snaps[0], nil
}
