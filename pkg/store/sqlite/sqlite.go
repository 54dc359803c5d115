// Package sqlite implements the board store on an embedded SQLite
// database. The snapshot is kept as a JSON blob in a single row, so the
// store stays a key-value slot while gaining SQLite's durability
// guarantees over a plain file.
package sqlite

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/collabboard/collabboard/pkg/models"
	"github.com/collabboard/collabboard/pkg/store"
)

const snapshotKey = "board"

type snapshotRow struct {
	Key  string `gorm:"primaryKey"`
	Data []byte
}

func (snapshotRow) TableName() string { return "board_snapshots" }

// Store persists the board snapshot in a SQLite database.
type Store struct {
	db *gorm.DB
}

var _ store.Store = (*Store)(nil)

// Open opens (or creates) the database at path and ensures the
// snapshot table exists.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	if err != nil {
		return nil, fmt.Errorf("opening board database: %w", err)
	}
	if err := db.AutoMigrate(&snapshotRow{}); err != nil {
		return nil, fmt.Errorf("migrating board database: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Load() (*models.Snapshot, error) {
	var row snapshotRow
	err := s.db.First(&row, "key = ?", snapshotKey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading board snapshot: %w", err)
	}

	var snap models.Snapshot
	if err := json.Unmarshal(row.Data, &snap); err != nil {
		return nil, fmt.Errorf("parsing board snapshot: %w", err)
	}
	return &snap, nil
}

func (s *Store) Save(snap models.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding board snapshot: %w", err)
	}

	row := snapshotRow{Key: snapshotKey, Data: data}
	err = s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("saving board snapshot: %w", err)
	}
	return nil
}
