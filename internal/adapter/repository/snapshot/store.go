// Package snapshot persists dashboard snapshots so a restarted process
// can serve cached data before its first gateway refresh completes.
package snapshot

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"koperasi-collection-backend/internal/usecase/dashboard"
)

type row struct {
	Scope     string    `gorm:"primaryKey;size:64;column:scope"`
	Payload   []byte    `gorm:"column:payload"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (row) TableName() string { return "snapshots" }

type Store struct{ db *gorm.DB }

func NewStore(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&row{}); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Save(ctx context.Context, scope string, snap *dashboard.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	r := row{Scope: scope, Payload: payload, UpdatedAt: time.Now().UTC()}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "scope"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).
		Create(&r).Error
}

func (s *Store) Load(ctx context.Context, scope string) (*dashboard.Snapshot, error) {
	var r row
	if err := s.db.WithContext(ctx).Where("scope = ?", scope).First(&r).Error; err != nil {
		return nil, err
	}
	var snap dashboard.Snapshot
	if err := json.Unmarshal(r.Payload, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}
