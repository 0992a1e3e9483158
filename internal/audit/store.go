package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Operation is one executed registry command
type Operation struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Kind       string    `json:"kind" gorm:"not null;index"`
	Crate      string    `json:"crate" gorm:"not null;index:idx_operation_crate_version"`
	Version    string    `json:"version" gorm:"index:idx_operation_crate_version"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// BeforeCreate assigns an id to new rows
func (o *Operation) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// Store persists operations with gorm
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Record saves the outcome of a command
func (s *Store) Record(ctx context.Context, kind, crate, version string, outcome error, elapsed time.Duration) error {
	op := &Operation{
		Kind:       kind,
		Crate:      crate,
		Version:    version,
		Success:    outcome == nil,
		DurationMS: elapsed.Milliseconds(),
	}
	if outcome != nil {
		op.Error = outcome.Error()
	}

	if err := s.db.WithContext(ctx).Create(op).Error; err != nil {
		return fmt.Errorf("failed to record operation: %w", err)
	}
	return nil
}

// List returns the most recent operations on a crate, newest first
func (s *Store) List(ctx context.Context, crate string, limit int) ([]Operation, error) {
	var ops []Operation
	err := s.db.WithContext(ctx).
		Where("crate = ?", crate).
		Order("created_at DESC").
		Limit(limit).
		Find(&ops).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list operations: %w", err)
	}
	return ops, nil
}
