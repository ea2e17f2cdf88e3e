// Package store keeps a history of refinement runs in SQLite.
package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Run is one finished refinement.
type Run struct {
	ID           string `gorm:"primaryKey;size:36"`
	Name         string `gorm:"index"`
	Recipe       string // YAML form of the recipe that was run
	State        string
	Splits       int
	Edges        int
	Faces        int
	LastCost     float64
	NonConverged int
	Capped       bool
	MaxDeviation float64
	Duration     time.Duration
	Error        string
	CreatedAt    time.Time `gorm:"index"`
}

// Store wraps a gorm handle.
type Store struct {
	db *gorm.DB
}

// Open opens or creates the database at path and migrates the schema.
// Use ":memory:" for a throwaway store. SQL logging is silent unless
// verbose is set.
func Open(path string, verbose bool) (*Store, error) {
	level := logger.Silent
	if verbose {
		level = logger.Info
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	if err := db.AutoMigrate(&Run{}); err != nil {
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Record saves r, assigning an ID and timestamp when unset.
func (s *Store) Record(r *Run) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	if err := s.db.Create(r).Error; err != nil {
		return fmt.Errorf("store: record run: %w", err)
	}
	return nil
}

// Get returns the run with the given ID.
func (s *Store) Get(id string) (*Run, error) {
	var r Run
	if err := s.db.First(&r, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("store: get %s: %w", id, err)
	}
	return &r, nil
}

// Recent returns up to n runs, newest first.
func (s *Store) Recent(n int) ([]Run, error) {
	var runs []Run
	if err := s.db.Order("created_at desc").Limit(n).Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("store: recent: %w", err)
	}
	return runs, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
