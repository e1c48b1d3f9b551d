package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/raykavin/rulegate/pkg/core"
	"github.com/raykavin/rulegate/pkg/signal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// resultRecord is the GORM row for one optimization result. The full result
// travels as a JSON payload; name, category and verdict are lifted into
// columns for lookups.
type resultRecord struct {
	ID           uint   `gorm:"primaryKey"`
	StrategyName string `gorm:"uniqueIndex:idx_strategy"`
	Category     string `gorm:"uniqueIndex:idx_strategy"`
	Verdict      string
	Payload      string
	UpdatedAt    time.Time
}

// SQLStore implements core.ResultStore using a SQL database via GORM
type SQLStore struct {
	db *gorm.DB
}

// FromSQLite creates a SQL store backed by a SQLite file
func FromSQLite(dbPath string, opts ...gorm.Option) (core.ResultStore, error) {
	return FromSQL(sqlite.Open(dbPath), opts...)
}

// FromSQL creates a new SQL store instance
func FromSQL(dialect gorm.Dialector, opts ...gorm.Option) (core.ResultStore, error) {
	db, err := gorm.Open(dialect, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&resultRecord{}); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLStore{db: db}, nil
}

// Put stores a result, overwriting any previous run for the same strategy
func (s *SQLStore) Put(result core.OptimizationResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	record := resultRecord{
		StrategyName: result.StrategyName,
		Category:     result.Category,
		Verdict:      string(result.Verdict),
		Payload:      string(payload),
	}

	err = s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "strategy_name"}, {Name: "category"}},
		UpdateAll: true,
	}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("failed to store result: %w", err)
	}

	return nil
}

// Get retrieves one strategy's result
func (s *SQLStore) Get(name, category string) (*core.OptimizationResult, error) {
	var record resultRecord
	err := s.db.Where("strategy_name = ? AND category = ?", name, category).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("result not found: %w", err)
		}
		return nil, fmt.Errorf("failed to read result: %w", err)
	}

	return decodeRecord(record)
}

// All retrieves every stored result
func (s *SQLStore) All() ([]core.OptimizationResult, error) {
	var records []resultRecord
	if err := s.db.Order("strategy_name").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to read results: %w", err)
	}

	results := make([]core.OptimizationResult, 0, len(records))
	for _, record := range records {
		result, err := decodeRecord(record)
		if err != nil {
			return nil, err
		}
		results = append(results, *result)
	}

	return results, nil
}

// TopPassing returns up to n PASS results ordered by descending held-out Sharpe
func (s *SQLStore) TopPassing(n int) ([]core.OptimizationResult, error) {
	results, err := s.All()
	if err != nil {
		return nil, err
	}
	return signal.RankPassing(results, n), nil
}

// Reset deletes every stored result
func (s *SQLStore) Reset() error {
	if err := s.db.Where("1 = 1").Delete(&resultRecord{}).Error; err != nil {
		return fmt.Errorf("failed to reset store: %w", err)
	}
	return nil
}

func decodeRecord(record resultRecord) (*core.OptimizationResult, error) {
	var result core.OptimizationResult
	if err := json.Unmarshal([]byte(record.Payload), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return &result, nil
}
