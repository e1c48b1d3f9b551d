// Package store persists optimization results, keyed by strategy name and
// category, for the signal extractor to read back.
package store

import (
	"encoding/json"
	"fmt"

	"github.com/raykavin/rulegate/pkg/core"
	"github.com/raykavin/rulegate/pkg/signal"
	"github.com/tidwall/buntdb"
)

// BuntStore implements core.ResultStore using BuntDB
type BuntStore struct {
	db *buntdb.DB
}

// FromMemory creates an in-memory store
func FromMemory() (core.ResultStore, error) {
	return NewBuntStore(":memory:")
}

// FromFile creates a file-based store
func FromFile(file string) (core.ResultStore, error) {
	return NewBuntStore(file)
}

// NewBuntStore creates a new BuntDB store instance
func NewBuntStore(sourceFile string) (core.ResultStore, error) {
	db, err := buntdb.Open(sourceFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open buntdb: %w", err)
	}

	err = db.CreateIndex("strategy_index", "*", buntdb.IndexJSON("strategy_name"))
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &BuntStore{db: db}, nil
}

func resultKey(name, category string) string {
	return category + ":" + name
}

// Put stores a result, overwriting any previous run for the same strategy
func (b *BuntStore) Put(result core.OptimizationResult) error {
	return b.db.Update(func(tx *buntdb.Tx) error {
		content, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}

		_, _, err = tx.Set(resultKey(result.StrategyName, result.Category), string(content), nil)
		if err != nil {
			return fmt.Errorf("failed to store result: %w", err)
		}

		return nil
	})
}

// Get retrieves one strategy's result
func (b *BuntStore) Get(name, category string) (*core.OptimizationResult, error) {
	var result core.OptimizationResult

	err := b.db.View(func(tx *buntdb.Tx) error {
		value, err := tx.Get(resultKey(name, category))
		if err != nil {
			return fmt.Errorf("result not found: %w", err)
		}
		return json.Unmarshal([]byte(value), &result)
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// All retrieves every stored result ordered by strategy name
func (b *BuntStore) All() ([]core.OptimizationResult, error) {
	results := make([]core.OptimizationResult, 0)

	err := b.db.View(func(tx *buntdb.Tx) error {
		var innerErr error
		err := tx.Ascend("strategy_index", func(_, value string) bool {
			var result core.OptimizationResult
			if innerErr = json.Unmarshal([]byte(value), &result); innerErr != nil {
				return false
			}
			results = append(results, result)
			return true
		})
		if err != nil {
			return err
		}
		return innerErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read results: %w", err)
	}

	return results, nil
}

// TopPassing returns up to n PASS results ordered by descending held-out Sharpe
func (b *BuntStore) TopPassing(n int) ([]core.OptimizationResult, error) {
	results, err := b.All()
	if err != nil {
		return nil, err
	}
	return signal.RankPassing(results, n), nil
}

// Reset deletes every stored result
func (b *BuntStore) Reset() error {
	return b.db.Update(func(tx *buntdb.Tx) error {
		return tx.DeleteAll()
	})
}
