// Package store holds the two series collections behind per-kind locks.
package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/guregu/null/v6"

	"spx_backend/internal/feature/series/domain"
	"spx_backend/internal/feature/series/domain/entity"
	"spx_backend/internal/feature/series/usecase"
)

// Backend persists whole collections.
// Find* return records newest first; a limit <= 0 means all records.
// Replace* must be all-or-nothing.
type Backend interface {
	ReplaceDaily(ctx context.Context, records []entity.DailyRecord) error
	FindDaily(ctx context.Context, limit int) ([]entity.DailyRecord, error)
	ReplaceMonthly(ctx context.Context, records []entity.MonthlyRecord) error
	FindMonthly(ctx context.Context, limit int) ([]entity.MonthlyRecord, error)
}

// Store serialises writers per kind while allowing concurrent readers.
type Store struct {
	backend Backend

	dailyMu   sync.RWMutex
	monthlyMu sync.RWMutex
}

var (
	_ usecase.SeriesWriter = (*Store)(nil)
	_ usecase.SeriesReader = (*Store)(nil)
)

// New creates a Store over backend.
func New(backend Backend) *Store {
	return &Store{backend: backend}
}

// ReplaceDaily swaps the daily collection.
func (s *Store) ReplaceDaily(ctx context.Context, records []entity.DailyRecord) error {
	s.dailyMu.Lock()
	defer s.dailyMu.Unlock()

	if err := s.backend.ReplaceDaily(ctx, records); err != nil {
		return fmt.Errorf("%w: replace daily: %w", domain.ErrStorage, err)
	}
	return nil
}

// ReplaceMonthly swaps the monthly collection.
func (s *Store) ReplaceMonthly(ctx context.Context, records []entity.MonthlyRecord) error {
	s.monthlyMu.Lock()
	defer s.monthlyMu.Unlock()

	if err := s.backend.ReplaceMonthly(ctx, records); err != nil {
		return fmt.Errorf("%w: replace monthly: %w", domain.ErrStorage, err)
	}
	return nil
}

// QueryDaily returns the last limit daily records in chronological order.
func (s *Store) QueryDaily(ctx context.Context, limit int) ([]entity.DailyRecord, error) {
	s.dailyMu.RLock()
	defer s.dailyMu.RUnlock()

	records, err := s.backend.FindDaily(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: query daily: %w", domain.ErrStorage, err)
	}
	slices.Reverse(records)
	return records, nil
}

// QueryMonthly returns the last limit monthly records in chronological order.
func (s *Store) QueryMonthly(ctx context.Context, limit int) ([]entity.MonthlyRecord, error) {
	s.monthlyMu.RLock()
	defer s.monthlyMu.RUnlock()

	records, err := s.backend.FindMonthly(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: query monthly: %w", domain.ErrStorage, err)
	}
	slices.Reverse(records)
	return records, nil
}

// DailyStats summarises the daily collection, including the latest close and RSI.
func (s *Store) DailyStats(ctx context.Context) (entity.Stats, error) {
	records, err := s.QueryDaily(ctx, 0)
	if err != nil {
		return entity.Stats{}, err
	}
	if len(records) == 0 {
		return entity.Stats{}, nil
	}
	last := records[len(records)-1]
	return entity.Stats{
		TotalRecords: len(records),
		DateRange:    entity.DateRange{Start: records[0].Date, End: last.Date},
		LatestClose:  null.FloatFrom(last.Close),
		LatestRSI:    last.RSI,
	}, nil
}

// MonthlyStats summarises the monthly collection.
func (s *Store) MonthlyStats(ctx context.Context) (entity.Stats, error) {
	records, err := s.QueryMonthly(ctx, 0)
	if err != nil {
		return entity.Stats{}, err
	}
	if len(records) == 0 {
		return entity.Stats{}, nil
	}
	return entity.Stats{
		TotalRecords: len(records),
		DateRange:    entity.DateRange{Start: records[0].Date, End: records[len(records)-1].Date},
	}, nil
}
