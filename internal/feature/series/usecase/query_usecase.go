package usecase

import (
	"context"

	"spx_backend/internal/feature/series/domain/entity"
)

const (
	// DefaultDailyLimit is the number of daily records returned when no limit is given.
	DefaultDailyLimit = 60
	// MaxLimit is the largest accepted limit; larger values fall back to the default.
	MaxLimit = 5000
)

// SeriesReader abstracts the read side of the series store.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (store).
type SeriesReader interface {
	QueryDaily(ctx context.Context, limit int) ([]entity.DailyRecord, error)
	QueryMonthly(ctx context.Context, limit int) ([]entity.MonthlyRecord, error)
	DailyStats(ctx context.Context) (entity.Stats, error)
	MonthlyStats(ctx context.Context) (entity.Stats, error)
}

// QueryUsecase serves the stored series in chronological order.
type QueryUsecase struct {
	store        SeriesReader
	defaultDaily int
	maxLimit     int
}

// NewQueryUsecase creates a QueryUsecase. Non-positive limits use the package defaults.
func NewQueryUsecase(store SeriesReader, defaultDaily, maxLimit int) *QueryUsecase {
	if maxLimit <= 0 {
		maxLimit = MaxLimit
	}
	if defaultDaily <= 0 || defaultDaily > maxLimit {
		defaultDaily = DefaultDailyLimit
	}
	return &QueryUsecase{store: store, defaultDaily: defaultDaily, maxLimit: maxLimit}
}

// DailyData returns the most recent daily records, oldest first.
// A limit outside [1, maxLimit] uses the default daily limit.
func (q *QueryUsecase) DailyData(ctx context.Context, limit int) ([]entity.DailyRecord, error) {
	if limit <= 0 || limit > q.maxLimit {
		limit = q.defaultDaily
	}
	return q.store.QueryDaily(ctx, limit)
}

// MonthlyData returns the most recent monthly records, oldest first.
// A limit outside [1, maxLimit] returns the whole collection.
func (q *QueryUsecase) MonthlyData(ctx context.Context, limit int) ([]entity.MonthlyRecord, error) {
	if limit <= 0 || limit > q.maxLimit {
		limit = 0
	}
	return q.store.QueryMonthly(ctx, limit)
}

// DailyStats returns the daily summary.
func (q *QueryUsecase) DailyStats(ctx context.Context) (entity.Stats, error) {
	return q.store.DailyStats(ctx)
}

// MonthlyStats returns the monthly summary.
func (q *QueryUsecase) MonthlyStats(ctx context.Context) (entity.Stats, error) {
	return q.store.MonthlyStats(ctx)
}
