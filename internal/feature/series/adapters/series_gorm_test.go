package adapters

import (
	"context"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"spx_backend/internal/feature/series/domain/entity"
)

// setupTestDB prepares an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to initialize test database")

	err = db.AutoMigrate(Models()...)
	require.NoError(t, err, "failed to migrate tables")

	return db
}

func sampleDaily(dates ...string) []entity.DailyRecord {
	out := make([]entity.DailyRecord, len(dates))
	for i, d := range dates {
		ts, _ := time.Parse(entity.DateLayout, d)
		out[i] = entity.DailyRecord{
			Bar:  entity.Bar{Time: ts, Open: 100, High: 110 + float64(i), Low: 90, Close: 105 + float64(i), Volume: 1000},
			Date: d,
			MACD: entity.MACD{Line: 0.5, Signal: 0.25, Hist: 0.25},
		}
		if i > 0 {
			out[i].HighPrevCloseDiff = null.FloatFrom(out[i].High - out[i-1].Close)
		}
	}
	return out
}

func TestNewSeriesRepository(t *testing.T) {
	db := setupTestDB(t)

	repo := NewSeriesRepository(db)

	assert.NotNil(t, repo, "repository is nil")
	assert.NotNil(t, repo.db, "database connection is nil")
}

func TestSeriesGorm_ReplaceAndFindDaily(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewSeriesRepository(setupTestDB(t))

	records := sampleDaily("2024-01-02", "2024-01-03", "2024-01-04")
	records[2].RSI = null.FloatFrom(55.5)
	require.NoError(t, repo.ReplaceDaily(ctx, records))

	got, err := repo.FindDaily(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// newest first
	assert.Equal(t, "2024-01-04", got[0].Date)
	assert.Equal(t, "2024-01-02", got[2].Date)

	assert.False(t, got[2].HighPrevCloseDiff.Valid, "first record has no spread")
	assert.Equal(t, records[1].HighPrevCloseDiff, got[1].HighPrevCloseDiff)
	assert.Equal(t, null.FloatFrom(55.5), got[0].RSI)
	assert.False(t, got[1].RSI.Valid)
	assert.Equal(t, records[2].MACD, got[0].MACD)
	assert.Equal(t, records[2].Close, got[0].Close)
	assert.True(t, records[2].Time.Equal(got[0].Time))
}

func TestSeriesGorm_FindDaily_Limit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewSeriesRepository(setupTestDB(t))
	require.NoError(t, repo.ReplaceDaily(ctx, sampleDaily("2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05")))

	tests := []struct {
		name  string
		limit int
		want  []string
	}{
		{"limit 2", 2, []string{"2024-01-05", "2024-01-04"}},
		{"limit larger than size", 10, []string{"2024-01-05", "2024-01-04", "2024-01-03", "2024-01-02"}},
		{"no limit", 0, []string{"2024-01-05", "2024-01-04", "2024-01-03", "2024-01-02"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.FindDaily(ctx, tt.limit)
			require.NoError(t, err)
			dates := make([]string, len(got))
			for i, r := range got {
				dates[i] = r.Date
			}
			assert.Equal(t, tt.want, dates)
		})
	}
}

func TestSeriesGorm_ReplaceDaily_DropsPrevious(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewSeriesRepository(db)

	require.NoError(t, repo.ReplaceDaily(ctx, sampleDaily("2023-01-02", "2023-01-03", "2023-01-04")))
	require.NoError(t, repo.ReplaceDaily(ctx, sampleDaily("2024-06-03")))

	var count int64
	require.NoError(t, db.Model(&DailyRecordModel{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	got, err := repo.FindDaily(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2024-06-03", got[0].Date)
}

func TestSeriesGorm_ReplaceDaily_Empty(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewSeriesRepository(setupTestDB(t))

	require.NoError(t, repo.ReplaceDaily(ctx, sampleDaily("2024-01-02")))
	require.NoError(t, repo.ReplaceDaily(ctx, nil))

	got, err := repo.FindDaily(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

// Duplicate dates are kept in their original order.
func TestSeriesGorm_DuplicateDates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewSeriesRepository(setupTestDB(t))

	records := sampleDaily("2024-01-02", "2024-01-02", "2024-01-03")
	require.NoError(t, repo.ReplaceDaily(ctx, records))

	got, err := repo.FindDaily(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, records[1].Close, got[1].Close)
	assert.Equal(t, records[0].Close, got[2].Close)
}

func TestSeriesGorm_ReplaceAndFindMonthly(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewSeriesRepository(setupTestDB(t))

	records := []entity.MonthlyRecord{
		{Bar: entity.Bar{Time: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Open: 4700, High: 4900, Low: 4650, Close: 4850, Volume: 1e9}, Date: "2024-01-01"},
		{Bar: entity.Bar{Time: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), Open: 4850, High: 5100, Low: 4800, Close: 5090, Volume: 2e9}, Date: "2024-02-01"},
	}
	require.NoError(t, repo.ReplaceMonthly(ctx, records))

	got, err := repo.FindMonthly(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2024-02-01", got[0].Date)
	assert.Equal(t, 5090.0, got[0].Close)
	assert.Equal(t, 2e9, got[0].Volume)

	all, err := repo.FindMonthly(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSeriesGorm_FindWithoutTables(t *testing.T) {
	t.Parallel()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	repo := NewSeriesRepository(db)

	_, err = repo.FindDaily(context.Background(), 10)
	assert.Error(t, err)
	err = repo.ReplaceMonthly(context.Background(), nil)
	assert.Error(t, err)
}
