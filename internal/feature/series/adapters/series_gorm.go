package adapters

import (
	"context"
	"time"

	"github.com/guregu/null/v6"
	"gorm.io/gorm"

	"spx_backend/internal/feature/series/domain/entity"
	"spx_backend/internal/feature/series/store"
)

// insertBatchSize bounds the number of rows per INSERT statement.
const insertBatchSize = 500

type seriesGorm struct {
	db *gorm.DB
}

var _ store.Backend = (*seriesGorm)(nil)

// NewSeriesRepository returns a gorm-backed store.Backend.
func NewSeriesRepository(db *gorm.DB) *seriesGorm {
	return &seriesGorm{db: db}
}

// DailyRecordModel is one row of the daily collection.
// Seq is the position in the chronological series; dates may repeat.
type DailyRecordModel struct {
	ID   uint      `gorm:"primaryKey"`
	Seq  int       `gorm:"not null;index"`
	Date string    `gorm:"size:10;not null"`
	Time time.Time `gorm:"not null"`

	Open   float64 `gorm:"not null"`
	High   float64 `gorm:"not null"`
	Low    float64 `gorm:"not null"`
	Close  float64 `gorm:"not null"`
	Volume float64 `gorm:"not null;default:0"`

	HighPrevCloseDiff *float64
	RSI               *float64 `gorm:"column:rsi"`
	MACDLine          float64  `gorm:"column:macd_line;not null"`
	MACDSignal        float64  `gorm:"column:macd_signal;not null"`
	MACDHist          float64  `gorm:"column:macd_hist;not null"`
}

func (DailyRecordModel) TableName() string {
	return "daily_data"
}

// MonthlyRecordModel is one row of the monthly collection.
type MonthlyRecordModel struct {
	ID   uint      `gorm:"primaryKey"`
	Seq  int       `gorm:"not null;index"`
	Date string    `gorm:"size:10;not null"`
	Time time.Time `gorm:"not null"`

	Open   float64 `gorm:"not null"`
	High   float64 `gorm:"not null"`
	Low    float64 `gorm:"not null"`
	Close  float64 `gorm:"not null"`
	Volume float64 `gorm:"not null;default:0"`
}

func (MonthlyRecordModel) TableName() string {
	return "monthly_data"
}

// Models lists the tables this adapter needs migrated.
func Models() []any {
	return []any{&DailyRecordModel{}, &MonthlyRecordModel{}}
}

func toDailyModel(seq int, r entity.DailyRecord) DailyRecordModel {
	return DailyRecordModel{
		Seq:               seq,
		Date:              r.Date,
		Time:              r.Time,
		Open:              r.Open,
		High:              r.High,
		Low:               r.Low,
		Close:             r.Close,
		Volume:            r.Volume,
		HighPrevCloseDiff: r.HighPrevCloseDiff.Ptr(),
		RSI:               r.RSI.Ptr(),
		MACDLine:          r.MACD.Line,
		MACDSignal:        r.MACD.Signal,
		MACDHist:          r.MACD.Hist,
	}
}

func (m DailyRecordModel) toEntity() entity.DailyRecord {
	return entity.DailyRecord{
		Bar: entity.Bar{
			Time:   m.Time,
			Open:   m.Open,
			High:   m.High,
			Low:    m.Low,
			Close:  m.Close,
			Volume: m.Volume,
		},
		Date:              m.Date,
		HighPrevCloseDiff: null.FloatFromPtr(m.HighPrevCloseDiff),
		RSI:               null.FloatFromPtr(m.RSI),
		MACD:              entity.MACD{Line: m.MACDLine, Signal: m.MACDSignal, Hist: m.MACDHist},
	}
}

func toMonthlyModel(seq int, r entity.MonthlyRecord) MonthlyRecordModel {
	return MonthlyRecordModel{
		Seq:    seq,
		Date:   r.Date,
		Time:   r.Time,
		Open:   r.Open,
		High:   r.High,
		Low:    r.Low,
		Close:  r.Close,
		Volume: r.Volume,
	}
}

func (m MonthlyRecordModel) toEntity() entity.MonthlyRecord {
	return entity.MonthlyRecord{
		Bar: entity.Bar{
			Time:   m.Time,
			Open:   m.Open,
			High:   m.High,
			Low:    m.Low,
			Close:  m.Close,
			Volume: m.Volume,
		},
		Date: m.Date,
	}
}

// ReplaceDaily deletes the daily table and inserts records in one transaction.
func (r *seriesGorm) ReplaceDaily(ctx context.Context, records []entity.DailyRecord) error {
	ms := make([]DailyRecordModel, 0, len(records))
	for i, rec := range records {
		ms = append(ms, toDailyModel(i, rec))
	}
	return replaceAll(ctx, r.db, &DailyRecordModel{}, ms)
}

// ReplaceMonthly deletes the monthly table and inserts records in one transaction.
func (r *seriesGorm) ReplaceMonthly(ctx context.Context, records []entity.MonthlyRecord) error {
	ms := make([]MonthlyRecordModel, 0, len(records))
	for i, rec := range records {
		ms = append(ms, toMonthlyModel(i, rec))
	}
	return replaceAll(ctx, r.db, &MonthlyRecordModel{}, ms)
}

func replaceAll[M any](ctx context.Context, db *gorm.DB, model any, rows []M) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(&rows, insertBatchSize).Error
	})
}

// FindDaily returns up to limit daily records, newest first.
func (r *seriesGorm) FindDaily(ctx context.Context, limit int) ([]entity.DailyRecord, error) {
	var rows []DailyRecordModel
	q := r.db.WithContext(ctx).Order("seq DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]entity.DailyRecord, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.toEntity())
	}
	return out, nil
}

// FindMonthly returns up to limit monthly records, newest first.
func (r *seriesGorm) FindMonthly(ctx context.Context, limit int) ([]entity.MonthlyRecord, error) {
	var rows []MonthlyRecordModel
	q := r.db.WithContext(ctx).Order("seq DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]entity.MonthlyRecord, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.toEntity())
	}
	return out, nil
}
