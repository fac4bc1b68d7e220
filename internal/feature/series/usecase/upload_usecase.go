// Package usecase implements the upload and query business logic for the
// daily and monthly series.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"spx_backend/internal/feature/series/domain"
	"spx_backend/internal/feature/series/domain/entity"
	"spx_backend/internal/feature/series/domain/indicator"
	"spx_backend/internal/feature/series/domain/normalize"
)

// SeriesWriter replaces whole collections.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (store).
type SeriesWriter interface {
	ReplaceDaily(ctx context.Context, records []entity.DailyRecord) error
	ReplaceMonthly(ctx context.Context, records []entity.MonthlyRecord) error
}

// UploadMetrics receives upload outcomes for observability.
type UploadMetrics interface {
	ObserveUpload(kind entity.Kind, processed, skipped int, elapsed time.Duration)
	ObserveFailure(kind entity.Kind, reason string)
}

// UploadResult summarises a successful upload.
type UploadResult struct {
	UploadID         string
	Kind             entity.Kind
	RecordsProcessed int
	RowsSkipped      int
	DateRange        entity.DateRange
}

// UploadUsecase normalizes, enriches and replaces a collection.
type UploadUsecase struct {
	store   SeriesWriter
	params  indicator.Params
	metrics UploadMetrics
	newID   func() string
}

// NewUploadUsecase creates an UploadUsecase. A nil metrics sink is allowed.
func NewUploadUsecase(store SeriesWriter, params indicator.Params, metrics UploadMetrics) *UploadUsecase {
	return &UploadUsecase{
		store:   store,
		params:  params,
		metrics: metrics,
		newID:   uuid.NewString,
	}
}

// UploadDaily normalizes rows, derives indicators outside of any lock and
// replaces the daily collection.
func (u *UploadUsecase) UploadDaily(ctx context.Context, rows []normalize.RawRow) (UploadResult, error) {
	start := time.Now()
	id := u.newID()

	bars, skipped, err := u.normalize(entity.KindDaily, rows)
	if err != nil {
		return u.fail(entity.KindDaily, id, err)
	}
	records, err := BuildDailyRecords(bars, u.params)
	if err != nil {
		return u.fail(entity.KindDaily, id, err)
	}
	if err := u.store.ReplaceDaily(ctx, records); err != nil {
		return u.fail(entity.KindDaily, id, err)
	}

	res := UploadResult{
		UploadID:         id,
		Kind:             entity.KindDaily,
		RecordsProcessed: len(records),
		RowsSkipped:      skipped,
		DateRange:        entity.DateRange{Start: records[0].Date, End: records[len(records)-1].Date},
	}
	u.succeed(res, time.Since(start))
	return res, nil
}

// UploadMonthly normalizes rows and replaces the monthly collection.
func (u *UploadUsecase) UploadMonthly(ctx context.Context, rows []normalize.RawRow) (UploadResult, error) {
	start := time.Now()
	id := u.newID()

	bars, skipped, err := u.normalize(entity.KindMonthly, rows)
	if err != nil {
		return u.fail(entity.KindMonthly, id, err)
	}
	records := BuildMonthlyRecords(bars)
	if err := u.store.ReplaceMonthly(ctx, records); err != nil {
		return u.fail(entity.KindMonthly, id, err)
	}

	res := UploadResult{
		UploadID:         id,
		Kind:             entity.KindMonthly,
		RecordsProcessed: len(records),
		RowsSkipped:      skipped,
		DateRange:        entity.DateRange{Start: records[0].Date, End: records[len(records)-1].Date},
	}
	u.succeed(res, time.Since(start))
	return res, nil
}

func (u *UploadUsecase) normalize(kind entity.Kind, rows []normalize.RawRow) ([]entity.Bar, int, error) {
	if len(rows) == 0 {
		return nil, 0, fmt.Errorf("%w: upload contains no data rows", domain.ErrInvalidInput)
	}
	res, err := normalize.Normalize(rows)
	if err != nil {
		return nil, 0, err
	}
	if res.Skipped > 0 {
		slog.Info("rows skipped during normalization", "kind", kind, "skipped", res.Skipped, "total", len(rows))
	}
	if len(res.Bars) == 0 {
		return nil, res.Skipped, fmt.Errorf("%w: no valid rows after parsing (%d skipped)", domain.ErrInvalidInput, res.Skipped)
	}
	return res.Bars, res.Skipped, nil
}

func (u *UploadUsecase) succeed(res UploadResult, elapsed time.Duration) {
	slog.Info("upload stored",
		"upload_id", res.UploadID,
		"kind", res.Kind,
		"records", res.RecordsProcessed,
		"skipped", res.RowsSkipped,
		"start", res.DateRange.Start,
		"end", res.DateRange.End,
		"elapsed", elapsed,
	)
	if u.metrics != nil {
		u.metrics.ObserveUpload(res.Kind, res.RecordsProcessed, res.RowsSkipped, elapsed)
	}
}

func (u *UploadUsecase) fail(kind entity.Kind, id string, err error) (UploadResult, error) {
	reason := failureReason(err)
	if reason == "invalid_input" {
		slog.Warn("upload rejected", "upload_id", id, "kind", kind, "error", err)
	} else {
		slog.Error("upload failed", "upload_id", id, "kind", kind, "reason", reason, "error", err)
	}
	if u.metrics != nil {
		u.metrics.ObserveFailure(kind, reason)
	}
	return UploadResult{}, err
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, domain.ErrComputation):
		return "computation"
	case errors.Is(err, domain.ErrStorage):
		return "storage"
	default:
		return "unknown"
	}
}
