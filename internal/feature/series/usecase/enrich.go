package usecase

import (
	"fmt"
	"math"

	"github.com/guregu/null/v6"

	"spx_backend/internal/feature/series/domain"
	"spx_backend/internal/feature/series/domain/entity"
	"spx_backend/internal/feature/series/domain/indicator"
)

// BuildDailyRecords derives the spread, RSI and MACD for every bar of an
// ordered series. It is pure and never touches storage.
// Any inconsistency in the derived series is reported as
// domain.ErrComputation and no records are returned.
func BuildDailyRecords(bars []entity.Bar, params indicator.Params) ([]entity.DailyRecord, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrComputation, err)
	}

	closes := entity.Closes(bars)
	rsi := indicator.RSI(closes, params.RSIPeriod)
	macd := indicator.MACD(closes, params.MACDFast, params.MACDSlow, params.MACDSignal)

	n := len(bars)
	if len(rsi) != n || len(macd.Line) != n || len(macd.Signal) != n || len(macd.Hist) != n {
		return nil, fmt.Errorf("%w: series length mismatch (bars=%d rsi=%d macd=%d/%d/%d)",
			domain.ErrComputation, n, len(rsi), len(macd.Line), len(macd.Signal), len(macd.Hist))
	}

	out := make([]entity.DailyRecord, n)
	for i, b := range bars {
		var diff null.Float
		if i > 0 {
			diff = null.FloatFrom(b.High - bars[i-1].Close)
		}
		rec := entity.DailyRecord{
			Bar:               b,
			Date:              b.Date(),
			HighPrevCloseDiff: diff,
			RSI:               rsi[i],
			MACD: entity.MACD{
				Line:   macd.Line[i],
				Signal: macd.Signal[i],
				Hist:   macd.Hist[i],
			},
		}
		if !finite(rec) {
			return nil, fmt.Errorf("%w: non-finite value at %s", domain.ErrComputation, rec.Date)
		}
		out[i] = rec
	}
	return out, nil
}

// BuildMonthlyRecords attaches dates to pre-aggregated monthly bars.
func BuildMonthlyRecords(bars []entity.Bar) []entity.MonthlyRecord {
	out := make([]entity.MonthlyRecord, len(bars))
	for i, b := range bars {
		out[i] = entity.MonthlyRecord{Bar: b, Date: b.Date()}
	}
	return out
}

func finite(r entity.DailyRecord) bool {
	vals := []float64{r.MACD.Line, r.MACD.Signal, r.MACD.Hist}
	if r.HighPrevCloseDiff.Valid {
		vals = append(vals, r.HighPrevCloseDiff.Float64)
	}
	if r.RSI.Valid {
		vals = append(vals, r.RSI.Float64)
	}
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
