package dto

import (
	"github.com/guregu/null/v6"

	"spx_backend/internal/feature/series/domain/entity"
	"spx_backend/internal/feature/series/usecase"
)

// MACDResponse はMACDの3要素です。
type MACDResponse struct {
	Line   float64 `json:"line"`
	Signal float64 `json:"signal"`
	Hist   float64 `json:"hist"`
}

// DailyRecordResponse は日足レコードのレスポンスDTOです。
// 未定義の指標はnullになります。
type DailyRecordResponse struct {
	Date              string       `json:"date"`   // 日付
	Open              float64      `json:"open"`   // 始値
	High              float64      `json:"high"`   // 高値
	Low               float64      `json:"low"`    // 安値
	Close             float64      `json:"close"`  // 終値
	Volume            float64      `json:"volume"` // 出来高
	HighPrevCloseDiff null.Float   `json:"high_prev_close_diff"`
	RSI               null.Float   `json:"rsi"`
	MACD              MACDResponse `json:"macd"`
}

// MonthlyRecordResponse は月足レコードのレスポンスDTOです。
type MonthlyRecordResponse struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// DateRangeResponse is null on both ends for an empty collection.
type DateRangeResponse struct {
	Start null.String `json:"start"`
	End   null.String `json:"end"`
}

// DailyStatsResponse は日足コレクションの要約です。
type DailyStatsResponse struct {
	TotalRecords int               `json:"total_records"`
	DateRange    DateRangeResponse `json:"date_range"`
	LatestClose  null.Float        `json:"latest_close"`
	LatestRSI    null.Float        `json:"latest_rsi"`
}

// MonthlyStatsResponse は月足コレクションの要約です。
type MonthlyStatsResponse struct {
	TotalRecords int               `json:"total_records"`
	DateRange    DateRangeResponse `json:"date_range"`
}

// UploadResponse はアップロード成功時のレスポンスDTOです。
type UploadResponse struct {
	Status           string            `json:"status"`
	Message          string            `json:"message"`
	UploadID         string            `json:"upload_id"`
	RecordsProcessed int               `json:"records_processed"`
	RowsSkipped      int               `json:"rows_skipped"`
	DateRange        DateRangeResponse `json:"date_range"`
}

func toDateRange(r entity.DateRange) DateRangeResponse {
	return DateRangeResponse{
		Start: null.NewString(r.Start, r.Start != ""),
		End:   null.NewString(r.End, r.End != ""),
	}
}

// FromDailyRecords converts records, keeping their order.
func FromDailyRecords(records []entity.DailyRecord) []DailyRecordResponse {
	out := make([]DailyRecordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, DailyRecordResponse{
			Date:              r.Date,
			Open:              r.Open,
			High:              r.High,
			Low:               r.Low,
			Close:             r.Close,
			Volume:            r.Volume,
			HighPrevCloseDiff: r.HighPrevCloseDiff,
			RSI:               r.RSI,
			MACD:              MACDResponse{Line: r.MACD.Line, Signal: r.MACD.Signal, Hist: r.MACD.Hist},
		})
	}
	return out
}

// FromMonthlyRecords converts records, keeping their order.
func FromMonthlyRecords(records []entity.MonthlyRecord) []MonthlyRecordResponse {
	out := make([]MonthlyRecordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, MonthlyRecordResponse{
			Date:   r.Date,
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Volume,
		})
	}
	return out
}

func FromDailyStats(s entity.Stats) DailyStatsResponse {
	return DailyStatsResponse{
		TotalRecords: s.TotalRecords,
		DateRange:    toDateRange(s.DateRange),
		LatestClose:  s.LatestClose,
		LatestRSI:    s.LatestRSI,
	}
}

func FromMonthlyStats(s entity.Stats) MonthlyStatsResponse {
	return MonthlyStatsResponse{
		TotalRecords: s.TotalRecords,
		DateRange:    toDateRange(s.DateRange),
	}
}

// FromUploadResult builds the success body for an upload.
func FromUploadResult(res usecase.UploadResult, message string) UploadResponse {
	return UploadResponse{
		Status:           "success",
		Message:          message,
		UploadID:         res.UploadID,
		RecordsProcessed: res.RecordsProcessed,
		RowsSkipped:      res.RowsSkipped,
		DateRange:        toDateRange(res.DateRange),
	}
}
