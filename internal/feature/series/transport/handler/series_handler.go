// Package handler はseriesフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"spx_backend/internal/api"
	"spx_backend/internal/feature/series/adapters/csvrows"
	"spx_backend/internal/feature/series/domain"
	"spx_backend/internal/feature/series/domain/entity"
	"spx_backend/internal/feature/series/domain/normalize"
	"spx_backend/internal/feature/series/transport/http/dto"
	"spx_backend/internal/feature/series/usecase"
)

// DefaultMaxUploadBytes is used when no upload size limit is configured.
const DefaultMaxUploadBytes int64 = 32 << 20

// multipartOverhead is the body allowance on top of maxUploadBytes for
// boundaries, part headers and other form fields.
const multipartOverhead int64 = 1 << 20

const (
	dailyUploadMessage   = "CSV uploaded and processed successfully"
	monthlyUploadMessage = "Monthly CSV uploaded successfully"
)

// Uploader はCSVアップロードのユースケースインターフェースです。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type Uploader interface {
	UploadDaily(ctx context.Context, rows []normalize.RawRow) (usecase.UploadResult, error)
	UploadMonthly(ctx context.Context, rows []normalize.RawRow) (usecase.UploadResult, error)
}

// SeriesQuerier は保存済みシリーズの参照ユースケースです。
type SeriesQuerier interface {
	DailyData(ctx context.Context, limit int) ([]entity.DailyRecord, error)
	MonthlyData(ctx context.Context, limit int) ([]entity.MonthlyRecord, error)
	DailyStats(ctx context.Context) (entity.Stats, error)
	MonthlyStats(ctx context.Context) (entity.Stats, error)
}

// SeriesHandler は日足・月足データのHTTPリクエストを処理します。
type SeriesHandler struct {
	uploader       Uploader
	query          SeriesQuerier
	maxUploadBytes int64
}

// NewSeriesHandler creates a SeriesHandler. A non-positive maxUploadBytes
// uses DefaultMaxUploadBytes.
func NewSeriesHandler(uploader Uploader, query SeriesQuerier, maxUploadBytes int64) *SeriesHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &SeriesHandler{uploader: uploader, query: query, maxUploadBytes: maxUploadBytes}
}

// Root はサービス名を返します。
//
// エンドポイント: GET /
func (h *SeriesHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, api.StatusResponse{Status: "ok", Message: "S&P500 Analysis API"})
}

// UploadDaily は日足CSVを取り込み、指標を計算して保存します。
//
// エンドポイント: POST /api/upload
// Content-Type: multipart/form-data
// フィールド: file（.csv）
func (h *SeriesHandler) UploadDaily(c *gin.Context) {
	h.upload(c, entity.KindDaily, h.uploader.UploadDaily, dailyUploadMessage)
}

// UploadMonthly は月足CSVを取り込み、そのまま保存します。
//
// エンドポイント: POST /api/upload-monthly
func (h *SeriesHandler) UploadMonthly(c *gin.Context) {
	h.upload(c, entity.KindMonthly, h.uploader.UploadMonthly, monthlyUploadMessage)
}

type uploadFunc func(ctx context.Context, rows []normalize.RawRow) (usecase.UploadResult, error)

func (h *SeriesHandler) upload(c *gin.Context, kind entity.Kind, run uploadFunc, message string) {
	// 巨大なボディはマルチパート解析中に打ち切る
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+multipartOverhead)

	file, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			slog.Warn("アップロードサイズ超過", "kind", kind, "limit", tooLarge.Limit, "remote_addr", c.ClientIP())
			c.JSON(http.StatusRequestEntityTooLarge, api.ErrorResponse{Detail: h.tooLargeDetail()})
			return
		}
		slog.Warn("CSVファイルの取得に失敗", "kind", kind, "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Detail: "File is required"})
		return
	}
	if !strings.HasSuffix(strings.ToLower(file.Filename), ".csv") {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Detail: "File must be a CSV"})
		return
	}
	if file.Size > h.maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, api.ErrorResponse{Detail: h.tooLargeDetail()})
		return
	}

	rows, err := readRows(file)
	if err != nil {
		respondUploadError(c, kind, err)
		return
	}

	res, err := run(c.Request.Context(), rows)
	if err != nil {
		respondUploadError(c, kind, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromUploadResult(res, message))
}

func (h *SeriesHandler) tooLargeDetail() string {
	return fmt.Sprintf("File exceeds the %d byte upload limit", h.maxUploadBytes)
}

func readRows(file *multipart.FileHeader) ([]normalize.RawRow, error) {
	f, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("CSVファイルのクローズに失敗", "error", err)
		}
	}()
	return csvrows.Read(f)
}

func respondUploadError(c *gin.Context, kind entity.Kind, err error) {
	if errors.Is(err, domain.ErrInvalidInput) {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Detail: err.Error()})
		return
	}
	slog.Error("アップロード処理に失敗", "kind", kind, "error", err)
	c.JSON(http.StatusInternalServerError, api.ErrorResponse{Detail: "Error processing file: " + err.Error()})
}

// DailyData は直近の日足レコードを古い順に返します。
//
// エンドポイント例:
// GET /api/daily-data?limit=60
func (h *SeriesHandler) DailyData(c *gin.Context) {
	// 不正な値は0となり、usecase側でデフォルト値に置き換えられる
	limit, _ := strconv.Atoi(c.Query("limit"))

	records, err := h.query.DailyData(c.Request.Context(), limit)
	if err != nil {
		respondQueryError(c, entity.KindDaily, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromDailyRecords(records))
}

// MonthlyData は月足レコードを古い順に返します。limit未指定時は全件。
//
// エンドポイント例:
// GET /api/monthly-data?limit=120
func (h *SeriesHandler) MonthlyData(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	records, err := h.query.MonthlyData(c.Request.Context(), limit)
	if err != nil {
		respondQueryError(c, entity.KindMonthly, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromMonthlyRecords(records))
}

// DailyStats は日足コレクションの件数・期間・最新値を返します。
//
// エンドポイント: GET /api/stats
func (h *SeriesHandler) DailyStats(c *gin.Context) {
	stats, err := h.query.DailyStats(c.Request.Context())
	if err != nil {
		respondQueryError(c, entity.KindDaily, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromDailyStats(stats))
}

// MonthlyStats は月足コレクションの件数・期間を返します。
//
// エンドポイント: GET /api/monthly-stats
func (h *SeriesHandler) MonthlyStats(c *gin.Context) {
	stats, err := h.query.MonthlyStats(c.Request.Context())
	if err != nil {
		respondQueryError(c, entity.KindMonthly, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromMonthlyStats(stats))
}

func respondQueryError(c *gin.Context, kind entity.Kind, err error) {
	slog.Error("データ取得に失敗", "kind", kind, "error", err)
	c.JSON(http.StatusInternalServerError, api.ErrorResponse{Detail: err.Error()})
}
