package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	serieshandler "spx_backend/internal/feature/series/transport/handler"
	platformhandler "spx_backend/internal/platform/http/handler"
)

// NewRouter wires the series endpoints, health probes and metrics.
func NewRouter(series *serieshandler.SeriesHandler, health *platformhandler.HealthHandler,
	metrics http.Handler, corsOrigins []string, uploadLimit gin.HandlerFunc) *gin.Engine {
	r := gin.Default()

	// CORS追加 (フロントエンドのオリジンのみ許可)
	r.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// 導通確認用
	r.GET("/", series.Root)
	r.GET("/healthz", health.Live)
	r.HEAD("/healthz", health.Live)
	r.OPTIONS("/healthz", health.Live)
	r.GET("/api/health", health.Ready)
	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}

	api := r.Group("/api")
	{
		// CSVアップロード（レート制限あり）
		upload := api.Group("")
		if uploadLimit != nil {
			upload.Use(uploadLimit)
		}
		upload.POST("/upload", series.UploadDaily)
		upload.POST("/upload-monthly", series.UploadMonthly)

		api.GET("/daily-data", series.DailyData)
		api.GET("/monthly-data", series.MonthlyData)
		api.GET("/stats", series.DailyStats)
		api.GET("/monthly-stats", series.MonthlyStats)
	}

	return r
}
