package di

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	redisv9 "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"spx_backend/internal/feature/series/adapters"
	"spx_backend/internal/feature/series/adapters/jsonfile"
	"spx_backend/internal/feature/series/domain/indicator"
	"spx_backend/internal/feature/series/store"
	"spx_backend/internal/feature/series/transport/handler"
	"spx_backend/internal/feature/series/usecase"
	"spx_backend/internal/platform/cache"
	"spx_backend/internal/platform/config"
	"spx_backend/internal/platform/db"
	platformhandler "spx_backend/internal/platform/http/handler"
	"spx_backend/internal/platform/metrics"
	platformredis "spx_backend/internal/platform/redis"
	"spx_backend/internal/shared/ratelimiter"
)

// cacheNamespace prefixes every Redis key written by the series cache.
const cacheNamespace = "spx"

// App bundles the wired series components.
type App struct {
	Store   *store.Store
	Upload  *usecase.UploadUsecase
	Query   *usecase.QueryUsecase
	Handler *handler.SeriesHandler
	Health  *platformhandler.HealthHandler
	Metrics *metrics.Metrics
	// UploadLimit is nil when upload throttling is disabled.
	UploadLimit gin.HandlerFunc

	closers []func() error
}

// NewApp opens storage and Redis per cfg and wires the series feature.
// Redis is optional: when it is not configured or unreachable the app runs
// without cache.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{}
	checks := map[string]platformhandler.Check{}

	backend, err := app.openBackend(cfg, checks)
	if err != nil {
		return nil, err
	}

	if rdb := newRedis(ctx, cfg); rdb != nil {
		app.closers = append(app.closers, rdb.Close)
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		// Redisキャッシュでラップ
		backend = cache.NewCachingSeriesRepository(rdb, cfg.Redis.TTL, backend, cacheNamespace)
	}

	app.Metrics = metrics.New()
	app.Store = store.New(backend)
	app.Upload = usecase.NewUploadUsecase(app.Store, IndicatorParams(cfg), app.Metrics)
	app.Query = usecase.NewQueryUsecase(app.Store, cfg.Query.DefaultDailyLimit, cfg.Query.MaxLimit)
	app.Handler = handler.NewSeriesHandler(app.Upload, app.Query, cfg.MaxUploadBytes())
	app.Health = platformhandler.NewHealthHandler(checks)
	if n := cfg.Server.UploadsPerMinute; n > 0 {
		app.UploadLimit = ratelimiter.NewRateLimiter(n, time.Minute).Middleware()
	}
	return app, nil
}

// Close releases the database and Redis connections.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// IndicatorParams maps the indicator section of cfg.
func IndicatorParams(cfg *config.Config) indicator.Params {
	return indicator.Params{
		RSIPeriod:  cfg.Indicators.RSIPeriod,
		MACDFast:   cfg.Indicators.MACDFast,
		MACDSlow:   cfg.Indicators.MACDSlow,
		MACDSignal: cfg.Indicators.MACDSignal,
	}
}

func (a *App) openBackend(cfg *config.Config, checks map[string]platformhandler.Check) (store.Backend, error) {
	switch cfg.Storage.Driver {
	case config.DriverFile:
		b, err := jsonfile.New(cfg.Storage.DataDir)
		if err != nil {
			return nil, err
		}
		slog.Info("using file storage", "dir", cfg.Storage.DataDir)
		return b, nil
	case config.DriverSQLite, config.DriverPostgres:
		gdb, err := db.OpenDB(db.Config{
			Driver:         cfg.Storage.Driver,
			SQLitePath:     cfg.Storage.SQLitePath,
			PostgresDSN:    cfg.Storage.PostgresDSN,
			ConnectTimeout: cfg.Storage.ConnectTimeout,
		}, adapters.Models()...)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, fmt.Errorf("database handle: %w", err)
		}
		a.closers = append(a.closers, sqlDB.Close)
		checks["database"] = pingDB(gdb)
		return adapters.NewSeriesRepository(gdb), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func pingDB(gdb *gorm.DB) platformhandler.Check {
	return func(ctx context.Context) error {
		sqlDB, err := gdb.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}

func newRedis(ctx context.Context, cfg *config.Config) *redisv9.Client {
	if !cfg.RedisEnabled() {
		slog.Info("Redis not configured. Running without cache.")
		return nil
	}
	rdb, err := platformredis.NewRedisClient(ctx, platformredis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		slog.Warn("Redis unavailable. Running without cache.", "error", err)
		return nil
	}
	return rdb
}
