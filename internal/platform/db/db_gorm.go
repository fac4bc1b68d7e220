package db

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// retryInterval is the pause between connection attempts.
var retryInterval = 3 * time.Second

// Config はデータベース接続設定を保持します。
type Config struct {
	Driver         string // "sqlite" or "postgres"
	SQLitePath     string
	PostgresDSN    string
	ConnectTimeout time.Duration
}

// Opener opens a gorm connection; tests replace it.
type Opener func(dialector gorm.Dialector) (*gorm.DB, error)

func defaultOpener(dialector gorm.Dialector) (*gorm.DB, error) {
	return gorm.Open(dialector, &gorm.Config{})
}

// Dialector returns the gorm dialector for cfg.
// Postgres DSNs are validated with pgx before any connection attempt.
func Dialector(cfg Config) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "sqlite":
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." && cfg.SQLitePath != ":memory:" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
		return sqlite.Open(cfg.SQLitePath), nil
	case "postgres":
		if _, err := pgx.ParseConfig(cfg.PostgresDSN); err != nil {
			return nil, fmt.Errorf("invalid postgres DSN: %w", err)
		}
		return postgres.Open(cfg.PostgresDSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// ConnectWithRetry calls opener until it succeeds or timeout elapses.
// At least one attempt is always made.
func ConnectWithRetry(dialector gorm.Dialector, timeout time.Duration, opener Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := opener(dialector)
		if err == nil {
			return db, nil
		}
		if time.Now().Add(retryInterval).After(deadline) {
			return nil, fmt.Errorf("DB connect failed after %s: %w", timeout, err)
		}
		slog.Warn("DB connect failed, retrying", "driver", dialector.Name(), "error", err)
		time.Sleep(retryInterval)
	}
}

// OpenDB connects with retry and migrates models.
func OpenDB(cfg Config, models ...any) (*gorm.DB, error) {
	return openDB(cfg, defaultOpener, models...)
}

func openDB(cfg Config, opener Opener, models ...any) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}
	db, err := ConnectWithRetry(dialector, cfg.ConnectTimeout, opener)
	if err != nil {
		return nil, err
	}
	if len(models) > 0 {
		// マイグレーション（daily_data, monthly_data）
		if err := db.AutoMigrate(models...); err != nil {
			return nil, fmt.Errorf("failed to migrate: %w", err)
		}
	}
	slog.Info("database ready", "driver", cfg.Driver)
	return db, nil
}
