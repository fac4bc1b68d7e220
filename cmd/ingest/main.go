// Command ingest loads a CSV file or URL into the series store without the HTTP layer.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"spx_backend/internal/app/di"
	"spx_backend/internal/feature/series/domain/entity"
	"spx_backend/internal/platform/config"
	"spx_backend/internal/platform/logger"
)

func main() {
	kind := flag.String("kind", "daily", "series kind: daily or monthly")
	location := flag.String("file", "", "CSV file path or http(s) URL")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall timeout")
	flag.Parse()

	_ = godotenv.Load(".env")

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}
	logger.Init("spx-ingest", logger.ParseLevel(cfg.Log.Level), cfg.Log.Format)

	if err := run(cfg, entity.Kind(*kind), *location, *timeout); err != nil {
		slog.Error("ingest failed", "kind", *kind, "file", *location, "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, kind entity.Kind, location string, timeout time.Duration) error {
	if location == "" {
		return fmt.Errorf("-file is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	app, err := di.NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	rows, err := di.NewCSVSource(cfg).Rows(ctx, location)
	if err != nil {
		return err
	}

	upload := app.Upload.UploadDaily
	switch kind {
	case entity.KindDaily:
	case entity.KindMonthly:
		upload = app.Upload.UploadMonthly
	default:
		return fmt.Errorf("unknown kind %q", kind)
	}

	res, err := upload(ctx, rows)
	if err != nil {
		return err
	}
	slog.Info("ingest ok",
		"kind", res.Kind,
		"upload_id", res.UploadID,
		"records", res.RecordsProcessed,
		"skipped", res.RowsSkipped,
	)
	return nil
}
