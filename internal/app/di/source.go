// Package di provides dependency injection factories for creating application components.
package di

import (
	"time"

	"spx_backend/internal/feature/series/adapters/csvsource"
	"spx_backend/internal/platform/config"
	platformhttp "spx_backend/internal/platform/http"
)

// sourceTimeout bounds a single CSV download.
const sourceTimeout = 60 * time.Second

// NewCSVSource creates a csvsource.Source with a configured HTTP client.
func NewCSVSource(cfg *config.Config) *csvsource.Source {
	httpClient := platformhttp.NewHTTPClient(sourceTimeout)
	return csvsource.New(httpClient, cfg.MaxUploadBytes())
}
