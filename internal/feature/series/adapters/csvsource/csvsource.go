// Package csvsource loads a CSV payload from a local path or an http(s) URL.
package csvsource

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"spx_backend/internal/feature/series/adapters/csvrows"
	"spx_backend/internal/feature/series/domain/normalize"
	platformhttp "spx_backend/internal/platform/http"
)

// Source reads raw rows from a file or URL.
type Source struct {
	client   *http.Client
	maxBytes int64
}

// New returns a Source using client for remote locations.
func New(client *http.Client, maxBytes int64) *Source {
	return &Source{client: client, maxBytes: maxBytes}
}

// IsURL reports whether location is fetched over HTTP.
func IsURL(location string) bool {
	l := strings.ToLower(location)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

// Rows loads location and parses it with csvrows.Read.
func (s *Source) Rows(ctx context.Context, location string) ([]normalize.RawRow, error) {
	data, err := s.load(ctx, location)
	if err != nil {
		return nil, err
	}
	return csvrows.Read(bytes.NewReader(data))
}

func (s *Source) load(ctx context.Context, location string) ([]byte, error) {
	if IsURL(location) {
		return platformhttp.Download(ctx, s.client, location, s.maxBytes)
	}

	f, err := os.Open(location)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", location, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", location, err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("%s exceeds %d bytes", location, s.maxBytes)
	}
	return data, nil
}
