// Package fetcher downloads remote resources over HTTP with per-host rate
// limiting and bounded timeouts.
package fetcher

import (
	"context"
	"io"
)

// Fetcher defines the interface for downloading remote data.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadBytes fetches the URL and returns the full payload.
	// A zero-length payload is reported as ErrEmptyPayload.
	DownloadBytes(ctx context.Context, url string) ([]byte, error)
}
