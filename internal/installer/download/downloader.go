// Package download fetches release assets and their published digests over HTTP.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/felixaihub/snailer-dist/internal/checksum"
	snailerErrors "github.com/felixaihub/snailer-dist/internal/errors"
)

// maxChecksumSize bounds how much of a sidecar response is read.
const maxChecksumSize = 64 << 10

// Downloader defines the interface for downloading release assets.
type Downloader interface {
	// Download downloads url to destPath and returns destPath.
	// A progress callback stored in ctx is invoked as bytes arrive.
	Download(ctx context.Context, url, destPath string) (string, error)

	// FetchChecksum fetches the digest for filename from a checksum document at url.
	FetchChecksum(ctx context.Context, url, filename string) (checksum.Expected, error)
}

// Option configures an httpDownloader.
type Option func(*httpDownloader)

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(d *httpDownloader) {
		d.userAgent = ua
	}
}

type httpDownloader struct {
	client    *http.Client
	userAgent string
}

// NewDownloader creates a Downloader backed by client.
// A nil client uses http.DefaultClient.
func NewDownloader(client *http.Client, opts ...Option) Downloader {
	if client == nil {
		client = http.DefaultClient
	}
	d := &httpDownloader{client: client, userAgent: "snailer-dist"}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Download downloads url to destPath.
// Non-200 responses are rejected before anything is written, so an
// error page is never handed to the extractor.
func (d *httpDownloader) Download(ctx context.Context, url, destPath string) (string, error) {
	slog.Debug("downloading file", "url", url, "dest", destPath)

	resp, err := d.get(ctx, url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	tmpPath := destPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		f.Close()
		os.Remove(tmpPath)
	}()

	var reader io.Reader = resp.Body
	if cb := ProgressFromContext(ctx); cb != nil {
		reader = &progressReader{reader: resp.Body, total: resp.ContentLength, callback: cb}
	}

	if _, err := io.Copy(f, reader); err != nil {
		return "", snailerErrors.NewNetworkError(url, fmt.Errorf("failed to write file: %w", err))
	}

	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return "", fmt.Errorf("failed to rename file: %w", err)
	}

	slog.Debug("download completed", "path", destPath, "bytes", resp.ContentLength)
	return destPath, nil
}

// FetchChecksum fetches a checksum document and extracts the digest for filename.
func (d *httpDownloader) FetchChecksum(ctx context.Context, url, filename string) (checksum.Expected, error) {
	slog.Debug("fetching checksum file", "url", url, "filename", filename)

	resp, err := d.get(ctx, url)
	if err != nil {
		return checksum.Expected{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxChecksumSize))
	if err != nil {
		return checksum.Expected{}, fmt.Errorf("failed to read checksum file: %w", err)
	}

	expected, err := checksum.ParseFile(body, filename)
	if err != nil {
		return checksum.Expected{}, fmt.Errorf("failed to parse checksum file %s: %w", url, err)
	}
	expected.Source = "sidecar"

	slog.Debug("found checksum", "file", filename, "algorithm", expected.Algorithm)
	return expected, nil
}

func (d *httpDownloader) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, snailerErrors.NewNetworkError(url, err)
	}

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxChecksumSize))
		resp.Body.Close()
		return nil, snailerErrors.NewHTTPError(url, resp.StatusCode)
	}

	return resp, nil
}

// IsNotFound reports whether err is an HTTP 404 from a download.
func IsNotFound(err error) bool {
	var netErr *snailerErrors.NetworkError
	return errors.As(err, &netErr) && netErr.StatusCode == http.StatusNotFound
}

type progressReader struct {
	reader     io.Reader
	total      int64
	downloaded int64
	callback   ProgressCallback
}

func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	if n > 0 {
		r.downloaded += int64(n)
		r.callback(r.downloaded, r.total)
	}
	return n, err
}
