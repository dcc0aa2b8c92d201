package mirror

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"sitemirror/fetch"
)

// FailedAsset records an asset whose fetch failed. Its reference has
// already been rewritten to the local path, so the audit will report it
// as dangling.
type FailedAsset struct {
	URL       string
	LocalPath string
	Err       error
}

// FetchCache performs the actual downloads and guarantees each distinct
// absolute URL is fetched at most once per run. A destination file already
// present on disk counts as a hit: the network is skipped and the existing
// bytes are re-read, so dependent scans (CSS inside a pre-existing file)
// still see content.
type FetchCache struct {
	fetcher fetch.Fetcher
	root    string

	mu        sync.Mutex
	requested map[string]bool
	written   int
	bytes     int64
	failed    []FailedAsset
}

func NewFetchCache(fetcher fetch.Fetcher, root string) *FetchCache {
	return &FetchCache{
		fetcher:   fetcher,
		root:      root,
		requested: make(map[string]bool),
	}
}

// FetchOnce downloads the asset to its local path, or returns the existing
// bytes if the URL was already requested or the file is already on disk.
// A failed fetch is recorded and returned; it never aborts the run.
//
// The lock is held across the fetch so no two callers can ever target the
// same absolute URL concurrently.
func (c *FetchCache) FetchOnce(ctx context.Context, asset *ResolvedAsset) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	full := filepath.Join(c.root, filepath.FromSlash(asset.LocalPath))

	if c.requested[asset.AbsoluteURL] {
		// Repeat reference to a URL seen this run; re-read whatever the
		// first request left behind (nothing, if it failed).
		return os.ReadFile(full)
	}
	c.requested[asset.AbsoluteURL] = true

	if data, err := os.ReadFile(full); err == nil {
		slog.Debug("cache hit", "url", asset.AbsoluteURL, "path", asset.LocalPath)
		return data, nil
	}

	data, err := c.fetcher.Fetch(ctx, asset.AbsoluteURL)
	if err != nil {
		c.failed = append(c.failed, FailedAsset{URL: asset.AbsoluteURL, LocalPath: asset.LocalPath, Err: err})
		slog.Warn("asset fetch failed", "url", asset.AbsoluteURL, "error", err)
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return nil, err
	}
	c.written++
	c.bytes += int64(len(data))
	slog.Debug("fetched", "url", asset.AbsoluteURL, "path", asset.LocalPath, "size", len(data))
	return data, nil
}

// Written returns the number of files downloaded and written this run.
func (c *FetchCache) Written() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.written
}

// BytesWritten returns the total size of files written this run.
func (c *FetchCache) BytesWritten() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bytes
}

// Failed returns the assets whose fetch failed this run.
func (c *FetchCache) Failed() []FailedAsset {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]FailedAsset(nil), c.failed...)
}
