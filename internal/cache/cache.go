// Package cache keeps the fetched price history of the whole index in a
// single local file.
package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"StockRanker/internal/model"
)

// FetchFunc produces the full data set on a cache miss.
type FetchFunc func(ctx context.Context) ([]model.StockSeries, error)

// HistoryCache stores the series at one path. A present file is always
// served as is; there is no expiry. The cache assumes a single writer.
type HistoryCache struct {
	path  string
	codec Codec
	log   zerolog.Logger
}

// New creates a cache at path. A nil codec means JSON.
func New(path string, codec Codec, log zerolog.Logger) *HistoryCache {
	if codec == nil {
		codec = JSONCodec{}
	}
	return &HistoryCache{
		path:  path,
		codec: codec,
		log:   log.With().Str("component", "cache").Str("path", path).Logger(),
	}
}

// Path returns the cache file location.
func (c *HistoryCache) Path() string { return c.path }

// Load reads the cached series. A missing file is ErrNotFound; unreadable
// or undecodable content is ErrCache.
func (c *HistoryCache) Load() ([]model.StockSeries, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read cache %s: %w", c.path, model.ErrNotFound)
		}
		return nil, fmt.Errorf("read cache %s: %w: %w", c.path, model.ErrCache, err)
	}
	series, err := c.codec.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("decode cache %s: %w: %w", c.path, model.ErrCache, err)
	}
	return series, nil
}

// Save replaces the cache file with series.
func (c *HistoryCache) Save(series []model.StockSeries) error {
	data, err := c.codec.Marshal(series)
	if err != nil {
		return fmt.Errorf("encode cache: %w: %w", model.ErrCache, err)
	}
	if dir := filepath.Dir(c.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create cache dir: %w: %w", model.ErrCache, err)
		}
	}
	// Write beside the target and rename so a crash never leaves half a file.
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write cache: %w: %w", model.ErrCache, err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write cache: %w: %w", model.ErrCache, err)
	}
	return nil
}

// LoadOrFetch returns the cached series, or calls fetch, stores its result
// and returns it when nothing is cached. A corrupt file is an error, not a
// miss.
func (c *HistoryCache) LoadOrFetch(ctx context.Context, fetch FetchFunc) ([]model.StockSeries, error) {
	series, err := c.Load()
	if err == nil {
		c.log.Info().Int("series", len(series)).Msg("cache hit")
		return series, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}

	c.log.Info().Msg("cache miss, fetching")
	series, err = fetch(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.Save(series); err != nil {
		return nil, err
	}
	c.log.Info().Int("series", len(series)).Str("format", c.codec.Name()).Msg("cache written")
	return series, nil
}

// Invalidate deletes the cache file. Deleting an absent file is ErrNotFound.
func (c *HistoryCache) Invalidate() error {
	if err := os.Remove(c.path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("invalidate cache %s: %w", c.path, model.ErrNotFound)
		}
		return fmt.Errorf("invalidate cache %s: %w: %w", c.path, model.ErrCache, err)
	}
	c.log.Info().Msg("cache invalidated")
	return nil
}
