// Package storage provides the same-day file cache for remote API artifacts.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/quantfold/etfscope/internal/common"
	"github.com/quantfold/etfscope/internal/models"
)

// Kind identifies the artifact class a cache entry belongs to.
type Kind string

const (
	KindListing Kind = "listing" // active-securities table (tabular)
	KindProfile Kind = "profile" // fund profile (structured)
	KindSeries  Kind = "series"  // raw time series (structured)
	KindStats   Kind = "stats"   // analytics payload (structured)
)

// Key addresses one cached artifact: what it is, which symbol or fund it
// covers, and the business day it was fetched for. Every read and write in
// a single request uses the same Day, which is what makes repeated requests
// on the same day free of remote calls.
type Key struct {
	Kind  Kind
	Scope string
	Day   string
}

func (k Key) filename(ext string) string {
	name := fmt.Sprintf("%s_%s_%s%s", k.Kind, k.Scope, k.Day, ext)
	return sanitizeName(name)
}

// sanitizeName makes a key segment safe for use as a filename.
// Replaces /, \, : with _ and collapses ".." to "_" to prevent path traversal.
func sanitizeName(name string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "..", "_")
	return r.Replace(name)
}

// CacheStore is a file-backed, format-aware store. Tabular artifacts are CSV
// with a header row; structured artifacts are JSON. Both remain readable and
// writable outside the pipeline for inspection or seeding.
//
// CacheStore is not safe for concurrent writers against the same key; the
// pipeline runs single-writer per deployment.
type CacheStore struct {
	basePath string
	logger   *common.Logger
}

// NewCacheStore creates a CacheStore rooted at basePath, creating the
// directory if absent.
func NewCacheStore(logger *common.Logger, basePath string) (*CacheStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", basePath, err)
	}

	logger.Debug().Str("path", basePath).Msg("cache store opened")
	return &CacheStore{basePath: basePath, logger: logger}, nil
}

// path returns the full path for a key with the given extension.
func (c *CacheStore) path(key Key, ext string) string {
	return filepath.Join(c.basePath, key.filename(ext))
}

// LoadTable loads a tabular artifact. A missing file is a plain miss, not an
// error; an unreadable or malformed file is logged and treated as a miss so
// corruption can never take the pipeline down.
func (c *CacheStore) LoadTable(key Key) (*models.Table, bool) {
	path := c.path(key, ".csv")
	f, err := os.Open(path)
	if err != nil {
		if !os.IsNotExist(err) {
			c.logger.Warn().Err(err).Str("path", path).Msg("cache read failed, treating as miss")
		}
		return nil, false
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil || len(records) == 0 {
		c.logger.Warn().Err(err).Str("path", path).Msg("corrupt tabular cache entry, treating as miss")
		return nil, false
	}

	c.logger.Debug().Str("path", path).Int("rows", len(records)-1).Msg("cache hit")
	return &models.Table{Header: records[0], Rows: records[1:]}, true
}

// StoreTable writes a tabular artifact as CSV with a header row.
func (c *CacheStore) StoreTable(key Key, table *models.Table) error {
	if table == nil {
		return fmt.Errorf("cannot store nil table for %s", key.filename(".csv"))
	}

	records := make([][]string, 0, len(table.Rows)+1)
	records = append(records, table.Header)
	records = append(records, table.Rows...)

	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if err := w.WriteAll(records); err != nil {
		return fmt.Errorf("failed to encode table: %w", err)
	}

	return c.writeAtomic(c.path(key, ".csv"), []byte(sb.String()))
}

// LoadJSON loads a structured artifact into dest. Miss and corruption
// semantics match LoadTable.
func (c *CacheStore) LoadJSON(key Key, dest interface{}) bool {
	path := c.path(key, ".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			c.logger.Warn().Err(err).Str("path", path).Msg("cache read failed, treating as miss")
		}
		return false
	}
	if len(data) == 0 {
		c.logger.Warn().Str("path", path).Msg("empty cache entry, treating as miss")
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.Warn().Err(err).Str("path", path).Msg("corrupt structured cache entry, treating as miss")
		return false
	}

	c.logger.Debug().Str("path", path).Msg("cache hit")
	return true
}

// StoreJSON writes a structured artifact as indented JSON.
func (c *CacheStore) StoreJSON(key Key, data interface{}) error {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	jsonData = append(jsonData, '\n')

	return c.writeAtomic(c.path(key, ".json"), jsonData)
}

// writeAtomic writes data via a temp file in the same directory plus rename,
// so readers never observe a partial artifact.
func (c *CacheStore) writeAtomic(target string, data []byte) error {
	tmpFile, err := os.CreateTemp(c.basePath, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// PurgeStale removes every artifact whose cache-day differs from day and
// returns the count removed. Run once at session start: prior days' entries
// can never be read again (their quota is spent), so this bounds growth.
func (c *CacheStore) PurgeStale(day string) int {
	entries, err := os.ReadDir(c.basePath)
	if err != nil {
		c.logger.Warn().Err(err).Str("path", c.basePath).Msg("cache purge skipped")
		return 0
	}

	count := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".tmp-") {
			continue
		}
		if strings.Contains(name, "_"+day+".") {
			continue
		}
		if err := os.Remove(filepath.Join(c.basePath, name)); err != nil {
			c.logger.Warn().Err(err).Str("file", name).Msg("failed to remove stale cache entry")
			continue
		}
		count++
	}

	if count > 0 {
		c.logger.Info().Int("removed", count).Str("day", day).Msg("purged stale cache entries")
	}
	return count
}
