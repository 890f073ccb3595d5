package sitemap

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const indexCacheFile = "sitemap_index.json"

// Cache reads and writes the chunked JSON sitemap cache. Chunk files are
// named {prefix}-{type}-chunk-{n}.json and hold at most chunkSize entries
// each. The threshold (public page size) and the chunk size are independent
// knobs; each public page owns a fixed range of chunk numbers.
type Cache struct {
	dir       string
	prefix    string
	chunkSize int
}

func NewCache(dir, prefix string, chunkSize int) *Cache {
	if chunkSize < 1 {
		chunkSize = 1
	}
	return &Cache{dir: dir, prefix: prefix, chunkSize: chunkSize}
}

// ChunksPerPage returns how many chunk files one public page spans.
func (c *Cache) ChunksPerPage(threshold int) int {
	if threshold < 1 {
		threshold = 1
	}
	return (threshold + c.chunkSize - 1) / c.chunkSize
}

func (c *Cache) chunkPath(typ string, n int) string {
	return filepath.Join(c.dir, fmt.Sprintf("%s-%s-chunk-%d.json", c.prefix, typ, n))
}

// ReadPage reconstructs one public page by concatenating its chunk range in
// ascending order. A missing or unreadable chunk contributes zero entries; a
// partially built cache serves a short page rather than failing. The second
// return is false only when not a single chunk in the range existed.
func (c *Cache) ReadPage(typ string, page, threshold int) ([]Entry, bool) {
	if page < 1 {
		return []Entry{}, false
	}

	perPage := c.ChunksPerPage(threshold)
	start := (page-1)*perPage + 1
	end := page * perPage

	entries := []Entry{}
	found := false
	for n := start; n <= end; n++ {
		chunk, ok := c.readChunk(typ, n)
		if !ok {
			continue
		}
		found = true
		entries = append(entries, chunk...)
	}
	return entries, found
}

func (c *Cache) readChunk(typ string, n int) ([]Entry, bool) {
	raw, err := os.ReadFile(c.chunkPath(typ, n))
	if err != nil {
		return nil, false
	}
	var entries []Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, false
	}
	return entries, true
}

// WritePage slices one public page's entries into its chunk range. Chunk
// numbers in the range with no entries left to hold are not written.
func (c *Cache) WritePage(typ string, page, threshold int, entries []Entry) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	perPage := c.ChunksPerPage(threshold)
	start := (page-1)*perPage + 1

	for i := 0; i < len(entries); i += c.chunkSize {
		endIdx := i + c.chunkSize
		if endIdx > len(entries) {
			endIdx = len(entries)
		}
		n := start + i/c.chunkSize
		raw, err := json.Marshal(entries[i:endIdx])
		if err != nil {
			return fmt.Errorf("encode chunk %d: %w", n, err)
		}
		if err := os.WriteFile(c.chunkPath(typ, n), raw, 0o644); err != nil {
			return fmt.Errorf("write chunk %d: %w", n, err)
		}
	}
	return nil
}

// ClearType removes every chunk file of a type.
func (c *Cache) ClearType(typ string) error {
	pattern := filepath.Join(c.dir, fmt.Sprintf("%s-%s-chunk-*.json", c.prefix, typ))
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return err
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil {
			return err
		}
	}
	return nil
}

// WriteIndex stores the sitemap index entries.
func (c *Cache) WriteIndex(entries []IndexEntry) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	return os.WriteFile(filepath.Join(c.dir, indexCacheFile), raw, 0o644)
}

// ReadIndex loads the cached sitemap index, reporting whether it existed.
func (c *Cache) ReadIndex() ([]IndexEntry, bool) {
	raw, err := os.ReadFile(filepath.Join(c.dir, indexCacheFile))
	if err != nil {
		return nil, false
	}
	var entries []IndexEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, false
	}
	return entries, true
}
