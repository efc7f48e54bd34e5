package cache

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/openfolio/postfeed/internal/config"
)

// Snapshots let repeated CLI invocations against the same filter query reuse
// already-fetched pages. The engine itself never reads or writes them; only
// command wiring does. Keyed by the generation query string so a filter
// change naturally misses.

func snapshotPath(generationKey string) string {
	sum := sha256.Sum256([]byte(generationKey))
	return filepath.Join(config.SnapshotDir(), fmt.Sprintf("%x.json.zst", sum))
}

// Meta is the pagination metadata stored alongside the pages, so a warm
// start knows the collection totals without refetching.
type Meta struct {
	TotalPages int `json:"total_pages"`
	TotalItems int `json:"total_items"`
}

type snapshotFile struct {
	Meta  Meta    `json:"meta"`
	Pages []*Page `json:"pages"`
}

// SaveSnapshot compresses and writes the cache contents to disk.
func (c *Cache) SaveSnapshot(generationKey string, meta Meta) error {
	dir := config.SnapshotDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating snapshot dir: %w", err)
	}

	f, err := os.Create(snapshotPath(generationKey))
	if err != nil {
		return fmt.Errorf("creating snapshot file: %w", err)
	}
	defer f.Close()

	w, err := zstd.NewWriter(f)
	if err != nil {
		return fmt.Errorf("creating zstd writer: %w", err)
	}

	if err := json.NewEncoder(w).Encode(snapshotFile{Meta: meta, Pages: c.sorted()}); err != nil {
		w.Close()
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing zstd writer: %w", err)
	}
	return nil
}

// LoadSnapshot reads a previously saved snapshot into an empty cache.
// Returns ok=false without error when no snapshot exists for the key.
func (c *Cache) LoadSnapshot(generationKey string) (Meta, bool, error) {
	f, err := os.Open(snapshotPath(generationKey))
	if err != nil {
		if os.IsNotExist(err) {
			return Meta{}, false, nil
		}
		return Meta{}, false, fmt.Errorf("opening snapshot file: %w", err)
	}
	defer f.Close()

	r, err := zstd.NewReader(f)
	if err != nil {
		return Meta{}, false, fmt.Errorf("creating zstd reader: %w", err)
	}
	defer r.Close()

	var snap snapshotFile
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return Meta{}, false, fmt.Errorf("decoding snapshot: %w", err)
	}

	for _, p := range snap.Pages {
		c.Put(p.Number, p)
	}
	return snap.Meta, true, nil
}

// ClearSnapshots removes the snapshot directory entirely.
func ClearSnapshots() error {
	if err := os.RemoveAll(config.SnapshotDir()); err != nil {
		return fmt.Errorf("removing snapshot dir: %w", err)
	}
	return nil
}
