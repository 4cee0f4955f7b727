package store

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/AI-et-al/janus/catalog"
)

// WatchCatalog invalidates cached catalog copies when the catalog file
// changes on disk. The callback runs on the watcher goroutine for every
// write, create, or rename of the catalog file until ctx is done.
//
// This is for long-running embedders that hold a catalog in memory. The
// janus CLI does not use it: each invocation re-reads the catalog, so a
// watch would never outlive the read.
//
// The watch is on the store root rather than the file itself so that
// editors which replace the file (write to temp, rename over) do not
// silently detach the watch.
func (s *FileStore) WatchCatalog(ctx context.Context, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(s.root); err != nil {
		w.Close()
		return fmt.Errorf("watch %s: %w", s.root, err)
	}

	target := filepath.Base(s.CatalogPath())
	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) != target {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					slog.Debug("catalog file changed", "op", ev.Op.String())
					onChange()
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.Warn("catalog watcher error", "err", err)
			}
		}
	}()
	return nil
}

// CachedCatalog pairs a FileStore with a cached catalog copy that the
// watcher invalidates. Reads after an invalidation reload from disk, so a
// catalog refresh at any time is picked up by the next route.
type CachedCatalog struct {
	fs *FileStore

	mu     sync.Mutex
	loaded bool
	cat    catalog.Catalog
}

// NewCachedCatalog creates the cache and starts the invalidation watch.
func NewCachedCatalog(ctx context.Context, fs *FileStore) (*CachedCatalog, error) {
	c := &CachedCatalog{fs: fs}
	if err := fs.WatchCatalog(ctx, c.Invalidate); err != nil {
		return nil, err
	}
	return c, nil
}

// Get returns the cached catalog, reloading after an invalidation.
func (c *CachedCatalog) Get() (catalog.Catalog, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded {
		cat, err := c.fs.ReadCatalog()
		if err != nil {
			return catalog.Catalog{}, err
		}
		c.cat = cat
		c.loaded = true
	}
	return c.cat, nil
}

// Invalidate drops the cached copy.
func (c *CachedCatalog) Invalidate() {
	c.mu.Lock()
	c.loaded = false
	c.mu.Unlock()
}
