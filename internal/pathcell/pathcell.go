// Package pathcell holds the note's resolved file path.
// The path is set at most once per process lifetime.
package pathcell

import "sync"

// Cell is a concurrency-safe container whose value can be set at most once.
type Cell struct {
	mu   sync.RWMutex
	path string
	set  bool
}

// New returns an empty Cell.
func New() *Cell {
	return &Cell{}
}

// TryInit attempts the single Unset-to-Set transition. It returns true only
// for the one call that performed it; every later call returns false no
// matter which path it carries. Empty paths are rejected.
func (c *Cell) TryInit(path string) bool {
	if path == "" {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.set {
		return false
	}
	c.path = path
	c.set = true
	return true
}

// Get returns the resolved path, or ("", false) while none is set.
func (c *Cell) Get() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.path, c.set
}
