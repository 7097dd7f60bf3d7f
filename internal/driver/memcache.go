package driver

import (
	"sync"

	"borrowck/internal/diag"
)

// minimal per-process cache by file path + content hash
type memEntry struct {
	key   Digest
	diags []diag.Diagnostic
}

// MemCache short-circuits repeated checks of the same file within one
// process, e.g. a host re-running the pipeline over an unchanged module.
type MemCache struct {
	mu     sync.RWMutex
	byPath map[string]memEntry
}

// NewMemCache creates a MemCache with the given capacity hint.
func NewMemCache(capHint int) *MemCache {
	return &MemCache{byPath: make(map[string]memEntry, capHint)}
}

// Get retrieves cached diagnostics for a path when the key still matches.
func (c *MemCache) Get(path string, key Digest) ([]diag.Diagnostic, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	rec, ok := c.byPath[path]
	c.mu.RUnlock()
	if !ok || rec.key != key {
		return nil, false
	}
	return rec.diags, true
}

// Put inserts diagnostics for a path, replacing any stale entry.
func (c *MemCache) Put(path string, key Digest, diags []diag.Diagnostic) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.byPath[path] = memEntry{key: key, diags: diags}
	c.mu.Unlock()
}
