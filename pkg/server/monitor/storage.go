package monitor

import (
	"sync"
	"time"
)

// TableSizer reports a table.Table's approximate in-memory footprint,
// satisfied by *table.Table's EstimatedBytes method. Defined here rather
// than imported to keep monitor free of a dependency on internal/table.
type TableSizer interface {
	EstimatedBytes() int64
}

// StorageMonitor tracks the in-memory table's size against a configured
// limit, caching the estimate to avoid walking the table on every request.
// Unlike a disk-backed store there's no filesystem to stat; the number
// comes from the table's own row/interner counts instead.
type StorageMonitor struct {
	table         TableSizer
	maxBytes      int64
	cachedUsage   int64
	lastCheck     time.Time
	cacheDuration time.Duration
	mu            sync.Mutex
}

// NewStorageMonitor creates a new storage monitor over tbl.
func NewStorageMonitor(tbl TableSizer, maxBytes int64) *StorageMonitor {
	return &StorageMonitor{
		table:         tbl,
		maxBytes:      maxBytes,
		cacheDuration: 10 * time.Second,
	}
}

// GetUsage returns the estimated storage usage in bytes (cached).
// The cache is refreshed every 10 seconds to balance accuracy with
// performance, since EstimatedBytes walks none of the columns but still
// isn't free to call on every ingest request.
func (sm *StorageMonitor) GetUsage() (int64, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if time.Since(sm.lastCheck) < sm.cacheDuration {
		return sm.cachedUsage, nil
	}

	sm.cachedUsage = sm.table.EstimatedBytes()
	sm.lastCheck = time.Now()
	return sm.cachedUsage, nil
}

// GetLimit returns the configured storage limit in bytes.
func (sm *StorageMonitor) GetLimit() int64 {
	return sm.maxBytes
}
