package snapshot

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

// BadgerSink persists snapshot rows to an on-disk BadgerDB instance with a
// memory-conscious configuration. It is a snapshot destination a caller
// opts into, not the table's storage layer: nothing reads from it
// automatically, and the Table itself remains purely in-memory.
type BadgerSink struct {
	db *badger.DB
}

// BadgerConfig configures a BadgerSink.
type BadgerConfig struct {
	Path        string
	InMemory    bool
	MaxMemoryMB int64
}

// OpenBadgerSink opens (or creates) a BadgerDB-backed snapshot sink at cfg.Path.
func OpenBadgerSink(cfg BadgerConfig) (*BadgerSink, error) {
	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = opts.WithInMemory(true)
	}

	var memTableSize int64
	if cfg.MaxMemoryMB > 0 {
		memTableSize = cfg.MaxMemoryMB * 1024 * 1024 / 3
	} else {
		memTableSize = 16 * 1024 * 1024
	}
	blockCacheSize := memTableSize / 2
	indexCacheSize := memTableSize / 4

	opts = opts.
		WithCompression(options.Snappy).
		WithNumVersionsToKeep(1).
		WithMemTableSize(memTableSize).
		WithNumMemtables(3).
		WithBlockCacheSize(blockCacheSize).
		WithIndexCacheSize(indexCacheSize).
		WithMaxLevels(4).
		WithNumLevelZeroTables(2).
		WithNumLevelZeroTablesStall(4).
		WithValueThreshold(1024).
		WithNumCompactors(2).
		WithValueLogFileSize(64 << 20)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("snapshot: open badger: %w", err)
	}
	return &BadgerSink{db: db}, nil
}

// Close releases the underlying BadgerDB handle.
func (b *BadgerSink) Close() error {
	return b.db.Close()
}

// RunGC reclaims value-log space and should be scheduled periodically
// against a long-lived sink.
func (b *BadgerSink) RunGC(discardRatio float64) error {
	return b.db.RunValueLogGC(discardRatio)
}

// rowKey hashes (metric, timestamp, ordinal) into a compact, collision-
// resistant badger key.
func rowKey(metric string, timestamp uint64, ordinal int) []byte {
	h := xxhash.New()
	_, _ = h.Write([]byte(metric))
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[0:8], timestamp)
	binary.BigEndian.PutUint64(buf[8:16], uint64(ordinal))
	_, _ = h.Write(buf[:])
	sum := h.Sum64()

	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, sum)
	return key
}

// WriteManifest persists every row of manifest as its own badger entry.
func (b *BadgerSink) WriteManifest(manifest *Manifest) error {
	return b.db.Update(func(txn *badger.Txn) error {
		for i, row := range manifest.Rows {
			data, err := json.Marshal(row)
			if err != nil {
				return fmt.Errorf("snapshot: marshal row %d: %w", i, err)
			}
			if err := txn.Set(rowKey(row.Metric, row.Timestamp, i), data); err != nil {
				return fmt.Errorf("snapshot: write row %d: %w", i, err)
			}
		}
		return nil
	})
}

// ReadAll loads every row currently stored in the sink.
func (b *BadgerSink) ReadAll() ([]Row, error) {
	var rows []Row
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			var row Row
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &row)
			})
			if err != nil {
				return fmt.Errorf("snapshot: decode row: %w", err)
			}
			rows = append(rows, row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}
