// Package intern provides content-addressed string interning with O(1)
// identity comparisons and reference counting: metric names and tag
// keys/values are interned once per Table so later filter stages compare
// handles instead of byte slices.
package intern

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

const shardCount = 32

// Handle is an interned string. Two handles produced by the same Interner
// compare equal (by value) if and only if the underlying strings are equal;
// callers that need the original bytes back call String.
type Handle struct {
	s *entry
}

type entry struct {
	value string
	refs  int64
}

// String returns the interned string.
func (h Handle) String() string {
	if h.s == nil {
		return ""
	}
	return h.s.value
}

// Valid reports whether h was produced by an Interner (the zero Handle is not).
func (h Handle) Valid() bool {
	return h.s != nil
}

// Equal reports whether h and other reference the same interned entry.
// Comparing the pointers is sufficient and is the whole point of interning.
func (h Handle) Equal(other Handle) bool {
	return h.s == other.s
}

type shard struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// Interner deduplicates strings into shared, refcounted entries. It is safe
// for concurrent use; lookups are sharded by hash to reduce contention.
type Interner struct {
	shards [shardCount]*shard
}

// New constructs an empty Interner.
func New() *Interner {
	in := &Interner{}
	for i := range in.shards {
		in.shards[i] = &shard{entries: make(map[string]*entry)}
	}
	return in
}

func (in *Interner) shardFor(s string) *shard {
	h := xxhash.Sum64String(s)
	return in.shards[h%shardCount]
}

// Intern returns the Handle for s, creating and registering a new entry the
// first time s is seen and incrementing its refcount on every call thereafter.
func (in *Interner) Intern(s string) Handle {
	sh := in.shardFor(s)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, ok := sh.entries[s]
	if !ok {
		e = &entry{value: s}
		sh.entries[s] = e
	}
	e.refs++
	return Handle{s: e}
}

// Release decrements the refcount on h's entry, dropping the entry from the
// table once no column still references it. Columns that never delete rows
// (the common case here) need not call Release at all.
func (in *Interner) Release(h Handle) {
	if h.s == nil {
		return
	}
	sh := in.shardFor(h.s.value)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	h.s.refs--
	if h.s.refs <= 0 {
		delete(sh.entries, h.s.value)
	}
}

// Refcount returns the live reference count for s, or 0 if s was never
// interned (or has since been fully released). Exposed for tests that assert
// on interning behavior directly.
func (in *Interner) Refcount(s string) int64 {
	sh := in.shardFor(s)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if e, ok := sh.entries[s]; ok {
		return e.refs
	}
	return 0
}

// Len returns the number of distinct strings currently interned.
func (in *Interner) Len() int {
	total := 0
	for _, sh := range in.shards {
		sh.mu.Lock()
		total += len(sh.entries)
		sh.mu.Unlock()
	}
	return total
}
