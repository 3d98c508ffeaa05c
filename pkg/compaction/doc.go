/*
Package compaction implements multi-resolution downsampling of a table.Table's rows.

# What is Downsampling?

Raw metrics consume massive storage. If you collect CPU usage every second for a year:
  - 1 sample/sec × 86,400 sec/day × 365 days = 31.5 million data points

Downsampling aggregates old data into larger time buckets, reducing storage by 240x:

	Raw (1s intervals)     → 100% of original size
	5-minute aggregates    → 5% of original size (20x compression)
	1-hour aggregates      → 0.4% of original size (240x compression)

# How Compaction Works Here

Unlike a typical downsampler, this one never deletes the rows it rolls up.
Every Compact5m/Compact1h call appends new rows carrying the rollup's
statistics; the raw samples (and any intermediate 5m rows) stay exactly
where they were, so compaction grows the table rather than shrinking it.
This gives up the storage savings above for a simpler invariant:
nothing ingested is ever mutated or removed, so a query spanning the rollup
window still sees the original samples alongside the aggregate.

# Aggregate Structure

Each aggregate stores four values to support different query patterns:

	type Aggregate struct {
	    Sum   float64  // Total of all values (for counters)
	    Count uint64   // Number of data points
	    Min   float64  // Minimum value (for anomaly detection)
	    Max   float64  // Maximum value (for peak tracking)
	}

Average is derived on demand (Sum / Count) rather than stored, so it can't
drift out of sync with the values it's computed from.

# How an Aggregate Round-Trips Through a Row

ToSample encodes an Aggregate's statistics as special tags
(__resolution__, __sum__, __count__, __min__, __max__) alongside the
caller's own tags. FromSample reverses it, returning ok=false for any sample
that isn't itself a rollup (i.e. has no __resolution__ tag) — that's how
Compact5m tells a still-raw row from an already-aggregated one when scanning
the table, and how Compact1h picks out 5m rows to fold into 1h buckets
without also re-aggregating raw or 1h rows it happens to scan over.

# Usage Example

	import (
	    "github.com/nicktill/coltsdb/internal/table"
	    "github.com/nicktill/coltsdb/pkg/compaction"
	)

	tbl := table.New()
	// ... ingest samples ...

	compactor := compaction.New(tbl)
	n5m, err := compactor.Compact5m(windowStartMs, windowEndMs)
	n1h, err := compactor.Compact1h(windowStartMs, windowEndMs)

# Compaction Timing

A caller (see pkg/server's background tasks) decides when a window is old
enough to be safely rolled up — compaction itself has no notion of "wait 6
hours" built in, since it operates purely on whatever rows are already in
the table when it's called.

# See Also

  - internal/table for the Table being compacted
  - pkg/server for the periodic compaction trigger
*/
package compaction
