package server

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/nicktill/coltsdb/internal/table"
	"github.com/nicktill/coltsdb/pkg/compaction"
	"github.com/nicktill/coltsdb/pkg/config"
	"github.com/nicktill/coltsdb/pkg/planner"
	"github.com/nicktill/coltsdb/pkg/query"
	"github.com/nicktill/coltsdb/pkg/server/monitor"
	"github.com/nicktill/coltsdb/pkg/transport"
)

const (
	// rollup5mDelay is how long a window must have aged before its raw
	// rows are folded into 5-minute buckets; rollup1hDelay is the same for
	// folding 5-minute buckets into 1-hour ones.
	rollup5mDelay = 1 * time.Hour
	rollup1hDelay = 24 * time.Hour
)

// RunCompaction runs the 5m/1h rollup jobs periodically, advancing a
// watermark past each window once it's been compacted so the same rows
// aren't folded twice on every tick — compaction itself has no notion of
// "already done" built in, since it operates purely on whatever rows are in
// the table when called.
func RunCompaction(compactor *compaction.Compactor, mon *monitor.CompactionMonitor, stop chan bool, wg *sync.WaitGroup) {
	defer wg.Done()

	ticker := time.NewTicker(config.CompactionInterval)
	defer ticker.Stop()

	var watermark5m, watermark1h uint64

	runWithRetry := func(isInitial bool) {
		maxRetries := 3
		baseDelay := 30 * time.Second

		for attempt := 0; attempt <= maxRetries; attempt++ {
			if attempt > 0 {
				delay := baseDelay * time.Duration(1<<(attempt-1))
				log.Printf("Retrying compaction in %v (attempt %d/%d)...", delay, attempt+1, maxRetries+1)
				select {
				case <-time.After(delay):
				case <-stop:
					return
				}
			}

			start := time.Now()
			now := uint64(start.UnixMilli())

			end5m := now - uint64(rollup5mDelay.Milliseconds())
			end1h := now - uint64(rollup1hDelay.Milliseconds())

			var err error
			var rows5m, rows1h int
			if end5m > watermark5m {
				if rows5m, err = compactor.Compact5m(watermark5m, end5m); err == nil {
					watermark5m = end5m
				}
			}
			if err == nil && end1h > watermark1h {
				if rows1h, err = compactor.Compact1h(watermark1h, end1h); err == nil {
					watermark1h = end1h
				}
			}

			if err == nil {
				mon.RecordSuccess(rows5m, rows1h)
				if isInitial {
					log.Printf("Initial compaction completed in %v", time.Since(start).Round(time.Millisecond))
				} else {
					log.Printf("Compaction completed in %v (%d 5m rows, %d 1h rows appended)",
						time.Since(start).Round(time.Millisecond), rows5m, rows1h)
				}
				return
			}

			mon.RecordFailure(err)
			log.Printf("Compaction failed (attempt %d/%d): %v", attempt+1, maxRetries+1, err)

			status := mon.Status()
			if status.ConsecutiveErrors > 3 {
				log.Printf("ALERT: Compaction has been failing! Consecutive errors: %d", status.ConsecutiveErrors)
			}
		}

		log.Printf("Compaction failed after %d attempts, will retry on next schedule", maxRetries+1)
	}

	go func() {
		log.Println("Running initial compaction (raw -> 5m -> 1h rollups)...")
		runWithRetry(true)
	}()

	for {
		select {
		case <-ticker.C:
			log.Println("Scheduled compaction started...")
			runWithRetry(false)
		case <-stop:
			log.Println("Stopping compaction scheduler")
			return
		}
	}
}

// BroadcastQueryResults periodically plans and runs a short, all-metrics
// live query and streams its StepResults to any connected WebSocket
// clients. Querying is skipped entirely when no client is connected.
func BroadcastQueryResults(ctx context.Context, tbl *table.Table, executor *planner.Executor, hub *transport.ResultHub) {
	ticker := time.NewTicker(config.QueryBroadcastTick)
	defer ticker.Stop()

	var consecutiveErrors int
	var lastErrorTime time.Time
	const maxBackoff = 5 * time.Minute

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !hub.HasClients() {
				continue
			}

			metrics := tbl.Metrics()
			if len(metrics) == 0 {
				continue
			}

			now := time.Now()
			q := query.Query{
				StartSec:   uint64(now.Add(-config.QueryBroadcastWindow).Unix()),
				EndSec:     uint64(now.Unix()),
				ChunkSzSec: uint64(config.QueryBroadcastWindow.Seconds()),
			}
			for _, m := range metrics {
				q.Metrics = append(q.Metrics, query.QMetric{
					Name: m,
					Agg:  []query.AggKind{query.AggAvg, query.AggMin, query.AggMax, query.AggSum},
				})
			}

			steps := planner.Plan(q)
			var broadcastErr error
			for result := range executor.Run(ctx, tbl, steps) {
				if err := hub.BroadcastResult(result); err != nil {
					broadcastErr = err
				}
			}

			if broadcastErr != nil {
				consecutiveErrors++
				backoff := time.Duration(1<<uint(min(consecutiveErrors-1, 8))) * time.Second
				if backoff > maxBackoff {
					backoff = maxBackoff
				}
				if lastErrorTime.IsZero() || now.Sub(lastErrorTime) >= backoff {
					log.Printf("Failed to broadcast query results (error #%d, backoff %v): %v",
						consecutiveErrors, backoff, broadcastErr)
					lastErrorTime = now
				}
				continue
			}

			if consecutiveErrors > 0 {
				log.Printf("Query broadcast recovered after %d errors", consecutiveErrors)
				consecutiveErrors = 0
			}
		}
	}
}

// min returns the minimum of two integers.
func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
