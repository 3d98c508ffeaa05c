package config

import "time"

// Server defaults
const (
	DefaultPort         = "8080"
	DefaultMaxStorageGB = 1
)

// Compaction intervals
const (
	CompactionInterval = 1 * time.Hour
)

// Query planning and live-broadcast defaults
const (
	QueryBroadcastWindow = 1 * time.Minute
	QueryBroadcastTick   = 5 * time.Second
	ExecutorWorkers      = 8
)

// Snapshot defaults
const (
	DefaultSnapshotDir = "./data/coltsdb"
)

// WebSocket configuration
const (
	WSReadBufferSize  = 1024
	WSWriteBufferSize = 1024
	WSBroadcastBuffer = 256
	WSChannelBuffer   = 10
	WSWriteDeadline   = 10 * time.Second
	WSReadDeadline    = 60 * time.Second
	WSPingInterval    = 30 * time.Second
)
