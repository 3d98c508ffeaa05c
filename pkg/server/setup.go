package server

import (
	"log"
	"os"
	"strconv"

	"github.com/nicktill/coltsdb/internal/table"
	"github.com/nicktill/coltsdb/pkg/compaction"
	"github.com/nicktill/coltsdb/pkg/config"
	"github.com/nicktill/coltsdb/pkg/ingest"
	"github.com/nicktill/coltsdb/pkg/planner"
	"github.com/nicktill/coltsdb/pkg/server/monitor"
	"github.com/nicktill/coltsdb/pkg/transport"
)

// Config holds server configuration.
type Config struct {
	MaxStorageGB int64
	DataDir      string
	Port         string
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() Config {
	maxStorageGB := getEnvInt64("COLTSDB_MAX_STORAGE_GB", config.DefaultMaxStorageGB)
	port := getPort()

	dataDir := config.DefaultSnapshotDir
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	return Config{
		MaxStorageGB: maxStorageGB,
		DataDir:      dataDir,
		Port:         port,
	}
}

// InitializeTable creates the in-memory columnar store every handler shares.
func InitializeTable() *table.Table {
	return table.New()
}

// InitializeHandlers creates and configures all request handlers.
func InitializeHandlers(
	tbl *table.Table,
	storageMonitor *monitor.StorageMonitor,
) (
	*ingest.Handler,
	*planner.Executor,
	*transport.ResultHub,
) {
	ingestHandler := ingest.NewHandler(tbl)
	ingestHandler.SetStorageChecker(storageMonitor)
	log.Println("Ingest handler created with cardinality protection & storage limits")

	executor := planner.NewExecutor(config.ExecutorWorkers)
	log.Printf("Query executor created (%d workers)", config.ExecutorWorkers)

	hub := transport.NewResultHub()
	log.Println("Result hub created for streaming query results")

	return ingestHandler, executor, hub
}

// InitializeCompactor creates a compactor with health monitoring.
func InitializeCompactor(tbl *table.Table) (*compaction.Compactor, *monitor.CompactionMonitor) {
	compactor := compaction.New(tbl)
	compactionMonitor := &monitor.CompactionMonitor{}
	log.Printf("Compaction engine ready (runs every %v)", config.CompactionInterval)
	return compactor, compactionMonitor
}

// getEnvInt64 gets an int64 from environment variable or returns default.
func getEnvInt64(key string, defaultValue int64) int64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseInt(val, 10, 64); err == nil {
			return parsed
		}
		log.Printf("Invalid value for %s: %q, using default %d", key, val, defaultValue)
	}
	return defaultValue
}

// getPort gets the server port from PORT environment variable or returns default.
func getPort() string {
	if port := os.Getenv("PORT"); port != "" {
		return port
	}
	return config.DefaultPort
}
