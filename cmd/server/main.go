// Command server runs the columnar time-series store as an HTTP service:
// ingestion, analytical queries, streaming results over WebSocket, periodic
// compaction, and on-demand snapshot export/import.
package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/nicktill/coltsdb/pkg/config"
	"github.com/nicktill/coltsdb/pkg/server"
	"github.com/nicktill/coltsdb/pkg/server/monitor"
)

const (
	serverReadTimeout  = 10 * time.Second
	serverWriteTimeout = 10 * time.Second
	shutdownTimeout    = 30 * time.Second
)

func main() {
	log.Println("Starting coltsdb server...")

	cfg := server.LoadConfig()
	maxStorageBytes := cfg.MaxStorageGB * 1024 * 1024 * 1024
	log.Printf("Configuration: storage limit = %.2f GB, data dir = %s", float64(maxStorageBytes)/(1024*1024*1024), cfg.DataDir)

	tbl := server.InitializeTable()

	storageMonitor := monitor.NewStorageMonitor(tbl, maxStorageBytes)
	log.Printf("Storage limit enforcement enabled: %.2f GB max", float64(maxStorageBytes)/(1024*1024*1024))

	ingestHandler, executor, hub := server.InitializeHandlers(tbl, storageMonitor)

	compactor, compactionMonitor := server.InitializeCompactor(tbl)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		hub.Run(ctx)
	}()
	log.Println("Result hub started for streaming query results")

	wg.Add(1)
	go func() {
		defer wg.Done()
		server.BroadcastQueryResults(ctx, tbl, executor, hub)
	}()
	log.Printf("Query broadcaster started (every %v)", config.QueryBroadcastTick)

	stopCompaction := make(chan bool)
	wg.Add(1)
	go server.RunCompaction(compactor, compactionMonitor, stopCompaction, &wg)

	router := mux.NewRouter()
	server.SetupRoutes(router, tbl, ingestHandler, executor, hub, storageMonitor, compactionMonitor, cfg.Port)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
	}

	go func() {
		log.Printf("Server starting on http://localhost:%s", cfg.Port)
		log.Println("API endpoints:")
		log.Println("   POST /v1/ingest   - Ingest points")
		log.Println("   POST /v1/query    - Run an analytical query")
		log.Println("   GET  /v1/ws       - Stream query results")
		log.Println("   GET  /v1/stats    - Table statistics")
		log.Println("   GET  /v1/export   - Export a snapshot")
		log.Println("   POST /v1/import   - Import a snapshot")
		log.Println("Server ready to accept requests")

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quitCtx, quitCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer quitCancel()
	<-quitCtx.Done()

	log.Println("Shutdown signal received...")

	log.Println("Stopping background tasks...")
	cancel()
	close(stopCompaction)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	log.Println("Gracefully shutting down server...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown warning: %v", err)
	}

	log.Println("Waiting for background tasks to complete...")
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("All background tasks stopped cleanly")
	case <-time.After(5 * time.Second):
		log.Println("Some background tasks did not stop in time (forcing exit)")
	}

	log.Println("coltsdb server exited cleanly")
}
