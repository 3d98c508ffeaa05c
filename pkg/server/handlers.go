package server

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/nicktill/coltsdb/internal/snapshot"
	"github.com/nicktill/coltsdb/internal/table"
	"github.com/nicktill/coltsdb/pkg/httpx"
	"github.com/nicktill/coltsdb/pkg/ingest"
	"github.com/nicktill/coltsdb/pkg/planner"
	"github.com/nicktill/coltsdb/pkg/query"
	"github.com/nicktill/coltsdb/pkg/server/monitor"
	"github.com/nicktill/coltsdb/pkg/transport"
)

var startTime = time.Now()

// StorageUsage represents current storage usage stats.
type StorageUsage struct {
	UsedBytes int64 `json:"used_bytes"`
	MaxBytes  int64 `json:"max_bytes"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status     string                   `json:"status"`
	Version    string                   `json:"version"`
	Uptime     string                   `json:"uptime"`
	Compaction monitor.CompactionStatus `json:"compaction"`
}

// handleHealth returns service health status.
func handleHealth(compactionMonitor *monitor.CompactionMonitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		compactionHealthy := compactionMonitor.IsHealthy()
		overallStatus := "healthy"
		statusCode := http.StatusOK

		if !compactionHealthy {
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		response := HealthResponse{
			Status:     overallStatus,
			Version:    "1.0.0",
			Uptime:     time.Since(startTime).String(),
			Compaction: compactionMonitor.Status(),
		}

		httpx.RespondJSON(w, statusCode, response)
	}
}

// handleStorageUsage returns current storage usage.
func handleStorageUsage(mon *monitor.StorageMonitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		usedBytes, err := mon.GetUsage()
		if err != nil {
			httpx.RespondError(w, http.StatusInternalServerError, err)
			return
		}

		usage := StorageUsage{
			UsedBytes: usedBytes,
			MaxBytes:  mon.GetLimit(),
		}

		httpx.RespondJSON(w, http.StatusOK, usage)
	}
}

// handleQueryExecute runs a posted query.Query synchronously: it plans the
// query into PlanSteps, runs every step through the executor, and collects
// every StepResult before responding. /v1/ws does not run posted queries:
// it only streams the periodic all-metrics live query's results.
func handleQueryExecute(tbl *table.Table, executor *planner.Executor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			httpx.RespondError(w, http.StatusBadRequest, fmt.Errorf("reading body: %w", err))
			return
		}

		q, err := query.Decode(body)
		if err != nil {
			httpx.RespondError(w, http.StatusBadRequest, err)
			return
		}

		steps := planner.Plan(q)
		results := make([]planner.StepResult, 0, len(steps))
		for result := range executor.Run(r.Context(), tbl, steps) {
			results = append(results, result)
		}

		httpx.RespondJSON(w, http.StatusOK, results)
	}
}

// handleExport writes every row in tbl as a snapshot.Manifest.
func handleExport(tbl *table.Table) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		exporter := snapshot.NewExporter(tbl)
		w.Header().Set("Content-Type", "application/json")
		if _, err := exporter.ExportToJSON(w); err != nil {
			httpx.RespondError(w, http.StatusInternalServerError, err)
			return
		}
	}
}

// handleImport loads a snapshot.Manifest from the request body into tbl.
func handleImport(tbl *table.Table) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		importer := snapshot.NewImporter(tbl)
		count, err := importer.ImportFromJSON(r.Body)
		if err != nil {
			httpx.RespondError(w, http.StatusBadRequest, err)
			return
		}
		httpx.RespondJSON(w, http.StatusOK, ingest.IngestResponse{
			Status: "success",
			Count:  count,
		})
	}
}

// SetupRoutes configures all HTTP routes for the server.
func SetupRoutes(
	router *mux.Router,
	tbl *table.Table,
	ingestHandler *ingest.Handler,
	executor *planner.Executor,
	hub *transport.ResultHub,
	storageMonitor *monitor.StorageMonitor,
	compactionMonitor *monitor.CompactionMonitor,
	port string,
) {
	router.Use(corsMiddleware(port))

	api := router.PathPrefix("/v1").Subrouter()

	api.HandleFunc("/ingest", ingestHandler.HandleIngest).Methods("POST")
	api.HandleFunc("/query", handleQueryExecute(tbl, executor)).Methods("POST")

	api.HandleFunc("/stats", ingestHandler.HandleStats).Methods("GET")
	api.HandleFunc("/cardinality", ingestHandler.HandleCardinalityStats).Methods("GET")
	api.HandleFunc("/storage", handleStorageUsage(storageMonitor)).Methods("GET")
	api.HandleFunc("/health", handleHealth(compactionMonitor)).Methods("GET")

	api.HandleFunc("/ws", transport.HandleQueryStream(hub)).Methods("GET")

	api.HandleFunc("/export", handleExport(tbl)).Methods("GET")
	api.HandleFunc("/import", handleImport(tbl)).Methods("POST")
}

// corsMiddleware creates CORS middleware that restricts to localhost origins only.
func corsMiddleware(port string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			allowedOrigins := []string{
				"http://localhost:" + port,
				"http://127.0.0.1:" + port,
				"http://localhost:3000",
				"http://127.0.0.1:3000",
			}

			allowed := false
			for _, allowedOrigin := range allowedOrigins {
				if origin == allowedOrigin {
					allowed = true
					break
				}
			}

			if allowed {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
