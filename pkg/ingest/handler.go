package ingest

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/nicktill/coltsdb/internal/table"
	"github.com/nicktill/coltsdb/pkg/httpx"
)

// Handler handles point ingestion via HTTP: validates points, enforces
// cardinality limits, and appends them to a table.Table.
type Handler struct {
	tbl            *table.Table
	cardinality    *CardinalityTracker
	storageChecker StorageLimitChecker
}

// StorageLimitChecker reports current storage usage for limit enforcement,
// implemented by pkg/server/monitor.
type StorageLimitChecker interface {
	GetUsage() (int64, error)
	GetLimit() int64
}

// NewHandler returns a Handler appending ingested points into tbl.
func NewHandler(tbl *table.Table) *Handler {
	return &Handler{
		tbl:         tbl,
		cardinality: NewCardinalityTracker(),
	}
}

// SetStorageChecker configures storage limit checking. If set, HandleIngest
// rejects new points once usage reaches the configured limit.
func (h *Handler) SetStorageChecker(checker StorageLimitChecker) {
	h.storageChecker = checker
}

// IngestRequest is the payload for POST /v1/ingest.
type IngestRequest struct {
	Points []table.Point `json:"points"`
}

// IngestResponse is the response for ingestion endpoints.
type IngestResponse struct {
	Status  string `json:"status"`
	Count   int    `json:"count"`
	Message string `json:"message,omitempty"`
}

// HandleIngest handles POST /v1/ingest: validates and checks cardinality
// for every point, appends the whole batch to the table in one PutStream
// call, and only then records the points' series as seen.
func (h *Handler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpx.RespondErrorString(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return
	}

	if len(req.Points) > MaxPointsPerRequest {
		httpx.RespondError(w, http.StatusBadRequest, ErrTooManyPoints)
		return
	}

	if h.storageChecker != nil {
		currentUsage, err := h.storageChecker.GetUsage()
		if err != nil {
			log.Printf("ingest: failed to check storage usage: %v", err)
		} else if limit := h.storageChecker.GetLimit(); currentUsage >= limit {
			message := fmt.Sprintf("storage limit exceeded: %d/%d bytes used (%.1f%%)",
				currentUsage, limit, float64(currentUsage)/float64(limit)*100)
			httpx.RespondErrorString(w, http.StatusInsufficientStorage, message)
			return
		}
	}

	now := uint64(time.Now().UnixMilli())
	for i := range req.Points {
		for j := range req.Points[i].Vals {
			if req.Points[i].Vals[j].Timestamp == 0 {
				req.Points[i].Vals[j].Timestamp = now
			}
		}

		if err := ValidatePoint(req.Points[i]); err != nil {
			httpx.RespondError(w, http.StatusBadRequest, fmt.Errorf("invalid point at index %d: %w", i, err))
			return
		}
		if err := h.cardinality.Check(req.Points[i]); err != nil {
			httpx.RespondError(w, http.StatusTooManyRequests, fmt.Errorf("cardinality limit exceeded for metric %q: %w", req.Points[i].Metric, err))
			return
		}
	}

	if err := h.tbl.PutStream(req.Points); err != nil {
		httpx.RespondError(w, http.StatusInternalServerError, fmt.Errorf("failed to store points: %w", err))
		return
	}

	for _, p := range req.Points {
		h.cardinality.Record(p)
	}

	httpx.RespondJSON(w, http.StatusOK, IngestResponse{
		Status: "success",
		Count:  len(req.Points),
	})
}

// HandleStats handles GET /v1/stats.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	httpx.RespondJSON(w, http.StatusOK, h.tbl.Stats())
}

// HandleCardinalityStats handles GET /v1/cardinality.
func (h *Handler) HandleCardinalityStats(w http.ResponseWriter, r *http.Request) {
	httpx.RespondJSON(w, http.StatusOK, h.cardinality.Stats())
}
