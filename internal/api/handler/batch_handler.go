package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"go-cheque-batch/internal/export"
	"go-cheque-batch/internal/guard"
	"go-cheque-batch/internal/logging"
	"go-cheque-batch/internal/model"
	"go-cheque-batch/internal/orchestrator"
	"go-cheque-batch/internal/source"
	"go-cheque-batch/internal/store"
)

// Handler serves the batch API. All collaborators are injected; the handler
// holds no package-level state.
type Handler struct {
	store *store.Store
	orch  *orchestrator.Orchestrator
	guard *guard.SubmissionGuard
	files *export.Exporter
	log   *logging.Logger
}

// New creates the batch API handler.
func New(st *store.Store, orch *orchestrator.Orchestrator, g *guard.SubmissionGuard, files *export.Exporter, log *logging.Logger) *Handler {
	return &Handler{store: st, orch: orch, guard: g, files: files, log: log}
}

// SubmitBatch accepts a batch manifest and starts orchestration
// @Summary Submit a new batch
// @Description Accept a cheque batch manifest, create the batch in QUEUED state, and start asynchronous processing
// @Tags batches
// @Accept json
// @Produce json
// @Param batch body model.SubmitBatchRequest true "Batch manifest and scheduler options"
// @Success 202 {object} map[string]interface{} "Batch accepted"
// @Failure 400 {object} map[string]interface{} "Invalid or empty manifest"
// @Failure 429 {object} map[string]interface{} "Rate limited"
// @Router /batches [post]
func (h *Handler) SubmitBatch(w http.ResponseWriter, r *http.Request) {
	var req model.SubmitBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_PAYLOAD", "invalid JSON payload")
		return
	}

	if err := h.guard.Check(req.ClientID, req.Items); err != nil {
		switch {
		case errors.Is(err, guard.ErrRateLimited):
			writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", err.Error())
		case errors.Is(err, guard.ErrDuplicateBatch):
			writeError(w, http.StatusConflict, "DUPLICATE_BATCH", err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "GUARD_FAILURE", err.Error())
		}
		return
	}

	items, err := source.FromManifest(req.Items).Items(r.Context())
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_MANIFEST", err.Error())
		return
	}

	batchID := uuid.New().String()
	if err := h.orch.Prepare(r.Context(), batchID, items); err != nil {
		var verr *orchestrator.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.Code, verr.Message)
			return
		}
		writeError(w, http.StatusInternalServerError, "CREATE_FAILED", "failed to create batch")
		return
	}

	go func() {
		if err := h.orch.Run(context.Background(), batchID, items, req.Options); err != nil &&
			!errors.Is(err, orchestrator.ErrCancelled) {
			h.log.Error("batch %s: %v", batchID, err)
		}
	}()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"batchId":    batchID,
		"status":     model.BatchQueued,
		"totalItems": len(items),
		"createdAt":  time.Now().UTC(),
	})
}

// ListBatches lists all batches
// @Summary List batches
// @Description List all batches with their progress counters
// @Tags batches
// @Produce json
// @Success 200 {array} model.BatchJob
// @Router /batches [get]
func (h *Handler) ListBatches(w http.ResponseWriter, r *http.Request) {
	batches, err := h.store.ListBatches(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "LIST_FAILED", "failed to fetch batches")
		return
	}
	writeJSON(w, batches)
}

// GetBatch returns one batch
// @Summary Get batch
// @Description Poll one batch's status, progress counters, and (once terminal) risk summary
// @Tags batches
// @Produce json
// @Param id path string true "Batch ID"
// @Success 200 {object} model.BatchJob
// @Failure 404 {object} map[string]interface{} "Batch not found"
// @Router /batches/{id} [get]
func (h *Handler) GetBatch(w http.ResponseWriter, r *http.Request) {
	batchID := pathSegment(r.URL.Path, "/api/v1/batches/", "")
	if batchID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "batch ID is required")
		return
	}
	batch, err := h.store.GetBatch(r.Context(), batchID)
	if err != nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "batch not found")
		return
	}
	writeJSON(w, batch)
}

// GetItems lists a batch's items
// @Summary Get batch items
// @Description List per-item statuses, retry counts, and results for one batch
// @Tags batches
// @Produce json
// @Param id path string true "Batch ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{} "Batch not found"
// @Router /batches/{id}/items [get]
func (h *Handler) GetItems(w http.ResponseWriter, r *http.Request) {
	batchID := pathSegment(r.URL.Path, "/api/v1/batches/", "/items")
	if _, err := h.store.GetBatch(r.Context(), batchID); err != nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "batch not found")
		return
	}
	items, err := h.store.GetItems(r.Context(), batchID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "ITEMS_FAILED", "failed to fetch items")
		return
	}
	writeJSON(w, map[string]interface{}{
		"batchId": batchID,
		"items":   items,
		"count":   len(items),
	})
}

// GetReport returns the finalized batch report
// @Summary Get batch report
// @Description Retrieve the aggregated risk summary of a finalized batch together with export download URLs
// @Tags batches
// @Produce json
// @Param id path string true "Batch ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{} "Batch not found"
// @Failure 409 {object} map[string]interface{} "Batch not finalized yet"
// @Router /batches/{id}/report [get]
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	batchID := pathSegment(r.URL.Path, "/api/v1/batches/", "/report")
	batch, err := h.store.GetBatch(r.Context(), batchID)
	if err != nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "batch not found")
		return
	}
	if batch.RiskSummary == nil {
		writeError(w, http.StatusConflict, "NOT_FINALIZED", "batch has no report yet")
		return
	}
	writeJSON(w, map[string]interface{}{
		"batchId":   batchID,
		"status":    batch.Status,
		"report":    batch.RiskSummary,
		"downloads": h.files.DownloadURLs(batchID),
	})
}

// GetBatchErrors lists recorded batch errors
// @Summary Get batch errors
// @Description List errors recorded during batch orchestration
// @Tags batches
// @Produce json
// @Param id path string true "Batch ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{} "Batch not found"
// @Router /batches/{id}/errors [get]
func (h *Handler) GetBatchErrors(w http.ResponseWriter, r *http.Request) {
	batchID := pathSegment(r.URL.Path, "/api/v1/batches/", "/errors")
	if _, err := h.store.GetBatch(r.Context(), batchID); err != nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "batch not found")
		return
	}
	errs, err := h.store.GetBatchErrors(r.Context(), batchID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "ERRORS_FAILED", "failed to fetch errors")
		return
	}
	writeJSON(w, map[string]interface{}{
		"batchId": batchID,
		"errors":  errs,
		"count":   len(errs),
	})
}

// CancelBatch cancels a running batch
// @Summary Cancel batch
// @Description Best-effort cancellation: the batch is failed immediately, in-flight items finish on their own and are discarded
// @Tags batches
// @Produce json
// @Param id path string true "Batch ID"
// @Success 200 {object} map[string]interface{} "Batch cancelled"
// @Failure 404 {object} map[string]interface{} "Batch not found"
// @Failure 409 {object} map[string]interface{} "Batch already terminal"
// @Router /batches/{id}/cancel [post]
func (h *Handler) CancelBatch(w http.ResponseWriter, r *http.Request) {
	batchID := pathSegment(r.URL.Path, "/api/v1/batches/", "/cancel")
	err := h.orch.Cancel(r.Context(), batchID)
	switch {
	case err == nil:
		writeJSON(w, map[string]interface{}{
			"batchId": batchID,
			"status":  model.BatchFailed,
			"message": "batch cancelled",
		})
	case errors.Is(err, orchestrator.ErrNotCancellable):
		writeError(w, http.StatusConflict, "NOT_CANCELLABLE", err.Error())
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "batch not found")
	}
}

// DownloadFile serves an exported report file
// @Summary Download export file
// @Description Download a previously exported report file for a batch
// @Tags batches
// @Produce octet-stream
// @Param id path string true "Batch ID"
// @Param file path string true "File name"
// @Success 200 {file} file
// @Failure 404 {object} map[string]interface{} "File not found"
// @Router /download/{id}/{file} [get]
func (h *Handler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/download/")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		writeError(w, http.StatusBadRequest, "INVALID_PATH", "expected /download/{batchId}/{file}")
		return
	}
	path, err := h.files.FilePath(parts[0], parts[1])
	if err != nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "file not found")
		return
	}
	http.ServeFile(w, r, path)
}

// pathSegment extracts the batch id between a known prefix and suffix.
func pathSegment(path, prefix, suffix string) string {
	if !strings.HasPrefix(path, prefix) || !strings.HasSuffix(path, suffix) {
		return ""
	}
	return path[len(prefix) : len(path)-len(suffix)]
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"code":    code,
		"message": message,
	})
}
