package httpapp

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Paidguy/SpotiFLAC-web/internal/constants"
	"github.com/Paidguy/SpotiFLAC-web/internal/domain"
	"github.com/Paidguy/SpotiFLAC-web/internal/http/dto"
)

func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	var req domain.DownloadRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	id, err := h.Admission.Enqueue(req)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, dto.DownloadResponse{
		Success: true,
		Message: constants.MessageQueued,
		ItemID:  id,
	})
}

func (h *Handler) QueueSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Queue.Snapshot())
}

func (h *Handler) QueueItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.Queue.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *Handler) DownloadProgress(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Queue.Snapshot().Progress())
}

func (h *Handler) CancelQueued(w http.ResponseWriter, r *http.Request) {
	n, err := h.Queue.CancelQueued(r.Context())
	h.logWarning(err)
	writeJSON(w, http.StatusOK, dto.Cancelled(n))
}

func (h *Handler) SkipItem(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("item_id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "item_id is required")
		return
	}

	err := h.Queue.SkipQueued(r.Context(), id, r.URL.Query().Get("file_path"))
	if err != nil && !isHistoryWarning(err) {
		h.writeDomainError(w, r, err)
		return
	}
	h.logWarning(err)
	writeJSON(w, http.StatusOK, dto.OK())
}

func (h *Handler) ClearCompleted(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.Removed(h.Queue.ClearCompleted()))
}

func (h *Handler) ClearAll(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.Removed(h.Queue.ClearAll()))
}

func (h *Handler) ExportFailed(w http.ResponseWriter, r *http.Request) {
	report, err := h.Queue.ExportFailed(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewExportResponse(report))
}

func isHistoryWarning(err error) bool {
	var warn *domain.HistoryWriteWarning
	return errors.As(err, &warn)
}

// logWarning reports non-fatal history write failures from a completed operation.
func (h *Handler) logWarning(err error) {
	if err != nil {
		h.Logger.Warn("History write failed", "error", err)
	}
}
