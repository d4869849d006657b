package httpapp

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Paidguy/SpotiFLAC-web/internal/domain"
	"github.com/Paidguy/SpotiFLAC-web/internal/http/dto"
)

func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	records, err := h.History.ListDownloads(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) DeleteHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.History.DeleteDownload(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.OK())
}

func (h *Handler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.History.ClearDownloads(r.Context()); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.OK())
}

func (h *Handler) ListFetchHistory(w http.ResponseWriter, r *http.Request) {
	records, err := h.History.ListFetches(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) AddFetchHistory(w http.ResponseWriter, r *http.Request) {
	var rec domain.FetchHistoryRecord
	if err := decodeJSON(r, &rec); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	saved, err := h.History.AddFetch(r.Context(), rec)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (h *Handler) DeleteFetchHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.History.DeleteFetch(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.OK())
}

func (h *Handler) DeleteFetchHistoryByType(w http.ResponseWriter, r *http.Request) {
	if err := h.History.DeleteFetchesByType(r.Context(), chi.URLParam(r, "type")); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.OK())
}

func (h *Handler) ClearFetchHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.History.ClearFetches(r.Context()); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.OK())
}

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	raw, err := h.History.Settings(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

func (h *Handler) SaveSettings(w http.ResponseWriter, r *http.Request) {
	var raw json.RawMessage
	if err := decodeJSON(r, &raw); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if err := h.History.SaveSettings(r.Context(), raw); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.OK())
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.OK())
}

func (h *Handler) GetDownloadPath(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.DownloadPathResponse{Path: h.DownloadPath})
}
