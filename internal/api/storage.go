package api

import (
	"log/slog"
	"net/http"

	"voxlingo/pkg/store"
)

// StorageHandler handles the storage endpoints.
type StorageHandler struct {
	store store.AudioStore
}

// NewStorageHandler creates a new StorageHandler.
func NewStorageHandler(st store.AudioStore) *StorageHandler {
	return &StorageHandler{store: st}
}

// StorageResponse is the body of GET /api/storage.
type StorageResponse struct {
	Available  bool  `json:"available"`
	FileCount  int   `json:"file_count"`
	TotalBytes int64 `json:"total_bytes"`
}

// HandleInfo handles GET /api/storage.
func (h *StorageHandler) HandleInfo(w http.ResponseWriter, r *http.Request) {
	resp := StorageResponse{Available: h.store.Ping(r.Context()) == nil}

	if info, err := h.store.StorageInfo(r.Context()); err == nil {
		resp.FileCount = info.FileCount
		resp.TotalBytes = info.TotalBytes
	} else {
		slog.Warn("Storage info unavailable", "error", err)
	}

	writeJSON(w, resp)
}

// HandleDelete handles DELETE /api/audio/{file}.
func (h *StorageHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	file := r.PathValue("file")
	if file == "" {
		http.Error(w, "file is required", http.StatusBadRequest)
		return
	}

	if err := h.store.Delete(r.Context(), file); err != nil {
		slog.Error("Delete failed", "file", file, "error", err)
		http.Error(w, "delete failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]string{"status": "ok"})
}
