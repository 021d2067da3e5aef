package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"voxlingo/pkg/model"
	"voxlingo/pkg/resolver"
	"voxlingo/pkg/store"
	"voxlingo/pkg/synth"
)

// AudioService is the resolution capability the handlers depend on.
type AudioService interface {
	Resolve(ctx context.Context, text string, opts resolver.Options) (bool, error)
	StopAudio()
	IsAudioPlaying() bool
	AudioInfo(ctx context.Context, text string) (*model.AudioAsset, error)
	LessonAudio(ctx context.Context, lessonID string) ([]*model.AudioAsset, error)
	CategoryAudio(ctx context.Context, category model.Category) ([]*model.AudioAsset, error)
	TestSystem(ctx context.Context) bool
}

// AudioHandler handles the audio resolution endpoints.
type AudioHandler struct {
	engine   AudioService
	defaults resolver.Options
}

// NewAudioHandler creates a new AudioHandler. defaults fill request fields
// the caller leaves out.
func NewAudioHandler(engine AudioService, defaults resolver.Options) *AudioHandler {
	return &AudioHandler{engine: engine, defaults: defaults}
}

// ResolveRequest is the body of POST /api/audio/resolve.
type ResolveRequest struct {
	Text            string `json:"text"`
	VoicePreference string `json:"voice_preference,omitempty"`
	FallbackToTTS   *bool  `json:"fallback_to_tts,omitempty"`
	Category        string `json:"category,omitempty"`
	LessonID        string `json:"lesson_id,omitempty"`
}

// ResolveResponse reports the outcome of a resolution.
type ResolveResponse struct {
	Status string `json:"status"`
	Played bool   `json:"played"`
	Reason string `json:"reason,omitempty"`
}

// HandleResolve handles POST /api/audio/resolve.
func (h *AudioHandler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Text == "" {
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	}

	opts := h.defaults
	if req.VoicePreference != "" {
		opts.VoicePreference = model.VoicePreference(req.VoicePreference)
	}
	if req.Category != "" {
		opts.Category = model.Category(req.Category)
	}
	opts.LessonID = req.LessonID
	if req.FallbackToTTS != nil {
		opts.FallbackToTTS = *req.FallbackToTTS
	}

	played, err := h.engine.Resolve(r.Context(), req.Text, opts)
	resp := ResolveResponse{Status: "ok", Played: played}
	if err != nil {
		resp.Status = "error"
		resp.Reason = resolveReason(err)
	}

	writeJSON(w, resp)
}

// resolveReason maps the typed resolution errors to stable reason strings.
func resolveReason(err error) string {
	var perr *synth.ProviderError
	var serr *store.StorageError
	switch {
	case errors.Is(err, store.ErrNotFound):
		return "not_found"
	case errors.As(err, &perr):
		return "generation_failed"
	case errors.As(err, &serr):
		return "storage_failed"
	default:
		return "playback_failed"
	}
}

// HandleStop handles POST /api/audio/stop.
func (h *AudioHandler) HandleStop(w http.ResponseWriter, r *http.Request) {
	h.engine.StopAudio()
	writeJSON(w, map[string]string{"status": "ok"})
}

// HandleStatus handles GET /api/audio/status.
func (h *AudioHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]bool{"is_playing": h.engine.IsAudioPlaying()})
}

// HandleInfo handles GET /api/audio/info?text=...
func (h *AudioHandler) HandleInfo(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("text")
	if text == "" {
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	}

	asset, err := h.engine.AudioInfo(r.Context(), text)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "no recording for text", http.StatusNotFound)
			return
		}
		slog.Error("Audio info lookup failed", "error", err)
		http.Error(w, "lookup failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, asset)
}

// HandleLessonAudio handles GET /api/lessons/{id}/audio.
func (h *AudioHandler) HandleLessonAudio(w http.ResponseWriter, r *http.Request) {
	assets, err := h.engine.LessonAudio(r.Context(), r.PathValue("id"))
	if err != nil {
		slog.Error("Lesson audio lookup failed", "error", err)
		http.Error(w, "lookup failed", http.StatusInternalServerError)
		return
	}
	if assets == nil {
		assets = []*model.AudioAsset{}
	}
	writeJSON(w, assets)
}

// HandleCategoryAudio handles GET /api/categories/{category}/audio.
func (h *AudioHandler) HandleCategoryAudio(w http.ResponseWriter, r *http.Request) {
	category := model.Category(r.PathValue("category"))
	if !category.Valid() {
		http.Error(w, "unknown category", http.StatusBadRequest)
		return
	}

	assets, err := h.engine.CategoryAudio(r.Context(), category)
	if err != nil {
		slog.Error("Category audio lookup failed", "error", err)
		http.Error(w, "lookup failed", http.StatusInternalServerError)
		return
	}
	if assets == nil {
		assets = []*model.AudioAsset{}
	}
	writeJSON(w, assets)
}

// HandleSystemTest handles POST /api/system/test.
func (h *AudioHandler) HandleSystemTest(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]bool{"healthy": h.engine.TestSystem(r.Context())})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
