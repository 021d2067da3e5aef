package api

import (
	"context"
	"encoding/json"
	"net/http"
)

// SpeechService is the local speech fallback capability.
type SpeechService interface {
	Speak(ctx context.Context, text, language string)
}

// SpeechHandler handles the local speech endpoint.
type SpeechHandler struct {
	speaker SpeechService
}

// NewSpeechHandler creates a new SpeechHandler.
func NewSpeechHandler(speaker SpeechService) *SpeechHandler {
	return &SpeechHandler{speaker: speaker}
}

// SpeakRequest is the body of POST /api/audio/speak.
type SpeakRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// HandleSpeak handles POST /api/audio/speak. The fallback chain never
// reports errors; the endpoint mirrors that and always answers ok.
func (h *SpeechHandler) HandleSpeak(w http.ResponseWriter, r *http.Request) {
	var req SpeakRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Text == "" {
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	}

	h.speaker.Speak(r.Context(), req.Text, req.Language)
	writeJSON(w, map[string]string{"status": "ok"})
}
