package api

import (
	"net/http"

	"voxlingo/pkg/voice"
)

// handleVoices handles GET /api/voices.
func handleVoices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, voice.All())
}
