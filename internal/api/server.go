package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"voxlingo/pkg/logging"
	"voxlingo/pkg/version"
)

// NewServer creates and configures the HTTP server.
// It accepts handlers for all API endpoints and a shutdownFunc for graceful shutdown.
func NewServer(addr string, audioH *AudioHandler, speechH *SpeechHandler, storageH *StorageHandler, stats *StatsHandler, shutdown func()) *http.Server {
	mux := http.NewServeMux()

	// 1. Health Endpoint
	mux.HandleFunc("GET /health", handleHealth)

	// 2. Version Endpoint
	mux.HandleFunc("GET /api/version", handleVersion)

	// 3. Resolution Endpoints
	mux.HandleFunc("POST /api/audio/resolve", audioH.HandleResolve)
	mux.HandleFunc("POST /api/audio/stop", audioH.HandleStop)
	mux.HandleFunc("GET /api/audio/status", audioH.HandleStatus)
	mux.HandleFunc("GET /api/audio/info", audioH.HandleInfo)
	mux.HandleFunc("GET /api/lessons/{id}/audio", audioH.HandleLessonAudio)
	mux.HandleFunc("GET /api/categories/{category}/audio", audioH.HandleCategoryAudio)
	mux.HandleFunc("POST /api/system/test", audioH.HandleSystemTest)
	mux.HandleFunc("GET /api/voices", handleVoices)

	// 4. Local Speech Endpoint
	if speechH != nil {
		mux.HandleFunc("POST /api/audio/speak", speechH.HandleSpeak)
	}

	// 5. Storage Endpoints
	if storageH != nil {
		mux.HandleFunc("GET /api/storage", storageH.HandleInfo)
		mux.HandleFunc("DELETE /api/audio/{file}", storageH.HandleDelete)
	}

	// 6. Stats Endpoint
	if stats != nil {
		mux.Handle("GET /api/stats", stats)
	}

	// 7. Logs Endpoint
	mux.HandleFunc("GET /api/log/latest", handleLatestLog)

	// 8. Shutdown Endpoint
	mux.HandleFunc("POST /api/shutdown", func(w http.ResponseWriter, r *http.Request) {
		slog.Info("Graceful shutdown initiated via API")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("Shutting down...")); err != nil {
			slog.Error("Failed to write shutdown response", "error", err)
		}
		// Call shutdown in a goroutine to allow response to flush
		go func() {
			time.Sleep(100 * time.Millisecond)
			shutdown()
		}()
	})

	return &http.Server{
		Addr:         addr,
		Handler:      logRequests(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// logRequests writes one line per request to the requests logger.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		if logging.RequestLogger != nil {
			logging.RequestLogger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"duration", time.Since(start).String(),
			)
		}
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Error("Failed to write health response", "error", err)
	}
}

func handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := fmt.Fprintf(w, `{"version": "%s"}`, version.Version); err != nil {
		slog.Error("Failed to write version response", "error", err)
	}
}
