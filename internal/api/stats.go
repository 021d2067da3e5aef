package api

import (
	"context"
	"net/http"
	"time"

	"voxlingo/pkg/synth"
	"voxlingo/pkg/tracker"
)

// UsageFunc fetches the provider-side quota snapshot. Nil disables the
// usage section of the stats response.
type UsageFunc func(ctx context.Context) (*synth.Usage, error)

// StatsHandler serves the usage statistics endpoint.
type StatsHandler struct {
	tracker *tracker.Tracker
	usage   UsageFunc
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(t *tracker.Tracker, usage UsageFunc) *StatsHandler {
	return &StatsHandler{tracker: t, usage: usage}
}

// ProviderStatsDTO is the per-provider stats payload.
type ProviderStatsDTO struct {
	CacheHits   int64 `json:"cache_hits"`
	CacheMisses int64 `json:"cache_misses"`
	APISuccess  int64 `json:"api_success"`
	APIFailures int64 `json:"api_errors"`
	HitRate     int64 `json:"hit_rate"`
}

// StatsResponse is the body of GET /api/stats.
type StatsResponse struct {
	Providers map[string]ProviderStatsDTO `json:"providers"`
	Usage     *synth.Usage                `json:"usage,omitempty"`
}

func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	snapshot := h.tracker.Snapshot()

	resp := StatsResponse{
		Providers: make(map[string]ProviderStatsDTO),
	}

	for provider, stats := range snapshot {
		totalCache := stats.CacheHits + stats.CacheMisses
		hitRate := int64(0)
		if totalCache > 0 {
			hitRate = (stats.CacheHits * 100) / totalCache
		}
		resp.Providers[provider] = ProviderStatsDTO{
			CacheHits:   stats.CacheHits,
			CacheMisses: stats.CacheMisses,
			APISuccess:  stats.APISuccess,
			APIFailures: stats.APIFailures,
			HitRate:     hitRate,
		}
	}

	if h.usage != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if usage, err := h.usage(ctx); err == nil {
			resp.Usage = usage
		}
	}

	writeJSON(w, resp)
}
