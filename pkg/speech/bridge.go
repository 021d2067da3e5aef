package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"voxlingo/pkg/tracker"
	"voxlingo/pkg/version"
)

const bridgeProvider = "tts-bridge"

// Bridge is the cloud TTS bridge: an invocable function taking text and
// language and returning a base64 audio payload.
type Bridge interface {
	Synthesize(ctx context.Context, text, language string) (string, error)
}

// HTTPBridge invokes the bridge function over HTTP.
type HTTPBridge struct {
	url     string
	client  *http.Client
	tracker *tracker.Tracker
}

// NewHTTPBridge creates a bridge client. Timeouts are enforced per call via
// the context, not the transport.
func NewHTTPBridge(url string, t *tracker.Tracker) *HTTPBridge {
	return &HTTPBridge{
		url:     url,
		client:  &http.Client{},
		tracker: t,
	}
}

type bridgeRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

type bridgeResponse struct {
	AudioContent string `json:"audioContent"`
}

func (b *HTTPBridge) Synthesize(ctx context.Context, text, language string) (string, error) {
	body, err := json.Marshal(bridgeRequest{Text: text, Language: language})
	if err != nil {
		return "", fmt.Errorf("failed to marshal bridge request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create bridge request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := b.client.Do(req)
	if err != nil {
		b.trackFailure()
		return "", fmt.Errorf("bridge call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		b.trackFailure()
		return "", fmt.Errorf("bridge error (status %d): %s", resp.StatusCode, msg)
	}

	var out bridgeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		b.trackFailure()
		return "", fmt.Errorf("failed to decode bridge response: %w", err)
	}
	if out.AudioContent == "" {
		b.trackFailure()
		return "", fmt.Errorf("bridge returned empty payload")
	}

	b.trackSuccess()
	return out.AudioContent, nil
}

func (b *HTTPBridge) trackSuccess() {
	if b.tracker != nil {
		b.tracker.TrackAPISuccess(bridgeProvider)
	}
}

func (b *HTTPBridge) trackFailure() {
	if b.tracker != nil {
		b.tracker.TrackAPIFailure(bridgeProvider)
	}
}
