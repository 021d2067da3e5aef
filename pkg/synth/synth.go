// Package synth calls the remote speech-synthesis provider to turn
// (text, voice) pairs into audio bytes.
package synth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"voxlingo/pkg/tracker"
	"voxlingo/pkg/version"
)

const (
	defaultBaseURL = "https://api.elevenlabs.io"
	defaultModel   = "eleven_multilingual_v2"

	providerName = "elevenlabs"

	// MinAudioSize is the minimum size of a synthesized payload (1KB).
	// Smaller responses are likely failed synthesis attempts.
	MinAudioSize = 1024
)

// ProviderError represents a synthesis failure at the provider boundary:
// network errors, auth failures, quota exhaustion, non-2xx responses.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("synthesis provider error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("synthesis provider error: %s", e.Message)
}

// Config holds the provider settings.
type Config struct {
	Key             string  `yaml:"key"`
	BaseURL         string  `yaml:"base_url"`
	Model           string  `yaml:"model"`
	Stability       float64 `yaml:"stability"`
	SimilarityBoost float64 `yaml:"similarity_boost"`
}

// Result is a successful generation.
type Result struct {
	Audio    []byte
	FileName string
}

// Client is the remote synthesizer.
type Client struct {
	cfg     Config
	client  *http.Client
	tracker *tracker.Tracker
}

// NewClient creates a new synthesis client.
func NewClient(cfg Config, t *tracker.Tracker) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Stability == 0 {
		cfg.Stability = 0.5
	}
	if cfg.SimilarityBoost == 0 {
		cfg.SimilarityBoost = 0.75
	}
	return &Client{
		cfg:     cfg,
		client:  &http.Client{Timeout: 60 * time.Second},
		tracker: t,
	}
}

// requestBody is the JSON payload for the text-to-speech endpoint.
type requestBody struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// Generate issues a single synthesis request. fileName may be empty, in
// which case one is derived from the text and voice. Failures come back as
// *ProviderError; nothing panics past this boundary.
func (c *Client) Generate(ctx context.Context, text, voiceID, fileName string) (*Result, error) {
	if text == "" {
		return nil, &ProviderError{Message: "empty text"}
	}
	if fileName == "" {
		fileName = FileName(text, voiceID)
	}

	reqData := requestBody{
		Text:    text,
		ModelID: c.cfg.Model,
		VoiceSettings: voiceSettings{
			Stability:       c.cfg.Stability,
			SimilarityBoost: c.cfg.SimilarityBoost,
		},
	}
	jsonData, err := json.Marshal(reqData)
	if err != nil {
		return nil, &ProviderError{Message: fmt.Sprintf("failed to marshal request: %v", err)}
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s", c.cfg.BaseURL, voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, &ProviderError{Message: fmt.Sprintf("failed to create request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", c.cfg.Key)
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.client.Do(req)
	if err != nil {
		Log(providerName, text, 0, err)
		c.trackFailure()
		return nil, &ProviderError{Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		Log(providerName, text, resp.StatusCode, nil)
		c.trackFailure()
		return nil, &ProviderError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
		}
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		Log(providerName, text, resp.StatusCode, err)
		c.trackFailure()
		return nil, &ProviderError{Message: fmt.Sprintf("failed to read audio: %v", err)}
	}
	if len(audio) == 0 {
		Log(providerName, text, resp.StatusCode, nil)
		c.trackFailure()
		return nil, &ProviderError{Message: "received empty audio"}
	}

	Log(providerName, text, resp.StatusCode, nil)
	c.trackSuccess()
	return &Result{Audio: audio, FileName: fileName}, nil
}

// TestConnection probes the provider's user endpoint.
func (c *Client) TestConnection(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/v1/user", http.NoBody)
	if err != nil {
		return &ProviderError{Message: err.Error()}
	}
	req.Header.Set("xi-api-key", c.cfg.Key)

	resp, err := c.client.Do(req)
	if err != nil {
		return &ProviderError{Message: fmt.Sprintf("provider unreachable: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &ProviderError{StatusCode: resp.StatusCode, Message: string(body)}
	}
	return nil
}

// Usage is the provider-side quota snapshot.
type Usage struct {
	CharacterCount int    `json:"character_count"`
	CharacterLimit int    `json:"character_limit"`
	Tier           string `json:"tier"`
}

// UsageInfo fetches the current subscription quota.
func (c *Client) UsageInfo(ctx context.Context) (*Usage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/v1/user/subscription", http.NoBody)
	if err != nil {
		return nil, &ProviderError{Message: err.Error()}
	}
	req.Header.Set("xi-api-key", c.cfg.Key)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &ProviderError{Message: fmt.Sprintf("provider unreachable: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &ProviderError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	var usage Usage
	if err := json.NewDecoder(resp.Body).Decode(&usage); err != nil {
		return nil, &ProviderError{Message: fmt.Sprintf("failed to decode usage: %v", err)}
	}
	return &usage, nil
}

func (c *Client) trackSuccess() {
	if c.tracker != nil {
		c.tracker.TrackAPISuccess(providerName)
	}
}

func (c *Client) trackFailure() {
	if c.tracker != nil {
		c.tracker.TrackAPIFailure(providerName)
	}
}
