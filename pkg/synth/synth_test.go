package synth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"voxlingo/pkg/tracker"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *tracker.Tracker) {
	t.Helper()
	SetLogPath(filepath.Join(t.TempDir(), "synth.log"))
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	tr := tracker.New()
	return NewClient(Config{Key: "test-key", BaseURL: srv.URL}, tr), tr
}

func TestGenerateSuccess(t *testing.T) {
	audio := []byte("fake-mp3-bytes")
	client, tr := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/text-to-speech/voice-1" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.Header.Get("xi-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		var body requestBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if body.Text != "hola" || body.ModelID != defaultModel {
			t.Errorf("body = %+v", body)
		}
		if body.VoiceSettings.Stability != 0.5 || body.VoiceSettings.SimilarityBoost != 0.75 {
			t.Errorf("voice settings = %+v, want defaults", body.VoiceSettings)
		}
		w.Write(audio)
	}))

	res, err := client.Generate(context.Background(), "hola", "voice-1", "hola.mp3")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if string(res.Audio) != string(audio) {
		t.Errorf("audio mismatch")
	}
	if res.FileName != "hola.mp3" {
		t.Errorf("file name = %q", res.FileName)
	}
	if s := tr.Snapshot()[providerName]; s.APISuccess != 1 {
		t.Errorf("tracker successes = %d, want 1", s.APISuccess)
	}
}

func TestGenerateDerivesFileName(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("audio"))
	}))

	res, err := client.Generate(context.Background(), "buenos dias", "voice-1", "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.FileName == "" {
		t.Fatal("expected a derived file name")
	}
}

func TestGenerateProviderError(t *testing.T) {
	client, tr := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))

	_, err := client.Generate(context.Background(), "hola", "voice-1", "")
	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want *ProviderError", err)
	}
	if perr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", perr.StatusCode)
	}
	if s := tr.Snapshot()[providerName]; s.APIFailures != 1 {
		t.Errorf("tracker failures = %d, want 1", s.APIFailures)
	}
}

func TestGenerateEmptyText(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should be issued for empty text")
	}))

	_, err := client.Generate(context.Background(), "", "voice-1", "")
	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want *ProviderError", err)
	}
}

func TestTestConnection(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/user" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{}`))
	}))

	if err := client.TestConnection(context.Background()); err != nil {
		t.Fatalf("TestConnection: %v", err)
	}
}

func TestTestConnectionAuthFailure(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid key", http.StatusUnauthorized)
	}))

	err := client.TestConnection(context.Background())
	var perr *ProviderError
	if !errors.As(err, &perr) || perr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("err = %v, want 401 *ProviderError", err)
	}
}

func TestUsageInfo(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/user/subscription" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(Usage{CharacterCount: 420, CharacterLimit: 10000, Tier: "starter"})
	}))

	usage, err := client.UsageInfo(context.Background())
	if err != nil {
		t.Fatalf("UsageInfo: %v", err)
	}
	if usage.CharacterCount != 420 || usage.CharacterLimit != 10000 || usage.Tier != "starter" {
		t.Errorf("usage = %+v", usage)
	}
}
