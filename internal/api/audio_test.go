package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"voxlingo/pkg/model"
	"voxlingo/pkg/resolver"
	"voxlingo/pkg/store"
	"voxlingo/pkg/synth"
)

type fakeEngine struct {
	resolveOK   bool
	resolveErr  error
	lastText    string
	lastOpts    resolver.Options
	stopped     bool
	playing     bool
	asset       *model.AudioAsset
	assetErr    error
	lessonList  []*model.AudioAsset
	healthy     bool
	speakCalls  int
	lastSpeak   [2]string
	lessonCalls int
}

func (f *fakeEngine) Resolve(ctx context.Context, text string, opts resolver.Options) (bool, error) {
	f.lastText = text
	f.lastOpts = opts
	return f.resolveOK, f.resolveErr
}

func (f *fakeEngine) StopAudio()           { f.stopped = true }
func (f *fakeEngine) IsAudioPlaying() bool { return f.playing }

func (f *fakeEngine) AudioInfo(ctx context.Context, text string) (*model.AudioAsset, error) {
	return f.asset, f.assetErr
}

func (f *fakeEngine) LessonAudio(ctx context.Context, lessonID string) ([]*model.AudioAsset, error) {
	f.lessonCalls++
	return f.lessonList, nil
}

func (f *fakeEngine) CategoryAudio(ctx context.Context, category model.Category) ([]*model.AudioAsset, error) {
	return f.lessonList, nil
}

func (f *fakeEngine) TestSystem(ctx context.Context) bool { return f.healthy }

func (f *fakeEngine) Speak(ctx context.Context, text, language string) {
	f.speakCalls++
	f.lastSpeak = [2]string{text, language}
}

func postJSON(t *testing.T, h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func TestHandleResolveDefaults(t *testing.T) {
	engine := &fakeEngine{resolveOK: true}
	h := NewAudioHandler(engine, resolver.Options{FallbackToTTS: true})

	w := postJSON(t, h.HandleResolve, `{"text":"bonjour"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if engine.lastText != "bonjour" {
		t.Errorf("text = %q", engine.lastText)
	}
	if !engine.lastOpts.FallbackToTTS {
		t.Error("fallback_to_tts must default to true")
	}

	var resp ResolveResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "ok" || !resp.Played {
		t.Errorf("resp = %+v", resp)
	}
}

func TestHandleResolveDisabledFallback(t *testing.T) {
	engine := &fakeEngine{resolveErr: store.ErrNotFound}
	h := NewAudioHandler(engine, resolver.Options{FallbackToTTS: true})

	w := postJSON(t, h.HandleResolve, `{"text":"bonjour","fallback_to_tts":false}`)

	if engine.lastOpts.FallbackToTTS {
		t.Error("fallback_to_tts should be off")
	}

	var resp ResolveResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "error" || resp.Reason != "not_found" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestHandleResolveGenerationFailure(t *testing.T) {
	engine := &fakeEngine{resolveErr: &synth.ProviderError{StatusCode: 429, Message: "quota"}}
	h := NewAudioHandler(engine, resolver.Options{FallbackToTTS: true})

	w := postJSON(t, h.HandleResolve, `{"text":"bonjour"}`)

	var resp ResolveResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Reason != "generation_failed" {
		t.Errorf("reason = %q", resp.Reason)
	}
}

func TestHandleResolveRejectsEmptyText(t *testing.T) {
	h := NewAudioHandler(&fakeEngine{}, resolver.Options{FallbackToTTS: true})
	w := postJSON(t, h.HandleResolve, `{"text":""}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHandleStopAndStatus(t *testing.T) {
	engine := &fakeEngine{playing: true}
	h := NewAudioHandler(engine, resolver.Options{FallbackToTTS: true})

	w := postJSON(t, h.HandleStop, `{}`)
	if w.Code != http.StatusOK || !engine.stopped {
		t.Errorf("stop not applied (status %d)", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/audio/status", http.NoBody)
	w = httptest.NewRecorder()
	h.HandleStatus(w, req)

	var status map[string]bool
	if err := json.NewDecoder(w.Body).Decode(&status); err != nil {
		t.Fatal(err)
	}
	if !status["is_playing"] {
		t.Error("is_playing = false, want true")
	}
}

func TestHandleInfoNotFound(t *testing.T) {
	engine := &fakeEngine{assetErr: store.ErrNotFound}
	h := NewAudioHandler(engine, resolver.Options{FallbackToTTS: true})

	req := httptest.NewRequest(http.MethodGet, "/api/audio/info?text=missing", http.NoBody)
	w := httptest.NewRecorder()
	h.HandleInfo(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestHandleCategoryAudioRejectsUnknown(t *testing.T) {
	h := NewAudioHandler(&fakeEngine{}, resolver.Options{FallbackToTTS: true})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/categories/{category}/audio", h.HandleCategoryAudio)

	req := httptest.NewRequest(http.MethodGet, "/api/categories/geology/audio", http.NoBody)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHandleLessonAudioEmptyList(t *testing.T) {
	h := NewAudioHandler(&fakeEngine{}, resolver.Options{FallbackToTTS: true})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/lessons/{id}/audio", h.HandleLessonAudio)

	req := httptest.NewRequest(http.MethodGet, "/api/lessons/lesson-1/audio", http.NoBody)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if body := strings.TrimSpace(w.Body.String()); body != "[]" {
		t.Errorf("body = %q, want empty JSON array", body)
	}
}

func TestHandleSpeak(t *testing.T) {
	engine := &fakeEngine{}
	h := NewSpeechHandler(engine)

	w := postJSON(t, h.HandleSpeak, `{"text":"hola","language":"es"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if engine.speakCalls != 1 || engine.lastSpeak != [2]string{"hola", "es"} {
		t.Errorf("speak not forwarded: %v", engine.lastSpeak)
	}
}

func TestHandleSystemTest(t *testing.T) {
	h := NewAudioHandler(&fakeEngine{healthy: true}, resolver.Options{FallbackToTTS: true})

	w := postJSON(t, h.HandleSystemTest, ``)

	var resp map[string]bool
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if !resp["healthy"] {
		t.Error("healthy = false, want true")
	}
}
