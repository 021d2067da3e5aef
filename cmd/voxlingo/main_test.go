package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestRun(t *testing.T) {
	// A stand-in provider so the startup probes stay offline.
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer provider.Close()

	dir := t.TempDir()
	tempConfig := fmt.Sprintf(`
server:
    address: localhost:0  # 0 lets OS choose free port
log:
    server:
        path: %q
        level: "debug"
    requests:
        path: %q
        level: "info"
    synth:
        path: %q
        level: "info"
synth:
    key: "test-key"
    base_url: %q
storage:
    db_path: %q
    blob:
        backend: "dir"
        dir:
            path: %q
resolver:
    probe_timeout: 2s
`,
		filepath.Join(dir, "server.log"),
		filepath.Join(dir, "requests.log"),
		filepath.Join(dir, "synth.log"),
		provider.URL,
		filepath.Join(dir, "test.db"),
		filepath.Join(dir, "audio"),
	)

	configPath := filepath.Join(dir, "voxlingo.yaml")
	if err := os.WriteFile(configPath, []byte(tempConfig), 0o644); err != nil {
		t.Fatalf("Failed to write temp config: %v", err)
	}

	// A context that cancels quickly to verify the startup sequence and
	// graceful shutdown.
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	if err := run(ctx, configPath); err != nil {
		t.Fatalf("run() failed: %v", err)
	}
}
