package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"voxlingo/internal/api"
	"voxlingo/pkg/blob"
	"voxlingo/pkg/config"
	"voxlingo/pkg/db"
	"voxlingo/pkg/logging"
	"voxlingo/pkg/model"
	"voxlingo/pkg/playback"
	"voxlingo/pkg/probe"
	"voxlingo/pkg/resolver"
	"voxlingo/pkg/speech"
	"voxlingo/pkg/store"
	"voxlingo/pkg/synth"
	"voxlingo/pkg/tracker"
	"voxlingo/pkg/version"
)

var initConfig = flag.Bool("init-config", false, "Generate default config file and exit")

func main() {
	flag.Parse()

	// Handle --init-config flag
	if *initConfig {
		if err := config.GenerateDefault("configs/voxlingo.yaml"); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Config file generated: configs/voxlingo.yaml")
		return
	}

	if err := run(context.Background(), "configs/voxlingo.yaml"); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL ERROR: Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Secrets may live in a .env next to the binary; config falls back to
	// the environment for empty keys.
	_ = godotenv.Load()

	appCfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cleanupLogs, err := logging.Init(&appCfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	slog.Info("Voxlingo Started", "version", version.Version)

	dbConn, err := db.Init(appCfg.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer dbConn.Close()

	blobs, err := initBlobStore(ctx, &appCfg.Storage.Blob)
	if err != nil {
		return fmt.Errorf("failed to initialize blob store: %w", err)
	}

	st := store.NewSQLiteStore(dbConn, blobs)
	tr := tracker.New()

	synthClient := synth.NewClient(synth.Config{
		Key:             appCfg.Synth.Key,
		BaseURL:         appCfg.Synth.BaseURL,
		Model:           appCfg.Synth.Model,
		Stability:       appCfg.Synth.Stability,
		SimilarityBoost: appCfg.Synth.SimilarityBoost,
	}, tr)

	backend := playback.NewSpeakerBackend(appCfg.Speech.Mobile)
	defer backend.Close()
	engine := resolver.New(st, synthClient, backend, tr)
	defer engine.Close()

	speaker := initSpeaker(appCfg, backend, tr)
	defer speaker.Close()

	// Startup Probes
	probes := []probe.Probe{
		{
			Name:     "Audio Repository",
			Check:    st.Ping,
			Critical: true,
		},
		{
			Name:     "Synthesis Provider",
			Check:    synthClient.TestConnection,
			Critical: false, // persisted recordings still play offline
		},
	}
	results := probe.RunTimeout(ctx, probes, time.Duration(appCfg.Resolver.ProbeTimeout))
	if err := probe.AnalyzeResults(results); err != nil {
		return fmt.Errorf("startup checks failed: %w", err)
	}

	return runServer(ctx, appCfg, engine, speaker, st, synthClient, tr)
}

func initBlobStore(ctx context.Context, cfg *config.BlobConfig) (blob.Store, error) {
	switch cfg.Backend {
	case "minio":
		return blob.NewMinioStore(ctx, blob.MinioConfig{
			Endpoint:  cfg.Minio.Endpoint,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			Bucket:    cfg.Minio.Bucket,
			UseSSL:    cfg.Minio.UseSSL,
			BaseURL:   cfg.Minio.BaseURL,
		})
	case "dir", "":
		return blob.NewDirStore(cfg.Dir.Path)
	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.Backend)
	}
}

func initSpeaker(cfg *config.Config, backend playback.Backend, tr *tracker.Tracker) *speech.Speaker {
	var bridge speech.Bridge
	if cfg.Speech.BridgeURL != "" {
		bridge = speech.NewHTTPBridge(cfg.Speech.BridgeURL, tr)
	} else {
		slog.Info("Speech: no bridge configured, cloud path disabled")
		bridge = unavailableBridge{}
	}

	device, err := speech.NewPlatformDevice()
	if err != nil {
		slog.Info("Speech: no on-device synthesis on this platform", "error", err)
		device = nil
	}

	return speech.NewSpeaker(bridge, device, backend, tr)
}

// unavailableBridge stands in when no bridge URL is configured, so the
// fallback chain goes straight to on-device synthesis.
type unavailableBridge struct{}

func (unavailableBridge) Synthesize(ctx context.Context, text, language string) (string, error) {
	return "", errors.New("no speech bridge configured")
}

func runServer(ctx context.Context, cfg *config.Config, engine *resolver.Engine, speaker *speech.Speaker, st store.AudioStore, synthClient *synth.Client, tr *tracker.Tracker) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	shutdownFunc := func() { quit <- syscall.SIGTERM }

	srv := api.NewServer(cfg.Server.Address,
		api.NewAudioHandler(engine, resolver.Options{
			VoicePreference: model.VoicePreference(cfg.Resolver.VoicePreference),
			FallbackToTTS:   cfg.Resolver.FallbackToTTS,
		}),
		api.NewSpeechHandler(speaker),
		api.NewStorageHandler(st),
		api.NewStatsHandler(tr, synthClient.UsageInfo),
		shutdownFunc,
	)

	return runServerLifecycle(ctx, srv, quit)
}

func runServerLifecycle(ctx context.Context, srv *http.Server, quit chan os.Signal) error {
	slog.Info("Starting server", "addr", srv.Addr)
	serverErrors := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()
	select {
	case <-quit:
		slog.Info("Shutting down server...")
	case <-ctx.Done():
		slog.Info("Context cancelled, shutting down...")
	case err := <-serverErrors:
		return fmt.Errorf("server failed: %w", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
