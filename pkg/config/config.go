package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Synth    SynthConfig    `yaml:"synth"`
	Storage  StorageConfig  `yaml:"storage"`
	Speech   SpeechConfig   `yaml:"speech"`
	Resolver ResolverConfig `yaml:"resolver"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Server   LogSettings `yaml:"server"`
	Requests LogSettings `yaml:"requests"`
	Synth    LogSettings `yaml:"synth"`
}

// LogSettings holds settings for a specific logger.
type LogSettings struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// SynthConfig holds settings for the remote synthesis provider.
type SynthConfig struct {
	Key             string  `yaml:"key"` // API Key
	BaseURL         string  `yaml:"base_url"`
	Model           string  `yaml:"model"`
	Stability       float64 `yaml:"stability"`
	SimilarityBoost float64 `yaml:"similarity_boost"`
}

// StorageConfig holds database and blob store settings.
type StorageConfig struct {
	DBPath string     `yaml:"db_path"`
	Blob   BlobConfig `yaml:"blob"`
}

// BlobConfig selects and configures the audio blob backend.
type BlobConfig struct {
	Backend string      `yaml:"backend"` // "dir", "minio"
	Dir     DirConfig   `yaml:"dir"`
	Minio   MinioConfig `yaml:"minio"`
}

// DirConfig holds settings for the local-directory blob backend.
type DirConfig struct {
	Path string `yaml:"path"`
}

// MinioConfig holds settings for the object-storage blob backend.
type MinioConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
	BaseURL   string `yaml:"base_url"`
}

// SpeechConfig holds settings for the local speech fallback chain.
type SpeechConfig struct {
	BridgeURL string `yaml:"bridge_url"`
	Mobile    bool   `yaml:"mobile"` // mobile-class platform: autoplay restrictions, longer timeouts
}

// ResolverConfig holds the resolution engine defaults.
type ResolverConfig struct {
	VoicePreference string   `yaml:"voice_preference"` // "female", "male", "auto"
	FallbackToTTS   bool     `yaml:"fallback_to_tts"`
	ProbeTimeout    Duration `yaml:"probe_timeout"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address: "localhost:1930",
		},
		Log: LogConfig{
			Server: LogSettings{
				Path:  "./logs/server.log",
				Level: "INFO",
			},
			Requests: LogSettings{
				Path:  "./logs/requests.log",
				Level: "INFO",
			},
			Synth: LogSettings{
				Path:  "./logs/synth.log",
				Level: "INFO",
			},
		},
		Synth: SynthConfig{
			BaseURL:         "https://api.elevenlabs.io",
			Model:           "eleven_multilingual_v2",
			Stability:       0.5,
			SimilarityBoost: 0.75,
		},
		Storage: StorageConfig{
			DBPath: "./data/voxlingo.db",
			Blob: BlobConfig{
				Backend: "dir",
				Dir: DirConfig{
					Path: "./data/audio",
				},
				Minio: MinioConfig{
					Bucket: "voxlingo-audio",
					UseSSL: true,
				},
			},
		},
		Speech: SpeechConfig{
			BridgeURL: "",
			Mobile:    false,
		},
		Resolver: ResolverConfig{
			VoicePreference: "auto",
			FallbackToTTS:   true,
			ProbeTimeout:    Duration(5 * time.Second),
		},
	}
}

// Load loads the configuration from the given path.
// If the file does not exist, it creates it with default values.
// If the file exists, it merges defaults with existing values but does NOT
// save back to disk (to preserve user formatting and comments).
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else {
		// If file does not exist, save defaults
		if err := Save(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to save config file: %w", err)
		}
	}

	cfg.applyEnv()

	if !validVoicePreference(cfg.Resolver.VoicePreference) {
		return nil, fmt.Errorf("invalid voice_preference '%s': must be 'female', 'male' or 'auto'", cfg.Resolver.VoicePreference)
	}

	return cfg, nil
}

// applyEnv fills empty secrets from the environment as a fallback. The
// values are never written back to disk.
func (c *Config) applyEnv() {
	if c.Synth.Key == "" {
		if key := os.Getenv("ELEVENLABS_API_KEY"); key != "" {
			c.Synth.Key = key
		}
	}
	if c.Storage.Blob.Minio.AccessKey == "" {
		if key := os.Getenv("MINIO_ACCESS_KEY"); key != "" {
			c.Storage.Blob.Minio.AccessKey = key
		}
	}
	if c.Storage.Blob.Minio.SecretKey == "" {
		if key := os.Getenv("MINIO_SECRET_KEY"); key != "" {
			c.Storage.Blob.Minio.SecretKey = key
		}
	}
	if c.Speech.BridgeURL == "" {
		if url := os.Getenv("TTS_BRIDGE_URL"); url != "" {
			c.Speech.BridgeURL = url
		}
	}
}

func validVoicePreference(s string) bool {
	return s == "female" || s == "male" || s == "auto" || s == ""
}

// Save writes the configuration to the path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# Voxlingo Configuration
# ---------------------
# Supported Units:
#   Duration: ns, us (or µs), ms, s, m, h, d (day), w (week)

`)
	data = append(header, data...)

	// Inject comments for Enum fields.
	// Regexes keep the key's indentation so the comment lands correctly.

	reBackend := regexp.MustCompile(`(?m)^(\s+)backend:`)
	data = reBackend.ReplaceAll(data, []byte("${1}# Options: dir, minio\n${1}backend:"))

	rePref := regexp.MustCompile(`(?m)^(\s+)voice_preference:`)
	data = rePref.ReplaceAll(data, []byte("${1}# Options: female, male, auto\n${1}voice_preference:"))

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateDefault creates a default config file at the given path.
// Returns nil if the file already exists.
func GenerateDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return Save(path, DefaultConfig())
}
