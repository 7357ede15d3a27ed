// Package config loads service configuration from the environment into an
// explicit Config value that is passed to constructors. Nothing in the rest
// of the codebase reads environment variables directly, so tests can build
// a Config literal with stub settings.
//
// A .env file in the working directory is honored when present.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Defaults for the renderer's stage budgets. The settle delay is a heuristic:
// long enough for the seeked frame to paint, short enough to keep batches fast.
const (
	DefaultNavTimeout  = 30 * time.Second
	DefaultVideoWait   = 15 * time.Second
	DefaultSettleDelay = 1 * time.Second
	DefaultJPEGQuality = 90
	DefaultUploadsPath = "data/uploads"
	DefaultListenPort  = 3000
)

// Config carries every tunable the service reads at startup.
type Config struct {
	// Port is the HTTP listen port.
	Port int

	// UploadsDir is the absolute path of the local image store. Batch
	// directories and single screenshots live under it, and it is served
	// read-only at /data/uploads/.
	UploadsDir string

	// SkipLocalStorage disables writing images to UploadsDir. When set,
	// UseRemoteStorage should be on or captures produce no artifacts.
	SkipLocalStorage bool

	// UseRemoteStorage enables the S3 backend.
	UseRemoteStorage bool

	// S3Bucket is the object storage bucket for captured frames.
	S3Bucket string

	// PublicBaseURL is the URL prefix under which uploaded objects are
	// publicly reachable, e.g. "https://my-bucket.s3.amazonaws.com".
	PublicBaseURL string

	// MetadataTable is the DynamoDB table for batch/frame records.
	// Empty disables metadata persistence.
	MetadataTable string

	// NavTimeout bounds page navigation plus initial network settle.
	NavTimeout time.Duration

	// VideoWait bounds the wait for a <video> element to appear.
	VideoWait time.Duration

	// SettleDelay is the pause after seeking before the frame is captured.
	SettleDelay time.Duration

	// JPEGQuality is the screenshot encoding quality (1-100).
	JPEGQuality int
}

// Load reads the environment (and an optional .env file) into a Config.
// The uploads directory is resolved to an absolute path and created when
// local storage is enabled.
func Load() (*Config, error) {
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("Loaded environment from .env")
	}

	cfg := &Config{
		Port:             envInt("PORT", DefaultListenPort),
		SkipLocalStorage: envBool("SKIP_LOCAL_STORAGE"),
		UseRemoteStorage: envBool("USE_REMOTE_STORAGE"),
		S3Bucket:         os.Getenv("S3_BUCKET_NAME"),
		PublicBaseURL:    os.Getenv("S3_PUBLIC_BASE_URL"),
		MetadataTable:    os.Getenv("DYNAMO_TABLE_NAME"),
		NavTimeout:       envDuration("NAV_TIMEOUT_MS", DefaultNavTimeout),
		VideoWait:        envDuration("VIDEO_WAIT_TIMEOUT_MS", DefaultVideoWait),
		SettleDelay:      envDuration("FRAME_SETTLE_MS", DefaultSettleDelay),
		JPEGQuality:      envInt("JPEG_QUALITY", DefaultJPEGQuality),
	}

	storagePath := os.Getenv("LOCAL_STORAGE_PATH")
	if storagePath == "" {
		storagePath = DefaultUploadsPath
	}
	abs, err := filepath.Abs(storagePath)
	if err != nil {
		return nil, fmt.Errorf("resolve uploads dir %q: %w", storagePath, err)
	}
	cfg.UploadsDir = abs

	if cfg.UseRemoteStorage && cfg.S3Bucket == "" {
		return nil, fmt.Errorf("USE_REMOTE_STORAGE is set but S3_BUCKET_NAME is empty")
	}
	if cfg.UseRemoteStorage && cfg.PublicBaseURL == "" {
		cfg.PublicBaseURL = fmt.Sprintf("https://%s.s3.amazonaws.com", cfg.S3Bucket)
	}

	if !cfg.SkipLocalStorage {
		if err := os.MkdirAll(cfg.UploadsDir, 0o755); err != nil {
			return nil, fmt.Errorf("create uploads dir %s: %w", cfg.UploadsDir, err)
		}
		log.Info().Str("dir", cfg.UploadsDir).Msg("Local upload directory ready")
	}

	return cfg, nil
}

func envBool(name string) bool {
	return os.Getenv(name) == "true"
}

func envInt(name string, def int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		log.Warn().Str("var", name).Str("value", raw).Msg("Ignoring non-integer environment value")
		return def
	}
	return n
}

// envDuration reads a millisecond count from the environment.
func envDuration(name string, def time.Duration) time.Duration {
	raw := os.Getenv(name)
	if raw == "" {
		return def
	}
	ms, err := strconv.Atoi(raw)
	if err != nil || ms < 0 {
		log.Warn().Str("var", name).Str("value", raw).Msg("Ignoring invalid millisecond value")
		return def
	}
	return time.Duration(ms) * time.Millisecond
}
