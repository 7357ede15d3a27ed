package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ykarasawa/framegrab/internal/blob"
	"github.com/ykarasawa/framegrab/internal/capture"
	"github.com/ykarasawa/framegrab/internal/config"
	"github.com/ykarasawa/framegrab/internal/logging"
	"github.com/ykarasawa/framegrab/internal/metastore"
	"github.com/ykarasawa/framegrab/internal/renderer"
)

// CLI flags
var portFlag int

var rootCmd = &cobra.Command{
	Use:   "capture-web",
	Short: "Screenshot capture service for web pages and YouTube videos",
	Long: `Capture Web starts a JSON API server that captures screenshots of web
pages and YouTube / YouTube Shorts videos at specified timestamps, including
bulk frame capture over a second range with bounded browser concurrency.

Examples:
  capture-web
  capture-web --port 8080`,
	Run: runMain,
}

func init() {
	rootCmd.Flags().IntVar(&portFlag, "port", 0, "Port to listen on (overrides PORT)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// Shared service state, wired once in runMain and read by the handlers.
var (
	cfg          *config.Config
	engine       renderer.Engine
	blobStore    blob.Store
	metaStore    metastore.Store
	orchestrator *capture.Orchestrator
)

func runMain(cmd *cobra.Command, args []string) {
	logging.Init()

	var err error
	cfg, err = config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if portFlag > 0 {
		cfg.Port = portFlag
	}

	ctx := context.Background()

	fanout := &blob.Fanout{}
	if !cfg.SkipLocalStorage {
		fanout.Local = blob.NewLocal(cfg.UploadsDir)
	}
	if cfg.UseRemoteStorage || cfg.MetadataTable != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load AWS config")
		}
		if cfg.UseRemoteStorage {
			fanout.Remote = blob.NewS3(s3.NewFromConfig(awsCfg), cfg.S3Bucket, cfg.PublicBaseURL)
			log.Info().Str("bucket", cfg.S3Bucket).Msg("S3 storage enabled")
		}
		if cfg.MetadataTable != "" {
			metaStore = metastore.NewDynamoStore(dynamodb.NewFromConfig(awsCfg), cfg.MetadataTable)
			log.Info().Str("table", cfg.MetadataTable).Msg("DynamoDB metadata store enabled")
		}
	}
	if fanout.Local == nil && fanout.Remote == nil {
		log.Fatal().Msg("No storage backend enabled; unset SKIP_LOCAL_STORAGE or set USE_REMOTE_STORAGE")
	}
	blobStore = fanout
	if metaStore == nil {
		metaStore = metastore.Noop{}
	}

	chrome := renderer.NewChrome(renderer.ChromeConfig{
		NavTimeout:  cfg.NavTimeout,
		VideoWait:   cfg.VideoWait,
		SettleDelay: cfg.SettleDelay,
		JPEGQuality: cfg.JPEGQuality,
	})
	defer chrome.Close()
	engine = chrome

	localRoot := ""
	if !cfg.SkipLocalStorage {
		localRoot = cfg.UploadsDir
	}
	orchestrator = capture.NewOrchestrator(engine, blobStore, metaStore, localRoot)

	startup := logging.NewStartupLogger("capture-web").
		Feature("localStorage", !cfg.SkipLocalStorage).
		Feature("remoteStorage", cfg.UseRemoteStorage).
		Feature("metadata", cfg.MetadataTable != "").
		Config("uploadsDir", cfg.UploadsDir).
		Config("navTimeout", cfg.NavTimeout.String()).
		Config("videoWait", cfg.VideoWait.String())
	if cfg.UseRemoteStorage {
		startup.S3Bucket("frames", cfg.S3Bucket)
	}
	if cfg.MetadataTable != "" {
		startup.DynamoTable("metadata", cfg.MetadataTable)
	}
	startup.Log()

	mux := http.NewServeMux()

	// API routes
	mux.HandleFunc("/api/screenshot", handleScreenshot)
	mux.HandleFunc("/api/screenshot/batch", handleBatch)
	mux.HandleFunc("/api/screenshot/download-zip/", handleDownloadZip)
	mux.HandleFunc("/api/health", handleHealth)

	// Persisted images
	if !cfg.SkipLocalStorage {
		mux.Handle(blob.PublicPrefix+"/",
			http.StripPrefix(blob.PublicPrefix+"/", http.FileServer(http.Dir(cfg.UploadsDir))))
	}

	// Wrap with logging and CORS for local dev
	handler := withLogging(withCORS(mux))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 15 * time.Minute, // batches render up to 61 frames before responding
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info().Msg("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}()

	log.Info().Int("port", cfg.Port).Msg("Starting capture server")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

// --- Middleware ---

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		if strings.HasPrefix(r.URL.Path, "/api/") {
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Dur("duration", time.Since(start)).
				Msg("API request")
		}
	})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Only allow localhost origins; the service is not meant to face
		// arbitrary browsers directly.
		origin := r.Header.Get("Origin")
		if origin != "" && (strings.HasPrefix(origin, "http://localhost:") || strings.HasPrefix(origin, "http://127.0.0.1:")) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
