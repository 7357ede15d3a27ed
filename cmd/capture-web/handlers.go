package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ykarasawa/framegrab/internal/archive"
	"github.com/ykarasawa/framegrab/internal/blob"
	"github.com/ykarasawa/framegrab/internal/capture"
	"github.com/ykarasawa/framegrab/internal/ids"
	"github.com/ykarasawa/framegrab/internal/metastore"
	"github.com/ykarasawa/framegrab/internal/renderer"
	"github.com/ykarasawa/framegrab/internal/youtube"
)

type screenshotRequest struct {
	URL       string `json:"url"`
	Timestamp *int   `json:"timestamp"`
}

type screenshotResponse struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	VideoID   string `json:"video_id,omitempty"`
	Timestamp *int   `json:"timestamp,omitempty"`
	IsShorts  bool   `json:"is_shorts"`
	ImageURL  string `json:"image_url,omitempty"`
	Path      string `json:"path,omitempty"`
	LocalPath string `json:"local_path,omitempty"`
	CreatedAt string `json:"created_at"`
}

// handleScreenshot captures a single page or video frame.
// POST /api/screenshot {url, timestamp?}
func handleScreenshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req screenshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	parsed, err := url.Parse(req.URL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		httpError(w, http.StatusBadRequest, "a valid URL is required")
		return
	}

	isYouTube := youtube.IsYouTubeURL(req.URL)
	isShorts := youtube.IsShortsURL(req.URL)

	var videoID string
	if isYouTube {
		videoID = youtube.ExtractVideoID(req.URL)
		if videoID == "" {
			httpError(w, http.StatusBadRequest, "could not extract a video ID from the YouTube URL")
			return
		}
	}

	opts := renderer.Options{
		Viewport: renderer.PageViewport,
		// Regular pages are captured full-height; video pages only need
		// the player viewport.
		FullPage: !isYouTube,
	}
	if isShorts {
		opts.Viewport = renderer.ShortsViewport
	}
	if isYouTube && req.Timestamp != nil {
		opts.SeekSeconds = req.Timestamp
	}

	img, err := engine.Render(r.Context(), req.URL, opts)
	if err != nil {
		log.Error().Err(err).Str("url", req.URL).Msg("Screenshot capture failed")
		httpError(w, http.StatusInternalServerError, "failed to capture screenshot")
		return
	}

	id := ids.Screenshot()
	var filename, folder string
	if isYouTube {
		second := 0
		if req.Timestamp != nil {
			second = *req.Timestamp
		}
		filename = fmt.Sprintf("%s_%ds_%s.jpg", videoID, second, id)
		folder = "youtube"
		if isShorts {
			folder = "shorts"
		}
	} else {
		filename = fmt.Sprintf("screenshot_%s.jpg", id)
		folder = "websites"
	}

	stored, err := blobStore.Put(r.Context(), blob.Object{
		Data:        img,
		ContentType: "image/jpeg",
		RemoteDir:   folder,
		Filename:    filename,
	})
	if err != nil {
		log.Error().Err(err).Str("file", filename).Msg("Screenshot storage failed")
		httpError(w, http.StatusInternalServerError, "failed to store screenshot")
		return
	}

	createdAt := time.Now().UTC().Format(time.RFC3339)
	if err := metaStore.PutScreenshot(r.Context(), &metastore.Screenshot{
		ID:        id,
		URL:       req.URL,
		VideoID:   videoID,
		Timestamp: req.Timestamp,
		IsShorts:  isShorts,
		LocalPath: stored.LocalPath,
		RemoteKey: stored.RemoteKey,
		RemoteURL: stored.RemoteURL,
		CreatedAt: createdAt,
	}); err != nil {
		log.Warn().Err(err).Str("screenshotId", id).Msg("Failed to persist screenshot metadata")
	}

	respondSuccess(w, screenshotResponse{
		ID:        id,
		URL:       req.URL,
		VideoID:   videoID,
		Timestamp: req.Timestamp,
		IsShorts:  isShorts,
		ImageURL:  stored.RemoteURL,
		Path:      stored.PublicPath,
		LocalPath: stored.LocalPath,
		CreatedAt: createdAt,
	})
}

type batchRequest struct {
	VideoID        string `json:"videoId"`
	StartSec       *int   `json:"startSec"`
	EndSec         *int   `json:"endSec"`
	MaxConcurrency int    `json:"maxConcurrency"`
}

// handleBatch runs a bulk frame capture over a second range.
// POST /api/screenshot/batch {videoId|URL, startSec?, endSec?, maxConcurrency?}
func handleBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	videoID := req.VideoID
	if youtube.IsYouTubeURL(videoID) {
		videoID = youtube.ExtractVideoID(videoID)
		if videoID == "" {
			httpError(w, http.StatusBadRequest, "could not extract a video ID from the YouTube URL")
			return
		}
	}

	// Absent bounds fall back to the first minute.
	startSec, endSec := 0, capture.MaxRangeSeconds
	if req.StartSec != nil {
		startSec = *req.StartSec
	}
	if req.EndSec != nil {
		endSec = *req.EndSec
	}

	result, err := orchestrator.Run(r.Context(), capture.Request{
		VideoID:        videoID,
		StartSec:       startSec,
		EndSec:         endSec,
		MaxConcurrency: req.MaxConcurrency,
	})
	if err != nil {
		var rangeErr *capture.InvalidRangeError
		if errors.As(err, &rangeErr) {
			httpError(w, http.StatusBadRequest, rangeErr.Error())
			return
		}
		log.Error().Err(err).Str("videoId", videoID).Msg("Batch capture failed")
		httpError(w, http.StatusInternalServerError, "batch capture failed")
		return
	}

	respondSuccess(w, result)
}

// handleDownloadZip streams a batch directory as a ZIP attachment.
// GET /api/screenshot/download-zip/{batchDir}
func handleDownloadZip(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	raw := strings.TrimPrefix(r.URL.Path, "/api/screenshot/download-zip/")
	dir, name := archive.ResolveBatchDir(cfg.UploadsDir, raw)
	if name == "" {
		httpError(w, http.StatusNotFound, "batch directory not found")
		return
	}

	files, err := archive.ImageFiles(dir)
	if err != nil {
		if errors.Is(err, archive.ErrNotFound) {
			httpError(w, http.StatusNotFound, "no images found for the requested batch")
			return
		}
		log.Error().Err(err).Str("dir", name).Msg("Failed to list batch directory")
		httpError(w, http.StatusInternalServerError, "failed to read batch directory")
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.zip"`, name))

	// Headers are committed; archive errors can only be logged.
	if err := archive.WriteZip(w, dir, files); err != nil {
		log.Error().Err(err).Str("dir", name).Msg("ZIP streaming aborted")
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "capture-web",
	})
}
