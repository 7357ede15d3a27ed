package main

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ykarasawa/framegrab/internal/blob"
	"github.com/ykarasawa/framegrab/internal/capture"
	"github.com/ykarasawa/framegrab/internal/config"
	"github.com/ykarasawa/framegrab/internal/metastore"
	"github.com/ykarasawa/framegrab/internal/renderer"
)

// stubEngine records render invocations and serves canned image bytes.
type stubEngine struct {
	mu   sync.Mutex
	err  error
	urls []string
	opts []renderer.Options
}

func (s *stubEngine) Render(_ context.Context, url string, opts renderer.Options) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.urls = append(s.urls, url)
	s.opts = append(s.opts, opts)
	if s.err != nil {
		return nil, s.err
	}
	return []byte("jpeg bytes"), nil
}

// setup wires the package state the handlers read. Returns the uploads root.
func setup(t *testing.T, eng renderer.Engine) string {
	t.Helper()
	root := t.TempDir()
	cfg = &config.Config{UploadsDir: root}
	engine = eng
	blobStore = &blob.Fanout{Local: blob.NewLocal(root)}
	metaStore = metastore.Noop{}
	orchestrator = capture.NewOrchestrator(engine, blobStore, metaStore, root)
	return root
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var envelope struct {
		Status string                 `json:"status"`
		Data   map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
	if envelope.Status != "success" {
		t.Fatalf("status = %q, want success", envelope.Status)
	}
	return envelope.Data
}

func TestHandleScreenshotWebPage(t *testing.T) {
	eng := &stubEngine{}
	setup(t, eng)

	rec := postJSON(t, handleScreenshot, "/api/screenshot", map[string]interface{}{
		"url": "https://example.com/pricing",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	data := decodeData(t, rec)
	if data["id"] == "" || data["id"] == nil {
		t.Error("response carries no id")
	}
	if data["is_shorts"] != false {
		t.Errorf("is_shorts = %v", data["is_shorts"])
	}
	if _, ok := data["video_id"]; ok {
		t.Errorf("video_id set for a plain web page: %v", data["video_id"])
	}
	path, _ := data["path"].(string)
	if !strings.HasPrefix(path, "/data/uploads/screenshot_") {
		t.Errorf("path = %q", path)
	}

	if len(eng.opts) != 1 {
		t.Fatalf("renderer invoked %d times", len(eng.opts))
	}
	opts := eng.opts[0]
	if !opts.FullPage {
		t.Error("web pages should be captured full-page")
	}
	if opts.Viewport != renderer.PageViewport {
		t.Errorf("viewport = %+v", opts.Viewport)
	}
	if opts.SeekSeconds != nil {
		t.Error("seek requested without a timestamp")
	}
}

func TestHandleScreenshotShorts(t *testing.T) {
	eng := &stubEngine{}
	setup(t, eng)

	rec := postJSON(t, handleScreenshot, "/api/screenshot", map[string]interface{}{
		"url":       "https://www.youtube.com/shorts/abc12345678",
		"timestamp": 5,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	data := decodeData(t, rec)
	if data["video_id"] != "abc12345678" {
		t.Errorf("video_id = %v", data["video_id"])
	}
	if data["is_shorts"] != true {
		t.Errorf("is_shorts = %v", data["is_shorts"])
	}
	if data["timestamp"] != float64(5) {
		t.Errorf("timestamp = %v", data["timestamp"])
	}

	opts := eng.opts[0]
	if opts.Viewport != renderer.ShortsViewport {
		t.Errorf("viewport = %+v, want shorts viewport", opts.Viewport)
	}
	if opts.FullPage {
		t.Error("video pages should not be captured full-page")
	}
	if opts.SeekSeconds == nil || *opts.SeekSeconds != 5 {
		t.Errorf("SeekSeconds = %v, want 5", opts.SeekSeconds)
	}
}

func TestHandleScreenshotInvalidURL(t *testing.T) {
	eng := &stubEngine{}
	setup(t, eng)

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing url", map[string]interface{}{}},
		{"not a url", map[string]interface{}{"url": "not a url"}},
		{"bad scheme", map[string]interface{}{"url": "ftp://example.com"}},
		{"youtube without id", map[string]interface{}{"url": "https://www.youtube.com/shorts/short"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, handleScreenshot, "/api/screenshot", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), "error") {
				t.Errorf("body = %s, want error object", rec.Body.String())
			}
		})
	}

	if len(eng.urls) != 0 {
		t.Errorf("renderer invoked for rejected requests: %v", eng.urls)
	}
}

func TestHandleScreenshotRenderFailure(t *testing.T) {
	eng := &stubEngine{err: errors.New("browser crashed")}
	setup(t, eng)

	rec := postJSON(t, handleScreenshot, "/api/screenshot", map[string]interface{}{
		"url": "https://example.com",
	})
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestHandleScreenshotMethodNotAllowed(t *testing.T) {
	setup(t, &stubEngine{})

	req := httptest.NewRequest(http.MethodGet, "/api/screenshot", nil)
	rec := httptest.NewRecorder()
	handleScreenshot(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestHandleBatch(t *testing.T) {
	eng := &stubEngine{}
	setup(t, eng)

	rec := postJSON(t, handleBatch, "/api/screenshot/batch", map[string]interface{}{
		"videoId":        "abc12345678",
		"startSec":       0,
		"endSec":         2,
		"maxConcurrency": 2,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	data := decodeData(t, rec)
	if data["total_frames"] != float64(3) {
		t.Errorf("total_frames = %v, want 3", data["total_frames"])
	}
	if data["valid_count"] != float64(3) || data["error_count"] != float64(0) {
		t.Errorf("counts = %v/%v, want 3/0", data["valid_count"], data["error_count"])
	}
	if data["has_duplicates"] != false {
		t.Errorf("has_duplicates = %v", data["has_duplicates"])
	}
	shots, ok := data["screenshots"].([]interface{})
	if !ok || len(shots) != 3 {
		t.Errorf("screenshots = %v, want 3 entries", data["screenshots"])
	}

	for _, u := range eng.urls {
		if u != "https://www.youtube.com/shorts/abc12345678" {
			t.Errorf("rendered URL = %q", u)
		}
	}
}

func TestHandleBatchAcceptsFullURL(t *testing.T) {
	eng := &stubEngine{}
	setup(t, eng)

	rec := postJSON(t, handleBatch, "/api/screenshot/batch", map[string]interface{}{
		"videoId":  "https://www.youtube.com/watch?v=abc12345678",
		"startSec": 0,
		"endSec":   1,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	data := decodeData(t, rec)
	if data["video_id"] != "abc12345678" {
		t.Errorf("video_id = %v", data["video_id"])
	}
}

func TestHandleBatchRejections(t *testing.T) {
	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing video id", map[string]interface{}{"startSec": 0, "endSec": 4}},
		{"bad youtube url", map[string]interface{}{"videoId": "https://www.youtube.com/watch?v=nope"}},
		{"negative start", map[string]interface{}{"videoId": "abc12345678", "startSec": -1, "endSec": 4}},
		{"inverted range", map[string]interface{}{"videoId": "abc12345678", "startSec": 5, "endSec": 5}},
		{"range above cap", map[string]interface{}{"videoId": "abc12345678", "startSec": 0, "endSec": 61}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := &stubEngine{}
			setup(t, eng)

			rec := postJSON(t, handleBatch, "/api/screenshot/batch", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400 (body %s)", rec.Code, rec.Body.String())
			}
			if len(eng.urls) != 0 {
				t.Errorf("renderer invoked for rejected request")
			}
		})
	}
}

func TestHandleDownloadZip(t *testing.T) {
	root := setup(t, &stubEngine{})

	dir := filepath.Join(root, "shorts_abc12345678_1700000000000")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"0s.jpg", "1s.jpg"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("frame"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/screenshot/download-zip/shorts_abc12345678_1700000000000", nil)
	rec := httptest.NewRecorder()
	handleDownloadZip(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/zip" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, `filename="shorts_abc12345678_1700000000000.zip"`) {
		t.Errorf("Content-Disposition = %q", cd)
	}

	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	if err != nil {
		t.Fatalf("response is not a ZIP: %v", err)
	}
	if len(zr.File) != 2 {
		t.Errorf("ZIP holds %d entries, want 2", len(zr.File))
	}
}

func TestHandleDownloadZipNotFound(t *testing.T) {
	setup(t, &stubEngine{})

	for _, path := range []string{
		"/api/screenshot/download-zip/nonexistent",
		"/api/screenshot/download-zip/../../etc",
		"/api/screenshot/download-zip/",
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		handleDownloadZip(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("GET %s status = %d, want 404", path, rec.Code)
		}
	}
}

func TestHandleHealth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	handleHealth(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}
