package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ykarasawa/framegrab/internal/blob"
	"github.com/ykarasawa/framegrab/internal/ids"
	"github.com/ykarasawa/framegrab/internal/metastore"
	"github.com/ykarasawa/framegrab/internal/metrics"
	"github.com/ykarasawa/framegrab/internal/renderer"
	"github.com/ykarasawa/framegrab/internal/youtube"
)

// Orchestrator owns the batch lifecycle: validation, batch record creation,
// chunked scheduling of frame captures, and final aggregation. One
// Orchestrator serves all batches; per-batch state lives in Run.
type Orchestrator struct {
	Engine renderer.Engine
	Blobs  blob.Store
	Meta   metastore.Store

	// LocalRoot is the uploads root on disk. Empty when local storage is
	// skipped; then no batch directory is prepared and responses omit
	// batch_directory.
	LocalRoot string

	now func() time.Time
}

// NewOrchestrator wires an orchestrator. meta may be nil for no metadata
// persistence; localRoot may be empty when local storage is disabled.
func NewOrchestrator(engine renderer.Engine, blobs blob.Store, meta metastore.Store, localRoot string) *Orchestrator {
	if meta == nil {
		meta = metastore.Noop{}
	}
	return &Orchestrator{
		Engine:    engine,
		Blobs:     blobs,
		Meta:      meta,
		LocalRoot: localRoot,
		now:       time.Now,
	}
}

// Run executes one batch capture. It returns an *InvalidRangeError for bad
// requests and a plain error only for setup failures that occur before any
// frame task runs; per-frame failures are reported inside the result.
//
// The duplicate-detection set and all counters are computed from the joined
// result slice after scheduling finishes, never concurrently with tasks.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*BatchResult, error) {
	if req.MaxConcurrency <= 0 {
		req.MaxConcurrency = DefaultMaxConcurrency
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	started := o.now()
	batchID := ids.Batch(req.VideoID, started)
	url := youtube.ShortsURL(req.VideoID)

	seconds := make([]int, 0, req.EndSec-req.StartSec+1)
	for sec := req.StartSec; sec <= req.EndSec; sec++ {
		seconds = append(seconds, sec)
	}

	log.Info().
		Str("batchId", batchID).
		Str("url", url).
		Int("startSec", req.StartSec).
		Int("endSec", req.EndSec).
		Int("maxConcurrency", req.MaxConcurrency).
		Msg("Batch capture started")

	if o.LocalRoot != "" {
		if err := os.MkdirAll(filepath.Join(o.LocalRoot, batchID), 0o755); err != nil {
			return nil, fmt.Errorf("create batch directory: %w", err)
		}
	}

	if err := o.Meta.PutBatch(ctx, &metastore.Batch{
		ID:             batchID,
		VideoID:        req.VideoID,
		URL:            url,
		StartSec:       req.StartSec,
		EndSec:         req.EndSec,
		MaxConcurrency: req.MaxConcurrency,
		TotalFrames:    len(seconds),
		Status:         metastore.StatusProcessing,
	}); err != nil {
		log.Warn().Err(err).Str("batchId", batchID).Msg("Failed to persist batch record")
	}

	results := runChunks(ctx, seconds, req.MaxConcurrency, func(ctx context.Context, second int) FrameResult {
		return o.captureFrame(ctx, req.VideoID, second, batchID)
	})

	validCount := 0
	distinct := make(map[int]struct{}, len(results))
	for _, r := range results {
		if r.Success {
			validCount++
		}
		distinct[r.Timestamp] = struct{}{}
	}
	errorCount := len(results) - validCount
	hasDuplicates := len(results) != len(distinct)

	var notes []string
	if hasDuplicates {
		notes = append(notes, "Duplicate frames were detected.")
	}
	if errorCount > 0 {
		notes = append(notes, fmt.Sprintf("%d frames failed to capture.", errorCount))
	}

	if err := o.Meta.CompleteBatch(ctx, batchID, metastore.BatchCompletion{
		ValidCount:    validCount,
		ErrorCount:    errorCount,
		HasDuplicates: hasDuplicates,
		ResultSummary: fmt.Sprintf("%d valid images, %d errors", validCount, errorCount),
	}); err != nil {
		log.Warn().Err(err).Str("batchId", batchID).Msg("Failed to persist batch completion")
	}

	log.Info().
		Str("batchId", batchID).
		Int("frames", len(results)).
		Int("valid", validCount).
		Int("errors", errorCount).
		Bool("duplicates", hasDuplicates).
		Msg("Batch capture completed")

	metrics.New("BatchCapture").
		Metric("TotalFrames", float64(len(results)), metrics.UnitCount).
		Metric("ValidFrames", float64(validCount), metrics.UnitCount).
		Metric("ErrorFrames", float64(errorCount), metrics.UnitCount).
		Duration("BatchDuration", time.Since(started)).
		Property("batchId", batchID).
		Property("videoId", req.VideoID).
		Flush()

	result := &BatchResult{
		BatchID:       batchID,
		VideoID:       req.VideoID,
		StartSec:      req.StartSec,
		EndSec:        req.EndSec,
		TotalFrames:   len(results),
		ValidCount:    validCount,
		ErrorCount:    errorCount,
		HasDuplicates: hasDuplicates,
		Info:          strings.Join(notes, " "),
		Screenshots:   results,
	}
	if o.LocalRoot != "" {
		result.BatchDirectory = blob.PublicPrefix + "/" + batchID
	}
	return result, nil
}
