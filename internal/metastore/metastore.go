// Package metastore records screenshot and batch descriptors in a document
// store, independent of the image bytes themselves.
//
// Persistence is best-effort by contract: callers log failures and carry on,
// so a metadata outage never fails a capture that already produced an image.
//
// The DynamoDB implementation uses a single-table design where all records
// for a batch share a partition key (BATCH#{batchId}). Sort keys distinguish
// record types: META for the batch itself and FRAME#{second} for per-frame
// results. Single screenshots live under SHOT#{id}.
package metastore

import "context"

// Store is the persistence interface for capture metadata. Each method is
// safe for concurrent use. Get methods return (nil, nil) when the requested
// record does not exist; Put methods perform full-item replacement.
type Store interface {
	// PutScreenshot records a single (non-batch) capture.
	PutScreenshot(ctx context.Context, shot *Screenshot) error

	// PutBatch creates or replaces a batch record.
	PutBatch(ctx context.Context, batch *Batch) error

	// GetBatch retrieves a batch record. Returns nil, nil if not found.
	GetBatch(ctx context.Context, batchID string) (*Batch, error)

	// CompleteBatch atomically updates the completion fields of a batch
	// without overwriting the rest of the record.
	CompleteBatch(ctx context.Context, batchID string, done BatchCompletion) error

	// PutFrame records one frame result of a batch.
	PutFrame(ctx context.Context, batchID string, frame *Frame) error
}

// Screenshot is the metadata of one single capture.
type Screenshot struct {
	ID        string `dynamodbav:"-"`
	URL       string `dynamodbav:"url"`
	VideoID   string `dynamodbav:"videoId,omitempty"`
	Timestamp *int   `dynamodbav:"timestamp,omitempty"`
	IsShorts  bool   `dynamodbav:"isShorts"`
	LocalPath string `dynamodbav:"localPath,omitempty"`
	RemoteKey string `dynamodbav:"remoteKey,omitempty"`
	RemoteURL string `dynamodbav:"remoteUrl,omitempty"`
	CreatedAt string `dynamodbav:"createdAt"`
}

// Batch is the metadata of one batch capture run.
type Batch struct {
	ID             string `dynamodbav:"-"`
	VideoID        string `dynamodbav:"videoId"`
	URL            string `dynamodbav:"url"`
	StartSec       int    `dynamodbav:"startSec"`
	EndSec         int    `dynamodbav:"endSec"`
	MaxConcurrency int    `dynamodbav:"maxConcurrency"`
	TotalFrames    int    `dynamodbav:"totalFrames"`
	Status         string `dynamodbav:"status"`
	CreatedAt      string `dynamodbav:"createdAt"`
}

// Batch status values.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
)

// BatchCompletion carries the final statistics written when a batch finishes.
type BatchCompletion struct {
	ValidCount    int
	ErrorCount    int
	HasDuplicates bool
	ResultSummary string
	CompletedAt   string
}

// Frame is the stored result of one frame capture within a batch.
type Frame struct {
	Second    int    `dynamodbav:"second"`
	Success   bool   `dynamodbav:"success"`
	Error     string `dynamodbav:"error,omitempty"`
	LocalPath string `dynamodbav:"localPath,omitempty"`
	RemoteKey string `dynamodbav:"remoteKey,omitempty"`
	RemoteURL string `dynamodbav:"remoteUrl,omitempty"`
	CreatedAt string `dynamodbav:"createdAt"`
}
