// Package capture implements the batch frame-capture orchestrator: given a
// video and a second range it drives a bounded number of concurrent renderer
// sessions, isolates per-frame failures, and assembles a consolidated batch
// result with validity and duplicate statistics.
package capture

import "fmt"

const (
	// DefaultMaxConcurrency bounds in-flight renderer sessions when the
	// request does not specify a limit.
	DefaultMaxConcurrency = 5

	// MaxRangeSeconds caps the size of a single batch range.
	MaxRangeSeconds = 60
)

// Request is a batch capture request. VideoID must already be a bare 11-char
// video ID; URL extraction happens at the handler.
type Request struct {
	VideoID        string
	StartSec       int
	EndSec         int
	MaxConcurrency int
}

// InvalidRangeError reports a request that fails validation. Handlers map it
// to a 400 response.
type InvalidRangeError struct {
	Reason string
}

func (e *InvalidRangeError) Error() string {
	return e.Reason
}

// Validate checks the request invariants. A zero MaxConcurrency is allowed
// here; Run substitutes the default before scheduling.
func (r *Request) Validate() error {
	if r.VideoID == "" {
		return &InvalidRangeError{Reason: "video id is required"}
	}
	if r.StartSec < 0 || r.EndSec <= r.StartSec {
		return &InvalidRangeError{Reason: "startSec must be at least 0 and endSec must be greater than startSec"}
	}
	if r.EndSec-r.StartSec > MaxRangeSeconds {
		return &InvalidRangeError{Reason: fmt.Sprintf("range must not exceed %d seconds", MaxRangeSeconds)}
	}
	return nil
}

// FrameResult is the outcome of one frame capture. Exactly one is produced
// per requested second. Location fields are set only for the storage backends
// that succeeded.
type FrameResult struct {
	Timestamp int    `json:"timestamp"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	ImageURL  string `json:"image_url,omitempty"`
	Path      string `json:"path,omitempty"`
	LocalPath string `json:"local_path,omitempty"`
}

// BatchResult is the consolidated outcome of one batch run.
type BatchResult struct {
	BatchID        string        `json:"batch_id"`
	VideoID        string        `json:"video_id"`
	StartSec       int           `json:"start_sec"`
	EndSec         int           `json:"end_sec"`
	TotalFrames    int           `json:"total_frames"`
	ValidCount     int           `json:"valid_count"`
	ErrorCount     int           `json:"error_count"`
	HasDuplicates  bool          `json:"has_duplicates"`
	BatchDirectory string        `json:"batch_directory,omitempty"`
	Info           string        `json:"info,omitempty"`
	Screenshots    []FrameResult `json:"screenshots"`
}
