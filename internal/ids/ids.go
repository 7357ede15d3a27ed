// Package ids generates the identifiers used for screenshots and batches.
package ids

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Screenshot returns a random ID for a single capture.
func Screenshot() string {
	return uuid.NewString()
}

// Batch derives a batch ID from the video and the creation time. The unix
// millisecond suffix keeps repeated batches for the same video distinct and
// doubles as the on-disk directory name.
func Batch(videoID string, t time.Time) string {
	return fmt.Sprintf("shorts_%s_%d", videoID, t.UnixMilli())
}
