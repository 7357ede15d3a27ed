package capture

import (
	"context"
	"fmt"
	"path"

	"github.com/rs/zerolog/log"

	"github.com/ykarasawa/framegrab/internal/blob"
	"github.com/ykarasawa/framegrab/internal/metastore"
	"github.com/ykarasawa/framegrab/internal/renderer"
	"github.com/ykarasawa/framegrab/internal/youtube"
)

// captureFrame captures one frame of a video at the given second and stores
// it under the batch directory. It never returns an error: every renderer or
// storage failure is converted into a FrameResult carrying the message, so a
// single bad frame cannot take down its batch.
func (o *Orchestrator) captureFrame(ctx context.Context, videoID string, second int, batchID string) FrameResult {
	seek := second
	img, err := o.Engine.Render(ctx, youtube.ShortsURL(videoID), renderer.Options{
		Viewport:    renderer.ShortsViewport,
		SeekSeconds: &seek,
	})
	if err != nil {
		log.Warn().Err(err).Str("videoId", videoID).Int("second", second).Msg("Frame render failed")
		return o.frameFailure(ctx, batchID, second, err.Error())
	}

	filename := fmt.Sprintf("%ds.jpg", second)
	stored, err := o.Blobs.Put(ctx, blob.Object{
		Data:        img,
		ContentType: "image/jpeg",
		LocalDir:    batchID,
		RemoteDir:   path.Join("batches", videoID, batchID),
		Filename:    filename,
	})
	if err != nil {
		log.Warn().Err(err).Str("videoId", videoID).Int("second", second).Msg("Frame storage failed")
		return o.frameFailure(ctx, batchID, second, fmt.Sprintf("failed to store frame: %v", err))
	}

	o.putFrameMeta(ctx, batchID, &metastore.Frame{
		Second:    second,
		Success:   true,
		LocalPath: stored.LocalPath,
		RemoteKey: stored.RemoteKey,
		RemoteURL: stored.RemoteURL,
	})

	return FrameResult{
		Timestamp: second,
		Success:   true,
		ImageURL:  stored.RemoteURL,
		Path:      stored.PublicPath,
		LocalPath: stored.LocalPath,
	}
}

func (o *Orchestrator) frameFailure(ctx context.Context, batchID string, second int, msg string) FrameResult {
	o.putFrameMeta(ctx, batchID, &metastore.Frame{
		Second:  second,
		Success: false,
		Error:   msg,
	})
	return FrameResult{Timestamp: second, Success: false, Error: msg}
}

// putFrameMeta persists one frame record. Metadata writes are best-effort:
// failures are logged and the capture result stands.
func (o *Orchestrator) putFrameMeta(ctx context.Context, batchID string, frame *metastore.Frame) {
	if err := o.Meta.PutFrame(ctx, batchID, frame); err != nil {
		log.Warn().Err(err).Str("batchId", batchID).Int("second", frame.Second).Msg("Failed to persist frame metadata")
	}
}
