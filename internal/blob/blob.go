// Package blob persists captured image bytes. Two backends exist — the local
// filesystem under the uploads root, and S3 object storage — plus a fan-out
// store that writes to whichever backends the configuration enables.
//
// Every backend produces the same StorageResult shape, so callers never probe
// for backend-specific fields.
package blob

import "context"

// Object is one image to persist.
type Object struct {
	Data        []byte
	ContentType string

	// LocalDir is the directory relative to the uploads root, "" for the
	// root itself. Batch frames use the batch ID here.
	LocalDir string

	// RemoteDir is the object key prefix for remote storage, e.g.
	// "batches/<videoId>/<batchId>" or "websites".
	RemoteDir string

	Filename string
}

// StorageResult reports where an object ended up. Fields are empty when the
// corresponding backend is disabled or failed non-fatally.
type StorageResult struct {
	// LocalPath is the absolute path on disk.
	LocalPath string

	// PublicPath is the URL path under which the local file is served,
	// e.g. "/data/uploads/<batchId>/3s.jpg".
	PublicPath string

	// RemoteKey is the object storage key.
	RemoteKey string

	// RemoteURL is the public URL of the remote object.
	RemoteURL string
}

// Store persists image bytes and reports the resulting locations.
type Store interface {
	Put(ctx context.Context, obj Object) (StorageResult, error)
}
