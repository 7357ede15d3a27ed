package blob

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
)

// ErrNoBackend is returned when a fan-out store has nothing to write to.
var ErrNoBackend = errors.New("blob: no storage backend enabled")

// Fanout writes each object to the local backend and then the remote one,
// merging their results.
//
// Failure policy: a local write failure fails the Put — the caller has no
// usable image. A remote upload failure after a successful local write is
// logged and degrades the result (RemoteKey/RemoteURL stay empty) without
// failing the Put. With no local backend the remote failure is the failure.
type Fanout struct {
	Local  Store // nil when local storage is skipped
	Remote Store // nil when remote storage is disabled
}

var _ Store = (*Fanout)(nil)

func (f *Fanout) Put(ctx context.Context, obj Object) (StorageResult, error) {
	if f.Local == nil && f.Remote == nil {
		return StorageResult{}, ErrNoBackend
	}

	var result StorageResult

	if f.Local != nil {
		localResult, err := f.Local.Put(ctx, obj)
		if err != nil {
			return StorageResult{}, err
		}
		result.LocalPath = localResult.LocalPath
		result.PublicPath = localResult.PublicPath
	}

	if f.Remote != nil {
		remoteResult, err := f.Remote.Put(ctx, obj)
		if err != nil {
			if f.Local == nil {
				return StorageResult{}, err
			}
			log.Warn().Err(err).Str("file", obj.Filename).Msg("Remote upload failed, keeping local copy only")
		} else {
			result.RemoteKey = remoteResult.RemoteKey
			result.RemoteURL = remoteResult.RemoteURL
		}
	}

	return result, nil
}
