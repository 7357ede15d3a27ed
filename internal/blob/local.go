package blob

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// PublicPrefix is the URL prefix under which the uploads root is served.
const PublicPrefix = "/data/uploads"

// Local writes objects beneath an uploads root directory.
type Local struct {
	root string
}

var _ Store = (*Local)(nil)

// NewLocal creates a filesystem store rooted at root. The root must already
// exist; per-object subdirectories are created on demand.
func NewLocal(root string) *Local {
	return &Local{root: root}
}

func (l *Local) Put(_ context.Context, obj Object) (StorageResult, error) {
	dir := l.root
	if obj.LocalDir != "" {
		dir = filepath.Join(l.root, obj.LocalDir)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return StorageResult{}, fmt.Errorf("create dir %s: %w", dir, err)
		}
	}

	fullPath := filepath.Join(dir, obj.Filename)
	if err := os.WriteFile(fullPath, obj.Data, 0o644); err != nil {
		return StorageResult{}, fmt.Errorf("write %s: %w", fullPath, err)
	}

	log.Debug().Str("path", fullPath).Int("bytes", len(obj.Data)).Msg("Image written to disk")

	return StorageResult{
		LocalPath:  fullPath,
		PublicPath: path.Join(PublicPrefix, obj.LocalDir, obj.Filename),
	}, nil
}
