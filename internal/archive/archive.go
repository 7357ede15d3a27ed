// Package archive packages the image files of a batch directory into a ZIP
// streamed directly to the caller's writer, with no full-archive buffering.
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/flate"
)

// ErrNotFound is returned when the batch directory does not exist or holds
// no image files.
var ErrNotFound = errors.New("archive: no image files found")

// newDeflater backs zip.Deflate with klauspost/compress at best compression.
// Inputs are already-compressed JPEGs, so the level matters less than keeping
// the archive readable by every standard unzip tool.
func newDeflater(w io.Writer) (io.WriteCloser, error) {
	return flate.NewWriter(w, flate.BestCompression)
}

// ResolveBatchDir maps a user-supplied batch directory name to a path under
// root. The name is reduced to its basename so traversal input like
// "../../etc" can never escape the uploads root. Returns the resolved path
// and the sanitized name.
func ResolveBatchDir(root, name string) (string, string) {
	sanitized := filepath.Base(filepath.Clean("/" + name))
	if sanitized == "/" || sanitized == "." {
		sanitized = ""
	}
	return filepath.Join(root, sanitized), sanitized
}

// ImageFiles lists the image filenames of dir in lexical order. Returns
// ErrNotFound when the directory is missing or contains no images, so
// callers can decide on a 404 before committing response headers.
func ImageFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".jpg", ".jpeg", ".png":
			files = append(files, entry.Name())
		}
	}
	if len(files) == 0 {
		return nil, ErrNotFound
	}
	return files, nil
}

// WriteZip streams the named files of dir into w as a deflate ZIP. The
// caller has usually sent response headers already, so errors here can only
// be logged and the connection dropped.
func WriteZip(w io.Writer, dir string, files []string) error {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, newDeflater)

	for _, name := range files {
		entry, err := zw.Create(name)
		if err != nil {
			return fmt.Errorf("create ZIP entry for %s: %w", name, err)
		}

		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("open %s: %w", name, err)
		}
		if _, err := io.Copy(entry, f); err != nil {
			f.Close()
			return fmt.Errorf("write ZIP entry for %s: %w", name, err)
		}
		f.Close()
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("close ZIP writer: %w", err)
	}
	return nil
}
