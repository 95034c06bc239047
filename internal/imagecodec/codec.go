// Package imagecodec converts between image files on disk and the blobs stored with notes.
package imagecodec

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/notebox/internal/apperr"
)

var allowedExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
}

var mimeToExt = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
}

// Codec reads image files into blobs and materialises blobs as temp files.
type Codec struct {
	tempDir string // empty means os.TempDir()
}

// New creates a Codec writing temp files under tempDir.
func New(tempDir string) *Codec {
	return &Codec{tempDir: tempDir}
}

// Allowed reports whether path carries a whitelisted image extension.
func Allowed(path string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(path))]
}

// Encode reads the image at path. An empty path yields no image and no error.
// A non-whitelisted extension yields apperr.ErrInvalidFormat and no image; callers
// are expected to carry on without one.
func (c *Codec) Encode(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	if !Allowed(path) {
		return nil, fmt.Errorf("imagecodec: %w: %s (allowed: png, jpg, jpeg, gif)", apperr.ErrInvalidFormat, filepath.Ext(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("imagecodec: read %s: %w: %w", path, apperr.ErrIO, err)
	}
	if data == nil {
		data = []byte{}
	}
	return data, nil
}

// TempImage is a blob materialised on disk for the duration of an edit.
type TempImage struct {
	Path string
}

// Close removes the file. Safe to call more than once.
func (t *TempImage) Close() error {
	if t == nil || t.Path == "" {
		return nil
	}
	if err := os.Remove(t.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("imagecodec: remove temp %s: %w", t.Path, err)
	}
	return nil
}

// DecodeToTempFile writes data to a uniquely named temp file scoped to noteID.
// The caller owns the returned file and must Close it.
func (c *Codec) DecodeToTempFile(data []byte, noteID int64) (*TempImage, error) {
	ext := mimeToExt[strings.Split(http.DetectContentType(data), ";")[0]]
	if ext == "" {
		ext = ".png"
	}

	tmp, err := os.CreateTemp(c.tempDir, fmt.Sprintf("temp_image_%d_*%s", noteID, ext))
	if err != nil {
		return nil, fmt.Errorf("imagecodec: create temp: %w: %w", apperr.ErrIO, err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return nil, fmt.Errorf("imagecodec: write temp: %w: %w", apperr.ErrIO, err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("imagecodec: close temp: %w: %w", apperr.ErrIO, err)
	}
	success = true
	return &TempImage{Path: tmpName}, nil
}
