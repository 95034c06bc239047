package imagecodec

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/notebox/internal/apperr"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestEncodeEmptyPath(t *testing.T) {
	data, err := New("").Encode("")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if data != nil {
		t.Errorf("expected nil image, got %v", data)
	}
}

func TestEncodeRejectsExtension(t *testing.T) {
	p := writeFile(t, "a.txt", []byte("hello"))
	data, err := New("").Encode(p)
	if !errors.Is(err, apperr.ErrInvalidFormat) {
		t.Fatalf("err = %v, want ErrInvalidFormat", err)
	}
	if data != nil {
		t.Errorf("expected nil image for rejected format")
	}
}

func TestEncodeReadsExactBytes(t *testing.T) {
	p := writeFile(t, "a.png", pngHeader)
	data, err := New("").Encode(p)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.Equal(data, pngHeader) {
		t.Errorf("bytes mismatch: %v", data)
	}
}

func TestEncodeExtensionCaseInsensitive(t *testing.T) {
	for _, name := range []string{"A.PNG", "b.Jpg", "c.JPEG", "d.gif"} {
		p := writeFile(t, name, []byte("x"))
		if _, err := New("").Encode(p); err != nil {
			t.Errorf("%s: unexpected error %v", name, err)
		}
	}
}

func TestEncodeEmptyFileIsEmptyBlob(t *testing.T) {
	p := writeFile(t, "empty.gif", nil)
	data, err := New("").Encode(p)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if data == nil || len(data) != 0 {
		t.Errorf("expected empty non-nil blob, got %v", data)
	}
}

func TestEncodeMissingFile(t *testing.T) {
	_, err := New("").Encode(filepath.Join(t.TempDir(), "missing.jpg"))
	if !errors.Is(err, apperr.ErrIO) {
		t.Fatalf("err = %v, want ErrIO", err)
	}
}

func TestDecodeToTempFile(t *testing.T) {
	dir := t.TempDir()
	c := New(dir)

	img, err := c.DecodeToTempFile(pngHeader, 7)
	if err != nil {
		t.Fatalf("DecodeToTempFile: %v", err)
	}
	if filepath.Dir(img.Path) != dir {
		t.Errorf("temp file outside temp dir: %s", img.Path)
	}
	base := filepath.Base(img.Path)
	if !strings.HasPrefix(base, "temp_image_7_") || !strings.HasSuffix(base, ".png") {
		t.Errorf("unexpected temp name %q", base)
	}

	got, err := os.ReadFile(img.Path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, pngHeader) {
		t.Errorf("temp content mismatch")
	}

	// The temp file must be accepted back by Encode.
	if _, err := c.Encode(img.Path); err != nil {
		t.Errorf("re-encode temp: %v", err)
	}

	if err := img.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(img.Path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("temp file still present after Close")
	}
	if err := img.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestDecodeToTempFileUniqueNames(t *testing.T) {
	c := New(t.TempDir())
	a, err := c.DecodeToTempFile([]byte("GIF89a"), 1)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	b, err := c.DecodeToTempFile([]byte("GIF89a"), 1)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()
	if a.Path == b.Path {
		t.Errorf("expected unique temp names, both %s", a.Path)
	}
	if !strings.HasSuffix(a.Path, ".gif") {
		t.Errorf("expected .gif suffix for GIF content, got %s", a.Path)
	}
}
