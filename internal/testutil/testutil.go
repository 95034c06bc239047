// Package testutil provides shared test helpers for setting up stores, image
// files and services.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/notebox/internal/imagecodec"
	"github.com/starford/notebox/internal/noteservice"
	"github.com/starford/notebox/internal/notestore"
)

// PNG is the 8-byte PNG signature followed by a few payload bytes; enough for
// content sniffing to report image/png.
var PNG = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d}

// TestStore creates a temporary SQLite note store that is automatically cleaned up.
func TestStore(t *testing.T, opts ...notestore.Option) *notestore.Store {
	t.Helper()
	dbFile, err := os.CreateTemp("", "notebox-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	s, err := notestore.Open(context.Background(), notestore.DriverSQLite, dbFile.Name(), opts...)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// TestImage writes data to a file called name in a fresh temp dir and returns its path.
func TestImage(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// DiscardLogger returns a logger that writes nowhere.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// TestService wires a service over a fresh store. Temp images go to a
// per-test directory.
func TestService(t *testing.T, opts ...noteservice.Option) (*noteservice.Service, *notestore.Store) {
	t.Helper()
	store := TestStore(t)
	opts = append([]noteservice.Option{noteservice.WithLogger(DiscardLogger())}, opts...)
	return noteservice.NewService(store, imagecodec.New(t.TempDir()), opts...), store
}
