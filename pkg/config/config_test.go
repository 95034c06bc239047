package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Count int    `yaml:"count"`
}

func (s *sample) Validate() error {
	if s.Count < 0 {
		return errors.New("count must not be negative")
	}
	return nil
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "notes")
	target := &sample{Count: 3}
	if err := Load(writeFile(t, "name: ${SAMPLE_NAME}\n"), target); err != nil {
		t.Fatal(err)
	}
	if target.Name != "notes" || target.Count != 3 {
		t.Errorf("got %+v", target)
	}
}

func TestLoadValidates(t *testing.T) {
	err := Load(writeFile(t, "count: -1\n"), &sample{})
	if err == nil || !strings.Contains(err.Error(), "validation failed") {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if err := Load(filepath.Join(t.TempDir(), "nope.yaml"), &sample{}); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadOptional(t *testing.T) {
	target := &sample{Name: "default"}
	if err := LoadOptional(filepath.Join(t.TempDir(), "nope.yaml"), target); err != nil {
		t.Fatal(err)
	}
	if target.Name != "default" {
		t.Errorf("defaults lost: %+v", target)
	}

	if err := LoadOptional(filepath.Join(t.TempDir(), "nope.yaml"), &sample{Count: -5}); err == nil {
		t.Fatal("defaults must still be validated")
	}
}
