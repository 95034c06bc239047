package internal

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/notebox/internal/events"
	"github.com/starford/notebox/internal/sse"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := NewDefaultConfig()
	cfg.Database.DSN = filepath.Join(t.TempDir(), "notebox.db")
	cfg.Images.TempDir = t.TempDir()
	cfg.App.HTTP.RateLimit = 0
	return cfg
}

func TestOpenServiceAppliesConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Pager.PageSize = 7

	svc, store, err := OpenService(context.Background(), cfg, NewLogger(io.Discard, cfg.App.LogLevel), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	if svc.PageSize() != 7 {
		t.Errorf("page size = %d, want 7", svc.PageSize())
	}
	if store.Driver() != "sqlite" {
		t.Errorf("driver = %q", store.Driver())
	}
}

func TestOpenServiceBadDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.Driver = "oracle"
	if _, _, err := OpenService(context.Background(), cfg, NewLogger(io.Discard, cfg.App.LogLevel), nil); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestHealthEndpoints(t *testing.T) {
	cfg := testConfig(t)
	svc, store, err := OpenService(context.Background(), cfg, NewLogger(io.Discard, cfg.App.LogLevel), nil)
	if err != nil {
		t.Fatal(err)
	}
	h := newHTTPHandler(cfg, svc, store.Ping, nil)

	for _, path := range []string{"/health/live", "/health/ready"} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, w.Code)
		}
	}

	store.Close()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("ready after close: expected 503, got %d", w.Code)
	}
}

func TestHTTPHandlerStreamsNoteEvents(t *testing.T) {
	cfg := testConfig(t)
	logger := NewLogger(io.Discard, cfg.App.LogLevel)
	bus := events.NewBus(16, logger)
	defer bus.Close()

	svc, store, err := OpenService(context.Background(), cfg, logger, bus)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	broker := sse.NewBroker(time.Second)
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	in, err := bus.Subscribe(ctx)
	if err != nil {
		t.Fatal(err)
	}
	go broker.Forward(ctx, in)

	srv := httptest.NewServer(newHTTPHandler(cfg, svc, store.Ping, broker))
	defer srv.Close()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	// Wait for the stream to register before writing.
	deadline := time.Now().Add(2 * time.Second)
	for broker.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	post, err := http.Post(srv.URL+"/api/notes", "application/json", strings.NewReader(`{"title":"Live","content":"x"}`))
	if err != nil {
		t.Fatal(err)
	}
	post.Body.Close()
	if post.StatusCode != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", post.StatusCode)
	}

	got := make(chan string, 1)
	go func() {
		buf := make([]byte, 4096)
		var sb strings.Builder
		for {
			n, err := resp.Body.Read(buf)
			sb.Write(buf[:n])
			if strings.Contains(sb.String(), "event: note.created") || err != nil {
				got <- sb.String()
				return
			}
		}
	}()

	select {
	case body := <-got:
		if !strings.Contains(body, "event: note.created") {
			t.Errorf("stream = %q", body)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for note.created on the stream")
	}
}

func TestRunRequiresConfig(t *testing.T) {
	err := Run(context.Background())
	if err == nil || errors.Is(err, errShutdown) {
		t.Fatalf("expected config error, got %v", err)
	}
}
