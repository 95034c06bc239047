package notestore

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/starford/notebox/internal/apperr"
	"github.com/starford/notebox/internal/models"
)

func testStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	f, err := os.CreateTemp("", "notebox-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	s, err := Open(context.Background(), DriverSQLite, f.Name(), opts...)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// fixedClock returns a clock that reports *now; tests move it by assignment.
func fixedClock(now *time.Time) Option {
	return WithClock(func() time.Time { return *now })
}

func mustCreate(t *testing.T, s *Store, d models.Draft) models.Created {
	t.Helper()
	c, err := s.Create(context.Background(), d)
	if err != nil {
		t.Fatalf("Create(%q): %v", d.Title, err)
	}
	return c
}

func ids(notes []models.Note) []int64 {
	out := make([]int64, len(notes))
	for i, n := range notes {
		out[i] = n.ID
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSchemaCreation(t *testing.T) {
	s := testStore(t)
	var count int
	if err := s.conn.QueryRow(`SELECT count(*) FROM notes`).Scan(&count); err != nil {
		t.Fatalf("notes table missing: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	f, err := os.CreateTemp("", "notebox-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	ctx := context.Background()
	first, err := Open(ctx, DriverSQLite, f.Name())
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	if _, err := first.Create(ctx, models.Draft{Title: "kept"}); err != nil {
		t.Fatal(err)
	}
	first.Close()

	second, err := Open(ctx, DriverSQLite, f.Name())
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	defer second.Close()
	all, err := second.All(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 || all[0].Title != "kept" {
		t.Errorf("existing rows lost on reopen: %+v", all)
	}
}

func TestOpenUnsupportedDriver(t *testing.T) {
	if _, err := Open(context.Background(), "oracle", "x"); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestCreateAndGetRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	img := []byte("\x89PNG\r\n\x1a\nbody")

	c := mustCreate(t, s, models.Draft{Title: "Shopping", Content: "milk, eggs", Image: img})
	if c.ID <= 0 {
		t.Fatalf("id = %d", c.ID)
	}
	if !c.CreatedAt.Equal(c.UpdatedAt) {
		t.Errorf("created_at %v != updated_at %v on create", c.CreatedAt, c.UpdatedAt)
	}

	n, err := s.Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if n.Title != "Shopping" || n.Content != "milk, eggs" {
		t.Errorf("got %q/%q", n.Title, n.Content)
	}
	if !bytes.Equal(n.Image, img) {
		t.Errorf("image mismatch: %v", n.Image)
	}
	if !n.CreatedAt.Equal(c.CreatedAt) {
		t.Errorf("created_at = %v, want %v", n.CreatedAt, c.CreatedAt)
	}
}

func TestImageAbsentVersusEmpty(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	none := mustCreate(t, s, models.Draft{Title: "no image"})
	empty := mustCreate(t, s, models.Draft{Title: "empty image", Image: []byte{}})

	n, err := s.Get(ctx, none.ID)
	if err != nil {
		t.Fatal(err)
	}
	if n.HasImage() {
		t.Errorf("note without image reports one: %v", n.Image)
	}

	e, err := s.Get(ctx, empty.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !e.HasImage() || len(e.Image) != 0 {
		t.Errorf("empty blob not preserved: %v", e.Image)
	}
}

func TestCreateBlankTitleWritesNothing(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for _, title := range []string{"", "   ", "\t\n"} {
		_, err := s.Create(ctx, models.Draft{Title: title, Content: "body"})
		if !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("title %q: err = %v, want ErrValidation", title, err)
		}
	}
	all, err := s.All(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 0 {
		t.Errorf("blank titles inserted %d rows", len(all))
	}
}

func TestGetNotFound(t *testing.T) {
	s := testStore(t)
	_, err := s.Get(context.Background(), 42)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestAllInsertionOrder(t *testing.T) {
	s := testStore(t)
	var want []int64
	for _, title := range []string{"c", "a", "b"} {
		want = append(want, mustCreate(t, s, models.Draft{Title: title}).ID)
	}
	all, err := s.All(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !equalIDs(ids(all), want) {
		t.Errorf("order = %v, want %v", ids(all), want)
	}
}

func TestUpdateReplacesFields(t *testing.T) {
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	s := testStore(t, fixedClock(&now))
	ctx := context.Background()

	c := mustCreate(t, s, models.Draft{Title: "old", Content: "old body", Image: []byte("GIF89a")})

	now = now.Add(90 * time.Minute)
	updatedAt, err := s.Update(ctx, c.ID, models.Draft{Title: "new", Content: "new body"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !updatedAt.Equal(now) {
		t.Errorf("updated_at = %v, want %v", updatedAt, now)
	}

	n, err := s.Get(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if n.Title != "new" || n.Content != "new body" {
		t.Errorf("got %q/%q", n.Title, n.Content)
	}
	if n.HasImage() {
		t.Errorf("nil image on update should clear stored image")
	}
	if !n.CreatedAt.Equal(c.CreatedAt) {
		t.Errorf("created_at changed: %v -> %v", c.CreatedAt, n.CreatedAt)
	}
	if n.CreatedAt.After(n.UpdatedAt) {
		t.Errorf("created_at %v after updated_at %v", n.CreatedAt, n.UpdatedAt)
	}
}

func TestUpdateNeverPrecedesCreatedAt(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	s := testStore(t, fixedClock(&now))
	ctx := context.Background()

	c := mustCreate(t, s, models.Draft{Title: "clock"})

	now = now.Add(-time.Hour) // clock stepped backwards
	updatedAt, err := s.Update(ctx, c.ID, models.Draft{Title: "clock"})
	if err != nil {
		t.Fatal(err)
	}
	if updatedAt.Before(c.CreatedAt) {
		t.Errorf("updated_at %v precedes created_at %v", updatedAt, c.CreatedAt)
	}
}

func TestUpdateNotFound(t *testing.T) {
	s := testStore(t)
	_, err := s.Update(context.Background(), 99, models.Draft{Title: "x"})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateBlankTitleLeavesRow(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	c := mustCreate(t, s, models.Draft{Title: "keep", Content: "body"})

	if _, err := s.Update(ctx, c.ID, models.Draft{Title: " ", Content: "changed"}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	n, _ := s.Get(ctx, c.ID)
	if n.Title != "keep" || n.Content != "body" {
		t.Errorf("row partially updated: %+v", n)
	}
}

func TestDeleteIdempotent(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	c := mustCreate(t, s, models.Draft{Title: "bye"})
	other := mustCreate(t, s, models.Draft{Title: "stay"})

	if err := s.Delete(ctx, c.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, c.ID); err != nil {
		t.Fatalf("second Delete: %v", err)
	}
	if err := s.Delete(ctx, 12345); err != nil {
		t.Fatalf("Delete missing: %v", err)
	}

	all, _ := s.All(ctx)
	if !equalIDs(ids(all), []int64{other.ID}) {
		t.Errorf("remaining = %v, want [%d]", ids(all), other.ID)
	}
}

func TestIDsNotReused(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	a := mustCreate(t, s, models.Draft{Title: "a"})
	b := mustCreate(t, s, models.Draft{Title: "b"})
	_ = s.Delete(ctx, b.ID)

	c := mustCreate(t, s, models.Draft{Title: "c"})
	if c.ID == b.ID || c.ID <= a.ID {
		t.Errorf("id reused: a=%d b=%d c=%d", a.ID, b.ID, c.ID)
	}
}

func TestFindByTitleCaseInsensitive(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	hit1 := mustCreate(t, s, models.Draft{Title: "xxABCxx"})
	_ = mustCreate(t, s, models.Draft{Title: "nothing", Content: "abc"})
	hit2 := mustCreate(t, s, models.Draft{Title: "abc"})
	hit3 := mustCreate(t, s, models.Draft{Title: "the aBc list"})

	for _, q := range []string{"abc", "ABC", "aBc"} {
		got, err := s.FindByTitle(ctx, q)
		if err != nil {
			t.Fatal(err)
		}
		want := []int64{hit1.ID, hit2.ID, hit3.ID}
		if !equalIDs(ids(got), want) {
			t.Errorf("FindByTitle(%q) = %v, want %v", q, ids(got), want)
		}
	}
}

func TestFindByTitleUnicode(t *testing.T) {
	s := testStore(t)
	hit := mustCreate(t, s, models.Draft{Title: "Заметка о ПОКУПКАХ"})
	got, err := s.FindByTitle(context.Background(), "покупках")
	if err != nil {
		t.Fatal(err)
	}
	if !equalIDs(ids(got), []int64{hit.ID}) {
		t.Errorf("unicode match = %v, want [%d]", ids(got), hit.ID)
	}
}

func TestFindByTitleWildcardsAreLiteral(t *testing.T) {
	s := testStore(t)
	hit := mustCreate(t, s, models.Draft{Title: "50% off"})
	_ = mustCreate(t, s, models.Draft{Title: "500 off"})
	got, err := s.FindByTitle(context.Background(), "0%")
	if err != nil {
		t.Fatal(err)
	}
	if !equalIDs(ids(got), []int64{hit.ID}) {
		t.Errorf("wildcard match = %v, want [%d]", ids(got), hit.ID)
	}
}

func TestFindByContent(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	hit := mustCreate(t, s, models.Draft{Title: "a", Content: "Remember the MILK"})
	_ = mustCreate(t, s, models.Draft{Title: "milk"})
	_ = mustCreate(t, s, models.Draft{Title: "empty"})

	got, err := s.FindByContent(ctx, "milk")
	if err != nil {
		t.Fatal(err)
	}
	if !equalIDs(ids(got), []int64{hit.ID}) {
		t.Errorf("FindByContent = %v, want [%d]", ids(got), hit.ID)
	}
}

func TestFindByDateMatchesEitherTimestamp(t *testing.T) {
	now := time.Date(2024, 1, 1, 23, 59, 0, 0, time.UTC)
	s := testStore(t, fixedClock(&now))
	ctx := context.Background()

	createdOnDay := mustCreate(t, s, models.Draft{Title: "created on day"})

	now = time.Date(2023, 12, 31, 8, 0, 0, 0, time.UTC)
	// Insert an older note and then touch it on the target day.
	updatedOnDay := mustCreate(t, s, models.Draft{Title: "updated on day"})
	now = time.Date(2024, 1, 1, 0, 0, 1, 0, time.UTC)
	if _, err := s.Update(ctx, updatedOnDay.ID, models.Draft{Title: "updated on day"}); err != nil {
		t.Fatal(err)
	}

	now = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	_ = mustCreate(t, s, models.Draft{Title: "next day"})

	got, err := s.FindByDate(ctx, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	want := []int64{createdOnDay.ID, updatedOnDay.ID}
	if !equalIDs(ids(got), want) {
		t.Errorf("FindByDate = %v, want %v", ids(got), want)
	}
}

func TestClosedStoreUnavailable(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	if _, err := s.All(ctx); !errors.Is(err, apperr.ErrStoreUnavailable) {
		t.Errorf("All after close: %v", err)
	}
	if _, err := s.Create(ctx, models.Draft{Title: "x"}); !errors.Is(err, apperr.ErrStoreUnavailable) {
		t.Errorf("Create after close: %v", err)
	}
	if err := s.Delete(ctx, 1); !errors.Is(err, apperr.ErrStoreUnavailable) {
		t.Errorf("Delete after close: %v", err)
	}
	if err := s.Ping(ctx); !errors.Is(err, apperr.ErrStoreUnavailable) {
		t.Errorf("Ping after close: %v", err)
	}
}

func TestPostgresRebind(t *testing.T) {
	got := postgresDialect.rebind(`UPDATE notes SET title = ?, content = ? WHERE id = ?`)
	want := `UPDATE notes SET title = $1, content = $2 WHERE id = $3`
	if got != want {
		t.Errorf("rebind = %q, want %q", got, want)
	}
	if q := sqliteDialect.rebind("a = ?"); q != "a = ?" {
		t.Errorf("sqlite rebind changed query: %q", q)
	}
}

func TestDialectFor(t *testing.T) {
	for in, want := range map[string]string{
		"":           DriverSQLite,
		"sqlite3":    DriverSQLite,
		"Postgres":   DriverPostgres,
		"postgresql": DriverPostgres,
	} {
		d, ok := dialectFor(in)
		if !ok || d.name != want {
			t.Errorf("dialectFor(%q) = %q, %v; want %q", in, d.name, ok, want)
		}
	}
}
