package notestore

import (
	"context"
	"time"

	"github.com/starford/notebox/internal/models"
)

// NoteStore defines the persistence operations on notes.
// Consumers should depend on this interface rather than the concrete *Store type
// to facilitate testing with fakes.
type NoteStore interface {
	Create(ctx context.Context, d models.Draft) (models.Created, error)
	All(ctx context.Context) ([]models.Note, error)
	Get(ctx context.Context, id int64) (models.Note, error)
	Update(ctx context.Context, id int64, d models.Draft) (time.Time, error)
	Delete(ctx context.Context, id int64) error
	FindByDate(ctx context.Context, day time.Time) ([]models.Note, error)
	FindByTitle(ctx context.Context, sub string) ([]models.Note, error)
	FindByContent(ctx context.Context, sub string) ([]models.Note, error)
	Ping(ctx context.Context) error
	Close() error
}

// Verify *Store satisfies NoteStore at compile time.
var _ NoteStore = (*Store)(nil)
