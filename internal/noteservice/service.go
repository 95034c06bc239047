// Package noteservice coordinates the note store, image codec, search and the
// event bus behind every front end (HTTP, MCP, CLI).
package noteservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/notebox/internal/apperr"
	"github.com/starford/notebox/internal/events"
	"github.com/starford/notebox/internal/imagecodec"
	"github.com/starford/notebox/internal/models"
	"github.com/starford/notebox/internal/notestore"
	"github.com/starford/notebox/internal/pager"
	"github.com/starford/notebox/internal/search"
)

// ImagePolicy decides what happens when an image file cannot be read.
type ImagePolicy string

const (
	// PolicyAbort fails the write with apperr.ErrIO.
	PolicyAbort ImagePolicy = "abort"
	// PolicySkip writes the note without an image and reports a warning.
	PolicySkip ImagePolicy = "skip"
)

// CreateResult is returned by CreateNote.
type CreateResult struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Warning   string    `json:"warning,omitempty"`
}

// UpdateResult is returned by UpdateNote.
type UpdateResult struct {
	ID        int64     `json:"id"`
	UpdatedAt time.Time `json:"updated_at"`
	Warning   string    `json:"warning,omitempty"`
}

// Service is the single entry point for note operations.
type Service struct {
	store    notestore.NoteStore
	codec    *imagecodec.Codec
	search   *search.Dispatcher
	pub      events.Publisher
	logger   *slog.Logger
	policy   ImagePolicy
	pageSize int
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher sets where committed changes are announced.
func WithPublisher(pub events.Publisher) Option {
	return func(s *Service) { s.pub = pub }
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithImagePolicy sets the image read failure policy.
func WithImagePolicy(p ImagePolicy) Option {
	return func(s *Service) { s.policy = p }
}

// WithPageSize sets the default page size for listings and searches.
func WithPageSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// NewService creates a new note service.
func NewService(store notestore.NoteStore, codec *imagecodec.Codec, opts ...Option) *Service {
	s := &Service{
		store:    store,
		codec:    codec,
		search:   search.NewDispatcher(store),
		logger:   slog.Default(),
		policy:   PolicyAbort,
		pageSize: pager.DefaultSize,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// PageSize returns the configured default page size.
func (s *Service) PageSize() int {
	return s.pageSize
}

// CreateNote encodes the image at imagePath (if any) and stores a new note.
// A rejected image extension is not an error: the note is stored without an
// image and the result carries a warning.
func (s *Service) CreateNote(ctx context.Context, title, content, imagePath string) (CreateResult, error) {
	draft := models.Draft{Title: title, Content: content}
	if err := draft.Validate(); err != nil {
		return CreateResult{}, fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}

	img, warning, err := s.loadImage(imagePath)
	if err != nil {
		return CreateResult{}, err
	}
	draft.Image = img

	created, err := s.store.Create(ctx, draft)
	if err != nil {
		return CreateResult{}, err
	}

	s.publish(events.NoteEvent{
		Type:      events.Created,
		ID:        created.ID,
		Title:     title,
		Content:   content,
		UpdatedAt: created.UpdatedAt,
	})

	return CreateResult{
		ID:        created.ID,
		CreatedAt: created.CreatedAt,
		UpdatedAt: created.UpdatedAt,
		Warning:   warning,
	}, nil
}

// UpdateNote replaces title, content and image of note id. An empty or
// rejected imagePath leaves the note without an image. NoteUpdated is
// published only after the write commits.
func (s *Service) UpdateNote(ctx context.Context, id int64, title, content, imagePath string) (UpdateResult, error) {
	draft := models.Draft{Title: title, Content: content}
	if err := draft.Validate(); err != nil {
		return UpdateResult{}, fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}

	img, warning, err := s.loadImage(imagePath)
	if err != nil {
		return UpdateResult{}, err
	}
	draft.Image = img

	updatedAt, err := s.store.Update(ctx, id, draft)
	if err != nil {
		return UpdateResult{}, err
	}

	s.publish(events.NoteUpdated(id, title, content, imagePath, updatedAt))

	return UpdateResult{ID: id, UpdatedAt: updatedAt, Warning: warning}, nil
}

// DeleteNote removes note id. Deleting a missing note succeeds.
func (s *Service) DeleteNote(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(events.NoteEvent{Type: events.Deleted, ID: id})
	return nil
}

// GetNote returns one note with its image.
func (s *Service) GetNote(ctx context.Context, id int64) (models.Note, error) {
	return s.store.Get(ctx, id)
}

// ListNotes returns every note in id order.
func (s *Service) ListNotes(ctx context.Context) ([]models.Note, error) {
	return s.store.All(ctx)
}

// SearchNotes dispatches a search by kind. Unknown kinds match nothing.
func (s *Service) SearchNotes(ctx context.Context, kind search.Kind, value string) ([]models.Note, error) {
	return s.search.Search(ctx, kind, value)
}

// ListPage returns page number of all notes. size <= 0 uses the default.
func (s *Service) ListPage(ctx context.Context, number, size int) (pager.Page[models.Note], error) {
	notes, err := s.ListNotes(ctx)
	if err != nil {
		return pager.Page[models.Note]{}, err
	}
	return pager.At(notes, s.size(size), number)
}

// SearchPage returns page number of a search.
func (s *Service) SearchPage(ctx context.Context, kind search.Kind, value string, number, size int) (pager.Page[models.Note], error) {
	notes, err := s.SearchNotes(ctx, kind, value)
	if err != nil {
		return pager.Page[models.Note]{}, err
	}
	return pager.At(notes, s.size(size), number)
}

func (s *Service) size(n int) int {
	if n == 0 {
		return s.pageSize
	}
	return n
}

// loadImage applies the format and IO policies. It returns the blob, a
// user-facing warning, or a fatal error.
func (s *Service) loadImage(path string) ([]byte, string, error) {
	img, err := s.codec.Encode(path)
	switch {
	case err == nil:
		return img, "", nil
	case errors.Is(err, apperr.ErrInvalidFormat):
		s.logger.Warn("image rejected", slog.String("path", path), slog.String("error", err.Error()))
		return nil, "Invalid image format. Only PNG, JPG, JPEG and GIF are allowed.", nil
	case errors.Is(err, apperr.ErrIO) && s.policy == PolicySkip:
		s.logger.Warn("image unreadable, continuing without it", slog.String("path", path), slog.String("error", err.Error()))
		return nil, "Image could not be read; note saved without an image.", nil
	}
	return nil, "", err
}

func (s *Service) publish(ev events.NoteEvent) {
	if s.pub == nil {
		return
	}
	if err := s.pub.Publish(ev); err != nil {
		s.logger.Error("publish note event",
			slog.String("type", string(ev.Type)),
			slog.Int64("id", ev.ID),
			slog.String("error", err.Error()))
	}
}
