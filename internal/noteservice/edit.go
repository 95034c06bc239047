package noteservice

import (
	"context"
	"sync"

	"github.com/starford/notebox/internal/imagecodec"
	"github.com/starford/notebox/internal/models"
)

// EditSession holds a note loaded for editing. When the note has an image it
// is materialised at ImagePath until the session ends. Commit, Cancel and
// Close all remove the temp file.
type EditSession struct {
	Note      models.Note
	ImagePath string

	svc  *Service
	temp *imagecodec.TempImage
	once sync.Once
	err  error
}

// BeginEdit loads note id and, if it has an image, writes it to a temp file.
func (s *Service) BeginEdit(ctx context.Context, id int64) (*EditSession, error) {
	note, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	es := &EditSession{Note: note, svc: s}
	if note.HasImage() {
		tmp, err := s.codec.DecodeToTempFile(note.Image, id)
		if err != nil {
			return nil, err
		}
		es.temp = tmp
		es.ImagePath = tmp.Path
	}
	return es, nil
}

// Commit writes the edited fields and ends the session. Passing ImagePath back
// keeps the current image.
func (e *EditSession) Commit(ctx context.Context, title, content, imagePath string) (UpdateResult, error) {
	defer e.Close()
	return e.svc.UpdateNote(ctx, e.Note.ID, title, content, imagePath)
}

// Cancel ends the session without writing.
func (e *EditSession) Cancel() error {
	return e.Close()
}

// Close removes the temp image. Safe to call more than once.
func (e *EditSession) Close() error {
	e.once.Do(func() {
		e.err = e.temp.Close()
	})
	return e.err
}
