package notestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/notebox/internal/apperr"
	"github.com/starford/notebox/internal/models"
)

const selectNotes = `SELECT id, title, content, created_at, updated_at, image, image IS NULL FROM notes`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(r rowScanner) (models.Note, error) {
	var (
		n       models.Note
		content sql.NullString
		noImage bool
	)
	if err := r.Scan(&n.ID, &n.Title, &content, &n.CreatedAt, &n.UpdatedAt, &n.Image, &noImage); err != nil {
		return models.Note{}, err
	}
	n.Content = content.String
	switch {
	case noImage:
		n.Image = nil
	case n.Image == nil:
		n.Image = []byte{}
	}
	return n, nil
}

// Create inserts a note with both timestamps set to the current time.
// A blank title is rejected before anything is written.
func (s *Store) Create(ctx context.Context, d models.Draft) (models.Created, error) {
	if err := d.Validate(); err != nil {
		return models.Created{}, fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}
	if err := s.ready(); err != nil {
		return models.Created{}, err
	}

	now := s.timestamp()
	var id int64
	err := s.conn.QueryRowContext(ctx, s.dialect.rebind(`
		INSERT INTO notes (title, content, created_at, updated_at, image)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`), d.Title, d.Content, now, now, d.Image).Scan(&id)
	if err != nil {
		return models.Created{}, fmt.Errorf("notestore: insert note: %w", classify(err))
	}
	return models.Created{ID: id, CreatedAt: now, UpdatedAt: now}, nil
}

// All returns every note in insertion order.
func (s *Store) All(ctx context.Context) ([]models.Note, error) {
	return s.query(ctx, "all", selectNotes+` ORDER BY id`)
}

// Get returns a single note or apperr.ErrNotFound.
func (s *Store) Get(ctx context.Context, id int64) (models.Note, error) {
	if err := s.ready(); err != nil {
		return models.Note{}, err
	}
	row := s.conn.QueryRowContext(ctx, s.dialect.rebind(selectNotes+` WHERE id = ?`), id)
	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Note{}, fmt.Errorf("notestore: note %d: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return models.Note{}, fmt.Errorf("notestore: get note: %w", classify(err))
	}
	return n, nil
}

// Update replaces title, content, and image of an existing note and resets
// updated_at. created_at is never touched, and updated_at never drops below it.
// It returns the stored updated_at.
func (s *Store) Update(ctx context.Context, id int64, d models.Draft) (time.Time, error) {
	if err := d.Validate(); err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}
	if err := s.ready(); err != nil {
		return time.Time{}, err
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return time.Time{}, fmt.Errorf("notestore: begin tx: %w", classify(err))
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	res, err := tx.ExecContext(ctx, s.dialect.rebind(fmt.Sprintf(`
		UPDATE notes
		SET title = ?, content = ?, image = ?, updated_at = %s(created_at, ?)
		WHERE id = ?
	`, s.dialect.greatest)), d.Title, d.Content, d.Image, s.timestamp(), id)
	if err != nil {
		return time.Time{}, fmt.Errorf("notestore: update note: %w", classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return time.Time{}, fmt.Errorf("notestore: rows affected: %w", classify(err))
	}
	if n == 0 {
		return time.Time{}, fmt.Errorf("notestore: note %d: %w", id, apperr.ErrNotFound)
	}

	var updatedAt time.Time
	if err := tx.QueryRowContext(ctx, s.dialect.rebind(`SELECT updated_at FROM notes WHERE id = ?`), id).Scan(&updatedAt); err != nil {
		return time.Time{}, fmt.Errorf("notestore: read updated_at: %w", classify(err))
	}
	if err := tx.Commit(); err != nil {
		return time.Time{}, fmt.Errorf("notestore: commit: %w", classify(err))
	}
	return updatedAt, nil
}

// Delete removes a note. Deleting a missing id is not an error.
func (s *Store) Delete(ctx context.Context, id int64) error {
	if err := s.ready(); err != nil {
		return err
	}
	if _, err := s.conn.ExecContext(ctx, s.dialect.rebind(`DELETE FROM notes WHERE id = ?`), id); err != nil {
		return fmt.Errorf("notestore: delete note: %w", classify(err))
	}
	return nil
}

// FindByDate returns notes created or last updated on the given UTC calendar day.
func (s *Store) FindByDate(ctx context.Context, day time.Time) ([]models.Note, error) {
	d := s.dialect
	where := fmt.Sprintf(" WHERE %s = %s OR %s = %s ORDER BY id",
		fmt.Sprintf(d.dateOf, "created_at"), d.dateArg,
		fmt.Sprintf(d.dateOf, "updated_at"), d.dateArg)
	value := day.Format(time.DateOnly)
	return s.query(ctx, "find by date", selectNotes+where, value, value)
}

// FindByTitle returns notes whose title contains sub, ignoring case.
func (s *Store) FindByTitle(ctx context.Context, sub string) ([]models.Note, error) {
	return s.query(ctx, "find by title", selectNotes+s.containsClause("title"), sub)
}

// FindByContent returns notes whose content contains sub, ignoring case.
func (s *Store) FindByContent(ctx context.Context, sub string) ([]models.Note, error) {
	return s.query(ctx, "find by content", selectNotes+s.containsClause("content"), sub)
}

func (s *Store) containsClause(column string) string {
	d := s.dialect
	haystack := fmt.Sprintf("%s(coalesce(%s, ''))", d.fold, column)
	needle := d.fold + "(?)"
	return " WHERE " + fmt.Sprintf(d.contains, haystack, needle) + " ORDER BY id"
}

func (s *Store) query(ctx context.Context, op, query string, args ...any) ([]models.Note, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rows, err := s.conn.QueryContext(ctx, s.dialect.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("notestore: %s: %w", op, classify(err))
	}
	defer rows.Close()

	out := []models.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("notestore: %s: scan: %w", op, classify(err))
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("notestore: %s: %w", op, classify(err))
	}
	return out, nil
}
