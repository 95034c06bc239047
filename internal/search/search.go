// Package search maps a search kind and a value onto a filtered note query.
package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/starford/notebox/internal/apperr"
	"github.com/starford/notebox/internal/models"
)

// Kind selects which field a search matches and how.
type Kind string

const (
	Date  Kind = "Date"
	Title Kind = "Title"
	Text  Kind = "Text"
)

// Kinds lists the recognised kinds in display order.
var Kinds = []Kind{Date, Title, Text}

// ParseKind normalises a user-supplied kind ("title", "TEXT"). Unknown input is
// returned unchanged so that Search can answer it with an empty result.
func ParseKind(s string) Kind {
	for _, k := range Kinds {
		if strings.EqualFold(strings.TrimSpace(s), string(k)) {
			return k
		}
	}
	return Kind(s)
}

// Finder is the subset of the note store the dispatcher queries.
type Finder interface {
	FindByDate(ctx context.Context, day time.Time) ([]models.Note, error)
	FindByTitle(ctx context.Context, sub string) ([]models.Note, error)
	FindByContent(ctx context.Context, sub string) ([]models.Note, error)
}

// Dispatcher routes searches to the store.
type Dispatcher struct {
	finder Finder
}

// NewDispatcher creates a Dispatcher over finder.
func NewDispatcher(finder Finder) *Dispatcher {
	return &Dispatcher{finder: finder}
}

// Search returns full notes, images included, matching value under kind in id
// order. An unrecognised kind yields an empty result and no error.
func (d *Dispatcher) Search(ctx context.Context, kind Kind, value string) ([]models.Note, error) {
	switch kind {
	case Date:
		day, err := ParseDate(value)
		if err != nil {
			return nil, err
		}
		return d.finder.FindByDate(ctx, day)
	case Title:
		return d.finder.FindByTitle(ctx, value)
	case Text:
		return d.finder.FindByContent(ctx, value)
	}
	return []models.Note{}, nil
}

// ParseDate reads a calendar date. Full timestamps are accepted and reduced to
// their UTC date.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if day, err := time.Parse(time.DateOnly, value); err == nil {
		return day, nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.DateTime} {
		if ts, err := time.Parse(layout, value); err == nil {
			y, m, d := ts.UTC().Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q is not a date (want YYYY-MM-DD)", apperr.ErrValidation, value)
}
