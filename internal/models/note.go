// Package models defines the domain types for notebox.
package models

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Note is a titled piece of text with optional image and timestamps.
type Note struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	// Image is nil when the note has no image; an empty non-nil slice is a stored empty blob.
	Image []byte `json:"-"`
}

// HasImage reports whether an image blob is stored, including an empty one.
func (n Note) HasImage() bool {
	return n.Image != nil
}

// Draft is the replaceable part of a note: what create and update write.
type Draft struct {
	Title   string
	Content string
	Image   []byte
}

// Validate rejects a draft whose title is empty after trimming whitespace.
func (d Draft) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Title, validation.By(notBlank)),
	)
}

// Created is returned by a successful insert.
type Created struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func notBlank(value any) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return validation.NewError("validation_blank", "cannot be blank")
	}
	return nil
}
