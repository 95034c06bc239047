package api

import (
	"fmt"
	"time"

	"github.com/starford/notebox/internal/models"
	"github.com/starford/notebox/internal/pager"
)

// NoteRequest is the request body for creating or replacing a note.
// ImagePath names an image file readable by the server.
type NoteRequest struct {
	Title     string `json:"title" example:"Groceries" validate:"required"`
	Content   string `json:"content" example:"milk, eggs"`
	ImagePath string `json:"image_path,omitempty" example:"/srv/images/list.png"`
}

// NoteResponse is a note without its image bytes. ImageURL is set when the
// note has an image.
type NoteResponse struct {
	ID        int64     `json:"id" example:"1" validate:"required"`
	Title     string    `json:"title" example:"Groceries" validate:"required"`
	Content   string    `json:"content" example:"milk, eggs"`
	CreatedAt time.Time `json:"created_at" validate:"required"`
	UpdatedAt time.Time `json:"updated_at" validate:"required"`
	HasImage  bool      `json:"has_image"`
	ImageURL  string    `json:"image_url,omitempty" example:"/api/notes/1/image"`
}

// PageResponse wraps one page of notes. NoResults is set, with no items, when
// nothing matched.
type PageResponse struct {
	Notes     []NoteResponse `json:"notes" validate:"required"`
	Page      int            `json:"page" example:"1"`
	PageSize  int            `json:"page_size" example:"2"`
	Pages     int            `json:"pages" example:"3"`
	Total     int            `json:"total" example:"5"`
	HasPrev   bool           `json:"has_prev"`
	HasNext   bool           `json:"has_next"`
	NoResults bool           `json:"no_results,omitempty"`
	Message   string         `json:"message,omitempty" example:"No notes found"`
}

// ImageUploadResponse is returned after an image is attached to a note.
type ImageUploadResponse struct {
	ID        int64     `json:"id" example:"1" validate:"required"`
	Size      int64     `json:"size" example:"12345" validate:"required"`
	UpdatedAt time.Time `json:"updated_at" validate:"required"`
	URL       string    `json:"url" example:"/api/notes/1/image" validate:"required"`
}

func noteResponse(n models.Note) NoteResponse {
	resp := NoteResponse{
		ID:        n.ID,
		Title:     n.Title,
		Content:   n.Content,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
		HasImage:  n.HasImage(),
	}
	if resp.HasImage {
		resp.ImageURL = imageURL(n.ID)
	}
	return resp
}

func pageResponse(p pager.Page[models.Note]) PageResponse {
	notes := make([]NoteResponse, len(p.Items))
	for i, n := range p.Items {
		notes[i] = noteResponse(n)
	}
	return PageResponse{
		Notes:    notes,
		Page:     p.Number,
		PageSize: p.Size,
		Pages:    p.Pages,
		Total:    p.TotalItems,
		HasPrev:  p.HasPrev,
		HasNext:  p.HasNext,
	}
}

func imageURL(id int64) string {
	return fmt.Sprintf("/api/notes/%d/image", id)
}
