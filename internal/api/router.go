package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/notebox/internal/noteservice"
)

// NewRouter creates a chi router with all API routes mounted.
// sseHandler, if non-nil, is mounted at GET /events. limiter, if non-nil,
// throttles every route except /events.
func NewRouter(svc *noteservice.Service, sseHandler http.Handler, limiter *RateLimiter) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(RateLimitMiddleware(limiter))

		// Notes CRUD.
		r.Get("/notes", h.ListNotes)
		r.Post("/notes", h.CreateNote)
		r.Get("/notes/{id}", h.GetNote)
		r.Put("/notes/{id}", h.UpdateNote)
		r.Delete("/notes/{id}", h.DeleteNote)

		// Images.
		r.Get("/notes/{id}/image", h.GetImage)
		r.Post("/notes/{id}/image", h.UploadImage)

		// Search.
		r.Get("/search", h.Search)

		// Typed commands.
		r.Post("/commands", h.Command)
	})

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
