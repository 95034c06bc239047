package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/notebox/internal/apperr"
	"github.com/starford/notebox/internal/command"
	"github.com/starford/notebox/internal/models"
	"github.com/starford/notebox/internal/noteservice"
	"github.com/starford/notebox/internal/pager"
	"github.com/starford/notebox/internal/search"
)

const maxBodyBytes = 1 << 20

// Handler holds API route handlers.
type Handler struct {
	svc  *noteservice.Service
	cmds *command.Dispatcher
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc, cmds: command.NewDispatcher(svc)}
}

// noteID parses the {id} URL parameter.
func noteID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// pageParams reads ?page= and ?page_size=. Absent values are zero, which the
// service treats as "first page" and "configured size".
func pageParams(r *http.Request) (number, size int, ok bool) {
	q := r.URL.Query()
	for _, p := range []struct {
		key string
		dst *int
	}{{"page", &number}, {"page_size", &size}} {
		raw := q.Get(p.key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return 0, 0, false
		}
		*p.dst = n
	}
	return number, size, true
}

func writePage(w http.ResponseWriter, op string, page pager.Page[models.Note], err error) {
	if errors.Is(err, apperr.ErrNoResults) {
		writeJSON(w, http.StatusOK, PageResponse{Notes: []NoteResponse{}, NoResults: true, Message: command.NoResultsMessage})
		return
	}
	if err != nil {
		writeError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, pageResponse(page))
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List notes one page at a time
//	@Tags			notes
//	@Produce		json
//	@Param			page		query		int	false	"1-based page number, clamped"
//	@Param			page_size	query		int	false	"Page size"
//	@Success		200			{object}	PageResponse
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	number, size, ok := pageParams(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("page and page_size must be non-negative integers"))
		return
	}
	page, err := h.svc.ListPage(r.Context(), number, size)
	writePage(w, "list notes", page, err)
}

// GetNote handles GET /api/notes/{id}.
//
//	@Summary		Get a single note by id
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		int	true	"Note id"
//	@Success		200	{object}	NoteResponse
//	@Failure		404	{object}	errResponse
//	@Router			/notes/{id} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid note id"))
		return
	}
	note, err := h.svc.GetNote(r.Context(), id)
	if err != nil {
		writeError(w, "get note", err)
		return
	}
	writeJSON(w, http.StatusOK, noteResponse(note))
}

// CreateNote handles POST /api/notes.
//
//	@Summary		Create a new note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		NoteRequest	true	"Note to create"
//	@Success		201		{object}	noteservice.CreateResult
//	@Failure		400		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Router			/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req NoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	res, err := h.svc.CreateNote(r.Context(), req.Title, req.Content, req.ImagePath)
	if err != nil {
		writeError(w, "create note", err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// UpdateNote handles PUT /api/notes/{id}.
//
//	@Summary		Replace title, content and image of a note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int			true	"Note id"
//	@Param			body	body		NoteRequest	true	"New fields"
//	@Success		200		{object}	noteservice.UpdateResult
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Router			/notes/{id} [put]
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	id, ok := noteID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid note id"))
		return
	}
	var req NoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	res, err := h.svc.UpdateNote(r.Context(), id, req.Title, req.Content, req.ImagePath)
	if err != nil {
		writeError(w, "update note", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// DeleteNote handles DELETE /api/notes/{id}.
//
//	@Summary		Delete a note
//	@Tags			notes
//	@Param			id	path	int	true	"Note id"
//	@Success		204	"Note deleted (or already absent)"
//	@Router			/notes/{id} [delete]
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid note id"))
		return
	}
	if err := h.svc.DeleteNote(r.Context(), id); err != nil {
		writeError(w, "delete note", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Search handles GET /api/search.
//
//	@Summary		Search notes by date, title or text
//	@Tags			search
//	@Produce		json
//	@Param			kind		query		string	true	"Date, Title or Text"
//	@Param			value		query		string	false	"Date (YYYY-MM-DD) or substring"
//	@Param			page		query		int		false	"1-based page number"
//	@Param			page_size	query		int		false	"Page size"
//	@Success		200			{object}	PageResponse
//	@Failure		400			{object}	errResponse
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")
	if kind == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'kind' is required"))
		return
	}
	number, size, ok := pageParams(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("page and page_size must be non-negative integers"))
		return
	}
	page, err := h.svc.SearchPage(r.Context(), search.ParseKind(kind), r.URL.Query().Get("value"), number, size)
	writePage(w, "search", page, err)
}

// Command handles POST /api/commands.
//
//	@Summary		Dispatch a typed command
//	@Tags			commands
//	@Accept			json
//	@Produce		json
//	@Param			body	body		command.Command	true	"Command"
//	@Success		200		{object}	command.Result
//	@Failure		400		{object}	errResponse
//	@Router			/commands [post]
func (h *Handler) Command(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var cmd command.Command
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	res, err := h.cmds.Dispatch(r.Context(), cmd)
	if err != nil {
		writeError(w, "command "+string(cmd.Action), err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
