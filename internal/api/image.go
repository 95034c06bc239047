package api

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/notebox/internal/checksum"
	"github.com/starford/notebox/internal/imagecodec"
)

const maxUploadBytes = 20 << 20 // 20 MB

// GetImage handles GET /api/notes/{id}/image. The ETag is the SHA-256 of the
// blob, so clients can revalidate with If-None-Match.
func (h *Handler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(r)
	if !ok {
		http.Error(w, "invalid note id", http.StatusBadRequest)
		return
	}
	note, err := h.svc.GetNote(r.Context(), id)
	if err != nil {
		writeError(w, "get image", err)
		return
	}
	if !note.HasImage() {
		writeJSON(w, http.StatusNotFound, errorBody("note has no image"))
		return
	}

	etag := checksum.ETag(note.Image)
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(note.Image))
	w.Header().Set("Content-Length", fmt.Sprint(len(note.Image)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(note.Image)
}

// UploadImage handles POST /api/notes/{id}/image (multipart, field "file").
// The upload is staged in a temp file and attached through the normal update
// path, so format and size rules match file-based updates.
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid note id"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field"))
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(filepath.Base(header.Filename)))
	if !imagecodec.Allowed(ext) {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid image format: only png, jpg, jpeg and gif are allowed"))
		return
	}

	tmp, err := os.CreateTemp("", "upload_*"+ext)
	if err != nil {
		writeError(w, "stage upload", err)
		return
	}
	defer os.Remove(tmp.Name())

	written, err := io.Copy(tmp, file)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		writeError(w, "stage upload", err)
		return
	}

	note, err := h.svc.GetNote(r.Context(), id)
	if err != nil {
		writeError(w, "upload image", err)
		return
	}
	res, err := h.svc.UpdateNote(r.Context(), id, note.Title, note.Content, tmp.Name())
	if err != nil {
		writeError(w, "upload image", err)
		return
	}

	writeJSON(w, http.StatusCreated, ImageUploadResponse{
		ID:        id,
		Size:      written,
		UpdatedAt: res.UpdatedAt,
		URL:       imageURL(id),
	})
}
