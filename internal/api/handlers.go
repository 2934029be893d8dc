package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/pinnote/internal/apperr"
	"github.com/starford/pinnote/internal/noteservice"
)

const maxBodyBytes = 10 << 20

// Handler holds API route handlers.
type Handler struct {
	svc *noteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc}
}

// noteTitle extracts the {title} URL parameter. chi matches on RawPath when
// the request carries one, and only then is the parameter still escaped.
func noteTitle(r *http.Request) string {
	raw := chi.URLParam(r, "title")
	if r.URL.RawPath == "" {
		return raw
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// decodeBody reads a JSON body into v and runs its validation rules.
func decodeBody[T interface{ Validate() error }](w http.ResponseWriter, r *http.Request, v *T) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	if err := (*v).Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return false
	}
	return true
}

// writeError maps domain errors to HTTP statuses. Unexpected errors are
// logged and reported as internal errors.
func writeError(w http.ResponseWriter, op, title string, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrInvalidTitle):
		writeJSON(w, http.StatusBadRequest, errorBody("invalid title"))
	case errors.Is(err, apperr.ErrDuplicateTitle):
		writeJSON(w, http.StatusConflict, errorBody("note already exists"))
	case errors.Is(err, apperr.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody("checksum mismatch"))
	case errors.Is(err, noteservice.ErrNoIndex):
		writeJSON(w, http.StatusServiceUnavailable, errorBody(err.Error()))
	default:
		slog.Error(op+" failed", slog.String("title", title), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List notes, pinned first, optionally filtered by title
//	@Tags			notes
//	@Produce		json
//	@Param			q	query		string	false	"Case-insensitive title filter"
//	@Success		200	{object}	NoteListResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	items := h.svc.ListNotes(r.Context(), r.URL.Query().Get("q"))
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: items, Total: len(items)})
}

// GetNote handles GET /api/notes/{title}.
//
//	@Summary		Get a single note by title
//	@Tags			notes
//	@Produce		json
//	@Param			title	path		string	true	"Note title"
//	@Success		200		{object}	NoteDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{title} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	title := noteTitle(r)
	note, err := h.svc.GetNote(r.Context(), title)
	if err != nil {
		writeError(w, "get note", title, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// CreateNote handles POST /api/notes.
//
//	@Summary		Create an empty note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateNoteRequest	true	"Note to create"
//	@Success		201		{object}	CreateNoteResponse
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	note, res, err := h.svc.CreateNote(r.Context(), req.Title)
	if err != nil {
		writeError(w, "create note", req.Title, err)
		return
	}
	writeJSON(w, http.StatusCreated, CreateNoteResponse{Note: note, Modified: res.Modified})
}

// UpdateNote handles PUT /api/notes/{title}.
//
//	@Summary		Replace a note's content with optimistic concurrency
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			title		path	string				true	"Note title"
//	@Param			If-Match	header	string				false	"SHA-256 checksum for optimistic concurrency"
//	@Param			body		body	UpdateNoteRequest	true	"New content"
//	@Success		200		{object}	NoteDetail
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{title} [put]
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	title := noteTitle(r)
	var req UpdateNoteRequest
	if !decodeBody(w, r, &req) {
		return
	}

	// Strip surrounding quotes if present (standard ETag format).
	ifMatch := strings.Trim(r.Header.Get("If-Match"), `"`)

	note, err := h.svc.UpdateNote(r.Context(), title, *req.Content, ifMatch)
	if err != nil {
		writeError(w, "update note", title, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// DeleteNote handles DELETE /api/notes/{title}.
//
//	@Summary		Delete a note
//	@Tags			notes
//	@Param			title	path	string	true	"Note title"
//	@Success		204		"Note deleted"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{title} [delete]
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	title := noteTitle(r)
	if err := h.svc.DeleteNote(r.Context(), title); err != nil {
		writeError(w, "delete note", title, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TogglePin handles POST /api/notes/{title}/pin.
//
//	@Summary		Toggle the pinned state of a note
//	@Tags			notes
//	@Produce		json
//	@Param			title	path		string	true	"Note title"
//	@Success		200		{object}	PinResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{title}/pin [post]
func (h *Handler) TogglePin(w http.ResponseWriter, r *http.Request) {
	title := noteTitle(r)
	pinned, err := h.svc.TogglePin(r.Context(), title)
	if err != nil {
		writeError(w, "toggle pin", title, err)
		return
	}
	writeJSON(w, http.StatusOK, PinResponse{Title: title, Pinned: pinned})
}

// Backlinks handles GET /api/notes/{title}/backlinks.
//
//	@Summary		List notes linking to a note
//	@Tags			notes
//	@Produce		json
//	@Param			title	path		string	true	"Note title"
//	@Success		200		{object}	BacklinksResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{title}/backlinks [get]
func (h *Handler) Backlinks(w http.ResponseWriter, r *http.Request) {
	title := noteTitle(r)
	bl, err := h.svc.Backlinks(r.Context(), title)
	if err != nil {
		writeError(w, "backlinks", title, err)
		return
	}
	writeJSON(w, http.StatusOK, BacklinksResponse{Title: title, Backlinks: bl})
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across notes
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, "search", "", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Relocate handles PUT /api/location.
//
//	@Summary		Point the store at another notes directory
//	@Tags			settings
//	@Accept			json
//	@Produce		json
//	@Param			body	body		RelocateRequest	true	"New notes directory"
//	@Success		200		{object}	LoadReportResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/location [put]
func (h *Handler) Relocate(w http.ResponseWriter, r *http.Request) {
	var req RelocateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	report, err := h.svc.Relocate(r.Context(), req.Path)
	if err != nil {
		var ioErr *apperr.IOError
		if errors.As(err, &ioErr) && report.Root == "" {
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
			return
		}
		writeError(w, "relocate", "", err)
		return
	}
	writeJSON(w, http.StatusOK, newLoadReportResponse(report))
}
