package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/starford/taglog/internal/apperr"
	"github.com/starford/taglog/internal/tagservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *tagservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *tagservice.Service) *Handler {
	return &Handler{svc: svc}
}

// urlParam returns a decoded chi URL parameter.
func urlParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListFiles handles GET /api/files.
//
//	@Summary		List files with their last known tags
//	@Tags			files
//	@Produce		json
//	@Param			tag	query		string	false	"Filter by tag"
//	@Success		200	{object}	FileListResponse
//	@Security		BearerAuth
//	@Router			/files [get]
func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	files, err := h.svc.Files(r.Context(), r.URL.Query().Get("tag"))
	if err != nil {
		internalError(w, "list files failed", err)
		return
	}
	writeJSON(w, http.StatusOK, FileListResponse{Files: files, Total: len(files)})
}

// FileTags handles GET /api/files/{name}/tags.
//
//	@Summary		Get the last known tags of a file
//	@Tags			files
//	@Produce		json
//	@Param			name	path		string	true	"File base name"
//	@Success		200		{object}	FileTags
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/files/{name}/tags [get]
func (h *Handler) FileTags(w http.ResponseWriter, r *http.Request) {
	name := urlParam(r, "name")
	ft, err := h.svc.FileTags(r.Context(), name)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			internalError(w, "file tags failed", err, slog.String("file", name))
		}
		return
	}
	writeJSON(w, http.StatusOK, ft)
}

// FileHistory handles GET /api/files/{name}/history.
//
//	@Summary		Get the event-log records of a file, newest first
//	@Tags			files
//	@Produce		json
//	@Param			name	path		string	true	"File base name"
//	@Param			limit	query		int		false	"Maximum records"
//	@Success		200		{object}	HistoryResponse
//	@Security		BearerAuth
//	@Router			/files/{name}/history [get]
func (h *Handler) FileHistory(w http.ResponseWriter, r *http.Request) {
	name := urlParam(r, "name")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	items, err := h.svc.History(r.Context(), name, limit)
	if err != nil {
		internalError(w, "file history failed", err, slog.String("file", name))
		return
	}
	writeJSON(w, http.StatusOK, HistoryResponse{File: name, Records: items})
}

// ListTags handles GET /api/tags.
//
//	@Summary		List tags with file counts
//	@Tags			tags
//	@Produce		json
//	@Success		200	{object}	TagListResponse
//	@Security		BearerAuth
//	@Router			/tags [get]
func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.svc.Tags(r.Context())
	if err != nil {
		internalError(w, "list tags failed", err)
		return
	}
	writeJSON(w, http.StatusOK, TagListResponse{Tags: tags})
}

// TagFiles handles GET /api/tags/{tag}/files.
//
//	@Summary		List files whose last known tags include a tag
//	@Tags			tags
//	@Produce		json
//	@Param			tag	path		string	true	"Tag"
//	@Success		200	{object}	FileListResponse
//	@Security		BearerAuth
//	@Router			/tags/{tag}/files [get]
func (h *Handler) TagFiles(w http.ResponseWriter, r *http.Request) {
	tag := urlParam(r, "tag")
	files, err := h.svc.Files(r.Context(), tag)
	if err != nil {
		internalError(w, "tag files failed", err, slog.String("tag", tag))
		return
	}
	writeJSON(w, http.StatusOK, FileListResponse{Files: files, Total: len(files)})
}
