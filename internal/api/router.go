package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starford/taglog/internal/tagservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *tagservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Files.
	r.Get("/files", h.ListFiles)
	r.Get("/files/{name}/tags", h.FileTags)
	r.Get("/files/{name}/history", h.FileHistory)

	// Tags.
	r.Get("/tags", h.ListTags)
	r.Get("/tags/{tag}/files", h.TagFiles)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
