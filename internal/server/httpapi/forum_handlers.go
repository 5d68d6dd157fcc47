package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/manup/agenda/internal/common"
)

func (rt *Router) handleListPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			rt.writeServiceError(w, r, common.ErrValidation)
			return
		}
		limit = n
	}

	page, err := rt.forum.ListPosts(r.Context(), q.Get("cursor"), limit)
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPostPage(page))
}

func (rt *Router) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rt.writeServiceError(w, r, err)
		return
	}

	p, err := rt.forum.CreatePost(r.Context(), accountIDFromContext(r.Context()), req.Body, req.AttachmentKey)
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPost(p))
}

func (rt *Router) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	if err := rt.forum.DeletePost(r.Context(), accountIDFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) handleAttachmentUpload(w http.ResponseWriter, r *http.Request) {
	key, url, err := rt.forum.AttachmentUploadURL(r.Context(), accountIDFromContext(r.Context()))
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, attachmentResponse{Key: key, URL: url})
}

func (rt *Router) handleAttachmentURL(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		rt.writeServiceError(w, r, common.ErrValidation)
		return
	}

	url, err := rt.forum.AttachmentURL(r.Context(), key)
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, attachmentResponse{URL: url})
}
