package handlers

import (
	"net/http"

	"fmfm/internal/search"
)

// SearchHandler serves full-text queries.
type SearchHandler struct {
	library Library
	perPage int
}

// NewSearchHandler creates a SearchHandler.
func NewSearchHandler(lib Library, perPage int) *SearchHandler {
	return &SearchHandler{
		library: lib,
		perPage: perPage,
	}
}

// ServeHTTP answers GET /api/search?query=&tag=&page=&per_page=.
func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	page, err := intQuery(r, "page", 1)
	if err != nil {
		handleServiceError(ctx, w, err, "search")
		return
	}
	perPage, err := intQuery(r, "per_page", h.perPage)
	if err != nil {
		handleServiceError(ctx, w, err, "search")
		return
	}

	result, err := h.library.Search(ctx, search.Request{
		Query:   q.Get("query"),
		Tag:     q.Get("tag"),
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		handleServiceError(ctx, w, err, "search")
		return
	}
	if result.Results == nil {
		result.Results = []search.Result{}
	}
	writeJSON(ctx, w, http.StatusOK, result)
}
