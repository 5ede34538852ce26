package handlers

import "net/http"

// TagsResponse lists every tag in use.
type TagsResponse struct {
	Tags []string `json:"tags"`
}

// TagsHandler serves the tag list.
type TagsHandler struct {
	library Library
}

// NewTagsHandler creates a TagsHandler.
func NewTagsHandler(lib Library) *TagsHandler {
	return &TagsHandler{library: lib}
}

func (h *TagsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tags, err := h.library.Tags(ctx)
	if err != nil {
		handleServiceError(ctx, w, err, "tags")
		return
	}
	writeJSON(ctx, w, http.StatusOK, TagsResponse{Tags: tags})
}
