package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"fmfm/internal/contextutil"
	"fmfm/internal/extract"
	"fmfm/internal/library"
	"fmfm/internal/registry"
	"fmfm/internal/service"
	"fmfm/internal/storage"
)

// MaxUploadMemory is the part of a multipart upload kept in memory; the rest
// spills to temporary files.
const MaxUploadMemory = 32 << 20

// Upload outcomes reported per file.
const (
	UploadRegistered = "registered"
	UploadDuplicate  = "duplicate"
	UploadRejected   = "rejected"
	UploadFailed     = "failed"
	UploadSkipped    = "skipped"
)

// BooksHandler serves the /api/books routes.
type BooksHandler struct {
	library       Library
	acceptedTypes map[string]string
	perPage       int
}

// NewBooksHandler creates a BooksHandler. acceptedTypes maps upload MIME
// types to filetypes.
func NewBooksHandler(lib Library, acceptedTypes map[string]string, perPage int) *BooksHandler {
	return &BooksHandler{
		library:       lib,
		acceptedTypes: acceptedTypes,
		perPage:       perPage,
	}
}

// BookResponse is the JSON form of an entry.
type BookResponse struct {
	Number      int64     `json:"number"`
	Title       string    `json:"title"`
	Filetype    string    `json:"filetype"`
	ContentHash string    `json:"content_hash"`
	Tags        string    `json:"tags"`
	PageCount   *int      `json:"page_count"`
	Spread      *bool     `json:"spread"`
	RightToLeft *bool     `json:"right_to_left"`
	Hidden      *bool     `json:"hidden"`
	CreatedAt   time.Time `json:"created_at"`
}

func toBookResponse(e *storage.Entry) BookResponse {
	return BookResponse{
		Number:      e.Number,
		Title:       e.Title,
		Filetype:    e.Filetype,
		ContentHash: e.ContentHash,
		Tags:        e.Tags,
		PageCount:   e.PageCount,
		Spread:      e.Spread,
		RightToLeft: e.RightToLeft,
		Hidden:      e.Hidden,
		CreatedAt:   e.CreatedAt,
	}
}

// BookListResponse is one page of the library.
type BookListResponse struct {
	Books   []BookResponse `json:"books"`
	Total   int            `json:"total"`
	Page    int            `json:"page"`
	PerPage int            `json:"per_page"`
}

// UploadResult reports what happened to one uploaded file.
type UploadResult struct {
	Filename string                  `json:"filename"`
	Status   string                  `json:"status"`
	Number   int64                   `json:"number,omitempty"`
	Existing []service.ExistingEntry `json:"existing,omitempty"`
	Error    string                  `json:"error,omitempty"`
}

// UploadResponse lists per-file upload results in request order.
type UploadResponse struct {
	Results []UploadResult `json:"results"`
}

// Upload registers and refreshes every file in the multipart field "file".
// ?extract_title=true takes titles from document metadata.
// Duplicates and rejected types are reported and skipped; a collision or
// store failure stops the batch and the remaining files are reported as
// skipped.
func (h *BooksHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if err := r.ParseMultipartForm(MaxUploadMemory); err != nil {
		logger.WarnContext(ctx, "invalid multipart body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid multipart body")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "No file field in request")
		return
	}

	status := http.StatusOK
	results := make([]UploadResult, 0, len(files))
	for i, fh := range files {
		res := h.uploadOne(r, fh)
		results = append(results, res.UploadResult)
		if res.fatal {
			status = http.StatusInternalServerError
			for _, rest := range files[i+1:] {
				results = append(results, UploadResult{Filename: rest.Filename, Status: UploadSkipped})
			}
			break
		}
	}

	writeJSON(ctx, w, status, UploadResponse{Results: results})
}

type uploadOutcome struct {
	UploadResult
	fatal bool
}

func (h *BooksHandler) uploadOne(r *http.Request, fh *multipart.FileHeader) uploadOutcome {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)
	out := uploadOutcome{UploadResult: UploadResult{Filename: fh.Filename}}

	mediaType, _, err := mime.ParseMediaType(fh.Header.Get("Content-Type"))
	if err != nil || h.acceptedTypes[mediaType] == "" {
		out.Status = UploadRejected
		out.Error = fmt.Sprintf("file type %q is not accepted", fh.Header.Get("Content-Type"))
		logger.WarnContext(ctx, "rejected upload", "filename", fh.Filename, "content_type", fh.Header.Get("Content-Type"))
		return out
	}
	if !suffixMatches(h.acceptedTypes[mediaType], fh.Filename) {
		out.Status = UploadRejected
		out.Error = fmt.Sprintf("file type %q does not match the suffix of %q", mediaType, fh.Filename)
		logger.WarnContext(ctx, "rejected upload", "filename", fh.Filename, "content_type", mediaType)
		return out
	}

	f, err := fh.Open()
	if err != nil {
		out.Status = UploadFailed
		out.Error = "failed to read upload"
		logger.ErrorContext(ctx, "failed to open upload", "filename", fh.Filename, "error", err)
		return out
	}
	defer f.Close()

	extractTitle, _ := strconv.ParseBool(r.URL.Query().Get("extract_title"))
	number, err := h.library.Add(ctx, f, fh.Filename, extractTitle)
	out.Number = number

	var dup *service.DuplicateContentError
	switch {
	case err == nil:
		out.Status = UploadRegistered
		logger.InfoContext(ctx, "registered upload", "filename", fh.Filename, "number", number)
	case errors.As(err, &dup):
		out.Status = UploadDuplicate
		out.Existing = dup.Existing
		out.Error = err.Error()
	case errors.Is(err, service.ErrInvalidFormat):
		out.Status = UploadRejected
		out.Error = err.Error()
	default:
		out.Status = UploadFailed
		out.Error = err.Error()
		out.fatal = number == 0 && service.Fatal(err)
		logger.ErrorContext(ctx, "upload failed", "filename", fh.Filename, "number", number, "error", err)
	}
	return out
}

// suffixMatches reports whether filename's suffix names the same format as
// filetype, so "cbz" matches "zip".
func suffixMatches(filetype, filename string) bool {
	name, err := registry.ParseName(filename)
	if err != nil {
		return false
	}
	want, err := extract.ParseFormat(filetype)
	if err != nil {
		return false
	}
	got, err := extract.ParseFormat(name.Filetype)
	return err == nil && got == want
}

// List returns a page of entries filtered by ?tag= and ordered by ?sort=.
func (h *BooksHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page, err := intQuery(r, "page", 1)
	if err != nil {
		handleServiceError(ctx, w, err, "list")
		return
	}
	perPage, err := intQuery(r, "per_page", h.perPage)
	if err != nil {
		handleServiceError(ctx, w, err, "list")
		return
	}

	result, err := h.library.List(ctx, library.ListRequest{
		Tag:     r.URL.Query().Get("tag"),
		Sort:    r.URL.Query().Get("sort"),
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		handleServiceError(ctx, w, err, "list")
		return
	}

	resp := BookListResponse{
		Books:   make([]BookResponse, 0, len(result.Entries)),
		Total:   result.Total,
		Page:    result.Page,
		PerPage: result.PerPage,
	}
	for i := range result.Entries {
		resp.Books = append(resp.Books, toBookResponse(&result.Entries[i]))
	}
	writeJSON(ctx, w, http.StatusOK, resp)
}

// Get returns one entry.
func (h *BooksHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	number, err := numberParam(r)
	if err != nil {
		handleServiceError(ctx, w, err, "entry")
		return
	}

	entry, err := h.library.Get(ctx, number)
	if err != nil {
		handleServiceError(ctx, w, err, itemName(number))
		return
	}
	writeJSON(ctx, w, http.StatusOK, toBookResponse(entry))
}

// Update applies a JSON EntryUpdate and returns the updated entry.
func (h *BooksHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	number, err := numberParam(r)
	if err != nil {
		handleServiceError(ctx, w, err, "entry")
		return
	}

	var req library.EntryUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	entry, err := h.library.Update(ctx, number, req)
	if err != nil {
		handleServiceError(ctx, w, err, itemName(number))
		return
	}
	writeJSON(ctx, w, http.StatusOK, toBookResponse(entry))
}

// Delete removes an entry with its file, thumbnail and index rows.
func (h *BooksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	number, err := numberParam(r)
	if err != nil {
		handleServiceError(ctx, w, err, "entry")
		return
	}

	if err := h.library.Remove(ctx, number); err != nil {
		handleServiceError(ctx, w, err, itemName(number))
		return
	}
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "removed entry", "number", number)
	w.WriteHeader(http.StatusNoContent)
}

// Refresh re-extracts an entry. ?extract_title=true also replaces the title.
func (h *BooksHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	number, err := numberParam(r)
	if err != nil {
		handleServiceError(ctx, w, err, "entry")
		return
	}
	extractTitle, _ := strconv.ParseBool(r.URL.Query().Get("extract_title"))

	if err := h.library.Refresh(ctx, number, extractTitle); err != nil {
		handleServiceError(ctx, w, err, itemName(number))
		return
	}

	entry, err := h.library.Get(ctx, number)
	if err != nil {
		handleServiceError(ctx, w, err, itemName(number))
		return
	}
	writeJSON(ctx, w, http.StatusOK, toBookResponse(entry))
}

// Raw serves the stored file.
func (h *BooksHandler) Raw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	number, err := numberParam(r)
	if err != nil {
		handleServiceError(ctx, w, err, "entry")
		return
	}

	path, filetype, err := h.library.FilePath(ctx, number)
	if err != nil {
		handleServiceError(ctx, w, err, itemName(number))
		return
	}
	if ct := mime.TypeByExtension("." + filetype); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", fmt.Sprintf("%d.%s", number, filetype)))
	http.ServeFile(w, r, path)
}

// Thumbnail serves the entry's cover thumbnail.
func (h *BooksHandler) Thumbnail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	number, err := numberParam(r)
	if err != nil {
		handleServiceError(ctx, w, err, "entry")
		return
	}

	path, err := h.library.ThumbnailPath(ctx, number)
	if err != nil {
		handleServiceError(ctx, w, err, itemName(number))
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	http.ServeFile(w, r, path)
}

// Page serves one zero-based page of an entry as an image.
func (h *BooksHandler) Page(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	number, err := numberParam(r)
	if err != nil {
		handleServiceError(ctx, w, err, "entry")
		return
	}
	page, err := strconv.Atoi(chi.URLParam(r, "page"))
	if err != nil || page < 0 {
		handleServiceError(ctx, w, &service.ValidationError{Field: "page", Message: "must be a non-negative integer"}, itemName(number))
		return
	}

	img, err := h.library.PageImage(ctx, number, page)
	if err != nil {
		handleServiceError(ctx, w, err, fmt.Sprintf("%s page %d", itemName(number), page))
		return
	}
	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(img.Data); err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to write page", "number", number, "page", page, "error", err)
	}
}

func itemName(number int64) string {
	return fmt.Sprintf("entry %d", number)
}
