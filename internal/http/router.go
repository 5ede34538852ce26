package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"fmfm/internal/handlers"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Library       handlers.Library
	AcceptedTypes map[string]string // upload MIME type -> filetype
	PerPageEntry  int
	PerPageSearch int
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(CORS)

	books := handlers.NewBooksHandler(deps.Library, deps.AcceptedTypes, deps.PerPageEntry)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/health", handlers.NewHealthHandler(deps.Library))
		r.Method(http.MethodGet, "/search", handlers.NewSearchHandler(deps.Library, deps.PerPageSearch))
		r.Method(http.MethodGet, "/tags", handlers.NewTagsHandler(deps.Library))
		r.Method(http.MethodGet, "/stats", handlers.NewStatsHandler(deps.Library))

		r.Route("/books", func(r chi.Router) {
			r.Get("/", books.List)
			r.Post("/", books.Upload)
			r.Route("/{number}", func(r chi.Router) {
				r.Get("/", books.Get)
				r.Patch("/", books.Update)
				r.Delete("/", books.Delete)
				r.Post("/refresh", books.Refresh)
				r.Get("/raw", books.Raw)
				r.Get("/thumbnail", books.Thumbnail)
				r.Get("/pages/{page}", books.Page)
			})
		})
	})

	return r
}
