package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"table-views/logging"
	"table-views/view"
)

// RegisterRoutes exposes the view store to the presentation layer. Requests
// from corsOrigins are allowed cross-origin.
func RegisterRoutes(store *view.Store, log zerolog.Logger, corsOrigins ...string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(logging.Middleware(log))
	r.Use(middleware.Recoverer)
	if len(corsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", "X-Request-Id"},
			MaxAge:         300,
		}))
	}

	h := &handler{store: store, log: log}

	r.Route("/api/views", func(r chi.Router) {
		r.Get("/", h.getViews)
		r.Post("/", h.saveView)
		r.Get("/ranked", h.rankedViews)
		r.Get("/exists", h.nameExists)
		r.Post("/commit", h.commit)
		r.Get("/ws", h.handleWS)

		r.Get("/{id}", h.getView)
		r.Patch("/{id}", h.updateView)
		r.Delete("/{id}", h.deleteView)
		r.Post("/{id}/load", h.loadView)
		r.Post("/{id}/rename", h.renameView)
		r.Post("/{id}/duplicate", h.duplicateView)
	})

	r.Post("/api/active/modified", h.markModified)
	r.Delete("/api/active", h.clearActive)
	r.Get("/api/stats", h.stats)

	return r
}

type handler struct {
	store *view.Store
	log   zerolog.Logger
}
