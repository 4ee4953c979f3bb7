package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RouterOptions wires the optional cross-cutting pieces of the router.
type RouterOptions struct {
	// MetricsMiddleware records request metrics; nil disables it.
	MetricsMiddleware func(http.Handler) http.Handler
	// MetricsHandler serves /metrics; nil leaves the route unregistered.
	MetricsHandler http.Handler
}

// NewRouter constructs the API HTTP router with no metrics.
func NewRouter(s *Server, log *slog.Logger) http.Handler {
	return NewRouterWithOptions(s, log, RouterOptions{})
}

func NewRouterWithOptions(s *Server, log *slog.Logger, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(AccessLog(log))
	if opts.MetricsMiddleware != nil {
		r.Use(opts.MetricsMiddleware)
	}
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if opts.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", opts.MetricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/settings", s.GetSettings)
		r.Get("/menus", s.ListMenus)

		r.Route("/tickets", func(r chi.Router) {
			r.Get("/stats", s.GetTicketStats)
			r.Get("/stats/{name}", s.GetTicketStat)
			r.Get("/groups", s.ListTicketGroups)
			r.Get("/groups/{group}/sold", s.GetGroupSold)
			r.Get("/groups/{group}/remaining", s.GetGroupRemaining)
		})

		r.Post("/markup/render", s.RenderMarkup)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "NOT_FOUND", "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", nil)
	})
	return r
}
