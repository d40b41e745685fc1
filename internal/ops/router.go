package ops

import (
	"expvar"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

func NewRouter(h *Handlers, adminKey string) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(APILogMiddleware()).Get("/healthz", h.Health())

	r.Route("/api", func(r chi.Router) {
		r.Use(APILogMiddleware())
		r.Get("/status", h.Status())
		r.Get("/stats", h.Stats())

		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(adminKey))
			r.Post("/admin/reinitialize", h.Reinitialize())
			r.Post("/admin/terminate", h.Terminate())
			r.Post("/admin/policy", h.Policy())
			r.Post("/admin/session/end", h.EndSession())

			r.Get("/journal/transitions", h.JournalTransitions())
			r.Get("/journal/sessions", h.JournalSessions())
			r.Get("/journal/players", h.JournalPlayers())

			r.Get("/debug/vars", expvar.Handler().ServeHTTP)
		})
	})
	return r
}

// LogRoutes records the registered surface in the process log. The node's
// stdout goes to the orchestrator's collector, so one structured line beats
// a multi-line table.
func LogRoutes(r chi.Router) {
	var routes []string
	err := chi.Walk(r, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, method+" "+route)
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("walk routes failed")
		return
	}
	sort.Strings(routes)
	log.Info().Strs("routes", routes).Msg("ops routes registered")
}
