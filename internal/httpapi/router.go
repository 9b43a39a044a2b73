package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/erauner12/openadr-vtn/internal/auth"
	"github.com/erauner12/openadr-vtn/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
)

// Server holds the dependencies every handler needs.
type Server struct {
	DB              *pgxpool.Pool
	Auth            *auth.Manager
	RateLimitConfig RateLimitInfo

	Programs  *store.ProgramStore
	Events    *store.EventStore
	Reports   *store.ReportStore
	Vens      *store.VenStore
	Resources *store.ResourceStore
	Users     *store.UserStore
}

// DefaultRateLimitConfig is applied across the whole authenticated surface,
// per §6's ambient additions.
var DefaultRateLimitConfig = RateLimitInfo{
	WindowSeconds: 60,
	MaxRequests:   600,
	Burst:         120,
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode json response")
	}
}

// Routes builds the full router per §6's table.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(CorrelationMiddleware)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Default().Handler)

	r.Get("/healthz", s.Healthz)
	r.Post("/auth/token", s.IssueToken)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(s.Auth))
		r.Use(RateLimitMiddleware(s.RateLimitConfig))

		r.Route("/programs", func(r chi.Router) {
			r.Get("/", s.ListPrograms)
			r.Post("/", s.CreateProgram)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.GetProgram)
				r.Put("/", s.UpdateProgram)
				r.Delete("/", s.DeleteProgram)
			})
		})

		r.Route("/events", func(r chi.Router) {
			r.Get("/", s.ListEvents)
			r.Post("/", s.CreateEvent)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.GetEvent)
				r.Put("/", s.UpdateEvent)
				r.Delete("/", s.DeleteEvent)
			})
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/", s.ListReports)
			r.Post("/", s.CreateReport)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.GetReport)
				r.Put("/", s.UpdateReport)
				r.Delete("/", s.DeleteReport)
			})
		})

		r.Route("/vens", func(r chi.Router) {
			r.Get("/", s.ListVens)
			r.Post("/", s.CreateVen)
			r.Route("/{venID}", func(r chi.Router) {
				r.Get("/", s.GetVen)
				r.Put("/", s.UpdateVen)
				r.Delete("/", s.DeleteVen)

				r.Route("/resources", func(r chi.Router) {
					r.Get("/", s.ListResources)
					r.Post("/", s.CreateResource)
					r.Route("/{id}", func(r chi.Router) {
						r.Get("/", s.GetResource)
						r.Put("/", s.UpdateResource)
						r.Delete("/", s.DeleteResource)
					})
				})
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", s.ListUsers)
			r.Post("/", s.CreateUser)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.GetUser)
				r.Put("/", s.UpdateUser)
				r.Delete("/", s.DeleteUser)
				r.Post("/", s.AddUserCredential)
				r.Delete("/{clientID}", s.DeleteUserCredential)
			})
		})
	})

	log.Info().Msg("HTTP routes registered")
	return r
}
