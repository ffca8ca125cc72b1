package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/larsks/relayrpc/internal/relay"
	"github.com/larsks/relayrpc/internal/rpc"
)

// Server is the HTTP transport for the relay commands.
type Server struct {
	dispatcher *rpc.Dispatcher
	relay      *relay.Controller
	router     *chi.Mux
}

// Options controls optional server behaviour.
type Options struct {
	// CORSOrigins lists the origins allowed to call the API from a browser.
	// CORS headers are not sent when empty.
	CORSOrigins []string

	// AccessLog enables chi request logging.
	AccessLog bool

	// Authenticate, if set, wraps POST /rpc. The read-only endpoints stay
	// open.
	Authenticate func(http.Handler) http.Handler
}

// NewServer creates the HTTP handler serving d. r backs the /state shortcut.
func NewServer(d *rpc.Dispatcher, r *relay.Controller, opts Options) *Server {
	s := &Server{
		dispatcher: d,
		relay:      r,
		router:     chi.NewRouter(),
	}

	if opts.AccessLog {
		s.router.Use(middleware.Logger)
	}
	s.router.Use(middleware.Recoverer)
	if len(opts.CORSOrigins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
			MaxAge:         300,
		}))
	}

	s.router.Group(func(r chi.Router) {
		if opts.Authenticate != nil {
			r.Use(opts.Authenticate)
		}
		r.With(s.validateJSONRequest).Post("/rpc", s.rpcHandler)
	})
	s.router.Get("/state", s.stateHandler)
	s.router.Get("/methods", s.methodsHandler)
	s.router.Get("/healthz", s.healthHandler)

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
