package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/atelier-console/access"
	"github.com/jrsteele09/atelier-console/backend"
	"github.com/jrsteele09/atelier-console/internal/config"
	"github.com/jrsteele09/atelier-console/session"
	"github.com/rs/zerolog/log"
)

type Server struct {
	env      string // Environment (e.g., "DEV", "PROD")
	mux      *http.ServeMux
	routes   []string
	config   config.Config
	backend  *backend.Client
	sessions session.Binder
	guard    access.Guard
}

func New(config config.Config, backendClient *backend.Client, sessions session.Binder) (*Server, error) {
	if backendClient == nil {
		return nil, fmt.Errorf("[Server New] backend client is required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("[Server New] session binder is required")
	}

	s := &Server{
		env:      config.GetEnv(),
		mux:      http.NewServeMux(),
		config:   config,
		backend:  backendClient,
		sessions: sessions,
		guard: access.Guard{
			LoginPath:           RouteLogin,
			LandingPath:         RouteAdminDashboard,
			PreserveDestination: true,
		},
	}

	if err := s.initRoutes(); err != nil {
		return nil, fmt.Errorf("[Server New] %w", err)
	}
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Info().Msgf("[%-19s] %s", displayMethod, path)
}

func logError(method, path, error string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Error().Msgf("[%-19s] %s %s", displayMethod, path, Red+error+ResetColor)
}
