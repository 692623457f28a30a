package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/jrsteele09/atelier-console/access"
	"github.com/rs/zerolog/log"
)

// RequireSession runs the access guard for policy before every request.
// HTML routes are redirected (login when signed out, the dashboard when the role is not
// allowed); /api/ routes get a JSON 401 or 403 instead.
func (s *Server) RequireSession(policy access.Policy) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			store := s.sessions.Bind(w, r)
			outcome := s.guard.Check(r.Context(), store, r.URL.RequestURI(), policy)

			switch outcome.Decision {
			case access.Permitted:
				next(w, withSession(r, outcome.Session))
				return
			case access.AuthenticatedForbidden:
				log.Info().
					Str("path", r.URL.Path).
					Str("username", outcome.Session.Profile.Username).
					Str("role", outcome.Session.Role.String()).
					Msg("Role not allowed, redirecting to landing page")
			}

			if isAPIRequest(r) {
				status := http.StatusUnauthorized
				if outcome.Decision == access.AuthenticatedForbidden {
					status = http.StatusForbidden
				}
				writeJSONError(w, status, outcome.Decision.String())
				return
			}
			redirectSuccess(w, r, outcome.Redirect)
		}
	}
}

func isAPIRequest(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/")
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
