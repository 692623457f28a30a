package server

import (
	"encoding/json"
	"net/http"

	"github.com/jrsteele09/atelier-console/session"
	"github.com/rs/zerolog/log"
)

// MeResponse is the signed-in user as seen by API clients
type MeResponse struct {
	Profile     session.Profile `json:"profile"`
	Role        session.Role    `json:"role"`
	DisplayName string          `json:"display_name"`
}

// MeHandler returns the current session's profile and role (GET /api/me)
func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := sessionFromContext(r.Context())
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "unauthenticated")
			return
		}

		w.Header().Set("Content-Type", contentTypeJSON)
		err := json.NewEncoder(w).Encode(MeResponse{
			Profile:     sess.Profile,
			Role:        sess.Role,
			DisplayName: sess.Profile.DisplayName(),
		})
		if err != nil {
			log.Err(err).Msg("Failed to encode /api/me response")
		}
	}
}
