package server

import (
	"net/http"
)

// IndexHandler sends visitors to the login page, which forwards signed-in users to the dashboard
func (s *Server) IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, RouteLogin, http.StatusSeeOther)
	}
}
