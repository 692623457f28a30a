package server

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/atelier-console/access"
	"github.com/jrsteele09/atelier-console/session"
)

var adminOnly = access.Only(session.RoleAdmin)

func (s *Server) initRoutes() error {
	s.RegisterRouteHandler("GET "+RouteIndex+"{$}", ChainMiddleware(s.IndexHandler(), s.HTMLMiddleWare()...))

	// LOGIN
	loginPage, err := s.LoginPageUIHandler()
	if err != nil {
		return err
	}
	s.RegisterRouteHandler("GET "+RouteLogin, ChainMiddleware(loginPage, s.HTMLMiddleWare(s.NoStoreMiddleware)...))
	s.RegisterRouteHandler("POST "+RouteAuthLogin, ChainMiddleware(s.LoginSubmissionHandler(), s.HTMLMiddleWare(s.NoStoreMiddleware)...))
	s.RegisterRouteHandler("GET "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleWare(s.NoStoreMiddleware)...))
	s.RegisterRouteHandler("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleWare(s.NoStoreMiddleware)...))

	// Admin routes
	pages := []struct {
		pattern string
		policy  access.Policy
		handler func() (http.HandlerFunc, error)
	}{
		{"GET " + RouteAdminDashboard, access.AnyRole, s.AdminDashboardHandler},
		{"GET " + RouteAdminAteliers, access.AnyRole, s.AdminAteliersHandler},
		{"GET " + RouteAdminEquipements, access.AnyRole, s.AdminEquipementsHandler},
		{"GET " + RouteAdminFormulaires, access.AnyRole, s.AdminFormulairesHandler},
		{"GET " + RouteAdminStock, access.AnyRole, s.AdminStockHandler},
		{"GET " + RouteAdminUsers, adminOnly, s.AdminUsersListHandler},
		{"GET " + RouteAdminAnalyse, adminOnly, s.AdminAnalyseHandler},
		{"GET " + RouteAdminProfile, access.AnyRole, s.AdminProfileHandler},
	}
	for _, page := range pages {
		handler, err := page.handler()
		if err != nil {
			return err
		}
		s.RegisterRouteHandler(page.pattern, s.protected(handler, page.policy))
	}
	s.RegisterRouteHandler("POST "+RouteAdminUserDelete, s.protected(s.AdminUserDeleteHandler(), adminOnly))

	// API routes
	s.RegisterRouteHandler("GET "+RouteAPIMe, ChainMiddleware(s.MeHandler(), s.APIMiddleware(s.RequireSession(access.AnyRole))...))
	s.RegisterRouteHandler("OPTIONS "+RouteAPIMe, ChainMiddleware(s.MeHandler(), s.APIMiddleware()...))

	s.RegisterRouteHandler("GET "+RouteStaticCSS, ChainMiddleware(s.serveFileHandler(), s.HTMLMiddleWare(s.CacheMiddleware)...))
	return nil
}

// protected wraps an admin page with the access guard for policy
func (s *Server) protected(handler http.HandlerFunc, policy access.Policy) http.HandlerFunc {
	return ChainMiddleware(handler, s.HTMLMiddleWare(s.NoStoreMiddleware, s.RequireSession(policy))...)
}

func (s *Server) serveFileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filePath := strings.TrimPrefix(r.URL.Path, "/")
		if filePath == "" {
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
		err := StreamFile(w, r, filePath)
		if err != nil {
			logError("GET", filePath, err.Error())
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
	}
}
