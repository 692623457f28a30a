package server

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/jrsteele09/atelier-console/access"
	"github.com/jrsteele09/atelier-console/backend"
	"github.com/jrsteele09/atelier-console/session"
	"github.com/rs/zerolog/log"
)

// LoginPageData contains data for rendering the login page
type LoginPageData struct {
	AppName           string
	Error             string
	Username          string // Preserve username on error
	Next              string
	Remember          bool
	MinPasswordLength int
}

// LoginPageUIHandler displays the login page (GET /login)
func (s *Server) LoginPageUIHandler() (http.HandlerFunc, error) {
	loginTmpl, err := ParseTemplate("login.html")
	if err != nil {
		return nil, err
	}

	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		next := access.SafeNext(query.Get("next"), "")

		// Already signed in: don't stay on the login page
		if _, err := s.sessions.Bind(w, r).Read(r.Context()); err == nil {
			redirectSuccess(w, r, access.SafeNext(next, RouteAdminDashboard))
			return
		}

		data := LoginPageData{
			AppName:           s.config.GetAppName(),
			Error:             query.Get("error"),
			Username:          query.Get("username"),
			Next:              next,
			Remember:          query.Get("remember") != "0",
			MinPasswordLength: backend.MinPasswordLength,
		}

		w.Header().Set("Content-Type", contentTypeHTML)
		if err := loginTmpl.Execute(w, data); err != nil {
			log.Err(err).Msg("Failed to render login template")
			http.Error(w, "Failed to render login page", http.StatusInternalServerError)
		}
	}, nil
}

// LoginSubmissionHandler exchanges the submitted credentials for a session and stores it in
// the scope chosen by the remember-me box
func (s *Server) LoginSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		username := r.FormValue("username")
		password := r.FormValue("password")
		remember := r.FormValue("remember") != ""
		next := access.SafeNext(r.FormValue("next"), "")

		sess, err := s.backend.Login(r.Context(), username, password)
		if err != nil {
			log.Info().Err(err).Str("username", username).Msg("Login failed")
			s.renderLoginError(w, r, loginErrorMessage(err), username, next, remember)
			return
		}

		scope := session.ScopeFor(remember)
		if err := s.sessions.Bind(w, r).Save(r.Context(), sess, scope); err != nil {
			log.Err(err).Str("username", username).Msg("Failed to save session")
			s.renderLoginError(w, r, "Unable to start your session, please try again", username, next, remember)
			return
		}

		log.Info().
			Str("username", sess.Profile.Username).
			Str("role", sess.Role.String()).
			Str("scope", scope.String()).
			Msg("User signed in")

		redirectSuccess(w, r, access.SafeNext(next, RouteAdminDashboard))
	}
}

// LogoutHandler clears the session from both scopes and goes back to the login page.
// Authorization is attached per backend request, so there is no shared header state to reset.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.logout(w, r)
		redirectSuccess(w, r, RouteLogin)
	}
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Bind(w, r).Clear(r.Context()); err != nil {
		log.Err(err).Msg("Logout: failed to clear session")
	}
}

// renderLoginError redirects to login page with an error message
func (s *Server) renderLoginError(w http.ResponseWriter, r *http.Request, errorMsg, username, next string, remember bool) {
	extra := url.Values{
		"username": {username},
		"next":     {next},
	}
	if !remember {
		extra.Set("remember", "0")
	}
	redirectWithError(w, r, RouteLogin, errorMsg, extra)
}

func loginErrorMessage(err error) string {
	switch {
	case errors.Is(err, backend.ErrMissingCredentials):
		return "Username and password are required"
	case errors.Is(err, backend.ErrPasswordTooShort):
		return "Password must be at least 6 characters"
	case errors.Is(err, backend.ErrInvalidCredentials):
		return "Invalid username or password"
	case errors.Is(err, backend.ErrNetwork):
		return "Unable to reach the server, please try again"
	default:
		return "Login failed, please try again"
	}
}
