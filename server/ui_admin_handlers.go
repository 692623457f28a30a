package server

import (
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jrsteele09/atelier-console/backend"
	"github.com/jrsteele09/atelier-console/session"
	"github.com/rs/zerolog/log"
)

// AdminPageData is what the admin layout renders around each page's content
type AdminPageData struct {
	AppName    string
	UserName   string
	Role       string
	IsAdmin    bool
	ActivePage string
	PageTitle  string
	Error      string
	Flash      string
	Data       any
}

type adminPage struct {
	activePage string
	title      string
	tmpl       *template.Template
}

func newAdminPage(activePage, title, contentTemplate string) (*adminPage, error) {
	tmpl, err := ParseAdminTemplate(contentTemplate)
	if err != nil {
		return nil, err
	}
	return &adminPage{activePage: activePage, title: title, tmpl: tmpl}, nil
}

// renderAdminPage renders a page with the admin layout for the session set by RequireSession
func (s *Server) renderAdminPage(w http.ResponseWriter, r *http.Request, page *adminPage, data any, pageErr string) {
	sess, _ := sessionFromContext(r.Context())

	pageData := AdminPageData{
		AppName:    s.config.GetAppName(),
		UserName:   sess.Profile.DisplayName(),
		Role:       sess.Role.String(),
		IsAdmin:    sess.Role == session.RoleAdmin,
		ActivePage: page.activePage,
		PageTitle:  page.title,
		Error:      pageErr,
		Flash:      r.URL.Query().Get("flash"),
		Data:       data,
	}
	if pageErr == "" {
		pageData.Error = r.URL.Query().Get("error")
	}

	w.Header().Set("Content-Type", contentTypeHTML)
	if err := page.tmpl.Execute(w, pageData); err != nil {
		log.Err(err).Str("page", page.activePage).Msg("Failed to render admin page")
	}
}

// backendFailed handles an error from a backend call made on behalf of the session.
// A rejected token signs the user out. It returns the message to show on the page.
func (s *Server) backendFailed(w http.ResponseWriter, r *http.Request, err error) (message string, handled bool) {
	if errors.Is(err, backend.ErrSessionRejected) {
		log.Info().Str("path", r.URL.Path).Msg("Backend rejected session token, signing out")
		s.logout(w, r)
		redirectWithError(w, r, RouteLogin, "Your session has expired, please sign in again", nil)
		return "", true
	}
	log.Err(err).Str("path", r.URL.Path).Msg("Backend request failed")
	if errors.Is(err, backend.ErrNetwork) {
		return "Unable to reach the server, please try again", false
	}
	return "Unable to load data", false
}

// DashboardCard is a resource count on the dashboard
type DashboardCard struct {
	Title string
	Link  string
	Count int
}

// AdminDashboardHandler renders the admin dashboard
func (s *Server) AdminDashboardHandler() (http.HandlerFunc, error) {
	page, err := newAdminPage("dashboard", "Dashboard", "admin_dashboard_content.html")
	if err != nil {
		return nil, err
	}

	cards := []struct {
		resource  backend.Resource
		title     string
		link      string
		adminOnly bool
	}{
		{backend.ResourceAteliers, "Workshops", RouteAdminAteliers, false},
		{backend.ResourceEquipements, "Equipment", RouteAdminEquipements, false},
		{backend.ResourceFormulaires, "Failure reports", RouteAdminFormulaires, false},
		{backend.ResourceStocks, "Stock items", RouteAdminStock, false},
		{backend.ResourceUsers, "Users", RouteAdminUsers, true},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := sessionFromContext(r.Context())

		var data []DashboardCard
		for _, card := range cards {
			if card.adminOnly && !adminOnly.Permits(sess.Role) {
				continue
			}
			count, err := s.backend.Count(r.Context(), sess, card.resource)
			if err != nil {
				msg, handled := s.backendFailed(w, r, err)
				if handled {
					return
				}
				s.renderAdminPage(w, r, page, data, msg)
				return
			}
			data = append(data, DashboardCard{Title: card.title, Link: card.link, Count: count})
		}
		s.renderAdminPage(w, r, page, data, "")
	}, nil
}

// ResourcePageData is the content of a collection page
type ResourcePageData struct {
	Path      string
	Table     Table
	CanDelete bool
}

// resourceHandler renders a searchable, paginated table of resource
func (s *Server) resourceHandler(resource backend.Resource, activePage, title, path, contentTemplate string, columns []Column) (http.HandlerFunc, error) {
	page, err := newAdminPage(activePage, title, contentTemplate)
	if err != nil {
		return nil, err
	}

	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := sessionFromContext(r.Context())
		query := r.URL.Query()

		data := ResourcePageData{
			Path:      path,
			CanDelete: resource == backend.ResourceUsers && adminOnly.Permits(sess.Role),
		}

		records, err := s.backend.List(r.Context(), sess, resource)
		if err != nil {
			msg, handled := s.backendFailed(w, r, err)
			if handled {
				return
			}
			data.Table = buildTable(nil, columns, query.Get("q"), 1)
			s.renderAdminPage(w, r, page, data, msg)
			return
		}

		data.Table = buildTable(records, columns, query.Get("q"), parsePage(query.Get("page")))
		s.renderAdminPage(w, r, page, data, "")
	}, nil
}

// AdminAteliersHandler lists workshops
func (s *Server) AdminAteliersHandler() (http.HandlerFunc, error) {
	return s.resourceHandler(backend.ResourceAteliers, "ateliers", "Workshops", RouteAdminAteliers, "admin_resource_content.html", []Column{
		{Key: "id", Label: "ID"},
		{Key: "nom", Label: "Name"},
	})
}

// AdminEquipementsHandler lists equipment
func (s *Server) AdminEquipementsHandler() (http.HandlerFunc, error) {
	return s.resourceHandler(backend.ResourceEquipements, "equipements", "Equipment", RouteAdminEquipements, "admin_resource_content.html", []Column{
		{Key: "id", Label: "ID"},
		{Key: "nom", Label: "Name"},
		{Key: "atelier", Label: "Workshop"},
	})
}

// AdminFormulairesHandler lists failure reports
func (s *Server) AdminFormulairesHandler() (http.HandlerFunc, error) {
	return s.resourceHandler(backend.ResourceFormulaires, "formulaires", "Failure reports", RouteAdminFormulaires, "admin_resource_content.html", []Column{
		{Key: "id", Label: "ID"},
		{Key: "date_defaillance", Label: "Date"},
		{Key: "atelier", Label: "Workshop"},
		{Key: "equipement", Label: "Equipment"},
		{Key: "nature_panne", Label: "Failure type"},
		{Key: "indice_gravite", Label: "Severity"},
		{Key: "pilote", Label: "Reported by"},
	})
}

// AdminStockHandler lists spare-part stock
func (s *Server) AdminStockHandler() (http.HandlerFunc, error) {
	return s.resourceHandler(backend.ResourceStocks, "stock", "Stock", RouteAdminStock, "admin_resource_content.html", []Column{
		{Key: "reference", Label: "Reference"},
		{Key: "element", Label: "Item"},
		{Key: "quantite", Label: "Quantity"},
	})
}

// AdminUsersListHandler lists backend accounts
func (s *Server) AdminUsersListHandler() (http.HandlerFunc, error) {
	return s.resourceHandler(backend.ResourceUsers, "users", "Users", RouteAdminUsers, "admin_users_content.html", []Column{
		{Key: "id", Label: "ID"},
		{Key: "username", Label: "Username"},
		{Key: "role", Label: "Role"},
	})
}

// AdminUserDeleteHandler deletes a backend account and goes back to the user list
func (s *Server) AdminUserDeleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := sessionFromContext(r.Context())
		id := r.PathValue("id")
		if _, err := strconv.ParseInt(id, 10, 64); err != nil {
			redirectWithError(w, r, RouteAdminUsers, "Invalid user id", nil)
			return
		}
		if id == strconv.FormatInt(sess.Profile.ID, 10) {
			redirectWithError(w, r, RouteAdminUsers, "You cannot delete your own account", nil)
			return
		}

		err := s.backend.Delete(r.Context(), sess, backend.ResourceUsers, id)
		switch {
		case err == nil:
			log.Info().Str("id", id).Str("by", sess.Profile.Username).Msg("User deleted")
			redirectSuccess(w, r, RouteAdminUsers+"?"+url.Values{"flash": {"User deleted"}}.Encode())
		case errors.Is(err, backend.ErrNotFound):
			redirectWithError(w, r, RouteAdminUsers, "User not found", nil)
		default:
			msg, handled := s.backendFailed(w, r, err)
			if handled {
				return
			}
			redirectWithError(w, r, RouteAdminUsers, msg, nil)
		}
	}
}

// AnalysePageData summarises failure reports
type AnalysePageData struct {
	Total    int
	Sections []TallySection
}

// TallySection is one breakdown on the analysis page
type TallySection struct {
	Title string
	Rows  []Tally
}

// AdminAnalyseHandler aggregates failure reports by type, severity and workshop
func (s *Server) AdminAnalyseHandler() (http.HandlerFunc, error) {
	page, err := newAdminPage("analyse", "Analysis", "admin_analyse_content.html")
	if err != nil {
		return nil, err
	}

	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := sessionFromContext(r.Context())
		records, err := s.backend.List(r.Context(), sess, backend.ResourceFormulaires)
		if err != nil {
			msg, handled := s.backendFailed(w, r, err)
			if handled {
				return
			}
			s.renderAdminPage(w, r, page, AnalysePageData{}, msg)
			return
		}

		s.renderAdminPage(w, r, page, AnalysePageData{
			Total: len(records),
			Sections: []TallySection{
				{Title: "By failure type", Rows: tally(records, "nature_panne")},
				{Title: "By severity", Rows: tally(records, "indice_gravite")},
				{Title: "By workshop", Rows: tally(records, "atelier")},
			},
		}, "")
	}, nil
}

// ProfilePageData is the signed-in user's profile
type ProfilePageData struct {
	Profile session.Profile
	Role    string
	Scope   string
	Extra   map[string]string
}

// AdminProfileHandler shows user profile page
func (s *Server) AdminProfileHandler() (http.HandlerFunc, error) {
	page, err := newAdminPage("profile", "Profile", "admin_profile_content.html")
	if err != nil {
		return nil, err
	}

	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := sessionFromContext(r.Context())

		data := ProfilePageData{
			Profile: sess.Profile,
			Role:    sess.Role.String(),
			Extra:   make(map[string]string, len(sess.Profile.Fields)),
		}
		if scope, err := s.sessions.Bind(w, r).Scope(r.Context()); err == nil {
			data.Scope = scope.String()
		}
		for k, v := range sess.Profile.Fields {
			data.Extra[k] = string(v)
		}
		s.renderAdminPage(w, r, page, data, "")
	}, nil
}
