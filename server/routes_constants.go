package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	RouteIndex = "/"

	// Auth Routes - Login & Logout
	RouteLogin      = "/login"
	RouteAuthLogin  = "/auth/login"
	RouteAuthLogout = "/auth/logout"

	// Admin Routes
	RouteAdminDashboard   = "/admin/dashboard"
	RouteAdminAteliers    = "/admin/ateliers"
	RouteAdminEquipements = "/admin/equipements"
	RouteAdminFormulaires = "/admin/formulaires"
	RouteAdminStock       = "/admin/stock"
	RouteAdminUsers       = "/admin/users"
	RouteAdminUserDelete  = "/admin/users/{id}/delete"
	RouteAdminAnalyse     = "/admin/analyse"
	RouteAdminProfile     = "/admin/profile"

	// API Routes
	RouteAPIMe = "/api/me"

	// Static Asset Routes (patterns)
	RouteStaticCSS = "/css/{file}"
)
