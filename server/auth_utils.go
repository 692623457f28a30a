package server

import (
	"context"
	"net/http"
	"net/url"

	"github.com/jrsteele09/atelier-console/session"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeySession stores the session the access guard let through
	ContextKeySession ContextKey = "session"
)

func withSession(r *http.Request, s session.Session) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), ContextKeySession, s))
}

// sessionFromContext returns the session set by RequireSession
func sessionFromContext(ctx context.Context) (session.Session, bool) {
	s, ok := ctx.Value(ContextKeySession).(session.Session)
	return s, ok
}

// redirectSuccess helper for htmx-aware success redirects
func redirectSuccess(w http.ResponseWriter, r *http.Request, path string) {
	if isHTMXRequest(r) {
		w.Header().Set("HX-Redirect", path)
		w.WriteHeader(http.StatusNoContent) // 204 - no content, just redirect instruction
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// redirectWithError helper for htmx-aware error redirects. extra is appended to the query.
func redirectWithError(w http.ResponseWriter, r *http.Request, path, errorMsg string, extra url.Values) {
	query := url.Values{}
	for k, v := range extra {
		if len(v) > 0 && v[0] != "" {
			query[k] = v
		}
	}
	query.Set("error", errorMsg)
	redirectSuccess(w, r, path+"?"+query.Encode())
}

// isHTMXRequest checks if the request was initiated by HTMX
func isHTMXRequest(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
