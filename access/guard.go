// Package access decides whether a navigation to a protected view may proceed.
package access

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/jrsteele09/atelier-console/session"
	"github.com/rs/zerolog/log"
)

// Decision is the outcome of evaluating one navigation
type Decision int

const (
	Unauthenticated Decision = iota
	AuthenticatedForbidden
	Permitted
)

func (d Decision) String() string {
	switch d {
	case Unauthenticated:
		return "unauthenticated"
	case AuthenticatedForbidden:
		return "forbidden"
	case Permitted:
		return "permitted"
	default:
		return "unknown"
	}
}

// Policy is the per-route allow-list. An empty allow-list lets any signed-in role through.
type Policy struct {
	Allow []session.Role
}

// AnyRole permits every authenticated session
var AnyRole = Policy{}

// Only builds a policy restricted to roles
func Only(roles ...session.Role) Policy {
	return Policy{Allow: roles}
}

// Permits reports whether role may see a route with this policy. An unrecognised role never
// matches an allow-list entry.
func (p Policy) Permits(role session.Role) bool {
	if len(p.Allow) == 0 {
		return true
	}
	for _, allowed := range p.Allow {
		if matches(allowed, role) {
			return true
		}
	}
	return false
}

func matches(allowed, role session.Role) bool {
	switch role {
	case session.RoleAdmin, session.RoleTechnician:
		return allowed == role
	default:
		return false
	}
}

// Evaluate is the guard's state machine: no session, session with a role outside the
// allow-list, or permitted.
func Evaluate(s session.Session, found bool, p Policy) Decision {
	if !found || s.Token == "" {
		return Unauthenticated
	}
	if !p.Permits(s.Role) {
		return AuthenticatedForbidden
	}
	return Permitted
}

// Outcome is what the caller should do with a navigation
type Outcome struct {
	Decision Decision
	Session  session.Session
	Redirect string // empty when Permitted
}

// Reader is the part of the session store the guard needs
type Reader interface {
	Read(ctx context.Context) (session.Session, error)
}

// Guard turns decisions into redirects
type Guard struct {
	LoginPath   string
	LandingPath string
	// PreserveDestination adds ?next=<requested path> to login redirects
	PreserveDestination bool
}

// Check reads the session and evaluates p for requestedPath. It never fails: a store that
// cannot be read is treated as no session.
func (g Guard) Check(ctx context.Context, store Reader, requestedPath string, p Policy) Outcome {
	s, err := store.Read(ctx)
	found := err == nil
	if err != nil && !errors.Is(err, session.ErrNoSession) {
		log.Err(err).Str("path", requestedPath).Msg("Session store unreadable, treating as signed out")
	}

	decision := Evaluate(s, found, p)
	outcome := Outcome{Decision: decision, Session: s}

	switch decision {
	case Unauthenticated:
		outcome.Session = session.Session{}
		outcome.Redirect = g.loginRedirect(requestedPath)
	case AuthenticatedForbidden:
		outcome.Redirect = g.LandingPath
		if samePath(requestedPath, g.LandingPath) {
			outcome.Redirect = g.LoginPath
		}
	case Permitted:
	}
	return outcome
}

func (g Guard) loginRedirect(requestedPath string) string {
	if !g.PreserveDestination || SafeNext(requestedPath, "") == "" || samePath(requestedPath, g.LoginPath) {
		return g.LoginPath
	}
	return g.LoginPath + "?next=" + url.QueryEscape(requestedPath)
}

// SafeNext returns next when it is a path on this site, otherwise fallback. Absolute URLs and
// protocol-relative paths are rejected.
func SafeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.IsAbs() || u.Host != "" {
		return fallback
	}
	return next
}

func samePath(a, b string) bool {
	if i := strings.IndexAny(a, "?#"); i >= 0 {
		a = a[:i]
	}
	return strings.TrimSuffix(a, "/") == strings.TrimSuffix(b, "/")
}
