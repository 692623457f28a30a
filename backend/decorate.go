package backend

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/jrsteele09/atelier-console/session"
)

// Scheme is the Authorization header scheme the backend issued credentials for
type Scheme string

const (
	// SchemeToken sends "Token <session token>"
	SchemeToken Scheme = "Token"
	// SchemeSession sends "Session <user id>"
	SchemeSession Scheme = "Session"
)

// ParseScheme defaults to SchemeToken for anything it does not recognise
func ParseScheme(s string) Scheme {
	if strings.EqualFold(strings.TrimSpace(s), string(SchemeSession)) {
		return SchemeSession
	}
	return SchemeToken
}

func (s Scheme) credential(sess session.Session) string {
	if s == SchemeSession {
		return strconv.FormatInt(sess.Profile.ID, 10)
	}
	return sess.Token
}

// Decorate returns a copy of req carrying the session's Authorization header. The original
// request and any shared client state are left untouched.
func Decorate(req *http.Request, sess session.Session, scheme Scheme) *http.Request {
	decorated := req.Clone(req.Context())
	if credential := scheme.credential(sess); credential != "" && sess.Token != "" {
		decorated.Header.Set("Authorization", string(scheme)+" "+credential)
	}
	return decorated
}
