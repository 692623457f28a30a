package session

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Role is the closed set of roles the console understands.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleTechnician Role = "technician"
	RoleUnknown    Role = "unknown"
)

// ParseRole maps the backend's role string onto a Role. The backend spells the technician
// role "technicien"; anything unrecognised becomes RoleUnknown.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin":
		return RoleAdmin
	case "technician", "technicien":
		return RoleTechnician
	default:
		return RoleUnknown
	}
}

func (r Role) String() string {
	return string(r)
}

// Profile is the user payload returned by the backend at login. Fields the console does not
// model are kept in Fields so that nothing is lost when the profile is persisted.
type Profile struct {
	ID       int64
	Username string
	FullName string
	Fields   map[string]json.RawMessage
}

var profileKeys = map[string]struct{}{"id": {}, "username": {}, "full_name": {}}

// DisplayName prefers the full name and falls back to the username
func (p Profile) DisplayName() string {
	if name := strings.TrimSpace(p.FullName); name != "" {
		return name
	}
	return p.Username
}

func (p Profile) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Fields)+3)
	for k, v := range p.Fields {
		if _, reserved := profileKeys[k]; reserved {
			continue
		}
		out[k] = v
	}
	out["id"] = p.ID
	out["username"] = p.Username
	if p.FullName != "" {
		out["full_name"] = p.FullName
	}
	return json.Marshal(out)
}

func (p *Profile) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("[Profile UnmarshalJSON] %w", err)
	}

	*p = Profile{}
	if v, ok := raw["id"]; ok && string(v) != "null" {
		if err := json.Unmarshal(v, &p.ID); err != nil {
			return fmt.Errorf("[Profile UnmarshalJSON] id: %w", err)
		}
	}
	if v, ok := raw["username"]; ok && string(v) != "null" {
		if err := json.Unmarshal(v, &p.Username); err != nil {
			return fmt.Errorf("[Profile UnmarshalJSON] username: %w", err)
		}
	}
	if v, ok := raw["full_name"]; ok && string(v) != "null" {
		if err := json.Unmarshal(v, &p.FullName); err != nil {
			return fmt.Errorf("[Profile UnmarshalJSON] full_name: %w", err)
		}
	}

	for k, v := range raw {
		if _, reserved := profileKeys[k]; reserved {
			continue
		}
		if p.Fields == nil {
			p.Fields = make(map[string]json.RawMessage)
		}
		p.Fields[k] = v
	}
	return nil
}

// Session is the authenticated identity held for one browser: the backend token, the user's
// role and profile. The backend alone decides whether the token is still valid.
type Session struct {
	Token   string
	Role    Role
	Profile Profile
}

// Scope selects how long a Session is kept by the browser.
type Scope int

const (
	// ScopeDurable survives browser restarts ("remember me").
	ScopeDurable Scope = iota + 1
	// ScopeEphemeral ends with the browser session.
	ScopeEphemeral
)

// ScopeFor maps the login form's remember-me choice onto a Scope
func ScopeFor(remember bool) Scope {
	if remember {
		return ScopeDurable
	}
	return ScopeEphemeral
}

func (s Scope) String() string {
	switch s {
	case ScopeDurable:
		return "durable"
	case ScopeEphemeral:
		return "ephemeral"
	default:
		return "invalid"
	}
}

func (s Scope) Valid() bool {
	return s == ScopeDurable || s == ScopeEphemeral
}

// other returns the scope that must be empty while s holds the session
func (s Scope) other() Scope {
	if s == ScopeDurable {
		return ScopeEphemeral
	}
	return ScopeDurable
}
