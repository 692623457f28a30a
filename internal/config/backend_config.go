package config

import (
	"strings"
	"time"
)

type BackendConfig interface {
	GetBackendURL() string
	GetBackendTimeout() time.Duration
	GetAuthScheme() string
}

type Backend struct{}

var _ BackendConfig = Backend{}

// GetBackendURL returns the maintenance API root without a trailing slash
func (Backend) GetBackendURL() string {
	return strings.TrimRight(GetEnv("BACKEND_URL", "http://localhost:8000/api"), "/")
}

func (Backend) GetBackendTimeout() time.Duration {
	return GetEnvDuration("BACKEND_TIMEOUT", 5*time.Second)
}

// GetAuthScheme is the Authorization header scheme the backend expects ("Token" or "Session")
func (Backend) GetAuthScheme() string {
	return GetEnv("AUTH_SCHEME", "Token")
}
