package config

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

const (
	SessionBackendCookie = "cookie"
	SessionBackendRedis  = "redis"

	sessionSecretEnvVar = "SESSION_SECRET"
	defaultEphemeralTTL = 12 * time.Hour
)

type SessionConfig interface {
	GetSessionBackend() string
	GetSessionSecret() string
	IsSessionSecretSet() bool
	GetRememberMeDuration() time.Duration
	GetEphemeralTTL() time.Duration
	GetRedisURL() string
}

type Sessions struct{}

var _ SessionConfig = Sessions{}

var (
	generatedSecretOnce sync.Once
	generatedSecret     string
)

func (Sessions) GetSessionBackend() string {
	return GetEnv("SESSION_BACKEND", SessionBackendCookie)
}

// GetSessionSecret signs cookie values. Without SESSION_SECRET a random secret is generated
// once per process, so cookies do not survive a restart.
func (Sessions) GetSessionSecret() string {
	if secret := GetEnv(sessionSecretEnvVar, ""); secret != "" {
		return secret
	}
	generatedSecretOnce.Do(func() {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			panic("Failed to generate session secret: " + err.Error())
		}
		generatedSecret = hex.EncodeToString(buf)
	})
	return generatedSecret
}

func (Sessions) IsSessionSecretSet() bool {
	return GetEnv(sessionSecretEnvVar, "") != ""
}

// GetRememberMeDuration is at least one day
func (Sessions) GetRememberMeDuration() time.Duration {
	return time.Duration(max(GetEnvInt("REMEMBER_ME_DAYS", 30), 1)) * 24 * time.Hour
}

// GetEphemeralTTL bounds how long a non-remembered session stays valid
func (Sessions) GetEphemeralTTL() time.Duration {
	ttl := GetEnvDuration("EPHEMERAL_TTL", defaultEphemeralTTL)
	if ttl <= 0 {
		return defaultEphemeralTTL
	}
	return ttl
}

func (Sessions) GetRedisURL() string {
	return GetEnv("REDIS_URL", "redis://localhost:6379/0")
}
