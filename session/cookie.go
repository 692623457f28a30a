package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

// entryClaims is the signed payload of one storage cookie. User and role entries carry a
// digest of the token they were written with.
type entryClaims struct {
	Key         string `json:"k"`
	Value       string `json:"v"`
	TokenDigest string `json:"td,omitempty"`
	jwt.RegisteredClaims
}

var errNoTokenToBind = errors.New("no token to bind entry to")

// CookieStorage keeps one scope's entries in browser cookies named "<scope>_<key>".
// Values are HS256 signed so the browser cannot change its own role, and user and role
// entries only verify next to the token cookie they were issued with. A cookie that fails
// verification reads as absent.
type CookieStorage struct {
	w        http.ResponseWriter
	r        *http.Request
	scope    Scope
	maxAge   int           // seconds, 0 gives a browser-session cookie
	lifetime time.Duration // how long a signed value stays valid, 0 for no expiry
	secret   []byte
	secure   bool

	pending map[string]string // values written during this request
	removed map[string]bool
}

var _ Storage = (*CookieStorage)(nil)

func NewCookieStorage(w http.ResponseWriter, r *http.Request, scope Scope, maxAge, lifetime time.Duration, secret []byte) *CookieStorage {
	return &CookieStorage{
		w:        w,
		r:        r,
		scope:    scope,
		maxAge:   int(maxAge.Seconds()),
		lifetime: lifetime,
		secret:   secret,
		secure:   IsSecureRequest(r),
		pending:  make(map[string]string),
		removed:  make(map[string]bool),
	}
}

// CookieName is the browser cookie holding key in scope
func CookieName(scope Scope, key string) string {
	return scope.String() + "_" + key
}

func (c *CookieStorage) Get(_ context.Context, key string) (string, error) {
	if value, ok := c.pending[key]; ok {
		return value, nil
	}
	if c.removed[key] {
		return "", nil
	}

	cookie, err := c.r.Cookie(CookieName(c.scope, key))
	if err != nil || cookie.Value == "" {
		return "", nil
	}

	value, err := c.verify(key, cookie.Value)
	if err != nil {
		log.Debug().Err(err).Str("cookie", cookie.Name).Msg("Ignoring session cookie")
		return "", nil
	}
	return value, nil
}

func (c *CookieStorage) Set(_ context.Context, key, value string) error {
	signed, err := c.sign(key, value)
	if err != nil {
		return fmt.Errorf("[CookieStorage Set] sign %s: %w", key, err)
	}

	cookie := c.cookie(key, signed)
	cookie.MaxAge = c.maxAge
	http.SetCookie(c.w, cookie)

	c.pending[key] = value
	delete(c.removed, key)
	return nil
}

func (c *CookieStorage) Remove(_ context.Context, key string) error {
	_, written := c.pending[key]
	_, reqErr := c.r.Cookie(CookieName(c.scope, key))
	if written || reqErr == nil {
		cookie := c.cookie(key, "")
		cookie.MaxAge = -1
		http.SetCookie(c.w, cookie)
	}

	delete(c.pending, key)
	c.removed[key] = true
	return nil
}

func (c *CookieStorage) cookie(key, value string) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName(c.scope, key),
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (c *CookieStorage) sign(key, value string) (string, error) {
	now := time.Now()
	claims := entryClaims{
		Key:   key,
		Value: value,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  c.scope.String(),
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if c.lifetime != 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(c.lifetime))
	}
	if key != KeyToken {
		digest := c.tokenDigest()
		if digest == "" {
			return "", errNoTokenToBind
		}
		claims.TokenDigest = digest
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// tokenDigest identifies the token currently held in this scope, "" when there is none
func (c *CookieStorage) tokenDigest() string {
	token, _ := c.Get(context.Background(), KeyToken)
	if token == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (c *CookieStorage) verify(key, signed string) (string, error) {
	claims := &entryClaims{}
	_, err := jwt.ParseWithClaims(signed, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if claims.Key != key || claims.Subject != c.scope.String() {
		return "", fmt.Errorf("cookie signed for %s/%s", claims.Subject, claims.Key)
	}
	if key != KeyToken && (claims.TokenDigest == "" || claims.TokenDigest != c.tokenDigest()) {
		return "", fmt.Errorf("%s cookie was issued with another token", key)
	}
	return claims.Value, nil
}

// CookieBinder stores sessions entirely in signed browser cookies. Durable values expire
// with their cookie; ephemeral values, whose cookies end with the browser, expire after
// ephemeralTTL.
type CookieBinder struct {
	secret       []byte
	rememberFor  time.Duration
	ephemeralTTL time.Duration
}

var _ Binder = (*CookieBinder)(nil)

func NewCookieBinder(secret string, rememberFor, ephemeralTTL time.Duration) *CookieBinder {
	return &CookieBinder{secret: []byte(secret), rememberFor: rememberFor, ephemeralTTL: ephemeralTTL}
}

func (b *CookieBinder) Bind(w http.ResponseWriter, r *http.Request) *Store {
	return NewStore(
		NewCookieStorage(w, r, ScopeDurable, b.rememberFor, b.rememberFor, b.secret),
		NewCookieStorage(w, r, ScopeEphemeral, 0, b.ephemeralTTL, b.secret),
	)
}

// IsSecureRequest reports whether cookies for r should carry the Secure flag
func IsSecureRequest(r *http.Request) bool {
	return r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https"
}
