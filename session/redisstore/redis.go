package redisstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/atelier-console/session"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix    = "console:session:"
	cookiePrefix = "console_sid_"
	opTimeout    = 5 * time.Second
)

// OpenPool connects to Redis and checks the connection
func OpenPool(ctx context.Context, dsn string) (*redis.Client, error) {
	opt, err := redis.ParseURL(dsn)
	if err != nil {
		return nil, fmt.Errorf("[redisstore OpenPool] parse dsn: %w", err)
	}

	opt.PoolSize = 100
	opt.MinIdleConns = 2
	opt.DialTimeout = 5 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("[redisstore OpenPool] ping: %w", err)
	}
	return client, nil
}

// Storage keeps one scope's entries in a Redis hash. The browser only holds an opaque id
// cookie; a durable scope gets a persistent cookie, an ephemeral one a browser-session cookie.
type Storage struct {
	client       *redis.Client
	w            http.ResponseWriter
	r            *http.Request
	scope        session.Scope
	ttl          time.Duration
	cookieMaxAge int

	sid           string
	cookieCleared bool
}

var (
	_ session.Storage = (*Storage)(nil)
	_ session.Rotator = (*Storage)(nil)
)

func NewStorage(client *redis.Client, w http.ResponseWriter, r *http.Request, scope session.Scope, ttl time.Duration, persistentCookie bool) *Storage {
	s := &Storage{
		client: client,
		w:      w,
		r:      r,
		scope:  scope,
		ttl:    ttl,
	}
	if persistentCookie {
		s.cookieMaxAge = int(ttl.Seconds())
	}
	if cookie, err := r.Cookie(CookieName(scope)); err == nil {
		if _, err := uuid.Parse(cookie.Value); err == nil {
			s.sid = cookie.Value
		}
	}
	return s
}

// CookieName is the cookie holding the session id for scope
func CookieName(scope session.Scope) string {
	return cookiePrefix + scope.String()
}

// Key is the Redis hash holding the entries for sid in scope
func Key(scope session.Scope, sid string) string {
	return keyPrefix + scope.String() + ":" + sid
}

func (s *Storage) Get(ctx context.Context, key string) (string, error) {
	if s.sid == "" {
		return "", nil
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	value, err := s.client.HGet(ctx, Key(s.scope, s.sid), key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("[redisstore Get] %s: %w", key, err)
	}
	return value, nil
}

func (s *Storage) Set(ctx context.Context, key, value string) error {
	if s.sid == "" {
		s.sid = uuid.NewString()
		s.setCookie(s.sid, s.cookieMaxAge)
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	hashKey := Key(s.scope, s.sid)
	if err := s.client.HSet(ctx, hashKey, key, value).Err(); err != nil {
		return fmt.Errorf("[redisstore Set] %s: %w", key, err)
	}
	if err := s.client.Expire(ctx, hashKey, s.ttl).Err(); err != nil {
		return fmt.Errorf("[redisstore Set] expire: %w", err)
	}
	return nil
}

// Rotate drops the entries held under the id the request arrived with and forgets that id.
// The next Set mints a fresh id and issues its cookie.
func (s *Storage) Rotate(ctx context.Context) error {
	if s.sid == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := s.client.Del(ctx, Key(s.scope, s.sid)).Err(); err != nil {
		return fmt.Errorf("[redisstore Rotate] %w", err)
	}
	s.sid = ""
	s.cookieCleared = false
	return nil
}

// Remove deletes key. When the hash is left empty the id cookie is expired as well.
func (s *Storage) Remove(ctx context.Context, key string) error {
	if s.sid == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	hashKey := Key(s.scope, s.sid)
	if err := s.client.HDel(ctx, hashKey, key).Err(); err != nil {
		return fmt.Errorf("[redisstore Remove] %s: %w", key, err)
	}

	remaining, err := s.client.HLen(ctx, hashKey).Result()
	if err != nil {
		return fmt.Errorf("[redisstore Remove] hlen: %w", err)
	}
	if remaining == 0 && !s.cookieCleared {
		s.setCookie("", -1)
		s.cookieCleared = true
	}
	return nil
}

func (s *Storage) setCookie(value string, maxAge int) {
	http.SetCookie(s.w, &http.Cookie{
		Name:     CookieName(s.scope),
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   session.IsSecureRequest(s.r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

// Binder keeps sessions server side in Redis
type Binder struct {
	client       *redis.Client
	rememberFor  time.Duration
	ephemeralTTL time.Duration
}

var _ session.Binder = (*Binder)(nil)

func NewBinder(client *redis.Client, rememberFor, ephemeralTTL time.Duration) *Binder {
	return &Binder{client: client, rememberFor: rememberFor, ephemeralTTL: ephemeralTTL}
}

func (b *Binder) Bind(w http.ResponseWriter, r *http.Request) *session.Store {
	return session.NewStore(
		NewStorage(b.client, w, r, session.ScopeDurable, b.rememberFor, true),
		NewStorage(b.client, w, r, session.ScopeEphemeral, b.ephemeralTTL, false),
	)
}
