package redisstore_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jrsteele09/atelier-console/session"
	"github.com/jrsteele09/atelier-console/session/redisstore"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*miniredis.Miniredis, *redisstore.Binder) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, redisstore.NewBinder(client, 30*24*time.Hour, 12*time.Hour)
}

func requestWithCookies(cookies []*http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	for _, c := range cookies {
		if c.MaxAge >= 0 {
			req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
		}
	}
	return req
}

var admin = session.Session{
	Token:   "t-42",
	Role:    session.RoleAdmin,
	Profile: session.Profile{ID: 1, Username: "boss"},
}

func TestBinder_RoundTrip(t *testing.T) {
	ctx := context.Background()
	mr, binder := setup(t)

	rec := httptest.NewRecorder()
	require.NoError(t, binder.Bind(rec, httptest.NewRequest(http.MethodPost, "/auth/login", nil)).Save(ctx, admin, session.ScopeDurable))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, redisstore.CookieName(session.ScopeDurable), cookies[0].Name)
	require.Equal(t, int((30 * 24 * time.Hour).Seconds()), cookies[0].MaxAge)

	key := redisstore.Key(session.ScopeDurable, cookies[0].Value)
	require.Equal(t, "t-42", mr.HGet(key, session.KeyToken))
	require.Equal(t, 30*24*time.Hour, mr.TTL(key))

	got, err := binder.Bind(httptest.NewRecorder(), requestWithCookies(cookies)).Read(ctx)
	require.NoError(t, err)
	require.Equal(t, admin, got)
}

func TestBinder_EphemeralUsesSessionCookie(t *testing.T) {
	ctx := context.Background()
	mr, binder := setup(t)

	rec := httptest.NewRecorder()
	require.NoError(t, binder.Bind(rec, httptest.NewRequest(http.MethodPost, "/auth/login", nil)).Save(ctx, admin, session.ScopeEphemeral))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, redisstore.CookieName(session.ScopeEphemeral), cookies[0].Name)
	require.Equal(t, 0, cookies[0].MaxAge)
	require.Equal(t, 12*time.Hour, mr.TTL(redisstore.Key(session.ScopeEphemeral, cookies[0].Value)))
}

func TestBinder_ClearRemovesServerSideState(t *testing.T) {
	ctx := context.Background()
	mr, binder := setup(t)

	rec := httptest.NewRecorder()
	require.NoError(t, binder.Bind(rec, httptest.NewRequest(http.MethodPost, "/auth/login", nil)).Save(ctx, admin, session.ScopeDurable))
	loggedIn := requestWithCookies(rec.Result().Cookies())

	logoutRec := httptest.NewRecorder()
	store := binder.Bind(logoutRec, loggedIn)
	require.NoError(t, store.Clear(ctx))
	require.NoError(t, store.Clear(ctx))

	require.Empty(t, mr.Keys())
	cookies := logoutRec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Less(t, cookies[0].MaxAge, 0)

	_, err := binder.Bind(httptest.NewRecorder(), loggedIn).Read(ctx)
	require.ErrorIs(t, err, session.ErrNoSession)
}

func TestBinder_IgnoresMalformedSessionID(t *testing.T) {
	ctx := context.Background()
	_, binder := setup(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: redisstore.CookieName(session.ScopeDurable), Value: "*"})

	_, err := binder.Bind(httptest.NewRecorder(), req).Read(ctx)
	require.ErrorIs(t, err, session.ErrNoSession)
}

func TestBinder_SaveDoesNotAdoptPresentedSessionID(t *testing.T) {
	ctx := context.Background()
	mr, binder := setup(t)

	planted := "11111111-2222-3333-4444-555555555555"
	plantedCookie := &http.Cookie{Name: redisstore.CookieName(session.ScopeDurable), Value: planted}
	mr.HSet(redisstore.Key(session.ScopeDurable, planted), session.KeyToken, "stale")

	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.AddCookie(plantedCookie)
	rec := httptest.NewRecorder()
	require.NoError(t, binder.Bind(rec, req).Save(ctx, admin, session.ScopeDurable))

	// A fresh id is issued, with the remember-me lifetime
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.NotEqual(t, planted, cookies[0].Value)
	require.Equal(t, int((30 * 24 * time.Hour).Seconds()), cookies[0].MaxAge)
	require.False(t, mr.Exists(redisstore.Key(session.ScopeDurable, planted)))

	// Whoever still holds the planted id has no session
	_, err := binder.Bind(httptest.NewRecorder(), requestWithCookies([]*http.Cookie{plantedCookie})).Read(ctx)
	require.ErrorIs(t, err, session.ErrNoSession)

	got, err := binder.Bind(httptest.NewRecorder(), requestWithCookies(cookies)).Read(ctx)
	require.NoError(t, err)
	require.Equal(t, admin, got)
}
