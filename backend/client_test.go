package backend_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jrsteele09/atelier-console/backend"
	"github.com/jrsteele09/atelier-console/backend/backendfake"
	"github.com/jrsteele09/atelier-console/session"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	fake   *backendfake.Backend
	server *httptest.Server
	client *backend.Client
}

func setupFixture(t *testing.T, options ...backend.ClientOption) *fixture {
	t.Helper()

	fake := backendfake.New()
	fake.NewToken = func() string { return "t-123" }
	require.NoError(t, fake.AddUser(7, "tech1", "secret1", "technician", ""))
	require.NoError(t, fake.AddUser(1, "boss", "admin123", "admin", "Admin Console"))

	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	return &fixture{
		fake:   fake,
		server: server,
		client: backend.New(server.URL, time.Second, options...),
	}
}

func TestClient_Login(t *testing.T) {
	f := setupFixture(t)

	got, err := f.client.Login(context.Background(), "tech1", "secret1")
	require.NoError(t, err)
	require.Equal(t, session.Session{
		Token:   "t-123",
		Role:    session.RoleTechnician,
		Profile: session.Profile{ID: 7, Username: "tech1"},
	}, got)
}

func TestClient_LoginFailures(t *testing.T) {
	f := setupFixture(t)

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{"wrong password", "tech1", "wrong-password", backend.ErrInvalidCredentials},
		{"unknown user", "nobody", "secret1", backend.ErrInvalidCredentials},
		{"missing username", "", "secret1", backend.ErrMissingCredentials},
		{"missing password", "tech1", "", backend.ErrMissingCredentials},
		{"short password", "tech1", "abc", backend.ErrPasswordTooShort},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.client.Login(context.Background(), tt.username, tt.password)
			require.ErrorIs(t, err, tt.wantErr)
			require.NotErrorIs(t, err, backend.ErrNetwork)
		})
	}
}

func TestClient_LoginNetworkErrors(t *testing.T) {
	t.Run("unreachable", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		_, err := backend.New(url, time.Second).Login(context.Background(), "tech1", "secret1")
		require.ErrorIs(t, err, backend.ErrNetwork)
		require.NotErrorIs(t, err, backend.ErrInvalidCredentials)
	})

	t.Run("server error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer server.Close()

		_, err := backend.New(server.URL, time.Second).Login(context.Background(), "tech1", "secret1")
		require.ErrorIs(t, err, backend.ErrNetwork)
	})

	t.Run("timeout", func(t *testing.T) {
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-release
		}))
		defer server.Close()
		defer close(release)

		_, err := backend.New(server.URL, 50*time.Millisecond).Login(context.Background(), "tech1", "secret1")
		require.ErrorIs(t, err, backend.ErrNetwork)
	})
}

func TestClient_LoginUnexpectedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"role":"admin","user":{"id":1}}`))
	}))
	defer server.Close()

	_, err := backend.New(server.URL, time.Second).Login(context.Background(), "boss", "admin123")
	require.ErrorIs(t, err, backend.ErrUnexpectedResponse)
}

func TestClient_LoginPostsJSONToLoginEndpoint(t *testing.T) {
	var gotPath, gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		_, _ = w.Write([]byte(`{"token":"t-1","role":"technicien","user":{"id":3,"username":"x"}}`))
	}))
	defer server.Close()

	got, err := backend.New(server.URL+"/api/", time.Second).Login(context.Background(), "x", "secret1")
	require.NoError(t, err)
	require.Equal(t, "/api/login/", gotPath)
	require.Equal(t, "application/json", gotContentType)
	require.Equal(t, session.RoleTechnician, got.Role)
}

func TestClient_LoginRejectedRequestIsNotANetworkError(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusUnprocessableEntity, http.StatusTooManyRequests} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"detail":"bad request"}`, status)
			}))
			defer server.Close()

			_, err := backend.New(server.URL, time.Second).Login(context.Background(), "tech1", "secret1")
			require.ErrorIs(t, err, backend.ErrUnexpectedResponse)
			require.NotErrorIs(t, err, backend.ErrNetwork)
			require.NotErrorIs(t, err, backend.ErrInvalidCredentials)
		})
	}
}
