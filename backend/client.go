package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/jrsteele09/atelier-console/internal/errors"
	"github.com/jrsteele09/atelier-console/session"
)

// MinPasswordLength mirrors the login form's feedback rule
const MinPasswordLength = 6

const maxErrorBody = 4 << 10

// Client talks to the maintenance REST backend
type Client struct {
	baseURL string
	http    *http.Client
	scheme  Scheme
}

// ClientOption modifies a Client
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.http = c
	}
}

// WithScheme sets the Authorization scheme used for resource calls
func WithScheme(scheme Scheme) ClientOption {
	return func(client *Client) {
		client.scheme = scheme
	}
}

// New creates a client for the API rooted at baseURL (e.g. "http://localhost:8000/api")
func New(baseURL string, timeout time.Duration, options ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		scheme:  SchemeToken,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string          `json:"token"`
	Role  string          `json:"role"`
	User  session.Profile `json:"user"`
}

// ValidateCredentials applies the login form rules before anything is sent
func ValidateCredentials(username, password string) error {
	if strings.TrimSpace(username) == "" || password == "" {
		return ErrMissingCredentials
	}
	if len([]rune(password)) < MinPasswordLength {
		return fmt.Errorf("%w: minimum %d characters", ErrPasswordTooShort, MinPasswordLength)
	}
	return nil
}

// Login exchanges a username and password for a Session. It has no side effects: persisting
// the Session is up to the caller.
func (c *Client) Login(ctx context.Context, username, password string) (session.Session, error) {
	if err := ValidateCredentials(username, password); err != nil {
		return session.Session{}, err
	}

	body, err := json.Marshal(loginRequest{Username: strings.TrimSpace(username), Password: password})
	if err != nil {
		return session.Session{}, apperrors.Wrapf(err, "[Client Login] marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("login"), bytes.NewReader(body))
	if err != nil {
		return session.Session{}, apperrors.Wrapf(err, "[Client Login] build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return session.Session{}, fmt.Errorf("[Client Login] %w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		drain(resp.Body)
		return session.Session{}, ErrInvalidCredentials
	case resp.StatusCode >= 500:
		return session.Session{}, fmt.Errorf("[Client Login] %w: %s", ErrNetwork, statusError(resp))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return session.Session{}, fmt.Errorf("[Client Login] %w: %s", ErrUnexpectedResponse, statusError(resp))
	}

	var lr loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return session.Session{}, fmt.Errorf("[Client Login] %w: %w", ErrUnexpectedResponse, err)
	}
	if lr.Token == "" {
		return session.Session{}, fmt.Errorf("[Client Login] %w: missing token", ErrUnexpectedResponse)
	}

	return session.Session{
		Token:   lr.Token,
		Role:    session.ParseRole(lr.Role),
		Profile: lr.User,
	}, nil
}

func (c *Client) url(parts ...string) string {
	return c.baseURL + "/" + strings.Join(parts, "/") + "/"
}

func statusError(resp *http.Response) string {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if msg := strings.TrimSpace(string(b)); msg != "" {
		return fmt.Sprintf("status %d: %s", resp.StatusCode, msg)
	}
	return fmt.Sprintf("status %d", resp.StatusCode)
}

func drain(body io.Reader) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, maxErrorBody))
}
