package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	apperrors "github.com/jrsteele09/atelier-console/internal/errors"
	"github.com/rs/zerolog/log"
)

var (
	ErrNoSession    = apperrors.ErrNoSession
	ErrInvalidScope = apperrors.ErrInvalidScope
	ErrEmptyToken   = apperrors.ErrEmptyToken
)

// Provider is what handlers need from a session store
type Provider interface {
	Save(ctx context.Context, s Session, scope Scope) error
	Read(ctx context.Context) (Session, error)
	Clear(ctx context.Context) error
}

// Binder hands out a Store bound to one request/response pair
type Binder interface {
	Bind(w http.ResponseWriter, r *http.Request) *Store
}

// Store keeps at most one Session across a durable and an ephemeral Storage.
type Store struct {
	durable   Storage
	ephemeral Storage
}

var _ Provider = (*Store)(nil)

func NewStore(durable, ephemeral Storage) *Store {
	return &Store{durable: durable, ephemeral: ephemeral}
}

func (st *Store) storage(scope Scope) Storage {
	if scope == ScopeDurable {
		return st.durable
	}
	return st.ephemeral
}

// Save empties the other scope and writes the session into scope.
func (st *Store) Save(ctx context.Context, s Session, scope Scope) error {
	if !scope.Valid() {
		return fmt.Errorf("[Store Save] %w: %d", ErrInvalidScope, scope)
	}
	if s.Token == "" {
		return fmt.Errorf("[Store Save] %w", ErrEmptyToken)
	}

	user, err := json.Marshal(s.Profile)
	if err != nil {
		return fmt.Errorf("[Store Save] marshal profile: %w", err)
	}

	if err := clearStorage(ctx, st.storage(scope.other())); err != nil {
		return fmt.Errorf("[Store Save] clear %s scope: %w", scope.other(), err)
	}

	target := st.storage(scope)
	if rotator, ok := target.(Rotator); ok {
		if err := rotator.Rotate(ctx); err != nil {
			return fmt.Errorf("[Store Save] rotate %s scope: %w", scope, err)
		}
	}
	entries := map[string]string{
		KeyToken: s.Token,
		KeyUser:  string(user),
		KeyRole:  s.Role.String(),
	}
	for _, key := range storageKeys {
		if err := target.Set(ctx, key, entries[key]); err != nil {
			return fmt.Errorf("[Store Save] set %s in %s scope: %w", key, scope, err)
		}
	}
	return nil
}

// Read returns the durable session if there is one, otherwise the ephemeral one.
func (st *Store) Read(ctx context.Context) (Session, error) {
	s, _, err := st.read(ctx)
	return s, err
}

// Scope reports which scope currently holds the session
func (st *Store) Scope(ctx context.Context) (Scope, error) {
	_, scope, err := st.read(ctx)
	return scope, err
}

func (st *Store) read(ctx context.Context) (Session, Scope, error) {
	durable, err := readStorage(ctx, st.durable)
	if err != nil {
		return Session{}, 0, fmt.Errorf("[Store Read] durable scope: %w", err)
	}
	ephemeral, err := readStorage(ctx, st.ephemeral)
	if err != nil {
		return Session{}, 0, fmt.Errorf("[Store Read] ephemeral scope: %w", err)
	}

	switch {
	case durable != nil && ephemeral != nil:
		log.Warn().
			Str("durable_user", durable.Profile.Username).
			Str("ephemeral_user", ephemeral.Profile.Username).
			Msg("Both session scopes are populated, using the durable session")
		return *durable, ScopeDurable, nil
	case durable != nil:
		return *durable, ScopeDurable, nil
	case ephemeral != nil:
		return *ephemeral, ScopeEphemeral, nil
	default:
		return Session{}, 0, ErrNoSession
	}
}

// Clear removes the session from both scopes. Clearing an empty store is not an error. A
// failure in one scope does not stop the other from being cleared.
func (st *Store) Clear(ctx context.Context) error {
	var errs []error
	if err := clearStorage(ctx, st.durable); err != nil {
		errs = append(errs, fmt.Errorf("[Store Clear] durable scope: %w", err))
	}
	if err := clearStorage(ctx, st.ephemeral); err != nil {
		errs = append(errs, fmt.Errorf("[Store Clear] ephemeral scope: %w", err))
	}
	return errors.Join(errs...)
}

// readStorage returns nil when the storage holds no token
func readStorage(ctx context.Context, storage Storage) (*Session, error) {
	token, err := storage.Get(ctx, KeyToken)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, nil
	}

	role, err := storage.Get(ctx, KeyRole)
	if err != nil {
		return nil, err
	}
	user, err := storage.Get(ctx, KeyUser)
	if err != nil {
		return nil, err
	}

	s := &Session{Token: token, Role: ParseRole(role)}
	if user != "" {
		if err := json.Unmarshal([]byte(user), &s.Profile); err != nil {
			log.Warn().Err(err).Msg("Stored profile is unreadable, continuing with an empty profile")
			s.Profile = Profile{}
		}
	}
	return s, nil
}

func clearStorage(ctx context.Context, storage Storage) error {
	var errs []error
	for _, key := range storageKeys {
		if err := storage.Remove(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
