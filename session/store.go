// Package session owns the "who is logged in" state: the current user
// profile and bearer token, persisted through a kv.Repo and hydrated at
// startup.
package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/mathcodehq/mathcode-client/kv"
	"github.com/mathcodehq/mathcode-client/users"
)

// Persisted keys. The token is stored double-encoded (a JSON string
// literal), matching what every other reader of the store expects.
const (
	KeyAuth  = "auth"
	KeyToken = "token"
)

// ProfileFetcher retrieves the canonical profile for a bearer token. Used
// during hydration when only a token survived in storage.
type ProfileFetcher func(ctx context.Context, token string) (*users.User, error)

// Store is the single source of truth for the current session. The invariant
// "token present iff user present" holds for every snapshot it hands out.
type Store struct {
	mu    sync.RWMutex
	user  *users.User
	token string

	repo  kv.Repo
	fetch ProfileFetcher
	now   func() time.Time
	log   zerolog.Logger
}

// StoreOption defines a function type to modify the Store instance.
type StoreOption func(*Store)

// WithProfileFetcher sets the hook used to resolve a token-only hydration.
func WithProfileFetcher(f ProfileFetcher) StoreOption {
	return func(s *Store) {
		s.fetch = f
	}
}

// WithNowTime sets the now time function (primarily for testing).
func WithNowTime(nowFunc func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = nowFunc
	}
}

// WithLogger sets the logger used for hydration warnings.
func WithLogger(log zerolog.Logger) StoreOption {
	return func(s *Store) {
		s.log = log
	}
}

// NewStore initializes a Store backed by the given repo.
func NewStore(repo kv.Repo, options ...StoreOption) (*Store, error) {
	if repo == nil {
		return nil, errors.New("[NewStore] repo is required")
	}
	s := &Store{
		repo: repo,
		now:  time.Now,
		log:  zerolog.Nop(),
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Current returns a snapshot of the session. The user is a copy; mutating it
// does not affect the store. A session with no token reads as logged out
// regardless of any stale user value.
func (s *Store) Current() (*users.User, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.token == "" || s.user == nil {
		return nil, ""
	}
	u := *s.user
	return &u, s.token
}

// Token returns the bearer token of the current session, or "" when logged
// out.
func (s *Store) Token() string {
	_, token := s.Current()
	return token
}

// SetUser replaces the in-memory user without touching persistence.
// Persistence is the responsibility of the flow that produced the value, so
// a failed flow never leaves a partial write behind.
func (s *Store) SetUser(u *users.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = u
}

// Set persists user and token together and then installs them in memory.
// Both keys are written or, on failure, both are absent: if the token write
// fails the already written auth key is rolled back.
func (s *Store) Set(user *users.User, token string) error {
	if user == nil {
		return errors.New("[Store.Set] user is required")
	}
	if token == "" {
		return errors.New("[Store.Set] token is required")
	}

	authJSON, err := json.Marshal(user)
	if err != nil {
		return errors.Wrap(err, "[Store.Set] marshal user")
	}
	tokenJSON, err := json.Marshal(token)
	if err != nil {
		return errors.Wrap(err, "[Store.Set] marshal token")
	}

	if err := s.repo.Set(KeyAuth, string(authJSON)); err != nil {
		return errors.Wrap(err, "[Store.Set] persist auth")
	}
	if err := s.repo.Set(KeyToken, string(tokenJSON)); err != nil {
		if delErr := s.repo.Delete(KeyAuth); delErr != nil {
			s.log.Warn().Err(delErr).Msg("failed to roll back auth key")
		}
		return errors.Wrap(err, "[Store.Set] persist token")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u := *user
	s.user = &u
	s.token = token
	return nil
}

// Logout clears the in-memory session and both persisted keys. It reports
// false when storage could not be cleared but never fails: the in-memory
// session is gone either way. Safe to call repeatedly.
func (s *Store) Logout() bool {
	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.mu.Unlock()

	ok := true
	if err := s.repo.Delete(KeyAuth); err != nil {
		s.log.Warn().Err(err).Msg("failed to clear persisted auth")
		ok = false
	}
	if err := s.repo.Delete(KeyToken); err != nil {
		s.log.Warn().Err(err).Msg("failed to clear persisted token")
		ok = false
	}
	return ok
}

// Hydrate populates the in-memory session from storage at startup and
// returns the resulting user, or nil when logged out. A persisted user is
// surfaced immediately without a network round-trip; a token with no user
// triggers a profile fetch. Every failure path resolves to logged out with a
// warning, never an error.
func (s *Store) Hydrate(ctx context.Context) *users.User {
	token := s.persistedToken()
	if token == "" {
		return nil
	}
	if s.tokenExpired(token) {
		s.log.Warn().Msg("persisted token is expired, treating as logged out")
		return nil
	}

	user := s.persistedUser()
	if user == nil {
		if s.fetch == nil {
			return nil
		}
		fetched, err := s.fetch(ctx, token)
		if err != nil || fetched == nil {
			s.log.Warn().Err(err).Msg("profile fetch during hydration failed")
			return nil
		}
		user = fetched
	}

	s.mu.Lock()
	s.user = user
	s.token = token
	s.mu.Unlock()

	u := *user
	return &u
}

func (s *Store) persistedToken() string {
	raw, err := s.repo.Get(KeyToken)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			s.log.Warn().Err(err).Msg("failed to read persisted token")
		}
		return ""
	}
	var token string
	if err := json.Unmarshal([]byte(raw), &token); err != nil {
		s.log.Warn().Err(err).Msg("persisted token is not a JSON string")
		return ""
	}
	return token
}

func (s *Store) persistedUser() *users.User {
	raw, err := s.repo.Get(KeyAuth)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			s.log.Warn().Err(err).Msg("failed to read persisted user")
		}
		return nil
	}
	var user users.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		s.log.Warn().Err(err).Msg("persisted user is unparsable")
		return nil
	}
	if user.ID == "" && user.Email == "" {
		return nil
	}
	return &user
}

// tokenExpired reports whether token is a JWT with an expiry in the past.
// Opaque tokens parse as not-a-JWT and are never considered expired locally.
func (s *Store) tokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(s.now())
}
