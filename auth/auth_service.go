// Package auth issues login, registration, and account recovery requests
// against the backend and keeps the session store in sync with the results.
package auth

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/mathcodehq/mathcode-client/backend"
	"github.com/mathcodehq/mathcode-client/session"
	"github.com/mathcodehq/mathcode-client/users"
)

// Registration is the profile submitted when creating an account.
type Registration struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Password  string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User  users.User `json:"user"`
	Token string     `json:"token"`
}

type registerResponse struct {
	User  *users.User `json:"user"`
	Token string      `json:"token"`
}

type completeSignupRequest struct {
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
}

// Service talks to the backend's user endpoints and writes the session
// store on success.
type Service struct {
	backend *backend.Client
	store   *session.Store
	log     zerolog.Logger
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithLogger sets the service logger.
func WithLogger(log zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.log = log
	}
}

// NewService initializes a Service with required dependencies.
func NewService(client *backend.Client, store *session.Store, options ...ServiceOption) (*Service, error) {
	if client == nil {
		return nil, errors.New("[NewService] backend client is required")
	}
	if store == nil {
		return nil, errors.New("[NewService] session store is required")
	}
	s := &Service{
		backend: client,
		store:   store,
		log:     zerolog.Nop(),
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Login authenticates with email and password. On success the session store
// holds the canonical profile: the login response's embedded user is
// provisional and a follow-up /me fetch wins whenever it succeeds. Failures
// return an *AuthenticationError carrying the backend's message.
func (s *Service) Login(ctx context.Context, email, password string) (*users.User, error) {
	var resp loginResponse
	if err := s.backend.Post(ctx, backend.RouteLogin, loginRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, &AuthenticationError{Message: backend.MessageOf(err, fallbackSignIn)}
	}
	if resp.Token == "" {
		return nil, &AuthenticationError{Message: fallbackSignIn}
	}
	return s.completeSession(ctx, &resp.User, resp.Token)
}

// Register creates an account, persists the session, and fetches the
// canonical profile. Failures return a *RegistrationError.
func (s *Service) Register(ctx context.Context, reg Registration) (*users.User, error) {
	var resp registerResponse
	if err := s.backend.Post(ctx, backend.RouteRegister, reg, &resp); err != nil {
		return nil, &RegistrationError{Message: backend.MessageOf(err, fallbackSignUp)}
	}
	if resp.Token == "" {
		return nil, &RegistrationError{Message: fallbackSignUp}
	}
	provisional := resp.User
	if provisional == nil {
		provisional = &users.User{
			Email:     reg.Email,
			FirstName: reg.FirstName,
			LastName:  reg.LastName,
			Phone:     reg.Phone,
		}
	}
	return s.completeSession(ctx, provisional, resp.Token)
}

// completeSession persists the provisional user and token, then replaces the
// user with the /me result. The second round-trip is deliberate: fields
// computed server-side after creation only appear on /me. A failed /me fetch
// leaves the provisional user in place.
func (s *Service) completeSession(ctx context.Context, provisional *users.User, token string) (*users.User, error) {
	if err := s.store.Set(provisional, token); err != nil {
		return nil, errors.Wrap(err, "[Service.completeSession] store.Set")
	}

	canonical, err := s.fetchMe(ctx, token)
	if err != nil {
		s.log.Warn().Err(err).Msg("canonical profile fetch failed, keeping provisional user")
		user, _ := s.store.Current()
		return user, nil
	}
	if err := s.store.Set(canonical, token); err != nil {
		return nil, errors.Wrap(err, "[Service.completeSession] store.Set canonical")
	}
	user, _ := s.store.Current()
	return user, nil
}

// FetchMe retrieves the canonical profile for a token. Exposed in the
// ProfileFetcher shape so the session store can use it during hydration.
func (s *Service) FetchMe(ctx context.Context, token string) (*users.User, error) {
	return s.fetchMe(ctx, token)
}

func (s *Service) fetchMe(ctx context.Context, token string) (*users.User, error) {
	var user users.User
	if err := s.backend.GetWithToken(ctx, backend.RouteMe, token, &user); err != nil {
		return nil, errors.Wrap(err, "[Service.fetchMe] GetWithToken")
	}
	return &user, nil
}

// GetCurrentUser returns the cached user without a network call when one is
// present, otherwise resolves a bare token through /me. It never fails: any
// problem resolves to nil, since callers use it opportunistically.
func (s *Service) GetCurrentUser(ctx context.Context) *users.User {
	if user, _ := s.store.Current(); user != nil {
		return user
	}
	return s.store.Hydrate(ctx)
}

// Logout clears the local session and best-effort notifies the backend. A
// failed server call degrades to a local-only logout. Reports false only
// when local storage could not be cleared.
func (s *Service) Logout(ctx context.Context) bool {
	token := s.store.Token()
	if token != "" {
		if err := s.backend.Post(ctx, backend.RouteLogout, nil, nil); err != nil {
			s.log.Warn().Err(err).Msg("server-side logout failed, clearing local session only")
		}
	}
	return s.store.Logout()
}

// CompleteGoogleSignup finalizes a new OAuth account with a password (and
// optional phone), authorized by the token carried in the handshake payload.
// On success it behaves exactly like a login completion.
func (s *Service) CompleteGoogleSignup(ctx context.Context, token, password, phone string) (*users.User, error) {
	var resp loginResponse
	req := completeSignupRequest{Password: password, Phone: phone}
	if err := s.backend.PostWithToken(ctx, backend.RouteGoogleComplete, token, req, &resp); err != nil {
		return nil, &RegistrationError{Message: backend.MessageOf(err, fallbackSignUp)}
	}
	finalToken := resp.Token
	if finalToken == "" {
		finalToken = token
	}
	return s.completeSession(ctx, &resp.User, finalToken)
}

// ForgotPassword requests a one-time reset code for the given email.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	if err := s.backend.Post(ctx, backend.RouteForgotPassword, body, nil); err != nil {
		return &AuthenticationError{Message: backend.MessageOf(err, "unable to send reset code")}
	}
	return nil
}

// ResetPassword exchanges a one-time code for a new password.
func (s *Service) ResetPassword(ctx context.Context, email, otp, newPassword string) error {
	body := map[string]string{"email": email, "otp": otp, "password": newPassword}
	if err := s.backend.Post(ctx, backend.RouteResetPassword, body, nil); err != nil {
		return &AuthenticationError{Message: backend.MessageOf(err, "unable to reset password")}
	}
	return nil
}
