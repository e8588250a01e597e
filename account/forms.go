package account

import (
	"context"
	"sync"

	"github.com/mathcodehq/mathcode-client/auth"
	"github.com/mathcodehq/mathcode-client/users"
)

// form carries the shared busy/error state. The busy flag is the explicit
// re-entrancy guard: submitting while a request is in flight is a no-op.
type form struct {
	mu    sync.Mutex
	busy  bool
	error string
}

// Busy reports whether a submission is in flight.
func (f *form) Busy() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.busy
}

// Error returns the inline error text from the last submission.
func (f *form) Error() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.error
}

// begin claims the busy flag; it reports false when a submission is already
// in flight.
func (f *form) begin() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.busy {
		return false
	}
	f.busy = true
	f.error = ""
	return true
}

func (f *form) finish(errText string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.busy = false
	f.error = errText
}

// LoginForm submits email/password credentials.
type LoginForm struct {
	form
	Email    string
	Password string

	svc *auth.Service
}

// NewLoginForm creates a login form bound to the auth service.
func NewLoginForm(svc *auth.Service) *LoginForm {
	return &LoginForm{svc: svc}
}

// Submit validates and signs in. It returns the signed-in user, or nil with
// the failure recorded as inline error text. Submitting while busy is a
// no-op returning nil.
func (f *LoginForm) Submit(ctx context.Context) *users.User {
	if !f.begin() {
		return nil
	}

	if err := ValidateEmail(f.Email); err != nil {
		f.finish(err.Error())
		return nil
	}
	if err := ValidateRequired("password", f.Password); err != nil {
		f.finish(err.Error())
		return nil
	}

	user, err := f.svc.Login(ctx, f.Email, f.Password)
	if err != nil {
		f.finish(err.Error())
		return nil
	}
	f.finish("")
	return user
}

// RegisterForm submits a new account profile.
type RegisterForm struct {
	form
	FirstName       string
	LastName        string
	Email           string
	Phone           string
	Password        string
	ConfirmPassword string

	svc *auth.Service
}

// NewRegisterForm creates a registration form bound to the auth service.
func NewRegisterForm(svc *auth.Service) *RegisterForm {
	return &RegisterForm{svc: svc}
}

// Submit validates and creates the account.
func (f *RegisterForm) Submit(ctx context.Context) *users.User {
	if !f.begin() {
		return nil
	}

	if err := f.validate(); err != nil {
		f.finish(err.Error())
		return nil
	}

	user, err := f.svc.Register(ctx, auth.Registration{
		FirstName: f.FirstName,
		LastName:  f.LastName,
		Email:     f.Email,
		Phone:     f.Phone,
		Password:  f.Password,
	})
	if err != nil {
		f.finish(err.Error())
		return nil
	}
	f.finish("")
	return user
}

func (f *RegisterForm) validate() error {
	if err := ValidateRequired("first name", f.FirstName); err != nil {
		return err
	}
	if err := ValidateRequired("last name", f.LastName); err != nil {
		return err
	}
	if err := ValidateEmail(f.Email); err != nil {
		return err
	}
	if err := ValidatePassword(f.Password); err != nil {
		return err
	}
	return ValidateConfirmation(f.Password, f.ConfirmPassword)
}

// CompleteSignupForm finishes a new Google account with a password.
type CompleteSignupForm struct {
	form
	Token           string
	Password        string
	ConfirmPassword string
	Phone           string

	svc *auth.Service
}

// NewCompleteSignupForm creates the finish-registration form bound to the
// auth service.
func NewCompleteSignupForm(svc *auth.Service) *CompleteSignupForm {
	return &CompleteSignupForm{svc: svc}
}

// Submit validates and finalizes the OAuth registration.
func (f *CompleteSignupForm) Submit(ctx context.Context) *users.User {
	if !f.begin() {
		return nil
	}

	if f.Token == "" {
		f.finish("missing authentication token")
		return nil
	}
	if err := ValidatePassword(f.Password); err != nil {
		f.finish(err.Error())
		return nil
	}
	if err := ValidateConfirmation(f.Password, f.ConfirmPassword); err != nil {
		f.finish(err.Error())
		return nil
	}

	user, err := f.svc.CompleteGoogleSignup(ctx, f.Token, f.Password, f.Phone)
	if err != nil {
		f.finish(err.Error())
		return nil
	}
	f.finish("")
	return user
}

// ForgotPasswordForm requests a reset code.
type ForgotPasswordForm struct {
	form
	Email string

	svc *auth.Service
}

// NewForgotPasswordForm creates the form bound to the auth service.
func NewForgotPasswordForm(svc *auth.Service) *ForgotPasswordForm {
	return &ForgotPasswordForm{svc: svc}
}

// Submit validates and requests the reset code. Reports success.
func (f *ForgotPasswordForm) Submit(ctx context.Context) bool {
	if !f.begin() {
		return false
	}
	if err := ValidateEmail(f.Email); err != nil {
		f.finish(err.Error())
		return false
	}
	if err := f.svc.ForgotPassword(ctx, f.Email); err != nil {
		f.finish(err.Error())
		return false
	}
	f.finish("")
	return true
}

// ResetPasswordForm exchanges an emailed one-time code for a new password.
type ResetPasswordForm struct {
	form
	Email           string
	OTP             string
	Password        string
	ConfirmPassword string

	svc *auth.Service
}

// NewResetPasswordForm creates the form bound to the auth service.
func NewResetPasswordForm(svc *auth.Service) *ResetPasswordForm {
	return &ResetPasswordForm{svc: svc}
}

// Submit validates and resets the password. Reports success.
func (f *ResetPasswordForm) Submit(ctx context.Context) bool {
	if !f.begin() {
		return false
	}

	if err := ValidateEmail(f.Email); err != nil {
		f.finish(err.Error())
		return false
	}
	if err := ValidateRequired("reset code", f.OTP); err != nil {
		f.finish(err.Error())
		return false
	}
	if err := ValidatePassword(f.Password); err != nil {
		f.finish(err.Error())
		return false
	}
	if err := ValidateConfirmation(f.Password, f.ConfirmPassword); err != nil {
		f.finish(err.Error())
		return false
	}

	if err := f.svc.ResetPassword(ctx, f.Email, f.OTP, f.Password); err != nil {
		f.finish(err.Error())
		return false
	}
	f.finish("")
	return true
}
