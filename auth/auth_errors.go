package auth

// Fallback messages used when the backend omits one.
const (
	fallbackSignIn = "unable to sign in"
	fallbackSignUp = "unable to sign up"
)

// AuthenticationError is a failed login attempt. Message is suitable for
// inline display.
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string {
	return e.Message
}

// RegistrationError is a failed account creation attempt.
type RegistrationError struct {
	Message string
}

func (e *RegistrationError) Error() string {
	return e.Message
}
