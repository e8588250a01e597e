// Package handshake runs the provider-hosted Google login without leaving
// the app: it opens the backend-issued authorization URL in a window,
// listens for the completion message relayed to the local callback
// endpoint, and reports exactly one terminal outcome per attempt.
package handshake

import "github.com/mathcodehq/mathcode-client/users"

// MessageType identifies a cross-context completion message.
type MessageType string

const (
	MessageAuthSuccess MessageType = "GOOGLE_AUTH_SUCCESS"
	MessageAuthError   MessageType = "GOOGLE_AUTH_ERROR"
)

// Message is a completion event delivered by a Messenger. Origin is the
// delivering context's origin and must match the messenger's own origin
// before the message is trusted.
type Message struct {
	Type      MessageType
	Origin    string
	State     string
	Token     string
	User      *users.User
	IsNewUser bool
	Error     string
}

// Messenger is the cross-context message channel: it knows its own origin
// and delivers completion messages to subscribers. The returned cancel
// function detaches the subscription and is safe to call more than once.
type Messenger interface {
	Origin() string
	Subscribe(fn func(Message)) (cancel func())
}

// Window is an opened authentication window.
type Window interface {
	Closed() bool
	Close()
}

// Opener opens the provider's authorization URL in a window.
type Opener interface {
	Open(url string) (Window, error)
}
