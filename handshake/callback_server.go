package handshake

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net"
	"net/http"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/mathcodehq/mathcode-client/users"
)

// CallbackPath is where the backend redirects the provider flow to.
const CallbackPath = "/auth/callback"

const callbackPage = `<!doctype html>
<html><body>
<p>Authentication complete. You can close this window and return to MathCode.</p>
<script>window.close()</script>
</body></html>`

// CallbackServer is the loopback Messenger: a localhost HTTP server whose
// callback endpoint translates the backend's redirect into completion
// messages for subscribers.
type CallbackServer struct {
	addr string
	srv  *http.Server
	ln   net.Listener
	log  zerolog.Logger

	mu   sync.Mutex
	subs map[int]func(Message)
	next int
}

// CallbackServerOption defines a function type to modify the CallbackServer
// instance.
type CallbackServerOption func(*CallbackServer)

// WithCallbackLogger sets the server logger.
func WithCallbackLogger(log zerolog.Logger) CallbackServerOption {
	return func(s *CallbackServer) {
		s.log = log
	}
}

// NewCallbackServer creates a server that will listen on addr
// (host:port, port 0 picks a free one).
func NewCallbackServer(addr string, options ...CallbackServerOption) *CallbackServer {
	s := &CallbackServer{
		addr: addr,
		subs: map[int]func(Message){},
		log:  zerolog.Nop(),
	}
	for _, opt := range options {
		opt(s)
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+CallbackPath, s.handleCallback)
	s.srv = &http.Server{Handler: mux}
	return s
}

// Start binds the listener and serves in the background.
func (s *CallbackServer) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return errors.Wrap(err, "[CallbackServer.Start] listen")
	}
	s.ln = ln
	go func() {
		if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.log.Err(err).Msg("callback server stopped")
		}
	}()
	return nil
}

// Shutdown stops the server.
func (s *CallbackServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Origin returns the server's own origin, e.g. "http://127.0.0.1:53682".
func (s *CallbackServer) Origin() string {
	if s.ln != nil {
		return "http://" + s.ln.Addr().String()
	}
	return "http://" + s.addr
}

// Subscribe registers fn for completion messages. The returned cancel
// function is idempotent.
func (s *CallbackServer) Subscribe(fn func(Message)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.next
	s.next++
	s.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
		})
	}
}

// Handler exposes the callback endpoint for tests.
func (s *CallbackServer) Handler() http.Handler {
	return http.HandlerFunc(s.handleCallback)
}

func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	msg := Message{Origin: s.Origin(), State: q.Get("state")}
	if errText := q.Get("error"); errText != "" {
		msg.Type = MessageAuthError
		msg.Error = errText
	} else {
		msg.Type = MessageAuthSuccess
		msg.Token = q.Get("token")
		msg.IsNewUser = q.Get("isNewUser") == "true"
		msg.User = decodeUserParam(q.Get("user"))
	}

	s.publish(msg)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(callbackPage))
}

func (s *CallbackServer) publish(m Message) {
	s.mu.Lock()
	subs := make([]func(Message), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(m)
	}
}

// decodeUserParam parses the user payload, which arrives either as plain
// JSON or base64url-encoded JSON. A malformed payload yields nil rather
// than an error; the token alone is enough to resolve the profile.
func decodeUserParam(raw string) *users.User {
	if raw == "" {
		return nil
	}
	var u users.User
	if err := json.Unmarshal([]byte(raw), &u); err == nil {
		return &u
	}
	decoded, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		if decoded, err = base64.StdEncoding.DecodeString(raw); err != nil {
			return nil
		}
	}
	if err := json.Unmarshal(decoded, &u); err != nil {
		return nil
	}
	return &u
}
