package handshake

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/mathcodehq/mathcode-client/backend"
	"github.com/mathcodehq/mathcode-client/users"
)

// Mode selects whether the flow signs an existing user in or signs a new
// one up.
type Mode string

const (
	ModeLogin  Mode = "login"
	ModeSignup Mode = "signup"
)

// Action is the terminal outcome category of an attempt.
type Action string

const (
	// ActionCompleted means an existing account finished authenticating;
	// the caller persists User and Token as the new session.
	ActionCompleted Action = "completed"
	// ActionNewUser means the provider account is new; the caller must
	// collect a password and finish registration with Token.
	ActionNewUser Action = "new-user"
	// ActionError covers backend errors and user abandonment. Reason holds
	// the display text.
	ActionError Action = "error"
)

// ReasonWindowClosed is reported when the user closes the authentication
// window before any completion message arrives.
const ReasonWindowClosed = "Authentication window closed"

// Result is the single terminal outcome of an attempt.
type Result struct {
	Action Action
	Token  string
	User   *users.User
	Reason string
}

const defaultPollInterval = 500 * time.Millisecond

type initRequest struct {
	RedirectURI string `json:"redirectUri"`
	Mode        Mode   `json:"mode"`
}

type initResponse struct {
	AuthURL string `json:"authUrl"`
	State   string `json:"state"`
}

// Controller coordinates OAuth attempts. It performs no storage writes
// itself: persisting a completed session is the caller's job, after the
// attempt's listener and window have already been torn down.
type Controller struct {
	backend      *backend.Client
	messenger    Messenger
	opener       Opener
	pollInterval time.Duration
	log          zerolog.Logger
}

// ControllerOption defines a function type to modify the Controller
// instance.
type ControllerOption func(*Controller)

// WithPollInterval sets how often the window is checked for closure
// (primarily for testing).
func WithPollInterval(d time.Duration) ControllerOption {
	return func(c *Controller) {
		c.pollInterval = d
	}
}

// WithLogger sets the controller logger.
func WithLogger(log zerolog.Logger) ControllerOption {
	return func(c *Controller) {
		c.log = log
	}
}

// NewController initializes a Controller with required dependencies.
func NewController(client *backend.Client, messenger Messenger, opener Opener, options ...ControllerOption) (*Controller, error) {
	if client == nil {
		return nil, errors.New("[NewController] backend client is required")
	}
	if messenger == nil {
		return nil, errors.New("[NewController] messenger is required")
	}
	if opener == nil {
		return nil, errors.New("[NewController] opener is required")
	}
	c := &Controller{
		backend:      client,
		messenger:    messenger,
		opener:       opener,
		pollInterval: defaultPollInterval,
		log:          zerolog.Nop(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// Attempt is one in-flight flow. At most one listener/poller pair exists
// per attempt and both are torn down exactly once.
type Attempt struct {
	mu          sync.Mutex
	done        bool
	state       string
	unsubscribe func()
	window      Window
	stop        chan struct{}
	onDone      func(Result)
}

// Start initializes a flow: it requests an authorization URL and
// correlation state from the backend, opens the window, and attaches the
// completion listener and the window-close poller. onDone is invoked
// exactly once with the terminal result. Start itself fails only when
// initialization or window opening fails, in which case no attempt exists.
func (c *Controller) Start(ctx context.Context, mode Mode, onDone func(Result)) (*Attempt, error) {
	if onDone == nil {
		return nil, errors.New("[Controller.Start] onDone is required")
	}

	var init initResponse
	req := initRequest{RedirectURI: c.messenger.Origin() + "/auth/callback", Mode: mode}
	if err := c.backend.Post(ctx, backend.RouteGoogleInit, req, &init); err != nil {
		return nil, errors.Wrap(err, "[Controller.Start] google init")
	}
	if init.AuthURL == "" || init.State == "" {
		return nil, errors.New("[Controller.Start] backend returned no authUrl or state")
	}

	window, err := c.opener.Open(init.AuthURL)
	if err != nil {
		return nil, errors.Wrap(err, "[Controller.Start] open window")
	}

	attempt := &Attempt{
		state:  init.State,
		window: window,
		stop:   make(chan struct{}),
		onDone: onDone,
	}

	expectedOrigin := c.messenger.Origin()
	attempt.unsubscribe = c.messenger.Subscribe(func(m Message) {
		c.handleMessage(attempt, expectedOrigin, m)
	})

	go c.pollWindow(ctx, attempt)

	return attempt, nil
}

func (c *Controller) handleMessage(a *Attempt, expectedOrigin string, m Message) {
	// Messages from other origins may come from unrelated tabs or
	// extensions. Drop them without surfacing anything.
	if m.Origin != expectedOrigin {
		c.log.Debug().Str("origin", m.Origin).Msg("ignoring message from foreign origin")
		return
	}
	// The backend-issued state is authoritative for correlating the
	// callback with this attempt.
	if m.State != "" && m.State != a.state {
		c.log.Debug().Msg("ignoring message with mismatched state")
		return
	}

	switch m.Type {
	case MessageAuthSuccess:
		if m.Token == "" {
			c.log.Debug().Msg("ignoring malformed success message")
			return
		}
		action := ActionCompleted
		if m.IsNewUser {
			action = ActionNewUser
		}
		a.terminate(Result{Action: action, Token: m.Token, User: m.User})
	case MessageAuthError:
		reason := m.Error
		if reason == "" {
			reason = "authentication failed"
		}
		a.terminate(Result{Action: ActionError, Reason: reason})
	}
}

func (c *Controller) pollWindow(ctx context.Context, a *Attempt) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-a.stop:
			return
		case <-ctx.Done():
			a.terminate(Result{Action: ActionError, Reason: "authentication cancelled"})
			return
		case <-ticker.C:
			if a.window.Closed() {
				// A more specific error cannot be overwritten here: a prior
				// terminal transition already consumed the attempt.
				a.terminate(Result{Action: ActionError, Reason: ReasonWindowClosed})
				return
			}
		}
	}
}

// Cancel aborts an in-flight attempt. A no-op once a terminal transition
// has occurred.
func (a *Attempt) Cancel() {
	a.terminate(Result{Action: ActionError, Reason: "authentication cancelled"})
}

// terminate performs the single terminal transition: the listener is
// detached synchronously before anything else runs, the poller is stopped,
// the window closed, and only then is the caller notified. Subsequent calls
// are no-ops.
func (a *Attempt) terminate(r Result) {
	a.mu.Lock()
	if a.done {
		a.mu.Unlock()
		return
	}
	a.done = true
	a.unsubscribe()
	a.mu.Unlock()

	close(a.stop)
	a.window.Close()
	a.onDone(r)
}

// Done reports whether the attempt has reached a terminal state.
func (a *Attempt) Done() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.done
}
