// Package handshakefakes provides in-memory Messenger and Opener
// implementations for tests.
package handshakefakes

import (
	"sync"

	"github.com/mathcodehq/mathcode-client/handshake"
)

// FakeMessenger delivers messages published by the test directly to
// subscribers.
type FakeMessenger struct {
	origin string

	mu   sync.Mutex
	subs map[int]func(handshake.Message)
	next int
}

// NewFakeMessenger creates a messenger with the given origin.
func NewFakeMessenger(origin string) *FakeMessenger {
	return &FakeMessenger{
		origin: origin,
		subs:   map[int]func(handshake.Message){},
	}
}

// Origin returns the messenger's origin.
func (m *FakeMessenger) Origin() string {
	return m.origin
}

// Subscribe registers fn. The cancel function is idempotent.
func (m *FakeMessenger) Subscribe(fn func(handshake.Message)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.next
	m.next++
	m.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.subs, id)
		})
	}
}

// Publish delivers msg to all current subscribers.
func (m *FakeMessenger) Publish(msg handshake.Message) {
	m.mu.Lock()
	subs := make([]func(handshake.Message), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	for _, fn := range subs {
		fn(msg)
	}
}

// SubscriberCount reports how many subscriptions are attached.
func (m *FakeMessenger) SubscriberCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}

// FakeWindow is a Window whose closed state the test controls.
type FakeWindow struct {
	mu          sync.Mutex
	closed      bool
	closeCalled int
}

// SetClosed marks the window as closed by the user.
func (w *FakeWindow) SetClosed() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
}

// Closed reports whether the window is closed.
func (w *FakeWindow) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

// Close records a programmatic close.
func (w *FakeWindow) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	w.closeCalled++
}

// CloseCalls reports how many times Close ran.
func (w *FakeWindow) CloseCalls() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeCalled
}

// FakeOpener returns a prepared FakeWindow and records the opened URL.
type FakeOpener struct {
	Window  *FakeWindow
	OpenErr error

	mu      sync.Mutex
	openURL string
}

// NewFakeOpener creates an opener with a fresh window.
func NewFakeOpener() *FakeOpener {
	return &FakeOpener{Window: &FakeWindow{}}
}

// Open returns the prepared window.
func (o *FakeOpener) Open(url string) (handshake.Window, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.OpenErr != nil {
		return nil, o.OpenErr
	}
	o.openURL = url
	return o.Window, nil
}

// OpenedURL reports the last opened URL.
func (o *FakeOpener) OpenedURL() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.openURL
}
