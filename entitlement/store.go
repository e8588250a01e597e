// Package entitlement tracks best-effort client-side markers for one-shot
// offers (free trial session, intro package) and booking intents. These are
// advisory anti-spam flags, not a security boundary: the backend remains
// the source of truth and storage failures degrade silently.
package entitlement

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mathcodehq/mathcode-client/kv"
)

// Feature names gated by a one-shot marker.
const (
	FeatureFreeSession = "free_session"
	FeatureFreePackage = "free_package"
	FeatureTrialClass  = "trial_class"
)

const (
	intentsKey = "mc:intents"
	maxIntents = 50
)

// Intent is a recorded booking intent marker.
type Intent struct {
	ID      string            `json:"id"`
	Kind    string            `json:"kind"`
	At      time.Time         `json:"at"`
	Payload map[string]string `json:"payload,omitempty"`
}

// Store reads and writes entitlement markers through the shared kv repo.
type Store struct {
	repo kv.Repo
	now  func() time.Time
	log  zerolog.Logger
}

// StoreOption defines a function type to modify the Store instance.
type StoreOption func(*Store)

// WithNowTime sets the now time function (primarily for testing).
func WithNowTime(nowFunc func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = nowFunc
	}
}

// WithLogger sets the store logger.
func WithLogger(log zerolog.Logger) StoreOption {
	return func(s *Store) {
		s.log = log
	}
}

// NewStore creates a Store backed by repo.
func NewStore(repo kv.Repo, options ...StoreOption) *Store {
	s := &Store{
		repo: repo,
		now:  time.Now,
		log:  zerolog.Nop(),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// key builds the marker key: per-user when a user ID is known, otherwise
// the guest marker.
func key(feature, userID string) string {
	if userID == "" {
		return "mc:" + feature + "_guest"
	}
	return "mc:" + feature + "_used:" + userID
}

// Used reports whether the feature was already consumed by this user (or
// this guest install). Unreadable storage reads as not used.
func (s *Store) Used(feature, userID string) bool {
	v, err := s.repo.Get(key(feature, userID))
	if err != nil {
		return false
	}
	return v != "" && v != "false"
}

// MarkUsed records consumption of the feature. Best-effort: a storage
// failure is logged and swallowed.
func (s *Store) MarkUsed(feature, userID string) {
	value, _ := json.Marshal(s.now().UTC().Format(time.RFC3339))
	if err := s.repo.Set(key(feature, userID), string(value)); err != nil {
		s.log.Warn().Err(err).Str("feature", feature).Msg("failed to persist entitlement marker")
	}
}

// RecordIntent appends a marker describing what the user set out to do.
// The list is capped; failures are logged and swallowed.
func (s *Store) RecordIntent(kind string, payload map[string]string) {
	intents := s.Intents()
	intents = append(intents, Intent{
		ID:      uuid.New().String(),
		Kind:    kind,
		At:      s.now().UTC(),
		Payload: payload,
	})
	if len(intents) > maxIntents {
		intents = intents[len(intents)-maxIntents:]
	}

	b, err := json.Marshal(intents)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to encode intents")
		return
	}
	if err := s.repo.Set(intentsKey, string(b)); err != nil {
		s.log.Warn().Err(err).Msg("failed to persist intents")
	}
}

// Intents returns the recorded markers, empty on any failure.
func (s *Store) Intents() []Intent {
	raw, err := s.repo.Get(intentsKey)
	if err != nil {
		return nil
	}
	var intents []Intent
	if err := json.Unmarshal([]byte(raw), &intents); err != nil {
		return nil
	}
	return intents
}
