package entitlement_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mathcodehq/mathcode-client/entitlement"
	"github.com/mathcodehq/mathcode-client/kv/repofakes"
)

func TestMarkUsedRoundTrip(t *testing.T) {
	repo := repofakes.NewFakeRepo()
	store := entitlement.NewStore(repo)

	require.False(t, store.Used(entitlement.FeatureFreeSession, "u1"))

	store.MarkUsed(entitlement.FeatureFreeSession, "u1")
	require.True(t, store.Used(entitlement.FeatureFreeSession, "u1"))

	// Other users and other features are unaffected.
	require.False(t, store.Used(entitlement.FeatureFreeSession, "u2"))
	require.False(t, store.Used(entitlement.FeatureFreePackage, "u1"))
}

func TestGuestMarkerIsSeparateFromUserMarker(t *testing.T) {
	repo := repofakes.NewFakeRepo()
	store := entitlement.NewStore(repo)

	store.MarkUsed(entitlement.FeatureTrialClass, "")
	require.True(t, store.Used(entitlement.FeatureTrialClass, ""))
	require.False(t, store.Used(entitlement.FeatureTrialClass, "u1"))
}

func TestStorageFailureDegradesSilently(t *testing.T) {
	repo := repofakes.NewFakeRepo()
	repo.FailWrites = true
	store := entitlement.NewStore(repo)

	require.NotPanics(t, func() {
		store.MarkUsed(entitlement.FeatureFreeSession, "u1")
		store.RecordIntent("session", nil)
	})
	require.False(t, store.Used(entitlement.FeatureFreeSession, "u1"))
	require.Empty(t, store.Intents())
}

func TestRecordIntent(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := entitlement.NewStore(repofakes.NewFakeRepo(),
		entitlement.WithNowTime(func() time.Time { return now }))

	store.RecordIntent("package", map[string]string{"type": "starter"})
	store.RecordIntent("session", nil)

	intents := store.Intents()
	require.Len(t, intents, 2)
	require.Equal(t, "package", intents[0].Kind)
	require.Equal(t, "starter", intents[0].Payload["type"])
	require.NotEmpty(t, intents[0].ID)
	require.Equal(t, now, intents[0].At)
}

func TestRecordIntentCapsHistory(t *testing.T) {
	store := entitlement.NewStore(repofakes.NewFakeRepo())

	for i := 0; i < 60; i++ {
		store.RecordIntent("session", nil)
	}
	require.Len(t, store.Intents(), 50)
}

func TestCorruptedIntentsReadAsEmpty(t *testing.T) {
	repo := repofakes.NewFakeRepo()
	require.NoError(t, repo.Set("mc:intents", "{not json"))

	store := entitlement.NewStore(repo)
	require.Empty(t, store.Intents())
}
