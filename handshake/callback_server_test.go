package handshake_test

import (
	"encoding/base64"
	"encoding/json"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mathcodehq/mathcode-client/handshake"
	"github.com/mathcodehq/mathcode-client/users"
)

func collectMessages(s *handshake.CallbackServer) *[]handshake.Message {
	var got []handshake.Message
	s.Subscribe(func(m handshake.Message) {
		got = append(got, m)
	})
	return &got
}

func TestCallbackTranslatesSuccess(t *testing.T) {
	server := handshake.NewCallbackServer("127.0.0.1:0")
	got := collectMessages(server)

	userJSON, err := json.Marshal(users.User{ID: "u1", Email: "parent@test.com"})
	require.NoError(t, err)

	q := url.Values{}
	q.Set("state", "s1")
	q.Set("token", "abc")
	q.Set("isNewUser", "true")
	q.Set("user", string(userJSON))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", handshake.CallbackPath+"?"+q.Encode(), nil)
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	require.Len(t, *got, 1)

	msg := (*got)[0]
	require.Equal(t, handshake.MessageAuthSuccess, msg.Type)
	require.Equal(t, server.Origin(), msg.Origin)
	require.Equal(t, "s1", msg.State)
	require.Equal(t, "abc", msg.Token)
	require.True(t, msg.IsNewUser)
	require.Equal(t, "u1", msg.User.ID)
}

func TestCallbackDecodesBase64User(t *testing.T) {
	server := handshake.NewCallbackServer("127.0.0.1:0")
	got := collectMessages(server)

	userJSON, err := json.Marshal(users.User{ID: "u2"})
	require.NoError(t, err)

	q := url.Values{}
	q.Set("token", "abc")
	q.Set("user", base64.RawURLEncoding.EncodeToString(userJSON))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", handshake.CallbackPath+"?"+q.Encode(), nil)
	server.Handler().ServeHTTP(rec, req)

	require.Len(t, *got, 1)
	require.Equal(t, "u2", (*got)[0].User.ID)
}

func TestCallbackTranslatesError(t *testing.T) {
	server := handshake.NewCallbackServer("127.0.0.1:0")
	got := collectMessages(server)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", handshake.CallbackPath+"?error=access_denied&state=s1", nil)
	server.Handler().ServeHTTP(rec, req)

	require.Len(t, *got, 1)
	msg := (*got)[0]
	require.Equal(t, handshake.MessageAuthError, msg.Type)
	require.Equal(t, "access_denied", msg.Error)
}

func TestCallbackMalformedUserYieldsNil(t *testing.T) {
	server := handshake.NewCallbackServer("127.0.0.1:0")
	got := collectMessages(server)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", handshake.CallbackPath+"?token=abc&user=%7Bnot-json", nil)
	server.Handler().ServeHTTP(rec, req)

	require.Len(t, *got, 1)
	require.Nil(t, (*got)[0].User)
	require.Equal(t, "abc", (*got)[0].Token)
}

func TestSubscribeCancelIsIdempotent(t *testing.T) {
	server := handshake.NewCallbackServer("127.0.0.1:0")

	calls := 0
	cancel := server.Subscribe(func(handshake.Message) { calls++ })
	cancel()
	cancel()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", handshake.CallbackPath+"?token=abc", nil)
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, 0, calls)
}
