package backend_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mathcodehq/mathcode-client/backend"
)

func TestNonSuccessCarriesBackendMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "Email already in use"})
	}))
	t.Cleanup(server.Close)

	client := backend.New(server.URL)
	err := client.Post(context.Background(), "/api/users/register", map[string]string{}, nil)
	require.Error(t, err)

	var apiErr *backend.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusConflict, apiErr.Status)
	require.Equal(t, "Email already in use", apiErr.Message)
	require.Equal(t, "Email already in use", backend.MessageOf(err, "fallback"))
}

func TestErrorFieldBodyShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid payload"})
	}))
	t.Cleanup(server.Close)

	err := backend.New(server.URL).Get(context.Background(), "/api/sessions/", nil)

	var apiErr *backend.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "invalid payload", apiErr.Message)
}

func TestMessageOfFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	err := backend.New(server.URL).Get(context.Background(), "/api/users/me", nil)
	require.Equal(t, "unable to sign in", backend.MessageOf(err, "unable to sign in"))

	// Non-API errors fall back too.
	require.Equal(t, "fallback", backend.MessageOf(context.DeadlineExceeded, "fallback"))
}

func TestBearerTokenInjection(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(map[string]string{})
	}))
	t.Cleanup(server.Close)

	client := backend.New(server.URL, backend.WithTokenSource(func() string { return "abc" }))
	var out map[string]string
	require.NoError(t, client.Get(context.Background(), "/api/packages/", &out))
	require.Equal(t, "Bearer abc", got)

	// An explicit token overrides the source.
	require.NoError(t, client.GetWithToken(context.Background(), "/api/users/me", "flow-token", &out))
	require.Equal(t, "Bearer flow-token", got)
}

func TestUnauthenticatedRequestOmitsHeader(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("{}"))
	}))
	t.Cleanup(server.Close)

	require.NoError(t, backend.New(server.URL).Post(context.Background(), "/api/inquiries", map[string]string{}, nil))
	require.Empty(t, got)
}
