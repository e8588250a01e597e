package booking_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mathcodehq/mathcode-client/backend"
	"github.com/mathcodehq/mathcode-client/booking"
	"github.com/mathcodehq/mathcode-client/entitlement"
	"github.com/mathcodehq/mathcode-client/internal/errs"
	"github.com/mathcodehq/mathcode-client/kv/repofakes"
	"github.com/mathcodehq/mathcode-client/session"
	"github.com/mathcodehq/mathcode-client/users"
)

type fakeUploader struct {
	name string
	body string
	err  error
}

func (u *fakeUploader) Upload(_ context.Context, name string, r io.Reader) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	u.name = name
	b, _ := io.ReadAll(r)
	u.body = string(b)
	return "https://storage.test/" + name, nil
}

type testFixture struct {
	mux      *http.ServeMux
	server   *httptest.Server
	store    *session.Store
	ent      *entitlement.Store
	uploader *fakeUploader
	service  *booking.Service
}

func setupTestFixture(t *testing.T, loggedIn bool) *testFixture {
	t.Helper()

	f := &testFixture{
		mux:      http.NewServeMux(),
		uploader: &fakeUploader{},
	}
	f.server = httptest.NewServer(f.mux)
	t.Cleanup(f.server.Close)

	repo := repofakes.NewFakeRepo()
	store, err := session.NewStore(repo)
	require.NoError(t, err)
	f.store = store

	if loggedIn {
		require.NoError(t, store.Set(&users.User{ID: "u1", Email: "parent@test.com"}, "abc"))
	}

	f.ent = entitlement.NewStore(repo)

	client := backend.New(f.server.URL, backend.WithTokenSource(store.Token))
	service, err := booking.NewService(client, store, f.ent, booking.WithUploader(f.uploader))
	require.NoError(t, err)
	f.service = service

	return f
}

func TestListPackagesRequiresLogin(t *testing.T) {
	f := setupTestFixture(t, false)

	_, err := f.service.ListPackages(context.Background())
	require.ErrorIs(t, err, errs.ErrNotLoggedIn)
}

func TestListPackagesSendsBearerToken(t *testing.T) {
	f := setupTestFixture(t, true)
	f.mux.HandleFunc("GET "+backend.RoutePackages, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode([]booking.Package{{ID: "p1", PackageType: "starter", Hours: 10}})
	})

	pkgs, err := f.service.ListPackages(context.Background())
	require.NoError(t, err)
	require.Len(t, pkgs, 1)
	require.Equal(t, "p1", pkgs[0].ID)
}

func TestCreateSessionRequestRecordsIntent(t *testing.T) {
	f := setupTestFixture(t, true)
	f.mux.HandleFunc("POST "+backend.RouteSessions, func(w http.ResponseWriter, r *http.Request) {
		var req booking.SessionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		_ = json.NewEncoder(w).Encode(booking.Session{ID: "s1", Subject: req.Subject, Status: "pending"})
	})

	booked, err := f.service.CreateSessionRequest(context.Background(), booking.SessionRequest{Subject: "algebra"})
	require.NoError(t, err)
	require.Equal(t, "s1", booked.ID)

	intents := f.ent.Intents()
	require.Len(t, intents, 1)
	require.Equal(t, "session", intents[0].Kind)
	require.Equal(t, "algebra", intents[0].Payload["subject"])
}

func TestRequestFreeSessionThrottles(t *testing.T) {
	f := setupTestFixture(t, true)
	f.mux.HandleFunc("POST "+backend.RouteSessions, func(w http.ResponseWriter, r *http.Request) {
		var req booking.SessionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.True(t, req.FreeTrial)
		_ = json.NewEncoder(w).Encode(booking.Session{ID: "s1", Status: "pending", FreeTrial: true})
	})

	_, err := f.service.RequestFreeSession(context.Background(), booking.SessionRequest{Subject: "algebra"})
	require.NoError(t, err)

	// The marker is advisory but blocks an immediate repeat locally.
	_, err = f.service.RequestFreeSession(context.Background(), booking.SessionRequest{Subject: "algebra"})
	require.ErrorIs(t, err, errs.ErrFreeSessionUsed)
}

func TestRequestFreeSessionNotMarkedOnFailure(t *testing.T) {
	f := setupTestFixture(t, true)
	f.mux.HandleFunc("POST "+backend.RouteSessions, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := f.service.RequestFreeSession(context.Background(), booking.SessionRequest{})
	require.Error(t, err)
	require.False(t, f.ent.Used(entitlement.FeatureFreeSession, "u1"))
}

func TestListBilling(t *testing.T) {
	f := setupTestFixture(t, true)
	f.mux.HandleFunc("GET /api/billing/u1", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]booking.BillingRecord{{ID: "b1", UserID: "u1", Amount: 120, Currency: "USD"}})
	})

	records, err := f.service.ListBilling(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, 120.0, records[0].Amount)
}

func TestUploadPaymentProofAttachesURL(t *testing.T) {
	f := setupTestFixture(t, true)

	var attached string
	f.mux.HandleFunc("POST /api/billing/b1/proof", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		attached = body["proofUrl"]
		w.WriteHeader(http.StatusOK)
	})

	url, err := f.service.UploadPaymentProof(context.Background(), "b1", "receipt.pdf", strings.NewReader("pdf-bytes"))
	require.NoError(t, err)
	require.Equal(t, "https://storage.test/payment-proofs/b1/receipt.pdf", url)
	require.Equal(t, url, attached)
	require.Equal(t, "pdf-bytes", f.uploader.body)
}

func TestSubmitInquiryNeedsNoSession(t *testing.T) {
	f := setupTestFixture(t, false)
	f.mux.HandleFunc("POST "+backend.RouteInquiries, func(w http.ResponseWriter, r *http.Request) {
		var inq booking.Inquiry
		require.NoError(t, json.NewDecoder(r.Body).Decode(&inq))
		require.Equal(t, "prospect@test.com", inq.Email)
		w.WriteHeader(http.StatusCreated)
	})

	err := f.service.SubmitInquiry(context.Background(), booking.Inquiry{
		Name: "Pat", Email: "prospect@test.com", Message: "Do you cover calculus?",
	})
	require.NoError(t, err)
}
