package booking

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/mathcodehq/mathcode-client/backend"
	"github.com/mathcodehq/mathcode-client/entitlement"
	"github.com/mathcodehq/mathcode-client/internal/errs"
	"github.com/mathcodehq/mathcode-client/session"
)

// ProofUploader stores a payment proof document and returns its public
// download URL. Firebase Storage is the production implementation; tests
// inject a fake.
type ProofUploader interface {
	Upload(ctx context.Context, name string, r io.Reader) (string, error)
}

// Service is the CRUD glue over the booking and billing resources.
type Service struct {
	backend  *backend.Client
	store    *session.Store
	ent      *entitlement.Store
	uploader ProofUploader
	log      zerolog.Logger
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithUploader sets the payment proof uploader.
func WithUploader(u ProofUploader) ServiceOption {
	return func(s *Service) {
		s.uploader = u
	}
}

// WithLogger sets the service logger.
func WithLogger(log zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.log = log
	}
}

// NewService initializes a Service with required dependencies.
func NewService(client *backend.Client, store *session.Store, ent *entitlement.Store, options ...ServiceOption) (*Service, error) {
	if client == nil {
		return nil, errors.New("[NewService] backend client is required")
	}
	if store == nil {
		return nil, errors.New("[NewService] session store is required")
	}
	if ent == nil {
		return nil, errors.New("[NewService] entitlement store is required")
	}
	s := &Service{
		backend: client,
		store:   store,
		ent:     ent,
		log:     zerolog.Nop(),
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// CreatePackageRequest submits a package booking for the current user.
func (s *Service) CreatePackageRequest(ctx context.Context, req PackageRequest) (*Package, error) {
	if s.store.Token() == "" {
		return nil, errs.ErrNotLoggedIn
	}
	s.ent.RecordIntent("package", map[string]string{"type": req.PackageType})

	var pkg Package
	if err := s.backend.Post(ctx, backend.RoutePackages, req, &pkg); err != nil {
		return nil, errors.Wrap(err, "[Service.CreatePackageRequest] Post")
	}
	return &pkg, nil
}

// ListPackages returns the current user's package bookings.
func (s *Service) ListPackages(ctx context.Context) ([]Package, error) {
	if s.store.Token() == "" {
		return nil, errs.ErrNotLoggedIn
	}
	var pkgs []Package
	if err := s.backend.Get(ctx, backend.RoutePackages, &pkgs); err != nil {
		return nil, errors.Wrap(err, "[Service.ListPackages] Get")
	}
	return pkgs, nil
}

// CreateSessionRequest books a session for the current user.
func (s *Service) CreateSessionRequest(ctx context.Context, req SessionRequest) (*Session, error) {
	if s.store.Token() == "" {
		return nil, errs.ErrNotLoggedIn
	}
	s.ent.RecordIntent("session", map[string]string{"subject": req.Subject})

	var booked Session
	if err := s.backend.Post(ctx, backend.RouteSessions, req, &booked); err != nil {
		return nil, errors.Wrap(err, "[Service.CreateSessionRequest] Post")
	}
	return &booked, nil
}

// ListSessions returns the current user's session bookings.
func (s *Service) ListSessions(ctx context.Context) ([]Session, error) {
	if s.store.Token() == "" {
		return nil, errs.ErrNotLoggedIn
	}
	var sessions []Session
	if err := s.backend.Get(ctx, backend.RouteSessions, &sessions); err != nil {
		return nil, errors.Wrap(err, "[Service.ListSessions] Get")
	}
	return sessions, nil
}

// RequestFreeSession books the one-shot free trial session. The local
// entitlement marker throttles repeat attempts; the backend still enforces
// the real limit.
func (s *Service) RequestFreeSession(ctx context.Context, req SessionRequest) (*Session, error) {
	user, _ := s.store.Current()
	userID := ""
	if user != nil {
		userID = user.ID
	}

	if s.ent.Used(entitlement.FeatureFreeSession, userID) {
		return nil, errs.ErrFreeSessionUsed
	}

	req.FreeTrial = true
	booked, err := s.CreateSessionRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	s.ent.MarkUsed(entitlement.FeatureFreeSession, userID)
	return booked, nil
}

// ListBilling returns the billing records for userID.
func (s *Service) ListBilling(ctx context.Context, userID string) ([]BillingRecord, error) {
	if s.store.Token() == "" {
		return nil, errs.ErrNotLoggedIn
	}
	var records []BillingRecord
	if err := s.backend.Get(ctx, backend.RouteBilling+userID, &records); err != nil {
		return nil, errors.Wrap(err, "[Service.ListBilling] Get")
	}
	return records, nil
}

// UploadPaymentProof stores the proof document and attaches its URL to the
// billing record.
func (s *Service) UploadPaymentProof(ctx context.Context, billingID, filename string, r io.Reader) (string, error) {
	if s.store.Token() == "" {
		return "", errs.ErrNotLoggedIn
	}
	if s.uploader == nil {
		return "", errors.New("[Service.UploadPaymentProof] no uploader configured")
	}

	url, err := s.uploader.Upload(ctx, "payment-proofs/"+billingID+"/"+filename, r)
	if err != nil {
		return "", errors.Wrap(err, "[Service.UploadPaymentProof] Upload")
	}

	body := map[string]string{"proofUrl": url}
	if err := s.backend.Post(ctx, backend.RouteBilling+billingID+"/proof", body, nil); err != nil {
		return "", errors.Wrap(err, "[Service.UploadPaymentProof] attach proof")
	}
	return url, nil
}

// SubmitInquiry sends a contact-form message. No session required.
func (s *Service) SubmitInquiry(ctx context.Context, inq Inquiry) error {
	if err := s.backend.Post(ctx, backend.RouteInquiries, inq, nil); err != nil {
		return errors.Wrap(err, "[Service.SubmitInquiry] Post")
	}
	return nil
}
