package requests

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/FacuTaborra/FastServices2.0-sub000/shared/models"
)

//go:generate mockgen -source=service.go -destination=mocks/gateway_mock.go -package=mocks

// Gateway is the backend surface used for request mutations. Responses are
// returned undecoded so that Reconcile can tell absent fields from zero ones.
type Gateway interface {
	UpdateServiceRequest(ctx context.Context, id int64, in models.UpdateServiceRequest) (json.RawMessage, error)
	AcceptProposal(ctx context.Context, requestID, proposalID int64, in models.AcceptProposal) (json.RawMessage, error)
	RejectProposal(ctx context.Context, requestID, proposalID int64) (json.RawMessage, error)
}

// Service validates and issues request mutations. At most one mutation per
// request id runs at a time; a second one fails with ErrMutationInFlight
// instead of queuing.
type Service struct {
	gw     Gateway
	now    func() time.Time
	logger *zap.SugaredLogger

	mu       sync.Mutex
	inFlight map[int64]struct{}
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for deadline checks.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// NewService creates a request service.
func NewService(gw Gateway, opts ...Option) *Service {
	s := &Service{
		gw:       gw,
		now:      time.Now,
		logger:   zap.NewNop().Sugar(),
		inFlight: make(map[int64]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// InFlight reports whether a mutation for id is running.
func (s *Service) InFlight(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.inFlight[id]
	return ok
}

func (s *Service) begin(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.inFlight[id]; ok {
		return ErrMutationInFlight
	}
	s.inFlight[id] = struct{}{}
	return nil
}

func (s *Service) end(id int64) {
	s.mu.Lock()
	delete(s.inFlight, id)
	s.mu.Unlock()
}

// Close moves a bidding request to CLOSED and returns the reconciled request.
// The proposal list and count are taken from the response, empty and 0 when
// the server leaves them out. On error req is returned unchanged.
func (s *Service) Close(ctx context.Context, req models.ServiceRequest, mode CloseMode) (models.ServiceRequest, error) {
	if err := CanClose(req, s.now(), mode); err != nil {
		return req, err
	}
	return s.setStatus(ctx, req, models.RequestStatusClosed, "close_"+mode.String(), foldClosed)
}

// Cancel moves a request to CANCELLED. Cancellation cannot be undone.
func (s *Service) Cancel(ctx context.Context, req models.ServiceRequest) (models.ServiceRequest, error) {
	if err := CanCancel(req); err != nil {
		return req, err
	}
	return s.setStatus(ctx, req, models.RequestStatusCancelled, "cancel", nil)
}

type foldFunc func(models.ServiceRequest, json.RawMessage) (models.ServiceRequest, error)

func (s *Service) setStatus(ctx context.Context, req models.ServiceRequest, status models.RequestStatus, op string, fold foldFunc) (models.ServiceRequest, error) {
	if err := s.begin(req.ID); err != nil {
		return req, err
	}
	defer s.end(req.ID)

	resp, err := s.gw.UpdateServiceRequest(ctx, req.ID, models.UpdateServiceRequest{Status: &status})
	if err != nil {
		s.logger.Warnw("request mutation failed", "op", op, "request_id", req.ID, "error", err)
		return req, err
	}

	merged, err := Reconcile(req, resp)
	if err != nil {
		return req, err
	}
	if fold != nil {
		if merged, err = fold(merged, resp); err != nil {
			return req, err
		}
	}
	s.logger.Infow("request mutated", "op", op, "request_id", req.ID, "status", merged.Status)
	return merged, nil
}

// AcceptProposal accepts a pending proposal. payment is sent along when the
// proposal was paid through checkout.
func (s *Service) AcceptProposal(ctx context.Context, req models.ServiceRequest, proposalID int64, payment models.AcceptProposal) (models.ServiceRequest, error) {
	if err := CanDecideProposal(req, proposalID); err != nil {
		return req, err
	}
	return s.decide(ctx, req, "accept_proposal", func() (json.RawMessage, error) {
		return s.gw.AcceptProposal(ctx, req.ID, proposalID, payment)
	})
}

// RejectProposal rejects a pending proposal.
func (s *Service) RejectProposal(ctx context.Context, req models.ServiceRequest, proposalID int64) (models.ServiceRequest, error) {
	if err := CanDecideProposal(req, proposalID); err != nil {
		return req, err
	}
	return s.decide(ctx, req, "reject_proposal", func() (json.RawMessage, error) {
		return s.gw.RejectProposal(ctx, req.ID, proposalID)
	})
}

func (s *Service) decide(ctx context.Context, req models.ServiceRequest, op string, call func() (json.RawMessage, error)) (models.ServiceRequest, error) {
	if err := s.begin(req.ID); err != nil {
		return req, err
	}
	defer s.end(req.ID)

	resp, err := call()
	if err != nil {
		s.logger.Warnw("proposal decision failed", "op", op, "request_id", req.ID, "error", err)
		return req, err
	}
	merged, err := Reconcile(req, resp)
	if err != nil {
		return req, fmt.Errorf("%s: %w", op, err)
	}
	s.logger.Infow("proposal decided", "op", op, "request_id", req.ID, "status", merged.Status)
	return merged, nil
}
