package checkout

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/FacuTaborra/FastServices2.0-sub000/internal/requests"
	"github.com/FacuTaborra/FastServices2.0-sub000/shared/models"
)

// Payment statuses reported by Mercado Pago.
const (
	StatusApproved   = "approved"
	StatusAuthorized = "authorized"
	StatusInProcess  = "in_process"
	StatusPending    = "pending"
	StatusRejected   = "rejected"
)

var ErrPaymentNotApproved = errors.New("payment was not approved")

// AcceptError is returned when the charge went through but accepting the
// proposal failed. PaymentID must be reconciled by hand.
type AcceptError struct {
	PaymentID string
	Err       error
}

func (e *AcceptError) Error() string {
	return fmt.Sprintf("payment %s succeeded but accepting the proposal failed: %v", e.PaymentID, e.Err)
}

func (e *AcceptError) Unwrap() error { return e.Err }

// Acceptor accepts a proposal with its payment reference.
type Acceptor interface {
	AcceptProposal(ctx context.Context, req models.ServiceRequest, proposalID int64, payment models.AcceptProposal) (models.ServiceRequest, error)
}

var _ Acceptor = (*requests.Service)(nil)

// PayerDetails identifies who pays and how.
type PayerDetails struct {
	Email           string
	CardToken       string
	PaymentMethodID string
	Installments    int
}

// Service pays for a proposal and accepts it.
type Service struct {
	gateway  Gateway
	acceptor Acceptor
	logger   *zap.SugaredLogger
}

func NewService(gateway Gateway, acceptor Acceptor, logger *zap.SugaredLogger) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{gateway: gateway, acceptor: acceptor, logger: logger}
}

// PayAndAccept charges the quoted price of proposalID and then accepts it.
// The proposal is checked before any charge is made.
func (s *Service) PayAndAccept(ctx context.Context, req models.ServiceRequest, proposalID int64, payer PayerDetails) (models.ServiceRequest, PaymentResult, error) {
	if err := requests.CanDecideProposal(req, proposalID); err != nil {
		return req, PaymentResult{}, err
	}
	idx := slices.IndexFunc(req.Proposals, func(p models.Proposal) bool { return p.ID == proposalID })
	proposal := req.Proposals[idx]

	result, err := s.gateway.CreatePayment(ctx, Charge{
		RequestID:       req.ID,
		ProposalID:      proposal.ID,
		Amount:          proposal.QuotedPrice,
		Currency:        proposal.Currency,
		Description:     chargeDescription(req),
		PayerEmail:      payer.Email,
		CardToken:       payer.CardToken,
		PaymentMethodID: payer.PaymentMethodID,
		Installments:    payer.Installments,
	})
	if err != nil {
		return req, PaymentResult{}, err
	}
	if !Settled(result.Status) {
		s.logger.Warnw("payment not approved", "payment_id", result.ID, "status", result.Status, "detail", result.StatusDetail)
		return req, result, fmt.Errorf("%w: %s", ErrPaymentNotApproved, result.Status)
	}

	updated, err := s.acceptor.AcceptProposal(ctx, req, proposalID, models.AcceptProposal{
		PaymentID:     result.ID,
		PaymentStatus: result.Status,
	})
	if err != nil {
		s.logger.Errorw("proposal accept failed after payment", "payment_id", result.ID, "request_id", req.ID, "proposal_id", proposalID, "error", err)
		return req, result, &AcceptError{PaymentID: result.ID, Err: err}
	}
	return updated, result, nil
}

// Settled reports whether a payment status allows accepting the proposal.
func Settled(status string) bool {
	switch status {
	case StatusApproved, StatusAuthorized, StatusInProcess:
		return true
	}
	return false
}

func chargeDescription(req models.ServiceRequest) string {
	if req.Title != "" {
		return "FastServices: " + req.Title
	}
	return fmt.Sprintf("FastServices request #%d", req.ID)
}
