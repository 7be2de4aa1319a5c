// Package proposals prepares and submits provider offers.
package proposals

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/FacuTaborra/FastServices2.0-sub000/internal/requests"
	"github.com/FacuTaborra/FastServices2.0-sub000/shared/models"
	"github.com/FacuTaborra/FastServices2.0-sub000/shared/validation"
)

// DefaultCurrency is used when the provider leaves the currency empty.
const DefaultCurrency = "ARS"

var (
	ErrRequestClosed     = errors.New("this request is no longer accepting proposals")
	ErrInvalidPrice      = errors.New("the price must be a number greater than zero")
	ErrUnknownCurrency   = errors.New("unknown currency")
	ErrInvalidSchedule   = errors.New("the proposed end must be after the proposed start")
	ErrValidUntilPast    = errors.New("the validity date must be in the future")
	ErrDuplicateProposal = errors.New("you already have a pending proposal for this request")
)

// Gateway is the backend surface for proposals.
type Gateway interface {
	CreateProposal(ctx context.Context, in models.CreateProposal) (models.Proposal, error)
	ListMyProposals(ctx context.Context) ([]models.Proposal, error)
}

// Input is what the provider fills in.
type Input struct {
	Request         models.ServiceRequest
	Price           string
	Currency        string
	Notes           string
	ProposedStartAt *time.Time
	ProposedEndAt   *time.Time
	ValidUntil      *time.Time
}

// Service validates and submits proposals.
type Service struct {
	gw     Gateway
	now    func() time.Time
	logger *zap.SugaredLogger
}

// NewService creates a proposal service.
func NewService(gw Gateway, logger *zap.SugaredLogger) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{gw: gw, now: time.Now, logger: logger}
}

// Build turns provider input into a create payload. FAST requests carry no
// scheduling or validity fields.
func (s *Service) Build(in Input) (models.CreateProposal, error) {
	if !requests.AcceptsProposals(in.Request) {
		return models.CreateProposal{}, ErrRequestClosed
	}

	price, err := ParsePrice(in.Price)
	if err != nil {
		return models.CreateProposal{}, err
	}

	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = DefaultCurrency
	}
	if money.GetCurrency(currency) == nil {
		return models.CreateProposal{}, fmt.Errorf("%w: %s", ErrUnknownCurrency, currency)
	}

	out := models.CreateProposal{
		RequestID:   in.Request.ID,
		QuotedPrice: price,
		Currency:    currency,
		Notes:       strings.TrimSpace(in.Notes),
	}

	if !in.Request.RequestType.IsFast() {
		if in.ProposedStartAt != nil && in.ProposedEndAt != nil && !in.ProposedEndAt.After(*in.ProposedStartAt) {
			return models.CreateProposal{}, ErrInvalidSchedule
		}
		if in.ValidUntil != nil && !in.ValidUntil.After(s.now()) {
			return models.CreateProposal{}, ErrValidUntilPast
		}
		out.ProposedStartAt = in.ProposedStartAt
		out.ProposedEndAt = in.ProposedEndAt
		out.ValidUntil = in.ValidUntil
	}

	if err := validation.Check(out); err != nil {
		return models.CreateProposal{}, err
	}
	return out, nil
}

// Submit validates in, checks the provider has no pending proposal for the
// same request and creates the proposal.
func (s *Service) Submit(ctx context.Context, in Input) (models.Proposal, error) {
	payload, err := s.Build(in)
	if err != nil {
		return models.Proposal{}, err
	}

	mine, err := s.gw.ListMyProposals(ctx)
	if err != nil {
		return models.Proposal{}, fmt.Errorf("failed to check existing proposals: %w", err)
	}
	for _, p := range mine {
		if p.RequestID == payload.RequestID && p.Status == models.ProposalStatusPending {
			return models.Proposal{}, ErrDuplicateProposal
		}
	}

	created, err := s.gw.CreateProposal(ctx, payload)
	if err != nil {
		s.logger.Warnw("proposal submission failed", "request_id", payload.RequestID, "error", err)
		return models.Proposal{}, err
	}
	s.logger.Infow("proposal submitted", "request_id", payload.RequestID, "proposal_id", created.ID, "price", payload.QuotedPrice.String())
	return created, nil
}

// ParsePrice accepts "1500", "1500.50" and "1.500,50".
func ParsePrice(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if strings.Contains(raw, ",") {
		raw = strings.ReplaceAll(raw, ".", "")
		raw = strings.ReplaceAll(raw, ",", ".")
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || !d.IsPositive() {
		return decimal.Decimal{}, ErrInvalidPrice
	}
	return d.Round(2), nil
}

// FormatPrice renders an amount with its currency symbol, e.g. "$1,500.50".
func FormatPrice(amount decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return amount.StringFixed(2) + " " + currency
	}
	minor := amount.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, cur.Code).Display()
}
