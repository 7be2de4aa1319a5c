// Package checkout charges the client for an accepted proposal and then
// accepts it with the payment reference.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrMissingAccessToken = errors.New("missing MERCADOPAGO_ACCESS_TOKEN")
	ErrGatewayNotReady    = errors.New("payment gateway not configured")
)

// Charge is one payment for a proposal.
type Charge struct {
	RequestID       int64
	ProposalID      int64
	Amount          decimal.Decimal
	Currency        string
	Description     string
	PayerEmail      string
	CardToken       string
	PaymentMethodID string
	Installments    int
}

// PaymentResult is the provider's answer to a charge.
type PaymentResult struct {
	ID           string
	Status       string
	StatusDetail string
}

// Gateway charges a payment.
type Gateway interface {
	CreatePayment(ctx context.Context, charge Charge) (PaymentResult, error)
}

type paymentCreator interface {
	Create(ctx context.Context, request payment.Request) (*payment.Response, error)
}

// MercadoPagoGateway charges through Mercado Pago. In mock mode every charge
// is approved without calling the API.
type MercadoPagoGateway struct {
	client paymentCreator
	mock   bool
	logger *zap.SugaredLogger
	now    func() time.Time
}

var _ Gateway = (*MercadoPagoGateway)(nil)

// NewMercadoPagoGateway creates a gateway. accessToken may be empty in mock
// mode.
func NewMercadoPagoGateway(accessToken string, mock bool, logger *zap.SugaredLogger) (*MercadoPagoGateway, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if mock {
		logger.Infow("payment gateway mock mode enabled")
		return &MercadoPagoGateway{mock: true, logger: logger, now: time.Now}, nil
	}
	if accessToken == "" {
		return nil, ErrMissingAccessToken
	}

	cfg, err := config.New(accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create mercado pago config: %w", err)
	}
	return &MercadoPagoGateway{client: payment.NewClient(cfg), logger: logger, now: time.Now}, nil
}

// chargeRequest mirrors the Mercado Pago payment payload.
type chargeRequest struct {
	TransactionAmount float64      `json:"transaction_amount"`
	Description       string       `json:"description,omitempty"`
	PaymentMethodID   string       `json:"payment_method_id,omitempty"`
	Token             string       `json:"token,omitempty"`
	Installments      int          `json:"installments,omitempty"`
	ExternalReference string       `json:"external_reference,omitempty"`
	Payer             chargePayer  `json:"payer"`
	Metadata          chargeTarget `json:"metadata"`
}

type chargePayer struct {
	Email string `json:"email,omitempty"`
}

type chargeTarget struct {
	RequestID  int64 `json:"request_id"`
	ProposalID int64 `json:"proposal_id"`
}

func buildRequest(c Charge) (payment.Request, error) {
	installments := c.Installments
	if installments <= 0 {
		installments = 1
	}
	raw, err := json.Marshal(chargeRequest{
		TransactionAmount: c.Amount.InexactFloat64(),
		Description:       c.Description,
		PaymentMethodID:   c.PaymentMethodID,
		Token:             c.CardToken,
		Installments:      installments,
		ExternalReference: ExternalReference(c.RequestID, c.ProposalID),
		Payer:             chargePayer{Email: c.PayerEmail},
		Metadata:          chargeTarget{RequestID: c.RequestID, ProposalID: c.ProposalID},
	})
	if err != nil {
		return payment.Request{}, err
	}

	var req payment.Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return payment.Request{}, err
	}
	return req, nil
}

// ExternalReference ties a payment to the proposal it pays for.
func ExternalReference(requestID, proposalID int64) string {
	return fmt.Sprintf("fs-req-%d-prop-%d", requestID, proposalID)
}

func (g *MercadoPagoGateway) CreatePayment(ctx context.Context, charge Charge) (PaymentResult, error) {
	if g != nil && g.mock {
		id := strconv.FormatInt(g.now().UTC().UnixNano(), 10)
		g.logger.Infow("mock payment approved", "payment_id", id, "proposal_id", charge.ProposalID, "amount", charge.Amount.String())
		return PaymentResult{ID: id, Status: StatusApproved, StatusDetail: "accredited"}, nil
	}
	if g == nil || g.client == nil {
		return PaymentResult{}, ErrGatewayNotReady
	}

	req, err := buildRequest(charge)
	if err != nil {
		return PaymentResult{}, fmt.Errorf("failed to build payment request: %w", err)
	}

	resp, err := g.client.Create(ctx, req)
	if err != nil {
		g.logger.Warnw("payment create failed", "proposal_id", charge.ProposalID, "error", err)
		return PaymentResult{}, fmt.Errorf("failed to create payment: %w", err)
	}

	g.logger.Infow("payment created", "payment_id", resp.ID, "status", resp.Status, "proposal_id", charge.ProposalID)
	return PaymentResult{
		ID:           fmt.Sprintf("%d", resp.ID),
		Status:       resp.Status,
		StatusDetail: resp.StatusDetail,
	}, nil
}
