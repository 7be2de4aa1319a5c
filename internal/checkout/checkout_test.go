package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FacuTaborra/FastServices2.0-sub000/internal/requests"
	"github.com/FacuTaborra/FastServices2.0-sub000/shared/models"
)

type fakeGateway struct {
	result PaymentResult
	err    error
	calls  []Charge
}

func (f *fakeGateway) CreatePayment(_ context.Context, c Charge) (PaymentResult, error) {
	f.calls = append(f.calls, c)
	return f.result, f.err
}

type fakeAcceptor struct {
	got models.AcceptProposal
	err error
}

func (f *fakeAcceptor) AcceptProposal(_ context.Context, req models.ServiceRequest, proposalID int64, p models.AcceptProposal) (models.ServiceRequest, error) {
	f.got = p
	if f.err != nil {
		return req, f.err
	}
	req.Status = models.RequestStatusMatched
	for i := range req.Proposals {
		if req.Proposals[i].ID == proposalID {
			req.Proposals[i].Status = models.ProposalStatusAccepted
		}
	}
	return req, nil
}

type fakeCreator struct {
	req  payment.Request
	resp *payment.Response
	err  error
}

func (f *fakeCreator) Create(_ context.Context, r payment.Request) (*payment.Response, error) {
	f.req = r
	return f.resp, f.err
}

func publishedRequest() models.ServiceRequest {
	return models.ServiceRequest{
		ID:          7,
		Title:       "Fix sink",
		RequestType: models.RequestTypeFast,
		Status:      models.RequestStatusPublished,
		Proposals: []models.Proposal{
			{ID: 70, RequestID: 7, QuotedPrice: decimal.RequireFromString("15000.50"), Currency: "ARS", Status: models.ProposalStatusPending},
			{ID: 71, RequestID: 7, QuotedPrice: decimal.RequireFromString("9000"), Currency: "ARS", Status: models.ProposalStatusRejected},
		},
	}
}

func TestPayAndAccept(t *testing.T) {
	gw := &fakeGateway{result: PaymentResult{ID: "123", Status: StatusApproved}}
	acc := &fakeAcceptor{}
	svc := NewService(gw, acc, nil)

	got, res, err := svc.PayAndAccept(context.Background(), publishedRequest(), 70, PayerDetails{Email: "ana@example.com"})
	require.NoError(t, err)

	require.Len(t, gw.calls, 1)
	assert.True(t, gw.calls[0].Amount.Equal(decimal.RequireFromString("15000.50")))
	assert.Equal(t, "FastServices: Fix sink", gw.calls[0].Description)
	assert.Equal(t, "123", res.ID)
	assert.Equal(t, models.AcceptProposal{PaymentID: "123", PaymentStatus: StatusApproved}, acc.got)
	assert.Equal(t, models.RequestStatusMatched, got.Status)
}

func TestPayAndAccept_ChecksProposalBeforeCharging(t *testing.T) {
	tests := []struct {
		name       string
		proposalID int64
		mutate     func(r *models.ServiceRequest)
		wantErr    error
	}{
		{name: "unknown proposal", proposalID: 99, wantErr: requests.ErrProposalNotFound},
		{name: "not pending", proposalID: 71, wantErr: requests.ErrProposalNotPending},
		{
			name:       "bidding still open",
			proposalID: 70,
			mutate:     func(r *models.ServiceRequest) { r.RequestType = models.RequestTypeLicitacion },
			wantErr:    requests.ErrNotAcceptingYet,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := publishedRequest()
			if tt.mutate != nil {
				tt.mutate(&req)
			}
			gw := &fakeGateway{}
			svc := NewService(gw, &fakeAcceptor{}, nil)

			_, _, err := svc.PayAndAccept(context.Background(), req, tt.proposalID, PayerDetails{})
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, gw.calls)
		})
	}
}

func TestPayAndAccept_Rejected(t *testing.T) {
	gw := &fakeGateway{result: PaymentResult{ID: "5", Status: StatusRejected}}
	acc := &fakeAcceptor{}
	svc := NewService(gw, acc, nil)

	req := publishedRequest()
	got, _, err := svc.PayAndAccept(context.Background(), req, 70, PayerDetails{})
	assert.ErrorIs(t, err, ErrPaymentNotApproved)
	assert.Equal(t, req, got)
	assert.Empty(t, acc.got.PaymentID)
}

func TestPayAndAccept_AcceptFailsAfterPayment(t *testing.T) {
	gw := &fakeGateway{result: PaymentResult{ID: "9", Status: StatusApproved}}
	boom := errors.New("backend down")
	svc := NewService(gw, &fakeAcceptor{err: boom}, nil)

	_, _, err := svc.PayAndAccept(context.Background(), publishedRequest(), 70, PayerDetails{})
	var acceptErr *AcceptError
	require.ErrorAs(t, err, &acceptErr)
	assert.Equal(t, "9", acceptErr.PaymentID)
	assert.ErrorIs(t, err, boom)
}

func TestMercadoPagoGateway_Mock(t *testing.T) {
	g, err := NewMercadoPagoGateway("", true, nil)
	require.NoError(t, err)
	g.now = func() time.Time { return time.Unix(0, 42) }

	res, err := g.CreatePayment(context.Background(), Charge{ProposalID: 1, Amount: decimal.NewFromInt(10)})
	require.NoError(t, err)
	assert.Equal(t, "42", res.ID)
	assert.Equal(t, StatusApproved, res.Status)
}

func TestNewMercadoPagoGateway_MissingToken(t *testing.T) {
	_, err := NewMercadoPagoGateway("", false, nil)
	assert.ErrorIs(t, err, ErrMissingAccessToken)
}

func TestMercadoPagoGateway_Create(t *testing.T) {
	fc := &fakeCreator{resp: &payment.Response{ID: 555, Status: StatusInProcess}}
	g := &MercadoPagoGateway{client: fc, logger: zapNop(), now: time.Now}

	res, err := g.CreatePayment(context.Background(), Charge{
		RequestID:   7,
		ProposalID:  70,
		Amount:      decimal.RequireFromString("15000.50"),
		Description: "FastServices: Fix sink",
		PayerEmail:  "ana@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "555", res.ID)
	assert.Equal(t, StatusInProcess, res.Status)

	assert.Equal(t, 15000.50, fc.req.TransactionAmount)
	assert.Equal(t, "fs-req-7-prop-70", fc.req.ExternalReference)
}

func TestMercadoPagoGateway_CreateError(t *testing.T) {
	g := &MercadoPagoGateway{client: &fakeCreator{err: errors.New("401")}, logger: zapNop(), now: time.Now}
	_, err := g.CreatePayment(context.Background(), Charge{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create payment")
}

func TestSettled(t *testing.T) {
	assert.True(t, Settled(StatusApproved))
	assert.True(t, Settled(StatusInProcess))
	assert.False(t, Settled(StatusPending))
	assert.False(t, Settled(StatusRejected))
	assert.False(t, Settled(""))
}

func zapNop() *zap.SugaredLogger { return zap.NewNop().Sugar() }
