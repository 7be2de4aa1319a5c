package proposals

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FacuTaborra/FastServices2.0-sub000/shared/models"
)

type fakeGateway struct {
	mine    []models.Proposal
	listErr error
	created []models.CreateProposal
}

func (f *fakeGateway) CreateProposal(_ context.Context, in models.CreateProposal) (models.Proposal, error) {
	f.created = append(f.created, in)
	return models.Proposal{ID: 100, RequestID: in.RequestID, QuotedPrice: in.QuotedPrice, Currency: in.Currency, Status: models.ProposalStatusPending}, nil
}

func (f *fakeGateway) ListMyProposals(context.Context) ([]models.Proposal, error) {
	return f.mine, f.listErr
}

func published(t models.RequestType) models.ServiceRequest {
	return models.ServiceRequest{ID: 12, RequestType: t, Status: models.RequestStatusPublished}
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"1500", "1500", false},
		{" 1500.555 ", "1500.56", false},
		{"1.500,50", "1500.5", false},
		{"0", "", true},
		{"-10", "", true},
		{"abc", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePrice(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPrice)
				return
			}
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestBuild_FastDropsScheduling(t *testing.T) {
	svc := NewService(&fakeGateway{}, nil)
	start := time.Now().Add(time.Hour)
	end := start.Add(time.Hour)

	out, err := svc.Build(Input{
		Request:         published(models.RequestTypeFastMatch),
		Price:           "2500",
		Currency:        "ars",
		ProposedStartAt: &start,
		ProposedEndAt:   &end,
		ValidUntil:      &end,
	})
	require.NoError(t, err)
	assert.Equal(t, "ARS", out.Currency)
	assert.Nil(t, out.ProposedStartAt)
	assert.Nil(t, out.ProposedEndAt)
	assert.Nil(t, out.ValidUntil)
}

func TestBuild_Validation(t *testing.T) {
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	svc := NewService(&fakeGateway{}, nil)
	svc.now = func() time.Time { return now }
	before := now.Add(-time.Hour)
	after := now.Add(time.Hour)

	tests := []struct {
		name string
		in   Input
		want error
	}{
		{"closed request", Input{Request: models.ServiceRequest{ID: 1, Status: models.RequestStatusClosed}, Price: "10"}, ErrRequestClosed},
		{"bad price", Input{Request: published(models.RequestTypeBudget), Price: "free"}, ErrInvalidPrice},
		{"bad currency", Input{Request: published(models.RequestTypeBudget), Price: "10", Currency: "QQQ"}, ErrUnknownCurrency},
		{"end before start", Input{Request: published(models.RequestTypeLicitacion), Price: "10", ProposedStartAt: &after, ProposedEndAt: &before}, ErrInvalidSchedule},
		{"validity in the past", Input{Request: published(models.RequestTypeBudget), Price: "10", ValidUntil: &before}, ErrValidUntilPast},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Build(tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSubmit(t *testing.T) {
	gw := &fakeGateway{mine: []models.Proposal{{ID: 1, RequestID: 99, Status: models.ProposalStatusPending}}}
	svc := NewService(gw, nil)

	p, err := svc.Submit(context.Background(), Input{Request: published(models.RequestTypeLicitacion), Price: "300", Notes: "  incluye materiales "})
	require.NoError(t, err)
	assert.Equal(t, int64(100), p.ID)
	require.Len(t, gw.created, 1)
	assert.Equal(t, "incluye materiales", gw.created[0].Notes)
	assert.Equal(t, DefaultCurrency, gw.created[0].Currency)
}

func TestSubmit_Duplicate(t *testing.T) {
	gw := &fakeGateway{mine: []models.Proposal{{ID: 1, RequestID: 12, Status: models.ProposalStatusPending}}}
	svc := NewService(gw, nil)

	_, err := svc.Submit(context.Background(), Input{Request: published(models.RequestTypeFast), Price: "300"})
	assert.ErrorIs(t, err, ErrDuplicateProposal)
	assert.Empty(t, gw.created)
}

func TestSubmit_RejectedProposalAllowsResubmit(t *testing.T) {
	gw := &fakeGateway{mine: []models.Proposal{{ID: 1, RequestID: 12, Status: models.ProposalStatusRejected}}}
	svc := NewService(gw, nil)

	_, err := svc.Submit(context.Background(), Input{Request: published(models.RequestTypeFast), Price: "300"})
	require.NoError(t, err)
}

func TestSubmit_ListError(t *testing.T) {
	gw := &fakeGateway{listErr: errors.New("timeout")}
	svc := NewService(gw, nil)

	_, err := svc.Submit(context.Background(), Input{Request: published(models.RequestTypeFast), Price: "300"})
	require.Error(t, err)
	assert.Empty(t, gw.created)
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "$1,500.50", FormatPrice(decimal.RequireFromString("1500.5"), "USD"))
	assert.Equal(t, "12.00 ZZZ", FormatPrice(decimal.NewFromInt(12), "ZZZ"))
}
