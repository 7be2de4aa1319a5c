package provider

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/FacuTaborra/FastServices2.0-sub000/internal/provider/mocks"
	"github.com/FacuTaborra/FastServices2.0-sub000/shared/models"
)

func TestService_MarkOnRoute(t *testing.T) {
	now := time.Date(2026, 7, 10, 9, 0, 0, 0, time.UTC)
	clock := WithClock(func() time.Time { return now })

	t.Run("too early makes no call", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := NewService(mocks.NewMockGateway(ctrl), clock)

		start := now.Add(3 * time.Hour)
		in := models.ProviderService{ID: 9, Status: models.ServiceStatusConfirmed, ScheduledStartAt: &start}
		got, err := svc.MarkOnRoute(context.Background(), in)
		assert.ErrorIs(t, err, ErrTooEarly)
		assert.Equal(t, in, got)
	})

	t.Run("success appends history when server omits it", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		gw := mocks.NewMockGateway(ctrl)
		svc := NewService(gw, clock)

		gw.EXPECT().MarkOnRoute(gomock.Any(), int64(9)).
			Return(json.RawMessage(`{"id":9,"status":"ON_ROUTE"}`), nil)

		in := models.ProviderService{
			ID:            9,
			RequestID:     3,
			Status:        models.ServiceStatusConfirmed,
			StatusHistory: hist(models.ServiceStatusConfirmed),
		}
		got, err := svc.MarkOnRoute(context.Background(), in)
		require.NoError(t, err)

		assert.Equal(t, models.ServiceStatusOnRoute, got.Status)
		assert.Equal(t, int64(3), got.RequestID)
		require.Len(t, got.StatusHistory, 2)
		assert.Equal(t, models.ServiceStatusOnRoute, got.StatusHistory[1].ToStatus)
		assert.True(t, now.Equal(got.StatusHistory[1].ChangedAt))
		assert.Len(t, in.StatusHistory, 1)
	})

	t.Run("server history is kept", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		gw := mocks.NewMockGateway(ctrl)
		svc := NewService(gw, clock)

		gw.EXPECT().MarkOnRoute(gomock.Any(), int64(9)).
			Return(json.RawMessage(`{"id":9,"status":"ON_ROUTE","status_history":[
				{"to_status":"CONFIRMED","changed_at":"2026-07-09T10:00:00Z"},
				{"to_status":"ON_ROUTE","changed_at":"2026-07-10T08:55:00Z"}
			]}`), nil)

		got, err := svc.MarkOnRoute(context.Background(), models.ProviderService{ID: 9, Status: models.ServiceStatusConfirmed})
		require.NoError(t, err)
		assert.Len(t, got.StatusHistory, 2)
	})

	t.Run("status-only response keeps identifiers", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		gw := mocks.NewMockGateway(ctrl)
		svc := NewService(gw, clock)

		gw.EXPECT().MarkOnRoute(gomock.Any(), int64(9)).
			Return(json.RawMessage(`{"status":"ON_ROUTE"}`), nil)

		in := models.ProviderService{ID: 9, RequestID: 3, ProposalID: 12, Status: models.ServiceStatusConfirmed}
		got, err := svc.MarkOnRoute(context.Background(), in)
		require.NoError(t, err)
		assert.Equal(t, int64(9), got.ID)
		assert.Equal(t, int64(3), got.RequestID)
		assert.Equal(t, int64(12), got.ProposalID)
		assert.Equal(t, models.ServiceStatusOnRoute, got.Status)
	})

	t.Run("empty body applies the target status", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		gw := mocks.NewMockGateway(ctrl)
		svc := NewService(gw, clock)

		gw.EXPECT().MarkOnRoute(gomock.Any(), int64(9)).Return(nil, nil)

		got, err := svc.MarkOnRoute(context.Background(), models.ProviderService{ID: 9, RequestID: 3, Status: models.ServiceStatusConfirmed})
		require.NoError(t, err)
		assert.Equal(t, int64(3), got.RequestID)
		assert.Equal(t, models.ServiceStatusOnRoute, got.Status)
		require.Len(t, got.StatusHistory, 1)
	})

	t.Run("failure leaves state unchanged", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		gw := mocks.NewMockGateway(ctrl)
		svc := NewService(gw, clock)

		gw.EXPECT().MarkOnRoute(gomock.Any(), int64(9)).Return(nil, errors.New("503"))

		in := models.ProviderService{ID: 9, Status: models.ServiceStatusConfirmed}
		got, err := svc.MarkOnRoute(context.Background(), in)
		require.Error(t, err)
		assert.Equal(t, in, got)
	})
}

func TestService_Advance(t *testing.T) {
	ctrl := gomock.NewController(t)
	gw := mocks.NewMockGateway(ctrl)
	svc := NewService(gw)

	gomock.InOrder(
		gw.EXPECT().MarkInProgress(gomock.Any(), int64(4)).
			Return(json.RawMessage(`{"id":4,"status":"IN_PROGRESS"}`), nil),
		gw.EXPECT().MarkCompleted(gomock.Any(), int64(4)).
			Return(json.RawMessage(`{"id":4,"status":"COMPLETED"}`), nil),
	)

	s := models.ProviderService{ID: 4, Status: models.ServiceStatusOnRoute}
	s, err := svc.Advance(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, models.ServiceStatusInProgress, s.Status)

	s, err = svc.Advance(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, models.ServiceStatusCompleted, s.Status)

	_, err = svc.Advance(context.Background(), s)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestService_TerminalRejected(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := NewService(mocks.NewMockGateway(ctrl))

	for _, status := range []models.ServiceStatus{models.ServiceStatusCompleted, models.ServiceStatusCanceled} {
		in := models.ProviderService{ID: 1, Status: status}
		_, err := svc.MarkOnRoute(context.Background(), in)
		assert.ErrorIs(t, err, ErrInvalidTransition)
		_, err = svc.MarkInProgress(context.Background(), in)
		assert.ErrorIs(t, err, ErrInvalidTransition)
		_, err = svc.MarkCompleted(context.Background(), in)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	}
}
