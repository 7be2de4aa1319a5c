package provider

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/FacuTaborra/FastServices2.0-sub000/shared/models"
)

//go:generate mockgen -source=service.go -destination=mocks/gateway_mock.go -package=mocks

// Gateway is the backend surface for provider status changes. Responses come
// back undecoded for Reconcile.
type Gateway interface {
	MarkOnRoute(ctx context.Context, serviceID int64) (json.RawMessage, error)
	MarkInProgress(ctx context.Context, serviceID int64) (json.RawMessage, error)
	MarkCompleted(ctx context.Context, serviceID int64) (json.RawMessage, error)
}

// Service drives provider status transitions, one network call each.
type Service struct {
	gw     Gateway
	now    func() time.Time
	logger *zap.SugaredLogger

	mu       sync.Mutex
	inFlight map[int64]struct{}
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
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

// NewService creates a provider service.
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

// MarkOnRoute moves svc from CONFIRMED to ON_ROUTE.
func (s *Service) MarkOnRoute(ctx context.Context, svc models.ProviderService) (models.ProviderService, error) {
	if err := CanMarkOnRoute(svc, s.now()); err != nil {
		return svc, err
	}
	return s.apply(ctx, svc, models.ServiceStatusOnRoute, s.gw.MarkOnRoute)
}

// MarkInProgress moves svc from ON_ROUTE to IN_PROGRESS.
func (s *Service) MarkInProgress(ctx context.Context, svc models.ProviderService) (models.ProviderService, error) {
	if err := CanMarkInProgress(svc); err != nil {
		return svc, err
	}
	return s.apply(ctx, svc, models.ServiceStatusInProgress, s.gw.MarkInProgress)
}

// MarkCompleted moves svc from IN_PROGRESS to COMPLETED.
func (s *Service) MarkCompleted(ctx context.Context, svc models.ProviderService) (models.ProviderService, error) {
	if err := CanMarkCompleted(svc); err != nil {
		return svc, err
	}
	return s.apply(ctx, svc, models.ServiceStatusCompleted, s.gw.MarkCompleted)
}

// Advance performs the next forward transition of svc.
func (s *Service) Advance(ctx context.Context, svc models.ProviderService) (models.ProviderService, error) {
	next, ok := NextAction(svc)
	if !ok {
		return svc, ErrInvalidTransition
	}
	switch next {
	case models.ServiceStatusOnRoute:
		return s.MarkOnRoute(ctx, svc)
	case models.ServiceStatusInProgress:
		return s.MarkInProgress(ctx, svc)
	default:
		return s.MarkCompleted(ctx, svc)
	}
}

func (s *Service) apply(ctx context.Context, svc models.ProviderService, to models.ServiceStatus, call func(context.Context, int64) (json.RawMessage, error)) (models.ProviderService, error) {
	s.mu.Lock()
	if _, busy := s.inFlight[svc.ID]; busy {
		s.mu.Unlock()
		return svc, ErrMutationInFlight
	}
	s.inFlight[svc.ID] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.inFlight, svc.ID)
		s.mu.Unlock()
	}()

	resp, err := call(ctx, svc.ID)
	if err != nil {
		s.logger.Warnw("service transition failed", "service_id", svc.ID, "to", to, "error", err)
		return svc, err
	}

	merged, err := Reconcile(svc, resp)
	if err != nil {
		return svc, err
	}
	if sentStatus(resp) == "" {
		merged.Status = to
	}
	merged = ensureHistory(merged, s.now())

	s.logger.Infow("service transitioned", "service_id", svc.ID, "from", svc.Status, "to", merged.Status)
	return merged, nil
}
