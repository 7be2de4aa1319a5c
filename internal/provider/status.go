// Package provider models the lifecycle a provider drives once a proposal is
// accepted: the forward-only status flow, its guards and the derived timeline.
package provider

import (
	"errors"
	"slices"
	"time"

	"github.com/FacuTaborra/FastServices2.0-sub000/shared/models"
)

// OnRouteWindow is how long before the scheduled start a provider may mark
// themselves on the way.
const OnRouteWindow = 2 * time.Hour

var (
	ErrInvalidTransition = errors.New("this service cannot move to that status")
	ErrTooEarly          = errors.New("You can mark yourself on the way up to 2 hours before the scheduled start.")
	ErrMutationInFlight  = errors.New("another change to this service is in progress")
)

// CanonicalFlow is the forward-only execution flow.
var CanonicalFlow = []models.ServiceStatus{
	models.ServiceStatusConfirmed,
	models.ServiceStatusOnRoute,
	models.ServiceStatusInProgress,
	models.ServiceStatusCompleted,
}

// FlowIndex returns the position of status in CanonicalFlow, or -1.
func FlowIndex(status models.ServiceStatus) int {
	return slices.Index(CanonicalFlow, status)
}

// IsTerminal reports whether status admits no further transition.
func IsTerminal(status models.ServiceStatus) bool {
	return status == models.ServiceStatusCompleted || status == models.ServiceStatusCanceled
}

// CanTransition reports whether from -> to is legal. CANCELED is reachable
// from every non-terminal status; everything else moves one step forward.
func CanTransition(from, to models.ServiceStatus) bool {
	if IsTerminal(from) {
		return false
	}
	if to == models.ServiceStatusCanceled {
		return true
	}
	fi, ti := FlowIndex(from), FlowIndex(to)
	return fi >= 0 && ti == fi+1
}

// CanMarkOnRoute returns nil when svc may move to ON_ROUTE at now.
func CanMarkOnRoute(svc models.ProviderService, now time.Time) error {
	if svc.Status != models.ServiceStatusConfirmed {
		return ErrInvalidTransition
	}
	if svc.ScheduledStartAt != nil && svc.ScheduledStartAt.Sub(now) > OnRouteWindow {
		return ErrTooEarly
	}
	return nil
}

// CanMarkInProgress returns nil when svc may move to IN_PROGRESS.
func CanMarkInProgress(svc models.ProviderService) error {
	if svc.Status != models.ServiceStatusOnRoute {
		return ErrInvalidTransition
	}
	return nil
}

// CanMarkCompleted returns nil when svc may move to COMPLETED.
func CanMarkCompleted(svc models.ProviderService) error {
	if svc.Status != models.ServiceStatusInProgress {
		return ErrInvalidTransition
	}
	return nil
}

// NextAction returns the status the provider can move svc to next, if any.
func NextAction(svc models.ProviderService) (models.ServiceStatus, bool) {
	i := FlowIndex(svc.Status)
	if i < 0 || i+1 >= len(CanonicalFlow) {
		return "", false
	}
	return CanonicalFlow[i+1], true
}
