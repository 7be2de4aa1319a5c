// Package bidding runs the countdown of a bidding (LICITACION) request and
// closes it exactly once when its deadline passes.
package bidding

import (
	"fmt"
	"time"

	"github.com/FacuTaborra/FastServices2.0-sub000/internal/requests"
	"github.com/FacuTaborra/FastServices2.0-sub000/shared/models"
)

const (
	LabelCancelled = "Cancelled"
	LabelFinished  = "Finished"
)

// ComputeRemaining returns the time left until deadline, never negative.
func ComputeRemaining(deadline, now time.Time) time.Duration {
	return max(0, deadline.Sub(now))
}

// FormatRemainingTime renders the countdown as "H h MM m" for an hour or
// more and "M min" below that.
func FormatRemainingTime(remaining time.Duration, closed bool) string {
	if closed || remaining <= 0 {
		return LabelFinished
	}
	hours := int(remaining / time.Hour)
	minutes := int((remaining % time.Hour) / time.Minute)
	if hours >= 1 {
		return fmt.Sprintf("%d h %02d m", hours, minutes)
	}
	return fmt.Sprintf("%d min", minutes)
}

// Label returns the countdown text for a request in status.
func Label(status models.RequestStatus, remaining time.Duration) string {
	if status == models.RequestStatusCancelled {
		return LabelCancelled
	}
	return FormatRemainingTime(remaining, status == models.RequestStatusClosed)
}

// CanCloseManually reports whether the client may end bidding early.
func CanCloseManually(status models.RequestStatus, proposalCount int) bool {
	if status == models.RequestStatusClosed || status == models.RequestStatusCancelled {
		return false
	}
	return proposalCount >= requests.MinProposalsToClose
}
