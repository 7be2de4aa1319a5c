package provider

import (
	"cmp"
	"slices"
	"time"

	"github.com/FacuTaborra/FastServices2.0-sub000/shared/models"
)

// StepState is how a timeline step renders.
type StepState string

const (
	StepDone     StepState = "done"
	StepActive   StepState = "active"
	StepPending  StepState = "pending"
	StepCanceled StepState = "canceled"
)

// StepReview is the synthetic step appended when the client left a review.
const StepReview = "REVIEW"

// TimelineEntry is one rendered step of a service timeline.
type TimelineEntry struct {
	Key       string
	Label     string
	State     StepState
	ChangedAt *time.Time
}

var stepLabels = map[string]string{
	string(models.ServiceStatusConfirmed):  "Confirmed",
	string(models.ServiceStatusOnRoute):    "On the way",
	string(models.ServiceStatusInProgress): "In progress",
	string(models.ServiceStatusCompleted):  "Completed",
	string(models.ServiceStatusCanceled):   "Canceled",
	StepReview:                             "Reviewed",
}

func labelFor(key string) string {
	if l, ok := stepLabels[key]; ok {
		return l
	}
	return key
}

// BuildTimelineEntries projects the status history of a service onto the
// canonical flow. Steps before the current status are done, the current one
// is active and later ones pending; COMPLETED marks every step done. CANCELED
// and unknown statuses are appended after the steps reached before them.
func BuildTimelineEntries(status models.ServiceStatus, history []models.StatusChange, hasReview bool) []TimelineEntry {
	changedAt := lastChanges(history)

	entries := make([]TimelineEntry, 0, len(CanonicalFlow)+2)
	current := FlowIndex(status)

	if current >= 0 {
		for i, s := range CanonicalFlow {
			state := StepPending
			switch {
			case status == models.ServiceStatusCompleted || i < current:
				state = StepDone
			case i == current:
				state = StepActive
			}
			entries = append(entries, entry(string(s), state, changedAt))
		}
	} else {
		reached := highestReached(history)
		for i, s := range CanonicalFlow {
			state := StepPending
			if i <= reached {
				state = StepDone
			}
			entries = append(entries, entry(string(s), state, changedAt))
		}
		extra := StepActive
		if status == models.ServiceStatusCanceled {
			extra = StepCanceled
		}
		entries = append(entries, entry(string(status), extra, changedAt))
	}

	if hasReview {
		entries = append(entries, TimelineEntry{Key: StepReview, Label: labelFor(StepReview), State: StepDone})
	}
	return entries
}

func entry(key string, state StepState, changedAt map[string]time.Time) TimelineEntry {
	e := TimelineEntry{Key: key, Label: labelFor(key), State: state}
	if at, ok := changedAt[key]; ok {
		e.ChangedAt = &at
	}
	return e
}

// highestReached returns the furthest canonical index present in history,
// never less than 0 since every service starts CONFIRMED.
func highestReached(history []models.StatusChange) int {
	reached := 0
	for _, h := range history {
		reached = max(reached, FlowIndex(h.ToStatus))
	}
	return reached
}

func lastChanges(history []models.StatusChange) map[string]time.Time {
	out := make(map[string]time.Time, len(history))
	for _, h := range history {
		key := string(h.ToStatus)
		if prev, ok := out[key]; !ok || h.ChangedAt.After(prev) {
			out[key] = h.ChangedAt
		}
	}
	return out
}

// LastActivity returns the most recent timestamp known for svc.
func LastActivity(svc models.ProviderService) time.Time {
	latest := svc.UpdatedAt
	if latest.IsZero() {
		latest = svc.CreatedAt
	}
	for _, h := range svc.StatusHistory {
		if h.ChangedAt.After(latest) {
			latest = h.ChangedAt
		}
	}
	return latest
}

// SortByRecentActivity returns services ordered by most recent activity
// first, ties broken by descending id. The input is not modified.
func SortByRecentActivity(in []models.ProviderService) []models.ProviderService {
	out := slices.Clone(in)
	slices.SortStableFunc(out, func(a, b models.ProviderService) int {
		if c := LastActivity(b).Compare(LastActivity(a)); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out
}
