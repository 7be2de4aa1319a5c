// Package requests provides the client-side status model of service
// requests: which actions are legal, proposal ordering, and folding server
// responses into local state.
package requests

import (
	"errors"
	"slices"
	"time"

	"github.com/FacuTaborra/FastServices2.0-sub000/shared/models"
)

// MinProposalsToClose is the number of proposals needed to close bidding
// before the deadline.
const MinProposalsToClose = 3

var (
	ErrInvalidTransition  = errors.New("this request can no longer be changed")
	ErrNotLicitacion      = errors.New("only bidding requests can be closed")
	ErrNotEnoughProposals = errors.New("At least 3 proposals are needed to close bidding early.")
	ErrDeadlineNotReached = errors.New("bidding deadline has not been reached")
	ErrMutationInFlight   = errors.New("another change to this request is in progress")
	ErrProposalNotFound   = errors.New("proposal not found on this request")
	ErrProposalNotPending = errors.New("only pending proposals can be accepted or rejected")
	ErrNotAcceptingYet    = errors.New("proposals can be accepted once bidding is closed")
)

// Action is a client-initiated status change.
type Action string

const (
	ActionClose  Action = "close"
	ActionCancel Action = "cancel"
)

// CloseMode distinguishes a manual close from the deadline auto-close.
type CloseMode int

const (
	CloseManual CloseMode = iota
	CloseAutomatic
)

func (m CloseMode) String() string {
	if m == CloseAutomatic {
		return "automatic"
	}
	return "manual"
}

// Transition is one row of the client action table.
type Transition struct {
	Action         Action
	From           []models.RequestStatus
	To             models.RequestStatus
	LicitacionOnly bool
}

// Transitions lists every status change the client may request.
var Transitions = []Transition{
	{
		Action:         ActionClose,
		From:           []models.RequestStatus{models.RequestStatusPublished},
		To:             models.RequestStatusClosed,
		LicitacionOnly: true,
	},
	{
		Action: ActionCancel,
		From:   []models.RequestStatus{models.RequestStatusPublished, models.RequestStatusPending},
		To:     models.RequestStatusCancelled,
	},
}

// TerminalStatuses accept no client action.
var TerminalStatuses = []models.RequestStatus{
	models.RequestStatusClosed,
	models.RequestStatusCancelled,
	models.RequestStatusCompleted,
}

// IsTerminal reports whether no client action can leave status.
func IsTerminal(status models.RequestStatus) bool {
	return slices.Contains(TerminalStatuses, status)
}

// Lookup returns the transition for action.
func Lookup(action Action) (Transition, bool) {
	for _, t := range Transitions {
		if t.Action == action {
			return t, true
		}
	}
	return Transition{}, false
}

func (t Transition) allows(req models.ServiceRequest) error {
	if IsTerminal(req.Status) || !slices.Contains(t.From, req.Status) {
		return ErrInvalidTransition
	}
	if t.LicitacionOnly && !req.IsLicitacion() {
		return ErrNotLicitacion
	}
	return nil
}

// CanClose returns nil when req may be closed now. A manual close needs
// MinProposalsToClose proposals; an automatic close needs the deadline to
// have passed.
func CanClose(req models.ServiceRequest, now time.Time, mode CloseMode) error {
	t, _ := Lookup(ActionClose)
	if err := t.allows(req); err != nil {
		return err
	}
	switch mode {
	case CloseAutomatic:
		if req.BiddingDeadline == nil || now.Before(*req.BiddingDeadline) {
			return ErrDeadlineNotReached
		}
	default:
		if req.ProposalCount < MinProposalsToClose {
			return ErrNotEnoughProposals
		}
	}
	return nil
}

// CanCancel returns nil when req may be cancelled.
func CanCancel(req models.ServiceRequest) error {
	t, _ := Lookup(ActionCancel)
	return t.allows(req)
}

// AcceptsProposals reports whether providers can still submit offers.
func AcceptsProposals(req models.ServiceRequest) bool {
	return req.Status == models.RequestStatusPublished
}

// PricesVisible reports whether the client may see quoted prices. Bidding
// requests hide prices until bidding closes.
func PricesVisible(req models.ServiceRequest) bool {
	if !req.IsLicitacion() {
		return true
	}
	return req.Status == models.RequestStatusClosed
}

// CanDecideProposal returns nil when the client may accept or reject
// proposalID on req.
func CanDecideProposal(req models.ServiceRequest, proposalID int64) error {
	idx := slices.IndexFunc(req.Proposals, func(p models.Proposal) bool { return p.ID == proposalID })
	if idx < 0 {
		return ErrProposalNotFound
	}
	if req.Proposals[idx].Status != models.ProposalStatusPending {
		return ErrProposalNotPending
	}

	if req.IsLicitacion() {
		switch req.Status {
		case models.RequestStatusClosed:
			return nil
		case models.RequestStatusPublished:
			return ErrNotAcceptingYet
		default:
			return ErrInvalidTransition
		}
	}
	if req.Status != models.RequestStatusPublished {
		return ErrInvalidTransition
	}
	return nil
}
