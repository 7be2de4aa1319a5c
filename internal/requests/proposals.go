package requests

import (
	"cmp"
	"slices"

	"github.com/FacuTaborra/FastServices2.0-sub000/shared/models"
)

// SortProposals returns the proposals ordered by ascending price, ties broken
// by ascending id. The input slice is not modified.
func SortProposals(in []models.Proposal) []models.Proposal {
	out := slices.Clone(in)
	slices.SortStableFunc(out, func(a, b models.Proposal) int {
		if c := a.QuotedPrice.Cmp(b.QuotedPrice); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// Winner returns the cheapest proposal of a closed request.
func Winner(req models.ServiceRequest) (models.Proposal, bool) {
	if req.Status != models.RequestStatusClosed || len(req.Proposals) == 0 {
		return models.Proposal{}, false
	}
	return SortProposals(req.Proposals)[0], true
}

// PendingFor returns the pending proposal of providerProfileID, if any.
func PendingFor(proposals []models.Proposal, requestID, providerProfileID int64) (models.Proposal, bool) {
	for _, p := range proposals {
		if p.RequestID == requestID && p.ProviderProfileID == providerProfileID && p.Status == models.ProposalStatusPending {
			return p, true
		}
	}
	return models.Proposal{}, false
}
