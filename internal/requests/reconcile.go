package requests

import (
	"bytes"
	"encoding/json"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch/v5"

	"github.com/FacuTaborra/FastServices2.0-sub000/shared/models"
)

// Reconcile folds a raw server response over local state. Every field the
// server sends wins, including empty lists and zero counts; fields it leaves
// out keep their local value. An empty or null body leaves local unchanged.
func Reconcile(local models.ServiceRequest, server json.RawMessage) (models.ServiceRequest, error) {
	if isEmptyBody(server) {
		return local, nil
	}
	localJSON, err := json.Marshal(local)
	if err != nil {
		return local, fmt.Errorf("failed to encode local request: %w", err)
	}

	merged, err := jsonpatch.MergePatch(localJSON, server)
	if err != nil {
		return local, fmt.Errorf("failed to merge request: %w", err)
	}

	var out models.ServiceRequest
	if err := json.Unmarshal(merged, &out); err != nil {
		return local, fmt.Errorf("failed to decode merged request: %w", err)
	}
	return out, nil
}

// ReconcileFetched folds a complete server copy, as returned by a GET or list
// call, over local state.
func ReconcileFetched(local, server models.ServiceRequest) (models.ServiceRequest, error) {
	raw, err := json.Marshal(server)
	if err != nil {
		return local, fmt.Errorf("failed to encode server request: %w", err)
	}
	return Reconcile(local, raw)
}

// closedFields is the part of a close response that replaces local bidding
// state outright.
type closedFields struct {
	ProposalCount int               `json:"proposal_count"`
	Proposals     []models.Proposal `json:"proposals"`
}

// foldClosed sets the proposal list and count from a close response,
// defaulting to empty and 0 when the server leaves them out.
func foldClosed(req models.ServiceRequest, server json.RawMessage) (models.ServiceRequest, error) {
	var f closedFields
	if !isEmptyBody(server) {
		if err := json.Unmarshal(server, &f); err != nil {
			return req, fmt.Errorf("failed to decode close response: %w", err)
		}
	}
	if f.Proposals == nil {
		f.Proposals = []models.Proposal{}
	}
	req.ProposalCount = f.ProposalCount
	req.Proposals = f.Proposals
	req.Status = models.RequestStatusClosed
	return req, nil
}

func isEmptyBody(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
