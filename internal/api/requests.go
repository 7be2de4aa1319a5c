package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/FacuTaborra/FastServices2.0-sub000/shared/models"
)

// CreateServiceRequest publishes a new service request.
func (c *Client) CreateServiceRequest(ctx context.Context, in models.CreateServiceRequest) (models.ServiceRequest, error) {
	if in.Attachments == nil {
		in.Attachments = []models.Attachment{}
	}
	var out models.ServiceRequest
	err := c.doJSON(ctx, http.MethodPost, "/service-requests", in, &out, true)
	return out, err
}

// ListActiveRequests returns the client's requests that are not finished.
func (c *Client) ListActiveRequests(ctx context.Context) ([]models.ServiceRequest, error) {
	var out []models.ServiceRequest
	if err := c.doJSON(ctx, http.MethodGet, "/service-requests/active", nil, &out, true); err != nil {
		return nil, err
	}
	return out, nil
}

// GetServiceRequest fetches one request with its proposals.
func (c *Client) GetServiceRequest(ctx context.Context, id int64) (models.ServiceRequest, error) {
	var out models.ServiceRequest
	err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/service-requests/%d", id), nil, &out, true)
	return out, err
}

// UpdateServiceRequest patches a request, used for close and cancel. The
// response body is returned as sent.
func (c *Client) UpdateServiceRequest(ctx context.Context, id int64, in models.UpdateServiceRequest) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.doJSON(ctx, http.MethodPatch, fmt.Sprintf("/service-requests/%d", id), in, &out, true)
	return out, err
}

// AcceptProposal accepts a proposal on one of the client's requests.
func (c *Client) AcceptProposal(ctx context.Context, requestID, proposalID int64, in models.AcceptProposal) (json.RawMessage, error) {
	var out json.RawMessage
	path := fmt.Sprintf("/service-requests/%d/proposals/%d/accept", requestID, proposalID)
	err := c.doJSON(ctx, http.MethodPost, path, in, &out, true)
	return out, err
}

// RejectProposal rejects a proposal on one of the client's requests.
func (c *Client) RejectProposal(ctx context.Context, requestID, proposalID int64) (json.RawMessage, error) {
	var out json.RawMessage
	path := fmt.Sprintf("/service-requests/%d/proposals/%d/reject", requestID, proposalID)
	err := c.doJSON(ctx, http.MethodPost, path, nil, &out, true)
	return out, err
}
