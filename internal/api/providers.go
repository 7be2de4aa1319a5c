package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/FacuTaborra/FastServices2.0-sub000/shared/models"
)

// CreateProposal submits a provider's offer.
func (c *Client) CreateProposal(ctx context.Context, in models.CreateProposal) (models.Proposal, error) {
	var out models.Proposal
	err := c.doJSON(ctx, http.MethodPost, "/providers/me/proposals", in, &out, true)
	return out, err
}

// ListMatchingRequests returns published requests the provider can bid on.
func (c *Client) ListMatchingRequests(ctx context.Context) ([]models.ServiceRequest, error) {
	var out []models.ServiceRequest
	if err := c.doJSON(ctx, http.MethodGet, "/providers/me/matching-requests", nil, &out, true); err != nil {
		return nil, err
	}
	return out, nil
}

// ListMyProposals returns the provider's proposals.
func (c *Client) ListMyProposals(ctx context.Context) ([]models.Proposal, error) {
	var out []models.Proposal
	if err := c.doJSON(ctx, http.MethodGet, "/providers/me/proposals", nil, &out, true); err != nil {
		return nil, err
	}
	return out, nil
}

// ListMyServices returns the provider's confirmed services.
func (c *Client) ListMyServices(ctx context.Context) ([]models.ProviderService, error) {
	var out []models.ProviderService
	if err := c.doJSON(ctx, http.MethodGet, "/providers/me/services", nil, &out, true); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkOnRoute moves a service from CONFIRMED to ON_ROUTE.
func (c *Client) MarkOnRoute(ctx context.Context, serviceID int64) (json.RawMessage, error) {
	return c.markService(ctx, serviceID, "mark-on-route")
}

// MarkInProgress moves a service from ON_ROUTE to IN_PROGRESS.
func (c *Client) MarkInProgress(ctx context.Context, serviceID int64) (json.RawMessage, error) {
	return c.markService(ctx, serviceID, "mark-in-progress")
}

// MarkCompleted moves a service from IN_PROGRESS to COMPLETED.
func (c *Client) MarkCompleted(ctx context.Context, serviceID int64) (json.RawMessage, error) {
	return c.markService(ctx, serviceID, "mark-completed")
}

func (c *Client) markService(ctx context.Context, serviceID int64, action string) (json.RawMessage, error) {
	var out json.RawMessage
	path := fmt.Sprintf("/providers/me/services/%d/%s", serviceID, action)
	err := c.doJSON(ctx, http.MethodPost, path, nil, &out, true)
	return out, err
}
