package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProposalStatus is the status of a provider's offer.
type ProposalStatus string

const (
	ProposalStatusPending   ProposalStatus = "pending"
	ProposalStatusAccepted  ProposalStatus = "accepted"
	ProposalStatusRejected  ProposalStatus = "rejected"
	ProposalStatusWithdrawn ProposalStatus = "withdrawn"
	ProposalStatusExpired   ProposalStatus = "expired"
)

// Proposal is a provider's priced offer against a service request.
type Proposal struct {
	ID                int64           `json:"id"`
	RequestID         int64           `json:"request_id"`
	ProviderProfileID int64           `json:"provider_profile_id"`
	QuotedPrice       decimal.Decimal `json:"quoted_price"`
	Currency          string          `json:"currency"`
	Status            ProposalStatus  `json:"status"`
	Notes             string          `json:"notes,omitempty"`
	ValidUntil        *time.Time      `json:"valid_until,omitempty"`
	ProposedStartAt   *time.Time      `json:"proposed_start_at,omitempty"`
	ProposedEndAt     *time.Time      `json:"proposed_end_at,omitempty"`
	CreatedAt         time.Time       `json:"created_at,omitzero"`
}

// CreateProposal is the payload for POST /providers/me/proposals.
type CreateProposal struct {
	RequestID       int64           `json:"request_id" validate:"required,gt=0"`
	QuotedPrice     decimal.Decimal `json:"quoted_price"`
	Currency        string          `json:"currency" validate:"required,len=3,uppercase"`
	Notes           string          `json:"notes,omitempty" validate:"max=1000"`
	ProposedStartAt *time.Time      `json:"proposed_start_at,omitempty"`
	ProposedEndAt   *time.Time      `json:"proposed_end_at,omitempty"`
	ValidUntil      *time.Time      `json:"valid_until,omitempty"`
}

// AcceptProposal is the payload for accepting a proposal after checkout.
type AcceptProposal struct {
	PaymentID     string `json:"payment_id,omitempty"`
	PaymentStatus string `json:"payment_status,omitempty"`
}
