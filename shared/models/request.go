// Package models provides shared data types for the FastServices client tools.
package models

import "time"

// RequestType is the kind of service request a client publishes.
type RequestType string

const (
	RequestTypeFast       RequestType = "FAST"
	RequestTypeFastMatch  RequestType = "FAST_MATCH"
	RequestTypeLicitacion RequestType = "LICITACION"
	RequestTypeBudget     RequestType = "BUDGET"
)

// IsFast reports whether proposals for this type skip scheduling and validity fields.
func (t RequestType) IsFast() bool {
	return t == RequestTypeFast || t == RequestTypeFastMatch
}

// RequestStatus is the lifecycle status of a service request.
type RequestStatus string

const (
	RequestStatusPending    RequestStatus = "PENDING"
	RequestStatusPublished  RequestStatus = "PUBLISHED"
	RequestStatusMatched    RequestStatus = "MATCHED"
	RequestStatusInProgress RequestStatus = "IN_PROGRESS"
	RequestStatusCompleted  RequestStatus = "COMPLETED"
	RequestStatusCancelled  RequestStatus = "CANCELLED"
	RequestStatusClosed     RequestStatus = "CLOSED"
)

// ServiceRequest is a client's request for a service, as returned by the backend.
type ServiceRequest struct {
	ID          int64         `json:"id"`
	ClientID    int64         `json:"client_id,omitempty"`
	Title       string        `json:"title,omitempty"`
	Description string        `json:"description,omitempty"`
	RequestType RequestType   `json:"request_type,omitempty"`
	Status      RequestStatus `json:"status,omitempty"`
	AddressID   int64         `json:"address_id,omitempty"`

	PreferredStartAt *time.Time `json:"preferred_start_at,omitempty"`
	PreferredEndAt   *time.Time `json:"preferred_end_at,omitempty"`
	BiddingDeadline  *time.Time `json:"bidding_deadline,omitempty"`

	ProposalCount int          `json:"proposal_count"`
	Proposals     []Proposal   `json:"proposals"`
	Attachments   []Attachment `json:"attachments,omitempty"`

	CreatedAt time.Time `json:"created_at,omitzero"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// IsLicitacion reports whether the request is a bidding request.
func (r *ServiceRequest) IsLicitacion() bool {
	return r.RequestType == RequestTypeLicitacion
}

// CreateServiceRequest is the payload for POST /service-requests.
type CreateServiceRequest struct {
	Title            string       `json:"title" validate:"required,max=200"`
	Description      string       `json:"description,omitempty" validate:"max=4000"`
	RequestType      RequestType  `json:"request_type" validate:"required,oneof=FAST FAST_MATCH LICITACION BUDGET"`
	AddressID        int64        `json:"address_id" validate:"required,gt=0"`
	PreferredStartAt *time.Time   `json:"preferred_start_at,omitempty"`
	PreferredEndAt   *time.Time   `json:"preferred_end_at,omitempty"`
	BiddingDeadline  *time.Time   `json:"bidding_deadline,omitempty"`
	Attachments      []Attachment `json:"attachments"`
}

// UpdateServiceRequest is the payload for PATCH /service-requests/{id}.
type UpdateServiceRequest struct {
	Status *RequestStatus `json:"status,omitempty"`
}
