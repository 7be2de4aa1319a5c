package models

import "time"

// ServiceStatus is the execution status of a confirmed service.
type ServiceStatus string

const (
	ServiceStatusConfirmed  ServiceStatus = "CONFIRMED"
	ServiceStatusOnRoute    ServiceStatus = "ON_ROUTE"
	ServiceStatusInProgress ServiceStatus = "IN_PROGRESS"
	ServiceStatusCompleted  ServiceStatus = "COMPLETED"
	ServiceStatusCanceled   ServiceStatus = "CANCELED"
)

// StatusChange is one append-only entry of a service's status history.
type StatusChange struct {
	ToStatus  ServiceStatus `json:"to_status"`
	ChangedAt time.Time     `json:"changed_at"`
}

// Review is the client's review of a finished service.
type Review struct {
	ID        int64     `json:"id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// ProviderService is the unit of work created once a proposal is accepted.
type ProviderService struct {
	ID         int64         `json:"id"`
	RequestID  int64         `json:"request_id"`
	ProposalID int64         `json:"proposal_id,omitempty"`
	Status     ServiceStatus `json:"status,omitempty"`

	ScheduledStartAt *time.Time `json:"scheduled_start_at,omitempty"`
	ScheduledEndAt   *time.Time `json:"scheduled_end_at,omitempty"`

	StatusHistory []StatusChange `json:"status_history,omitempty"`
	Review        *Review        `json:"client_review,omitempty"`

	CreatedAt time.Time `json:"created_at,omitzero"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}
