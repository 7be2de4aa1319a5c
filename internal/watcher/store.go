package watcher

import (
	"context"
	"fmt"
	"time"

	"github.com/FacuTaborra/FastServices2.0-sub000/shared/db"
)

// Schema creates the table backing Store.
const Schema = `
CREATE TABLE IF NOT EXISTS autoclose_events (
	id             BIGSERIAL PRIMARY KEY,
	request_id     BIGINT NOT NULL,
	outcome        TEXT NOT NULL,
	proposal_count INT NOT NULL DEFAULT 0,
	error          TEXT NOT NULL DEFAULT '',
	occurred_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// Outcome is the result of one automatic close attempt.
type Outcome string

const (
	OutcomeClosed Outcome = "closed"
	OutcomeFailed Outcome = "failed"
)

// Event is one recorded auto-close attempt.
type Event struct {
	ID            int64
	RequestID     int64
	Outcome       Outcome
	ProposalCount int
	Error         string
	OccurredAt    time.Time
}

// Recorder persists auto-close attempts.
type Recorder interface {
	RecordEvent(ctx context.Context, e Event) error
}

// Store handles all database operations for the watcher.
type Store struct {
	db db.Querier
}

var _ Recorder = (*Store)(nil)

// NewStore creates a new Store.
func NewStore(q db.Querier) *Store {
	return &Store{db: q}
}

// RecordEvent appends an auto-close attempt to the audit log.
func (s *Store) RecordEvent(ctx context.Context, e Event) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO autoclose_events (request_id, outcome, proposal_count, error, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
	`, e.RequestID, string(e.Outcome), e.ProposalCount, e.Error, e.OccurredAt)
	if err != nil {
		return fmt.Errorf("insert autoclose event failed: %w", err)
	}
	return nil
}

// RecentEvents returns the latest events, newest first.
func (s *Store) RecentEvents(ctx context.Context, limit int) ([]Event, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, request_id, outcome, proposal_count, error, occurred_at
		FROM autoclose_events
		ORDER BY occurred_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query autoclose events failed: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var outcome string
		if err := rows.Scan(&e.ID, &e.RequestID, &outcome, &e.ProposalCount, &e.Error, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan autoclose event failed: %w", err)
		}
		e.Outcome = Outcome(outcome)
		events = append(events, e)
	}
	return events, rows.Err()
}
