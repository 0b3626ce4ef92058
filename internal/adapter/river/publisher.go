package river

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/riverqueue/river"

	"github.com/voltmile/claimflow/internal/domain"
)

// Compile-time check: Publisher implements domain.EventPublisher.
var _ domain.EventPublisher = (*Publisher)(nil)

// EventJobArgs carries the data needed to process a claim lifecycle event
// asynchronously. River serializes this as JSON into its job queue table.
// It includes a snapshot of the claim at the time the event was published,
// so the worker never needs to query the database.
type EventJobArgs struct {
	Event       string `json:"event"`
	ClaimID     string `json:"claim_id"`
	ClaimNumber string `json:"claim_number"`
	VIN         string `json:"vin"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
}

// Kind returns the unique job type identifier used by River's job routing.
func (EventJobArgs) Kind() string { return "claim.event" }

// Client is the River client type parameterized for SQLite (*sql.Tx).
type Client = river.Client[*sql.Tx]

// Publisher implements domain.EventPublisher by enqueuing River jobs.
type Publisher struct {
	client *Client
}

// NewPublisher creates a publisher backed by the given River client.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// Publish enqueues a claim lifecycle event as an async job in River.
func (p *Publisher) Publish(ctx context.Context, event domain.Event, claim domain.Claim) error {
	_, err := p.client.Insert(ctx, EventJobArgs{
		Event:       string(event),
		ClaimID:     claim.ID,
		ClaimNumber: claim.ClaimNumber,
		VIN:         claim.VIN,
		Status:      string(claim.Status),
		Priority:    string(claim.Priority),
	}, nil)
	if err != nil {
		return fmt.Errorf("enqueuing event job: %w", err)
	}
	return nil
}
