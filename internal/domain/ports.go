package domain

import (
	"context"
	"time"
)

// ClaimRepository defines the persistence contract for claims. Update must
// be atomic over the claim row and its appended history entries, and must
// return ConflictError when the stored version differs from claim.Version.
type ClaimRepository interface {
	Create(ctx context.Context, claim Claim) error
	GetByID(ctx context.Context, id string) (Claim, error)
	GetByNumber(ctx context.Context, number string) (Claim, error)
	List(ctx context.Context, filter ListFilter) ([]Claim, error)
	Update(ctx context.Context, claim Claim) error
	NextClaimNumber(ctx context.Context, year int) (string, error)
}

// ListFilter holds optional criteria for listing claims.
type ListFilter struct {
	Status   *Status
	VIN      string
	Priority *Priority
	Limit    int
	Offset   int
}

// TransitionValidator decides whether an event is legal from the current
// status and returns the destination status.
type TransitionValidator interface {
	Apply(ctx context.Context, current Status, event Event) (Status, error)
}

// VehicleRecord is the external registry's view of a vehicle.
type VehicleRecord struct {
	VIN   string
	Model string
	Year  int
}

// VehicleLookup proves a VIN is registered. Consulted at claim creation.
type VehicleLookup interface {
	VerifyVIN(ctx context.Context, vin string) (VehicleRecord, error)
}

// WarrantyActivation is the grant that authorizes warranty work on a VIN.
type WarrantyActivation struct {
	ID              string
	VIN             string
	WarrantyEndDate time.Time
	Status          string
}

// Active reports whether the warranty covers work performed at t.
func (w WarrantyActivation) Active(t time.Time) bool {
	return w.Status == "active" && t.Before(w.WarrantyEndDate)
}

// WarrantyLookup returns the active warranty for a VIN, or
// ErrNoActiveWarranty. Consulted at creation and again at approval;
// warranties can lapse between the two.
type WarrantyLookup interface {
	ActiveWarranty(ctx context.Context, vin string) (WarrantyActivation, error)
}

// PartsInventory reserves replacement-part stock. ReserveStock must be a
// conditional decrement (available >= requested) so concurrent shipments
// cannot oversell; it returns ErrInsufficientStock otherwise.
type PartsInventory interface {
	ReserveStock(ctx context.Context, partName string, quantity int) error
}

// EventPublisher defines the contract for emitting claim lifecycle events.
type EventPublisher interface {
	Publish(ctx context.Context, event Event, claim Claim) error
}
