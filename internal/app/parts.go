package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/voltmile/claimflow/internal/domain"
)

const minTrackingNumberLen = 5

// ShipPartInput is one part going into a shipment.
type ShipPartInput struct {
	PartName     string
	SerialNumber string
	Quantity     int
	Notes        string
}

// ReceivePartInput is one part as inspected on arrival.
type ReceivePartInput struct {
	PartName         string
	SerialNumber     string
	Condition        domain.PartCondition
	ReceivedQuantity int
	Notes            string
}

// ShipParts dispatches approved replacement parts. Every shipped part must
// be on the claim's approved replacement list, and shipped quantities may
// not exceed the approved ones; a violation is a validation error, never a
// silent clamp. Stock is reserved through a conditional decrement before
// the shipment is recorded.
func (s *ClaimService) ShipParts(ctx context.Context, id string, actor domain.Actor, trackingNumber string, parts []ShipPartInput) (domain.Claim, error) {
	if err := s.permit(domain.OpShipParts, actor); err != nil {
		return domain.Claim{}, err
	}
	if len(strings.TrimSpace(trackingNumber)) < minTrackingNumberLen {
		return domain.Claim{}, &domain.ValidationError{
			Field:  "trackingNumber",
			Reason: fmt.Sprintf("must be at least %d characters", minTrackingNumberLen),
		}
	}
	if len(parts) == 0 {
		return domain.Claim{}, &domain.ValidationError{Field: "parts", Reason: "shipment must contain at least one part"}
	}

	claim, err := s.load(ctx, id)
	if err != nil {
		return domain.Claim{}, err
	}

	for _, p := range parts {
		approved := claim.ApprovedQuantity(p.PartName)
		if approved == 0 {
			return domain.Claim{}, &domain.ValidationError{
				Field:  "parts",
				Reason: fmt.Sprintf("part %q is not on the approved replacement list", p.PartName),
			}
		}
		if p.Quantity <= 0 {
			return domain.Claim{}, &domain.ValidationError{
				Field:  "parts",
				Reason: fmt.Sprintf("quantity for %q must be positive", p.PartName),
			}
		}
		if p.Quantity > approved {
			return domain.Claim{}, &domain.ValidationError{
				Field:  "parts",
				Reason: fmt.Sprintf("quantity %d for %q exceeds approved quantity %d", p.Quantity, p.PartName, approved),
			}
		}
	}

	// Reserve stock only after the transition is known to be legal.
	if _, err := s.validator.Apply(ctx, claim.Status, domain.EventShipParts); err != nil {
		return domain.Claim{}, err
	}
	for _, p := range parts {
		if err := s.inventory.ReserveStock(ctx, p.PartName, p.Quantity); err != nil {
			return domain.Claim{}, fmt.Errorf("reserving stock for %q: %w", p.PartName, err)
		}
	}

	now := time.Now().UTC()
	shipment := &domain.PartsShipment{
		Status:         domain.ShipmentShipped,
		TrackingNumber: trackingNumber,
		ShippedDate:    &now,
	}
	for _, p := range parts {
		shipment.Parts = append(shipment.Parts, domain.ShipmentPart{
			PartName:     p.PartName,
			SerialNumber: p.SerialNumber,
			Quantity:     p.Quantity,
			Notes:        p.Notes,
		})
	}
	claim.PartsShipment = shipment

	if err := s.transition(ctx, &claim, domain.EventShipParts, actor, "parts shipped", "tracking "+trackingNumber); err != nil {
		return domain.Claim{}, err
	}
	return s.save(ctx, claim, domain.EventShipParts)
}

// ReceiveParts records the arrival inspection of a shipment. The decision
// is atomic over the whole batch: one damaged or defective part rejects
// the entire shipment, there is no partial acceptance.
func (s *ClaimService) ReceiveParts(ctx context.Context, id string, actor domain.Actor, receivedBy string, parts []ReceivePartInput) (domain.Claim, error) {
	if err := s.permit(domain.OpReceiveParts, actor); err != nil {
		return domain.Claim{}, err
	}
	if strings.TrimSpace(receivedBy) == "" {
		return domain.Claim{}, &domain.ValidationError{Field: "receivedBy", Reason: "must not be empty"}
	}
	if len(parts) == 0 {
		return domain.Claim{}, &domain.ValidationError{Field: "parts", Reason: "receipt must contain at least one part"}
	}

	serials := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		if !domain.ValidCondition(p.Condition) {
			return domain.Claim{}, &domain.ValidationError{
				Field:  "parts",
				Reason: fmt.Sprintf("condition %q for %q is not one of good, damaged, defective", p.Condition, p.PartName),
			}
		}
		if p.ReceivedQuantity < 0 {
			return domain.Claim{}, &domain.ValidationError{
				Field:  "parts",
				Reason: fmt.Sprintf("received quantity for %q must not be negative", p.PartName),
			}
		}
		if p.SerialNumber != "" {
			if _, dup := serials[p.SerialNumber]; dup {
				return domain.Claim{}, &domain.ValidationError{
					Field:  "parts",
					Reason: fmt.Sprintf("serial number %q appears more than once", p.SerialNumber),
				}
			}
			serials[p.SerialNumber] = struct{}{}
		}
	}

	claim, err := s.load(ctx, id)
	if err != nil {
		return domain.Claim{}, err
	}
	if claim.PartsShipment == nil {
		return domain.Claim{}, &domain.GuardError{Guard: "shipment_present", Reason: "no shipment recorded on this claim"}
	}

	accepted := true
	for _, p := range parts {
		if !p.Condition.Acceptable() {
			accepted = false
			break
		}
	}

	now := time.Now().UTC()
	shipment := claim.PartsShipment
	shipment.ReceivedDate = &now
	shipment.ReceivedBy = receivedBy
	for _, p := range parts {
		shipment.ApplyReceipt(p.PartName, p.SerialNumber, p.Condition, p.ReceivedQuantity, p.Notes)
	}

	event := domain.EventReceiveParts
	reason := "all parts received in good condition"
	if accepted {
		shipment.Status = domain.ShipmentReceived
	} else {
		shipment.Status = domain.ShipmentRejected
		event = domain.EventRejectParts
		reason = "shipment rejected: damaged or defective parts"
	}

	if err := s.transition(ctx, &claim, event, actor, reason, ""); err != nil {
		return domain.Claim{}, err
	}
	return s.save(ctx, claim, event)
}
