package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/voltmile/claimflow/internal/domain"
)

// defaultLookupTimeout bounds the synchronous external lookups (vehicle
// registry, warranty validity). On timeout the operation fails closed: the
// claim is never mutated on an unverified fact.
const defaultLookupTimeout = 5 * time.Second

const minRejectionReasonLen = 10

// ClaimService orchestrates the warranty claim lifecycle. Every mutating
// operation is a single read-modify-write: load the claim, check the
// actor's permission, validate the transition and its guards, mutate, and
// persist with an optimistic version check. Concurrent writers lose the
// race with a ConflictError and retry.
type ClaimService struct {
	repo          domain.ClaimRepository
	validator     domain.TransitionValidator
	vehicles      domain.VehicleLookup
	warranties    domain.WarrantyLookup
	inventory     domain.PartsInventory
	publisher     domain.EventPublisher
	lookupTimeout time.Duration
}

// NewClaimService creates a service with the given adapters.
func NewClaimService(
	repo domain.ClaimRepository,
	validator domain.TransitionValidator,
	vehicles domain.VehicleLookup,
	warranties domain.WarrantyLookup,
	inventory domain.PartsInventory,
	publisher domain.EventPublisher,
) *ClaimService {
	return &ClaimService{
		repo:          repo,
		validator:     validator,
		vehicles:      vehicles,
		warranties:    warranties,
		inventory:     inventory,
		publisher:     publisher,
		lookupTimeout: defaultLookupTimeout,
	}
}

// WithLookupTimeout overrides the bound on synchronous registry and
// warranty lookups. Non-positive values keep the default.
func (s *ClaimService) WithLookupTimeout(d time.Duration) *ClaimService {
	if d > 0 {
		s.lookupTimeout = d
	}
	return s
}

// CreateClaimInput carries the intake data for a new claim.
type CreateClaimInput struct {
	VIN              string
	IssueDescription string
	IssueCategory    domain.IssueCategory
	Diagnosis        string
	Mileage          int
	Priority         domain.Priority
	PartsToReplace   []domain.PartLine
}

// Create verifies the VIN and warranty, assigns a claim number, and
// persists a new claim in the pending state.
func (s *ClaimService) Create(ctx context.Context, input CreateClaimInput, actor domain.Actor) (domain.Claim, error) {
	if err := s.permit(domain.OpCreateClaim, actor); err != nil {
		return domain.Claim{}, err
	}

	vin := strings.ToUpper(strings.TrimSpace(input.VIN))
	if len(vin) != 17 {
		return domain.Claim{}, &domain.ValidationError{Field: "vin", Reason: "must be exactly 17 characters"}
	}
	if strings.TrimSpace(input.IssueDescription) == "" {
		return domain.Claim{}, &domain.ValidationError{Field: "issueDescription", Reason: "must not be empty"}
	}
	if !domain.ValidCategory(input.IssueCategory) {
		return domain.Claim{}, &domain.ValidationError{Field: "issueCategory", Reason: fmt.Sprintf("unknown category %q", input.IssueCategory)}
	}
	if input.Priority == "" {
		input.Priority = domain.PriorityMedium
	}
	if !domain.ValidPriority(input.Priority) {
		return domain.Claim{}, &domain.ValidationError{Field: "priority", Reason: fmt.Sprintf("unknown priority %q", input.Priority)}
	}
	for _, p := range input.PartsToReplace {
		if strings.TrimSpace(p.PartName) == "" {
			return domain.Claim{}, &domain.ValidationError{Field: "partsToReplace", Reason: "part name must not be empty"}
		}
		if p.Quantity <= 0 {
			return domain.Claim{}, &domain.ValidationError{Field: "partsToReplace", Reason: fmt.Sprintf("quantity for %q must be positive", p.PartName)}
		}
	}

	lookupCtx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
	defer cancel()

	if _, err := s.vehicles.VerifyVIN(lookupCtx, vin); err != nil {
		if errors.Is(err, domain.ErrVehicleNotFound) {
			return domain.Claim{}, err
		}
		return domain.Claim{}, fmt.Errorf("verifying vin: %w", err)
	}

	warranty, err := s.warranties.ActiveWarranty(lookupCtx, vin)
	if err != nil {
		if errors.Is(err, domain.ErrNoActiveWarranty) {
			return domain.Claim{}, err
		}
		return domain.Claim{}, fmt.Errorf("checking warranty: %w", err)
	}
	if !warranty.Active(time.Now().UTC()) {
		return domain.Claim{}, domain.ErrNoActiveWarranty
	}

	number, err := s.repo.NextClaimNumber(ctx, time.Now().UTC().Year())
	if err != nil {
		return domain.Claim{}, fmt.Errorf("generating claim number: %w", err)
	}

	claim := domain.NewClaim(uuid.NewString(), number, vin, warranty.ID, actor)
	claim.IssueDescription = input.IssueDescription
	claim.IssueCategory = input.IssueCategory
	claim.Diagnosis = input.Diagnosis
	claim.Mileage = input.Mileage
	claim.Priority = input.Priority
	claim.PartsToReplace = input.PartsToReplace

	if err := s.repo.Create(ctx, claim); err != nil {
		return domain.Claim{}, fmt.Errorf("creating claim: %w", err)
	}

	if err := s.publisher.Publish(ctx, domain.EventClaimCreated, claim); err != nil {
		return domain.Claim{}, fmt.Errorf("publishing creation event: %w", err)
	}

	return claim, nil
}

// GetByID returns a claim by its store-assigned identifier.
func (s *ClaimService) GetByID(ctx context.Context, id string) (domain.Claim, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByNumber returns a claim by its human-facing claim number.
func (s *ClaimService) GetByNumber(ctx context.Context, number string) (domain.Claim, error) {
	return s.repo.GetByNumber(ctx, number)
}

// List returns claims matching the given filter.
func (s *ClaimService) List(ctx context.Context, filter domain.ListFilter) ([]domain.Claim, error) {
	return s.repo.List(ctx, filter)
}

// SubmitForReview moves a pending claim into review.
func (s *ClaimService) SubmitForReview(ctx context.Context, id string, actor domain.Actor) (domain.Claim, error) {
	if err := s.permit(domain.OpSubmitForReview, actor); err != nil {
		return domain.Claim{}, err
	}
	claim, err := s.load(ctx, id)
	if err != nil {
		return domain.Claim{}, err
	}
	if err := s.transition(ctx, &claim, domain.EventSubmitForReview, actor, "submitted for review", ""); err != nil {
		return domain.Claim{}, err
	}
	return s.save(ctx, claim, domain.EventSubmitForReview)
}

// Approve approves a claim under review. The warranty is re-checked at
// approval time: it can lapse between intake and review.
func (s *ClaimService) Approve(ctx context.Context, id string, actor domain.Actor, notes string) (domain.Claim, error) {
	if err := s.permit(domain.OpApproveClaim, actor); err != nil {
		return domain.Claim{}, err
	}
	claim, err := s.load(ctx, id)
	if err != nil {
		return domain.Claim{}, err
	}

	lookupCtx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
	defer cancel()

	warranty, err := s.warranties.ActiveWarranty(lookupCtx, claim.VIN)
	if err != nil {
		if errors.Is(err, domain.ErrNoActiveWarranty) {
			return domain.Claim{}, &domain.GuardError{Guard: "warranty_active", Reason: "no active warranty for vehicle"}
		}
		// Fail closed: an unreachable warranty registry never approves a claim.
		return domain.Claim{}, fmt.Errorf("checking warranty at approval: %w", err)
	}
	if !warranty.Active(time.Now().UTC()) {
		return domain.Claim{}, &domain.GuardError{Guard: "warranty_active", Reason: "warranty expired or inactive"}
	}

	if err := s.transition(ctx, &claim, domain.EventApprove, actor, "claim approved", notes); err != nil {
		return domain.Claim{}, err
	}

	now := time.Now().UTC()
	claim.ApprovedBy = actor.Email
	claim.ApprovedAt = &now

	return s.save(ctx, claim, domain.EventApprove)
}

// Reject rejects a claim under review. The reason is mandatory and must
// carry at least ten characters.
func (s *ClaimService) Reject(ctx context.Context, id string, actor domain.Actor, reason string) (domain.Claim, error) {
	if err := s.permit(domain.OpRejectClaim, actor); err != nil {
		return domain.Claim{}, err
	}
	if len(strings.TrimSpace(reason)) < minRejectionReasonLen {
		return domain.Claim{}, &domain.ValidationError{
			Field:  "rejectionReason",
			Reason: fmt.Sprintf("must be at least %d characters", minRejectionReasonLen),
		}
	}
	claim, err := s.load(ctx, id)
	if err != nil {
		return domain.Claim{}, err
	}
	if err := s.transition(ctx, &claim, domain.EventReject, actor, reason, ""); err != nil {
		return domain.Claim{}, err
	}

	now := time.Now().UTC()
	claim.RejectedBy = actor.Email
	claim.RejectedAt = &now
	claim.RejectionReason = reason

	return s.save(ctx, claim, domain.EventReject)
}

// Cancel cancels a claim from any non-terminal state. A reason is always
// required.
func (s *ClaimService) Cancel(ctx context.Context, id string, actor domain.Actor, reason string) (domain.Claim, error) {
	if err := s.permit(domain.OpCancelClaim, actor); err != nil {
		return domain.Claim{}, err
	}
	if strings.TrimSpace(reason) == "" {
		return domain.Claim{}, &domain.ValidationError{Field: "reason", Reason: "cancellation requires a reason"}
	}
	claim, err := s.load(ctx, id)
	if err != nil {
		return domain.Claim{}, err
	}
	if err := s.transition(ctx, &claim, domain.EventCancel, actor, reason, ""); err != nil {
		return domain.Claim{}, err
	}
	return s.save(ctx, claim, domain.EventCancel)
}

// AddApprovalNote appends a reviewer note without changing status.
func (s *ClaimService) AddApprovalNote(ctx context.Context, id string, actor domain.Actor, note string) (domain.Claim, error) {
	if err := s.permit(domain.OpAddApprovalNote, actor); err != nil {
		return domain.Claim{}, err
	}
	if strings.TrimSpace(note) == "" {
		return domain.Claim{}, &domain.ValidationError{Field: "note", Reason: "must not be empty"}
	}
	claim, err := s.load(ctx, id)
	if err != nil {
		return domain.Claim{}, err
	}

	claim.ApprovalNotes = append(claim.ApprovalNotes, domain.ApprovalNote{
		Note:    note,
		AddedBy: actor.Email,
		AddedAt: time.Now().UTC(),
	})
	claim.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, claim); err != nil {
		return domain.Claim{}, fmt.Errorf("updating claim: %w", err)
	}
	return claim, nil
}

// AddAttachment records a file reference held in the external file store.
func (s *ClaimService) AddAttachment(ctx context.Context, id string, actor domain.Actor, att domain.Attachment) (domain.Claim, error) {
	if err := s.permit(domain.OpAddAttachment, actor); err != nil {
		return domain.Claim{}, err
	}
	if strings.TrimSpace(att.FileName) == "" {
		return domain.Claim{}, &domain.ValidationError{Field: "fileName", Reason: "must not be empty"}
	}
	if strings.TrimSpace(att.FileURL) == "" {
		return domain.Claim{}, &domain.ValidationError{Field: "fileUrl", Reason: "must not be empty"}
	}
	claim, err := s.load(ctx, id)
	if err != nil {
		return domain.Claim{}, err
	}

	att.UploadedBy = actor.Email
	att.UploadedAt = time.Now().UTC()
	claim.Attachments = append(claim.Attachments, att)
	claim.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, claim); err != nil {
		return domain.Claim{}, fmt.Errorf("updating claim: %w", err)
	}
	return claim, nil
}

// --- shared plumbing ---

// permit consults the central permission table.
func (s *ClaimService) permit(op domain.Operation, actor domain.Actor) error {
	if !domain.Allowed(op, actor.Role) {
		return &domain.PermissionError{Operation: op, Role: actor.Role}
	}
	return nil
}

// load fetches a claim and refuses any mutation of a closed one.
func (s *ClaimService) load(ctx context.Context, id string) (domain.Claim, error) {
	claim, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Claim{}, err
	}
	if claim.Closed() {
		return domain.Claim{}, &domain.ClaimClosedError{ClaimNumber: claim.ClaimNumber}
	}
	return claim, nil
}

// transition validates the event against the claim's current status and,
// on success, applies the status change and its audit entry in one step.
func (s *ClaimService) transition(ctx context.Context, claim *domain.Claim, event domain.Event, actor domain.Actor, reason, notes string) error {
	next, err := s.validator.Apply(ctx, claim.Status, event)
	if err != nil {
		return err
	}
	claim.SetStatus(next, actor, reason, notes)
	return nil
}

// save persists the mutated claim and publishes the lifecycle event.
func (s *ClaimService) save(ctx context.Context, claim domain.Claim, event domain.Event) (domain.Claim, error) {
	if err := s.repo.Update(ctx, claim); err != nil {
		return domain.Claim{}, fmt.Errorf("updating claim: %w", err)
	}
	if err := s.publisher.Publish(ctx, event, claim); err != nil {
		return domain.Claim{}, fmt.Errorf("publishing event %q: %w", event, err)
	}
	return claim, nil
}
