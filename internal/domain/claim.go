package domain

import (
	"strings"
	"time"
)

// Status represents the lifecycle state of a warranty claim.
type Status string

const (
	StatusPending          Status = "pending"
	StatusUnderReview      Status = "under_review"
	StatusApproved         Status = "approved"
	StatusRejected         Status = "rejected"
	StatusPartsShipped     Status = "parts_shipped"
	StatusPartsReceived    Status = "parts_received"
	StatusPartsRejected    Status = "parts_rejected"
	StatusRepairInProgress Status = "repair_in_progress"
	StatusRepairOnHold     Status = "repair_on_hold"
	StatusRepairCompleted  Status = "repair_completed"
	StatusUploadingResults Status = "uploading_results"
	StatusReadyForHandover Status = "ready_for_handover"
	StatusHandedOver       Status = "handed_over"
	StatusCompleted        Status = "completed"
	StatusCancelled        Status = "cancelled"
)

// Deprecated input aliases carried for backward compatibility with the
// legacy claim API. They are normalized on input and never stored.
const (
	StatusAliasInProgress Status = "in_progress"
	StatusAliasClosed     Status = "closed"
)

// CanonicalStatus normalizes deprecated aliases to their canonical state.
func CanonicalStatus(s Status) Status {
	switch s {
	case StatusAliasInProgress:
		return StatusRepairInProgress
	case StatusAliasClosed:
		return StatusCompleted
	}
	return s
}

// IsTerminal reports whether no further transitions are allowed from s.
func IsTerminal(s Status) bool {
	switch CanonicalStatus(s) {
	case StatusRejected, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Event represents an action that triggers a claim state transition.
type Event string

const (
	EventSubmitForReview Event = "submit_for_review"
	EventApprove         Event = "approve"
	EventReject          Event = "reject"
	EventShipParts       Event = "ship_parts"
	EventReceiveParts    Event = "receive_parts"
	EventRejectParts     Event = "reject_parts"
	EventStartRepair     Event = "start_repair"
	EventHoldRepair      Event = "hold_repair"
	EventResumeRepair    Event = "resume_repair"
	EventCompleteRepair  Event = "complete_repair"
	EventUploadResults   Event = "upload_results"
	EventReadyHandover   Event = "ready_for_handover"
	EventHandOver        Event = "hand_over"
	EventClose           Event = "close"
	EventCancel          Event = "cancel"

	// EventClaimCreated is notification-only: it is published when a claim
	// is created but never appears in the transitions table.
	EventClaimCreated Event = "claim_created"
)

// Transition defines a valid state change: an event moves a claim from Src to Dst.
type Transition struct {
	Event Event
	Src   Status
	Dst   Status
}

// Transitions defines all valid state changes in the claim lifecycle.
// This is domain knowledge consumed by the FSM adapter. Cancellation is
// the guarded escape hatch: allowed from every non-terminal state.
var Transitions = buildTransitions()

func buildTransitions() []Transition {
	out := []Transition{
		{Event: EventSubmitForReview, Src: StatusPending, Dst: StatusUnderReview},
		{Event: EventApprove, Src: StatusUnderReview, Dst: StatusApproved},
		{Event: EventReject, Src: StatusUnderReview, Dst: StatusRejected},
		{Event: EventShipParts, Src: StatusApproved, Dst: StatusPartsShipped},
		{Event: EventReceiveParts, Src: StatusPartsShipped, Dst: StatusPartsReceived},
		{Event: EventRejectParts, Src: StatusPartsShipped, Dst: StatusPartsRejected},
		{Event: EventStartRepair, Src: StatusPartsReceived, Dst: StatusRepairInProgress},
		{Event: EventHoldRepair, Src: StatusRepairInProgress, Dst: StatusRepairOnHold},
		{Event: EventResumeRepair, Src: StatusRepairOnHold, Dst: StatusRepairInProgress},
		{Event: EventCompleteRepair, Src: StatusRepairInProgress, Dst: StatusRepairCompleted},
		{Event: EventUploadResults, Src: StatusRepairCompleted, Dst: StatusUploadingResults},
		{Event: EventReadyHandover, Src: StatusUploadingResults, Dst: StatusReadyForHandover},
		{Event: EventHandOver, Src: StatusReadyForHandover, Dst: StatusHandedOver},
		{Event: EventClose, Src: StatusHandedOver, Dst: StatusCompleted},
	}
	for _, s := range []Status{
		StatusPending, StatusUnderReview, StatusApproved,
		StatusPartsShipped, StatusPartsReceived, StatusPartsRejected,
		StatusRepairInProgress, StatusRepairOnHold, StatusRepairCompleted,
		StatusUploadingResults, StatusReadyForHandover, StatusHandedOver,
	} {
		out = append(out, Transition{Event: EventCancel, Src: s, Dst: StatusCancelled})
	}
	return out
}

// IssueCategory classifies the reported defect at intake.
type IssueCategory string

const (
	CategoryBattery    IssueCategory = "battery"
	CategoryMotor      IssueCategory = "motor"
	CategoryElectrical IssueCategory = "electrical"
	CategoryMechanical IssueCategory = "mechanical"
	CategorySoftware   IssueCategory = "software"
	CategoryOther      IssueCategory = "other"
)

// ValidCategory reports whether c is one of the defined issue categories.
func ValidCategory(c IssueCategory) bool {
	switch c {
	case CategoryBattery, CategoryMotor, CategoryElectrical,
		CategoryMechanical, CategorySoftware, CategoryOther:
		return true
	}
	return false
}

// Priority ranks how urgently a claim should be worked.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// ValidPriority reports whether p is one of the defined priorities.
func ValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Role identifies the kind of actor invoking an operation. Authentication
// happens upstream; the engine only consults the role for permission gates.
type Role string

const (
	RoleCustomer     Role = "customer"
	RoleServiceStaff Role = "service_staff"
	RoleTechnician   Role = "technician"
	RoleAdmin        Role = "admin"
)

// Actor is the already-authenticated identity performing an operation.
type Actor struct {
	Email string
	Role  Role
}

// StatusChange is one immutable entry in a claim's audit trail.
type StatusChange struct {
	Status    Status
	ChangedAt time.Time
	ChangedBy string
	Reason    string
	Notes     string
}

// PartLine is one approved replacement part requested at intake.
type PartLine struct {
	PartName      string
	Quantity      int
	Reason        string
	EstimatedCost float64
}

// ApprovalNote is a free-form reviewer note attached during review.
type ApprovalNote struct {
	Note    string
	AddedBy string
	AddedAt time.Time
}

// Attachment references a file held in the external file store. The engine
// keeps metadata only; the URL points at the store.
type Attachment struct {
	FileName       string
	FileURL        string
	FileType       string
	AttachmentType string
	UploadedBy     string
	UploadedAt     time.Time
}

// Claim is the aggregate root: a single warranty repair request tied to one
// VIN and one warranty activation. It exclusively owns its sub-records;
// VIN and WarrantyActivationID are lookup keys into external systems.
type Claim struct {
	ID                   string
	ClaimNumber          string
	VIN                  string
	WarrantyActivationID string

	IssueDescription string
	IssueCategory    IssueCategory
	Diagnosis        string
	Mileage          int
	Priority         Priority
	PartsToReplace   []PartLine

	Status        Status
	StatusHistory []StatusChange

	PartsShipment  *PartsShipment
	RepairProgress *RepairProgress
	Results        *WarrantyResults

	ApprovedBy      string
	ApprovedAt      *time.Time
	RejectedBy      string
	RejectedAt      *time.Time
	RejectionReason string
	ApprovalNotes   []ApprovalNote
	Attachments     []Attachment

	// Version supports optimistic concurrency: the store refuses an update
	// whose version does not match the stored row.
	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewClaim creates a claim in the initial "pending" state with the opening
// audit entry already in place.
func NewClaim(id, number, vin, warrantyActivationID string, actor Actor) Claim {
	now := time.Now().UTC()
	return Claim{
		ID:                   id,
		ClaimNumber:          number,
		VIN:                  strings.ToUpper(vin),
		WarrantyActivationID: warrantyActivationID,
		Status:               StatusPending,
		StatusHistory: []StatusChange{{
			Status:    StatusPending,
			ChangedAt: now,
			ChangedBy: actor.Email,
			Reason:    "claim created",
		}},
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SetStatus moves the claim to a new status and appends the matching audit
// entry in one step, so status and history can never drift apart. It does
// not validate the transition; callers go through the TransitionValidator
// first.
func (c *Claim) SetStatus(status Status, actor Actor, reason, notes string) {
	now := time.Now().UTC()
	c.Status = status
	c.StatusHistory = append(c.StatusHistory, StatusChange{
		Status:    status,
		ChangedAt: now,
		ChangedBy: actor.Email,
		Reason:    reason,
		Notes:     notes,
	})
	c.UpdatedAt = now
}

// ApprovedQuantity returns the approved quantity for a named part, or 0 if
// the part is not on the claim's replacement list.
func (c *Claim) ApprovedQuantity(partName string) int {
	for _, p := range c.PartsToReplace {
		if p.PartName == partName {
			return p.Quantity
		}
	}
	return 0
}

// Closed reports whether the claim has reached its permanent terminal
// state; closed claims refuse every further mutation.
func (c *Claim) Closed() bool {
	return c.Status == StatusCompleted
}
