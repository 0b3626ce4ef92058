package domain

import "time"

// RepairStatus tracks the repair sub-workflow.
type RepairStatus string

const (
	RepairNotStarted RepairStatus = "not_started"
	RepairInProgress RepairStatus = "in_progress"
	RepairOnHold     RepairStatus = "on_hold"
	RepairDone       RepairStatus = "completed"
)

// StepType identifies one of the fixed repair progress steps. Each type is
// tracked independently; re-submitting a step updates it in place.
type StepType string

const (
	StepDiagnosis    StepType = "diagnosis"
	StepRemoval      StepType = "removal"
	StepInstallation StepType = "installation"
	StepTesting      StepType = "testing"
	StepQualityCheck StepType = "quality_check"
)

// ValidStepType reports whether t is one of the defined step types.
func ValidStepType(t StepType) bool {
	switch t {
	case StepDiagnosis, StepRemoval, StepInstallation, StepTesting, StepQualityCheck:
		return true
	}
	return false
}

// StepStatus is the per-step progress marker.
type StepStatus string

const (
	StepPending    StepStatus = "pending"
	StepInProgress StepStatus = "in_progress"
	StepCompleted  StepStatus = "completed"
)

// ValidStepStatus reports whether s is one of the defined step statuses.
func ValidStepStatus(s StepStatus) bool {
	switch s {
	case StepPending, StepInProgress, StepCompleted:
		return true
	}
	return false
}

// ProgressStep records one technician work step.
type ProgressStep struct {
	StepType    StepType
	Status      StepStatus
	StartedAt   *time.Time
	CompletedAt *time.Time
	Notes       string
	PerformedBy string
}

// IssueSeverity ranks a reported repair issue.
type IssueSeverity string

const (
	SeverityLow      IssueSeverity = "low"
	SeverityMedium   IssueSeverity = "medium"
	SeverityHigh     IssueSeverity = "high"
	SeverityCritical IssueSeverity = "critical"
)

// ValidSeverity reports whether s is one of the defined severities.
func ValidSeverity(s IssueSeverity) bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Blocking reports whether an unresolved issue of this severity holds the
// repair: critical and high issues park the claim in repair_on_hold.
func (s IssueSeverity) Blocking() bool {
	return s == SeverityCritical || s == SeverityHigh
}

// IssueStatus tracks a reported issue to resolution.
type IssueStatus string

const (
	IssueOpen     IssueStatus = "open"
	IssueResolved IssueStatus = "resolved"
)

// RepairIssue is one problem reported during repair.
type RepairIssue struct {
	ID          string
	IssueType   string
	Severity    IssueSeverity
	Description string
	Status      IssueStatus
	ReportedAt  time.Time
	ReportedBy  string
	ResolvedAt  *time.Time
	ResolvedBy  string
	Resolution  string
}

// QualityCheck records the final pass/fail verification before a repair
// can complete.
type QualityCheck struct {
	Performed   bool
	PerformedAt *time.Time
	PerformedBy string
	Passed      bool
	Notes       string
	Checklist   []string
}

// RepairProgress is the sub-record tracking technician work on a claim.
// Owned exclusively by the claim.
type RepairProgress struct {
	Status                  RepairStatus
	AssignedTechnician      string
	StartDate               *time.Time
	EstimatedCompletionDate *time.Time
	ActualCompletionDate    *time.Time
	Steps                   []ProgressStep
	Issues                  []RepairIssue
	QualityCheck            QualityCheck
	TotalLaborHours         float64
	TotalCost               float64
}

// UpsertStep updates the step of the given type in place, or appends it if
// this is the first report for that type.
func (r *RepairProgress) UpsertStep(step ProgressStep) {
	for i := range r.Steps {
		if r.Steps[i].StepType == step.StepType {
			if step.StartedAt == nil {
				step.StartedAt = r.Steps[i].StartedAt
			}
			r.Steps[i] = step
			return
		}
	}
	r.Steps = append(r.Steps, step)
}

// OpenBlockingIssues returns the unresolved issues severe enough to hold
// the repair.
func (r *RepairProgress) OpenBlockingIssues() []RepairIssue {
	var out []RepairIssue
	for _, is := range r.Issues {
		if is.Status != IssueResolved && is.Severity.Blocking() {
			out = append(out, is)
		}
	}
	return out
}

// FindIssue returns a pointer to the issue with the given id, or nil.
func (r *RepairProgress) FindIssue(id string) *RepairIssue {
	for i := range r.Issues {
		if r.Issues[i].ID == id {
			return &r.Issues[i]
		}
	}
	return nil
}
