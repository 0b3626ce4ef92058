package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/voltmile/claimflow/internal/domain"
)

// StartRepair assigns a technician and opens the repair sub-workflow.
func (s *ClaimService) StartRepair(ctx context.Context, id string, actor domain.Actor, technician string, estimatedCompletion *time.Time) (domain.Claim, error) {
	if err := s.permit(domain.OpStartRepair, actor); err != nil {
		return domain.Claim{}, err
	}
	if strings.TrimSpace(technician) == "" {
		return domain.Claim{}, &domain.ValidationError{Field: "assignedTechnician", Reason: "repair requires an assigned technician"}
	}

	claim, err := s.load(ctx, id)
	if err != nil {
		return domain.Claim{}, err
	}

	now := time.Now().UTC()
	claim.RepairProgress = &domain.RepairProgress{
		Status:                  domain.RepairInProgress,
		AssignedTechnician:      technician,
		StartDate:               &now,
		EstimatedCompletionDate: estimatedCompletion,
	}

	if err := s.transition(ctx, &claim, domain.EventStartRepair, actor, "repair started", "technician "+technician); err != nil {
		return domain.Claim{}, err
	}
	return s.save(ctx, claim, domain.EventStartRepair)
}

// UpdateProgressStep records technician progress on one of the fixed step
// types. Steps are idempotent per type: re-submitting a step updates it in
// place instead of duplicating it. The claim status does not change.
func (s *ClaimService) UpdateProgressStep(ctx context.Context, id string, actor domain.Actor, stepType domain.StepType, status domain.StepStatus, notes string) (domain.Claim, error) {
	if err := s.permit(domain.OpUpdateProgressStep, actor); err != nil {
		return domain.Claim{}, err
	}
	if !domain.ValidStepType(stepType) {
		return domain.Claim{}, &domain.ValidationError{Field: "stepType", Reason: fmt.Sprintf("unknown step type %q", stepType)}
	}
	if !domain.ValidStepStatus(status) {
		return domain.Claim{}, &domain.ValidationError{Field: "status", Reason: fmt.Sprintf("unknown step status %q", status)}
	}

	claim, err := s.load(ctx, id)
	if err != nil {
		return domain.Claim{}, err
	}
	if err := s.repairActive(&claim); err != nil {
		return domain.Claim{}, err
	}

	now := time.Now().UTC()
	step := domain.ProgressStep{
		StepType:    stepType,
		Status:      status,
		Notes:       notes,
		PerformedBy: actor.Email,
	}
	if status != domain.StepPending {
		step.StartedAt = &now
	}
	if status == domain.StepCompleted {
		step.CompletedAt = &now
	}
	claim.RepairProgress.UpsertStep(step)
	claim.UpdatedAt = now

	if err := s.repo.Update(ctx, claim); err != nil {
		return domain.Claim{}, fmt.Errorf("updating claim: %w", err)
	}
	return claim, nil
}

// ReportIssue appends an open issue to the repair. Critical and high
// severity issues put the claim on hold until resolved.
func (s *ClaimService) ReportIssue(ctx context.Context, id string, actor domain.Actor, issueType string, severity domain.IssueSeverity, description string) (domain.Claim, error) {
	if err := s.permit(domain.OpReportIssue, actor); err != nil {
		return domain.Claim{}, err
	}
	if strings.TrimSpace(issueType) == "" {
		return domain.Claim{}, &domain.ValidationError{Field: "issueType", Reason: "must not be empty"}
	}
	if !domain.ValidSeverity(severity) {
		return domain.Claim{}, &domain.ValidationError{Field: "severity", Reason: fmt.Sprintf("unknown severity %q", severity)}
	}
	if strings.TrimSpace(description) == "" {
		return domain.Claim{}, &domain.ValidationError{Field: "description", Reason: "must not be empty"}
	}

	claim, err := s.load(ctx, id)
	if err != nil {
		return domain.Claim{}, err
	}
	if err := s.repairActive(&claim); err != nil {
		return domain.Claim{}, err
	}

	issue := domain.RepairIssue{
		ID:          uuid.NewString(),
		IssueType:   issueType,
		Severity:    severity,
		Description: description,
		Status:      domain.IssueOpen,
		ReportedAt:  time.Now().UTC(),
		ReportedBy:  actor.Email,
	}
	claim.RepairProgress.Issues = append(claim.RepairProgress.Issues, issue)
	claim.UpdatedAt = issue.ReportedAt

	if severity.Blocking() && claim.Status == domain.StatusRepairInProgress {
		claim.RepairProgress.Status = domain.RepairOnHold
		if err := s.transition(ctx, &claim, domain.EventHoldRepair, actor,
			fmt.Sprintf("blocking %s issue reported", severity), description); err != nil {
			return domain.Claim{}, err
		}
		return s.save(ctx, claim, domain.EventHoldRepair)
	}

	if err := s.repo.Update(ctx, claim); err != nil {
		return domain.Claim{}, fmt.Errorf("updating claim: %w", err)
	}
	return claim, nil
}

// ResolveIssue closes one issue. When the last blocking issue is resolved
// on a held claim, the repair resumes automatically.
func (s *ClaimService) ResolveIssue(ctx context.Context, id string, actor domain.Actor, issueID, resolution string) (domain.Claim, error) {
	if err := s.permit(domain.OpResolveIssue, actor); err != nil {
		return domain.Claim{}, err
	}
	if strings.TrimSpace(resolution) == "" {
		return domain.Claim{}, &domain.ValidationError{Field: "resolution", Reason: "must not be empty"}
	}

	claim, err := s.load(ctx, id)
	if err != nil {
		return domain.Claim{}, err
	}
	if claim.RepairProgress == nil {
		return domain.Claim{}, &domain.GuardError{Guard: "repair_started", Reason: "no repair in progress on this claim"}
	}

	issue := claim.RepairProgress.FindIssue(issueID)
	if issue == nil {
		return domain.Claim{}, domain.ErrIssueNotFound
	}
	if issue.Status == domain.IssueResolved {
		return domain.Claim{}, &domain.ValidationError{Field: "issueId", Reason: "issue is already resolved"}
	}

	now := time.Now().UTC()
	issue.Status = domain.IssueResolved
	issue.ResolvedAt = &now
	issue.ResolvedBy = actor.Email
	issue.Resolution = resolution
	claim.UpdatedAt = now

	if claim.Status == domain.StatusRepairOnHold && len(claim.RepairProgress.OpenBlockingIssues()) == 0 {
		claim.RepairProgress.Status = domain.RepairInProgress
		if err := s.transition(ctx, &claim, domain.EventResumeRepair, actor, "blocking issues resolved", resolution); err != nil {
			return domain.Claim{}, err
		}
		return s.save(ctx, claim, domain.EventResumeRepair)
	}

	if err := s.repo.Update(ctx, claim); err != nil {
		return domain.Claim{}, fmt.Errorf("updating claim: %w", err)
	}
	return claim, nil
}

// PerformQualityCheck records the pass/fail verification with its itemized
// checklist. A failed check keeps the claim in repair and files an open
// issue documenting the failure.
func (s *ClaimService) PerformQualityCheck(ctx context.Context, id string, actor domain.Actor, passed bool, notes string, checklist []string) (domain.Claim, error) {
	if err := s.permit(domain.OpPerformQualityCheck, actor); err != nil {
		return domain.Claim{}, err
	}

	claim, err := s.load(ctx, id)
	if err != nil {
		return domain.Claim{}, err
	}
	if err := s.repairActive(&claim); err != nil {
		return domain.Claim{}, err
	}

	now := time.Now().UTC()
	claim.RepairProgress.QualityCheck = domain.QualityCheck{
		Performed:   true,
		PerformedAt: &now,
		PerformedBy: actor.Email,
		Passed:      passed,
		Notes:       notes,
		Checklist:   checklist,
	}
	if !passed {
		claim.RepairProgress.Issues = append(claim.RepairProgress.Issues, domain.RepairIssue{
			ID:          uuid.NewString(),
			IssueType:   "quality_check_failure",
			Severity:    domain.SeverityMedium,
			Description: notes,
			Status:      domain.IssueOpen,
			ReportedAt:  now,
			ReportedBy:  actor.Email,
		})
	}
	claim.UpdatedAt = now

	if err := s.repo.Update(ctx, claim); err != nil {
		return domain.Claim{}, fmt.Errorf("updating claim: %w", err)
	}
	return claim, nil
}

// CompleteRepair closes the repair sub-workflow. It requires a passed
// quality check and no unresolved blocking issues.
func (s *ClaimService) CompleteRepair(ctx context.Context, id string, actor domain.Actor, laborHours, totalCost float64) (domain.Claim, error) {
	if err := s.permit(domain.OpCompleteRepair, actor); err != nil {
		return domain.Claim{}, err
	}

	claim, err := s.load(ctx, id)
	if err != nil {
		return domain.Claim{}, err
	}
	if claim.RepairProgress == nil {
		return domain.Claim{}, &domain.GuardError{Guard: "repair_started", Reason: "no repair in progress on this claim"}
	}
	if !claim.RepairProgress.QualityCheck.Performed || !claim.RepairProgress.QualityCheck.Passed {
		return domain.Claim{}, &domain.GuardError{Guard: "quality_check_passed", Reason: "repair cannot complete without a passed quality check"}
	}
	if blocking := claim.RepairProgress.OpenBlockingIssues(); len(blocking) > 0 {
		return domain.Claim{}, &domain.GuardError{
			Guard:  "no_blocking_issues",
			Reason: fmt.Sprintf("%d unresolved critical/high issue(s) remain", len(blocking)),
		}
	}

	now := time.Now().UTC()
	claim.RepairProgress.Status = domain.RepairDone
	claim.RepairProgress.ActualCompletionDate = &now
	claim.RepairProgress.TotalLaborHours = laborHours
	claim.RepairProgress.TotalCost = totalCost

	if err := s.transition(ctx, &claim, domain.EventCompleteRepair, actor, "repair completed", ""); err != nil {
		return domain.Claim{}, err
	}
	return s.save(ctx, claim, domain.EventCompleteRepair)
}

// repairActive guards operations that only make sense while a technician
// is actively working the claim.
func (s *ClaimService) repairActive(claim *domain.Claim) error {
	if claim.RepairProgress == nil {
		return &domain.GuardError{Guard: "repair_started", Reason: "no repair in progress on this claim"}
	}
	if claim.Status != domain.StatusRepairInProgress && claim.Status != domain.StatusRepairOnHold {
		return &domain.GuardError{
			Guard:  "repair_active",
			Reason: fmt.Sprintf("claim is %q, not under repair", claim.Status),
		}
	}
	return nil
}
