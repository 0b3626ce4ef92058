package app

import (
	"context"
	"strings"
	"time"

	"github.com/voltmile/claimflow/internal/domain"
)

// PhotoInput is one result photo reference to record.
type PhotoInput struct {
	URL         string
	Description string
}

// CompletionInput summarizes the finished repair for the customer record.
type CompletionInput struct {
	FinalNotes  string
	WorkSummary string
	TestResults string
}

// HandoverInput records returning the vehicle to the customer.
type HandoverInput struct {
	CustomerName      string
	CustomerPhone     string
	VehicleCondition  domain.VehicleCondition
	MileageAtHandover int
	Notes             string
}

// UploadResultPhotos documents the finished repair. Legal from
// repair_completed (first upload moves the claim to uploading_results) or
// from uploading_results for follow-up batches. Every photo needs a
// description.
func (s *ClaimService) UploadResultPhotos(ctx context.Context, id string, actor domain.Actor, photos []PhotoInput) (domain.Claim, error) {
	if err := s.permit(domain.OpUploadResultPhotos, actor); err != nil {
		return domain.Claim{}, err
	}
	if len(photos) == 0 {
		return domain.Claim{}, &domain.ValidationError{Field: "photos", Reason: "at least one photo is required"}
	}
	for _, p := range photos {
		if strings.TrimSpace(p.URL) == "" {
			return domain.Claim{}, &domain.ValidationError{Field: "photos", Reason: "photo url must not be empty"}
		}
		if strings.TrimSpace(p.Description) == "" {
			return domain.Claim{}, &domain.ValidationError{Field: "photos", Reason: "every photo requires a description"}
		}
	}

	claim, err := s.load(ctx, id)
	if err != nil {
		return domain.Claim{}, err
	}

	now := time.Now().UTC()
	firstUpload := claim.Status == domain.StatusRepairCompleted

	if firstUpload {
		claim.Results = &domain.WarrantyResults{Status: domain.ResultsUploading}
	} else if claim.Status != domain.StatusUploadingResults || claim.Results == nil {
		return domain.Claim{}, &domain.TransitionError{Event: domain.EventUploadResults, Current: claim.Status}
	}

	for _, p := range photos {
		claim.Results.ResultPhotos = append(claim.Results.ResultPhotos, domain.ResultPhoto{
			URL:         p.URL,
			Description: p.Description,
			UploadedAt:  now,
			UploadedBy:  actor.Email,
		})
	}
	claim.UpdatedAt = now

	if firstUpload {
		if err := s.transition(ctx, &claim, domain.EventUploadResults, actor, "result documentation started", ""); err != nil {
			return domain.Claim{}, err
		}
		return s.save(ctx, claim, domain.EventUploadResults)
	}

	if err := s.repo.Update(ctx, claim); err != nil {
		return domain.Claim{}, err
	}
	return claim, nil
}

// RecordCompletion finalizes the result documentation. At least one result
// photo must already be on file.
func (s *ClaimService) RecordCompletion(ctx context.Context, id string, actor domain.Actor, input CompletionInput) (domain.Claim, error) {
	if err := s.permit(domain.OpRecordCompletion, actor); err != nil {
		return domain.Claim{}, err
	}

	claim, err := s.load(ctx, id)
	if err != nil {
		return domain.Claim{}, err
	}
	if claim.Results == nil || len(claim.Results.ResultPhotos) == 0 {
		return domain.Claim{}, &domain.GuardError{Guard: "result_photos_present", Reason: "completion requires at least one result photo"}
	}

	now := time.Now().UTC()
	claim.Results.CompletionInfo = &domain.CompletionInfo{
		CompletedBy: actor.Email,
		CompletedAt: now,
		FinalNotes:  input.FinalNotes,
		WorkSummary: input.WorkSummary,
		TestResults: input.TestResults,
	}
	claim.Results.Status = domain.ResultsReadyForHandover

	if err := s.transition(ctx, &claim, domain.EventReadyHandover, actor, "result documentation complete", ""); err != nil {
		return domain.Claim{}, err
	}
	return s.save(ctx, claim, domain.EventReadyHandover)
}

// RecordHandover returns the vehicle to the customer. Customer
// identification and a recorded vehicle condition are mandatory.
func (s *ClaimService) RecordHandover(ctx context.Context, id string, actor domain.Actor, input HandoverInput) (domain.Claim, error) {
	if err := s.permit(domain.OpRecordHandover, actor); err != nil {
		return domain.Claim{}, err
	}
	if strings.TrimSpace(input.CustomerName) == "" {
		return domain.Claim{}, &domain.ValidationError{Field: "customerName", Reason: "must not be empty"}
	}
	if strings.TrimSpace(input.CustomerPhone) == "" {
		return domain.Claim{}, &domain.ValidationError{Field: "customerPhone", Reason: "must not be empty"}
	}
	if !domain.ValidVehicleCondition(input.VehicleCondition) {
		return domain.Claim{}, &domain.ValidationError{
			Field:  "vehicleCondition",
			Reason: "must be one of excellent, good, fair",
		}
	}

	claim, err := s.load(ctx, id)
	if err != nil {
		return domain.Claim{}, err
	}
	if claim.Results == nil {
		return domain.Claim{}, &domain.GuardError{Guard: "results_present", Reason: "no result documentation on this claim"}
	}

	now := time.Now().UTC()
	claim.Results.HandoverInfo = &domain.HandoverInfo{
		HandoverDate:      now,
		HandedOverBy:      actor.Email,
		CustomerName:      input.CustomerName,
		CustomerPhone:     input.CustomerPhone,
		VehicleCondition:  input.VehicleCondition,
		MileageAtHandover: input.MileageAtHandover,
		Notes:             input.Notes,
	}
	claim.Results.Status = domain.ResultsHandedOver

	if err := s.transition(ctx, &claim, domain.EventHandOver, actor, "vehicle handed over", ""); err != nil {
		return domain.Claim{}, err
	}
	return s.save(ctx, claim, domain.EventHandOver)
}

// CloseCase terminates the claim permanently. A closed claim refuses every
// further mutation with ClaimClosedError; closing twice fails the second
// time.
func (s *ClaimService) CloseCase(ctx context.Context, id string, actor domain.Actor) (domain.Claim, error) {
	if err := s.permit(domain.OpCloseCase, actor); err != nil {
		return domain.Claim{}, err
	}

	claim, err := s.load(ctx, id)
	if err != nil {
		return domain.Claim{}, err
	}
	if claim.Results == nil {
		return domain.Claim{}, &domain.GuardError{Guard: "results_present", Reason: "no result documentation on this claim"}
	}

	now := time.Now().UTC()
	claim.Results.Status = domain.ResultsClosed
	claim.Results.ClosedAt = &now
	claim.Results.ClosedBy = actor.Email

	if err := s.transition(ctx, &claim, domain.EventClose, actor, "case closed", ""); err != nil {
		return domain.Claim{}, err
	}
	return s.save(ctx, claim, domain.EventClose)
}
