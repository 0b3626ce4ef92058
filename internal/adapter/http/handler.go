package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/voltmile/claimflow/internal/app"
	"github.com/voltmile/claimflow/internal/domain"
)

const timeFormat = "2006-01-02T15:04:05Z"

// ActorParams carries the already-authenticated identity. Authentication
// itself happens upstream (gateway or middleware); the engine only needs
// who is acting and in which role.
type ActorParams struct {
	ActorEmail string `header:"X-Actor-Email" doc:"Authenticated actor email"`
	ActorRole  string `header:"X-Actor-Role" enum:"customer,service_staff,technician,admin" doc:"Authenticated actor role"`
}

func (a ActorParams) actor() domain.Actor {
	return domain.Actor{Email: a.ActorEmail, Role: domain.Role(a.ActorRole)}
}

// ClaimResponse is the API representation of a claim.
type ClaimResponse struct {
	ID                   string `json:"id" doc:"Unique identifier"`
	ClaimNumber          string `json:"claim_number" doc:"Human-facing claim number"`
	VIN                  string `json:"vin" doc:"Vehicle identification number"`
	WarrantyActivationID string `json:"warranty_activation_id" doc:"Warranty activation covering this claim"`

	IssueDescription string             `json:"issue_description"`
	IssueCategory    string             `json:"issue_category"`
	Diagnosis        string             `json:"diagnosis,omitempty"`
	Mileage          int                `json:"mileage"`
	Priority         string             `json:"priority"`
	PartsToReplace   []PartLineResponse `json:"parts_to_replace,omitempty"`

	Status        string                 `json:"status" doc:"Lifecycle state"`
	StatusHistory []StatusChangeResponse `json:"status_history,omitempty" doc:"Append-only audit trail"`

	PartsShipment  *ShipmentResponse `json:"parts_shipment,omitempty"`
	RepairProgress *RepairResponse   `json:"repair_progress,omitempty"`
	Results        *ResultsResponse  `json:"results,omitempty"`

	ApprovedBy      string                 `json:"approved_by,omitempty"`
	ApprovedAt      *string                `json:"approved_at,omitempty"`
	RejectedBy      string                 `json:"rejected_by,omitempty"`
	RejectedAt      *string                `json:"rejected_at,omitempty"`
	RejectionReason string                 `json:"rejection_reason,omitempty"`
	ApprovalNotes   []ApprovalNoteResponse `json:"approval_notes,omitempty"`
	Attachments     []AttachmentResponse   `json:"attachments,omitempty"`

	Version   int    `json:"version" doc:"Optimistic concurrency version"`
	CreatedAt string `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
	UpdatedAt string `json:"updated_at" doc:"Last update timestamp (ISO 8601)"`
}

type PartLineResponse struct {
	PartName      string  `json:"part_name"`
	Quantity      int     `json:"quantity"`
	Reason        string  `json:"reason,omitempty"`
	EstimatedCost float64 `json:"estimated_cost,omitempty"`
}

type StatusChangeResponse struct {
	Status    string `json:"status"`
	ChangedAt string `json:"changed_at"`
	ChangedBy string `json:"changed_by"`
	Reason    string `json:"reason,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

type ShipmentResponse struct {
	Status            string                 `json:"status"`
	TrackingNumber    string                 `json:"tracking_number"`
	ShippedDate       *string                `json:"shipped_date,omitempty"`
	ReceivedDate      *string                `json:"received_date,omitempty"`
	ReceivedBy        string                 `json:"received_by,omitempty"`
	QualityCheckNotes string                 `json:"quality_check_notes,omitempty"`
	Parts             []ShipmentPartResponse `json:"parts"`
}

type ShipmentPartResponse struct {
	PartName         string `json:"part_name"`
	SerialNumber     string `json:"serial_number,omitempty"`
	Quantity         int    `json:"quantity"`
	Condition        string `json:"condition,omitempty"`
	ReceivedQuantity int    `json:"received_quantity,omitempty"`
	Notes            string `json:"notes,omitempty"`
}

type RepairResponse struct {
	Status                  string                 `json:"status"`
	AssignedTechnician      string                 `json:"assigned_technician"`
	StartDate               *string                `json:"start_date,omitempty"`
	EstimatedCompletionDate *string                `json:"estimated_completion_date,omitempty"`
	ActualCompletionDate    *string                `json:"actual_completion_date,omitempty"`
	Steps                   []ProgressStepResponse `json:"steps,omitempty"`
	Issues                  []IssueResponse        `json:"issues,omitempty"`
	QualityCheck            *QualityCheckResponse  `json:"quality_check,omitempty"`
	TotalLaborHours         float64                `json:"total_labor_hours,omitempty"`
	TotalCost               float64                `json:"total_cost,omitempty"`
}

type ProgressStepResponse struct {
	StepType    string  `json:"step_type"`
	Status      string  `json:"status"`
	StartedAt   *string `json:"started_at,omitempty"`
	CompletedAt *string `json:"completed_at,omitempty"`
	Notes       string  `json:"notes,omitempty"`
	PerformedBy string  `json:"performed_by,omitempty"`
}

type IssueResponse struct {
	ID          string  `json:"id"`
	IssueType   string  `json:"issue_type"`
	Severity    string  `json:"severity"`
	Description string  `json:"description"`
	Status      string  `json:"status"`
	ReportedAt  string  `json:"reported_at"`
	ReportedBy  string  `json:"reported_by"`
	ResolvedAt  *string `json:"resolved_at,omitempty"`
	ResolvedBy  string  `json:"resolved_by,omitempty"`
	Resolution  string  `json:"resolution,omitempty"`
}

type QualityCheckResponse struct {
	PerformedAt *string  `json:"performed_at,omitempty"`
	PerformedBy string   `json:"performed_by"`
	Passed      bool     `json:"passed"`
	Notes       string   `json:"notes,omitempty"`
	Checklist   []string `json:"checklist,omitempty"`
}

type ResultsResponse struct {
	Status       string                  `json:"status"`
	ResultPhotos []ResultPhotoResponse   `json:"result_photos,omitempty"`
	Completion   *CompletionInfoResponse `json:"completion_info,omitempty"`
	Handover     *HandoverInfoResponse   `json:"handover_info,omitempty"`
	ClosedAt     *string                 `json:"closed_at,omitempty"`
	ClosedBy     string                  `json:"closed_by,omitempty"`
}

type ResultPhotoResponse struct {
	URL         string `json:"url"`
	Description string `json:"description"`
	UploadedAt  string `json:"uploaded_at"`
	UploadedBy  string `json:"uploaded_by"`
}

type CompletionInfoResponse struct {
	CompletedBy string `json:"completed_by"`
	CompletedAt string `json:"completed_at"`
	FinalNotes  string `json:"final_notes,omitempty"`
	WorkSummary string `json:"work_summary,omitempty"`
	TestResults string `json:"test_results,omitempty"`
}

type HandoverInfoResponse struct {
	HandoverDate      string `json:"handover_date"`
	HandedOverBy      string `json:"handed_over_by"`
	CustomerName      string `json:"customer_name"`
	CustomerPhone     string `json:"customer_phone"`
	VehicleCondition  string `json:"vehicle_condition"`
	MileageAtHandover int    `json:"mileage_at_handover,omitempty"`
	Notes             string `json:"notes,omitempty"`
}

type ApprovalNoteResponse struct {
	Note    string `json:"note"`
	AddedBy string `json:"added_by"`
	AddedAt string `json:"added_at"`
}

type AttachmentResponse struct {
	FileName       string `json:"file_name"`
	FileURL        string `json:"file_url"`
	FileType       string `json:"file_type,omitempty"`
	AttachmentType string `json:"attachment_type,omitempty"`
	UploadedBy     string `json:"uploaded_by"`
	UploadedAt     string `json:"uploaded_at"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func toClaimResponse(c domain.Claim) ClaimResponse {
	resp := ClaimResponse{
		ID:                   c.ID,
		ClaimNumber:          c.ClaimNumber,
		VIN:                  c.VIN,
		WarrantyActivationID: c.WarrantyActivationID,
		IssueDescription:     c.IssueDescription,
		IssueCategory:        string(c.IssueCategory),
		Diagnosis:            c.Diagnosis,
		Mileage:              c.Mileage,
		Priority:             string(c.Priority),
		Status:               string(c.Status),
		ApprovedBy:           c.ApprovedBy,
		ApprovedAt:           formatTimePtr(c.ApprovedAt),
		RejectedBy:           c.RejectedBy,
		RejectedAt:           formatTimePtr(c.RejectedAt),
		RejectionReason:      c.RejectionReason,
		Version:              c.Version,
		CreatedAt:            formatTime(c.CreatedAt),
		UpdatedAt:            formatTime(c.UpdatedAt),
	}

	for _, p := range c.PartsToReplace {
		resp.PartsToReplace = append(resp.PartsToReplace, PartLineResponse{
			PartName: p.PartName, Quantity: p.Quantity,
			Reason: p.Reason, EstimatedCost: p.EstimatedCost,
		})
	}
	for _, h := range c.StatusHistory {
		resp.StatusHistory = append(resp.StatusHistory, StatusChangeResponse{
			Status: string(h.Status), ChangedAt: formatTime(h.ChangedAt),
			ChangedBy: h.ChangedBy, Reason: h.Reason, Notes: h.Notes,
		})
	}
	for _, n := range c.ApprovalNotes {
		resp.ApprovalNotes = append(resp.ApprovalNotes, ApprovalNoteResponse{
			Note: n.Note, AddedBy: n.AddedBy, AddedAt: formatTime(n.AddedAt),
		})
	}
	for _, a := range c.Attachments {
		resp.Attachments = append(resp.Attachments, AttachmentResponse{
			FileName: a.FileName, FileURL: a.FileURL, FileType: a.FileType,
			AttachmentType: a.AttachmentType, UploadedBy: a.UploadedBy,
			UploadedAt: formatTime(a.UploadedAt),
		})
	}

	resp.PartsShipment = toShipmentResponse(c.PartsShipment)
	resp.RepairProgress = toRepairResponse(c.RepairProgress)
	resp.Results = toResultsResponse(c.Results)
	return resp
}

func toShipmentResponse(s *domain.PartsShipment) *ShipmentResponse {
	if s == nil {
		return nil
	}
	out := &ShipmentResponse{
		Status:            string(s.Status),
		TrackingNumber:    s.TrackingNumber,
		ShippedDate:       formatTimePtr(s.ShippedDate),
		ReceivedDate:      formatTimePtr(s.ReceivedDate),
		ReceivedBy:        s.ReceivedBy,
		QualityCheckNotes: s.QualityCheckNotes,
	}
	for _, p := range s.Parts {
		out.Parts = append(out.Parts, ShipmentPartResponse{
			PartName: p.PartName, SerialNumber: p.SerialNumber, Quantity: p.Quantity,
			Condition: string(p.Condition), ReceivedQuantity: p.ReceivedQuantity, Notes: p.Notes,
		})
	}
	return out
}

func toRepairResponse(r *domain.RepairProgress) *RepairResponse {
	if r == nil {
		return nil
	}
	out := &RepairResponse{
		Status:                  string(r.Status),
		AssignedTechnician:      r.AssignedTechnician,
		StartDate:               formatTimePtr(r.StartDate),
		EstimatedCompletionDate: formatTimePtr(r.EstimatedCompletionDate),
		ActualCompletionDate:    formatTimePtr(r.ActualCompletionDate),
		TotalLaborHours:         r.TotalLaborHours,
		TotalCost:               r.TotalCost,
	}
	for _, s := range r.Steps {
		out.Steps = append(out.Steps, ProgressStepResponse{
			StepType: string(s.StepType), Status: string(s.Status),
			StartedAt: formatTimePtr(s.StartedAt), CompletedAt: formatTimePtr(s.CompletedAt),
			Notes: s.Notes, PerformedBy: s.PerformedBy,
		})
	}
	for _, is := range r.Issues {
		out.Issues = append(out.Issues, IssueResponse{
			ID: is.ID, IssueType: is.IssueType, Severity: string(is.Severity),
			Description: is.Description, Status: string(is.Status),
			ReportedAt: formatTime(is.ReportedAt), ReportedBy: is.ReportedBy,
			ResolvedAt: formatTimePtr(is.ResolvedAt), ResolvedBy: is.ResolvedBy,
			Resolution: is.Resolution,
		})
	}
	if r.QualityCheck.Performed {
		out.QualityCheck = &QualityCheckResponse{
			PerformedAt: formatTimePtr(r.QualityCheck.PerformedAt),
			PerformedBy: r.QualityCheck.PerformedBy,
			Passed:      r.QualityCheck.Passed,
			Notes:       r.QualityCheck.Notes,
			Checklist:   r.QualityCheck.Checklist,
		}
	}
	return out
}

func toResultsResponse(r *domain.WarrantyResults) *ResultsResponse {
	if r == nil {
		return nil
	}
	out := &ResultsResponse{
		Status:   string(r.Status),
		ClosedAt: formatTimePtr(r.ClosedAt),
		ClosedBy: r.ClosedBy,
	}
	for _, p := range r.ResultPhotos {
		out.ResultPhotos = append(out.ResultPhotos, ResultPhotoResponse{
			URL: p.URL, Description: p.Description,
			UploadedAt: formatTime(p.UploadedAt), UploadedBy: p.UploadedBy,
		})
	}
	if r.CompletionInfo != nil {
		out.Completion = &CompletionInfoResponse{
			CompletedBy: r.CompletionInfo.CompletedBy,
			CompletedAt: formatTime(r.CompletionInfo.CompletedAt),
			FinalNotes:  r.CompletionInfo.FinalNotes,
			WorkSummary: r.CompletionInfo.WorkSummary,
			TestResults: r.CompletionInfo.TestResults,
		}
	}
	if r.HandoverInfo != nil {
		out.Handover = &HandoverInfoResponse{
			HandoverDate:      formatTime(r.HandoverInfo.HandoverDate),
			HandedOverBy:      r.HandoverInfo.HandedOverBy,
			CustomerName:      r.HandoverInfo.CustomerName,
			CustomerPhone:     r.HandoverInfo.CustomerPhone,
			VehicleCondition:  string(r.HandoverInfo.VehicleCondition),
			MileageAtHandover: r.HandoverInfo.MileageAtHandover,
			Notes:             r.HandoverInfo.Notes,
		}
	}
	return out
}

// ClaimOutput is the shared response envelope for claim operations.
type ClaimOutput struct {
	Body ClaimResponse
}

// --- Create Claim ---

type CreateClaimPart struct {
	PartName      string  `json:"part_name" minLength:"1"`
	Quantity      int     `json:"quantity" minimum:"1"`
	Reason        string  `json:"reason,omitempty"`
	EstimatedCost float64 `json:"estimated_cost,omitempty"`
}

type CreateClaimInput struct {
	ActorParams
	Body struct {
		VIN              string            `json:"vin" minLength:"17" maxLength:"17" doc:"Vehicle identification number"`
		IssueDescription string            `json:"issue_description" minLength:"1" doc:"What the customer reports"`
		IssueCategory    string            `json:"issue_category" enum:"battery,motor,electrical,mechanical,software,other"`
		Diagnosis        string            `json:"diagnosis,omitempty"`
		Mileage          int               `json:"mileage,omitempty" minimum:"0"`
		Priority         string            `json:"priority" enum:"low,medium,high,critical"`
		PartsToReplace   []CreateClaimPart `json:"parts_to_replace,omitempty"`
	}
}

// --- Get / List ---

type GetClaimInput struct {
	ID string `path:"id" doc:"Claim ID"`
}

type GetClaimByNumberInput struct {
	Number string `path:"number" doc:"Claim number, e.g. WC-2026-00001"`
}

type ListClaimsInput struct {
	Status   string `query:"status" required:"false" doc:"Filter by lifecycle state"`
	VIN      string `query:"vin" required:"false" doc:"Filter by VIN"`
	Priority string `query:"priority" required:"false" doc:"Filter by priority"`
	Limit    int    `query:"limit" required:"false" default:"50" doc:"Max results"`
	Offset   int    `query:"offset" required:"false" default:"0" doc:"Pagination offset"`
}

type ListClaimsOutput struct {
	Body []ClaimResponse
}

// --- Review ---

type SubmitInput struct {
	ActorParams
	ID string `path:"id" doc:"Claim ID"`
}

type ApproveInput struct {
	ActorParams
	ID   string `path:"id" doc:"Claim ID"`
	Body struct {
		Notes string `json:"notes,omitempty" doc:"Reviewer notes"`
	}
}

type RejectInput struct {
	ActorParams
	ID   string `path:"id" doc:"Claim ID"`
	Body struct {
		Reason string `json:"reason" minLength:"10" doc:"Why the claim is denied"`
	}
}

type CancelInput struct {
	ActorParams
	ID   string `path:"id" doc:"Claim ID"`
	Body struct {
		Reason string `json:"reason" minLength:"1" doc:"Why the claim is withdrawn"`
	}
}

type AddNoteInput struct {
	ActorParams
	ID   string `path:"id" doc:"Claim ID"`
	Body struct {
		Note string `json:"note" minLength:"1"`
	}
}

type AddAttachmentInput struct {
	ActorParams
	ID   string `path:"id" doc:"Claim ID"`
	Body struct {
		FileName       string `json:"file_name" minLength:"1"`
		FileURL        string `json:"file_url" minLength:"1" doc:"Location in the external file store"`
		FileType       string `json:"file_type,omitempty"`
		AttachmentType string `json:"attachment_type,omitempty"`
	}
}

// --- Parts ---

type ShipPart struct {
	PartName     string `json:"part_name" minLength:"1"`
	SerialNumber string `json:"serial_number,omitempty"`
	Quantity     int    `json:"quantity" minimum:"1"`
	Notes        string `json:"notes,omitempty"`
}

type ShipPartsInput struct {
	ActorParams
	ID   string `path:"id" doc:"Claim ID"`
	Body struct {
		TrackingNumber string     `json:"tracking_number" minLength:"5"`
		Parts          []ShipPart `json:"parts" minItems:"1"`
	}
}

type ReceivePart struct {
	PartName         string `json:"part_name" minLength:"1"`
	SerialNumber     string `json:"serial_number,omitempty"`
	Condition        string `json:"condition" enum:"good,damaged,defective"`
	ReceivedQuantity int    `json:"received_quantity" minimum:"0"`
	Notes            string `json:"notes,omitempty"`
}

type ReceivePartsInput struct {
	ActorParams
	ID   string `path:"id" doc:"Claim ID"`
	Body struct {
		ReceivedBy string        `json:"received_by" minLength:"1"`
		Parts      []ReceivePart `json:"parts" minItems:"1"`
	}
}

// --- Repair ---

type StartRepairInput struct {
	ActorParams
	ID   string `path:"id" doc:"Claim ID"`
	Body struct {
		Technician          string     `json:"technician" minLength:"1" doc:"Assigned technician"`
		EstimatedCompletion *time.Time `json:"estimated_completion,omitempty"`
	}
}

type ProgressStepInput struct {
	ActorParams
	ID   string `path:"id" doc:"Claim ID"`
	Body struct {
		StepType string `json:"step_type" enum:"diagnosis,removal,installation,testing,quality_check"`
		Status   string `json:"status" enum:"pending,in_progress,completed"`
		Notes    string `json:"notes,omitempty"`
	}
}

type ReportIssueInput struct {
	ActorParams
	ID   string `path:"id" doc:"Claim ID"`
	Body struct {
		IssueType   string `json:"issue_type" minLength:"1"`
		Severity    string `json:"severity" enum:"low,medium,high,critical"`
		Description string `json:"description" minLength:"1"`
	}
}

type ResolveIssueInput struct {
	ActorParams
	ID      string `path:"id" doc:"Claim ID"`
	IssueID string `path:"issueId" doc:"Issue ID"`
	Body    struct {
		Resolution string `json:"resolution" minLength:"1"`
	}
}

type QualityCheckInput struct {
	ActorParams
	ID   string `path:"id" doc:"Claim ID"`
	Body struct {
		Passed    bool     `json:"passed"`
		Notes     string   `json:"notes,omitempty"`
		Checklist []string `json:"checklist,omitempty"`
	}
}

type CompleteRepairInput struct {
	ActorParams
	ID   string `path:"id" doc:"Claim ID"`
	Body struct {
		LaborHours float64 `json:"labor_hours" minimum:"0"`
		TotalCost  float64 `json:"total_cost" minimum:"0"`
	}
}

// --- Results & Handover ---

type UploadPhoto struct {
	URL         string `json:"url" minLength:"1" doc:"Location in the external file store"`
	Description string `json:"description" minLength:"1"`
}

type UploadPhotosInput struct {
	ActorParams
	ID   string `path:"id" doc:"Claim ID"`
	Body struct {
		Photos []UploadPhoto `json:"photos" minItems:"1"`
	}
}

type CompletionInput struct {
	ActorParams
	ID   string `path:"id" doc:"Claim ID"`
	Body struct {
		FinalNotes  string `json:"final_notes,omitempty"`
		WorkSummary string `json:"work_summary,omitempty"`
		TestResults string `json:"test_results,omitempty"`
	}
}

type HandoverInput struct {
	ActorParams
	ID   string `path:"id" doc:"Claim ID"`
	Body struct {
		CustomerName      string `json:"customer_name" minLength:"1"`
		CustomerPhone     string `json:"customer_phone" minLength:"1"`
		VehicleCondition  string `json:"vehicle_condition" enum:"excellent,good,fair"`
		MileageAtHandover int    `json:"mileage_at_handover,omitempty" minimum:"0"`
		Notes             string `json:"notes,omitempty"`
	}
}

type CloseCaseInput struct {
	ActorParams
	ID string `path:"id" doc:"Claim ID"`
}

// Register adds all claim API routes to the Huma API.
func Register(api huma.API, svc *app.ClaimService) {
	huma.Register(api, huma.Operation{
		OperationID: "create-claim",
		Method:      http.MethodPost,
		Path:        "/api/v1/claims",
		Summary:     "File a new warranty claim",
		Tags:        []string{"Claims"},
	}, func(ctx context.Context, input *CreateClaimInput) (*ClaimOutput, error) {
		in := app.CreateClaimInput{
			VIN:              input.Body.VIN,
			IssueDescription: input.Body.IssueDescription,
			IssueCategory:    domain.IssueCategory(input.Body.IssueCategory),
			Diagnosis:        input.Body.Diagnosis,
			Mileage:          input.Body.Mileage,
			Priority:         domain.Priority(input.Body.Priority),
		}
		for _, p := range input.Body.PartsToReplace {
			in.PartsToReplace = append(in.PartsToReplace, domain.PartLine{
				PartName: p.PartName, Quantity: p.Quantity,
				Reason: p.Reason, EstimatedCost: p.EstimatedCost,
			})
		}
		claim, err := svc.Create(ctx, in, input.actor())
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ClaimOutput{Body: toClaimResponse(claim)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-claim",
		Method:      http.MethodGet,
		Path:        "/api/v1/claims/{id}",
		Summary:     "Get a claim by ID",
		Tags:        []string{"Claims"},
	}, func(ctx context.Context, input *GetClaimInput) (*ClaimOutput, error) {
		claim, err := svc.GetByID(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ClaimOutput{Body: toClaimResponse(claim)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-claim-by-number",
		Method:      http.MethodGet,
		Path:        "/api/v1/claims/by-number/{number}",
		Summary:     "Get a claim by claim number",
		Tags:        []string{"Claims"},
	}, func(ctx context.Context, input *GetClaimByNumberInput) (*ClaimOutput, error) {
		claim, err := svc.GetByNumber(ctx, input.Number)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ClaimOutput{Body: toClaimResponse(claim)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-claims",
		Method:      http.MethodGet,
		Path:        "/api/v1/claims",
		Summary:     "List claims",
		Tags:        []string{"Claims"},
	}, func(ctx context.Context, input *ListClaimsInput) (*ListClaimsOutput, error) {
		filter := domain.ListFilter{
			VIN:    input.VIN,
			Limit:  input.Limit,
			Offset: input.Offset,
		}
		if input.Status != "" {
			s := domain.Status(input.Status)
			filter.Status = &s
		}
		if input.Priority != "" {
			p := domain.Priority(input.Priority)
			filter.Priority = &p
		}

		claims, err := svc.List(ctx, filter)
		if err != nil {
			return nil, toHumaError(err)
		}

		resp := make([]ClaimResponse, len(claims))
		for i, c := range claims {
			resp[i] = toClaimResponse(c)
		}
		return &ListClaimsOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "submit-claim",
		Method:      http.MethodPost,
		Path:        "/api/v1/claims/{id}/submit",
		Summary:     "Submit a pending claim for review",
		Tags:        []string{"Review"},
	}, func(ctx context.Context, input *SubmitInput) (*ClaimOutput, error) {
		claim, err := svc.SubmitForReview(ctx, input.ID, input.actor())
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ClaimOutput{Body: toClaimResponse(claim)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "approve-claim",
		Method:      http.MethodPost,
		Path:        "/api/v1/claims/{id}/approve",
		Summary:     "Approve a claim under review",
		Tags:        []string{"Review"},
	}, func(ctx context.Context, input *ApproveInput) (*ClaimOutput, error) {
		claim, err := svc.Approve(ctx, input.ID, input.actor(), input.Body.Notes)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ClaimOutput{Body: toClaimResponse(claim)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "reject-claim",
		Method:      http.MethodPost,
		Path:        "/api/v1/claims/{id}/reject",
		Summary:     "Reject a claim under review",
		Tags:        []string{"Review"},
	}, func(ctx context.Context, input *RejectInput) (*ClaimOutput, error) {
		claim, err := svc.Reject(ctx, input.ID, input.actor(), input.Body.Reason)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ClaimOutput{Body: toClaimResponse(claim)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "cancel-claim",
		Method:      http.MethodPost,
		Path:        "/api/v1/claims/{id}/cancel",
		Summary:     "Cancel a claim",
		Tags:        []string{"Claims"},
	}, func(ctx context.Context, input *CancelInput) (*ClaimOutput, error) {
		claim, err := svc.Cancel(ctx, input.ID, input.actor(), input.Body.Reason)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ClaimOutput{Body: toClaimResponse(claim)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "add-approval-note",
		Method:      http.MethodPost,
		Path:        "/api/v1/claims/{id}/notes",
		Summary:     "Attach a reviewer note",
		Tags:        []string{"Review"},
	}, func(ctx context.Context, input *AddNoteInput) (*ClaimOutput, error) {
		claim, err := svc.AddApprovalNote(ctx, input.ID, input.actor(), input.Body.Note)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ClaimOutput{Body: toClaimResponse(claim)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "add-attachment",
		Method:      http.MethodPost,
		Path:        "/api/v1/claims/{id}/attachments",
		Summary:     "Attach file metadata to a claim",
		Tags:        []string{"Claims"},
	}, func(ctx context.Context, input *AddAttachmentInput) (*ClaimOutput, error) {
		claim, err := svc.AddAttachment(ctx, input.ID, input.actor(), domain.Attachment{
			FileName:       input.Body.FileName,
			FileURL:        input.Body.FileURL,
			FileType:       input.Body.FileType,
			AttachmentType: input.Body.AttachmentType,
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ClaimOutput{Body: toClaimResponse(claim)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "ship-parts",
		Method:      http.MethodPost,
		Path:        "/api/v1/claims/{id}/parts/ship",
		Summary:     "Dispatch approved replacement parts",
		Tags:        []string{"Parts"},
	}, func(ctx context.Context, input *ShipPartsInput) (*ClaimOutput, error) {
		var parts []app.ShipPartInput
		for _, p := range input.Body.Parts {
			parts = append(parts, app.ShipPartInput{
				PartName: p.PartName, SerialNumber: p.SerialNumber,
				Quantity: p.Quantity, Notes: p.Notes,
			})
		}
		claim, err := svc.ShipParts(ctx, input.ID, input.actor(), input.Body.TrackingNumber, parts)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ClaimOutput{Body: toClaimResponse(claim)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "receive-parts",
		Method:      http.MethodPost,
		Path:        "/api/v1/claims/{id}/parts/receive",
		Summary:     "Record arrival inspection of shipped parts",
		Tags:        []string{"Parts"},
	}, func(ctx context.Context, input *ReceivePartsInput) (*ClaimOutput, error) {
		var parts []app.ReceivePartInput
		for _, p := range input.Body.Parts {
			parts = append(parts, app.ReceivePartInput{
				PartName: p.PartName, SerialNumber: p.SerialNumber,
				Condition:        domain.PartCondition(p.Condition),
				ReceivedQuantity: p.ReceivedQuantity, Notes: p.Notes,
			})
		}
		claim, err := svc.ReceiveParts(ctx, input.ID, input.actor(), input.Body.ReceivedBy, parts)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ClaimOutput{Body: toClaimResponse(claim)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "start-repair",
		Method:      http.MethodPost,
		Path:        "/api/v1/claims/{id}/repair/start",
		Summary:     "Begin repair work",
		Tags:        []string{"Repair"},
	}, func(ctx context.Context, input *StartRepairInput) (*ClaimOutput, error) {
		claim, err := svc.StartRepair(ctx, input.ID, input.actor(), input.Body.Technician, input.Body.EstimatedCompletion)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ClaimOutput{Body: toClaimResponse(claim)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-progress-step",
		Method:      http.MethodPost,
		Path:        "/api/v1/claims/{id}/repair/steps",
		Summary:     "Record progress on a repair step",
		Tags:        []string{"Repair"},
	}, func(ctx context.Context, input *ProgressStepInput) (*ClaimOutput, error) {
		claim, err := svc.UpdateProgressStep(ctx, input.ID, input.actor(),
			domain.StepType(input.Body.StepType), domain.StepStatus(input.Body.Status), input.Body.Notes)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ClaimOutput{Body: toClaimResponse(claim)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "report-issue",
		Method:      http.MethodPost,
		Path:        "/api/v1/claims/{id}/repair/issues",
		Summary:     "Report a problem found during repair",
		Tags:        []string{"Repair"},
	}, func(ctx context.Context, input *ReportIssueInput) (*ClaimOutput, error) {
		claim, err := svc.ReportIssue(ctx, input.ID, input.actor(),
			input.Body.IssueType, domain.IssueSeverity(input.Body.Severity), input.Body.Description)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ClaimOutput{Body: toClaimResponse(claim)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "resolve-issue",
		Method:      http.MethodPost,
		Path:        "/api/v1/claims/{id}/repair/issues/{issueId}/resolve",
		Summary:     "Resolve a reported repair issue",
		Tags:        []string{"Repair"},
	}, func(ctx context.Context, input *ResolveIssueInput) (*ClaimOutput, error) {
		claim, err := svc.ResolveIssue(ctx, input.ID, input.actor(), input.IssueID, input.Body.Resolution)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ClaimOutput{Body: toClaimResponse(claim)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "perform-quality-check",
		Method:      http.MethodPost,
		Path:        "/api/v1/claims/{id}/repair/quality-check",
		Summary:     "Record the final quality verification",
		Tags:        []string{"Repair"},
	}, func(ctx context.Context, input *QualityCheckInput) (*ClaimOutput, error) {
		claim, err := svc.PerformQualityCheck(ctx, input.ID, input.actor(),
			input.Body.Passed, input.Body.Notes, input.Body.Checklist)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ClaimOutput{Body: toClaimResponse(claim)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "complete-repair",
		Method:      http.MethodPost,
		Path:        "/api/v1/claims/{id}/repair/complete",
		Summary:     "Finish repair work",
		Tags:        []string{"Repair"},
	}, func(ctx context.Context, input *CompleteRepairInput) (*ClaimOutput, error) {
		claim, err := svc.CompleteRepair(ctx, input.ID, input.actor(), input.Body.LaborHours, input.Body.TotalCost)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ClaimOutput{Body: toClaimResponse(claim)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "upload-result-photos",
		Method:      http.MethodPost,
		Path:        "/api/v1/claims/{id}/results/photos",
		Summary:     "Document the finished repair with photos",
		Tags:        []string{"Results"},
	}, func(ctx context.Context, input *UploadPhotosInput) (*ClaimOutput, error) {
		var photos []app.PhotoInput
		for _, p := range input.Body.Photos {
			photos = append(photos, app.PhotoInput{URL: p.URL, Description: p.Description})
		}
		claim, err := svc.UploadResultPhotos(ctx, input.ID, input.actor(), photos)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ClaimOutput{Body: toClaimResponse(claim)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "record-completion",
		Method:      http.MethodPost,
		Path:        "/api/v1/claims/{id}/results/completion",
		Summary:     "Finalize the result documentation",
		Tags:        []string{"Results"},
	}, func(ctx context.Context, input *CompletionInput) (*ClaimOutput, error) {
		claim, err := svc.RecordCompletion(ctx, input.ID, input.actor(), app.CompletionInput{
			FinalNotes:  input.Body.FinalNotes,
			WorkSummary: input.Body.WorkSummary,
			TestResults: input.Body.TestResults,
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ClaimOutput{Body: toClaimResponse(claim)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "record-handover",
		Method:      http.MethodPost,
		Path:        "/api/v1/claims/{id}/results/handover",
		Summary:     "Record returning the vehicle to the customer",
		Tags:        []string{"Results"},
	}, func(ctx context.Context, input *HandoverInput) (*ClaimOutput, error) {
		claim, err := svc.RecordHandover(ctx, input.ID, input.actor(), app.HandoverInput{
			CustomerName:      input.Body.CustomerName,
			CustomerPhone:     input.Body.CustomerPhone,
			VehicleCondition:  domain.VehicleCondition(input.Body.VehicleCondition),
			MileageAtHandover: input.Body.MileageAtHandover,
			Notes:             input.Body.Notes,
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ClaimOutput{Body: toClaimResponse(claim)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "close-case",
		Method:      http.MethodPost,
		Path:        "/api/v1/claims/{id}/close",
		Summary:     "Permanently close a handed-over claim",
		Tags:        []string{"Results"},
	}, func(ctx context.Context, input *CloseCaseInput) (*ClaimOutput, error) {
		claim, err := svc.CloseCase(ctx, input.ID, input.actor())
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ClaimOutput{Body: toClaimResponse(claim)}, nil
	})
}

// toHumaError translates domain errors to Huma HTTP errors.
func toHumaError(err error) error {
	switch {
	case errors.Is(err, domain.ErrClaimNotFound):
		return huma.Error404NotFound("claim not found")
	case errors.Is(err, domain.ErrIssueNotFound):
		return huma.Error404NotFound("issue not found")
	case errors.Is(err, domain.ErrVehicleNotFound):
		return huma.Error422UnprocessableEntity("vehicle is not registered")
	case errors.Is(err, domain.ErrNoActiveWarranty):
		return huma.Error422UnprocessableEntity("no active warranty for this vehicle")
	case errors.Is(err, domain.ErrInsufficientStock):
		return huma.Error409Conflict(err.Error())
	}

	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		return huma.Error422UnprocessableEntity(vErr.Error())
	}

	var trErr *domain.TransitionError
	if errors.As(err, &trErr) {
		return huma.Error422UnprocessableEntity(trErr.Error())
	}

	var gErr *domain.GuardError
	if errors.As(err, &gErr) {
		return huma.Error422UnprocessableEntity(gErr.Error())
	}

	var pErr *domain.PermissionError
	if errors.As(err, &pErr) {
		return huma.Error403Forbidden(pErr.Error())
	}

	var cErr *domain.ConflictError
	if errors.As(err, &cErr) {
		return huma.Error409Conflict(cErr.Error())
	}

	var closedErr *domain.ClaimClosedError
	if errors.As(err, &closedErr) {
		return huma.Error410Gone(closedErr.Error())
	}

	return huma.Error500InternalServerError("internal server error")
}
