package domain

// Operation names each public engine operation for permission checks.
type Operation string

const (
	OpCreateClaim         Operation = "create_claim"
	OpSubmitForReview     Operation = "submit_for_review"
	OpApproveClaim        Operation = "approve_claim"
	OpRejectClaim         Operation = "reject_claim"
	OpCancelClaim         Operation = "cancel_claim"
	OpAddApprovalNote     Operation = "add_approval_note"
	OpAddAttachment       Operation = "add_attachment"
	OpShipParts           Operation = "ship_parts"
	OpReceiveParts        Operation = "receive_parts"
	OpStartRepair         Operation = "start_repair"
	OpUpdateProgressStep  Operation = "update_progress_step"
	OpReportIssue         Operation = "report_issue"
	OpResolveIssue        Operation = "resolve_issue"
	OpPerformQualityCheck Operation = "perform_quality_check"
	OpCompleteRepair      Operation = "complete_repair"
	OpUploadResultPhotos  Operation = "upload_result_photos"
	OpRecordCompletion    Operation = "record_completion"
	OpRecordHandover      Operation = "record_handover"
	OpCloseCase           Operation = "close_case"
)

// permissions is the single permission table consulted by the service:
// (operation, role) → allowed. Replaces per-endpoint string checks.
var permissions = map[Operation][]Role{
	OpCreateClaim:         {RoleCustomer, RoleServiceStaff, RoleAdmin},
	OpSubmitForReview:     {RoleServiceStaff, RoleAdmin},
	OpApproveClaim:        {RoleServiceStaff, RoleAdmin},
	OpRejectClaim:         {RoleServiceStaff, RoleAdmin},
	OpCancelClaim:         {RoleCustomer, RoleServiceStaff, RoleAdmin},
	OpAddApprovalNote:     {RoleServiceStaff, RoleAdmin},
	OpAddAttachment:       {RoleCustomer, RoleServiceStaff, RoleTechnician, RoleAdmin},
	OpShipParts:           {RoleServiceStaff, RoleAdmin},
	OpReceiveParts:        {RoleServiceStaff, RoleTechnician, RoleAdmin},
	OpStartRepair:         {RoleTechnician, RoleAdmin},
	OpUpdateProgressStep:  {RoleTechnician, RoleAdmin},
	OpReportIssue:         {RoleTechnician, RoleAdmin},
	OpResolveIssue:        {RoleTechnician, RoleAdmin},
	OpPerformQualityCheck: {RoleTechnician, RoleAdmin},
	OpCompleteRepair:      {RoleTechnician, RoleAdmin},
	OpUploadResultPhotos:  {RoleTechnician, RoleServiceStaff, RoleAdmin},
	OpRecordCompletion:    {RoleTechnician, RoleServiceStaff, RoleAdmin},
	OpRecordHandover:      {RoleServiceStaff, RoleAdmin},
	OpCloseCase:           {RoleServiceStaff, RoleAdmin},
}

// Allowed reports whether the role may invoke the operation.
func Allowed(op Operation, role Role) bool {
	for _, r := range permissions[op] {
		if r == role {
			return true
		}
	}
	return false
}
