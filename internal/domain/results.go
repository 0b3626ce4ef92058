package domain

import "time"

// ResultsStatus tracks the post-repair documentation sub-workflow.
type ResultsStatus string

const (
	ResultsUploading        ResultsStatus = "uploading_results"
	ResultsReadyForHandover ResultsStatus = "ready_for_handover"
	ResultsHandedOver       ResultsStatus = "handed_over"
	ResultsClosed           ResultsStatus = "closed"
)

// VehicleCondition is the recorded condition of the vehicle at handover.
type VehicleCondition string

const (
	VehicleExcellent VehicleCondition = "excellent"
	VehicleGood      VehicleCondition = "good"
	VehicleFair      VehicleCondition = "fair"
)

// ValidVehicleCondition reports whether c is one of the defined handover
// conditions.
func ValidVehicleCondition(c VehicleCondition) bool {
	switch c {
	case VehicleExcellent, VehicleGood, VehicleFair:
		return true
	}
	return false
}

// ResultPhoto documents the finished repair. The URL points at the
// external file store.
type ResultPhoto struct {
	URL         string
	Description string
	UploadedAt  time.Time
	UploadedBy  string
}

// CompletionInfo summarizes the finished repair work.
type CompletionInfo struct {
	CompletedBy string
	CompletedAt time.Time
	FinalNotes  string
	WorkSummary string
	TestResults string
}

// HandoverInfo records returning the vehicle to the customer.
type HandoverInfo struct {
	HandoverDate      time.Time
	HandedOverBy      string
	CustomerName      string
	CustomerPhone     string
	VehicleCondition  VehicleCondition
	MileageAtHandover int
	Notes             string
}

// WarrantyResults is the sub-record for post-repair documentation and case
// closure. Owned exclusively by the claim.
type WarrantyResults struct {
	ResultPhotos   []ResultPhoto
	CompletionInfo *CompletionInfo
	HandoverInfo   *HandoverInfo
	Status         ResultsStatus
	ClosedAt       *time.Time
	ClosedBy       string
}
