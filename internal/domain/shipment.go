package domain

import "time"

// ShipmentStatus tracks the parts shipment sub-workflow.
type ShipmentStatus string

const (
	ShipmentPending  ShipmentStatus = "pending"
	ShipmentShipped  ShipmentStatus = "shipped"
	ShipmentReceived ShipmentStatus = "received"
	ShipmentRejected ShipmentStatus = "rejected"
)

// PartCondition is the declared physical condition of a received part.
type PartCondition string

const (
	ConditionGood      PartCondition = "good"
	ConditionDamaged   PartCondition = "damaged"
	ConditionDefective PartCondition = "defective"
)

// ValidCondition reports whether c is one of the defined part conditions.
func ValidCondition(c PartCondition) bool {
	switch c {
	case ConditionGood, ConditionDamaged, ConditionDefective:
		return true
	}
	return false
}

// Acceptable reports whether a part in this condition can be used for
// repair. Damaged and defective parts reject the whole shipment.
func (c PartCondition) Acceptable() bool {
	return c == ConditionGood
}

// ShipmentPart is one physical part inside a shipment, tracked from
// dispatch through receipt.
type ShipmentPart struct {
	PartName         string
	SerialNumber     string
	Quantity         int
	Condition        PartCondition
	ReceivedQuantity int
	Notes            string
}

// PartsShipment is the sub-record tracking physical movement of approved
// replacement parts. Owned exclusively by the claim.
type PartsShipment struct {
	Status            ShipmentStatus
	TrackingNumber    string
	ShippedDate       *time.Time
	ReceivedDate      *time.Time
	ReceivedBy        string
	QualityCheckNotes string
	Parts             []ShipmentPart
}

// ApplyReceipt records the arrival inspection of one part. It updates the
// matching shipped part in place (matched by serial number, falling back
// to part name) or appends an entry when the receipt lists a part the
// dispatch note did not.
func (s *PartsShipment) ApplyReceipt(partName, serialNumber string, condition PartCondition, receivedQuantity int, notes string) {
	for i := range s.Parts {
		p := &s.Parts[i]
		if (serialNumber != "" && p.SerialNumber == serialNumber) ||
			(p.PartName == partName && p.SerialNumber == "") {
			p.Condition = condition
			p.ReceivedQuantity = receivedQuantity
			if serialNumber != "" {
				p.SerialNumber = serialNumber
			}
			if notes != "" {
				p.Notes = notes
			}
			return
		}
	}
	s.Parts = append(s.Parts, ShipmentPart{
		PartName:         partName,
		SerialNumber:     serialNumber,
		Condition:        condition,
		ReceivedQuantity: receivedQuantity,
		Notes:            notes,
	})
}
