package document

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementStatus represents the status of a delivery or invoice
type MovementStatus string

const (
	MovementStatusRecorded  MovementStatus = "RECORDED"
	MovementStatusDelivered MovementStatus = "DELIVERED"
	MovementStatusReturned  MovementStatus = "RETURNED"
)

// IsValid checks if the status is a valid MovementStatus
func (s MovementStatus) IsValid() bool {
	switch s {
	case MovementStatusRecorded, MovementStatusDelivered, MovementStatusReturned:
		return true
	}
	return false
}

// String returns the string representation of MovementStatus
func (s MovementStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status.
// RETURNED is reachable from any non-terminal state without a guard; it is
// a correction mechanism, not a guarded business event.
func (s MovementStatus) CanTransitionTo(target MovementStatus) bool {
	switch s {
	case MovementStatusRecorded:
		return target == MovementStatusDelivered || target == MovementStatusReturned
	case MovementStatusDelivered:
		return target == MovementStatusReturned
	case MovementStatusReturned:
		return false
	}
	return false
}

// CountsTowardConsumption reports whether movements in this status consume
// authorized quotation quantity. RETURNED movements are excluded.
func (s MovementStatus) CountsTowardConsumption() bool {
	return s == MovementStatusRecorded || s == MovementStatusDelivered
}

// GuardLine is the product/quantity pair the quantity guard operates on.
// Both delivery lines and invoice lines project onto it.
type GuardLine struct {
	ProductID uuid.UUID
	Quantity  decimal.Decimal
}
