package document

import (
	"fmt"

	"github.com/google/uuid"
)

// Reassignment policy violation reasons
const (
	ReassignmentReasonStatus  = "TARGET_NOT_APPROVED"
	ReassignmentReasonProject = "PROJECT_MISMATCH"
)

// ReassignmentPolicyError is returned when a movement cannot be rebound to
// the requested target quotation. Reassignment skips the quantity guard but
// still requires an approved-equivalent target in the same project.
type ReassignmentPolicyError struct {
	DocumentID        uuid.UUID
	TargetQuotationID uuid.UUID
	Reason            string
}

// Error implements the error interface
func (e *ReassignmentPolicyError) Error() string {
	return fmt.Sprintf("cannot reassign document %s to quotation %s: %s",
		e.DocumentID, e.TargetQuotationID, e.Reason)
}

// NewReassignmentPolicyError creates a new ReassignmentPolicyError
func NewReassignmentPolicyError(documentID, targetQuotationID uuid.UUID, reason string) *ReassignmentPolicyError {
	return &ReassignmentPolicyError{
		DocumentID:        documentID,
		TargetQuotationID: targetQuotationID,
		Reason:            reason,
	}
}
