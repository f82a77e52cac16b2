package quotation

import (
	"github.com/docflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Event types for the quotation lifecycle
const (
	EventQuotationCreated   = "quotation.created"
	EventQuotationSubmitted = "quotation.submitted"
	EventQuotationApproved  = "quotation.approved"
	EventQuotationRejected  = "quotation.rejected"
	EventQuotationAccepted  = "quotation.accepted"
	EventQuotationRevised   = "quotation.revised"
)

const aggregateType = "Quotation"

// QuotationCreatedEvent is emitted when a quotation is created
type QuotationCreatedEvent struct {
	shared.BaseDomainEvent
	ProjectID uuid.UUID `json:"project_id"`
	Revision  int       `json:"revision"`
}

// NewQuotationCreatedEvent creates a new QuotationCreatedEvent
func NewQuotationCreatedEvent(q *Quotation) *QuotationCreatedEvent {
	return &QuotationCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventQuotationCreated, aggregateType, q.ID),
		ProjectID:       q.ProjectID,
		Revision:        q.Revision,
	}
}

// QuotationSubmittedEvent is emitted when a quotation is submitted for
// approval. The external approval workflow consumes this event.
type QuotationSubmittedEvent struct {
	shared.BaseDomainEvent
	ProjectID uuid.UUID `json:"project_id"`
	Revision  int       `json:"revision"`
	LineCount int       `json:"line_count"`
}

// NewQuotationSubmittedEvent creates a new QuotationSubmittedEvent
func NewQuotationSubmittedEvent(q *Quotation) *QuotationSubmittedEvent {
	return &QuotationSubmittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventQuotationSubmitted, aggregateType, q.ID),
		ProjectID:       q.ProjectID,
		Revision:        q.Revision,
		LineCount:       len(q.Lines),
	}
}

// QuotationApprovedEvent is emitted when a quotation is approved
type QuotationApprovedEvent struct {
	shared.BaseDomainEvent
	ProjectID uuid.UUID `json:"project_id"`
}

// NewQuotationApprovedEvent creates a new QuotationApprovedEvent
func NewQuotationApprovedEvent(q *Quotation) *QuotationApprovedEvent {
	return &QuotationApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventQuotationApproved, aggregateType, q.ID),
		ProjectID:       q.ProjectID,
	}
}

// QuotationRejectedEvent is emitted when a quotation is rejected
type QuotationRejectedEvent struct {
	shared.BaseDomainEvent
	ProjectID uuid.UUID `json:"project_id"`
}

// NewQuotationRejectedEvent creates a new QuotationRejectedEvent
func NewQuotationRejectedEvent(q *Quotation) *QuotationRejectedEvent {
	return &QuotationRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventQuotationRejected, aggregateType, q.ID),
		ProjectID:       q.ProjectID,
	}
}

// QuotationAcceptedEvent is emitted when the customer accepts a quotation.
// Project activation is a downstream side effect of this event.
type QuotationAcceptedEvent struct {
	shared.BaseDomainEvent
	ProjectID uuid.UUID `json:"project_id"`
	Revision  int       `json:"revision"`
}

// NewQuotationAcceptedEvent creates a new QuotationAcceptedEvent
func NewQuotationAcceptedEvent(q *Quotation) *QuotationAcceptedEvent {
	return &QuotationAcceptedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventQuotationAccepted, aggregateType, q.ID),
		ProjectID:       q.ProjectID,
		Revision:        q.Revision,
	}
}

// QuotationRevisedEvent is emitted when a new revision is created from an
// existing quotation
type QuotationRevisedEvent struct {
	shared.BaseDomainEvent
	ProjectID   uuid.UUID `json:"project_id"`
	SourceID    uuid.UUID `json:"source_id"`
	NewRevision int       `json:"new_revision"`
}

// NewQuotationRevisedEvent creates a new QuotationRevisedEvent
func NewQuotationRevisedEvent(source, next *Quotation) *QuotationRevisedEvent {
	return &QuotationRevisedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventQuotationRevised, aggregateType, next.ID),
		ProjectID:       next.ProjectID,
		SourceID:        source.ID,
		NewRevision:     next.Revision,
	}
}
