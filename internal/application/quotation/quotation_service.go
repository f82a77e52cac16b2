package quotation

import (
	"context"

	"github.com/docflow/backend/internal/domain/quotation"
	"github.com/docflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// QuotationService handles quotation lifecycle operations. Status decisions
// (approve/reject) are recorded here on behalf of the external approval
// workflow, which consumes the published lifecycle events.
type QuotationService struct {
	quotationRepo  quotation.Repository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewQuotationService creates a new QuotationService
func NewQuotationService(quotationRepo quotation.Repository, logger *zap.Logger) *QuotationService {
	return &QuotationService{
		quotationRepo: quotationRepo,
		logger:        logger,
	}
}

// SetEventPublisher sets the publisher for quotation lifecycle events
func (s *QuotationService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create creates a new DRAFT quotation with the given lines
func (s *QuotationService) Create(ctx context.Context, req CreateQuotationRequest) (*QuotationResponse, error) {
	q, err := quotation.NewQuotation(req.ProjectID)
	if err != nil {
		return nil, err
	}

	for _, line := range req.Lines {
		if _, err := q.AddLine(line.ProductID, line.Quantity, line.UnitPrice); err != nil {
			return nil, err
		}
	}

	if err := s.quotationRepo.Save(ctx, q); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, q)

	resp := ToQuotationResponse(q)
	return &resp, nil
}

// GetByID retrieves a quotation by ID
func (s *QuotationService) GetByID(ctx context.Context, id uuid.UUID) (*QuotationResponse, error) {
	q, err := s.quotationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToQuotationResponse(q)
	return &resp, nil
}

// ListByProject retrieves quotations for a project
func (s *QuotationService) ListByProject(ctx context.Context, projectID uuid.UUID, filter shared.Filter) ([]QuotationResponse, error) {
	quotations, err := s.quotationRepo.FindByProject(ctx, projectID, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]QuotationResponse, 0, len(quotations))
	for i := range quotations {
		responses = append(responses, ToQuotationResponse(&quotations[i]))
	}
	return responses, nil
}

// GetLatestApprovedForProject returns the highest-revision quotation that
// currently authorizes movement creation for the project
func (s *QuotationService) GetLatestApprovedForProject(ctx context.Context, projectID uuid.UUID) (*QuotationResponse, error) {
	q, err := s.quotationRepo.FindLatestApprovedForProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	resp := ToQuotationResponse(q)
	return &resp, nil
}

// AddLine adds a line to a DRAFT quotation
func (s *QuotationService) AddLine(ctx context.Context, id uuid.UUID, line LineInput) (*QuotationResponse, error) {
	return s.mutate(ctx, id, func(q *quotation.Quotation) error {
		_, err := q.AddLine(line.ProductID, line.Quantity, line.UnitPrice)
		return err
	})
}

// UpdateLineQuantity changes the quantity of a line on a DRAFT quotation
func (s *QuotationService) UpdateLineQuantity(ctx context.Context, id uuid.UUID, req UpdateLineRequest) (*QuotationResponse, error) {
	return s.mutate(ctx, id, func(q *quotation.Quotation) error {
		return q.UpdateLineQuantity(req.LineID, req.Quantity)
	})
}

// RemoveLine removes a line from a DRAFT quotation
func (s *QuotationService) RemoveLine(ctx context.Context, id, lineID uuid.UUID) (*QuotationResponse, error) {
	return s.mutate(ctx, id, func(q *quotation.Quotation) error {
		return q.RemoveLine(lineID)
	})
}

// SubmitForApproval transitions a quotation from DRAFT to PENDING
func (s *QuotationService) SubmitForApproval(ctx context.Context, id uuid.UUID) (*QuotationResponse, error) {
	return s.mutate(ctx, id, func(q *quotation.Quotation) error {
		return q.SubmitForApproval()
	})
}

// Approve records an approval decision from the approval workflow
func (s *QuotationService) Approve(ctx context.Context, id uuid.UUID) (*QuotationResponse, error) {
	return s.mutate(ctx, id, func(q *quotation.Quotation) error {
		return q.Approve()
	})
}

// Reject records a rejection decision from the approval workflow
func (s *QuotationService) Reject(ctx context.Context, id uuid.UUID) (*QuotationResponse, error) {
	return s.mutate(ctx, id, func(q *quotation.Quotation) error {
		return q.Reject()
	})
}

// MarkSending marks the quotation as being dispatched to the customer
func (s *QuotationService) MarkSending(ctx context.Context, id uuid.UUID) (*QuotationResponse, error) {
	return s.mutate(ctx, id, func(q *quotation.Quotation) error {
		return q.MarkSending()
	})
}

// MarkSent marks the dispatch as completed
func (s *QuotationService) MarkSent(ctx context.Context, id uuid.UUID) (*QuotationResponse, error) {
	return s.mutate(ctx, id, func(q *quotation.Quotation) error {
		return q.MarkSent()
	})
}

// MarkAccepted records the customer's acceptance
func (s *QuotationService) MarkAccepted(ctx context.Context, id uuid.UUID) (*QuotationResponse, error) {
	return s.mutate(ctx, id, func(q *quotation.Quotation) error {
		return q.MarkAccepted()
	})
}

// CreateNewRevision creates a DRAFT copy of a decided quotation at the next
// revision number. The source quotation is left untouched.
func (s *QuotationService) CreateNewRevision(ctx context.Context, id uuid.UUID) (*QuotationResponse, error) {
	q, err := s.quotationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	next, err := q.CreateNewRevision()
	if err != nil {
		return nil, err
	}

	if err := s.quotationRepo.Save(ctx, next); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, next)

	s.logger.Info("Quotation revised",
		zap.String("source_id", q.ID.String()),
		zap.String("revision_id", next.ID.String()),
		zap.Int("revision", next.Revision),
	)

	resp := ToQuotationResponse(next)
	return &resp, nil
}

// mutate loads a quotation, applies fn, and saves with optimistic locking
func (s *QuotationService) mutate(ctx context.Context, id uuid.UUID, fn func(q *quotation.Quotation) error) (*QuotationResponse, error) {
	q, err := s.quotationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := fn(q); err != nil {
		return nil, err
	}

	if err := s.quotationRepo.SaveWithLock(ctx, q); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, q)

	resp := ToQuotationResponse(q)
	return &resp, nil
}

// publishEvents publishes and clears the aggregate's pending events. A
// publish failure is logged, not returned: the state change is already
// durable and the approval workflow reconciles via polling.
func (s *QuotationService) publishEvents(ctx context.Context, q *quotation.Quotation) {
	events := q.GetDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		q.ClearDomainEvents()
		return
	}

	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish quotation events",
			zap.String("quotation_id", q.ID.String()),
			zap.Error(err),
		)
	}
	q.ClearDomainEvents()
}
