package document

import (
	"context"

	"github.com/docflow/backend/internal/domain/document"
	"github.com/docflow/backend/internal/domain/quotation"
	"github.com/docflow/backend/internal/domain/shared"
	"github.com/docflow/backend/internal/infrastructure/lock"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Locker serializes movement creation per quotation. Implemented by the
// lock service; faked in tests.
type Locker interface {
	RunExclusive(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// ErrQuotationNotApproved is returned when the quotation's status does not
// authorize movement creation
var ErrQuotationNotApproved = shared.NewDomainError("QUOTATION_NOT_APPROVED", "Quotation status does not allow recording movements")

// DeliveryService orchestrates delivery creation and lifecycle. Creation
// runs entirely inside the per-quotation critical section so the quantity
// guard sees a stable view of existing deliveries.
type DeliveryService struct {
	deliveryRepo  document.DeliveryRepository
	quotationRepo quotation.Repository
	locker        Locker
	logger        *zap.Logger
}

// NewDeliveryService creates a new DeliveryService
func NewDeliveryService(
	deliveryRepo document.DeliveryRepository,
	quotationRepo quotation.Repository,
	locker Locker,
	logger *zap.Logger,
) *DeliveryService {
	return &DeliveryService{
		deliveryRepo:  deliveryRepo,
		quotationRepo: quotationRepo,
		locker:        locker,
		logger:        logger,
	}
}

// Create records a delivery against a quotation. The whole sequence of
// load, status gate, quantity guard, and persist runs under the quotation
// lock; concurrent creations against the same quotation serialize, distinct
// quotations proceed in parallel. Returns shared.ErrLockTimeout when the
// lock cannot be acquired within the wait budget.
func (s *DeliveryService) Create(ctx context.Context, req CreateDeliveryRequest) (*DeliveryResponse, error) {
	var resp DeliveryResponse

	err := s.locker.RunExclusive(ctx, lock.QuotationKey(req.QuotationID), func(ctx context.Context) error {
		q, err := s.quotationRepo.FindByID(ctx, req.QuotationID)
		if err != nil {
			return err
		}
		if !q.IsApprovedEquivalent() {
			return ErrQuotationNotApproved
		}

		existing, err := s.deliveryRepo.FindByQuotation(ctx, req.QuotationID)
		if err != nil {
			return err
		}

		proposed := make([]document.GuardLine, 0, len(req.Lines))
		for _, line := range req.Lines {
			proposed = append(proposed, document.GuardLine{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
			})
		}

		consumptions := make([]document.Consumption, 0, len(existing))
		for i := range existing {
			consumptions = append(consumptions, existing[i].Consumption())
		}

		if err := document.CheckQuantities(q.AuthorizedQuantities(), consumptions, proposed); err != nil {
			return err
		}

		d, err := document.NewDelivery(q.ProjectID, &q.ID, req.DeliveryDate, proposed)
		if err != nil {
			return err
		}

		if err := s.deliveryRepo.Save(ctx, d); err != nil {
			return err
		}

		s.logger.Info("Delivery recorded",
			zap.String("delivery_id", d.ID.String()),
			zap.String("quotation_id", q.ID.String()),
			zap.Int("lines", len(d.Lines)),
		)

		resp = ToDeliveryResponse(d)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &resp, nil
}

// GetByID retrieves a delivery by ID
func (s *DeliveryService) GetByID(ctx context.Context, id uuid.UUID) (*DeliveryResponse, error) {
	d, err := s.deliveryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToDeliveryResponse(d)
	return &resp, nil
}

// ListByProject retrieves deliveries for a project
func (s *DeliveryService) ListByProject(ctx context.Context, projectID uuid.UUID, filter shared.Filter) ([]DeliveryResponse, error) {
	deliveries, err := s.deliveryRepo.FindByProject(ctx, projectID, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]DeliveryResponse, 0, len(deliveries))
	for i := range deliveries {
		responses = append(responses, ToDeliveryResponse(&deliveries[i]))
	}
	return responses, nil
}

// Reassign rebinds a delivery to another quotation. The target quotation is
// locked, its status and project are validated, but the quantity guard is
// intentionally skipped: reassignment is the operator's escape hatch and may
// leave the target quotation over-consumed.
func (s *DeliveryService) Reassign(ctx context.Context, deliveryID uuid.UUID, req ReassignRequest) (*DeliveryResponse, error) {
	var resp DeliveryResponse

	err := s.locker.RunExclusive(ctx, lock.QuotationKey(req.TargetQuotationID), func(ctx context.Context) error {
		d, err := s.deliveryRepo.FindByID(ctx, deliveryID)
		if err != nil {
			return err
		}

		target, err := s.quotationRepo.FindByID(ctx, req.TargetQuotationID)
		if err != nil {
			return err
		}

		if !target.IsApprovedEquivalent() {
			return document.NewReassignmentPolicyError(d.ID, target.ID, document.ReassignmentReasonStatus)
		}
		if target.ProjectID != d.ProjectID {
			return document.NewReassignmentPolicyError(d.ID, target.ID, document.ReassignmentReasonProject)
		}

		if err := d.ReassignTo(target.ID); err != nil {
			return err
		}

		if err := s.deliveryRepo.SaveWithLock(ctx, d); err != nil {
			return err
		}

		s.logger.Info("Delivery reassigned",
			zap.String("delivery_id", d.ID.String()),
			zap.String("target_quotation_id", target.ID.String()),
		)

		resp = ToDeliveryResponse(d)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &resp, nil
}

// MarkDelivered transitions a delivery from RECORDED to DELIVERED
func (s *DeliveryService) MarkDelivered(ctx context.Context, id uuid.UUID) (*DeliveryResponse, error) {
	return s.mutate(ctx, id, func(d *document.Delivery) error {
		return d.MarkDelivered()
	})
}

// MarkReturned transitions a delivery to RETURNED, freeing its quantity for
// future movements. The transition itself is unguarded.
func (s *DeliveryService) MarkReturned(ctx context.Context, id uuid.UUID) (*DeliveryResponse, error) {
	return s.mutate(ctx, id, func(d *document.Delivery) error {
		return d.MarkReturned()
	})
}

// mutate loads a delivery, applies fn, and saves with optimistic locking
func (s *DeliveryService) mutate(ctx context.Context, id uuid.UUID, fn func(d *document.Delivery) error) (*DeliveryResponse, error) {
	d, err := s.deliveryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := fn(d); err != nil {
		return nil, err
	}

	if err := s.deliveryRepo.SaveWithLock(ctx, d); err != nil {
		return nil, err
	}

	resp := ToDeliveryResponse(d)
	return &resp, nil
}
