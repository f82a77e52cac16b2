package document

import (
	"context"

	"github.com/docflow/backend/internal/domain/document"
	"github.com/docflow/backend/internal/domain/quotation"
	"github.com/docflow/backend/internal/domain/shared"
	"github.com/docflow/backend/internal/infrastructure/lock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// GuardPolicy selects the authorized-quantity source for invoice creation
type GuardPolicy string

const (
	// GuardPolicyQuotation bounds invoiced quantities by the quotation's
	// authorized quantities (default)
	GuardPolicyQuotation GuardPolicy = "quotation"

	// GuardPolicyDelivered bounds invoiced quantities by what has actually
	// been delivered and not returned
	GuardPolicyDelivered GuardPolicy = "delivered"
)

// InvoiceService orchestrates invoice creation and lifecycle. Invoices share
// the quotation lock key with deliveries, so creation of either movement
// type serializes per quotation.
type InvoiceService struct {
	invoiceRepo   document.InvoiceRepository
	deliveryRepo  document.DeliveryRepository
	quotationRepo quotation.Repository
	locker        Locker
	policy        GuardPolicy
	logger        *zap.Logger
}

// NewInvoiceService creates a new InvoiceService with the default
// quotation-quantity guard policy
func NewInvoiceService(
	invoiceRepo document.InvoiceRepository,
	deliveryRepo document.DeliveryRepository,
	quotationRepo quotation.Repository,
	locker Locker,
	logger *zap.Logger,
) *InvoiceService {
	return &InvoiceService{
		invoiceRepo:   invoiceRepo,
		deliveryRepo:  deliveryRepo,
		quotationRepo: quotationRepo,
		locker:        locker,
		policy:        GuardPolicyQuotation,
		logger:        logger,
	}
}

// SetGuardPolicy overrides the authorized-quantity source for invoices
func (s *InvoiceService) SetGuardPolicy(policy GuardPolicy) {
	if policy == GuardPolicyQuotation || policy == GuardPolicyDelivered {
		s.policy = policy
	}
}

// Create records an invoice against a quotation. Runs under the quotation
// lock with the same load, gate, guard, persist sequence as deliveries; the
// authorized side of the guard comes from the configured policy.
func (s *InvoiceService) Create(ctx context.Context, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	var resp InvoiceResponse

	err := s.locker.RunExclusive(ctx, lock.QuotationKey(req.QuotationID), func(ctx context.Context) error {
		q, err := s.quotationRepo.FindByID(ctx, req.QuotationID)
		if err != nil {
			return err
		}
		if !q.IsApprovedEquivalent() {
			return ErrQuotationNotApproved
		}

		authorized, err := s.authorizedQuantities(ctx, q)
		if err != nil {
			return err
		}

		existing, err := s.invoiceRepo.FindByQuotation(ctx, req.QuotationID)
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

		if err := document.CheckQuantities(authorized, consumptions, proposed); err != nil {
			return err
		}

		inputs := make([]document.InvoiceLineInput, 0, len(req.Lines))
		for _, line := range req.Lines {
			inputs = append(inputs, document.InvoiceLineInput{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				UnitPrice: line.UnitPrice,
			})
		}

		inv, err := document.NewInvoice(q.ProjectID, &q.ID, req.InvoiceDate, inputs)
		if err != nil {
			return err
		}

		if err := s.invoiceRepo.Save(ctx, inv); err != nil {
			return err
		}

		s.logger.Info("Invoice recorded",
			zap.String("invoice_id", inv.ID.String()),
			zap.String("quotation_id", q.ID.String()),
			zap.String("total_amount", inv.TotalAmount.String()),
		)

		resp = ToInvoiceResponse(inv)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &resp, nil
}

// authorizedQuantities resolves the authorized side of the invoice guard.
// Under the delivered policy only non-returned deliveries authorize billing.
func (s *InvoiceService) authorizedQuantities(ctx context.Context, q *quotation.Quotation) (map[uuid.UUID]decimal.Decimal, error) {
	if s.policy != GuardPolicyDelivered {
		return q.AuthorizedQuantities(), nil
	}

	deliveries, err := s.deliveryRepo.FindByQuotation(ctx, q.ID)
	if err != nil {
		return nil, err
	}

	authorized := make(map[uuid.UUID]decimal.Decimal)
	for i := range deliveries {
		if !deliveries[i].CountsTowardConsumption() {
			continue
		}
		for _, line := range deliveries[i].Lines {
			current, ok := authorized[line.ProductID]
			if !ok {
				current = decimal.Zero
			}
			authorized[line.ProductID] = current.Add(line.Quantity)
		}
	}
	return authorized, nil
}

// GetByID retrieves an invoice by ID
func (s *InvoiceService) GetByID(ctx context.Context, id uuid.UUID) (*InvoiceResponse, error) {
	inv, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// ListByProject retrieves invoices for a project
func (s *InvoiceService) ListByProject(ctx context.Context, projectID uuid.UUID, filter shared.Filter) ([]InvoiceResponse, error) {
	invoices, err := s.invoiceRepo.FindByProject(ctx, projectID, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		responses = append(responses, ToInvoiceResponse(&invoices[i]))
	}
	return responses, nil
}

// Reassign rebinds an invoice to another quotation under the target's lock.
// Status and project are validated, the quantity guard is skipped; see
// DeliveryService.Reassign.
func (s *InvoiceService) Reassign(ctx context.Context, invoiceID uuid.UUID, req ReassignRequest) (*InvoiceResponse, error) {
	var resp InvoiceResponse

	err := s.locker.RunExclusive(ctx, lock.QuotationKey(req.TargetQuotationID), func(ctx context.Context) error {
		inv, err := s.invoiceRepo.FindByID(ctx, invoiceID)
		if err != nil {
			return err
		}

		target, err := s.quotationRepo.FindByID(ctx, req.TargetQuotationID)
		if err != nil {
			return err
		}

		if !target.IsApprovedEquivalent() {
			return document.NewReassignmentPolicyError(inv.ID, target.ID, document.ReassignmentReasonStatus)
		}
		if target.ProjectID != inv.ProjectID {
			return document.NewReassignmentPolicyError(inv.ID, target.ID, document.ReassignmentReasonProject)
		}

		if err := inv.ReassignTo(target.ID); err != nil {
			return err
		}

		if err := s.invoiceRepo.SaveWithLock(ctx, inv); err != nil {
			return err
		}

		s.logger.Info("Invoice reassigned",
			zap.String("invoice_id", inv.ID.String()),
			zap.String("target_quotation_id", target.ID.String()),
		)

		resp = ToInvoiceResponse(inv)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &resp, nil
}

// MarkDelivered transitions an invoice from RECORDED to DELIVERED
func (s *InvoiceService) MarkDelivered(ctx context.Context, id uuid.UUID) (*InvoiceResponse, error) {
	return s.mutate(ctx, id, func(inv *document.Invoice) error {
		return inv.MarkDelivered()
	})
}

// MarkReturned transitions an invoice to RETURNED (credit correction)
func (s *InvoiceService) MarkReturned(ctx context.Context, id uuid.UUID) (*InvoiceResponse, error) {
	return s.mutate(ctx, id, func(inv *document.Invoice) error {
		return inv.MarkReturned()
	})
}

// RecordPayment records a payment against an invoice. Payments are
// financial records, not movements; no lock or guard applies.
func (s *InvoiceService) RecordPayment(ctx context.Context, id uuid.UUID, req RecordPaymentRequest) (*InvoiceResponse, error) {
	return s.mutate(ctx, id, func(inv *document.Invoice) error {
		_, err := inv.RecordPayment(req.PaidAt, req.Amount, req.Method, req.Reference)
		return err
	})
}

// mutate loads an invoice, applies fn, and saves with optimistic locking
func (s *InvoiceService) mutate(ctx context.Context, id uuid.UUID, fn func(inv *document.Invoice) error) (*InvoiceResponse, error) {
	inv, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := fn(inv); err != nil {
		return nil, err
	}

	if err := s.invoiceRepo.SaveWithLock(ctx, inv); err != nil {
		return nil, err
	}

	resp := ToInvoiceResponse(inv)
	return &resp, nil
}
