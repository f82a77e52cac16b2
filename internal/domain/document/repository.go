package document

import (
	"context"

	"github.com/docflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// DeliveryRepository defines persistence operations for deliveries
type DeliveryRepository interface {
	// FindByID finds a delivery with its lines
	FindByID(ctx context.Context, id uuid.UUID) (*Delivery, error)

	// FindByQuotation finds all deliveries recorded against a quotation
	FindByQuotation(ctx context.Context, quotationID uuid.UUID) ([]Delivery, error)

	// FindByProject finds deliveries for a project with filtering
	FindByProject(ctx context.Context, projectID uuid.UUID, filter shared.Filter) ([]Delivery, error)

	// Save creates or updates a delivery and its lines
	Save(ctx context.Context, d *Delivery) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, d *Delivery) error
}

// InvoiceRepository defines persistence operations for invoices
type InvoiceRepository interface {
	// FindByID finds an invoice with its lines and payments
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// FindByQuotation finds all invoices recorded against a quotation
	FindByQuotation(ctx context.Context, quotationID uuid.UUID) ([]Invoice, error)

	// FindByProject finds invoices for a project with filtering
	FindByProject(ctx context.Context, projectID uuid.UUID, filter shared.Filter) ([]Invoice, error)

	// Save creates or updates an invoice, its lines and payments
	Save(ctx context.Context, i *Invoice) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, i *Invoice) error
}
