package document

import (
	"time"

	"github.com/docflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceLine represents a line item in an invoice
type InvoiceLine struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	InvoiceID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity  decimal.Decimal `gorm:"type:decimal(18,4);not null"` // Quantity invoiced
	UnitPrice decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CreatedAt time.Time       `gorm:"not null"`
	UpdatedAt time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InvoiceLine) TableName() string {
	return "invoice_lines"
}

// Payment tracks cash received against an invoice. Payments are financial
// records and are not quantity-guarded.
type Payment struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	InvoiceID uuid.UUID       `gorm:"type:uuid;not null;index"`
	PaidAt    time.Time       `gorm:"not null"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Method    string          `gorm:"type:varchar(50);not null"`
	Reference string          `gorm:"type:varchar(100)"`
	CreatedAt time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (Payment) TableName() string {
	return "invoice_payments"
}

// Invoice represents a billing record against a quotation. Invoiced
// quantities are bounded the same way delivered quantities are, via the
// quantity guard.
type Invoice struct {
	shared.BaseAggregateRoot
	ProjectID   uuid.UUID      `gorm:"type:uuid;not null;index"`
	QuotationID *uuid.UUID     `gorm:"type:uuid;index"`
	InvoiceDate time.Time      `gorm:"not null"`
	Status      MovementStatus `gorm:"type:varchar(20);not null;index"`
	Lines       []InvoiceLine  `gorm:"foreignKey:InvoiceID"`
	Payments    []Payment      `gorm:"foreignKey:InvoiceID"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ReturnedAt  *time.Time     `gorm:"type:timestamp"`
}

// TableName returns the table name for GORM
func (Invoice) TableName() string {
	return "invoices"
}

// InvoiceLineInput is the input for creating an invoice line
type InvoiceLineInput struct {
	ProductID uuid.UUID
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// NewInvoice creates a new invoice in RECORDED status
func NewInvoice(projectID uuid.UUID, quotationID *uuid.UUID, invoiceDate time.Time, lines []InvoiceLineInput) (*Invoice, error) {
	if projectID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PROJECT", "Project ID cannot be empty")
	}
	if len(lines) == 0 {
		return nil, shared.NewDomainError("NO_LINES", "Invoice requires at least one line")
	}
	if invoiceDate.IsZero() {
		invoiceDate = time.Now()
	}

	inv := &Invoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProjectID:         projectID,
		QuotationID:       quotationID,
		InvoiceDate:       invoiceDate,
		Status:            MovementStatusRecorded,
		Lines:             make([]InvoiceLine, 0, len(lines)),
		Payments:          make([]Payment, 0),
		TotalAmount:       decimal.Zero,
	}

	now := time.Now()
	for _, line := range lines {
		if line.ProductID == uuid.Nil {
			return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
		}
		if line.Quantity.LessThanOrEqual(decimal.Zero) {
			return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
		}
		if line.UnitPrice.IsNegative() {
			return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
		}
		amount := line.Quantity.Mul(line.UnitPrice)
		inv.Lines = append(inv.Lines, InvoiceLine{
			ID:        uuid.New(),
			InvoiceID: inv.ID,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			Amount:    amount,
			CreatedAt: now,
			UpdatedAt: now,
		})
		inv.TotalAmount = inv.TotalAmount.Add(amount)
	}

	return inv, nil
}

// MarkDelivered transitions the invoice from RECORDED to DELIVERED
func (i *Invoice) MarkDelivered() error {
	if !i.Status.CanTransitionTo(MovementStatusDelivered) {
		return shared.NewInvalidTransitionError(i.Status.String(), MovementStatusDelivered.String())
	}

	i.Status = MovementStatusDelivered
	i.UpdatedAt = time.Now()

	return nil
}

// MarkReturned transitions the invoice to RETURNED (credit correction).
// Unguarded: it frees the invoiced quantity for future movements.
func (i *Invoice) MarkReturned() error {
	if !i.Status.CanTransitionTo(MovementStatusReturned) {
		return shared.NewInvalidTransitionError(i.Status.String(), MovementStatusReturned.String())
	}

	now := time.Now()
	i.Status = MovementStatusReturned
	i.ReturnedAt = &now
	i.UpdatedAt = now

	return nil
}

// ReassignTo rebinds the invoice to another quotation; see Delivery.ReassignTo
func (i *Invoice) ReassignTo(quotationID uuid.UUID) error {
	if quotationID == uuid.Nil {
		return shared.NewDomainError("INVALID_QUOTATION", "Quotation ID cannot be empty")
	}

	i.QuotationID = &quotationID
	i.UpdatedAt = time.Now()

	return nil
}

// RecordPayment records cash received against the invoice
func (i *Invoice) RecordPayment(paidAt time.Time, amount decimal.Decimal, method, reference string) (*Payment, error) {
	if i.Status == MovementStatusReturned {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot record payment on a returned invoice")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if method == "" {
		return nil, shared.NewDomainError("INVALID_METHOD", "Payment method is required")
	}
	if paidAt.IsZero() {
		paidAt = time.Now()
	}

	payment := Payment{
		ID:        uuid.New(),
		InvoiceID: i.ID,
		PaidAt:    paidAt,
		Amount:    amount,
		Method:    method,
		Reference: reference,
		CreatedAt: time.Now(),
	}

	i.Payments = append(i.Payments, payment)
	i.UpdatedAt = time.Now()

	return &payment, nil
}

// PaidAmount returns the sum of all recorded payments
func (i *Invoice) PaidAmount() decimal.Decimal {
	paid := decimal.Zero
	for _, p := range i.Payments {
		paid = paid.Add(p.Amount)
	}
	return paid
}

// OutstandingAmount returns the unpaid balance. May be negative if the
// invoice was overpaid.
func (i *Invoice) OutstandingAmount() decimal.Decimal {
	return i.TotalAmount.Sub(i.PaidAmount())
}

// CountsTowardConsumption reports whether this invoice consumes authorized quantity
func (i *Invoice) CountsTowardConsumption() bool {
	return i.Status.CountsTowardConsumption()
}

// GuardLines projects the invoice lines onto guard lines
func (i *Invoice) GuardLines() []GuardLine {
	lines := make([]GuardLine, 0, len(i.Lines))
	for _, line := range i.Lines {
		lines = append(lines, GuardLine{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	return lines
}

// Consumption projects the invoice onto the quantity guard's input shape
func (i *Invoice) Consumption() Consumption {
	return Consumption{
		Counted: i.CountsTowardConsumption(),
		Lines:   i.GuardLines(),
	}
}
