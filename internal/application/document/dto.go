package document

import (
	"time"

	"github.com/docflow/backend/internal/domain/document"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DeliveryLineInput is the input for a delivery line
type DeliveryLineInput struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// CreateDeliveryRequest is the request to record a delivery against a quotation
type CreateDeliveryRequest struct {
	QuotationID  uuid.UUID           `json:"quotation_id"`
	DeliveryDate time.Time           `json:"delivery_date"`
	Lines        []DeliveryLineInput `json:"lines"`
}

// InvoiceLineInput is the input for an invoice line
type InvoiceLineInput struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CreateInvoiceRequest is the request to record an invoice against a quotation
type CreateInvoiceRequest struct {
	QuotationID uuid.UUID          `json:"quotation_id"`
	InvoiceDate time.Time          `json:"invoice_date"`
	Lines       []InvoiceLineInput `json:"lines"`
}

// ReassignRequest is the request to rebind a movement to another quotation
type ReassignRequest struct {
	TargetQuotationID uuid.UUID `json:"target_quotation_id"`
}

// RecordPaymentRequest is the request to record a payment against an invoice
type RecordPaymentRequest struct {
	PaidAt    time.Time       `json:"paid_at"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	Reference string          `json:"reference"`
}

// DeliveryLineResponse is the response representation of a delivery line
type DeliveryLineResponse struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// DeliveryResponse is the response representation of a delivery
type DeliveryResponse struct {
	ID           uuid.UUID              `json:"id"`
	ProjectID    uuid.UUID              `json:"project_id"`
	QuotationID  *uuid.UUID             `json:"quotation_id,omitempty"`
	DeliveryDate time.Time              `json:"delivery_date"`
	Status       string                 `json:"status"`
	Lines        []DeliveryLineResponse `json:"lines"`
	ReturnedAt   *time.Time             `json:"returned_at,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// ToDeliveryResponse converts a delivery aggregate to a response DTO
func ToDeliveryResponse(d *document.Delivery) DeliveryResponse {
	lines := make([]DeliveryLineResponse, 0, len(d.Lines))
	for _, line := range d.Lines {
		lines = append(lines, DeliveryLineResponse{
			ID:        line.ID,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		})
	}

	return DeliveryResponse{
		ID:           d.ID,
		ProjectID:    d.ProjectID,
		QuotationID:  d.QuotationID,
		DeliveryDate: d.DeliveryDate,
		Status:       d.Status.String(),
		Lines:        lines,
		ReturnedAt:   d.ReturnedAt,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// InvoiceLineResponse is the response representation of an invoice line
type InvoiceLineResponse struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Amount    decimal.Decimal `json:"amount"`
}

// PaymentResponse is the response representation of an invoice payment
type PaymentResponse struct {
	ID        uuid.UUID       `json:"id"`
	PaidAt    time.Time       `json:"paid_at"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	Reference string          `json:"reference,omitempty"`
}

// InvoiceResponse is the response representation of an invoice
type InvoiceResponse struct {
	ID          uuid.UUID             `json:"id"`
	ProjectID   uuid.UUID             `json:"project_id"`
	QuotationID *uuid.UUID            `json:"quotation_id,omitempty"`
	InvoiceDate time.Time             `json:"invoice_date"`
	Status      string                `json:"status"`
	Lines       []InvoiceLineResponse `json:"lines"`
	Payments    []PaymentResponse     `json:"payments"`
	TotalAmount decimal.Decimal       `json:"total_amount"`
	PaidAmount  decimal.Decimal       `json:"paid_amount"`
	Outstanding decimal.Decimal       `json:"outstanding_amount"`
	ReturnedAt  *time.Time            `json:"returned_at,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// ToInvoiceResponse converts an invoice aggregate to a response DTO
func ToInvoiceResponse(inv *document.Invoice) InvoiceResponse {
	lines := make([]InvoiceLineResponse, 0, len(inv.Lines))
	for _, line := range inv.Lines {
		lines = append(lines, InvoiceLineResponse{
			ID:        line.ID,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			Amount:    line.Amount,
		})
	}

	payments := make([]PaymentResponse, 0, len(inv.Payments))
	for _, p := range inv.Payments {
		payments = append(payments, PaymentResponse{
			ID:        p.ID,
			PaidAt:    p.PaidAt,
			Amount:    p.Amount,
			Method:    p.Method,
			Reference: p.Reference,
		})
	}

	return InvoiceResponse{
		ID:          inv.ID,
		ProjectID:   inv.ProjectID,
		QuotationID: inv.QuotationID,
		InvoiceDate: inv.InvoiceDate,
		Status:      inv.Status.String(),
		Lines:       lines,
		Payments:    payments,
		TotalAmount: inv.TotalAmount,
		PaidAmount:  inv.PaidAmount(),
		Outstanding: inv.OutstandingAmount(),
		ReturnedAt:  inv.ReturnedAt,
		CreatedAt:   inv.CreatedAt,
		UpdatedAt:   inv.UpdatedAt,
	}
}
