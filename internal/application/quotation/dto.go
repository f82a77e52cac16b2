package quotation

import (
	"time"

	"github.com/docflow/backend/internal/domain/quotation"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineInput is the input for a quotation line
type LineInput struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CreateQuotationRequest is the request to create a quotation
type CreateQuotationRequest struct {
	ProjectID uuid.UUID   `json:"project_id"`
	Lines     []LineInput `json:"lines"`
}

// UpdateLineRequest is the request to change a line's quantity
type UpdateLineRequest struct {
	LineID   uuid.UUID       `json:"line_id"`
	Quantity decimal.Decimal `json:"quantity"`
}

// LineResponse is the response representation of a quotation line
type LineResponse struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Amount    decimal.Decimal `json:"amount"`
}

// QuotationResponse is the response representation of a quotation
type QuotationResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProjectID   uuid.UUID       `json:"project_id"`
	Revision    int             `json:"revision"`
	Status      string          `json:"status"`
	Lines       []LineResponse  `json:"lines"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	SubmittedAt *time.Time      `json:"submitted_at,omitempty"`
	DecidedAt   *time.Time      `json:"decided_at,omitempty"`
	SentAt      *time.Time      `json:"sent_at,omitempty"`
	AcceptedAt  *time.Time      `json:"accepted_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ToQuotationResponse converts a quotation aggregate to a response DTO
func ToQuotationResponse(q *quotation.Quotation) QuotationResponse {
	lines := make([]LineResponse, 0, len(q.Lines))
	for _, line := range q.Lines {
		lines = append(lines, LineResponse{
			ID:        line.ID,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			Amount:    line.Amount,
		})
	}

	return QuotationResponse{
		ID:          q.ID,
		ProjectID:   q.ProjectID,
		Revision:    q.Revision,
		Status:      q.Status.String(),
		Lines:       lines,
		TotalAmount: q.TotalAmount,
		SubmittedAt: q.SubmittedAt,
		DecidedAt:   q.DecidedAt,
		SentAt:      q.SentAt,
		AcceptedAt:  q.AcceptedAt,
		CreatedAt:   q.CreatedAt,
		UpdatedAt:   q.UpdatedAt,
	}
}
