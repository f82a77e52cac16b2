package quotation

import (
	"time"

	"github.com/docflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents the status of a quotation
type Status string

const (
	StatusDraft    Status = "DRAFT"
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
	StatusSending  Status = "SENDING"
	StatusSent     Status = "SENT"
	StatusAccepted Status = "ACCEPTED"
)

// IsValid checks if the status is a valid quotation Status
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusApproved, StatusRejected, StatusSending, StatusSent, StatusAccepted:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusDraft:
		return target == StatusPending
	case StatusPending:
		return target == StatusApproved || target == StatusRejected
	case StatusApproved:
		return target == StatusSending || target == StatusAccepted
	case StatusSending:
		return target == StatusSent
	case StatusSent:
		return target == StatusSending || target == StatusAccepted
	case StatusRejected, StatusAccepted:
		return false
	}
	return false
}

// IsApprovedEquivalent returns true for statuses that authorize movement
// creation against this quotation. This is the permissive gate; consuming
// layers may tighten the policy to ACCEPTED-only via IsAccepted.
func (s Status) IsApprovedEquivalent() bool {
	return s == StatusApproved || s == StatusSent || s == StatusAccepted
}

// Line represents a line item in a quotation
type Line struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	QuotationID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"` // Authorized quantity
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,4);not null"` // Quantity * UnitPrice
	CreatedAt   time.Time       `gorm:"not null"`
	UpdatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (Line) TableName() string {
	return "quotation_lines"
}

// NewLine creates a new quotation line
func NewLine(quotationID, productID uuid.UUID, quantity, unitPrice decimal.Decimal) (*Line, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	now := time.Now()
	return &Line{
		ID:          uuid.New(),
		QuotationID: quotationID,
		ProductID:   productID,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		Amount:      quantity.Mul(unitPrice),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Quotation represents an authorized sell-side document. Its line item
// quantities bound what deliveries and invoices may consume. Quantities
// are immutable once the quotation leaves DRAFT; revisions are new rows.
type Quotation struct {
	shared.BaseAggregateRoot
	ProjectID   uuid.UUID       `gorm:"type:uuid;not null;index:idx_quotation_project"`
	Revision    int             `gorm:"not null;default:1;index:idx_quotation_project"` // Monotonic per project
	Status      Status          `gorm:"type:varchar(20);not null;index"`
	Lines       []Line          `gorm:"foreignKey:QuotationID"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	SubmittedAt *time.Time      `gorm:"type:timestamp"`
	DecidedAt   *time.Time      `gorm:"type:timestamp"` // Approval or rejection time
	SentAt      *time.Time      `gorm:"type:timestamp"`
	AcceptedAt  *time.Time      `gorm:"type:timestamp"`
}

// TableName returns the table name for GORM
func (Quotation) TableName() string {
	return "quotations"
}

// NewQuotation creates a new quotation in DRAFT status at revision 1
func NewQuotation(projectID uuid.UUID) (*Quotation, error) {
	if projectID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PROJECT", "Project ID cannot be empty")
	}

	q := &Quotation{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProjectID:         projectID,
		Revision:          1,
		Status:            StatusDraft,
		Lines:             make([]Line, 0),
		TotalAmount:       decimal.Zero,
	}

	q.AddDomainEvent(NewQuotationCreatedEvent(q))

	return q, nil
}

// AddLine adds a new line to the quotation. Only allowed in DRAFT status.
func (q *Quotation) AddLine(productID uuid.UUID, quantity, unitPrice decimal.Decimal) (*Line, error) {
	if !q.CanModify() {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot add lines to a non-draft quotation")
	}

	for _, line := range q.Lines {
		if line.ProductID == productID {
			return nil, shared.NewDomainError("DUPLICATE_PRODUCT", "Product already exists in quotation, update quantity instead")
		}
	}

	line, err := NewLine(q.ID, productID, quantity, unitPrice)
	if err != nil {
		return nil, err
	}

	q.Lines = append(q.Lines, *line)
	q.recalculateTotal()
	q.UpdatedAt = time.Now()

	return line, nil
}

// UpdateLineQuantity updates the quantity of an existing line. Only allowed in DRAFT status.
func (q *Quotation) UpdateLineQuantity(lineID uuid.UUID, quantity decimal.Decimal) error {
	if !q.CanModify() {
		return shared.NewDomainError("INVALID_STATE", "Cannot update lines in a non-draft quotation")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}

	for idx := range q.Lines {
		if q.Lines[idx].ID == lineID {
			q.Lines[idx].Quantity = quantity
			q.Lines[idx].Amount = quantity.Mul(q.Lines[idx].UnitPrice)
			q.Lines[idx].UpdatedAt = time.Now()
			q.recalculateTotal()
			q.UpdatedAt = time.Now()
			return nil
		}
	}

	return shared.NewDomainError("LINE_NOT_FOUND", "Quotation line not found")
}

// RemoveLine removes a line from the quotation. Only allowed in DRAFT status.
func (q *Quotation) RemoveLine(lineID uuid.UUID) error {
	if !q.CanModify() {
		return shared.NewDomainError("INVALID_STATE", "Cannot remove lines from a non-draft quotation")
	}

	for idx, line := range q.Lines {
		if line.ID == lineID {
			q.Lines = append(q.Lines[:idx], q.Lines[idx+1:]...)
			q.recalculateTotal()
			q.UpdatedAt = time.Now()
			return nil
		}
	}

	return shared.NewDomainError("LINE_NOT_FOUND", "Quotation line not found")
}

// SubmitForApproval transitions the quotation from DRAFT to PENDING.
// Requires at least one line.
func (q *Quotation) SubmitForApproval() error {
	if !q.Status.CanTransitionTo(StatusPending) {
		return shared.NewInvalidTransitionError(q.Status.String(), StatusPending.String())
	}
	if len(q.Lines) == 0 {
		return shared.NewDomainError("NO_LINES", "Cannot submit quotation without lines")
	}

	now := time.Now()
	q.Status = StatusPending
	q.SubmittedAt = &now
	q.UpdatedAt = now

	q.AddDomainEvent(NewQuotationSubmittedEvent(q))

	return nil
}

// Approve transitions the quotation from PENDING to APPROVED. The decision
// is driven by the external approval workflow; this method only records it.
func (q *Quotation) Approve() error {
	if !q.Status.CanTransitionTo(StatusApproved) {
		return shared.NewInvalidTransitionError(q.Status.String(), StatusApproved.String())
	}

	now := time.Now()
	q.Status = StatusApproved
	q.DecidedAt = &now
	q.UpdatedAt = now

	q.AddDomainEvent(NewQuotationApprovedEvent(q))

	return nil
}

// Reject transitions the quotation from PENDING to REJECTED
func (q *Quotation) Reject() error {
	if !q.Status.CanTransitionTo(StatusRejected) {
		return shared.NewInvalidTransitionError(q.Status.String(), StatusRejected.String())
	}

	now := time.Now()
	q.Status = StatusRejected
	q.DecidedAt = &now
	q.UpdatedAt = now

	q.AddDomainEvent(NewQuotationRejectedEvent(q))

	return nil
}

// MarkSending transitions the quotation to SENDING while an email dispatch
// is in flight. Allowed from APPROVED or SENT (re-send).
func (q *Quotation) MarkSending() error {
	if !q.Status.CanTransitionTo(StatusSending) {
		return shared.NewInvalidTransitionError(q.Status.String(), StatusSending.String())
	}

	q.Status = StatusSending
	q.UpdatedAt = time.Now()

	return nil
}

// MarkSent transitions the quotation from SENDING to SENT
func (q *Quotation) MarkSent() error {
	if !q.Status.CanTransitionTo(StatusSent) {
		return shared.NewInvalidTransitionError(q.Status.String(), StatusSent.String())
	}

	now := time.Now()
	q.Status = StatusSent
	q.SentAt = &now
	q.UpdatedAt = now

	return nil
}

// MarkAccepted transitions the quotation to ACCEPTED. Terminal for this
// revision; project activation is handled by a downstream consumer of the
// accepted event.
func (q *Quotation) MarkAccepted() error {
	if !q.Status.CanTransitionTo(StatusAccepted) {
		return shared.NewInvalidTransitionError(q.Status.String(), StatusAccepted.String())
	}

	now := time.Now()
	q.Status = StatusAccepted
	q.AcceptedAt = &now
	q.UpdatedAt = now

	q.AddDomainEvent(NewQuotationAcceptedEvent(q))

	return nil
}

// CreateNewRevision creates a new quotation row in DRAFT at revision+1,
// copying this quotation's lines. The source quotation is not modified.
// Allowed from APPROVED, REJECTED, SENT or ACCEPTED.
func (q *Quotation) CreateNewRevision() (*Quotation, error) {
	switch q.Status {
	case StatusApproved, StatusRejected, StatusSent, StatusAccepted:
	default:
		return nil, shared.NewDomainError("INVALID_STATE", "Can only revise a decided quotation")
	}

	next := &Quotation{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProjectID:         q.ProjectID,
		Revision:          q.Revision + 1,
		Status:            StatusDraft,
		Lines:             make([]Line, 0, len(q.Lines)),
		TotalAmount:       q.TotalAmount,
	}

	now := time.Now()
	for _, line := range q.Lines {
		next.Lines = append(next.Lines, Line{
			ID:          uuid.New(),
			QuotationID: next.ID,
			ProductID:   line.ProductID,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			Amount:      line.Amount,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}

	next.AddDomainEvent(NewQuotationRevisedEvent(q, next))

	return next, nil
}

// recalculateTotal recalculates the quotation total
func (q *Quotation) recalculateTotal() {
	total := decimal.Zero
	for _, line := range q.Lines {
		total = total.Add(line.Amount)
	}
	q.TotalAmount = total
}

// AuthorizedQuantities returns the authorized quantity per product
func (q *Quotation) AuthorizedQuantities() map[uuid.UUID]decimal.Decimal {
	authorized := make(map[uuid.UUID]decimal.Decimal, len(q.Lines))
	for _, line := range q.Lines {
		authorized[line.ProductID] = line.Quantity
	}
	return authorized
}

// GetLineByProduct returns a line by product ID
func (q *Quotation) GetLineByProduct(productID uuid.UUID) *Line {
	for idx := range q.Lines {
		if q.Lines[idx].ProductID == productID {
			return &q.Lines[idx]
		}
	}
	return nil
}

// CanModify returns true if lines can still be edited
func (q *Quotation) CanModify() bool {
	return q.Status == StatusDraft
}

// IsApprovedEquivalent returns true if movements may be created against
// this quotation (permissive two-tier gate, see IsAccepted)
func (q *Quotation) IsApprovedEquivalent() bool {
	return q.Status.IsApprovedEquivalent()
}

// IsAccepted is the strict tier of the movement-creation gate
func (q *Quotation) IsAccepted() bool {
	return q.Status == StatusAccepted
}

// LineCount returns the number of lines in the quotation
func (q *Quotation) LineCount() int {
	return len(q.Lines)
}
