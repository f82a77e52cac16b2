package document

import (
	"time"

	"github.com/docflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DeliveryLine represents a line item in a delivery
type DeliveryLine struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey"`
	DeliveryID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID  uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity   decimal.Decimal `gorm:"type:decimal(18,4);not null"` // Quantity delivered
	CreatedAt  time.Time       `gorm:"not null"`
	UpdatedAt  time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DeliveryLine) TableName() string {
	return "delivery_lines"
}

// Delivery represents a fulfillment record against a quotation. The sum of
// delivered quantities per product across all non-RETURNED deliveries for a
// quotation must never exceed that quotation's authorized quantity.
type Delivery struct {
	shared.BaseAggregateRoot
	ProjectID    uuid.UUID      `gorm:"type:uuid;not null;index"`
	QuotationID  *uuid.UUID     `gorm:"type:uuid;index"` // Nullable, may be unlinked
	DeliveryDate time.Time      `gorm:"not null"`
	Status       MovementStatus `gorm:"type:varchar(20);not null;index"`
	Lines        []DeliveryLine `gorm:"foreignKey:DeliveryID"`
	ReturnedAt   *time.Time     `gorm:"type:timestamp"`
}

// TableName returns the table name for GORM
func (Delivery) TableName() string {
	return "deliveries"
}

// NewDelivery creates a new delivery in RECORDED status
func NewDelivery(projectID uuid.UUID, quotationID *uuid.UUID, deliveryDate time.Time, lines []GuardLine) (*Delivery, error) {
	if projectID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PROJECT", "Project ID cannot be empty")
	}
	if len(lines) == 0 {
		return nil, shared.NewDomainError("NO_LINES", "Delivery requires at least one line")
	}
	if deliveryDate.IsZero() {
		deliveryDate = time.Now()
	}

	d := &Delivery{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProjectID:         projectID,
		QuotationID:       quotationID,
		DeliveryDate:      deliveryDate,
		Status:            MovementStatusRecorded,
		Lines:             make([]DeliveryLine, 0, len(lines)),
	}

	now := time.Now()
	for _, line := range lines {
		if line.ProductID == uuid.Nil {
			return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
		}
		if line.Quantity.LessThanOrEqual(decimal.Zero) {
			return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
		}
		d.Lines = append(d.Lines, DeliveryLine{
			ID:         uuid.New(),
			DeliveryID: d.ID,
			ProductID:  line.ProductID,
			Quantity:   line.Quantity,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}

	return d, nil
}

// MarkDelivered transitions the delivery from RECORDED to DELIVERED
func (d *Delivery) MarkDelivered() error {
	if !d.Status.CanTransitionTo(MovementStatusDelivered) {
		return shared.NewInvalidTransitionError(d.Status.String(), MovementStatusDelivered.String())
	}

	d.Status = MovementStatusDelivered
	d.UpdatedAt = time.Now()

	return nil
}

// MarkReturned transitions the delivery to RETURNED. The transition is
// unguarded: it frees the delivered quantity for future movements.
func (d *Delivery) MarkReturned() error {
	if !d.Status.CanTransitionTo(MovementStatusReturned) {
		return shared.NewInvalidTransitionError(d.Status.String(), MovementStatusReturned.String())
	}

	now := time.Now()
	d.Status = MovementStatusReturned
	d.ReturnedAt = &now
	d.UpdatedAt = now

	return nil
}

// ReassignTo rebinds the delivery to another quotation. Policy validation
// (target status, same project) is the orchestrator's responsibility; the
// rebinding itself deliberately bypasses quantity checks.
func (d *Delivery) ReassignTo(quotationID uuid.UUID) error {
	if quotationID == uuid.Nil {
		return shared.NewDomainError("INVALID_QUOTATION", "Quotation ID cannot be empty")
	}

	d.QuotationID = &quotationID
	d.UpdatedAt = time.Now()

	return nil
}

// CountsTowardConsumption reports whether this delivery consumes authorized quantity
func (d *Delivery) CountsTowardConsumption() bool {
	return d.Status.CountsTowardConsumption()
}

// GuardLines projects the delivery lines onto guard lines
func (d *Delivery) GuardLines() []GuardLine {
	lines := make([]GuardLine, 0, len(d.Lines))
	for _, line := range d.Lines {
		lines = append(lines, GuardLine{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	return lines
}

// Consumption projects the delivery onto the quantity guard's input shape
func (d *Delivery) Consumption() Consumption {
	return Consumption{
		Counted: d.CountsTowardConsumption(),
		Lines:   d.GuardLines(),
	}
}

// TotalQuantity returns the sum of all line quantities
func (d *Delivery) TotalQuantity() decimal.Decimal {
	total := decimal.Zero
	for _, line := range d.Lines {
		total = total.Add(line.Quantity)
	}
	return total
}
