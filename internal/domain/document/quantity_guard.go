package document

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuantityExceededError is returned when a proposed movement line requests
// more than the remaining authorized quantity for its product.
type QuantityExceededError struct {
	ProductID uuid.UUID
	Requested decimal.Decimal
	Remaining decimal.Decimal
}

// Error implements the error interface
func (e *QuantityExceededError) Error() string {
	return fmt.Sprintf("quantity exceeded for product %s: requested %s, remaining %s",
		e.ProductID, e.Requested.String(), e.Remaining.String())
}

// UnknownProductError is returned when a proposed movement line references
// a product that is not part of the quotation's authorized lines.
type UnknownProductError struct {
	ProductID uuid.UUID
}

// Error implements the error interface
func (e *UnknownProductError) Error() string {
	return fmt.Sprintf("product %s is not authorized by the quotation", e.ProductID)
}

// Consumption represents one already-recorded movement's contribution to
// quantity consumption. Counted is false for RETURNED movements.
type Consumption struct {
	Counted bool
	Lines   []GuardLine
}

// ConsumedQuantities aggregates consumed quantity per product over all
// counted movements.
func ConsumedQuantities(movements []Consumption) map[uuid.UUID]decimal.Decimal {
	consumed := make(map[uuid.UUID]decimal.Decimal)
	for _, m := range movements {
		if !m.Counted {
			continue
		}
		for _, line := range m.Lines {
			if prev, ok := consumed[line.ProductID]; ok {
				consumed[line.ProductID] = prev.Add(line.Quantity)
			} else {
				consumed[line.ProductID] = line.Quantity
			}
		}
	}
	return consumed
}

// CheckQuantities validates a proposed movement against the remaining
// authorized quantity per product. It is a pure computation with no I/O
// and no locking awareness; correctness under concurrency comes from the
// caller running it inside the quotation's critical section.
//
// Each proposed line is validated independently against quotation-level
// remaining. Quantities compare with exact decimal arithmetic; a request
// exactly equal to remaining is allowed and closes the line to zero.
func CheckQuantities(authorized map[uuid.UUID]decimal.Decimal, movements []Consumption, proposed []GuardLine) error {
	consumed := ConsumedQuantities(movements)

	for _, line := range proposed {
		limit, ok := authorized[line.ProductID]
		if !ok {
			return &UnknownProductError{ProductID: line.ProductID}
		}

		remaining := limit
		if used, ok := consumed[line.ProductID]; ok {
			remaining = remaining.Sub(used)
		}

		if line.Quantity.GreaterThan(remaining) {
			return &QuantityExceededError{
				ProductID: line.ProductID,
				Requested: line.Quantity,
				Remaining: remaining,
			}
		}
	}

	return nil
}

// RemainingQuantities computes the remaining deliverable/invoiceable
// quantity per authorized product. Useful for previews and reporting.
func RemainingQuantities(authorized map[uuid.UUID]decimal.Decimal, movements []Consumption) map[uuid.UUID]decimal.Decimal {
	consumed := ConsumedQuantities(movements)
	remaining := make(map[uuid.UUID]decimal.Decimal, len(authorized))
	for productID, limit := range authorized {
		if used, ok := consumed[productID]; ok {
			remaining[productID] = limit.Sub(used)
		} else {
			remaining[productID] = limit
		}
	}
	return remaining
}
