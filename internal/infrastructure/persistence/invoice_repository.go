package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/docflow/backend/internal/domain/document"
	"github.com/docflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormInvoiceRepository implements document.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByID finds an invoice with its lines and payments
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*document.Invoice, error) {
	var inv document.Invoice
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		Preload("Payments").
		First(&inv, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &inv, nil
}

// FindByQuotation finds all invoices recorded against a quotation. No
// pagination: the full set feeds the quantity guard.
func (r *GormInvoiceRepository) FindByQuotation(ctx context.Context, quotationID uuid.UUID) ([]document.Invoice, error) {
	var invoices []document.Invoice
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		Preload("Payments").
		Where("quotation_id = ?", quotationID).
		Order("created_at ASC").
		Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// FindByProject finds invoices for a project with filtering
func (r *GormInvoiceRepository) FindByProject(ctx context.Context, projectID uuid.UUID, filter shared.Filter) ([]document.Invoice, error) {
	var invoices []document.Invoice
	query := applyFilter(
		r.db.WithContext(ctx).Model(&document.Invoice{}).
			Preload("Lines").
			Preload("Payments").
			Where("project_id = ?", projectID),
		filter,
	)

	if err := query.Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// Save creates or updates an invoice, its lines and payments
func (r *GormInvoiceRepository) Save(ctx context.Context, inv *document.Invoice) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(inv).Error; err != nil {
			return err
		}

		for i := range inv.Lines {
			inv.Lines[i].InvoiceID = inv.ID
			if err := tx.Save(&inv.Lines[i]).Error; err != nil {
				return err
			}
		}

		for i := range inv.Payments {
			inv.Payments[i].InvoiceID = inv.ID
			if err := tx.Save(&inv.Payments[i]).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormInvoiceRepository) SaveWithLock(ctx context.Context, inv *document.Invoice) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var currentVersion int
		if err := tx.Model(&document.Invoice{}).
			Where("id = ?", inv.ID).
			Select("version").
			Scan(&currentVersion).Error; err != nil {
			return err
		}
		if currentVersion == 0 {
			return shared.ErrNotFound
		}
		if currentVersion != inv.Version {
			return shared.ErrConcurrencyConflict
		}

		inv.Version++
		inv.UpdatedAt = time.Now()

		result := tx.Model(&document.Invoice{}).
			Where("id = ? AND version = ?", inv.ID, currentVersion).
			Updates(map[string]interface{}{
				"quotation_id": inv.QuotationID,
				"status":       inv.Status,
				"returned_at":  inv.ReturnedAt,
				"version":      inv.Version,
				"updated_at":   inv.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		for i := range inv.Payments {
			inv.Payments[i].InvoiceID = inv.ID
			if err := tx.Save(&inv.Payments[i]).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// Ensure GormInvoiceRepository implements document.InvoiceRepository
var _ document.InvoiceRepository = (*GormInvoiceRepository)(nil)
